// Package billing holds the subscription and payment ledger model.
//
// The central rule is that a user has at most one active Subscription at any
// time. A tier switch never mutates a subscription in place: the prior
// subscription is cancelled and a new one is created. Payments are an
// append-only ledger of provider-confirmed charges, keyed by the external
// payment id so duplicate webhook deliveries can be detected.
package billing
