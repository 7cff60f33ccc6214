package billing

import (
	"context"

	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/domain/identity"
)

// TransactionScope provides transactional access to the entitlement repositories.
// All repository operations inside Execute are committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to one transaction.
//
// Write use cases for a user start with UserRepo().FindByExternalIDForUpdate, which
// serializes them per user for the lifetime of the transaction.
type TransactionalRepositories interface {
	UserRepo() identity.UserRepository
	TierRepo() catalog.TierRepository
	SubscriptionRepo() billing.SubscriptionRepository
	PaymentRepo() billing.PaymentRepository
}

// NoOpTransactionScope runs the function against plain repositories without a transaction.
// Useful in unit tests.
type NoOpTransactionScope struct {
	userRepo         identity.UserRepository
	tierRepo         catalog.TierRepository
	subscriptionRepo billing.SubscriptionRepository
	paymentRepo      billing.PaymentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	userRepo identity.UserRepository,
	tierRepo catalog.TierRepository,
	subscriptionRepo billing.SubscriptionRepository,
	paymentRepo billing.PaymentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		userRepo:         userRepo,
		tierRepo:         tierRepo,
		subscriptionRepo: subscriptionRepo,
		paymentRepo:      paymentRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// UserRepo returns the user repository.
func (s *NoOpTransactionScope) UserRepo() identity.UserRepository { return s.userRepo }

// TierRepo returns the tier repository.
func (s *NoOpTransactionScope) TierRepo() catalog.TierRepository { return s.tierRepo }

// SubscriptionRepo returns the subscription repository.
func (s *NoOpTransactionScope) SubscriptionRepo() billing.SubscriptionRepository {
	return s.subscriptionRepo
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() billing.PaymentRepository { return s.paymentRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
