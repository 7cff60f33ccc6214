package billing

import (
	"context"
	"time"
)

// Metrics records reconciliation outcomes
type Metrics interface {
	RecordCheckoutCreated(ctx context.Context)
	RecordPaymentConfirmed(ctx context.Context, duration time.Duration)
	RecordDuplicatePayment(ctx context.Context)
	RecordGatewayCancelFailure(ctx context.Context)
	RecordQuotaRefills(ctx context.Context, refilled, failed int)
}

// NoopMetrics discards every measurement
type NoopMetrics struct{}

func (NoopMetrics) RecordCheckoutCreated(context.Context)                 {}
func (NoopMetrics) RecordPaymentConfirmed(context.Context, time.Duration) {}
func (NoopMetrics) RecordDuplicatePayment(context.Context)                {}
func (NoopMetrics) RecordGatewayCancelFailure(context.Context)            {}
func (NoopMetrics) RecordQuotaRefills(context.Context, int, int)          {}

var _ Metrics = NoopMetrics{}
