package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BillingMeterName names the meter that owns the billing instruments
const BillingMeterName = "tierhub/billing"

var attrOutcome = attribute.Key("outcome")

// BillingMetrics records reconciliation outcomes as OpenTelemetry instruments
type BillingMetrics struct {
	checkouts       metric.Int64Counter
	confirmations   metric.Int64Counter
	duplicates      metric.Int64Counter
	confirmDuration metric.Float64Histogram
	cancelFailures  metric.Int64Counter
	refills         metric.Int64Counter
}

// NewBillingMetrics creates the billing instruments on the given meter
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	var (
		bm  BillingMetrics
		err error
	)
	if bm.checkouts, err = meter.Int64Counter("checkout_sessions_created_total",
		metric.WithDescription("Checkout sessions created"),
		metric.WithUnit("{session}")); err != nil {
		return nil, fmt.Errorf("checkout counter: %w", err)
	}
	if bm.confirmations, err = meter.Int64Counter("payments_confirmed_total",
		metric.WithDescription("Payments applied to a subscription"),
		metric.WithUnit("{payment}")); err != nil {
		return nil, fmt.Errorf("confirmation counter: %w", err)
	}
	if bm.duplicates, err = meter.Int64Counter("payment_duplicates_total",
		metric.WithDescription("Payment confirmations ignored because the payment was already recorded"),
		metric.WithUnit("{payment}")); err != nil {
		return nil, fmt.Errorf("duplicate counter: %w", err)
	}
	if bm.confirmDuration, err = meter.Float64Histogram("payment_confirm_duration",
		metric.WithDescription("Time spent applying a confirmed payment"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000)); err != nil {
		return nil, fmt.Errorf("confirmation histogram: %w", err)
	}
	if bm.cancelFailures, err = meter.Int64Counter("gateway_cancel_failures_total",
		metric.WithDescription("Provider subscription cancellations that failed"),
		metric.WithUnit("{call}")); err != nil {
		return nil, fmt.Errorf("cancel failure counter: %w", err)
	}
	if bm.refills, err = meter.Int64Counter("quota_refills_total",
		metric.WithDescription("Quota refills by outcome"),
		metric.WithUnit("{user}")); err != nil {
		return nil, fmt.Errorf("refill counter: %w", err)
	}
	return &bm, nil
}

func (bm *BillingMetrics) RecordCheckoutCreated(ctx context.Context) {
	bm.checkouts.Add(ctx, 1)
}

func (bm *BillingMetrics) RecordPaymentConfirmed(ctx context.Context, duration time.Duration) {
	bm.confirmations.Add(ctx, 1)
	bm.confirmDuration.Record(ctx, float64(duration.Microseconds())/1000.0)
}

func (bm *BillingMetrics) RecordDuplicatePayment(ctx context.Context) {
	bm.duplicates.Add(ctx, 1)
}

func (bm *BillingMetrics) RecordGatewayCancelFailure(ctx context.Context) {
	bm.cancelFailures.Add(ctx, 1)
}

func (bm *BillingMetrics) RecordQuotaRefills(ctx context.Context, refilled, failed int) {
	if refilled > 0 {
		bm.refills.Add(ctx, int64(refilled), metric.WithAttributes(attrOutcome.String("refilled")))
	}
	if failed > 0 {
		bm.refills.Add(ctx, int64(failed), metric.WithAttributes(attrOutcome.String("failed")))
	}
}
