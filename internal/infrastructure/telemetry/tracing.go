package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for service spans
const TracerName = "tierhub-backend"

// Span attribute keys shared by services
const (
	SpanAttrRequestID         = "request_id"
	SpanAttrUserID            = "user_id"
	SpanAttrTierID            = "tier_id"
	SpanAttrEventID           = "event_id"
	SpanAttrEventType         = "event_type"
	SpanAttrExternalPaymentID = "external_payment_id"
)

// StartServiceSpan starts an internal span named {service}.{method}.
// The caller must End the returned span.
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, fmt.Sprintf("%s.%s", service, method),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks the span failed. A nil error is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
