package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

// Context keys for correlation values carried on request and webhook contexts
const (
	LoggerKey    contextKey = "logger"
	RequestIDKey contextKey = "request_id"
	EventIDKey   contextKey = "event_id"
	UserIDKey    contextKey = "user_id"
)

// WithContext stores logger on ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the logger stored on ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID records the HTTP request id on ctx and returns logger with the
// matching field
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return withCorrelation(ctx, logger, RequestIDKey, requestID)
}

// WithEventID records the provider webhook event id being handled
func WithEventID(ctx context.Context, logger *zap.Logger, eventID string) (context.Context, *zap.Logger) {
	return withCorrelation(ctx, logger, EventIDKey, eventID)
}

// WithUserID records the authenticated external identity id
func WithUserID(ctx context.Context, logger *zap.Logger, userID string) (context.Context, *zap.Logger) {
	return withCorrelation(ctx, logger, UserIDKey, userID)
}

func withCorrelation(ctx context.Context, logger *zap.Logger, key contextKey, value string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, key, value)
	enriched := logger.With(zap.String(string(key), value))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID returns the request id on ctx, or ""
func GetRequestID(ctx context.Context) string { return stringValue(ctx, RequestIDKey) }

// GetEventID returns the webhook event id on ctx, or ""
func GetEventID(ctx context.Context) string { return stringValue(ctx, EventIDKey) }

// GetUserID returns the user id on ctx, or ""
func GetUserID(ctx context.Context) string { return stringValue(ctx, UserIDKey) }

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// GetTraceID returns the trace id of the active span, or "" when no valid span
// is recording
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// ContextLogger writes entries annotated with the correlation values found on
// its context at the time of each call.
//
//	logger.WithLogger(ctx, s.logger).Info("Payment confirmed", zap.String("payment_id", id))
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
	// scoped loggers come from the context and already carry the
	// request, event and user fields
	scoped bool
}

// L returns a ContextLogger around the logger stored on ctx
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx), scoped: true}
}

// WithLogger returns a ContextLogger around an explicit base logger
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextLogger{ctx: ctx, logger: logger}
}

// With adds fields to every subsequent entry
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, logger: cl.logger.With(fields...), scoped: cl.scoped}
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.Zap().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.Zap().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.Zap().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.Zap().Error(msg, fields...) }

// Zap returns the underlying logger with trace and correlation fields attached
func (cl *ContextLogger) Zap() *zap.Logger {
	if cl.ctx == nil {
		return cl.logger
	}
	var fields []zap.Field
	if cl.scoped {
		if id := GetTraceID(cl.ctx); id != "" {
			fields = append(fields, zap.String("trace_id", id))
		}
	} else {
		fields = correlationFields(cl.ctx)
	}
	if spanCtx := trace.SpanContextFromContext(cl.ctx); spanCtx.IsValid() {
		fields = append(fields, zap.String("span_id", spanCtx.SpanID().String()))
	}
	return cl.logger.With(fields...)
}
