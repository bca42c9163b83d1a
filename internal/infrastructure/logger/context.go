package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	scopeKey
)

// Scope is the request and sync identity carried through a context. Every
// field is optional; empty fields are not logged.
type Scope struct {
	RequestID     string
	UserID        string
	IntegrationID string
	Provider      string
}

func (s Scope) fields() []zap.Field {
	var out []zap.Field
	for _, kv := range [...]struct{ key, val string }{
		{"request_id", s.RequestID},
		{"user_id", s.UserID},
		{"integration_id", s.IntegrationID},
		{"provider", s.Provider},
	} {
		if kv.val != "" {
			out = append(out, zap.String(kv.key, kv.val))
		}
	}
	return out
}

// ScopeFrom returns the scope stored in ctx
func ScopeFrom(ctx context.Context) Scope {
	s, _ := ctx.Value(scopeKey).(Scope)
	return s
}

// WithContext stores logger in ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// extend applies update to the scope in ctx and stores logger, tagged with
// fields, as the context logger.
func extend(ctx context.Context, logger *zap.Logger, update func(*Scope), fields ...zap.Field) (context.Context, *zap.Logger) {
	s := ScopeFrom(ctx)
	update(&s)
	enriched := logger.With(fields...)
	ctx = context.WithValue(ctx, scopeKey, s)
	return WithContext(ctx, enriched), enriched
}

// WithRequestID records the request id and returns the tagged logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return extend(ctx, logger, func(s *Scope) { s.RequestID = requestID },
		zap.String("request_id", requestID))
}

// WithUserID records the authenticated owner and returns the tagged logger
func WithUserID(ctx context.Context, logger *zap.Logger, userID string) (context.Context, *zap.Logger) {
	return extend(ctx, logger, func(s *Scope) { s.UserID = userID },
		zap.String("user_id", userID))
}

// WithIntegration tags ctx with the integration being synced so repository
// and provider logs can be tied back to it.
func WithIntegration(ctx context.Context, logger *zap.Logger, integrationID, provider string) (context.Context, *zap.Logger) {
	return extend(ctx, logger, func(s *Scope) {
		s.IntegrationID = integrationID
		s.Provider = provider
	}, zap.String("integration_id", integrationID), zap.String("provider", provider))
}

func GetRequestID(ctx context.Context) string     { return ScopeFrom(ctx).RequestID }
func GetUserID(ctx context.Context) string        { return ScopeFrom(ctx).UserID }
func GetIntegrationID(ctx context.Context) string { return ScopeFrom(ctx).IntegrationID }
func GetProvider(ctx context.Context) string      { return ScopeFrom(ctx).Provider }

func spanContext(ctx context.Context) (trace.SpanContext, bool) {
	sc := trace.SpanContextFromContext(ctx)
	return sc, sc.IsValid()
}

// GetTraceID returns the active trace id, or "" without a valid span
func GetTraceID(ctx context.Context) string {
	if sc, ok := spanContext(ctx); ok {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the active span id, or "" without a valid span
func GetSpanID(ctx context.Context) string {
	if sc, ok := spanContext(ctx); ok {
		return sc.SpanID().String()
	}
	return ""
}

// WithTraceContext adds trace_id and span_id to logger. Without a valid span
// logger is returned as is.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	sc, ok := spanContext(ctx)
	if !ok {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// ContextLogger logs with trace correlation taken from ctx at call time
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns the logger stored in ctx. It already carries the scope fields,
// so only the trace ids are added.
//
//	logger.L(ctx).Info("Fetched provider data", zap.Int("points", n))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// WithLogger wraps a logger that knows nothing about ctx, adding the scope
// fields stored there.
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextLogger{ctx: ctx, logger: logger.With(ScopeFrom(ctx).fields()...)}
}

// With returns a child logger with extra fields
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, logger: cl.base().With(fields...)}
}

func (cl *ContextLogger) base() *zap.Logger {
	if cl.logger == nil {
		return zap.NewNop()
	}
	return cl.logger
}

// Zap returns the logger with trace ids attached
func (cl *ContextLogger) Zap() *zap.Logger {
	return WithTraceContext(cl.ctx, cl.base())
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.Zap().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.Zap().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.Zap().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.Zap().Error(msg, fields...) }
