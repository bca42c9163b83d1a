package logger

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ginRequestIDKey is where the RequestID middleware leaves the id
const ginRequestIDKey = "request_id"

// AccessLogOption customises GinMiddleware
type AccessLogOption func(*accessLog)

type accessLog struct {
	skip map[string]struct{}
}

// SkipPaths suppresses the access entry for exact paths such as health checks.
// The request still gets a context logger.
func SkipPaths(paths ...string) AccessLogOption {
	return func(a *accessLog) {
		for _, p := range paths {
			a.skip[p] = struct{}{}
		}
	}
}

// GinMiddleware puts a request-scoped logger on the request context and
// writes one access entry per request once the handlers return.
func GinMiddleware(logger *zap.Logger, opts ...AccessLogOption) gin.HandlerFunc {
	cfg := accessLog{skip: map[string]struct{}{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		ctx, reqLogger := WithRequestID(req.Context(), logger.With(
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		), c.GetString(ginRequestIDKey))
		c.Request = req.WithContext(ctx)

		c.Next()

		if _, skip := cfg.skip[req.URL.Path]; skip {
			return
		}
		status := c.Writer.Status()
		ce := reqLogger.Check(statusLevel(status), "HTTP Request")
		if ce == nil {
			return
		}

		fields := make([]zap.Field, 0, 7)
		fields = append(fields,
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		)
		if req.URL.RawQuery != "" {
			fields = append(fields, zap.String("query", req.URL.RawQuery))
		}
		// set by the auth middleware after this one ran
		if userID := GetUserID(c.Request.Context()); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}
		ce.Write(fields...)
	}
}

func statusLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// Recovery turns a panic into a 500 carrying the usual error envelope.
// The panic value and stack are logged, never returned.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		requestID := c.GetString(ginRequestIDKey)
		logger.Error("Panic recovered",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("error", recovered),
			zap.Stack("stacktrace"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":       "ERR_INTERNAL",
				"message":    "An unexpected error occurred",
				"request_id": requestID,
				"timestamp":  time.Now().UTC(),
			},
		})
	})
}

// GetGinLogger returns the logger GinMiddleware attached to the request, or a
// no-op logger outside that middleware.
func GetGinLogger(c *gin.Context) *zap.Logger {
	if c.Request == nil {
		return zap.NewNop()
	}
	return FromContext(c.Request.Context())
}
