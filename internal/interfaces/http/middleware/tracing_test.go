package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// tracedRouter starts a recording span per request in place of otelgin
func tracedRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	router := gin.New()
	router.Use(RequestID(), func(c *gin.Context) {
		ctx, span := tp.Tracer("test").Start(c.Request.Context(), c.Request.Method)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, SpanErrorMarker())
	return router, recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingAttributeInjector(t *testing.T) {
	router, recorder := tracedRouter(t)
	id := uuid.New()
	owner := uuid.New()

	router.POST("/integrations/:id/sync", func(c *gin.Context) {
		c.Set(JWTUserIDKey, owner)
		c.Next()
	}, TracingAttributeInjector(), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/integrations/"+id.String()+"/sync", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, id.String(), attrs["integration.id"].AsString())
	assert.Equal(t, owner.String(), attrs["user_id"].AsString())
	assert.Equal(t, rec.Header().Get("X-Request-ID"), attrs["request_id"].AsString())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestTracingAttributeInjector_IgnoresMalformedID(t *testing.T) {
	router, recorder := tracedRouter(t)
	router.GET("/integrations/:id", TracingAttributeInjector(), func(c *gin.Context) { c.Status(http.StatusNotFound) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/integrations/<script>", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotContains(t, spanAttrs(spans[0]), attribute.Key("integration.id"))
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadGateway, "Provider Error"},
		{http.StatusInternalServerError, "Internal Server Error"},
		{http.StatusConflict, "Already Syncing"},
		{http.StatusPaymentRequired, "Client Error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			router, recorder := tracedRouter(t)
			router.GET("/x", func(c *gin.Context) { c.Status(tt.status) })

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, codes.Error, spans[0].Status().Code)
			assert.Equal(t, tt.want, spans[0].Status().Description)
			assert.EqualValues(t, tt.status, spanAttrs(spans[0])["http.status_code"].AsInt64())
		})
	}
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
