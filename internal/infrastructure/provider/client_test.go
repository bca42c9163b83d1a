package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxinsight/backend/internal/domain/integration"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, integration.ErrProviderAuthFailed},
		{http.StatusForbidden, integration.ErrProviderAuthFailed},
		{http.StatusTooManyRequests, integration.ErrProviderRateLimited},
		{http.StatusBadGateway, integration.ErrProviderUnavailable},
		{http.StatusNotFound, integration.ErrProviderRequestFailed},
		{http.StatusBadRequest, integration.ErrProviderRequestFailed},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			assert.ErrorIs(t, statusError(tt.code, http.StatusText(tt.code)), tt.want)
		})
	}
}

func TestAPIClient_RecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/fail") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	metrics := NewCallMetrics("test")
	c := newAPIClient(integration.ProviderHotjar, Options{Metrics: metrics})

	var out map[string]any
	require.NoError(t, c.getJSON(context.Background(), request{url: server.URL + "/ok", operation: "ping"}, &out))
	assert.Equal(t, true, out["ok"])

	err := c.getJSON(context.Background(), request{url: server.URL + "/fail", operation: "ping"}, nil)
	assert.ErrorIs(t, err, integration.ErrProviderUnavailable)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.callsTotal.WithLabelValues("HOTJAR", "ping", outcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.callsTotal.WithLabelValues("HOTJAR", "ping", outcomeHTTPError)))
}

func TestAPIClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newAPIClient(integration.ProviderCustom, Options{})
	err := c.getJSON(context.Background(), request{url: url}, nil)
	assert.ErrorIs(t, err, integration.ErrProviderUnavailable)
}

func TestAPIClient_TruncatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte(`{"ok":`))
	}))
	defer server.Close()

	c := newAPIClient(integration.ProviderCustom, Options{})
	err := c.getJSON(context.Background(), request{url: server.URL}, nil)
	assert.ErrorIs(t, err, integration.ErrProviderUnavailable)
}

func TestAPIClient_UnencodableBody(t *testing.T) {
	c := newAPIClient(integration.ProviderCustom, Options{})
	err := c.getJSON(context.Background(), request{
		method: http.MethodPost,
		url:    "http://127.0.0.1:1",
		body:   map[string]any{"ch": make(chan int)},
	}, nil)
	assert.ErrorIs(t, err, integration.ErrProviderInvalidData)
}

func TestAPIClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := newAPIClient(integration.ProviderCustom, Options{CallTimeout: 50 * time.Millisecond})
	err := c.getJSON(context.Background(), request{url: server.URL}, nil)
	assert.ErrorIs(t, err, integration.ErrProviderUnavailable)
}

func TestRateLimiters(t *testing.T) {
	var nilLimiters *RateLimiters
	assert.NoError(t, nilLimiters.Wait(context.Background(), integration.ProviderHotjar))
	_, ok := nilLimiters.Limit(integration.ProviderHotjar)
	assert.False(t, ok)

	rl := NewRateLimiters(map[integration.ProviderType]RateLimit{
		integration.ProviderMixpanel: {QPS: 0.001, Burst: 1},
	})

	limit, ok := rl.Limit(integration.ProviderMixpanel)
	require.True(t, ok)
	assert.Equal(t, 1, limit.Burst)

	// burst of one is available immediately
	require.NoError(t, rl.Wait(context.Background(), integration.ProviderMixpanel))

	// the next token is far away, so a short deadline fails
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx, integration.ProviderMixpanel))

	// unlimited providers never block
	assert.NoError(t, rl.Wait(ctx, integration.ProviderCustom))

	rl.Set(integration.ProviderMixpanel, RateLimit{})
	assert.NoError(t, rl.Wait(context.Background(), integration.ProviderMixpanel))
}

func TestRateLimitsWithOverrides(t *testing.T) {
	limits, ignored := RateLimitsWithOverrides(map[string]float64{
		"mixpanel": 20,
		"CUSTOM":   2,
		"HOTJAR":   0,
		"segment":  5,
	})

	assert.Equal(t, []string{"segment"}, ignored)
	assert.Equal(t, RateLimit{QPS: 20, Burst: 20}, limits[integration.ProviderMixpanel])
	assert.Equal(t, RateLimit{QPS: 2, Burst: 2}, limits[integration.ProviderCustom])
	assert.Zero(t, limits[integration.ProviderHotjar].QPS)
	assert.Equal(t, DefaultRateLimits()[integration.ProviderAmplitude], limits[integration.ProviderAmplitude])
}

func TestAPIClient_RateLimited(t *testing.T) {
	rl := NewRateLimiters(map[integration.ProviderType]RateLimit{
		integration.ProviderAmplitude: {QPS: 0.001, Burst: 1},
	})
	require.NoError(t, rl.Wait(context.Background(), integration.ProviderAmplitude))

	c := newAPIClient(integration.ProviderAmplitude, Options{RateLimiters: rl})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.getJSON(ctx, request{url: "http://127.0.0.1:1"}, nil)
	assert.ErrorIs(t, err, integration.ErrProviderRateLimited)
}
