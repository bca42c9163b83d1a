package provider

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/uxinsight/backend/internal/domain/integration"
)

// RateLimit is a token bucket setting for one provider
type RateLimit struct {
	// QPS is the sustained request rate; 0 disables limiting
	QPS float64
	// Burst is the bucket size
	Burst int
}

// DefaultRateLimits returns conservative outbound limits per provider.
// Providers not listed are not limited.
func DefaultRateLimits() map[integration.ProviderType]RateLimit {
	return map[integration.ProviderType]RateLimit{
		integration.ProviderGoogleAnalytics: {QPS: 10, Burst: 10},
		integration.ProviderHotjar:          {QPS: 5, Burst: 10},
		integration.ProviderPowerBI:         {QPS: 5, Burst: 5},
		integration.ProviderMixpanel:        {QPS: 1, Burst: 5},
		integration.ProviderAmplitude:       {QPS: 5, Burst: 5},
	}
}

// RateLimiters holds one shared token bucket per provider type.
// Safe for concurrent use; a nil *RateLimiters never blocks.
type RateLimiters struct {
	mu       sync.RWMutex
	limits   map[integration.ProviderType]RateLimit
	limiters map[integration.ProviderType]*rate.Limiter
}

// NewRateLimiters creates limiters from per-provider settings
func NewRateLimiters(limits map[integration.ProviderType]RateLimit) *RateLimiters {
	rl := &RateLimiters{
		limits:   make(map[integration.ProviderType]RateLimit, len(limits)),
		limiters: make(map[integration.ProviderType]*rate.Limiter, len(limits)),
	}
	for p, l := range limits {
		rl.Set(p, l)
	}
	return rl
}

// Set replaces the limit for a provider
func (r *RateLimiters) Set(p integration.ProviderType, l RateLimit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.limits[p] = l
	if l.QPS <= 0 {
		delete(r.limiters, p)
		return
	}
	burst := l.Burst
	if burst <= 0 {
		burst = 1
	}
	r.limiters[p] = rate.NewLimiter(rate.Limit(l.QPS), burst)
}

// Limit returns the configured limit for a provider
func (r *RateLimiters) Limit(p integration.ProviderType) (RateLimit, bool) {
	if r == nil {
		return RateLimit{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.limits[p]
	return l, ok
}

// Wait blocks until a call to the provider is allowed or ctx is done
func (r *RateLimiters) Wait(ctx context.Context, p integration.ProviderType) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	limiter := r.limiters[p]
	r.mu.RUnlock()
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// RateLimitsWithOverrides applies per-provider QPS overrides, keyed by
// provider type, to DefaultRateLimits. Unknown keys are returned as ignored.
// A zero QPS disables limiting for that provider.
func RateLimitsWithOverrides(qps map[string]float64) (map[integration.ProviderType]RateLimit, []string) {
	limits := DefaultRateLimits()
	var ignored []string
	for key, v := range qps {
		p := integration.ProviderType(strings.ToUpper(key))
		if !p.IsValid() {
			ignored = append(ignored, key)
			continue
		}
		l := limits[p]
		l.QPS = v
		if l.Burst < int(v) {
			l.Burst = int(v)
		}
		limits[p] = l
	}
	sort.Strings(ignored)
	return limits, ignored
}
