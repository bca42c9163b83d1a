package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/uxinsight/backend/internal/domain/integration"
)

// Options carries the shared dependencies handed to every adapter the factory builds
type Options struct {
	// HTTPClient is used for provider and token calls; defaults to a plain client
	HTTPClient *http.Client
	// CallTimeout bounds a single provider call; defaults to 30s
	CallTimeout time.Duration
	// RateLimiters throttles outbound calls per provider; nil disables limiting
	RateLimiters *RateLimiters
	// Metrics records provider calls; nil disables recording
	Metrics *CallMetrics
	// Now returns the current time; defaults to time.Now
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Ensure Factory implements integration.AdapterFactory
var _ integration.AdapterFactory = (*Factory)(nil)

// Factory builds a fresh adapter per operation from a provider type and its stored config
type Factory struct {
	opts Options
}

// NewFactory creates a new adapter factory
func NewFactory(opts Options) *Factory {
	return &Factory{opts: opts}
}

// Create decodes config into the provider's typed configuration and builds the adapter.
// FIGMA and unknown types fail with integration.ErrUnsupportedProvider.
func (f *Factory) Create(providerType integration.ProviderType, config integration.Config) (integration.Adapter, error) {
	switch providerType {
	case integration.ProviderGoogleAnalytics:
		var c GoogleAnalyticsConfig
		if err := decodeConfig(config, &c); err != nil {
			return nil, err
		}
		return NewGoogleAnalyticsAdapter(&c, f.opts)
	case integration.ProviderHotjar:
		var c HotjarConfig
		if err := decodeConfig(config, &c); err != nil {
			return nil, err
		}
		return NewHotjarAdapter(&c, f.opts)
	case integration.ProviderPowerBI:
		var c PowerBIConfig
		if err := decodeConfig(config, &c); err != nil {
			return nil, err
		}
		return NewPowerBIAdapter(&c, f.opts)
	case integration.ProviderMixpanel:
		var c MixpanelConfig
		if err := decodeConfig(config, &c); err != nil {
			return nil, err
		}
		return NewMixpanelAdapter(&c, f.opts)
	case integration.ProviderAmplitude:
		var c AmplitudeConfig
		if err := decodeConfig(config, &c); err != nil {
			return nil, err
		}
		return NewAmplitudeAdapter(&c, f.opts)
	case integration.ProviderCustom:
		var c CustomConfig
		if err := decodeConfig(config, &c); err != nil {
			return nil, err
		}
		return NewCustomAdapter(&c, f.opts)
	case integration.ProviderFigma:
		return nil, integration.UnsupportedProviderError(providerType)
	default:
		return nil, integration.UnsupportedProviderError(providerType)
	}
}

// decodeConfig converts the opaque stored map into a typed config struct
func decodeConfig(config integration.Config, out any) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrProviderInvalidConfig, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrProviderInvalidConfig, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers shared by adapters
// ---------------------------------------------------------------------------

// flexString accepts a JSON string or number, since ids are often stored either way
type flexString string

// UnmarshalJSON implements json.Unmarshaler
func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(b))
	}
	*s = flexString(num.String())
	return nil
}

// String returns the underlying string
func (s flexString) String() string {
	return string(s)
}

// countTopLevelKeys returns the number of top-level JSON fields of v.
// Non-object values count as zero.
func countTopLevelKeys(v any) int {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return 0
	}
	return len(m)
}

// connectionResult turns a connection-check error into the TestConnection contract:
// recoverable provider failures become false, local config errors propagate.
func connectionResult(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, integration.ErrProviderInvalidConfig) {
		return false, err
	}
	return false, nil
}

// resolveWindow returns the window or the default last-30-days window
func resolveWindow(window *integration.DateRange, now time.Time) (integration.DateRange, error) {
	if window == nil {
		return integration.LastDays(now, 30), nil
	}
	if err := window.Validate(); err != nil {
		return integration.DateRange{}, fmt.Errorf("%w: %v", integration.ErrProviderInvalidConfig, err)
	}
	return *window, nil
}

// parseInt reads a provider numeric string, treating garbage as zero
func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return n
}

// parseFloat reads a provider numeric string, treating garbage as zero
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
