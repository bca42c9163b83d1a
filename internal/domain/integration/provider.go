package integration

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Provider Errors
// ---------------------------------------------------------------------------

var (
	// Provider errors
	ErrUnsupportedProvider    = errors.New("integration: unsupported provider type")
	ErrProviderUnavailable    = errors.New("integration: provider temporarily unavailable")
	ErrProviderRequestFailed  = errors.New("integration: provider request failed")
	ErrProviderInvalidConfig  = errors.New("integration: invalid provider config")
	ErrProviderInvalidData    = errors.New("integration: invalid provider response")
	ErrProviderAuthFailed     = errors.New("integration: provider authentication failed")
	ErrProviderRateLimited    = errors.New("integration: provider rate limited")
	ErrProviderActionNotFound = errors.New("integration: provider action not supported")

	// Webhook errors
	ErrInvalidSignature = errors.New("integration: invalid webhook signature")
)

// UnsupportedProviderError returns the error the adapter factory raises for a type
// it has no adapter for.
func UnsupportedProviderError(t ProviderType) error {
	return fmt.Errorf("%w: Unsupported integration type: %s", ErrUnsupportedProvider, t)
}

// ---------------------------------------------------------------------------
// ProviderType represents the external service behind an integration
// ---------------------------------------------------------------------------

// ProviderType represents the external service behind an integration
type ProviderType string

const (
	// ProviderGoogleAnalytics represents Google Analytics 4
	ProviderGoogleAnalytics ProviderType = "GOOGLE_ANALYTICS"
	// ProviderHotjar represents Hotjar
	ProviderHotjar ProviderType = "HOTJAR"
	// ProviderPowerBI represents Microsoft Power BI
	ProviderPowerBI ProviderType = "POWERBI"
	// ProviderMixpanel represents Mixpanel
	ProviderMixpanel ProviderType = "MIXPANEL"
	// ProviderAmplitude represents Amplitude
	ProviderAmplitude ProviderType = "AMPLITUDE"
	// ProviderCustom represents a user-defined REST endpoint
	ProviderCustom ProviderType = "CUSTOM"
	// ProviderFigma represents Figma. Figma records hold design sources only and have no sync adapter.
	ProviderFigma ProviderType = "FIGMA"
)

// AllProviderTypes lists every provider type in declaration order
func AllProviderTypes() []ProviderType {
	return []ProviderType{
		ProviderGoogleAnalytics,
		ProviderHotjar,
		ProviderPowerBI,
		ProviderMixpanel,
		ProviderAmplitude,
		ProviderCustom,
		ProviderFigma,
	}
}

// IsValid returns true if the provider type is valid
func (t ProviderType) IsValid() bool {
	switch t {
	case ProviderGoogleAnalytics, ProviderHotjar, ProviderPowerBI,
		ProviderMixpanel, ProviderAmplitude, ProviderCustom, ProviderFigma:
		return true
	default:
		return false
	}
}

// IsSyncable returns true if the provider type has a data adapter
func (t ProviderType) IsSyncable() bool {
	return t.IsValid() && t != ProviderFigma
}

// String returns the string representation of ProviderType
func (t ProviderType) String() string {
	return string(t)
}

// DisplayName returns a human-readable name for the provider
func (t ProviderType) DisplayName() string {
	switch t {
	case ProviderGoogleAnalytics:
		return "Google Analytics"
	case ProviderHotjar:
		return "Hotjar"
	case ProviderPowerBI:
		return "PowerBI"
	case ProviderMixpanel:
		return "Mixpanel"
	case ProviderAmplitude:
		return "Amplitude"
	case ProviderCustom:
		return "Custom integration"
	case ProviderFigma:
		return "Figma"
	default:
		return string(t)
	}
}

// ---------------------------------------------------------------------------
// DateRange
// ---------------------------------------------------------------------------

// DateLayout is the day format providers expect for time windows
const DateLayout = "2006-01-02"

// DateRange is the sample window passed to time-series providers.
// Start and End are inclusive days in YYYY-MM-DD form.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Today returns a same-day window, used for connectivity tests
func Today(now time.Time) DateRange {
	day := now.Format(DateLayout)
	return DateRange{Start: day, End: day}
}

// LastDays returns the window covering the given number of days up to now
func LastDays(now time.Time, days int) DateRange {
	return DateRange{
		Start: now.AddDate(0, 0, -days).Format(DateLayout),
		End:   now.Format(DateLayout),
	}
}

// Validate checks both bounds parse and are ordered
func (r DateRange) Validate() error {
	start, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", r.Start, err)
	}
	end, err := time.Parse(DateLayout, r.End)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", r.End, err)
	}
	if end.Before(start) {
		return errors.New("end date must not be before start date")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Adapter Port
// ---------------------------------------------------------------------------

// ProviderData is the normalized result of one provider fetch.
// Concrete shapes vary per provider.
type ProviderData interface {
	// DataPoints returns the number of top-level fields in the payload
	DataPoints() int
}

// Adapter is the port every provider integration implements.
// Adapters are built per operation and must not be shared across requests.
type Adapter interface {
	// Type returns the provider type served by this adapter
	Type() ProviderType

	// TestConnection performs the cheapest authenticated call.
	// Recoverable failures (bad credentials, network, HTTP errors) yield false with a nil error.
	// Only local errors that prevent building a request are returned.
	TestConnection(ctx context.Context) (bool, error)

	// FetchData retrieves normalized metrics for the window.
	// A nil window selects the adapter default; non-windowed providers ignore it.
	FetchData(ctx context.Context, window *DateRange) (ProviderData, error)
}

// ActionAdapter is implemented by adapters exposing provider-specific operations
// beyond the common fetch, such as refreshing a PowerBI dataset.
type ActionAdapter interface {
	Adapter

	// Actions lists the supported action names
	Actions() []string

	// RunAction executes a named action with loosely typed parameters
	RunAction(ctx context.Context, action string, params map[string]any) (any, error)
}

// AdapterFactory builds adapters from a provider type and its raw config.
// It fails with ErrUnsupportedProvider for any type without an adapter.
type AdapterFactory interface {
	Create(providerType ProviderType, config Config) (Adapter, error)
}

// SignatureVerifier checks the authenticity of an inbound webhook body
type SignatureVerifier interface {
	Verify(signature string, rawBody []byte, secret string) bool
}
