package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/uxinsight/backend/internal/domain/integration"
)

const (
	amplitudeAPIBaseURL = "https://analytics.amplitude.com/api/2"
	amplitudeTopEvents  = 10
	amplitudeAllEvents  = `{"event_type":"*"}`
)

// Amplitude configuration errors
var (
	ErrAmplitudeMissingAPIKey    = fmt.Errorf("%w: amplitude api key is required", integration.ErrProviderInvalidConfig)
	ErrAmplitudeMissingSecretKey = fmt.Errorf("%w: amplitude secret key is required", integration.ErrProviderInvalidConfig)
)

// Amplitude action names
const (
	AmplitudeActionEventData   = "event-data"
	AmplitudeActionUserProfile = "user-profile"
	AmplitudeActionCohort      = "cohort-retention"
)

// AmplitudeConfig holds the project API key pair
type AmplitudeConfig struct {
	APIKey     string     `json:"apiKey"`
	SecretKey  string     `json:"secretKey"`
	ProjectID  flexString `json:"projectId,omitempty"`
	APIBaseURL string     `json:"apiBaseUrl,omitempty"`
}

// Validate validates the configuration
func (c *AmplitudeConfig) Validate() error {
	if c.APIKey == "" {
		return ErrAmplitudeMissingAPIKey
	}
	if c.SecretKey == "" {
		return ErrAmplitudeMissingSecretKey
	}
	return nil
}

// AmplitudeData is the normalized Amplitude report
type AmplitudeData struct {
	Events         []map[string]any        `json:"events"`
	Users          AmplitudeUsers          `json:"users"`
	Funnels        []AnalyticsFunnel       `json:"funnels"`
	Retention      []AnalyticsCohort       `json:"retention"`
	TopEvents      []AmplitudeEventStat    `json:"topEvents"`
	UserProperties []AmplitudeUserProperty `json:"userProperties"`
}

// DataPoints implements integration.ProviderData
func (d *AmplitudeData) DataPoints() int {
	return countTopLevelKeys(d)
}

// AmplitudeUsers holds user totals for the window
type AmplitudeUsers struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	New       int64 `json:"new"`
	Returning int64 `json:"returning"`
}

// AmplitudeEventStat is one row of the event segmentation totals
type AmplitudeEventStat struct {
	EventType   string `json:"event_type"`
	Count       int64  `json:"count"`
	UniqueUsers int64  `json:"unique_users"`
}

// AmplitudeUserProperty is a user property with its value distribution
type AmplitudeUserProperty struct {
	Property string                       `json:"property"`
	Values   []AmplitudeUserPropertyValue `json:"values"`
}

// AmplitudeUserPropertyValue is one value bucket of a user property
type AmplitudeUserPropertyValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type amplitudeSegmentationResponse struct {
	Data []struct {
		EventType   string  `json:"event_type"`
		Count       float64 `json:"count"`
		UniqueUsers float64 `json:"unique_users"`
	} `json:"data"`
}

type amplitudeUsersResponse struct {
	Data struct {
		Total          float64 `json:"total"`
		Active         float64 `json:"active"`
		New            float64 `json:"new"`
		Returning      float64 `json:"returning"`
		UserProperties []struct {
			Property string `json:"property"`
			Values   []struct {
				Value string  `json:"value"`
				Count float64 `json:"count"`
			} `json:"values"`
		} `json:"user_properties"`
	} `json:"data"`
}

// AmplitudeAdapter reads the Amplitude dashboard REST API
type AmplitudeAdapter struct {
	config *AmplitudeConfig
	client *apiClient
	opts   Options
}

// NewAmplitudeAdapter creates a new Amplitude adapter
func NewAmplitudeAdapter(config *AmplitudeConfig, opts Options) (*AmplitudeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &AmplitudeAdapter{
		config: config,
		client: newAPIClient(integration.ProviderAmplitude, opts),
		opts:   opts,
	}, nil
}

// Type implements integration.Adapter
func (a *AmplitudeAdapter) Type() integration.ProviderType {
	return integration.ProviderAmplitude
}

// TestConnection runs today's event segmentation
func (a *AmplitudeAdapter) TestConnection(ctx context.Context) (bool, error) {
	_, err := a.topEvents(ctx, integration.Today(a.opts.now()))
	return connectionResult(err)
}

// FetchData implements integration.Adapter.
// Event segmentation must succeed; user totals and properties degrade to empty values.
func (a *AmplitudeAdapter) FetchData(ctx context.Context, window *integration.DateRange) (integration.ProviderData, error) {
	w, err := resolveWindow(window, a.opts.now())
	if err != nil {
		return nil, err
	}

	top, err := a.topEvents(ctx, w)
	if err != nil {
		return nil, err
	}

	return &AmplitudeData{
		Events:         []map[string]any{},
		Users:          a.users(ctx, w),
		Funnels:        []AnalyticsFunnel{},
		Retention:      []AnalyticsCohort{},
		TopEvents:      top,
		UserProperties: a.userProperties(ctx, w),
	}, nil
}

func (a *AmplitudeAdapter) topEvents(ctx context.Context, w integration.DateRange) ([]AmplitudeEventStat, error) {
	var resp amplitudeSegmentationResponse
	err := a.get(ctx, "top_events", "/events/segmentation", url.Values{
		"e":     {amplitudeAllEvents},
		"start": {w.Start},
		"end":   {w.End},
		"m":     {"totals"},
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]AmplitudeEventStat, 0, amplitudeTopEvents)
	for _, e := range resp.Data {
		if len(out) == amplitudeTopEvents {
			break
		}
		out = append(out, AmplitudeEventStat{EventType: e.EventType, Count: int64(e.Count), UniqueUsers: int64(e.UniqueUsers)})
	}
	return out, nil
}

func (a *AmplitudeAdapter) users(ctx context.Context, w integration.DateRange) AmplitudeUsers {
	var resp amplitudeUsersResponse
	err := a.get(ctx, "users", "/users/segmentation", url.Values{
		"start": {w.Start},
		"end":   {w.End},
		"m":     {"totals"},
	}, &resp)
	if err != nil {
		return AmplitudeUsers{}
	}
	return AmplitudeUsers{
		Total:     int64(resp.Data.Total),
		Active:    int64(resp.Data.Active),
		New:       int64(resp.Data.New),
		Returning: int64(resp.Data.Returning),
	}
}

func (a *AmplitudeAdapter) userProperties(ctx context.Context, w integration.DateRange) []AmplitudeUserProperty {
	out := []AmplitudeUserProperty{}

	var resp amplitudeUsersResponse
	err := a.get(ctx, "user_properties", "/users/segmentation", url.Values{
		"start": {w.Start},
		"end":   {w.End},
		"m":     {"totals"},
		"s":     {"user_properties"},
	}, &resp)
	if err != nil {
		return out
	}

	for _, p := range resp.Data.UserProperties {
		values := make([]AmplitudeUserPropertyValue, 0, len(p.Values))
		for _, v := range p.Values {
			values = append(values, AmplitudeUserPropertyValue{Value: v.Value, Count: int64(v.Count)})
		}
		out = append(out, AmplitudeUserProperty{Property: p.Property, Values: values})
	}
	return out
}

// EventData returns the segmentation totals of one event type
func (a *AmplitudeAdapter) EventData(ctx context.Context, eventType string, window *integration.DateRange) (any, error) {
	q := url.Values{
		"e": {fmt.Sprintf(`{"event_type":%s}`, strconv.Quote(eventType))},
		"m": {"totals"},
	}
	if window != nil {
		if window.Start != "" {
			q.Set("start", window.Start)
		}
		if window.End != "" {
			q.Set("end", window.End)
		}
	}
	return a.dataField(ctx, "event_data", "/events/segmentation", q)
}

// CohortRetention returns retention data for a cohort
func (a *AmplitudeAdapter) CohortRetention(ctx context.Context, cohortID string, window *integration.DateRange) (any, error) {
	q := url.Values{"cohort_id": {cohortID}}
	if window != nil {
		if window.Start != "" {
			q.Set("start", window.Start)
		}
		if window.End != "" {
			q.Set("end", window.End)
		}
	}
	return a.dataField(ctx, "cohort_retention", "/cohorts/retention", q)
}

// UserProfile looks up a user, or returns nil when none matches
func (a *AmplitudeAdapter) UserProfile(ctx context.Context, userID string) (map[string]any, error) {
	var resp struct {
		Results []map[string]any `json:"results"`
	}
	if err := a.get(ctx, "user_profile", "/users/search", url.Values{"user_id": {userID}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return resp.Results[0], nil
}

// Actions implements integration.ActionAdapter
func (a *AmplitudeAdapter) Actions() []string {
	return []string{AmplitudeActionEventData, AmplitudeActionUserProfile, AmplitudeActionCohort}
}

// RunAction implements integration.ActionAdapter
func (a *AmplitudeAdapter) RunAction(ctx context.Context, action string, params map[string]any) (any, error) {
	switch action {
	case AmplitudeActionEventData:
		eventType, err := requiredParam(params, "eventType")
		if err != nil {
			return nil, err
		}
		return a.EventData(ctx, eventType, windowParam(params))
	case AmplitudeActionUserProfile:
		id, err := requiredParam(params, "userId")
		if err != nil {
			return nil, err
		}
		return a.UserProfile(ctx, id)
	case AmplitudeActionCohort:
		id, err := requiredParam(params, "cohortId")
		if err != nil {
			return nil, err
		}
		return a.CohortRetention(ctx, id, windowParam(params))
	default:
		return nil, fmt.Errorf("%w: %s", integration.ErrProviderActionNotFound, action)
	}
}

func (a *AmplitudeAdapter) dataField(ctx context.Context, operation, path string, q url.Values) (any, error) {
	var resp struct {
		Data any `json:"data"`
	}
	if err := a.get(ctx, operation, path, q, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []any{}, nil
	}
	return resp.Data, nil
}

func (a *AmplitudeAdapter) get(ctx context.Context, operation, path string, query url.Values, out any) error {
	base := a.config.APIBaseURL
	if base == "" {
		base = amplitudeAPIBaseURL
	}
	query.Set("api_key", a.config.APIKey)
	return a.client.getJSON(ctx, request{
		url:       strings.TrimRight(base, "/") + path,
		query:     query,
		basicUser: a.config.APIKey,
		basicPass: a.config.SecretKey,
		operation: operation,
	}, out)
}
