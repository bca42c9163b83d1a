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
	mixpanelAPIBaseURL = "https://mixpanel.com/api/2.0"
	mixpanelTopEvents  = 10
)

// Mixpanel configuration errors
var (
	ErrMixpanelMissingProjectID = fmt.Errorf("%w: mixpanel project id is required", integration.ErrProviderInvalidConfig)
	ErrMixpanelMissingAPISecret = fmt.Errorf("%w: mixpanel api secret is required", integration.ErrProviderInvalidConfig)
)

// Mixpanel action names
const (
	MixpanelActionEventData   = "event-data"
	MixpanelActionUserProfile = "user-profile"
)

// MixpanelConfig holds the project and API secret
type MixpanelConfig struct {
	ProjectID  flexString `json:"projectId"`
	APISecret  string     `json:"apiSecret"`
	Username   string     `json:"username,omitempty"`
	APIBaseURL string     `json:"apiBaseUrl,omitempty"`
}

// Validate validates the configuration
func (c *MixpanelConfig) Validate() error {
	if c.ProjectID == "" {
		return ErrMixpanelMissingProjectID
	}
	if c.APISecret == "" {
		return ErrMixpanelMissingAPISecret
	}
	return nil
}

// MixpanelData is the normalized Mixpanel report
type MixpanelData struct {
	Events    []map[string]any    `json:"events"`
	Users     MixpanelUsers       `json:"users"`
	Funnels   []AnalyticsFunnel   `json:"funnels"`
	Retention []AnalyticsCohort   `json:"retention"`
	TopEvents []MixpanelEventStat `json:"topEvents"`
}

// DataPoints implements integration.ProviderData
func (d *MixpanelData) DataPoints() int {
	return countTopLevelKeys(d)
}

// MixpanelUsers holds user totals for the window
type MixpanelUsers struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
	New    int64 `json:"new"`
}

// MixpanelEventStat is one row of the top events report
type MixpanelEventStat struct {
	Event       string `json:"event"`
	Count       int64  `json:"count"`
	UniqueUsers int64  `json:"uniqueUsers"`
}

// AnalyticsFunnel is a named funnel with its steps
type AnalyticsFunnel struct {
	Name  string                `json:"name"`
	Steps []AnalyticsFunnelStep `json:"steps"`
}

// AnalyticsFunnelStep is one funnel step
type AnalyticsFunnelStep struct {
	Step           string  `json:"step"`
	Count          int64   `json:"count"`
	ConversionRate float64 `json:"conversionRate"`
}

// AnalyticsCohort is a retention row
type AnalyticsCohort struct {
	Cohort string  `json:"cohort"`
	Day1   float64 `json:"day1"`
	Day7   float64 `json:"day7"`
	Day30  float64 `json:"day30"`
}

type mixpanelTopEventsResponse struct {
	Data []struct {
		Event       string  `json:"event"`
		Count       float64 `json:"count"`
		UniqueUsers float64 `json:"unique_users"`
	} `json:"data"`
}

type mixpanelUsersResponse struct {
	Data struct {
		Total  float64 `json:"total"`
		Active float64 `json:"active"`
		New    float64 `json:"new"`
	} `json:"data"`
}

// MixpanelAdapter reads the Mixpanel query API with a project secret
type MixpanelAdapter struct {
	config *MixpanelConfig
	client *apiClient
	opts   Options
}

// NewMixpanelAdapter creates a new Mixpanel adapter
func NewMixpanelAdapter(config *MixpanelConfig, opts Options) (*MixpanelAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &MixpanelAdapter{
		config: config,
		client: newAPIClient(integration.ProviderMixpanel, opts),
		opts:   opts,
	}, nil
}

// Type implements integration.Adapter
func (a *MixpanelAdapter) Type() integration.ProviderType {
	return integration.ProviderMixpanel
}

// TestConnection asks for today's single top event
func (a *MixpanelAdapter) TestConnection(ctx context.Context) (bool, error) {
	today := integration.Today(a.opts.now())
	_, err := a.topEvents(ctx, today, 1)
	return connectionResult(err)
}

// FetchData implements integration.Adapter.
// Top events must succeed; user totals degrade to zero.
// Funnels and retention need per-project report ids that the config does not carry, so they are empty.
func (a *MixpanelAdapter) FetchData(ctx context.Context, window *integration.DateRange) (integration.ProviderData, error) {
	w, err := resolveWindow(window, a.opts.now())
	if err != nil {
		return nil, err
	}

	top, err := a.topEvents(ctx, w, mixpanelTopEvents)
	if err != nil {
		return nil, err
	}

	return &MixpanelData{
		Events:    []map[string]any{},
		Users:     a.users(ctx, w),
		Funnels:   []AnalyticsFunnel{},
		Retention: []AnalyticsCohort{},
		TopEvents: top,
	}, nil
}

func (a *MixpanelAdapter) topEvents(ctx context.Context, w integration.DateRange, limit int) ([]MixpanelEventStat, error) {
	var resp mixpanelTopEventsResponse
	err := a.get(ctx, "top_events", "/events/top", url.Values{
		"from_date": {w.Start},
		"to_date":   {w.End},
		"limit":     {strconv.Itoa(limit)},
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]MixpanelEventStat, 0, len(resp.Data))
	for _, e := range resp.Data {
		out = append(out, MixpanelEventStat{Event: e.Event, Count: int64(e.Count), UniqueUsers: int64(e.UniqueUsers)})
	}
	return out, nil
}

func (a *MixpanelAdapter) users(ctx context.Context, w integration.DateRange) MixpanelUsers {
	var resp mixpanelUsersResponse
	err := a.get(ctx, "users", "/events/properties", url.Values{
		"from_date": {w.Start},
		"to_date":   {w.End},
		"event":     {"User Login"},
		"name":      {"distinct_id"},
	}, &resp)
	if err != nil {
		return MixpanelUsers{}
	}
	return MixpanelUsers{
		Total:  int64(resp.Data.Total),
		Active: int64(resp.Data.Active),
		New:    int64(resp.Data.New),
	}
}

// EventData returns the property breakdown of one event
func (a *MixpanelAdapter) EventData(ctx context.Context, event string, window *integration.DateRange) (any, error) {
	q := url.Values{"event": {event}}
	if window != nil {
		if window.Start != "" {
			q.Set("from_date", window.Start)
		}
		if window.End != "" {
			q.Set("to_date", window.End)
		}
	}
	var resp struct {
		Data any `json:"data"`
	}
	if err := a.get(ctx, "event_data", "/events/properties", q, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []any{}, nil
	}
	return resp.Data, nil
}

// UserProfile returns the engage profile for a distinct id, or nil when none matches
func (a *MixpanelAdapter) UserProfile(ctx context.Context, distinctID string) (map[string]any, error) {
	var resp struct {
		Results []map[string]any `json:"results"`
	}
	where := fmt.Sprintf("distinct_id == %s", strconv.Quote(distinctID))
	if err := a.get(ctx, "user_profile", "/engage", url.Values{"where": {where}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return resp.Results[0], nil
}

// Actions implements integration.ActionAdapter
func (a *MixpanelAdapter) Actions() []string {
	return []string{MixpanelActionEventData, MixpanelActionUserProfile}
}

// RunAction implements integration.ActionAdapter
func (a *MixpanelAdapter) RunAction(ctx context.Context, action string, params map[string]any) (any, error) {
	switch action {
	case MixpanelActionEventData:
		event, err := requiredParam(params, "event")
		if err != nil {
			return nil, err
		}
		return a.EventData(ctx, event, windowParam(params))
	case MixpanelActionUserProfile:
		id, err := requiredParam(params, "distinctId")
		if err != nil {
			return nil, err
		}
		return a.UserProfile(ctx, id)
	default:
		return nil, fmt.Errorf("%w: %s", integration.ErrProviderActionNotFound, action)
	}
}

func (a *MixpanelAdapter) get(ctx context.Context, operation, path string, query url.Values, out any) error {
	base := a.config.APIBaseURL
	if base == "" {
		base = mixpanelAPIBaseURL
	}
	query.Set("project_id", a.config.ProjectID.String())
	return a.client.getJSON(ctx, request{
		url:       strings.TrimRight(base, "/") + path,
		query:     query,
		basicUser: a.config.APISecret,
		operation: operation,
	}, out)
}
