package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/uxinsight/backend/internal/domain/integration"
)

const (
	hotjarAPIBaseURL = "https://insights.hotjar.com/api/v1"
	hotjarListLimit  = 10
)

// Hotjar configuration errors
var (
	ErrHotjarMissingSiteID      = fmt.Errorf("%w: hotjar site id is required", integration.ErrProviderInvalidConfig)
	ErrHotjarMissingAccessToken = fmt.Errorf("%w: hotjar access token is required", integration.ErrProviderInvalidConfig)
)

// Hotjar action names
const (
	HotjarActionRecordings = "recordings"
	HotjarActionHeatmaps   = "heatmaps"
	HotjarActionSurveys    = "surveys"
)

// HotjarConfig holds the site and API token
type HotjarConfig struct {
	SiteID      flexString `json:"siteId"`
	AccessToken string     `json:"accessToken"`
	// APIBaseURL overrides the Hotjar API endpoint
	APIBaseURL string `json:"apiBaseUrl,omitempty"`
}

// Validate validates the configuration
func (c *HotjarConfig) Validate() error {
	if c.SiteID == "" {
		return ErrHotjarMissingSiteID
	}
	if c.AccessToken == "" {
		return ErrHotjarMissingAccessToken
	}
	return nil
}

// HotjarData is the composite site snapshot
type HotjarData struct {
	Recordings   int64            `json:"recordings"`
	Heatmaps     int64            `json:"heatmaps"`
	Funnels      int64            `json:"funnels"`
	Surveys      int64            `json:"surveys"`
	Polls        int64            `json:"polls"`
	UserFeedback []HotjarFeedback `json:"userFeedback"`
	TopPages     []HotjarPage     `json:"topPages"`
	UserBehavior HotjarBehavior   `json:"userBehavior"`
}

// DataPoints implements integration.ProviderData
func (d *HotjarData) DataPoints() int {
	return countTopLevelKeys(d)
}

// HotjarFeedback is one feedback widget response
type HotjarFeedback struct {
	Type      string   `json:"type"`
	Message   string   `json:"message"`
	Rating    *float64 `json:"rating,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// HotjarPage is one page with its recording and heatmap counts
type HotjarPage struct {
	Page       string `json:"page"`
	Recordings int64  `json:"recordings"`
	Heatmaps   int64  `json:"heatmaps"`
}

// HotjarBehavior holds site-wide behavior metrics
type HotjarBehavior struct {
	AvgSessionDuration float64 `json:"avgSessionDuration"`
	BounceRate         float64 `json:"bounceRate"`
	ConversionRate     float64 `json:"conversionRate"`
}

type hotjarCount struct {
	Count int64 `json:"count"`
}

type hotjarList[T any] struct {
	Data []T `json:"data"`
}

// HotjarAdapter aggregates independent Hotjar endpoints into one snapshot
type HotjarAdapter struct {
	config *HotjarConfig
	client *apiClient
	opts   Options
}

// NewHotjarAdapter creates a new Hotjar adapter
func NewHotjarAdapter(config *HotjarConfig, opts Options) (*HotjarAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &HotjarAdapter{
		config: config,
		client: newAPIClient(integration.ProviderHotjar, opts),
		opts:   opts,
	}, nil
}

// Type implements integration.Adapter
func (a *HotjarAdapter) Type() integration.ProviderType {
	return integration.ProviderHotjar
}

// TestConnection reads the site record
func (a *HotjarAdapter) TestConnection(ctx context.Context) (bool, error) {
	err := a.get(ctx, "site", "", nil, nil)
	return connectionResult(err)
}

// FetchData implements integration.Adapter. The window is ignored.
// Each sub-call runs independently; a failed one leaves its field at the zero value
// so the snapshot itself never fails.
func (a *HotjarAdapter) FetchData(ctx context.Context, _ *integration.DateRange) (integration.ProviderData, error) {
	data := &HotjarData{
		UserFeedback: []HotjarFeedback{},
		TopPages:     []HotjarPage{},
	}

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	counts := map[string]*int64{
		"recordings": &data.Recordings,
		"heatmaps":   &data.Heatmaps,
		"funnels":    &data.Funnels,
		"surveys":    &data.Surveys,
		"polls":      &data.Polls,
	}
	for name, dst := range counts {
		run(func() {
			var c hotjarCount
			if err := a.get(ctx, name+"_count", "/"+name+"/count", nil, &c); err == nil {
				*dst = c.Count
			}
		})
	}

	run(func() {
		if fb, err := a.feedback(ctx); err == nil {
			data.UserFeedback = fb
		}
	})
	run(func() {
		if pages, err := a.pages(ctx); err == nil {
			data.TopPages = pages
		}
	})
	run(func() {
		var b HotjarBehavior
		if err := a.get(ctx, "behavior", "/behavior", nil, &b); err == nil {
			data.UserBehavior = b
		}
	})

	wg.Wait()
	return data, nil
}

func (a *HotjarAdapter) feedback(ctx context.Context) ([]HotjarFeedback, error) {
	var resp hotjarList[HotjarFeedback]
	if err := a.get(ctx, "feedback", "/feedback", nil, &resp); err != nil {
		return nil, err
	}

	now := a.opts.now().UTC().Format(time.RFC3339)
	out := make([]HotjarFeedback, 0, hotjarListLimit)
	for _, item := range resp.Data {
		if len(out) == hotjarListLimit {
			break
		}
		if item.Type == "" {
			item.Type = "feedback"
		}
		if item.Timestamp == "" {
			item.Timestamp = now
		}
		out = append(out, item)
	}
	return out, nil
}

func (a *HotjarAdapter) pages(ctx context.Context) ([]HotjarPage, error) {
	var resp hotjarList[HotjarPage]
	if err := a.get(ctx, "pages", "/pages", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) > hotjarListLimit {
		resp.Data = resp.Data[:hotjarListLimit]
	}
	if resp.Data == nil {
		resp.Data = []HotjarPage{}
	}
	return resp.Data, nil
}

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

// Recordings lists session recordings, optionally bounded by a window
func (a *HotjarAdapter) Recordings(ctx context.Context, window *integration.DateRange) ([]map[string]any, error) {
	return a.list(ctx, "recordings", "/recordings", windowQuery(window))
}

// Heatmaps lists heatmaps, optionally bounded by a window
func (a *HotjarAdapter) Heatmaps(ctx context.Context, window *integration.DateRange) ([]map[string]any, error) {
	return a.list(ctx, "heatmaps", "/heatmaps", windowQuery(window))
}

// Surveys lists the site's surveys
func (a *HotjarAdapter) Surveys(ctx context.Context) ([]map[string]any, error) {
	return a.list(ctx, "surveys", "/surveys", nil)
}

// Actions implements integration.ActionAdapter
func (a *HotjarAdapter) Actions() []string {
	return []string{HotjarActionRecordings, HotjarActionHeatmaps, HotjarActionSurveys}
}

// RunAction implements integration.ActionAdapter
func (a *HotjarAdapter) RunAction(ctx context.Context, action string, params map[string]any) (any, error) {
	switch action {
	case HotjarActionRecordings:
		return a.Recordings(ctx, windowParam(params))
	case HotjarActionHeatmaps:
		return a.Heatmaps(ctx, windowParam(params))
	case HotjarActionSurveys:
		return a.Surveys(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", integration.ErrProviderActionNotFound, action)
	}
}

func (a *HotjarAdapter) list(ctx context.Context, operation, path string, query url.Values) ([]map[string]any, error) {
	var resp hotjarList[map[string]any]
	if err := a.get(ctx, operation, path, query, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []map[string]any{}, nil
	}
	return resp.Data, nil
}

func (a *HotjarAdapter) get(ctx context.Context, operation, path string, query url.Values, out any) error {
	base := a.config.APIBaseURL
	if base == "" {
		base = hotjarAPIBaseURL
	}
	return a.client.getJSON(ctx, request{
		url:       fmt.Sprintf("%s/sites/%s%s", strings.TrimRight(base, "/"), url.PathEscape(a.config.SiteID.String()), path),
		query:     query,
		token:     oauth2.StaticTokenSource(&oauth2.Token{AccessToken: a.config.AccessToken, TokenType: "Bearer"}),
		operation: operation,
	}, out)
}

// windowQuery renders an optional window as start_date/end_date parameters
func windowQuery(window *integration.DateRange) url.Values {
	if window == nil {
		return nil
	}
	q := url.Values{}
	if window.Start != "" {
		q.Set("start_date", window.Start)
	}
	if window.End != "" {
		q.Set("end_date", window.End)
	}
	return q
}

// windowParam reads an optional {start, end} pair from action params
func windowParam(params map[string]any) *integration.DateRange {
	start, _ := params["start"].(string)
	end, _ := params["end"].(string)
	if start == "" && end == "" {
		return nil
	}
	return &integration.DateRange{Start: start, End: end}
}
