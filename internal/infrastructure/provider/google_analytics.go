package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"

	"github.com/uxinsight/backend/internal/domain/integration"
)

const (
	googleAnalyticsAPIBaseURL  = "https://analyticsdata.googleapis.com/v1beta"
	googleTokenURL             = "https://oauth2.googleapis.com/token"
	googleAnalyticsReadOnlyScp = "https://www.googleapis.com/auth/analytics.readonly"
	googleAnalyticsTopN        = 10
)

// Google Analytics configuration errors
var (
	ErrGAMissingPropertyID  = fmt.Errorf("%w: google analytics property id is required", integration.ErrProviderInvalidConfig)
	ErrGAMissingClientEmail = fmt.Errorf("%w: google analytics client_email is required", integration.ErrProviderInvalidConfig)
	ErrGAMissingPrivateKey  = fmt.Errorf("%w: google analytics private_key is required", integration.ErrProviderInvalidConfig)
)

// GoogleAnalyticsCredentials is the service account part of the config
type GoogleAnalyticsCredentials struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	ClientID    string `json:"client_id"`
	// TokenURI overrides the Google token endpoint
	TokenURI string `json:"token_uri,omitempty"`
}

// GoogleAnalyticsConfig holds the GA4 property and service account credentials
type GoogleAnalyticsConfig struct {
	PropertyID  flexString                 `json:"propertyId"`
	Credentials GoogleAnalyticsCredentials `json:"credentials"`
	// APIBaseURL overrides the Analytics Data API endpoint
	APIBaseURL string `json:"apiBaseUrl,omitempty"`
}

// Validate validates the configuration
func (c *GoogleAnalyticsConfig) Validate() error {
	if c.PropertyID == "" {
		return ErrGAMissingPropertyID
	}
	if c.Credentials.ClientEmail == "" {
		return ErrGAMissingClientEmail
	}
	if c.Credentials.PrivateKey == "" {
		return ErrGAMissingPrivateKey
	}
	return nil
}

// GoogleAnalyticsData is the normalized GA4 report
type GoogleAnalyticsData struct {
	PageViews          int64         `json:"pageViews"`
	UniqueUsers        int64         `json:"uniqueUsers"`
	Sessions           int64         `json:"sessions"`
	BounceRate         float64       `json:"bounceRate"`
	AvgSessionDuration float64       `json:"avgSessionDuration"`
	TopPages           []GATopPage   `json:"topPages"`
	TopSources         []GATopSource `json:"topSources"`
}

// GATopPage is one row of the top pages report
type GATopPage struct {
	PagePath  string `json:"pagePath"`
	PageViews int64  `json:"pageViews"`
}

// GATopSource is one row of the top sources report
type GATopSource struct {
	Source   string `json:"source"`
	Sessions int64  `json:"sessions"`
}

// DataPoints implements integration.ProviderData
func (d *GoogleAnalyticsData) DataPoints() int {
	return countTopLevelKeys(d)
}

// GA4 runReport wire types
type gaRunReportRequest struct {
	DateRanges []gaDateRange `json:"dateRanges"`
	Metrics    []gaNamed     `json:"metrics"`
	Dimensions []gaNamed     `json:"dimensions,omitempty"`
	Limit      int           `json:"limit,omitempty"`
	OrderBys   []gaOrderBy   `json:"orderBys,omitempty"`
}

type gaDateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type gaNamed struct {
	Name string `json:"name"`
}

type gaOrderBy struct {
	Metric struct {
		MetricName string `json:"metricName"`
	} `json:"metric"`
	Desc bool `json:"desc"`
}

type gaRunReportResponse struct {
	Rows []struct {
		DimensionValues []gaValue `json:"dimensionValues"`
		MetricValues    []gaValue `json:"metricValues"`
	} `json:"rows"`
}

type gaValue struct {
	Value string `json:"value"`
}

// GoogleAnalyticsAdapter reads GA4 reports with a service account
type GoogleAnalyticsAdapter struct {
	config *GoogleAnalyticsConfig
	client *apiClient
	opts   Options

	// tokens is the service account token source, cached for this adapter instance only
	mu     sync.Mutex
	tokens oauth2.TokenSource
}

// NewGoogleAnalyticsAdapter creates a new Google Analytics adapter
func NewGoogleAnalyticsAdapter(config *GoogleAnalyticsConfig, opts Options) (*GoogleAnalyticsAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &GoogleAnalyticsAdapter{
		config: config,
		client: newAPIClient(integration.ProviderGoogleAnalytics, opts),
		opts:   opts,
	}, nil
}

// Type implements integration.Adapter
func (a *GoogleAnalyticsAdapter) Type() integration.ProviderType {
	return integration.ProviderGoogleAnalytics
}

// TestConnection runs the totals report for today
func (a *GoogleAnalyticsAdapter) TestConnection(ctx context.Context) (bool, error) {
	today := integration.Today(a.opts.now())
	_, err := a.totals(ctx, today)
	return connectionResult(err)
}

// FetchData implements integration.Adapter.
// The totals report must succeed; the top pages and sources reports degrade to empty lists.
func (a *GoogleAnalyticsAdapter) FetchData(ctx context.Context, window *integration.DateRange) (integration.ProviderData, error) {
	w, err := resolveWindow(window, a.opts.now())
	if err != nil {
		return nil, err
	}

	data, err := a.totals(ctx, w)
	if err != nil {
		return nil, err
	}

	data.TopPages = a.topPages(ctx, w)
	data.TopSources = a.topSources(ctx, w)
	return data, nil
}

func (a *GoogleAnalyticsAdapter) totals(ctx context.Context, w integration.DateRange) (*GoogleAnalyticsData, error) {
	resp, err := a.runReport(ctx, "totals", gaRunReportRequest{
		DateRanges: []gaDateRange{{StartDate: w.Start, EndDate: w.End}},
		Metrics: []gaNamed{
			{Name: "screenPageViews"},
			{Name: "totalUsers"},
			{Name: "sessions"},
			{Name: "bounceRate"},
			{Name: "averageSessionDuration"},
		},
	})
	if err != nil {
		return nil, err
	}

	metric := func(i int) string {
		if len(resp.Rows) == 0 || i >= len(resp.Rows[0].MetricValues) {
			return "0"
		}
		return resp.Rows[0].MetricValues[i].Value
	}

	return &GoogleAnalyticsData{
		PageViews:          parseInt(metric(0)),
		UniqueUsers:        parseInt(metric(1)),
		Sessions:           parseInt(metric(2)),
		BounceRate:         parseFloat(metric(3)),
		AvgSessionDuration: parseFloat(metric(4)),
		TopPages:           []GATopPage{},
		TopSources:         []GATopSource{},
	}, nil
}

func (a *GoogleAnalyticsAdapter) topPages(ctx context.Context, w integration.DateRange) []GATopPage {
	resp, err := a.runReport(ctx, "top_pages", rankedReport(w, "screenPageViews", "pagePath"))
	if err != nil {
		return []GATopPage{}
	}
	pages := make([]GATopPage, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		p := GATopPage{}
		if len(row.DimensionValues) > 0 {
			p.PagePath = row.DimensionValues[0].Value
		}
		if len(row.MetricValues) > 0 {
			p.PageViews = parseInt(row.MetricValues[0].Value)
		}
		pages = append(pages, p)
	}
	return pages
}

func (a *GoogleAnalyticsAdapter) topSources(ctx context.Context, w integration.DateRange) []GATopSource {
	resp, err := a.runReport(ctx, "top_sources", rankedReport(w, "sessions", "sessionSource"))
	if err != nil {
		return []GATopSource{}
	}
	sources := make([]GATopSource, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		s := GATopSource{}
		if len(row.DimensionValues) > 0 {
			s.Source = row.DimensionValues[0].Value
		}
		if len(row.MetricValues) > 0 {
			s.Sessions = parseInt(row.MetricValues[0].Value)
		}
		sources = append(sources, s)
	}
	return sources
}

// rankedReport builds a top-N report of one metric by one dimension
func rankedReport(w integration.DateRange, metric, dimension string) gaRunReportRequest {
	order := gaOrderBy{Desc: true}
	order.Metric.MetricName = metric
	return gaRunReportRequest{
		DateRanges: []gaDateRange{{StartDate: w.Start, EndDate: w.End}},
		Metrics:    []gaNamed{{Name: metric}},
		Dimensions: []gaNamed{{Name: dimension}},
		Limit:      googleAnalyticsTopN,
		OrderBys:   []gaOrderBy{order},
	}
}

func (a *GoogleAnalyticsAdapter) runReport(ctx context.Context, operation string, body gaRunReportRequest) (*gaRunReportResponse, error) {
	base := a.config.APIBaseURL
	if base == "" {
		base = googleAnalyticsAPIBaseURL
	}

	var resp gaRunReportResponse
	err := a.client.getJSON(ctx, request{
		method:    http.MethodPost,
		url:       fmt.Sprintf("%s/properties/%s:runReport", strings.TrimRight(base, "/"), a.config.PropertyID),
		body:      body,
		token:     a.tokenSource(ctx),
		operation: operation,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// tokenSource lazily builds the service account token source for this adapter instance
func (a *GoogleAnalyticsAdapter) tokenSource(ctx context.Context) oauth2.TokenSource {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.tokens == nil {
		tokenURL := a.config.Credentials.TokenURI
		if tokenURL == "" {
			tokenURL = googleTokenURL
		}
		cfg := &jwt.Config{
			Email: a.config.Credentials.ClientEmail,
			// Keys pasted through env vars often carry escaped newlines
			PrivateKey: []byte(strings.ReplaceAll(a.config.Credentials.PrivateKey, `\n`, "\n")),
			Scopes:     []string{googleAnalyticsReadOnlyScp},
			TokenURL:   tokenURL,
			Expires:    time.Hour,
		}
		a.tokens = cfg.TokenSource(a.client.oauthContext(context.WithoutCancel(ctx)))
	}
	return a.tokens
}
