package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/uxinsight/backend/internal/domain/integration"
)

const (
	powerBIAPIBaseURL  = "https://api.powerbi.com/v1.0/myorg"
	powerBITokenURLFmt = "https://login.microsoftonline.com/%s/oauth2/token"
	powerBIResource    = "https://analysis.windows.net/powerbi/api"

	// Workspace snapshots read at most powerBIMaxTables tables of powerBIMaxRows rows each
	powerBIMaxTables = 5
	powerBIMaxRows   = 100
)

// PowerBI configuration errors
var (
	ErrPowerBIMissingWorkspaceID  = fmt.Errorf("%w: powerbi workspace id is required", integration.ErrProviderInvalidConfig)
	ErrPowerBIMissingDatasetID    = fmt.Errorf("%w: powerbi dataset id is required", integration.ErrProviderInvalidConfig)
	ErrPowerBIMissingClientID     = fmt.Errorf("%w: powerbi client id is required", integration.ErrProviderInvalidConfig)
	ErrPowerBIMissingClientSecret = fmt.Errorf("%w: powerbi client secret is required", integration.ErrProviderInvalidConfig)
	ErrPowerBIMissingTenantID     = fmt.Errorf("%w: powerbi tenant id is required", integration.ErrProviderInvalidConfig)
)

// PowerBI action names
const (
	PowerBIActionReportEmbedURL    = "report-embed-url"
	PowerBIActionDashboardEmbedURL = "dashboard-embed-url"
	PowerBIActionRefreshDataset    = "refresh-dataset"
)

// PowerBICredentials is the Azure AD app registration
type PowerBICredentials struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	TenantID     string `json:"tenantId"`
}

// PowerBIConfig holds the workspace, dataset and app credentials
type PowerBIConfig struct {
	WorkspaceID string             `json:"workspaceId"`
	DatasetID   string             `json:"datasetId"`
	Credentials PowerBICredentials `json:"credentials"`
	APIBaseURL  string             `json:"apiBaseUrl,omitempty"`
	TokenURL    string             `json:"tokenUrl,omitempty"`
}

// Validate validates the configuration
func (c *PowerBIConfig) Validate() error {
	switch {
	case c.WorkspaceID == "":
		return ErrPowerBIMissingWorkspaceID
	case c.DatasetID == "":
		return ErrPowerBIMissingDatasetID
	case c.Credentials.ClientID == "":
		return ErrPowerBIMissingClientID
	case c.Credentials.ClientSecret == "":
		return ErrPowerBIMissingClientSecret
	case c.Credentials.TenantID == "" && c.TokenURL == "":
		return ErrPowerBIMissingTenantID
	}
	return nil
}

// PowerBIData is the workspace snapshot
type PowerBIData struct {
	Datasets   []PowerBIDataset   `json:"datasets"`
	Reports    []PowerBIReport    `json:"reports"`
	Dashboards []PowerBIDashboard `json:"dashboards"`
	Data       []PowerBITableData `json:"data"`
}

// DataPoints implements integration.ProviderData
func (d *PowerBIData) DataPoints() int {
	return countTopLevelKeys(d)
}

// PowerBIDataset describes a dataset in the workspace
type PowerBIDataset struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Tables          []string `json:"tables"`
	RefreshSchedule any      `json:"refreshSchedule,omitempty"`
}

// PowerBIReport describes a report in the workspace
type PowerBIReport struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DatasetID string `json:"datasetId"`
	EmbedURL  string `json:"embedUrl"`
}

// PowerBIDashboard describes a dashboard in the workspace
type PowerBIDashboard struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	EmbedURL string `json:"embedUrl"`
}

// PowerBITableData holds the sampled rows of one table
type PowerBITableData struct {
	Table   string           `json:"table"`
	Rows    []map[string]any `json:"rows"`
	Columns []string         `json:"columns"`
}

type powerBIList[T any] struct {
	Value []T `json:"value"`
}

type powerBIRawDataset struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tables []struct {
		Name string `json:"name"`
	} `json:"tables"`
	RefreshSchedule any `json:"refreshSchedule"`
}

type powerBINamed struct {
	Name string `json:"name"`
}

// PowerBIAdapter reads workspace metadata and sampled dataset rows
type PowerBIAdapter struct {
	config *PowerBIConfig
	client *apiClient

	// tokens is scoped to this adapter instance; adapters are built per operation
	mu     sync.Mutex
	tokens oauth2.TokenSource
}

// NewPowerBIAdapter creates a new PowerBI adapter
func NewPowerBIAdapter(config *PowerBIConfig, opts Options) (*PowerBIAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &PowerBIAdapter{
		config: config,
		client: newAPIClient(integration.ProviderPowerBI, opts),
	}, nil
}

// Type implements integration.Adapter
func (a *PowerBIAdapter) Type() integration.ProviderType {
	return integration.ProviderPowerBI
}

// TestConnection reads the workspace record
func (a *PowerBIAdapter) TestConnection(ctx context.Context) (bool, error) {
	err := a.call(ctx, "workspace", http.MethodGet, a.groupPath(""), nil, nil)
	return connectionResult(err)
}

// FetchData implements integration.Adapter. The window is ignored.
// The dataset, report and dashboard listings must succeed; table sampling is best effort.
func (a *PowerBIAdapter) FetchData(ctx context.Context, _ *integration.DateRange) (integration.ProviderData, error) {
	var datasets powerBIList[powerBIRawDataset]
	if err := a.call(ctx, "datasets", http.MethodGet, a.groupPath("/datasets"), nil, &datasets); err != nil {
		return nil, err
	}
	var reports powerBIList[PowerBIReport]
	if err := a.call(ctx, "reports", http.MethodGet, a.groupPath("/reports"), nil, &reports); err != nil {
		return nil, err
	}
	var dashboards powerBIList[PowerBIDashboard]
	if err := a.call(ctx, "dashboards", http.MethodGet, a.groupPath("/dashboards"), nil, &dashboards); err != nil {
		return nil, err
	}

	data := &PowerBIData{
		Datasets:   make([]PowerBIDataset, 0, len(datasets.Value)),
		Reports:    reports.Value,
		Dashboards: dashboards.Value,
		Data:       a.sampleTables(ctx),
	}
	for _, ds := range datasets.Value {
		tables := make([]string, 0, len(ds.Tables))
		for _, t := range ds.Tables {
			tables = append(tables, t.Name)
		}
		data.Datasets = append(data.Datasets, PowerBIDataset{
			ID:              ds.ID,
			Name:            ds.Name,
			Tables:          tables,
			RefreshSchedule: ds.RefreshSchedule,
		})
	}
	if data.Reports == nil {
		data.Reports = []PowerBIReport{}
	}
	if data.Dashboards == nil {
		data.Dashboards = []PowerBIDashboard{}
	}
	return data, nil
}

// sampleTables reads the first rows of the first tables of the configured dataset.
// Tables that fail are skipped; a failed table listing yields an empty result.
func (a *PowerBIAdapter) sampleTables(ctx context.Context) []PowerBITableData {
	out := []PowerBITableData{}

	var tables powerBIList[powerBINamed]
	if err := a.call(ctx, "tables", http.MethodGet, a.datasetPath("/tables"), nil, &tables); err != nil {
		return out
	}

	for i, t := range tables.Value {
		if i == powerBIMaxTables {
			break
		}
		var rows powerBIList[map[string]any]
		path := a.datasetPath("/tables/" + url.PathEscape(t.Name) + "/rows")
		query := url.Values{"$top": {fmt.Sprint(powerBIMaxRows)}}
		if err := a.call(ctx, "table_rows", http.MethodGet, path, query, &rows); err != nil {
			continue
		}
		if len(rows.Value) > powerBIMaxRows {
			rows.Value = rows.Value[:powerBIMaxRows]
		}

		columns := []string{}
		if len(rows.Value) > 0 {
			for k := range rows.Value[0] {
				columns = append(columns, k)
			}
			sort.Strings(columns)
		}
		if rows.Value == nil {
			rows.Value = []map[string]any{}
		}
		out = append(out, PowerBITableData{Table: t.Name, Rows: rows.Value, Columns: columns})
	}
	return out
}

// ReportEmbedURL returns the embed URL of a report in the workspace
func (a *PowerBIAdapter) ReportEmbedURL(ctx context.Context, reportID string) (string, error) {
	var r PowerBIReport
	if err := a.call(ctx, "report", http.MethodGet, a.groupPath("/reports/"+url.PathEscape(reportID)), nil, &r); err != nil {
		return "", err
	}
	return r.EmbedURL, nil
}

// DashboardEmbedURL returns the embed URL of a dashboard in the workspace
func (a *PowerBIAdapter) DashboardEmbedURL(ctx context.Context, dashboardID string) (string, error) {
	var d PowerBIDashboard
	if err := a.call(ctx, "dashboard", http.MethodGet, a.groupPath("/dashboards/"+url.PathEscape(dashboardID)), nil, &d); err != nil {
		return "", err
	}
	return d.EmbedURL, nil
}

// RefreshDataset queues a refresh of the configured dataset
func (a *PowerBIAdapter) RefreshDataset(ctx context.Context) error {
	return a.call(ctx, "refresh", http.MethodPost, a.datasetPath("/refreshes"), nil, nil)
}

// Actions implements integration.ActionAdapter
func (a *PowerBIAdapter) Actions() []string {
	return []string{PowerBIActionReportEmbedURL, PowerBIActionDashboardEmbedURL, PowerBIActionRefreshDataset}
}

// RunAction implements integration.ActionAdapter
func (a *PowerBIAdapter) RunAction(ctx context.Context, action string, params map[string]any) (any, error) {
	switch action {
	case PowerBIActionReportEmbedURL:
		id, err := requiredParam(params, "reportId")
		if err != nil {
			return nil, err
		}
		embedURL, err := a.ReportEmbedURL(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{"embedUrl": embedURL}, nil
	case PowerBIActionDashboardEmbedURL:
		id, err := requiredParam(params, "dashboardId")
		if err != nil {
			return nil, err
		}
		embedURL, err := a.DashboardEmbedURL(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{"embedUrl": embedURL}, nil
	case PowerBIActionRefreshDataset:
		return map[string]any{"refreshed": a.RefreshDataset(ctx) == nil}, nil
	default:
		return nil, fmt.Errorf("%w: %s", integration.ErrProviderActionNotFound, action)
	}
}

func (a *PowerBIAdapter) groupPath(suffix string) string {
	return "/groups/" + url.PathEscape(a.config.WorkspaceID) + suffix
}

func (a *PowerBIAdapter) datasetPath(suffix string) string {
	return a.groupPath("/datasets/" + url.PathEscape(a.config.DatasetID) + suffix)
}

func (a *PowerBIAdapter) call(ctx context.Context, operation, method, path string, query url.Values, out any) error {
	base := a.config.APIBaseURL
	if base == "" {
		base = powerBIAPIBaseURL
	}
	return a.client.getJSON(ctx, request{
		method:    method,
		url:       strings.TrimRight(base, "/") + path,
		query:     query,
		token:     a.tokenSource(ctx),
		operation: operation,
	}, out)
}

// tokenSource lazily builds the client-credentials token source for this adapter instance
func (a *PowerBIAdapter) tokenSource(ctx context.Context) oauth2.TokenSource {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.tokens == nil {
		tokenURL := a.config.TokenURL
		if tokenURL == "" {
			tokenURL = fmt.Sprintf(powerBITokenURLFmt, url.PathEscape(a.config.Credentials.TenantID))
		}
		cfg := &clientcredentials.Config{
			ClientID:       a.config.Credentials.ClientID,
			ClientSecret:   a.config.Credentials.ClientSecret,
			TokenURL:       tokenURL,
			EndpointParams: url.Values{"resource": {powerBIResource}},
			AuthStyle:      oauth2.AuthStyleInParams,
		}
		a.tokens = cfg.TokenSource(a.client.oauthContext(context.WithoutCancel(ctx)))
	}
	return a.tokens
}

// requiredParam reads a non-empty string action parameter
func requiredParam(params map[string]any, key string) (string, error) {
	v, _ := params[key].(string)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", integration.ErrProviderInvalidConfig, key)
	}
	return v, nil
}
