package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/uxinsight/backend/internal/domain/integration"
)

// Custom endpoint auth schemes
const (
	CustomAuthNone   = "none"
	CustomAuthBasic  = "basic"
	CustomAuthBearer = "bearer"
	CustomAuthAPIKey = "api_key"
	CustomAuthOAuth2 = "oauth2"

	defaultAPIKeyHeader = "X-API-Key"
)

// Custom action names
const (
	CustomActionPost             = "post"
	CustomActionPut              = "put"
	CustomActionDelete           = "delete"
	CustomActionValidateEndpoint = "validate-endpoint"
)

// Custom configuration errors
var (
	ErrCustomMissingEndpoint = fmt.Errorf("%w: custom endpoint is required", integration.ErrProviderInvalidConfig)
	ErrCustomInvalidEndpoint = fmt.Errorf("%w: custom endpoint must be an absolute http(s) url", integration.ErrProviderInvalidConfig)
	ErrCustomInvalidMethod   = fmt.Errorf("%w: custom method must be one of GET, POST, PUT, PATCH, DELETE", integration.ErrProviderInvalidConfig)
	ErrCustomInvalidAuthType = fmt.Errorf("%w: unsupported custom auth type", integration.ErrProviderInvalidConfig)
)

// CustomAuth selects the auth scheme and carries its credentials
type CustomAuth struct {
	Type        string         `json:"type"`
	Credentials map[string]any `json:"credentials,omitempty"`
}

func (a CustomAuth) credential(key string) string {
	v, _ := a.Credentials[key].(string)
	return v
}

// CustomResponseMapping names dotted paths into the response body
type CustomResponseMapping struct {
	Success string `json:"success,omitempty"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CustomConfig describes an arbitrary JSON REST endpoint
type CustomConfig struct {
	Endpoint        string                 `json:"endpoint"`
	Method          string                 `json:"method"`
	Headers         map[string]string      `json:"headers,omitempty"`
	Auth            CustomAuth             `json:"auth"`
	Params          map[string]any         `json:"params,omitempty"`
	Body            map[string]any         `json:"body,omitempty"`
	ResponseMapping *CustomResponseMapping `json:"responseMapping,omitempty"`
}

// Validate normalizes the method and validates the configuration
func (c *CustomConfig) Validate() error {
	if c.Endpoint == "" {
		return ErrCustomMissingEndpoint
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrCustomInvalidEndpoint
	}

	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = http.MethodGet
	}
	switch c.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return ErrCustomInvalidMethod
	}

	switch c.Auth.Type {
	case "", CustomAuthNone, CustomAuthBasic, CustomAuthBearer, CustomAuthAPIKey, CustomAuthOAuth2:
	default:
		return fmt.Errorf("%w: %s", ErrCustomInvalidAuthType, c.Auth.Type)
	}
	return nil
}

// CustomData wraps the (optionally remapped) endpoint response
type CustomData struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data"`
	Metadata CustomMetadata `json:"metadata"`
}

// CustomMetadata describes the call that produced the data
type CustomMetadata struct {
	Endpoint     string `json:"endpoint"`
	Method       string `json:"method"`
	Timestamp    string `json:"timestamp"`
	ResponseTime int64  `json:"responseTime"`
}

// DataPoints counts the top-level keys of the response payload
func (d *CustomData) DataPoints() int {
	return countTopLevelKeys(d.Data)
}

// CustomAdapter calls a user-configured JSON endpoint
type CustomAdapter struct {
	config *CustomConfig
	client *apiClient
	opts   Options

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

// NewCustomAdapter creates a new custom endpoint adapter
func NewCustomAdapter(config *CustomConfig, opts Options) (*CustomAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &CustomAdapter{
		config: config,
		client: newAPIClient(integration.ProviderCustom, opts),
		opts:   opts,
	}, nil
}

// Type implements integration.Adapter
func (a *CustomAdapter) Type() integration.ProviderType {
	return integration.ProviderCustom
}

// TestConnection performs the configured request
func (a *CustomAdapter) TestConnection(ctx context.Context) (bool, error) {
	_, _, err := a.call(ctx, "test", a.config.Method, nil)
	return connectionResult(err)
}

// FetchData performs the configured request. The window is ignored.
func (a *CustomAdapter) FetchData(ctx context.Context, _ *integration.DateRange) (integration.ProviderData, error) {
	return a.exchange(ctx, "fetch", a.config.Method, nil)
}

// Send performs the configured endpoint with an explicit method and payload
func (a *CustomAdapter) Send(ctx context.Context, method string, payload any) (*CustomData, error) {
	return a.exchange(ctx, strings.ToLower(method), method, payload)
}

// EndpointCheck is the result of ValidateEndpoint
type EndpointCheck struct {
	Valid  bool   `json:"valid"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ValidateEndpoint performs the configured request and reports the outcome without failing
func (a *CustomAdapter) ValidateEndpoint(ctx context.Context) EndpointCheck {
	resp, _, err := a.call(ctx, "validate", a.config.Method, nil)
	if err != nil {
		return EndpointCheck{Valid: false, Error: err.Error()}
	}
	return EndpointCheck{Valid: true, Status: resp.status}
}

// Actions implements integration.ActionAdapter
func (a *CustomAdapter) Actions() []string {
	return []string{CustomActionPost, CustomActionPut, CustomActionDelete, CustomActionValidateEndpoint}
}

// RunAction implements integration.ActionAdapter
func (a *CustomAdapter) RunAction(ctx context.Context, action string, params map[string]any) (any, error) {
	switch action {
	case CustomActionPost:
		return a.Send(ctx, http.MethodPost, params["data"])
	case CustomActionPut:
		return a.Send(ctx, http.MethodPut, params["data"])
	case CustomActionDelete:
		return a.Send(ctx, http.MethodDelete, nil)
	case CustomActionValidateEndpoint:
		return a.ValidateEndpoint(ctx), nil
	default:
		return nil, fmt.Errorf("%w: %s", integration.ErrProviderActionNotFound, action)
	}
}

func (a *CustomAdapter) exchange(ctx context.Context, operation, method string, payload any) (*CustomData, error) {
	resp, body, err := a.call(ctx, operation, method, payload)
	if err != nil {
		return nil, err
	}
	return &CustomData{
		Success: true,
		Data:    a.mapResponse(body),
		Metadata: CustomMetadata{
			Endpoint:     a.config.Endpoint,
			Method:       method,
			Timestamp:    a.opts.now().UTC().Format(time.RFC3339),
			ResponseTime: resp.duration.Milliseconds(),
		},
	}, nil
}

// call sends the request and decodes the JSON body. An empty body decodes to nil.
func (a *CustomAdapter) call(ctx context.Context, operation, method string, payload any) (*response, any, error) {
	r := request{
		method:    method,
		url:       a.config.Endpoint,
		headers:   make(map[string]string, len(a.config.Headers)+1),
		operation: operation,
	}
	for k, v := range a.config.Headers {
		r.headers[k] = v
	}

	if payload == nil && len(a.config.Body) > 0 {
		payload = a.config.Body
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		r.body = payload
	}

	if method == http.MethodGet && len(a.config.Params) > 0 {
		r.query = url.Values{}
		for k, v := range a.config.Params {
			r.query.Add(k, fmt.Sprint(v))
		}
	}

	if err := a.applyAuth(ctx, &r); err != nil {
		return nil, nil, err
	}

	resp, err := a.client.do(ctx, r)
	if err != nil {
		return nil, nil, err
	}

	var body any
	if len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(resp.body, &body); err != nil {
			return nil, nil, fmt.Errorf("%w: custom: response is not JSON: %v", integration.ErrProviderInvalidData, err)
		}
	}
	return resp, body, nil
}

func (a *CustomAdapter) applyAuth(ctx context.Context, r *request) error {
	auth := a.config.Auth
	switch auth.Type {
	case CustomAuthBasic:
		r.basicUser = auth.credential("username")
		r.basicPass = auth.credential("password")
	case CustomAuthBearer:
		r.token = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: auth.credential("token"), TokenType: "Bearer"})
	case CustomAuthAPIKey:
		header := auth.credential("headerName")
		if header == "" {
			header = defaultAPIKeyHeader
		}
		r.headers[header] = auth.credential("key")
	case CustomAuthOAuth2:
		ts, err := a.oauthTokenSource(ctx)
		if err != nil {
			return err
		}
		r.token = ts
	}
	return nil
}

// oauthTokenSource uses a stored access token, or a client-credentials grant when
// clientId, clientSecret and tokenUrl are configured instead
func (a *CustomAdapter) oauthTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.tokens != nil {
		return a.tokens, nil
	}

	auth := a.config.Auth
	if token := auth.credential("accessToken"); token != "" {
		a.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		return a.tokens, nil
	}

	tokenURL := auth.credential("tokenUrl")
	if tokenURL == "" || auth.credential("clientId") == "" {
		return nil, fmt.Errorf("%w: oauth2 auth needs accessToken or clientId and tokenUrl", integration.ErrProviderInvalidConfig)
	}
	cfg := &clientcredentials.Config{
		ClientID:     auth.credential("clientId"),
		ClientSecret: auth.credential("clientSecret"),
		TokenURL:     tokenURL,
	}
	if scope := auth.credential("scope"); scope != "" {
		cfg.Scopes = strings.Fields(scope)
	}
	a.tokens = cfg.TokenSource(a.client.oauthContext(context.WithoutCancel(ctx)))
	return a.tokens, nil
}

// mapResponse applies the configured dotted-path mapping, or returns the body as is
func (a *CustomAdapter) mapResponse(body any) any {
	m := a.config.ResponseMapping
	if m == nil {
		return body
	}
	mapped := map[string]any{}
	if m.Success != "" {
		mapped["success"] = lookupPath(body, m.Success)
	}
	if m.Data != "" {
		mapped["data"] = lookupPath(body, m.Data)
	}
	if m.Error != "" {
		mapped["error"] = lookupPath(body, m.Error)
	}
	return mapped
}

// lookupPath walks a dotted key path through nested JSON objects.
// A missing key yields nil.
func lookupPath(v any, path string) any {
	cur := v
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		next, ok := obj[key]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}
