// Package provider contains the adapters that talk to third-party analytics providers.
// Each adapter implements integration.Adapter and is built per operation by the Factory.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/uxinsight/backend/internal/domain/integration"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response

	// defaultCallTimeout bounds every single provider call
	defaultCallTimeout = 30 * time.Second
)

// apiClient is the HTTP plumbing shared by all adapters: per-call timeout,
// outbound rate limiting, call metrics and status-to-error mapping.
type apiClient struct {
	provider   integration.ProviderType
	httpClient *http.Client
	timeout    time.Duration
	limiter    *RateLimiters
	metrics    *CallMetrics
}

func newAPIClient(provider integration.ProviderType, opts Options) *apiClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &apiClient{
		provider:   provider,
		httpClient: httpClient,
		timeout:    timeout,
		limiter:    opts.RateLimiters,
		metrics:    opts.Metrics,
	}
}

// request describes one outbound provider call
type request struct {
	method    string
	url       string
	query     url.Values
	headers   map[string]string
	body      any
	basicUser string
	basicPass string
	token     oauth2.TokenSource
	// operation labels the call in metrics
	operation string
}

// response is a provider reply that passed the status check
type response struct {
	status   int
	header   http.Header
	body     []byte
	duration time.Duration
}

// oauthContext makes token exchanges use the adapter's HTTP client
func (c *apiClient) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// do executes the request and returns the raw body of a 2xx/3xx response.
// Transport failures wrap ErrProviderUnavailable; HTTP failures wrap the matching provider error.
func (c *apiClient) do(ctx context.Context, r request) (*response, error) {
	if err := c.limiter.Wait(ctx, c.provider); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrProviderRateLimited, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := r.url
	if len(r.query) > 0 {
		u, err := url.Parse(r.url)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid url %q: %v", integration.ErrProviderInvalidConfig, r.url, err)
		}
		q := u.Query()
		for k, vs := range r.query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	var bodyReader io.Reader
	if r.body != nil {
		bodyBytes, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: failed to marshal request: %v", integration.ErrProviderInvalidData, c.label(), err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to create request: %v", integration.ErrProviderInvalidConfig, c.label(), err)
	}

	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.basicUser != "" || r.basicPass != "" {
		req.SetBasicAuth(r.basicUser, r.basicPass)
	}
	if r.token != nil {
		tok, err := r.token.Token()
		if err != nil {
			c.metrics.Observe(c.provider, r.operation, outcomeAuthError, 0)
			return nil, fmt.Errorf("%w: %v", integration.ErrProviderAuthFailed, err)
		}
		tok.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.Observe(c.provider, r.operation, outcomeTransportError, elapsed)
		return nil, fmt.Errorf("%w: %v", integration.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.metrics.Observe(c.provider, r.operation, outcomeTransportError, elapsed)
		return nil, fmt.Errorf("%w: %s: failed to read response: %v", integration.ErrProviderUnavailable, c.label(), err)
	}

	if resp.StatusCode >= 400 {
		c.metrics.Observe(c.provider, r.operation, outcomeHTTPError, elapsed)
		return nil, statusError(resp.StatusCode, resp.Status)
	}

	c.metrics.Observe(c.provider, r.operation, outcomeSuccess, elapsed)
	return &response{status: resp.StatusCode, header: resp.Header, body: body, duration: elapsed}, nil
}

// getJSON performs the request and decodes the JSON body into out
func (c *apiClient) getJSON(ctx context.Context, r request, out any) error {
	if r.method == "" {
		r.method = http.MethodGet
	}
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%w: %s: failed to parse response: %v", integration.ErrProviderInvalidData, c.label(), err)
	}
	return nil
}

func (c *apiClient) label() string {
	return string(c.provider)
}

// statusError maps an HTTP failure status to the provider error vocabulary
func statusError(code int, status string) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %s", integration.ErrProviderAuthFailed, status)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %s", integration.ErrProviderRateLimited, status)
	case code >= 500:
		return fmt.Errorf("%w: HTTP %s", integration.ErrProviderUnavailable, status)
	default:
		return fmt.Errorf("%w: HTTP %s", integration.ErrProviderRequestFailed, status)
	}
}
