// Package trigger drives scheduled syncs from outside the API process. It
// asks the service which integrations are due and submits them as one batch.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	app "github.com/uxinsight/backend/internal/application/integration"
	"github.com/uxinsight/backend/internal/interfaces/http/dto"
)

// ErrUnexpectedResponse is returned when the API answers with a non-2xx status
// or a body that is not a success envelope.
var ErrUnexpectedResponse = errors.New("trigger: unexpected API response")

// maxErrorBody bounds how much of a failed response is kept in the error
const maxErrorBody = 512

// Client calls the scheduled-sync endpoints with the system token
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the traced default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client for the API rooted at baseURL
// (for example http://localhost:8080/api/v1).
func NewClient(baseURL, token string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Candidates fetches the integrations eligible for the next scheduled sync
func (c *Client) Candidates(ctx context.Context, limit int) (*app.CandidatesResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out app.CandidatesResponse
	if err := c.do(ctx, http.MethodGet, "/integrations/scheduled-sync", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BatchSync submits ids to the scheduled-sync endpoint
func (c *Client) BatchSync(ctx context.Context, ids []uuid.UUID, force bool) (*app.BatchSyncResponse, error) {
	req := app.BatchSyncRequest{IntegrationIDs: ids, Force: force}
	var out app.BatchSyncResponse
	if err := c.do(ctx, http.MethodPost, "/integrations/scheduled-sync", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("trigger: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("trigger: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trigger: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("trigger: read response: %w", err)
	}

	envelope := dto.Response{Data: out}
	decodeErr := json.Unmarshal(raw, &envelope)
	if resp.StatusCode/100 != 2 || decodeErr != nil || !envelope.Success {
		return responseError(method, path, resp.StatusCode, raw, envelope.Error)
	}
	return nil
}

func responseError(method, path string, status int, raw []byte, info *dto.ErrorInfo) error {
	if info != nil {
		return fmt.Errorf("%w: %s %s: %d %s: %s", ErrUnexpectedResponse, method, path, status, info.Code, info.Message)
	}
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	return fmt.Errorf("%w: %s %s: %d: %s", ErrUnexpectedResponse, method, path, status, strings.TrimSpace(string(raw)))
}

// Job is one scheduled-sync round
type Job struct {
	client *Client
	limit  int
	force  bool
	logger *zap.Logger
}

// NewJob creates a Job that fetches at most limit candidates per round
func NewJob(client *Client, limit int, force bool, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{client: client, limit: limit, force: force, logger: logger}
}

// Summary reports what one round did
type Summary struct {
	Candidates int
	Submitted  int
	Succeeded  int
	Failed     int
}

// Run fetches candidates and submits them as one batch. A round with no
// candidates makes no batch call.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	candidates, err := j.client.Candidates(ctx, j.limit)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Candidates: candidates.Total}
	ids := make([]uuid.UUID, 0, len(candidates.Integrations))
	for _, i := range candidates.Integrations {
		ids = append(ids, i.ID)
	}
	if len(ids) == 0 {
		j.logger.Debug("No integrations due for sync")
		return summary, nil
	}

	result, err := j.client.BatchSync(ctx, ids, j.force)
	if err != nil {
		return summary, err
	}
	summary.Submitted = len(ids)
	for _, r := range result.Results {
		if r.Success {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		j.logger.Warn("Scheduled sync failed",
			zap.String("integration_id", r.IntegrationID.String()),
			zap.String("error", r.Error),
		)
	}
	return summary, nil
}
