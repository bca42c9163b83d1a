package trigger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/uxinsight/backend/internal/application/integration"
	"github.com/uxinsight/backend/internal/interfaces/http/dto"
)

const testToken = "system-token"

type fakeAPI struct {
	candidates []uuid.UUID
	failIDs    map[uuid.UUID]bool
	batchCalls atomic.Int32
	lastBatch  app.BatchSyncRequest
	lastLimit  string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/integrations/scheduled-sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Invalid system token"))
			return
		}
		switch r.Method {
		case http.MethodGet:
			f.lastLimit = r.URL.Query().Get("limit")
			resp := app.CandidatesResponse{Total: len(f.candidates), ReadyForSync: len(f.candidates)}
			for _, id := range f.candidates {
				resp.Integrations = append(resp.Integrations, app.IntegrationResponse{ID: id})
			}
			_ = json.NewEncoder(w).Encode(dto.NewSuccessResponse(resp))
		case http.MethodPost:
			f.batchCalls.Add(1)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastBatch))
			resp := app.BatchSyncResponse{Success: true}
			for _, id := range f.lastBatch.IntegrationIDs {
				item := app.BatchItemResult{IntegrationID: id, Success: !f.failIDs[id]}
				if !item.Success {
					item.Error = "provider unavailable"
				}
				resp.Results = append(resp.Results, item)
			}
			_ = json.NewEncoder(w).Encode(dto.NewSuccessResponse(resp))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/v1/", token, 5*time.Second, WithHTTPClient(srv.Client()))
}

func TestClient_Candidates(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	api := &fakeAPI{candidates: ids}
	client := newTestClient(t, api, testToken)

	resp, err := client.Candidates(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, "25", api.lastLimit)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Integrations, 2)
	assert.Equal(t, ids[0], resp.Integrations[0].ID)
}

func TestClient_BatchSync(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	api := &fakeAPI{failIDs: map[uuid.UUID]bool{ids[1]: true}}
	client := newTestClient(t, api, testToken)

	resp, err := client.BatchSync(context.Background(), ids, true)
	require.NoError(t, err)
	assert.True(t, api.lastBatch.Force)
	assert.Equal(t, ids, api.lastBatch.IntegrationIDs)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	client := newTestClient(t, &fakeAPI{}, "wrong")

	_, err := client.Candidates(context.Background(), 0)
	require.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid system token")
}

func TestClient_NonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testToken, time.Second)
	_, err := client.Candidates(context.Background(), 0)
	require.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestJob_Run(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	api := &fakeAPI{candidates: ids, failIDs: map[uuid.UUID]bool{ids[2]: true}}
	job := NewJob(newTestClient(t, api, testToken), 50, false, nil)

	summary, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Candidates: 3, Submitted: 3, Succeeded: 2, Failed: 1}, summary)
	assert.Equal(t, ids, api.lastBatch.IntegrationIDs)
	assert.False(t, api.lastBatch.Force)
}

func TestJob_Run_NoCandidates(t *testing.T) {
	api := &fakeAPI{}
	job := NewJob(newTestClient(t, api, testToken), 0, false, nil)

	summary, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
	assert.Zero(t, api.batchCalls.Load())
}
