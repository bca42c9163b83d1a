package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxinsight/backend/internal/domain/integration"
)

func newHotjarServer(t *testing.T, failing map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer hj-token", r.Header.Get("Authorization"))

		path := strings.TrimPrefix(r.URL.Path, "/sites/42")
		if failing[path] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch path {
		case "":
			_, _ = w.Write([]byte(`{"id":42}`))
		case "/recordings/count":
			_, _ = w.Write([]byte(`{"count":120}`))
		case "/heatmaps/count":
			_, _ = w.Write([]byte(`{"count":8}`))
		case "/funnels/count":
			_, _ = w.Write([]byte(`{"count":3}`))
		case "/surveys/count":
			_, _ = w.Write([]byte(`{"count":2}`))
		case "/polls/count":
			_, _ = w.Write([]byte(`{"count":1}`))
		case "/feedback":
			_, _ = w.Write([]byte(`{"data":[{"message":"love it","rating":5},{"type":"bug","message":"broken","timestamp":"2024-01-01T00:00:00Z"}]}`))
		case "/pages":
			_, _ = w.Write([]byte(`{"data":[{"page":"/home","recordings":10,"heatmaps":2}]}`))
		case "/behavior":
			_, _ = w.Write([]byte(`{"avgSessionDuration":95.5,"bounceRate":0.4,"conversionRate":0.05}`))
		case "/recordings":
			assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_date"))
			_, _ = w.Write([]byte(`{"data":[{"id":"r1"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestHotjar(t *testing.T, baseURL string) *HotjarAdapter {
	t.Helper()
	a, err := NewHotjarAdapter(&HotjarConfig{SiteID: "42", AccessToken: "hj-token", APIBaseURL: baseURL}, Options{
		Now: func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return a
}

func TestHotjarAdapter_FetchData(t *testing.T) {
	server := newHotjarServer(t, nil)
	defer server.Close()

	data, err := newTestHotjar(t, server.URL).FetchData(context.Background(), nil)
	require.NoError(t, err)

	hd := data.(*HotjarData)
	assert.Equal(t, int64(120), hd.Recordings)
	assert.Equal(t, int64(8), hd.Heatmaps)
	assert.Equal(t, int64(3), hd.Funnels)
	assert.Equal(t, int64(2), hd.Surveys)
	assert.Equal(t, int64(1), hd.Polls)
	require.Len(t, hd.UserFeedback, 2)
	assert.Equal(t, "feedback", hd.UserFeedback[0].Type)
	assert.Equal(t, "2024-05-01T00:00:00Z", hd.UserFeedback[0].Timestamp)
	require.NotNil(t, hd.UserFeedback[0].Rating)
	assert.Equal(t, 5.0, *hd.UserFeedback[0].Rating)
	assert.Equal(t, "bug", hd.UserFeedback[1].Type)
	require.Len(t, hd.TopPages, 1)
	assert.Equal(t, "/home", hd.TopPages[0].Page)
	assert.InDelta(t, 95.5, hd.UserBehavior.AvgSessionDuration, 1e-9)
	assert.Equal(t, 8, data.DataPoints())
}

func TestHotjarAdapter_FetchData_PartialFailure(t *testing.T) {
	server := newHotjarServer(t, map[string]bool{"/feedback": true, "/heatmaps/count": true})
	defer server.Close()

	data, err := newTestHotjar(t, server.URL).FetchData(context.Background(), nil)
	require.NoError(t, err)

	hd := data.(*HotjarData)
	assert.NotNil(t, hd.UserFeedback)
	assert.Empty(t, hd.UserFeedback)
	assert.Equal(t, int64(0), hd.Heatmaps)
	assert.Equal(t, int64(120), hd.Recordings)
	assert.Len(t, hd.TopPages, 1)
}

func TestHotjarAdapter_FetchData_FeedbackFailure(t *testing.T) {
	server := newHotjarServer(t, map[string]bool{"/feedback": true})
	defer server.Close()

	data, err := newTestHotjar(t, server.URL).FetchData(context.Background(), nil)
	require.NoError(t, err)

	hd := data.(*HotjarData)
	assert.Equal(t, []HotjarFeedback{}, hd.UserFeedback)
	assert.Equal(t, int64(120), hd.Recordings)
	assert.Equal(t, int64(8), hd.Heatmaps)
	assert.Equal(t, int64(3), hd.Funnels)
	assert.Equal(t, int64(2), hd.Surveys)
	assert.Equal(t, int64(1), hd.Polls)
	require.Len(t, hd.TopPages, 1)
	assert.Equal(t, "/home", hd.TopPages[0].Page)
	assert.InDelta(t, 95.5, hd.UserBehavior.AvgSessionDuration, 1e-9)
	assert.InDelta(t, 0.4, hd.UserBehavior.BounceRate, 1e-9)
	assert.InDelta(t, 0.05, hd.UserBehavior.ConversionRate, 1e-9)

	raw, err := json.Marshal(hd)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"userFeedback":[]`)
}

func TestHotjarAdapter_FetchData_AllFailing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	data, err := newTestHotjar(t, server.URL).FetchData(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &HotjarData{UserFeedback: []HotjarFeedback{}, TopPages: []HotjarPage{}}, data)
}

func TestHotjarAdapter_TestConnection(t *testing.T) {
	server := newHotjarServer(t, nil)
	defer server.Close()

	ok, err := newTestHotjar(t, server.URL).TestConnection(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	failing := newHotjarServer(t, map[string]bool{"": true})
	defer failing.Close()

	ok, err = newTestHotjar(t, failing.URL).TestConnection(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHotjarAdapter_RunAction(t *testing.T) {
	server := newHotjarServer(t, nil)
	defer server.Close()
	a := newTestHotjar(t, server.URL)

	out, err := a.RunAction(context.Background(), HotjarActionRecordings, map[string]any{"start": "2024-01-01", "end": "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"id": "r1"}}, out)

	_, err = a.RunAction(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, integration.ErrProviderActionNotFound)
}
