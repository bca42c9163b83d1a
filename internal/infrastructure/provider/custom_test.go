package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxinsight/backend/internal/domain/integration"
)

func newTestCustom(t *testing.T, cfg CustomConfig) *CustomAdapter {
	t.Helper()
	a, err := NewCustomAdapter(&cfg, Options{})
	require.NoError(t, err)
	return a
}

func TestCustomConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  CustomConfig
		wantErr error
	}{
		{"missing endpoint", CustomConfig{}, ErrCustomMissingEndpoint},
		{"relative endpoint", CustomConfig{Endpoint: "/data"}, ErrCustomInvalidEndpoint},
		{"ftp endpoint", CustomConfig{Endpoint: "ftp://example.test/data"}, ErrCustomInvalidEndpoint},
		{"bad method", CustomConfig{Endpoint: "https://example.test", Method: "TRACE"}, ErrCustomInvalidMethod},
		{"bad auth", CustomConfig{Endpoint: "https://example.test", Auth: CustomAuth{Type: "digest"}}, ErrCustomInvalidAuthType},
		{"defaults", CustomConfig{Endpoint: "https://example.test"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.MethodGet, tt.config.Method)
		})
	}
}

func TestCustomAdapter_EmptyObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	a := newTestCustom(t, CustomConfig{Endpoint: server.URL + "/data", Method: "GET", Auth: CustomAuth{Type: CustomAuthNone}})

	ok, err := a.TestConnection(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := a.FetchData(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, data.DataPoints())

	cd := data.(*CustomData)
	assert.True(t, cd.Success)
	assert.Equal(t, server.URL+"/data", cd.Metadata.Endpoint)
	assert.Equal(t, "GET", cd.Metadata.Method)
	assert.NotEmpty(t, cd.Metadata.Timestamp)
}

func TestCustomAdapter_DataPointsCountTopLevelKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"visits":10,"pages":{"home":4},"ok":true}`))
	}))
	defer server.Close()

	data, err := newTestCustom(t, CustomConfig{Endpoint: server.URL}).FetchData(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, data.DataPoints())
}

func TestCustomAdapter_ResponseMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"ok":true,"items":{"a":1,"b":2}}}`))
	}))
	defer server.Close()

	a := newTestCustom(t, CustomConfig{
		Endpoint: server.URL,
		ResponseMapping: &CustomResponseMapping{
			Success: "result.ok",
			Data:    "result.items",
			Error:   "result.error.message",
		},
	})

	data, err := a.FetchData(context.Background(), nil)
	require.NoError(t, err)

	cd := data.(*CustomData)
	assert.Equal(t, map[string]any{
		"success": true,
		"data":    map[string]any{"a": 1.0, "b": 2.0},
		"error":   nil,
	}, cd.Data)
	assert.Equal(t, 3, data.DataPoints())
}

func TestLookupPath(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": map[string]any{"c": "deep"}}, "n": 1.0}

	assert.Equal(t, "deep", lookupPath(doc, "a.b.c"))
	assert.Nil(t, lookupPath(doc, "a.x.c"))
	assert.Nil(t, lookupPath(doc, "n.m"))
	assert.Equal(t, 1.0, lookupPath(doc, "n"))
}

func TestCustomAdapter_Auth(t *testing.T) {
	tests := []struct {
		name   string
		auth   CustomAuth
		assert func(t *testing.T, r *http.Request)
	}{
		{
			name: "basic",
			auth: CustomAuth{Type: CustomAuthBasic, Credentials: map[string]any{"username": "u", "password": "p"}},
			assert: func(t *testing.T, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "u", user)
				assert.Equal(t, "p", pass)
			},
		},
		{
			name: "bearer",
			auth: CustomAuth{Type: CustomAuthBearer, Credentials: map[string]any{"token": "tok"}},
			assert: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			},
		},
		{
			name: "api key default header",
			auth: CustomAuth{Type: CustomAuthAPIKey, Credentials: map[string]any{"key": "k1"}},
			assert: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "k1", r.Header.Get("X-API-Key"))
			},
		},
		{
			name: "api key custom header",
			auth: CustomAuth{Type: CustomAuthAPIKey, Credentials: map[string]any{"key": "k2", "headerName": "X-Token"}},
			assert: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "k2", r.Header.Get("X-Token"))
				assert.Empty(t, r.Header.Get("X-API-Key"))
			},
		},
		{
			name: "oauth2 access token",
			auth: CustomAuth{Type: CustomAuthOAuth2, Credentials: map[string]any{"accessToken": "oa"}},
			assert: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "Bearer oa", r.Header.Get("Authorization"))
			},
		},
		{
			name: "none",
			auth: CustomAuth{Type: CustomAuthNone},
			assert: func(t *testing.T, r *http.Request) {
				assert.Empty(t, r.Header.Get("Authorization"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.assert(t, r)
				assert.Equal(t, "yes", r.Header.Get("X-Extra"))
				_, _ = w.Write([]byte(`{"ok":true}`))
			}))
			defer server.Close()

			a := newTestCustom(t, CustomConfig{
				Endpoint: server.URL,
				Headers:  map[string]string{"X-Extra": "yes"},
				Auth:     tt.auth,
			})
			ok, err := a.TestConnection(context.Background())
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestCustomAdapter_OAuth2MissingCredentials(t *testing.T) {
	a := newTestCustom(t, CustomConfig{Endpoint: "https://example.test", Auth: CustomAuth{Type: CustomAuthOAuth2}})

	ok, err := a.TestConnection(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, integration.ErrProviderInvalidConfig)
}

func TestCustomAdapter_ParamsAndBody(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "7", r.URL.Query().Get("limit"))
		case http.MethodPost:
			assert.Empty(t, r.URL.Query().Get("limit"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			raw, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(raw, &gotBody))
		}
		_, _ = w.Write([]byte(`{"saved":true}`))
	}))
	defer server.Close()

	a := newTestCustom(t, CustomConfig{
		Endpoint: server.URL,
		Params:   map[string]any{"limit": 7},
		Body:     map[string]any{"default": true},
	})

	_, err := a.FetchData(context.Background(), nil)
	require.NoError(t, err)

	out, err := a.RunAction(context.Background(), CustomActionPost, map[string]any{"data": map[string]any{"name": "x"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "x"}, gotBody)
	assert.Equal(t, "POST", out.(*CustomData).Metadata.Method)
}

func TestCustomAdapter_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	a := newTestCustom(t, CustomConfig{Endpoint: server.URL})

	ok, err := a.TestConnection(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = a.FetchData(context.Background(), nil)
	assert.ErrorIs(t, err, integration.ErrProviderUnavailable)

	check := a.ValidateEndpoint(context.Background())
	assert.False(t, check.Valid)
	assert.Contains(t, check.Error, "503")
}

func TestCustomAdapter_NonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>hi</html>`))
	}))
	defer server.Close()

	_, err := newTestCustom(t, CustomConfig{Endpoint: server.URL}).FetchData(context.Background(), nil)
	assert.ErrorIs(t, err, integration.ErrProviderInvalidData)
}

func TestCustomAdapter_ValidateEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	out, err := newTestCustom(t, CustomConfig{Endpoint: server.URL}).RunAction(context.Background(), CustomActionValidateEndpoint, nil)
	require.NoError(t, err)
	assert.Equal(t, EndpointCheck{Valid: true, Status: http.StatusAccepted}, out)
}
