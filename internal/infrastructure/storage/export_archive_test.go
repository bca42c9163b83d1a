package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/uxinsight/backend/internal/infrastructure/config"
)

func TestNewS3ExportArchive_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, "bucket is required"},
		{"missing access key", &config.StorageConfig{Bucket: "b", SecretKey: "s"}, "access key is required"},
		{"missing secret key", &config.StorageConfig{Bucket: "b", AccessKey: "k"}, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3ExportArchive(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewS3ExportArchive_Defaults(t *testing.T) {
	archive, err := NewS3ExportArchive(&config.StorageConfig{
		Bucket:       "exports",
		AccessKey:    "k",
		SecretKey:    "s",
		Endpoint:     "localhost:9000",
		ExportPrefix: "/exports/",
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	assert.Equal(t, "exports", archive.Bucket())
	assert.Equal(t, 15*time.Minute, archive.presignExpiration)
	assert.Equal(t, "exports/abc/file.json", archive.ObjectKey("abc/file.json"))
}

func TestS3ExportArchive_DownloadURL(t *testing.T) {
	archive, err := NewS3ExportArchive(&config.StorageConfig{
		Bucket:       "exports",
		AccessKey:    "k",
		SecretKey:    "s",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	}, WithPresignExpiration(5*time.Minute))
	require.NoError(t, err)

	raw, expiresAt, err := archive.DownloadURL(context.Background(), "a/b.json")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/exports/a/b.json", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	_, _, err = archive.DownloadURL(context.Background(), "")
	assert.Error(t, err)
}

func TestS3ExportArchive_Archive(t *testing.T) {
	var (
		mu          sync.Mutex
		gotPath     string
		gotBody     string
		contentType string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath, gotBody, contentType = r.URL.Path, string(raw), r.Header.Get("Content-Type")
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	archive, err := NewS3ExportArchive(&config.StorageConfig{
		Bucket:       "exports",
		AccessKey:    "k",
		SecretKey:    "s",
		Endpoint:     server.URL,
		UsePathStyle: true,
		ExportPrefix: "archive",
	})
	require.NoError(t, err)

	link, err := archive.Archive(context.Background(), "id-1/site-export-2024-03-15.json", []byte(`{"exportVersion":"1.0"}`))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/exports/archive/id-1/site-export-2024-03-15.json", gotPath)
	assert.Contains(t, gotBody, `{"exportVersion":"1.0"}`)
	assert.Equal(t, "application/json", contentType)
	assert.Contains(t, link, server.URL+"/exports/archive/id-1/site-export-2024-03-15.json?")

	_, err = archive.Archive(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestS3ExportArchive_ArchiveUploadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	}))
	defer server.Close()

	archive, err := NewS3ExportArchive(&config.StorageConfig{
		Bucket: "exports", AccessKey: "k", SecretKey: "s", Endpoint: server.URL, UsePathStyle: true,
	})
	require.NoError(t, err)

	_, err = archive.Archive(context.Background(), "k.json", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload export")
}
