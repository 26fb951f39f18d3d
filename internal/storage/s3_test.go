package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testS3Config(endpoint string) S3Config {
	return S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Prefix:          "runs/run-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}
}

func TestNewS3Storage(t *testing.T) {
	dir := t.TempDir()

	store, err := NewS3Storage(context.Background(), dir, testS3Config("http://localhost:4566"))
	require.NoError(t, err)

	assert.Equal(t, "test-bucket", store.bucket)
	assert.Equal(t, "us-east-1", store.region)
	assert.Equal(t, dir, store.Dir())
}

func TestS3Storage_Key(t *testing.T) {
	store, err := NewS3Storage(context.Background(), t.TempDir(), testS3Config(""))
	require.NoError(t, err)
	assert.Equal(t, "runs/run-1/S1_00:01-00:02.mp3", store.Key("S1_00:01-00:02.mp3"))

	store.prefix = ""
	assert.Equal(t, "S1_00:01-00:02.mp3", store.Key("S1_00:01-00:02.mp3"))
}

func TestS3Storage_InheritsLocalStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	store, err := NewS3Storage(context.Background(), dir, testS3Config("http://localhost:4566"))
	require.NoError(t, err)

	require.NoError(t, store.Prepare(context.Background()))
	_, err = os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x.mp3"), store.Path("x.mp3"))
}

func TestS3Storage_Publish_MockServer(t *testing.T) {
	var gotPath, gotBody, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		gotPath = r.URL.Path
		gotBody = string(body)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := t.TempDir()
	store, err := NewS3Storage(context.Background(), dir, testS3Config(server.URL))
	require.NoError(t, err)

	segment := store.Path("S1_00:01-00:02.mp3")
	require.NoError(t, os.WriteFile(segment, []byte("segment content"), 0o600))

	url, err := store.Publish(context.Background(), segment)
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/test-bucket/runs/run-1/S1_00%3A01-00%3A02.mp3", url)
	assert.True(t, strings.HasPrefix(gotPath, "/test-bucket/runs/run-1/S1_"), "unexpected path %s", gotPath)
	assert.Contains(t, gotBody, "segment content")
	assert.Equal(t, "audio/mpeg", gotType)
}

func TestS3Storage_URL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		key      string
		want     string
	}{
		{
			name: "aws virtual host",
			key:  "runs/run-1/S1_00:01-00:02.mp3",
			want: "https://test-bucket.s3.us-east-1.amazonaws.com/runs/run-1/S1_00%3A01-00%3A02.mp3",
		},
		{
			name:     "custom endpoint is path style",
			endpoint: "http://localhost:9000",
			key:      "runs/run-1/S2_01:00:00-01:00:05.wav",
			want:     "http://localhost:9000/test-bucket/runs/run-1/S2_01%3A00%3A00-01%3A00%3A05.wav",
		},
		{
			name:     "trailing slash on endpoint",
			endpoint: "https://minio.example.com/",
			key:      "my run/S1_00:00-00:01.mp3",
			want:     "https://minio.example.com/test-bucket/my%20run/S1_00%3A00-00%3A01.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewS3Storage(context.Background(), t.TempDir(), testS3Config(tt.endpoint))
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.URL(tt.key))
		})
	}
}

func TestS3Storage_Publish_MissingFile(t *testing.T) {
	store, err := NewS3Storage(context.Background(), t.TempDir(), testS3Config("http://localhost:4566"))
	require.NoError(t, err)

	_, err = store.Publish(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", contentType("a.mp3"))
	assert.Equal(t, "audio/wav", contentType("a.wav"))
	assert.Equal(t, "application/octet-stream", contentType("a.bin"))
}
