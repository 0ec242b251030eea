package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_AskRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("X-Client-ID"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bio", req["topic"])

		json.NewEncoder(w).Encode(map[string]any{
			"answer":       "Mitochondria produce energy.",
			"sources":      []string{"doc.pdf:page 2"},
			"used_context": []string{"chunk text"},
			"confidence":   0.82,
			"llm":          "fake-model",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	answer, err := c.Ask(context.Background(), "bio", "What do mitochondria do?")
	require.NoError(t, err)

	assert.Equal(t, "Mitochondria produce energy.", answer.Answer)
	assert.Equal(t, []string{"doc.pdf:page 2"}, answer.Sources)
	require.NotNil(t, answer.Confidence)
	assert.InDelta(t, 0.82, *answer.Confidence, 1e-9)
}

func TestClient_ServerErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "topic not found"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListDocuments(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic not found")
}

func TestClient_IngestMultipart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("some content"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ingest/bio", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		assert.Equal(t, "notes.txt", files[0].Filename)

		json.NewEncoder(w).Encode(map[string]any{
			"uploaded": []map[string]any{{"file_name": "notes.txt", "page_count": 1}},
		})
	}))
	defer srv.Close()

	docs, err := New(srv.URL).Ingest(context.Background(), "bio", []string{path})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes.txt", docs[0].FileName)
}

func TestClient_IngestAsyncQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("some content"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("async"))
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]any{
			"jobs": []map[string]string{{"file_name": "notes.txt", "job_id": "abc"}},
		})
	}))
	defer srv.Close()

	refs, err := New(srv.URL).IngestAsync(context.Background(), "bio", []string{path})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "abc", refs[0].JobID)
}

func TestClient_ProgressURL(t *testing.T) {
	c := New("http://example.com:8080")
	u, err := c.progressURL()
	require.NoError(t, err)
	assert.Contains(t, u, "ws://example.com:8080/ws/upload-progress?client_id=")

	c = New("https://elimu.example.com")
	u, err = c.progressURL()
	require.NoError(t, err)
	assert.Contains(t, u, "wss://elimu.example.com/ws/upload-progress")
}
