package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Qdrant is a minimal REST adapter over a Qdrant server. One Qdrant
// collection is created per topic, cosine distance, sized on first write.
// Qdrant reports cosine similarity in [-1,1]; scores are normalized into
// [0,1] at this boundary.
type Qdrant struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu      sync.Mutex
	created map[string]bool // topics with a known-existing collection
}

// QdrantConfig configures the Qdrant adapter.
type QdrantConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// NewQdrant creates a Qdrant-backed store.
func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Qdrant{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		created: make(map[string]bool),
	}
}

var _ Store = (*Qdrant)(nil)

// collectionName maps a topic onto a dedicated Qdrant collection.
func collectionName(topic string) string {
	return "topic-" + topic
}

func (q *Qdrant) ensureCollection(ctx context.Context, topic string, dimension int) error {
	q.mu.Lock()
	exists := q.created[topic]
	q.mu.Unlock()
	if exists {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant answers 200 if the collection already exists with the same schema.
	url := fmt.Sprintf("%s/collections/%s", q.baseURL, collectionName(topic))
	if err := q.doJSON(ctx, http.MethodPut, url, body, nil); err != nil {
		return err
	}

	q.mu.Lock()
	q.created[topic] = true
	q.mu.Unlock()
	return nil
}

// Add upserts points keyed by the chunks' derived IDs.
func (q *Qdrant) Add(ctx context.Context, topic string, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return ErrLengthMismatch
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := q.ensureCollection(ctx, topic, len(vectors[0])); err != nil {
		return err
	}

	points := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		points[i] = map[string]any{
			"id":     chunk.EntryID(),
			"vector": vectors[i],
			"payload": map[string]any{
				"text":        chunk.Text,
				"topic":       chunk.Topic,
				"source_file": chunk.SourceFile,
				"page":        chunk.Page,
				"sequence":    chunk.Sequence,
			},
		}
	}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", q.baseURL, collectionName(topic))
	return q.doJSON(ctx, http.MethodPut, url, map[string]any{"points": points}, nil)
}

// Query searches the topic's collection and returns up to k matches.
func (q *Qdrant) Query(ctx context.Context, topic string, vector []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", q.baseURL, collectionName(topic))
	if err := q.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		// An absent collection means an empty topic, not a failure.
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := Chunk{Topic: topic}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		if v, ok := r.Payload["source_file"].(string); ok {
			chunk.SourceFile = v
		}
		if v, ok := r.Payload["page"].(float64); ok {
			chunk.Page = int(v)
		}
		if v, ok := r.Payload["sequence"].(float64); ok {
			chunk.Sequence = int(v)
		}
		matches = append(matches, Match{Chunk: chunk, Score: (1 + r.Score) / 2})
	}
	return matches, nil
}

// DeleteTopic drops the topic's collection.
func (q *Qdrant) DeleteTopic(ctx context.Context, topic string) error {
	url := fmt.Sprintf("%s/collections/%s", q.baseURL, collectionName(topic))
	err := q.doJSON(ctx, http.MethodDelete, url, nil, nil)
	if err != nil && !isNotFound(err) {
		return err
	}

	q.mu.Lock()
	delete(q.created, topic)
	q.mu.Unlock()
	return nil
}

// Count reads the collection's point count.
func (q *Qdrant) Count(ctx context.Context, topic string) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/count", q.baseURL, collectionName(topic))
	if err := q.doJSON(ctx, http.MethodPost, url, map[string]any{"exact": true}, &resp); err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return resp.Result.Count, nil
}

// httpStatusError carries the status code of a failed Qdrant call.
type httpStatusError struct {
	method string
	url    string
	code   int
	status string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("qdrant %s %s: %s", e.method, e.url, e.status)
}

func isNotFound(err error) bool {
	se, ok := err.(*httpStatusError)
	return ok && se.code == http.StatusNotFound
}

func (q *Qdrant) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &httpStatusError{method: method, url: url, code: resp.StatusCode, status: resp.Status}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
