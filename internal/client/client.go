// Package client provides an HTTP client for the Elimu server API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Client talks to the Elimu server over HTTP.
type Client struct {
	baseURL    string
	clientName string
	httpClient *http.Client
}

// New creates a client for the given base URL.
// If baseURL is empty, uses ELIMU_SERVER_URL env var or defaults to localhost:8080.
// Timeout can be configured via ELIMU_CLIENT_TIMEOUT env var (default 10m for
// synchronous ingestion of large documents).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("ELIMU_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	timeout := 10 * time.Minute
	if t := os.Getenv("ELIMU_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    baseURL,
		clientName: clientName(),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func clientName() string {
	if n := os.Getenv("ELIMU_CLIENT_ID"); n != "" {
		return n
	}
	host, err := os.Hostname()
	if err != nil {
		return "elimu-cli"
	}
	return "elimu-cli@" + host
}

// apiError is the server's error envelope.
type apiError struct {
	Error string `json:"error"`
}

// do sends a request and decodes the JSON response into result.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Client-ID", c.clientName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var ae apiError
		if err := json.Unmarshal(raw, &ae); err == nil && ae.Error != "" {
			return fmt.Errorf("server error: %s", ae.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(raw))
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", result)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json", result)
}

// Document is an uploaded document as reported by the server.
type Document struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	FileName     string    `json:"file_name"`
	PageCount    int       `json:"page_count"`
	SizeBytes    int64     `json:"size_bytes"`
	DateUploaded time.Time `json:"date_uploaded"`
}

// Topic is a known topic.
type Topic struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Job is a background ingestion job.
type Job struct {
	ID          string     `json:"job_id"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Message     string     `json:"message"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// JobRef ties a submitted file to its job.
type JobRef struct {
	FileName string `json:"file_name"`
	JobID    string `json:"job_id"`
}

// Answer is the server's reply to a question.
type Answer struct {
	Answer      string   `json:"answer"`
	Sources     []string `json:"sources"`
	UsedContext bool     `json:"used_context"`
	Confidence  *float64 `json:"confidence,omitempty"`
	LLM         string   `json:"llm,omitempty"`
}

// Ingest uploads files to a topic and waits for ingestion to finish.
func (c *Client) Ingest(ctx context.Context, topic string, paths []string) ([]Document, error) {
	body, contentType, err := multipartBody(paths)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Uploaded []Document `json:"uploaded"`
	}
	path := "/api/ingest/" + url.PathEscape(topic)
	if err := c.do(ctx, http.MethodPost, path, body, contentType, &resp); err != nil {
		return nil, err
	}
	return resp.Uploaded, nil
}

// IngestAsync uploads files to a topic and returns the background jobs
// ingesting them.
func (c *Client) IngestAsync(ctx context.Context, topic string, paths []string) ([]JobRef, error) {
	body, contentType, err := multipartBody(paths)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Jobs []JobRef `json:"jobs"`
	}
	path := "/api/ingest/" + url.PathEscape(topic) + "?async=1"
	if err := c.do(ctx, http.MethodPost, path, body, contentType, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func multipartBody(paths []string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", p, err)
		}
		part, err := mw.CreateFormFile("files", filepath.Base(p))
		if err != nil {
			f.Close()
			return nil, "", fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("copy %s: %w", p, err)
		}
		f.Close()
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// Ask sends a question against a topic.
func (c *Client) Ask(ctx context.Context, topic, question string) (*Answer, error) {
	var answer Answer
	err := c.postJSON(ctx, "/api/chat", map[string]string{
		"topic":    topic,
		"question": question,
	}, &answer)
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// ListJobs returns jobs, optionally filtered by status.
func (c *Client) ListJobs(ctx context.Context, status string) ([]Job, error) {
	path := "/api/jobs"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var jobs []Job
	if err := c.getJSON(ctx, path, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob returns one job by id.
func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := c.getJSON(ctx, "/api/jobs/"+url.PathEscape(id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CancelJob cancels a pending job.
func (c *Client) CancelJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/jobs/"+url.PathEscape(id), nil, "", nil)
}

// ListTopics returns all topics.
func (c *Client) ListTopics(ctx context.Context) ([]Topic, error) {
	var resp struct {
		Topics []Topic `json:"topics"`
	}
	if err := c.getJSON(ctx, "/api/topics", &resp); err != nil {
		return nil, err
	}
	return resp.Topics, nil
}

// DeleteTopic removes a topic and everything indexed under it.
func (c *Client) DeleteTopic(ctx context.Context, topic string) error {
	return c.do(ctx, http.MethodDelete, "/api/topics/"+url.PathEscape(topic), nil, "", nil)
}

// ListDocuments returns the documents uploaded to a topic.
func (c *Client) ListDocuments(ctx context.Context, topic string) ([]Document, error) {
	var resp struct {
		Documents []Document `json:"documents"`
	}
	if err := c.getJSON(ctx, "/api/documents/"+url.PathEscape(topic), &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

// Stats returns the server's operation counters.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var stats map[string]any
	if err := c.getJSON(ctx, "/api/stats", &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/health", nil)
}
