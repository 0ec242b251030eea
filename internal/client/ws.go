package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// ProgressUpdate is one progress event for a background job.
type ProgressUpdate struct {
	JobID    string `json:"job_id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// progressFrame is the wire shape of a pushed progress event.
type progressFrame struct {
	Type     string `json:"type"`
	JobID    string `json:"job_id"`
	Progress struct {
		Status   string `json:"status"`
		Progress int    `json:"progress"`
		Message  string `json:"message"`
	} `json:"progress"`
}

// WatchProgress connects to the progress socket and invokes onUpdate for
// each event until ctx is cancelled or the connection drops. Events for
// jobs outside jobIDs are skipped; an empty jobIDs watches everything.
func (c *Client) WatchProgress(ctx context.Context, jobIDs []string, onUpdate func(ProgressUpdate)) error {
	wsURL, err := c.progressURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	// Close the connection when the context ends so ReadJSON unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	watched := make(map[string]struct{}, len(jobIDs))
	for _, id := range jobIDs {
		watched[id] = struct{}{}
	}

	for {
		var frame progressFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read progress event: %w", err)
		}
		if frame.Type != "upload_progress" {
			continue
		}
		if len(watched) > 0 {
			if _, ok := watched[frame.JobID]; !ok {
				continue
			}
		}
		onUpdate(ProgressUpdate{
			JobID:    frame.JobID,
			Status:   frame.Progress.Status,
			Progress: frame.Progress.Progress,
			Message:  frame.Progress.Message,
		})
	}
}

// progressURL derives the ws:// endpoint from the client's base URL.
func (c *Client) progressURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/upload-progress"
	u.RawQuery = "client_id=" + url.QueryEscape(c.clientName)
	return u.String(), nil
}
