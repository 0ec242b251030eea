// Package server exposes the ingestion and query pipelines over HTTP and
// WebSocket, per the external message shapes of the service.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/elimu-hub/elimu-go/internal/extract"
	"github.com/elimu-hub/elimu-go/internal/jobs"
	"github.com/elimu-hub/elimu-go/internal/metrics"
	"github.com/elimu-hub/elimu-go/internal/progress"
	"github.com/elimu-hub/elimu-go/internal/service"
	"github.com/elimu-hub/elimu-go/internal/store"
)

// maxUploadBytes bounds one multipart ingest request.
const maxUploadBytes = 100 << 20 // 100 MiB

// Server holds the HTTP handler dependencies.
type Server struct {
	ingest      *service.IngestService
	chat        *service.ChatService
	topics      *service.TopicService
	manager     *jobs.Manager
	broadcaster *progress.Broadcaster
	collector   *metrics.Collector
	logger      *slog.Logger
}

// Config wires a Server.
type Config struct {
	Ingest      *service.IngestService
	Chat        *service.ChatService
	Topics      *service.TopicService
	Manager     *jobs.Manager
	Broadcaster *progress.Broadcaster
	Collector   *metrics.Collector
	Logger      *slog.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ingest:      cfg.Ingest,
		chat:        cfg.Chat,
		topics:      cfg.Topics,
		manager:     cfg.Manager,
		broadcaster: cfg.Broadcaster,
		collector:   cfg.Collector,
		logger:      logger,
	}
}

// Handler builds the route table wrapped in the logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/ingest/{topic}", s.handleIngest)
	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJobStatus)
	mux.HandleFunc("DELETE /api/jobs/{id}", s.handleCancelJob)

	mux.HandleFunc("GET /api/topics", s.handleListTopics)
	mux.HandleFunc("DELETE /api/topics/{topic}", s.handleDeleteTopic)
	mux.HandleFunc("GET /api/documents/{topic}", s.handleListDocuments)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /ws/upload-progress", s.handleProgressSocket)

	return LoggingMiddleware(s.logger)(mux)
}

// clientID identifies the progress subscriber for a request. There is no
// authentication layer here; clients self-identify.
func clientID(r *http.Request) string {
	if id := r.Header.Get("X-Client-ID"); id != "" {
		return id
	}
	if id := r.URL.Query().Get("client_id"); id != "" {
		return id
	}
	return "anonymous"
}

// handleIngest accepts multipart uploads for a topic. With ?async=1 each
// file becomes a background job; otherwise files are ingested before the
// response is written.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	async := r.URL.Query().Get("async") == "1"
	owner := clientID(r)

	type jobRef struct {
		FileName string `json:"file_name"`
		JobID    string `json:"job_id"`
	}
	var (
		uploaded  []any
		submitted []jobRef
	)

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("open %s: unreadable upload", fh.Filename))
			return
		}
		path, _, err := s.ingest.SaveUpload(topic, fh.Filename, f)
		f.Close()
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		if async {
			jobID, err := s.ingest.IngestAsync(topic, path, owner)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			submitted = append(submitted, jobRef{FileName: fh.Filename, JobID: jobID})
			continue
		}

		doc, err := s.ingest.Ingest(r.Context(), topic, path)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		uploaded = append(uploaded, doc)
	}

	if async {
		writeJSON(w, http.StatusAccepted, map[string]any{"jobs": submitted})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploaded": uploaded})
}

type chatRequest struct {
	Topic    string `json:"topic"`
	Question string `json:"question"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	answer, err := s.chat.Ask(r.Context(), req.Topic, req.Question)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.Status(r.URL.Query().Get("status"))
	switch filter {
	case "", jobs.StatusPending, jobs.StatusRunning, jobs.StatusCompleted, jobs.StatusFailed, jobs.StatusCancelled:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status filter: %s", filter))
		return
	}
	writeJSON(w, http.StatusOK, s.manager.List(filter))
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.manager.Get(r.PathValue("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.manager.Cancel(id) {
		writeError(w, http.StatusBadRequest, "job cannot be cancelled (not found or already running/completed)")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": id, "status": string(jobs.StatusCancelled)})
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.topics.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (s *Server) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")
	if err := s.topics.Delete(r.Context(), topic); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": topic})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.topics.Documents(r.Context(), r.PathValue("topic"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps service-layer failures onto HTTP statuses.
// Extraction failures count as validation: the client sent a file we
// cannot read, not a server fault.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var extractErr *extract.ExtractionError
	switch {
	case errors.Is(err, service.ErrEmptyTopic),
		errors.Is(err, service.ErrInvalidTopic),
		errors.Is(err, service.ErrEmptyQuestion),
		errors.Is(err, service.ErrEmptyFile),
		errors.Is(err, extract.ErrUnsupportedFormat),
		errors.As(err, &extractErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTopicNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, jobs.ErrDuplicateJob):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
