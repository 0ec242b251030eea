// Package service composes the ingestion and query pipelines from their
// components. Services hold injected dependencies only; there is no
// process-wide shared state.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/elimu-hub/elimu-go/internal/embedding"
	"github.com/elimu-hub/elimu-go/internal/extract"
	"github.com/elimu-hub/elimu-go/internal/jobs"
	"github.com/elimu-hub/elimu-go/internal/metrics"
	"github.com/elimu-hub/elimu-go/internal/store"
	"github.com/elimu-hub/elimu-go/internal/vectorstore"
)

// Ingestion progress checkpoints, reported at stage boundaries.
const (
	progressExtracted = 10
	progressChunked   = 30
	progressEmbedded  = 60
	progressIndexed   = 80
	progressRecorded  = 100
)

// embedBatchSize bounds how many chunk texts go to the embedder per call.
const embedBatchSize = 64

// IngestService runs the extract → chunk → embed → index pipeline, either
// synchronously or as a background job.
type IngestService struct {
	extractors *extract.Registry
	embedder   embedding.Embedder
	index      vectorstore.Store
	docs       *store.Store
	manager    *jobs.Manager
	chunkCfg   extract.ChunkConfig
	dataDir    string
	collector  *metrics.Collector
	logger     *slog.Logger
}

// IngestConfig wires an IngestService.
type IngestConfig struct {
	Extractors *extract.Registry
	Embedder   embedding.Embedder
	Index      vectorstore.Store
	Docs       *store.Store
	Manager    *jobs.Manager
	ChunkCfg   extract.ChunkConfig
	DataDir    string
	Collector  *metrics.Collector
	Logger     *slog.Logger
}

// NewIngestService creates an ingest service.
func NewIngestService(cfg IngestConfig) *IngestService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := cfg.Collector
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &IngestService{
		extractors: cfg.Extractors,
		embedder:   cfg.Embedder,
		index:      cfg.Index,
		docs:       cfg.Docs,
		manager:    cfg.Manager,
		chunkCfg:   cfg.ChunkCfg,
		dataDir:    cfg.DataDir,
		collector:  collector,
		logger:     logger,
	}
}

// SaveUpload streams an uploaded file to the topic's data directory and
// returns its path and size.
func (s *IngestService) SaveUpload(topic, fileName string, r io.Reader) (string, int64, error) {
	topic, err := validateTopic(topic)
	if err != nil {
		return "", 0, err
	}
	// The stored name is the base name only; uploads cannot escape the
	// topic directory.
	fileName = filepath.Base(fileName)

	dir := filepath.Join(s.dataDir, topic)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("create topic dir: %w", err)
	}

	path := filepath.Join(dir, fileName)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write upload: %w", err)
	}
	if size == 0 {
		os.Remove(path)
		return "", 0, ErrEmptyFile
	}
	return path, size, nil
}

// Ingest runs the full pipeline synchronously and returns the recorded
// document summary.
func (s *IngestService) Ingest(ctx context.Context, topic, path string) (*store.Document, error) {
	var doc *store.Document
	err := s.collector.Time(metrics.OpIngest, func() error {
		var err error
		doc, err = s.run(ctx, topic, path, func(int, string) {})
		return err
	})
	return doc, err
}

// IngestAsync submits the pipeline as a background job owned by owner and
// returns the job ID. Pipeline failures are captured in the job, not
// returned here.
func (s *IngestService) IngestAsync(topic, path, owner string) (string, error) {
	topic, err := validateTopic(topic)
	if err != nil {
		return "", err
	}

	jobID := uuid.New().String()
	work := func(ctx context.Context, report jobs.ProgressFunc) (any, error) {
		var doc *store.Document
		err := s.collector.Time(metrics.OpIngest, func() error {
			var err error
			doc, err = s.run(ctx, topic, path, report)
			return err
		})
		if err != nil {
			return nil, err
		}
		return doc, nil
	}

	if err := s.manager.Submit(jobID, owner, work); err != nil {
		return "", err
	}
	return jobID, nil
}

// run is the single pipeline shared by both call shapes. Stages run
// strictly sequentially; the first failing stage aborts the run. Index
// writes are not rolled back on later failure; re-ingestion overwrites
// them via derived entry IDs.
func (s *IngestService) run(ctx context.Context, topic, path string, report jobs.ProgressFunc) (*store.Document, error) {
	topic, err := validateTopic(topic)
	if err != nil {
		return nil, err
	}
	fileName := filepath.Base(path)
	logger := s.logger.With("topic", topic, "file", fileName)

	// Extract
	pages, err := s.extractors.ExtractPages(ctx, path)
	if err != nil {
		return nil, err
	}
	pageCount := 0
	for _, p := range pages {
		if p.Number > pageCount {
			pageCount = p.Number
		}
	}
	report(progressExtracted, fmt.Sprintf("extracted %d pages", len(pages)))

	// Chunk, carrying page provenance. Sequence numbers are unique per
	// (topic, file) so derived IDs stay stable across re-ingestion.
	var chunks []vectorstore.Chunk
	seq := 0
	for _, page := range pages {
		for _, text := range extract.Chunk(page.Text, s.chunkCfg) {
			chunks = append(chunks, vectorstore.Chunk{
				Text:       text,
				Topic:      topic,
				SourceFile: fileName,
				Page:       page.Number,
				Sequence:   seq,
			})
			seq++
		}
	}
	if len(chunks) == 0 {
		return nil, &extract.ExtractionError{Path: path, Err: extract.ErrNoText}
	}
	report(progressChunked, fmt.Sprintf("split into %d chunks", len(chunks)))

	// Embed in bounded batches; a failed batch indexes nothing from it.
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		var batch [][]float32
		err := s.collector.Time(metrics.OpEmbedding, func() error {
			var err error
			batch, err = s.embedder.EmbedBatch(ctx, texts)
			return err
		})
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	report(progressEmbedded, fmt.Sprintf("embedded %d chunks", len(chunks)))

	// Index
	if err := s.index.Add(ctx, topic, chunks, vectors); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}
	report(progressIndexed, "indexed")

	// Record bookkeeping
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	doc := store.Document{
		ID:        uuid.New().String(),
		Topic:     topic,
		FileName:  fileName,
		PageCount: pageCount,
		SizeBytes: size,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.docs.EnsureTopic(ctx, topic); err != nil {
		return nil, err
	}
	if err := s.docs.UpsertDocument(ctx, doc); err != nil {
		return nil, err
	}
	report(progressRecorded, "completed")

	logger.Info("document ingested", "pages", pageCount, "chunks", len(chunks))
	return &doc, nil
}
