// Package embedding provides text embedding generation with multiple
// backend support. The same embedder instance must serve both ingestion
// and query time so distances stay comparable.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/elimu-hub/elimu-go/internal/config"
)

// ErrService marks embedding backend failures. A failed batch returns no
// vectors at all; callers must not index partial batches.
var ErrService = errors.New("embedding service failure")

// Embedder defines the interface for text embedding providers.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, all-or-nothing.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	Dimension() int
}

// New creates an Embedder for the configured provider.
func New(cfg config.Config) (Embedder, error) {
	switch cfg.EmbedProvider {
	case config.ProviderLocal, "":
		return NewHashing(cfg.EmbedDimension), nil
	case config.ProviderOllama, config.ProviderOpenAI:
		return NewLangchain(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbedProvider)
	}
}
