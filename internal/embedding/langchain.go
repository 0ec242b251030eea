package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/elimu-hub/elimu-go/internal/config"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Langchain wraps langchaingo embeddings with dimension validation.
type Langchain struct {
	model     embeddings.Embedder
	dimension int
	modelName string
}

var _ Embedder = (*Langchain)(nil)

// NewLangchain creates an embedder over the configured langchaingo backend.
func NewLangchain(cfg config.Config) (*Langchain, error) {
	var model embeddings.Embedder
	var err error

	switch cfg.EmbedProvider {
	case config.ProviderOllama:
		llm, ollamaErr := ollama.New(
			ollama.WithModel(cfg.EmbedModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if ollamaErr != nil {
			return nil, fmt.Errorf("create ollama client: %w", ollamaErr)
		}
		model, err = embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		llm, openaiErr := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithEmbeddingModel(cfg.EmbedModel),
		)
		if openaiErr != nil {
			return nil, fmt.Errorf("create openai client: %w", openaiErr)
		}
		model, err = embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
		if err != nil {
			return nil, fmt.Errorf("create openai embedder: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbedProvider)
	}

	return &Langchain{
		model:     model,
		dimension: cfg.EmbedDimension,
		modelName: cfg.EmbedModel,
	}, nil
}

// Embed generates an embedding vector for text.
func (e *Langchain) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vectors, err := e.model.EmbedDocuments(ctx, []string{text})
	duration := time.Since(start)

	if err != nil {
		slog.Warn("embedding failed", "model", e.modelName, "duration_ms", duration.Milliseconds(), "error", err)
		return nil, fmt.Errorf("%w: embed: %v", ErrService, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", ErrService)
	}

	vector := vectors[0]
	if len(vector) != e.dimension {
		return nil, fmt.Errorf("%w: dimension mismatch: got %d, want %d", ErrService, len(vector), e.dimension)
	}

	slog.Debug("embedding complete", "model", e.modelName, "duration_ms", duration.Milliseconds())
	return vector, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *Langchain) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := e.model.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed batch: %v", ErrService, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: count mismatch: got %d, want %d", ErrService, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) != e.dimension {
			return nil, fmt.Errorf("%w: embedding %d dimension mismatch: got %d, want %d", ErrService, i, len(v), e.dimension)
		}
	}

	return vectors, nil
}

// Model returns the embedding model name.
func (e *Langchain) Model() string {
	return e.modelName
}

// Dimension returns the expected embedding dimension.
func (e *Langchain) Dimension() int {
	return e.dimension
}
