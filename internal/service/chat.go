package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/panjf2000/ants/v2"

	"github.com/elimu-hub/elimu-go/internal/config"
	"github.com/elimu-hub/elimu-go/internal/embedding"
	"github.com/elimu-hub/elimu-go/internal/llm"
	"github.com/elimu-hub/elimu-go/internal/metrics"
	"github.com/elimu-hub/elimu-go/internal/retrieval"
	"github.com/elimu-hub/elimu-go/internal/vectorstore"
)

// User-facing messages for degraded answers.
const (
	MsgNoDocuments  = "No documents have been uploaded for this topic yet."
	MsgInsufficient = "I have insufficient knowledge on this topic."
	MsgUnavailable  = "I'm unable to answer right now. Please try again later."
)

// Answer is the chat response shape.
type Answer struct {
	Answer      string   `json:"answer"`
	Sources     []string `json:"sources"`
	UsedContext []string `json:"used_context"`
	Confidence  *float64 `json:"confidence"`
	LLM         string   `json:"llm"`
}

// ChatService answers questions from indexed topic material. Query work
// (embedding, vector search, generation) runs on a bounded pool since
// each step may block on network or CPU.
type ChatService struct {
	embedder  embedding.Embedder
	index     vectorstore.Store
	gate      *retrieval.Gate
	generator llm.Generator
	fallback  config.FallbackMode
	topK      int
	pool      *ants.Pool
	collector *metrics.Collector
	logger    *slog.Logger
}

// ChatConfig wires a ChatService.
type ChatConfig struct {
	Embedder    embedding.Embedder
	Index       vectorstore.Store
	Gate        *retrieval.Gate
	Generator   llm.Generator
	Fallback    config.FallbackMode
	TopK        int
	Concurrency int
	Collector   *metrics.Collector
	Logger      *slog.Logger
}

// NewChatService creates a chat service with its bounded query pool.
func NewChatService(cfg ChatConfig) (*ChatService, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	pool, err := ants.NewPool(cfg.Concurrency)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := cfg.Collector
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &ChatService{
		embedder:  cfg.Embedder,
		index:     cfg.Index,
		gate:      cfg.Gate,
		generator: cfg.Generator,
		fallback:  cfg.Fallback,
		topK:      cfg.TopK,
		pool:      pool,
		collector: collector,
		logger:    logger,
	}, nil
}

// Close releases the query pool.
func (s *ChatService) Close() {
	s.pool.Release()
}

// Ask answers a question for a topic. Validation errors return
// immediately; pipeline failures degrade into a user-facing message
// rather than an error.
func (s *ChatService) Ask(ctx context.Context, topic, question string) (Answer, error) {
	topic, err := validateTopic(topic)
	if err != nil {
		return Answer{}, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}

	type result struct {
		answer Answer
	}
	done := make(chan result, 1)
	if err := s.pool.Submit(func() {
		var answer Answer
		_ = s.collector.Time(metrics.OpChat, func() error {
			answer = s.ask(ctx, topic, question)
			return nil
		})
		done <- result{answer: answer}
	}); err != nil {
		s.logger.Error("query pool rejected work", "error", err)
		return s.unavailable(), nil
	}

	select {
	case r := <-done:
		return r.answer, nil
	case <-ctx.Done():
		return Answer{}, ctx.Err()
	}
}

func (s *ChatService) ask(ctx context.Context, topic, question string) Answer {
	logger := s.logger.With("topic", topic)

	// Embed the question with the same model used at ingestion time.
	var vector []float32
	err := s.collector.Time(metrics.OpEmbedding, func() error {
		var err error
		vector, err = s.embedder.Embed(ctx, question)
		return err
	})
	if err != nil {
		logger.Error("query embedding failed", "error", err)
		return s.unavailable()
	}

	var matches []vectorstore.Match
	err = s.collector.Time(metrics.OpVectorQuery, func() error {
		var err error
		matches, err = s.index.Query(ctx, topic, vector, s.topK)
		return err
	})
	if err != nil {
		logger.Error("vector query failed", "error", err)
		return s.unavailable()
	}

	decision := s.gate.Decide(matches)
	switch decision.Outcome {
	case retrieval.OutcomeEmpty:
		return Answer{
			Answer:      MsgNoDocuments,
			Sources:     []string{},
			UsedContext: []string{},
			LLM:         s.generator.Name(),
		}

	case retrieval.OutcomeInsufficient:
		if s.fallback == config.FallbackGeneral {
			return s.generate(ctx, llm.UngroundedRequest(question), nil, nil, nil, logger)
		}
		return Answer{
			Answer:      MsgInsufficient,
			Sources:     []string{},
			UsedContext: []string{},
			LLM:         s.generator.Name(),
		}
	}

	// Confident: ground the answer on the retrieved chunks.
	contextTexts := make([]string, len(decision.Context))
	sources := make([]string, len(decision.Context))
	for i, match := range decision.Context {
		contextTexts[i] = match.Chunk.Text
		sources[i] = match.Chunk.Source()
	}
	return s.generate(ctx, llm.GroundedRequest(question, contextTexts), sources, contextTexts, decision.Confidence(), logger)
}

// generate runs the completion and degrades gracefully on typed failure.
func (s *ChatService) generate(ctx context.Context, req llm.Request, sources, usedContext []string, confidence *float64, logger *slog.Logger) Answer {
	var text string
	err := s.collector.Time(metrics.OpGeneration, func() error {
		var err error
		text, err = s.generator.Complete(ctx, req)
		return err
	})
	if err != nil {
		var ge *llm.GenerationError
		if errors.As(err, &ge) {
			logger.Warn("generation failed", "kind", ge.Kind, "error", err)
		} else {
			logger.Error("generation failed", "error", err)
		}
		return s.unavailable()
	}

	if sources == nil {
		sources = []string{}
	}
	if usedContext == nil {
		usedContext = []string{}
	}
	return Answer{
		Answer:      text,
		Sources:     sources,
		UsedContext: usedContext,
		Confidence:  confidence,
		LLM:         s.generator.Name(),
	}
}

func (s *ChatService) unavailable() Answer {
	return Answer{
		Answer:      MsgUnavailable,
		Sources:     []string{},
		UsedContext: []string{},
		LLM:         s.generator.Name(),
	}
}
