// Package llm provides the provider-polymorphic generation client using
// langchaingo. The provider is selected once at construction; every call
// goes through the same prompt/response contract.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elimu-hub/elimu-go/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Request is the uniform generation call shape. A nil Temperature means
// the default; an explicit zero is passed through to the provider.
type Request struct {
	Prompt        string
	SystemMessage string
	MaxTokens     int
	Temperature   *float64
}

// Generator completes a prompt into text. Implementations never panic on
// provider failure; they return a *GenerationError so callers can degrade.
type Generator interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// Default call parameters, applied when the request leaves them zero.
const (
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.7
)

// Client wraps a langchaingo model with a wall-clock budget per call.
type Client struct {
	model     llms.Model
	modelName string
	timeout   time.Duration

	// authErr is set when the provider is unusable for lack of
	// credentials; calls then fail with KindAuthMissing instead of
	// reaching the network.
	authErr *GenerationError
}

var _ Generator = (*Client)(nil)

// New creates a generation client for the configured provider.
func New(cfg config.Config) (*Client, error) {
	c := &Client{
		modelName: cfg.LLMModel,
		timeout:   cfg.GenerationTimeout,
	}
	if c.timeout <= 0 {
		c.timeout = 60 * time.Second
	}

	var err error
	switch cfg.LLMProvider {
	case config.ProviderOllama:
		c.model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			c.authErr = &GenerationError{Kind: KindAuthMissing, Err: errors.New("OPENAI_API_KEY not set")}
			return c, nil
		}
		c.model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			c.authErr = &GenerationError{Kind: KindAuthMissing, Err: errors.New("ANTHROPIC_API_KEY not set")}
			return c, nil
		}
		c.model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return c, nil
}

// Name returns the configured model name.
func (c *Client) Name() string {
	return c.modelName
}

// Complete runs one generation call under the client's timeout.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.authErr != nil {
		return "", c.authErr
	}

	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	temperature := DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	system := req.SystemMessage
	if system == "" {
		system = SystemGeneral
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}

	response, err := c.model.GenerateContent(ctx, messages,
		llms.WithMaxTokens(req.MaxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &GenerationError{Kind: KindTimeout, Err: err}
		}
		return "", &GenerationError{Kind: KindRequestFailed, Err: err}
	}

	if len(response.Choices) == 0 {
		return "", &GenerationError{Kind: KindUnexpectedResponse, Err: errors.New("no response choices")}
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	if text == "" {
		return "", &GenerationError{Kind: KindUnexpectedResponse, Err: errors.New("empty completion")}
	}
	return text, nil
}
