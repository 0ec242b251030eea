package llm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/elimu-hub/elimu-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestNew_MissingAPIKeyDegrades(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLMProvider = config.ProviderOpenAI
	cfg.OpenAIAPIKey = ""

	// Construction succeeds so the server can start without credentials;
	// the failure surfaces on the first call.
	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), UngroundedRequest("hello"))
	require.Error(t, err)

	genErr, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, KindAuthMissing, genErr.Kind)
}

// captureModel records the call options handed to the provider.
type captureModel struct {
	opts llms.CallOptions
}

func (m *captureModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, opt := range options {
		opt(&m.opts)
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "ok"}},
	}, nil
}

func (m *captureModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "ok", nil
}

func TestComplete_TemperatureZeroSurvives(t *testing.T) {
	model := &captureModel{}
	c := &Client{model: model, modelName: "stub", timeout: time.Second}

	req := UngroundedRequest("hello")
	_, err := c.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, DefaultTemperature, model.opts.Temperature, "nil temperature falls back to the default")

	zero := 0.0
	req.Temperature = &zero
	_, err = c.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, model.opts.Temperature, "explicit zero reaches the provider")
}

func TestNew_UnsupportedProvider(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLMProvider = "watson"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}

func TestGroundedRequest(t *testing.T) {
	req := GroundedRequest("What do mitochondria do?", []string{
		"mitochondria produce energy",
		"cells divide by mitosis",
	})

	assert.Equal(t, SystemGrounded, req.SystemMessage)
	assert.Equal(t, 1024, req.MaxTokens)

	assert.True(t, strings.HasPrefix(req.Prompt, "Context:\n"), "prompt starts with context block")
	assert.Contains(t, req.Prompt, "mitochondria produce energy\ncells divide by mitosis")
	assert.True(t, strings.HasSuffix(req.Prompt, "Question: What do mitochondria do?\nAnswer:"))
}

func TestUngroundedRequest(t *testing.T) {
	req := UngroundedRequest("Why is the sky blue?")

	assert.Equal(t, "Why is the sky blue?", req.Prompt)
	assert.Equal(t, SystemGeneral, req.SystemMessage)
	assert.Zero(t, req.MaxTokens)
}

func TestGenerationError_Unwrap(t *testing.T) {
	inner := context.DeadlineExceeded
	err := &GenerationError{Kind: KindTimeout, Err: inner}

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), string(KindTimeout))
}
