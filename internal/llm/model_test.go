package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/raphaelgruber/closeout/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestIsFatalAPIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("connection reset"), false},
		{"credit balance", errors.New("insufficient credit balance"), true},
		{"rate limit", errors.New("rate limit exceeded"), true},
		{"quota exceeded", errors.New("quota exceeded for model"), true},
		{"billing issue", errors.New("billing account inactive"), true},
		{"invalid api key", errors.New("invalid api key"), true},
		{"authentication failed", errors.New("authentication failed"), true},
		{"unauthorized", errors.New("unauthorized request"), true},
		{"401 status", errors.New("HTTP 401: not allowed"), true},
		{"403 status", errors.New("HTTP 403: forbidden"), true},
		{"wrapped error", fmt.Errorf("embed: %w", errors.New("credit balance too low")), true},
		{"404 not fatal", errors.New("HTTP 404: not found"), false},
		{"timeout not fatal", errors.New("context deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isFatalAPIError(tt.err)
			if got != tt.fatal {
				t.Errorf("isFatalAPIError(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
		})
	}
}

func TestWrapFatalError(t *testing.T) {
	t.Run("wraps fatal error", func(t *testing.T) {
		err := errors.New("invalid api key provided")
		wrapped := wrapFatalError(err)
		if !errors.Is(wrapped, ErrFatalAPI) {
			t.Errorf("expected wrapped error to match ErrFatalAPI")
		}
	})

	t.Run("passes through non-fatal error", func(t *testing.T) {
		err := errors.New("network timeout")
		result := wrapFatalError(err)
		if errors.Is(result, ErrFatalAPI) {
			t.Errorf("non-fatal error should not be wrapped with ErrFatalAPI")
		}
		if result != err {
			t.Errorf("expected original error returned, got %v", result)
		}
	})

	t.Run("nil error", func(t *testing.T) {
		result := wrapFatalError(nil)
		if result != nil {
			t.Errorf("expected nil, got %v", result)
		}
	})
}

type fakeLLM struct {
	resp      *llms.ContentResponse
	err       error
	gotModel  string
	gotPrompt string
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	f.gotModel = opts.Model
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if tc, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.gotPrompt = tc.Text
		}
	}
	return f.resp, f.err
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestModelGenerate(t *testing.T) {
	fake := &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        `{"date":"2026-01-20"}`,
		GenerationInfo: map[string]any{"PromptTokens": 120, "CompletionTokens": 14},
	}}}}
	m := NewModelFrom(fake, config.ProviderOpenAI)

	resp, err := m.Generate(context.Background(), "gpt-5-mini", "resuelve")
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-mini", fake.gotModel)
	assert.Equal(t, "resuelve", fake.gotPrompt)
	assert.Equal(t, `{"date":"2026-01-20"}`, ExtractText(resp))
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 14}, resp.Usage)
}

func TestModelGenerateError(t *testing.T) {
	m := NewModelFrom(&fakeLLM{err: errors.New("HTTP 401: invalid api key")}, config.ProviderOpenAI)

	_, err := m.Generate(context.Background(), "gpt-5-mini", "hola")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, ErrFatalAPI)
}

func TestModelGenerateTransientError(t *testing.T) {
	m := NewModelFrom(&fakeLLM{err: errors.New("connection reset")}, config.ProviderOpenAI)

	_, err := m.Generate(context.Background(), "gpt-5-nano", "hola")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.NotErrorIs(t, err, ErrFatalAPI)
}

func TestConvertResponse(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Empty(t, convertResponse(nil).Output)
	})

	t.Run("tool call before text", func(t *testing.T) {
		resp := convertResponse(&llms.ContentResponse{Choices: []*llms.ContentChoice{
			{ToolCalls: []llms.ToolCall{{ID: "call_1"}}},
			nil,
			{Content: "texto", GenerationInfo: map[string]any{"InputTokens": 3, "OutputTokens": 2}},
		}})
		require.Len(t, resp.Output, 2)
		assert.Equal(t, ItemFunctionCall, resp.Output[0].Type)
		assert.Empty(t, resp.Output[0].Content)
		assert.Equal(t, "texto", ExtractText(resp))
		assert.Equal(t, Usage{InputTokens: 3, OutputTokens: 2}, resp.Usage)
	})

	t.Run("empty content has no message item", func(t *testing.T) {
		resp := convertResponse(&llms.ContentResponse{Choices: []*llms.ContentChoice{{StopReason: "length"}}})
		assert.Empty(t, resp.Output)
		assert.Equal(t, "", ExtractText(resp))
	})
}

func TestNewModelMissingKey(t *testing.T) {
	_, err := NewModel(context.Background(), config.Config{LLMProvider: config.ProviderOpenAI})
	assert.Error(t, err)

	_, err = NewModel(context.Background(), config.Config{LLMProvider: config.ProviderAnthropic})
	assert.Error(t, err)

	_, err = NewModel(context.Background(), config.Config{LLMProvider: "cohere"})
	assert.Error(t, err)
}
