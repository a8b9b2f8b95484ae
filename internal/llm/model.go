// Package llm wraps the text-generation service behind a small provider-neutral interface.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/closeout/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator performs a single generation call. Implementations do not retry,
// cache or rate-limit; every failure wraps ErrGeneration.
type Generator interface {
	Generate(ctx context.Context, modelID, prompt string) (*Response, error)
}

// Model implements Generator on top of a langchaingo model.
type Model struct {
	llm      llms.Model
	provider config.Provider
}

// Compile-time check that Model implements Generator.
var _ Generator = (*Model)(nil)

// NewModel creates a generation client for the configured provider.
// The model identifier is chosen per call, so one client serves both the
// summarization and the resolution model.
func NewModel(ctx context.Context, cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.ResolverModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.ResolverModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.ResolverModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if awsErr != nil {
			return nil, fmt.Errorf("load aws config: %w", awsErr)
		}
		model, err = bedrock.New(
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
			bedrock.WithModel(cfg.ResolverModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return NewModelFrom(model, cfg.LLMProvider), nil
}

// NewModelFrom wraps an existing langchaingo model.
func NewModelFrom(model llms.Model, provider config.Provider) *Model {
	return &Model{llm: model, provider: provider}
}

// Generate sends prompt to modelID as a single user message.
func (m *Model) Generate(ctx context.Context, modelID, prompt string) (*Response, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	slog.Debug("generating", "provider", m.provider, "model", modelID, "prompt_len", len(prompt))

	start := time.Now()
	resp, err := m.llm.GenerateContent(ctx, messages, llms.WithModel(modelID))
	duration := time.Since(start)

	if err != nil {
		slog.Warn("generation failed", "provider", m.provider, "model", modelID, "duration_ms", duration.Milliseconds(), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGeneration, wrapFatalError(err))
	}

	out := convertResponse(resp)
	slog.Debug("generation complete", "provider", m.provider, "model", modelID,
		"items", len(out.Output), "duration_ms", duration.Milliseconds())
	return out, nil
}

// convertResponse maps langchaingo choices onto output items. Text becomes a
// message item with an output_text block; tool and function calls become
// function_call items with no content.
func convertResponse(resp *llms.ContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}

	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		if len(choice.ToolCalls) > 0 || choice.FuncCall != nil {
			out.Output = append(out.Output, OutputItem{Type: ItemFunctionCall})
		}
		if choice.Content != "" {
			out.Output = append(out.Output, OutputItem{
				Type:    ItemMessage,
				Content: []ContentBlock{{Type: BlockOutputText, Text: choice.Content}},
			})
		}
		in, outTok := usageFrom(choice.GenerationInfo)
		out.Usage.InputTokens += in
		out.Usage.OutputTokens += outTok
	}

	return out
}

// usageFrom reads token counts from provider generation info. Providers disagree
// on key names, so both OpenAI and Anthropic spellings are checked.
func usageFrom(info map[string]any) (int64, int64) {
	if info == nil {
		return 0, 0
	}
	return firstInt(info, "PromptTokens", "InputTokens"), firstInt(info, "CompletionTokens", "OutputTokens")
}

func firstInt(info map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
