package stages

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/inkforge/contentflow/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"
)

const (
	defaultOpenAIModel    = "gpt-4o"
	defaultAnthropicModel = "claude-3-5-haiku-latest"

	generationSystemPrompt = "You are an expert content writer. Produce original, " +
		"well-structured content that matches the requested tone, audience and format."
)

// LLMProvider generates content from a prompt. Implementations wrap a single
// upstream chat API.
type LLMProvider interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// NewLLMProvider selects a provider from settings. Credentials for the chosen
// provider are mandatory.
func NewLLMProvider(cfg *config.Settings) (LLMProvider, error) {
	switch cfg.LLM.Provider {
	case "openai", "":
		if cfg.LLM.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not configured")
		}
		return NewOpenAIProvider(cfg.LLM.OpenAIAPIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature), nil
	case "anthropic":
		if cfg.LLM.AnthropicAPIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is not configured")
		}
		return NewAnthropicProvider(cfg.LLM.AnthropicAPIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature), nil
	default:
		return nil, errors.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}

// OpenAIProvider generates content through the OpenAI chat completions API.
type OpenAIProvider struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
}

func NewOpenAIProvider(apiKey, model string, maxTokens int, temperature float64) *OpenAIProvider {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(p.maxTokens)),
		Temperature: openai.Float(p.temperature),
	}
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.Wrap(err, "openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// AnthropicProvider generates content through the Anthropic messages API.
type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
}

func NewAnthropicProvider(apiKey, model string, maxTokens int, temperature float64) *AnthropicProvider {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicProvider{
		client:      anthropic.NewClient(anthropicoption.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(p.temperature),
	})
	if err != nil {
		return "", errors.Wrap(err, "anthropic message")
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errors.New("anthropic returned no text content")
	}
	return out, nil
}
