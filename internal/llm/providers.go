package llm

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"insightd/internal/config"
)

// Upstream issues one chat completion against a concrete model backend.
// The production implementation wraps langchaingo; tests substitute fakes.
type Upstream interface {
	Generate(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)
	Model() string
}

// langchainUpstream adapts a langchaingo model to the Upstream interface.
type langchainUpstream struct {
	llm       llms.Model
	modelName string
}

var _ Upstream = (*langchainUpstream)(nil)

// NewUpstream creates an Upstream for one model tier based on configuration.
func NewUpstream(ctx context.Context, tier config.TierConfig, cfg config.Config) (Upstream, error) {
	var model llms.Model
	var err error

	switch tier.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI-compatible API key required")
		}
		opts := []openai.Option{
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(tier.Model),
		}
		if tier.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(tier.BaseURL))
		}
		model, err = openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(tier.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(tier.Model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if awsErr != nil {
			return nil, fmt.Errorf("load aws config: %w", awsErr)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		model, err = bedrock.New(
			bedrock.WithClient(client),
			bedrock.WithModel(tier.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", tier.Provider)
	}

	return &langchainUpstream{llm: model, modelName: tier.Model}, nil
}

// Model returns the backend model identifier.
func (u *langchainUpstream) Model() string {
	return u.modelName
}

// Generate issues one chat completion.
func (u *langchainUpstream) Generate(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleSystem {
			role = llms.ChatMessageTypeSystem
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	opts := []llms.CallOption{llms.WithTemperature(temperature)}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}

	response, err := u.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", ErrNoChoices
	}
	return response.Choices[0].Content, nil
}
