package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"insightd/internal/config"
)

// Client wraps a langchaingo embedder behind the Embedder interface.
type Client struct {
	inner     *embeddings.EmbedderImpl
	model     string
	dimension int
}

var _ Embedder = (*Client)(nil)

// NewClient builds the embedding client for the configured provider.
// Ollama serves local models; openai covers any OpenAI-compatible endpoint.
func NewClient(cfg config.Config) (*Client, error) {
	var (
		producer embeddings.EmbedderClient
		err      error
	)

	switch cfg.EmbedProvider {
	case config.ProviderOllama:
		producer, err = ollama.New(
			ollama.WithModel(cfg.EmbedModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
	case config.ProviderOpenAI:
		producer, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithEmbeddingModel(cfg.EmbedModel),
		)
	default:
		return nil, fmt.Errorf("no embedding support for provider %q", cfg.EmbedProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("create embedding producer: %w", err)
	}

	inner, err := embeddings.NewEmbedder(producer)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return &Client{
		inner:     inner,
		model:     cfg.EmbedModel,
		dimension: cfg.EmbedDimension,
	}, nil
}

// Embed generates an embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if err := checkDimension(vec, c.dimension); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := c.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	for _, vec := range vecs {
		if err := checkDimension(vec, c.dimension); err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

// Model returns the embedding model name.
func (c *Client) Model() string { return c.model }

// Dimension returns the configured vector width.
func (c *Client) Dimension() int { return c.dimension }
