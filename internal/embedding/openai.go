package embedding

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

const (
	// DefaultOpenAIModel is the default remote embedding model.
	DefaultOpenAIModel = "text-embedding-3-small"

	// DefaultOpenAIDimension matches the local model so both providers share a collection.
	DefaultOpenAIDimension = 384

	// openAIMaxTokens is the input limit of the OpenAI embedding models.
	openAIMaxTokens = 8191
)

// NewOpenAIClient creates an embedding client for the OpenAI embeddings API.
// A missing API key is an auth-fatal error: the provider refuses to initialize.
func NewOpenAIClient(cfg Config) (*Client, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, &EmbedError{
			Kind:  KindAuthFatal,
			Model: cfg.Model,
			Err:   fmt.Errorf("%w: OpenAI API key required", ErrAuthFatal),
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = DefaultOpenAIDimension
	}

	opts := []openai.Option{
		openai.WithToken(cfg.OpenAIAPIKey),
		openai.WithEmbeddingModel(model),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, classifyError(model, fmt.Errorf("create openai client: %w", err))
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}

	c := newClient(embedder, model, dimension, cfg.Logger)
	c.shorten = strings.HasPrefix(model, "text-embedding-3")
	c.prepare = newTokenTruncator(openAIMaxTokens, c.logger).Truncate
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c, nil
}
