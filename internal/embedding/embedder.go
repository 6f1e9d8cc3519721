// Package embedding provides text embedding generation with local and remote backends.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
)

// Embedder defines the interface for text embedding providers.
// Implementations include a local Ollama model and the remote OpenAI API.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	// Failures are always *EmbedError.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	// Must match the vector collection dimension.
	Dimension() int
}

// ProviderType identifies the embedding provider.
type ProviderType string

const (
	// ProviderLocal runs all-minilm:l6-v2 on a local Ollama server.
	ProviderLocal ProviderType = "local"

	// ProviderRemote calls the OpenAI embeddings API.
	ProviderRemote ProviderType = "remote"
)

// Config holds configuration for creating an Embedder.
type Config struct {
	Provider ProviderType

	// Model is the provider-specific model name. Empty selects the provider default.
	Model string

	// Dimension is the required output dimension. 0 selects the provider default.
	Dimension int

	// Local only
	OllamaHost string

	// Remote only
	OpenAIAPIKey  string
	OpenAIBaseURL string
	// RequestsPerSecond throttles remote calls. 0 disables throttling.
	RequestsPerSecond float64

	Logger *slog.Logger
}

// New creates an Embedder based on the provided configuration.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewOllamaClient(cfg)
	case ProviderRemote:
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
