package embedding

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	// DefaultOllamaModel is the embedding model that produces 384-dimensional vectors.
	DefaultOllamaModel = "all-minilm:l6-v2"

	// DefaultOllamaDimension is the dimension for all-minilm:l6-v2.
	DefaultOllamaDimension = 384

	// DefaultOllamaHost is used when no host is configured.
	DefaultOllamaHost = "http://localhost:11434"
)

// NewOllamaClient creates an embedding client backed by a local Ollama server.
// Empty model, dimension and host fall back to the defaults above.
func NewOllamaClient(cfg Config) (*Client, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}
	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = DefaultOllamaDimension
	}
	host := cfg.OllamaHost
	if host == "" {
		host = DefaultOllamaHost
	}

	llm, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}

	return newClient(embedder, model, dimension, cfg.Logger), nil
}
