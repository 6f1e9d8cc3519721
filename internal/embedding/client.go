package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"golang.org/x/time/rate"
)

// Client wraps a langchaingo embedder with dimension validation and error classification.
type Client struct {
	model     embeddings.Embedder
	modelName string
	dimension int
	logger    *slog.Logger

	// limiter throttles requests when set.
	limiter *rate.Limiter
	// prepare rewrites input before it is sent, e.g. to fit a token budget.
	prepare func(string) string
	// shorten allows truncating longer vectors to dimension and re-normalizing.
	shorten bool
}

// Compile-time check that Client implements Embedder.
var _ Embedder = (*Client)(nil)

func newClient(model embeddings.Embedder, modelName string, dimension int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		model:     model,
		modelName: modelName,
		dimension: dimension,
		logger:    logger,
	}
}

// Model returns the configured embedding model name.
func (c *Client) Model() string {
	return c.modelName
}

// Dimension returns the expected embedding dimension.
func (c *Client) Dimension() int {
	return c.dimension
}

// Embed generates an embedding vector for text.
// Returns exactly Dimension() floats or an *EmbedError.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EmbedError{Kind: KindEmpty, Model: c.modelName, Err: fmt.Errorf("%w: blank input", ErrEmpty)}
	}
	if c.prepare != nil {
		text = c.prepare(text)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &EmbedError{Kind: KindTransient, Model: c.modelName, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	textLen := len(text)
	c.logger.Debug("embedding text", "model", c.modelName, "text_len", textLen)

	start := time.Now()
	vectors, err := c.model.EmbedDocuments(ctx, []string{text})
	duration := time.Since(start)

	if err != nil {
		c.logger.Warn("embedding failed", "model", c.modelName, "text_len", textLen, "duration_ms", duration.Milliseconds(), "error", err)
		return nil, classifyError(c.modelName, err)
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, &EmbedError{Kind: KindEmpty, Model: c.modelName, Err: ErrEmpty}
	}

	vec := vectors[0]
	if len(vec) > c.dimension && c.shorten {
		vec = shortenVector(vec, c.dimension)
	}
	if len(vec) != c.dimension {
		return nil, &EmbedError{
			Kind:  KindTransient,
			Model: c.modelName,
			Err:   fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), c.dimension),
		}
	}

	c.logger.Debug("embedding complete", "model", c.modelName, "text_len", textLen, "duration_ms", duration.Milliseconds())
	return vec, nil
}

// shortenVector keeps the first n components and rescales to unit length.
// text-embedding-3 models are trained so that a prefix is itself a usable embedding.
func shortenVector(v []float32, n int) []float32 {
	out := make([]float32, n)
	copy(out, v[:n])

	var norm float64
	for _, x := range out {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return out
	}
	scale := 1 / math.Sqrt(norm)
	for i := range out {
		out[i] = float32(float64(out[i]) * scale)
	}
	return out
}
