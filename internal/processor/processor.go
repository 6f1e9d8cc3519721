// Package processor turns raw chunk text into classified, embedded chunks.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/embedding"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// ContentClassifier assigns a content type to text.
type ContentClassifier interface {
	Classify(text string) models.ContentType
}

// EmbedObserver is notified about every embedding attempt.
type EmbedObserver interface {
	ObserveEmbedding(err error)
}

// Processor normalizes, classifies and embeds chunks.
type Processor struct {
	classifier ContentClassifier
	embedder   embedding.Embedder
	observer   EmbedObserver
	logger     *slog.Logger
}

// New creates a processor. observer may be nil.
func New(classifier ContentClassifier, embedder embedding.Embedder, observer EmbedObserver, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		classifier: classifier,
		embedder:   embedder,
		observer:   observer,
		logger:     logger,
	}
}

// Clean trims text and collapses every whitespace run to a single space.
func Clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Process builds a ProcessedChunk from content.
//
// Classification runs on the original text so indentation still counts;
// embedding runs on the cleaned text. A failed embedding leaves the chunk
// with an empty vector. Only an auth-fatal embedding error is returned.
func (p *Processor) Process(ctx context.Context, content string, metadata models.ChunkMetadata) (models.ProcessedChunk, error) {
	cleaned := Clean(content)
	contentType := p.classifier.Classify(content)

	vec, err := p.embedder.Embed(ctx, cleaned)
	if p.observer != nil {
		p.observer.ObserveEmbedding(err)
	}
	if err != nil {
		if embedding.IsAuthFatal(err) {
			return models.ProcessedChunk{}, fmt.Errorf("embed chunk of %s: %w", metadata.DocID, err)
		}
		p.logger.Warn("embedding failed, storing chunk without vector",
			"doc_id", metadata.DocID,
			"source", metadata.Source,
			"kind", embedding.KindOf(err).String(),
			"error", err,
		)
		vec = []float32{}
	}

	return models.ProcessedChunk{
		Content:     cleaned,
		ContentType: contentType,
		Metadata:    metadata,
		Embedding:   vec,
	}, nil
}
