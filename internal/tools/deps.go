// Package tools provides the MCP tool handlers and their registration.
package tools

import (
	"context"
	"log/slog"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/pipeline"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/retrieval"
)

// Retriever answers questions from the vector store.
type Retriever interface {
	Query(ctx context.Context, question string, opts retrieval.Options) ([]models.SearchResult, error)
	Ask(ctx context.Context, question string, opts retrieval.Options) (*retrieval.Answer, error)
}

// Counter reports the number of stored vectors.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Ingester runs the ingestion pipeline over configured sources.
type Ingester interface {
	Run(ctx context.Context, sources []models.SourceConfig) (*pipeline.Report, error)
}

// Dependencies holds the services handlers close over.
// Ingester may be nil, in which case the ingest tool is not registered.
type Dependencies struct {
	Retriever  Retriever
	Counter    Counter
	Ingester   Ingester
	Sources    []models.SourceConfig
	Collection string
	Recorder   *metrics.Recorder
	Logger     *slog.Logger
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
