package tools

import (
	"context"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/embedding"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// IngestInput selects the sources to process.
type IngestInput struct {
	Sources []string `json:"sources,omitempty" jsonschema:"Source names to process, default all configured sources"`
}

// NewIngestHandler runs the ingestion pipeline over the configured sources.
func NewIngestHandler(deps *Dependencies) mcp.ToolHandlerFor[IngestInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, any, error) {
		sources := deps.Sources
		if len(input.Sources) > 0 {
			sources = nil
			for _, src := range deps.Sources {
				if slices.Contains(input.Sources, src.Name()) {
					sources = append(sources, src)
				}
			}
			if len(sources) == 0 {
				return ErrorResult("No configured source matches", "Call collection_info or omit sources"), nil, nil
			}
		}

		report, err := deps.Ingester.Run(ctx, sources)
		if err != nil {
			deps.logger().Error("ingest failed", "error", err)
			if embedding.IsAuthFatal(err) {
				return ErrorResult("Embedding provider rejected the credentials", "Check the API key"), nil, nil
			}
			return ErrorResult("Ingestion aborted: "+err.Error(), ""), nil, nil
		}
		return JSONResult(report), nil, nil
	}
}

func sourceNames(sources []models.SourceConfig) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	return names
}
