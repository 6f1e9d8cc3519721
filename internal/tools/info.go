package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
)

// InfoInput takes no arguments.
type InfoInput struct{}

// InfoOutput describes the vector collection.
type InfoOutput struct {
	Collection string           `json:"collection"`
	Vectors    int              `json:"vectors"`
	Runtime    metrics.Snapshot `json:"runtime"`
}

// NewInfoHandler reports the vector count and runtime statistics.
func NewInfoHandler(deps *Dependencies) mcp.ToolHandlerFor[InfoInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ InfoInput) (*mcp.CallToolResult, any, error) {
		out := InfoOutput{Collection: deps.Collection, Runtime: deps.Recorder.Snapshot()}
		if deps.Counter != nil {
			n, err := deps.Counter.Count(ctx)
			if err != nil {
				deps.logger().Error("count failed", "error", err)
				return retrievalError(err), nil, nil
			}
			out.Vectors = n
		}
		return JSONResult(out), nil, nil
	}
}
