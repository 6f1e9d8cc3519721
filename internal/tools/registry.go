package tools

import (
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers the tools with server. Call before Run.
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "query",
		Description: "Find the stored content chunks most similar to a question, ranked by cosine similarity",
	}, NewQueryHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using retrieved content chunks as context",
	}, NewAskHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "collection_info",
		Description: "Report the vector collection size and runtime statistics",
	}, NewInfoHandler(deps))

	if deps.Ingester != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name: "ingest",
			Description: "Process unprocessed documents into embedded chunk files. Sources: " +
				strings.Join(sourceNames(deps.Sources), ", "),
		}, NewIngestHandler(deps))
	}
}
