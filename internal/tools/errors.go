package tools

import (
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/embedding"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/retrieval"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/vectorstore"
)

// ErrorResult creates a tool error result with an optional recovery hint,
// formatted as "{msg}. {hint}". IsError lets the model see it and adjust.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// TextResult creates a success result with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// JSONResult marshals v as indented JSON text.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("Failed to encode result", "")
	}
	return TextResult(string(data))
}

// retrievalError turns a retrieval failure into a result the model can act on.
func retrievalError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, retrieval.ErrEmptyQuestion):
		return ErrorResult("Question cannot be empty", "Provide a question")
	case errors.Is(err, retrieval.ErrNoAnswerer):
		return ErrorResult("No language model configured", "Use the query tool instead")
	case errors.Is(err, vectorstore.ErrCollectionNotFound):
		return ErrorResult("Vector collection is not initialized", "Load processed data first")
	case embedding.IsAuthFatal(err):
		return ErrorResult("Embedding provider rejected the credentials", "Check the API key")
	}
	var embedErr *embedding.EmbedError
	if errors.As(err, &embedErr) {
		return ErrorResult("Failed to embed question", "Check the embedding provider")
	}
	return ErrorResult("Retrieval failed", "The vector store may be unavailable")
}
