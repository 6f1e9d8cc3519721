package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/retrieval"
)

const maxLimit = 100

// QueryInput is the input schema shared by query and ask.
type QueryInput struct {
	Question       string   `json:"question" jsonschema:"The natural-language question"`
	Limit          int      `json:"limit,omitempty" jsonschema:"Max results 1-100, default 5"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty" jsonschema:"Minimum cosine similarity -1 to 1, default 0.7"`
}

func (in QueryInput) options() (retrieval.Options, *mcp.CallToolResult) {
	if in.Limit < 0 || in.Limit > maxLimit {
		return retrieval.Options{}, ErrorResult("Limit must be 1-100", "Reduce limit value")
	}
	if t := in.ScoreThreshold; t != nil && (*t < -1 || *t > 1) {
		return retrieval.Options{}, ErrorResult("score_threshold must be between -1 and 1", "")
	}
	return retrieval.Options{Limit: in.Limit, ScoreThreshold: in.ScoreThreshold}, nil
}

// QueryOutput is the query tool response.
type QueryOutput struct {
	Question string                `json:"question"`
	Count    int                   `json:"count"`
	Results  []models.SearchResult `json:"results"`
}

// NewQueryHandler returns the chunks most similar to a question.
func NewQueryHandler(deps *Dependencies) mcp.ToolHandlerFor[QueryInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, any, error) {
		opts, bad := input.options()
		if bad != nil {
			return bad, nil, nil
		}

		results, err := deps.Retriever.Query(ctx, input.Question, opts)
		if err != nil {
			deps.logger().Error("query failed", "error", err)
			return retrievalError(err), nil, nil
		}
		if results == nil {
			results = []models.SearchResult{}
		}

		deps.logger().Info("query completed", "results", len(results))
		return JSONResult(QueryOutput{Question: input.Question, Count: len(results), Results: results}), nil, nil
	}
}

// NewAskHandler answers a question from retrieved chunks.
func NewAskHandler(deps *Dependencies) mcp.ToolHandlerFor[QueryInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, any, error) {
		opts, bad := input.options()
		if bad != nil {
			return bad, nil, nil
		}

		answer, err := deps.Retriever.Ask(ctx, input.Question, opts)
		if err != nil {
			deps.logger().Error("ask failed", "error", err)
			return retrievalError(err), nil, nil
		}
		return JSONResult(answer), nil, nil
	}
}
