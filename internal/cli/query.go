package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/api"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/retrieval"
)

var (
	queryLimit     int
	queryThreshold float64
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Find the stored chunks most similar to a question",
	Long: `Embed the question and return the most similar chunks from the vector
store, best first. Chunks below the score threshold are left out.

Examples:
  ragpipe query "how do I write a Go HTTP server"
  ragpipe query "kubernetes operators" -n 10 --threshold 0.5`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	addQueryFlags(queryCmd)
	rootCmd.AddCommand(queryCmd)
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&queryLimit, "limit", "n", retrieval.DefaultLimit, "max results")
	cmd.Flags().Float64Var(&queryThreshold, "threshold", retrieval.DefaultScoreThreshold, "minimum cosine similarity")
	cmd.Flags().BoolVar(&queryJSON, "json", false, "print JSON")
}

// queryParams builds request parameters; the threshold is only sent when set.
func queryParams(cmd *cobra.Command, question string) api.QueryParams {
	p := api.QueryParams{Question: question, Limit: queryLimit}
	if cmd.Flags().Changed("threshold") {
		p.ScoreThreshold = retrieval.Threshold(queryThreshold)
	}
	return p
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	params := queryParams(cmd, args[0])

	results, err := search(ctx, params)
	if err != nil {
		return err
	}
	if queryJSON {
		return printJSON(api.QueryResponse{Question: params.Question, Results: results})
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	printResults(results)
	return nil
}

func search(ctx context.Context, params api.QueryParams) ([]models.SearchResult, error) {
	if c, ok := remote(); ok {
		resp, err := c.Query(ctx, params)
		if err != nil {
			return nil, err
		}
		return resp.Results, nil
	}
	r, err := services.Retriever(ctx)
	if err != nil {
		return nil, err
	}
	return r.Query(ctx, params.Question, retrieval.Options{Limit: params.Limit, ScoreThreshold: params.ScoreThreshold})
}

func printResults(results []models.SearchResult) {
	for i, r := range results {
		header := fmt.Sprintf("%d. [%s] %s / %s", i+1, r.ContentType, r.Metadata.Source, r.Metadata.DocID)
		fmt.Printf("%s %s\n", defaultTheme.statusStyle().Render(header), defaultTheme.hintStyle().Render(fmt.Sprintf("score %.3f", r.Score)))
		fmt.Printf("   %s\n\n", preview(r.Content, 200))
	}
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
