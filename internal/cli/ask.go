package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/api"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/retrieval"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the stored content",
	Long: `Retrieve the chunks most similar to the question and have the configured
language model answer from them. When nothing clears the score threshold
the model is not called.

Examples:
  ragpipe ask "What has the author written about RAG pipelines?"
  ragpipe ask "Which repositories use Kafka?" -n 8 --threshold 0.6`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	addQueryFlags(askCmd)
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	answer, err := ask(ctx, queryParams(cmd, args[0]))
	if err != nil {
		return err
	}
	if queryJSON {
		return printJSON(answer)
	}

	fmt.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Println()
		fmt.Println(defaultTheme.hintStyle().Render(fmt.Sprintf("Sources (%d):", len(answer.Sources))))
		for i, s := range answer.Sources {
			fmt.Printf("  [%d] %s / %s (%s, %.2f)\n", i+1, s.Metadata.Source, s.Metadata.DocID, s.ContentType, s.Score)
		}
	}
	return nil
}

func ask(ctx context.Context, params api.QueryParams) (*retrieval.Answer, error) {
	if c, ok := remote(); ok {
		return c.Ask(ctx, params)
	}
	r, err := services.Retriever(ctx)
	if err != nil {
		return nil, err
	}
	return r.Ask(ctx, params.Question, retrieval.Options{Limit: params.Limit, ScoreThreshold: params.ScoreThreshold})
}
