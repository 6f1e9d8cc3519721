package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/pipeline"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/service"
)

var (
	ingestSources   []string
	ingestMaxDocs   int
	ingestBatchSize int
	ingestOutput    string
	ingestJSON      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Process unprocessed documents into embedded chunk files",
	Long: `Fetch unprocessed documents from each configured source, split, classify
and embed them, and write one JSON file per document to the output directory.
Processed documents are flagged so the next run skips them.

With --server the run happens as a background job on the server.

Examples:
  ragpipe ingest
  ragpipe ingest --source github --max-docs 20
  ragpipe ingest --sources sources.yaml --output ./out
  ragpipe ingest --server http://localhost:8080`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSliceVarP(&ingestSources, "source", "s", nil, "only these source names")
	ingestCmd.Flags().IntVarP(&ingestMaxDocs, "max-docs", "n", 0, "max documents per source (default from config)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "documents per progress batch (default from config)")
	ingestCmd.Flags().StringVarP(&ingestOutput, "output", "o", "", "output directory (default from config)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "print the run report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if c, ok := remote(); ok {
		job, err := c.StartIngest(ctx, ingestSources...)
		if err != nil {
			return fmt.Errorf("start ingest: %w", err)
		}
		if !isTerminal() || ingestJSON {
			fmt.Printf("Started job %s\n", job.ID)
			return nil
		}
		_, err = runJobProgress(c, job, time.Second, true)
		return err
	}

	all, err := services.Sources()
	if err != nil {
		return err
	}
	sources, err := selectSources(all, ingestSources)
	if err != nil {
		return err
	}

	opts := cfg.Pipeline()
	if ingestMaxDocs > 0 {
		opts.MaxDocumentsPerSource = ingestMaxDocs
	}
	if ingestBatchSize > 0 {
		opts.BatchSize = ingestBatchSize
	}
	if ingestOutput != "" {
		opts.OutputDir = ingestOutput
	}
	orch, err := services.Pipeline(&opts)
	if err != nil {
		return err
	}

	if !isTerminal() || ingestJSON {
		report, err := orch.Run(ctx, sources)
		if report != nil {
			printReport(report)
		}
		return err
	}
	return ingestWithProgress(ctx, orch, sources)
}

// ingestWithProgress runs the pipeline as a local job and shows the progress UI.
func ingestWithProgress(ctx context.Context, orch *pipeline.Orchestrator, sources []models.SourceConfig) error {
	jobs := service.NewJobManager(orch, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		_ = jobs.Shutdown(shutdownCtx)
	}()

	job, err := jobs.Start(sources)
	if err != nil {
		return err
	}
	quit, err := runJobProgress(localJobs{jobs}, &job, 200*time.Millisecond, false)
	if quit {
		return errors.New("ingest cancelled")
	}
	return err
}

func printReport(report *pipeline.Report) {
	if ingestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
		return
	}
	fmt.Print(formatReport(defaultTheme, report))
}

// selectSources filters sources by name. No names selects all.
func selectSources(all []models.SourceConfig, names []string) ([]models.SourceConfig, error) {
	if len(names) == 0 {
		return all, nil
	}
	var out []models.SourceConfig
	for _, name := range names {
		i := slices.IndexFunc(all, func(s models.SourceConfig) bool { return s.Name() == name })
		if i < 0 {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		out = append(out, all[i])
	}
	return out, nil
}
