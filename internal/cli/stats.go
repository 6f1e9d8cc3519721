package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/api"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"check"},
	Short:   "Show the vector collection size and server statistics",
	Long: `Show how many vectors the collection holds. With --server the server's
runtime timing statistics are included.

Examples:
  ragpipe stats
  ragpipe stats --server http://localhost:8080 --json`,
	Args:    cobra.NoArgs,
	RunE:    runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var resp api.StatsResponse
	if c, ok := remote(); ok {
		r, err := c.Stats(ctx)
		if err != nil {
			return err
		}
		resp = *r
	} else {
		store, err := services.Store(ctx)
		if err != nil {
			return err
		}
		n, err := store.Count(ctx)
		if err != nil {
			return err
		}
		resp.Vectors = &n
		resp.Runtime = services.Recorder.Snapshot()
	}

	if statsJSON {
		return printJSON(resp)
	}

	fmt.Printf("Collection: %s (%s)\n", cfg.Collection, cfg.VectorBackend)
	if resp.Vectors != nil {
		fmt.Printf("  Vectors: %d\n", *resp.Vectors)
	}
	if resp.Runtime.UptimeSeconds > 0 {
		fmt.Printf("  Uptime:  %.0fs\n", resp.Runtime.UptimeSeconds)
	}
	rt := resp.Runtime
	for _, op := range []struct {
		name string
		snap *metrics.OperationSnapshot
	}{
		{"document", rt.Document},
		{"embedding", rt.Embedding},
		{"vector upsert", rt.VectorUpsert},
		{"vector search", rt.VectorSearch},
		{"retrieval", rt.Retrieval},
		{"llm generate", rt.LLMGenerate},
	} {
		if op.snap == nil {
			continue
		}
		fmt.Printf("  %-14s %6d calls, %d failed, avg %.1fms\n", op.name, op.snap.Count, op.snap.Failed, op.snap.AvgTimeMs)
	}
	return nil
}
