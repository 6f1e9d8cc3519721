package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importSource string

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Insert crawler records into a source collection",
	Long: `Insert a JSON array of crawler records into a configured source collection.
Each record needs an "id" or "_id". Records are stored unprocessed; a record
whose id already exists is replaced and will be processed again.

Examples:
  ragpipe import repos.json --source github
  ragpipe import articles.json --source medium`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importSource, "source", "s", "", "target source name (required)")
	_ = importCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode %s: expected a JSON array of objects: %w", args[0], err)
	}

	all, err := services.Sources()
	if err != nil {
		return err
	}
	sources, err := selectSources(all, []string{importSource})
	if err != nil {
		return err
	}

	repo, err := services.Dialer().Open(ctx, sources[0])
	if err != nil {
		return fmt.Errorf("open source %s: %w", importSource, err)
	}
	defer repo.Close(ctx)

	n, err := repo.Insert(ctx, records)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	fmt.Printf("Imported %d of %d records into %s\n", n, len(records), importSource)
	return nil
}
