package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources and their pending documents",
	Long: `List the configured source collections with the number of documents
still waiting to be processed.

Examples:
  ragpipe sources
  ragpipe sources --sources sources.toml`,
	Args: cobra.NoArgs,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	all, err := services.Sources()
	if err != nil {
		return err
	}

	fmt.Printf("%-12s %-10s %-36s %s\n", "NAME", "PENDING", "COLLECTION", "STORE")
	fmt.Println("--------------------------------------------------------------------------------")
	for _, src := range all {
		pending := "?"
		repo, err := services.Dialer().Open(ctx, src)
		if err != nil {
			logger.Warn("failed to open source", "source", src.Name(), "error", err)
		} else {
			docs, err := repo.FindUnprocessed(ctx, 0)
			if err == nil {
				pending = fmt.Sprint(len(docs))
			}
			_ = repo.Close(ctx)
		}
		fmt.Printf("%-12s %-10s %-36s %s\n", src.Name(), pending, src.DBName+"."+src.CollectionName, src.StoreURI)
	}
	return nil
}
