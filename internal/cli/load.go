package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loadRecreate bool
	loadWatch    bool
)

var loadCmd = &cobra.Command{
	Use:   "load [dir]",
	Short: "Load processed chunk files into the vector store",
	Long: `Read every processed JSON file in dir (default: the configured output
directory) and upsert its embedded chunks into the vector collection.
Chunk ids derive from content, so loading the same files twice overwrites
rather than duplicates.

Examples:
  ragpipe load
  ragpipe load ./processed_data --recreate
  ragpipe load --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&loadRecreate, "recreate", false, "drop and recreate the collection first")
	loadCmd.Flags().BoolVarP(&loadWatch, "watch", "w", false, "keep loading new files as they appear")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := cfg.OutputDir
	if len(args) == 1 {
		dir = args[0]
	}

	store, err := services.Store(ctx)
	if err != nil {
		return err
	}
	if loadRecreate {
		if err := store.Init(ctx, true); err != nil {
			return fmt.Errorf("recreate collection: %w", err)
		}
	}

	l, err := services.Loader(ctx)
	if err != nil {
		return err
	}
	res, err := l.Load(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d files: %d chunks, %d stored, %d skipped, %d unreadable files\n",
		res.Files, res.Chunks, res.Stored, res.Skipped, res.Failed)

	if !loadWatch {
		return nil
	}

	fmt.Println(defaultTheme.hintStyle().Render("Watching " + dir + " (Ctrl+C to stop)"))
	err = l.Watch(ctx, dir, func(path string, stored int, err error) {
		if err != nil {
			fmt.Println(defaultTheme.errorStyle().Render(fmt.Sprintf("✗ %s: %v", path, err)))
			return
		}
		fmt.Printf("%s %s (%d stored)\n", defaultTheme.completedStyle().Render("✓"), path, stored)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
