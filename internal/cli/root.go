// Package cli provides the ragpipe command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/app"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/client"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose     bool
	sourcesFile string
	serverURL   string

	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
	services *app.App
)

var rootCmd = &cobra.Command{
	Use:   "ragpipe",
	Short: "Ingest scraped content and answer questions over it",
	Long: `ragpipe turns scraped GitHub, Medium and LinkedIn documents into embedded,
classified chunks, loads them into a vector store and answers questions
by similarity search.

Typical flow:
  ragpipe ingest          # documents -> processed JSON files
  ragpipe load            # processed files -> vector store
  ragpipe query "..."     # nearest chunks
  ragpipe ask "..."       # answer synthesized from the nearest chunks`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if sourcesFile != "" {
			cfg.SourcesFile = sourcesFile
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, closeLog = config.SetupLogger(cfg)
		slog.SetDefault(logger)
		services = app.New(cfg, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if services != nil {
			if err := services.Close(context.WithoutCancel(cmd.Context())); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close services: %v\n", err)
			}
		}
		if closeLog != nil {
			_ = closeLog()
		}
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&sourcesFile, "sources", "", "sources file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "use a running ragpipe server instead of local services")
}

// remote returns a client when --server is set.
func remote() (*client.Client, bool) {
	if serverURL == "" {
		return nil, false
	}
	return client.New(serverURL), true
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
