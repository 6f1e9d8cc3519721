// Package main provides the HTTP retrieval server for ragpipe.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/api"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/app"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/config"
)

const version = "0.1.0"

func main() {
	load := flag.Bool("load", false, "load processed files from the output directory before serving")
	watch := flag.Bool("watch", false, "keep loading processed files as they appear in the output directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg)
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	if err := run(cfg, logger, *load, *watch); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg config.Config, logger *slog.Logger, load, watch bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting ragpipe-server",
		"version", version,
		"addr", cfg.HTTPAddr,
		"vector_backend", cfg.VectorBackend,
		"collection", cfg.Collection,
	)

	services := app.New(cfg, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := services.Close(closeCtx); err != nil {
			logger.Error("failed to close services", "error", err)
		}
	}()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	retriever, err := services.Retriever(initCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("init retrieval: %w", err)
	}
	store, err := services.Store(ctx)
	if err != nil {
		return err
	}

	handler := api.NewHandler(retriever, store, services.Recorder)
	if sources, err := services.Sources(); err != nil {
		logger.Warn("ingest endpoints disabled", "error", err)
	} else if jobs, err := services.Jobs(); err != nil {
		logger.Warn("ingest endpoints disabled", "error", err)
	} else {
		handler = handler.WithJobs(jobs, sources)
	}

	ld, err := services.Loader(ctx)
	if err != nil {
		return err
	}
	if load {
		res, err := ld.Load(ctx, cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("initial load: %w", err)
		}
		logger.Info("initial load complete", "files", res.Files, "stored", res.Stored, "failed", res.Failed)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Serve(ctx, api.NewApp(handler, logger), cfg.HTTPAddr, logger)
	})
	if watch {
		g.Go(func() error {
			err := ld.Watch(ctx, cfg.OutputDir, func(path string, stored int, err error) {
				if err != nil {
					logger.Warn("load failed", "path", path, "error", err)
					return
				}
				logger.Info("loaded file", "path", path, "stored", stored)
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}
