// Package main provides the entry point for the ragpipe MCP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/app"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/config"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/server"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/tools"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr and the log file; stdout carries the protocol.
	logger, closeLog := config.SetupLogger(cfg)
	defer func() { _ = closeLog() }()

	logger.Info("ragpipe-mcp starting",
		"version", version,
		"vector_backend", cfg.VectorBackend,
		"embed_model", cfg.EmbedModel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services := app.New(cfg, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = services.Close(closeCtx)
	}()

	retriever, err := services.Retriever(ctx)
	if err != nil {
		logger.Error("failed to init retrieval", "error", err)
		os.Exit(1)
	}
	store, err := services.Store(ctx)
	if err != nil {
		logger.Error("failed to open vector store", "error", err)
		os.Exit(1)
	}

	deps := &tools.Dependencies{
		Retriever:  retriever,
		Counter:    store,
		Collection: cfg.Collection,
		Recorder:   services.Recorder,
		Logger:     logger,
	}
	if sources, err := services.Sources(); err != nil {
		logger.Warn("ingest tool disabled", "error", err)
	} else if orch, err := services.Pipeline(nil); err != nil {
		logger.Warn("ingest tool disabled", "error", err)
	} else {
		deps.Ingester = orch
		deps.Sources = sources
	}

	srv := server.New(version, logger)
	tools.RegisterAll(srv.MCPServer(), deps)
	logger.Info("server ready, awaiting connections")

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
