package api

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
)

// NewApp builds the fiber app with all routes registered.
func NewApp(h *Handler, logger *slog.Logger) *fiber.App {
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "ragpipe",
		ErrorHandler:          NewErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(observe(h.recorder))

	var (
		check = app.Group("/check")
		apiv1 = app.Group("/api/v1")
	)
	check.Get("/healthy", h.HandleHealthy)
	apiv1.Post("/query", h.HandleQuery)
	apiv1.Get("/stats", h.HandleStats)
	app.Post("/ask", h.HandleAsk)

	if h.jobs != nil {
		apiv1.Post("/ingest", h.HandleIngest)
		apiv1.Get("/jobs", h.HandleListJobs)
		apiv1.Get("/jobs/:id", h.HandleGetJob)
	}

	if h.recorder != nil && h.recorder.Prometheus != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.recorder.Prometheus.Handler()))
	}
	return app
}

// observe records request counts and latency by route.
func observe(rec *metrics.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler runs after this returns.
			status = statusOf(err)
		}
		rec.ObserveHTTP(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start))
		return err
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, app *fiber.App, addr string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("http server shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}
