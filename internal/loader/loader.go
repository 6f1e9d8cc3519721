// Package loader moves processed document files into the vector store.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// Upserter writes processed chunks to a vector collection.
type Upserter interface {
	Upsert(ctx context.Context, chunks []models.ProcessedChunk) (int, error)
}

// Result summarizes a load.
type Result struct {
	Files   int `json:"files"`
	Chunks  int `json:"chunks"`
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Loader reads processed files and upserts their chunks.
type Loader struct {
	store    Upserter
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// New creates a loader. recorder may be nil.
func New(store Upserter, recorder *metrics.Recorder, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, recorder: recorder, logger: logger}
}

// ReadFile decodes one processed document file.
func ReadFile(path string) (models.ProcessedDocumentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ProcessedDocumentFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	var file models.ProcessedDocumentFile
	if err := json.Unmarshal(data, &file); err != nil {
		return models.ProcessedDocumentFile{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return file, nil
}

// Load upserts every processed file in dir, in name order. Files that cannot be
// decoded are logged and counted; vector store errors stop the load.
func (l *Loader) Load(ctx context.Context, dir string) (Result, error) {
	var res Result

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return res, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if !isProcessedFile(path) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		chunks, stored, err := l.LoadFile(ctx, path)
		var decodeErr *decodeError
		switch {
		case errors.As(err, &decodeErr):
			l.logger.Warn("skipping unreadable file", "path", path, "error", err)
			res.Failed++
			continue
		case err != nil:
			return res, err
		}

		res.Files++
		res.Chunks += chunks
		res.Stored += stored
		res.Skipped += chunks - stored
	}

	l.logger.Info("load complete",
		"dir", dir,
		"files", res.Files,
		"stored", res.Stored,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return res, nil
}

// decodeError marks files that are unreadable rather than store failures.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// LoadFile upserts the chunks of one file and returns how many it held and how many were stored.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, int, error) {
	file, err := ReadFile(path)
	if err != nil {
		return 0, 0, &decodeError{err: err}
	}
	if len(file.Chunks) == 0 {
		return 0, 0, nil
	}

	start := time.Now()
	stored, err := l.store.Upsert(ctx, file.Chunks)
	l.recorder.ObserveUpsert(time.Since(start), stored)
	if err != nil {
		return len(file.Chunks), 0, fmt.Errorf("upsert %s: %w", filepath.Base(path), err)
	}

	l.logger.Debug("loaded file", "path", path, "chunks", len(file.Chunks), "stored", stored)
	return len(file.Chunks), stored, nil
}

// Watch loads processed files as they appear in dir until ctx is done.
// Per-file failures are logged and passed to onLoad, which may be nil.
func (l *Loader) Watch(ctx context.Context, dir string, onLoad func(path string, stored int, err error)) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	l.logger.Info("watching for processed files", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path, load := shouldLoad(event)
			if !load {
				continue
			}
			_, stored, err := l.LoadFile(ctx, path)
			if err != nil {
				l.logger.Warn("failed to load file", "path", path, "error", err)
			} else {
				l.logger.Info("loaded file", "path", path, "stored", stored)
			}
			if onLoad != nil {
				onLoad(path, stored, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("watcher error", "error", err)
		}
	}
}

// shouldLoad reports whether an event announces a complete processed file.
func shouldLoad(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	return event.Name, isProcessedFile(event.Name)
}

// isProcessedFile excludes the writer's temp files.
func isProcessedFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".json") && !strings.HasPrefix(base, ".")
}
