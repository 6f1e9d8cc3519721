// Package pipeline drives ingestion: it pulls unprocessed documents from each source,
// splits, classifies and embeds them, writes one processed file per document and marks
// the document done.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/embedding"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/source"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/splitter"
)

// Defaults for Options.
const (
	DefaultBatchSize             = 10
	DefaultMaxDocumentsPerSource = 100
	DefaultOutputDir             = "processed_data"
)

// Options tunes a run.
type Options struct {
	BatchSize             int
	MaxChunkSize          int
	MaxDocumentsPerSource int
	OutputDir             string

	// OnProgress, when set, is called as each source starts and after every document.
	// It runs on the pipeline goroutine and must not block.
	OnProgress func(Progress)
}

// Progress reports how far the run is through the current source.
type Progress struct {
	Source    string
	Done      int
	Total     int
	Processed int
	Errors    int
}

// DefaultOptions returns the standard run options.
func DefaultOptions() Options {
	return Options{
		BatchSize:             DefaultBatchSize,
		MaxChunkSize:          splitter.DefaultMaxChunkSize,
		MaxDocumentsPerSource: DefaultMaxDocumentsPerSource,
		OutputDir:             DefaultOutputDir,
	}
}

// ChunkProcessor turns chunk text into a processed chunk.
type ChunkProcessor interface {
	Process(ctx context.Context, content string, metadata models.ChunkMetadata) (models.ProcessedChunk, error)
}

// SourceReport summarizes one source of a run.
type SourceReport struct {
	Name          string   `json:"name"`
	Found         int      `json:"found"`
	Processed     int      `json:"processed"`
	Errors        int      `json:"errors"`
	DroppedChunks int      `json:"dropped_chunks"`
	Files         []string `json:"files"`
}

// Report summarizes a run.
type Report struct {
	RunID          string         `json:"run_id"`
	Sources        []SourceReport `json:"sources"`
	TotalProcessed int            `json:"total_processed"`
	TotalErrors    int            `json:"total_errors"`
}

// Orchestrator runs the ingestion pipeline over a list of sources, sequentially.
type Orchestrator struct {
	opener    source.Opener
	processor ChunkProcessor
	opts      Options
	logger    *slog.Logger
	recorder  *metrics.Recorder
	now       func() time.Time
}

// New creates an orchestrator. Zero-valued options fall back to the defaults;
// a negative MaxChunkSize disables splitting. recorder may be nil.
func New(opener source.Opener, processor ChunkProcessor, opts Options, logger *slog.Logger, recorder *metrics.Recorder) *Orchestrator {
	def := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.MaxChunkSize == 0 {
		opts.MaxChunkSize = def.MaxChunkSize
	}
	if opts.MaxDocumentsPerSource <= 0 {
		opts.MaxDocumentsPerSource = def.MaxDocumentsPerSource
	}
	if opts.OutputDir == "" {
		opts.OutputDir = def.OutputDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		opener:    opener,
		processor: processor,
		opts:      opts,
		logger:    logger,
		recorder:  recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Options returns the effective options.
func (o *Orchestrator) Options() Options {
	return o.opts
}

// errAbort marks failures that must stop the whole run.
type errAbort struct{ err error }

func (e *errAbort) Error() string { return e.err.Error() }
func (e *errAbort) Unwrap() error { return e.err }

// Run processes every source in order. Per-document and per-source failures are
// logged and counted; an auth-fatal embedding error or a cancelled context stops
// the run and is returned together with the partial report.
func (o *Orchestrator) Run(ctx context.Context, sources []models.SourceConfig) (*Report, error) {
	return o.RunWithProgress(ctx, sources, o.opts.OnProgress)
}

// RunWithProgress is Run with a per-call progress callback in place of Options.OnProgress.
func (o *Orchestrator) RunWithProgress(ctx context.Context, sources []models.SourceConfig, onProgress func(Progress)) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Sources: []SourceReport{}}
	log := o.logger.With("run_id", report.RunID)
	log.Info("pipeline started", "sources", len(sources), "output_dir", o.opts.OutputDir)

	for _, src := range sources {
		sr, err := o.runSource(ctx, log, src, onProgress)
		report.Sources = append(report.Sources, sr)
		report.TotalProcessed += sr.Processed
		report.TotalErrors += sr.Errors

		var abort *errAbort
		if errors.As(err, &abort) {
			log.Error("pipeline aborted", "source", src.Name(), "error", abort.err)
			return report, abort.err
		}
	}

	log.Info("pipeline finished",
		"processed", report.TotalProcessed,
		"errors", report.TotalErrors,
	)
	return report, nil
}

func (o *Orchestrator) runSource(ctx context.Context, log *slog.Logger, src models.SourceConfig, onProgress func(Progress)) (SourceReport, error) {
	name := src.Name()
	sr := SourceReport{Name: name, Files: []string{}}
	log = log.With("source", name)

	if err := ctx.Err(); err != nil {
		return sr, &errAbort{err: err}
	}

	repo, err := o.opener.Open(ctx, src)
	if err != nil {
		log.Error("failed to open source", "error", err)
		sr.Errors++
		return sr, nil
	}
	defer func() {
		if err := repo.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to close source", "error", err)
		}
	}()

	docs, err := repo.FindUnprocessed(ctx, o.opts.MaxDocumentsPerSource)
	if err != nil {
		log.Error("failed to fetch documents", "error", err)
		sr.Errors++
		return sr, nil
	}
	sr.Found = len(docs)
	log.Info("processing source", "documents", len(docs))
	notify(onProgress, sr, 0)

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return sr, &errAbort{err: err}
		}

		start := time.Now()
		path, dropped, err := o.processDocument(ctx, repo, name, doc)
		o.recorder.ObserveDocument(name, time.Since(start), err)
		sr.DroppedChunks += dropped

		if err != nil {
			sr.Errors++
			log.Error("failed to process document", "doc_id", doc.ID, "error", err)
			var abort *errAbort
			if errors.As(err, &abort) {
				return sr, err
			}
		} else {
			sr.Processed++
			sr.Files = append(sr.Files, path)
		}
		notify(onProgress, sr, i+1)

		if (i+1)%o.opts.BatchSize == 0 || i+1 == len(docs) {
			log.Info("batch complete",
				"batch", i/o.opts.BatchSize+1,
				"done", i+1,
				"total", len(docs),
				"processed", sr.Processed,
				"errors", sr.Errors,
			)
		}
	}

	log.Info("source complete", "processed", sr.Processed, "errors", sr.Errors)
	return sr, nil
}

func notify(onProgress func(Progress), sr SourceReport, done int) {
	if onProgress != nil {
		onProgress(Progress{
			Source:    sr.Name,
			Done:      done,
			Total:     sr.Found,
			Processed: sr.Processed,
			Errors:    sr.Errors,
		})
	}
}

// processDocument runs one document through split, process, write and mark.
// It returns the output path and the number of chunks that failed processing.
func (o *Orchestrator) processDocument(ctx context.Context, repo source.Repository, sourceName string, doc models.RawDocument) (string, int, error) {
	at := o.now()
	split := splitter.Split(doc, o.opts.MaxChunkSize)
	meta := models.ChunkMetadata{DocID: doc.ID, Source: sourceName, ProcessedAt: at}

	chunks := make([]models.ProcessedChunk, 0, len(split.Chunks))
	dropped := 0
	for i, c := range split.Chunks {
		pc, err := o.processor.Process(ctx, c.Content, meta)
		if err != nil {
			if embedding.IsAuthFatal(err) || ctx.Err() != nil {
				return "", dropped, &errAbort{err: err}
			}
			dropped++
			o.logger.Warn("dropping chunk", "source", sourceName, "doc_id", doc.ID, "chunk", i, "error", err)
			continue
		}
		chunks = append(chunks, pc)
	}

	file := models.NewProcessedDocumentFile(chunks)
	name := FileName(sourceName, doc.ID, at)
	path, err := writeFile(o.opts.OutputDir, name, file)
	if err != nil {
		return "", dropped, err
	}

	// The source records the bare file name; the output directory is deployment config.
	if err := repo.MarkProcessed(ctx, doc.ID, name); err != nil {
		// Unflagged documents are fetched again next run.
		if rmErr := os.Remove(path); rmErr != nil {
			o.logger.Warn("failed to remove orphaned output", "path", path, "error", rmErr)
		}
		return "", dropped, fmt.Errorf("mark %s processed: %w", doc.ID, err)
	}

	o.recorder.ObserveChunks(file.ContentTypeDistribution)
	return path, dropped, nil
}
