// Package app wires configuration into the services used by the binaries.
// Components are created on first use, so commands only connect to what they need.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/classifier"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/config"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/embedding"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/llm"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/loader"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/pipeline"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/processor"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/retrieval"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/service"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/source"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/vectorstore"
)

// App holds the configuration and the lazily built components.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Recorder *metrics.Recorder

	mu        sync.Mutex
	embedder  embedding.Embedder
	store     vectorstore.Store
	model     *llm.Model
	modelErr  error
	pipeline  *pipeline.Orchestrator
	jobs      *service.JobManager
	dialer    *source.Dialer
	retriever *retrieval.Service
}

// New creates an App. Nothing is connected yet.
func New(cfg config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{Config: cfg, Logger: logger, Recorder: metrics.NewRecorder()}
}

// Sources returns the configured source collections.
func (a *App) Sources() ([]models.SourceConfig, error) {
	return a.Config.Sources()
}

// Embedder returns the instrumented embedder.
func (a *App) Embedder() (embedding.Embedder, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.embedderLocked()
}

func (a *App) embedderLocked() (embedding.Embedder, error) {
	if a.embedder != nil {
		return a.embedder, nil
	}
	e, err := embedding.New(a.Config.Embedding(a.Logger))
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	a.Logger.Info("embedder initialized", "model", e.Model(), "dimension", e.Dimension())
	a.embedder = a.Recorder.InstrumentEmbedder(e)
	return a.embedder, nil
}

// Store opens the vector store and ensures its collection exists.
func (a *App) Store(ctx context.Context) (vectorstore.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.storeLocked(ctx)
}

func (a *App) storeLocked(ctx context.Context) (vectorstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := vectorstore.New(ctx, a.Config.VectorStore(a.Logger))
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	if err := s.Init(ctx, false); err != nil {
		_ = s.Close(ctx)
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	a.Logger.Info("vector store ready", "backend", a.Config.VectorBackend, "collection", a.Config.Collection)
	a.store = s
	return s, nil
}

// Model returns the chat model used for answers. A model that cannot be
// created is reported once and leaves Ask disabled.
func (a *App) Model() (*llm.Model, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.modelLocked()
}

func (a *App) modelLocked() (*llm.Model, error) {
	if a.model != nil || a.modelErr != nil {
		return a.model, a.modelErr
	}
	m, err := llm.NewModel(a.Config.LLM())
	if err != nil {
		a.modelErr = fmt.Errorf("init model: %w", err)
		return nil, a.modelErr
	}
	a.model = m.WithUsage(a.Recorder)
	return a.model, nil
}

// Retriever returns the retrieval service over the vector store.
func (a *App) Retriever(ctx context.Context) (*retrieval.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.retriever != nil {
		return a.retriever, nil
	}

	emb, err := a.embedderLocked()
	if err != nil {
		return nil, err
	}
	store, err := a.storeLocked(ctx)
	if err != nil {
		return nil, err
	}

	var answerer retrieval.Answerer
	if model, err := a.modelLocked(); err != nil {
		a.Logger.Warn("answer synthesis disabled", "error", err)
	} else {
		answerer = model
	}

	a.retriever = retrieval.NewService(emb, store, answerer, a.Recorder, a.Logger)
	return a.retriever, nil
}

// Dialer returns the opener for source repositories.
func (a *App) Dialer() *source.Dialer {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dialer == nil {
		a.dialer = source.NewDialer(a.Config.Surreal(), a.Logger)
	}
	return a.dialer
}

// Pipeline returns the ingestion orchestrator. opts overrides the configured
// pipeline options when non-nil.
func (a *App) Pipeline(opts *pipeline.Options) (*pipeline.Orchestrator, error) {
	dialer := a.Dialer()

	a.mu.Lock()
	defer a.mu.Unlock()
	if opts == nil && a.pipeline != nil {
		return a.pipeline, nil
	}

	emb, err := a.embedderLocked()
	if err != nil {
		return nil, err
	}
	proc := processor.New(classifier.New(nil), emb, a.Recorder, a.Logger)

	o := a.Config.Pipeline()
	if opts != nil {
		o = *opts
	}
	orch := pipeline.New(dialer, proc, o, a.Logger, a.Recorder)
	if opts == nil {
		a.pipeline = orch
	}
	return orch, nil
}

// Jobs returns the background job manager over the default pipeline.
func (a *App) Jobs() (*service.JobManager, error) {
	orch, err := a.Pipeline(nil)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.jobs == nil {
		a.jobs = service.NewJobManager(orch, a.Logger)
	}
	return a.jobs, nil
}

// Loader returns a loader writing into the vector store.
func (a *App) Loader(ctx context.Context) (*loader.Loader, error) {
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	return loader.New(store, a.Recorder, a.Logger), nil
}

// Close stops running jobs and releases the vector store connection.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.jobs != nil {
		errs = append(errs, a.jobs.Shutdown(ctx))
	}
	if a.store != nil {
		errs = append(errs, a.store.Close(ctx))
		a.store = nil
	}
	return errors.Join(errs...)
}
