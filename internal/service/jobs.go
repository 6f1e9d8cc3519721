// Package service runs ingestion jobs in the background and tracks their progress.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/pipeline"
)

// JobStatus represents the state of a background job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the job has finished.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

var (
	// ErrJobRunning is returned by Start while another ingest job is active.
	ErrJobRunning = errors.New("an ingest job is already running")

	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = errors.New("job not found")
)

// Runner runs the pipeline with a progress callback.
type Runner interface {
	RunWithProgress(ctx context.Context, sources []models.SourceConfig, onProgress func(pipeline.Progress)) (*pipeline.Report, error)
}

// JobView is a point-in-time copy of a job.
type JobView struct {
	ID          string           `json:"id"`
	Status      JobStatus        `json:"status"`
	Sources     []string         `json:"sources"`
	Source      string           `json:"source,omitempty"`
	Done        int              `json:"done"`
	Total       int              `json:"total"`
	Processed   int              `json:"processed"`
	Errors      int              `json:"errors"`
	Report      *pipeline.Report `json:"report,omitempty"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Job is a background pipeline run.
type Job struct {
	mu   sync.RWMutex
	view JobView

	// Counts of sources already finished, so Processed and Errors accumulate.
	base pipeline.Progress
	last pipeline.Progress
}

func (j *Job) snapshot() JobView {
	j.mu.RLock()
	defer j.mu.RUnlock()
	v := j.view
	v.Sources = slices.Clone(j.view.Sources)
	return v
}

func (j *Job) progress(p pipeline.Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if p.Done == 0 {
		j.base.Processed += j.last.Processed
		j.base.Errors += j.last.Errors
	}
	j.last = p
	j.view.Status = JobStatusRunning
	j.view.Source = p.Source
	j.view.Done = p.Done
	j.view.Total = p.Total
	j.view.Processed = j.base.Processed + p.Processed
	j.view.Errors = j.base.Errors + p.Errors
}

func (j *Job) finish(report *pipeline.Report, err error, at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.view.Report = report
	j.view.CompletedAt = &at
	if report != nil {
		j.view.Processed = report.TotalProcessed
		j.view.Errors = report.TotalErrors
	}
	if err != nil {
		j.view.Status = JobStatusFailed
		j.view.Error = err.Error()
		return
	}
	j.view.Status = JobStatusCompleted
}

// JobManager starts ingest jobs and keeps their state in memory.
// At most one job runs at a time, because concurrent runs over the same
// sources would process documents twice.
type JobManager struct {
	runner Runner
	logger *slog.Logger

	mu     sync.RWMutex
	jobs   map[string]*Job
	active string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJobManager creates a job manager backed by runner.
func NewJobManager(runner Runner, logger *slog.Logger) *JobManager {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobManager{
		runner: runner,
		logger: logger,
		jobs:   make(map[string]*Job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches a pipeline run over sources and returns immediately.
func (m *JobManager) Start(sources []models.SourceConfig) (JobView, error) {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	job := &Job{view: JobView{
		ID:        uuid.New().String()[:8],
		Status:    JobStatusPending,
		Sources:   names,
		StartedAt: time.Now().UTC(),
	}}

	m.mu.Lock()
	if m.active != "" {
		m.mu.Unlock()
		return JobView{}, fmt.Errorf("%w: %s", ErrJobRunning, m.active)
	}
	if err := m.ctx.Err(); err != nil {
		m.mu.Unlock()
		return JobView{}, fmt.Errorf("job manager stopped: %w", err)
	}
	m.jobs[job.view.ID] = job
	m.active = job.view.ID
	m.wg.Add(1)
	m.mu.Unlock()

	log := m.logger.With("job_id", job.view.ID)
	log.Info("job created", "sources", names)

	go func() {
		defer m.wg.Done()
		report, err := m.run(job, sources)

		// Finish and release together, so a job that no longer blocks Start
		// already reads as terminal.
		m.mu.Lock()
		job.finish(report, err, time.Now().UTC())
		m.active = ""
		m.mu.Unlock()

		if err != nil {
			log.Error("job failed", "error", err)
			return
		}
		log.Info("job completed", "processed", report.TotalProcessed, "errors", report.TotalErrors)
	}()

	return job.snapshot(), nil
}

func (m *JobManager) run(job *Job, sources []models.SourceConfig) (report *pipeline.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal panic: %v", r)
		}
	}()
	return m.runner.RunWithProgress(m.ctx, sources, job.progress)
}

// Get returns a snapshot of the job with id.
func (m *JobManager) Get(id string) (JobView, error) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return JobView{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job.snapshot(), nil
}

// List returns all jobs, most recent first.
func (m *JobManager) List() []JobView {
	m.mu.RLock()
	views := make([]JobView, 0, len(m.jobs))
	for _, job := range m.jobs {
		views = append(views, job.snapshot())
	}
	m.mu.RUnlock()

	slices.SortFunc(views, func(a, b JobView) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return views
}

// Shutdown cancels running jobs and waits for them to stop or for ctx to end.
func (m *JobManager) Shutdown(ctx context.Context) error {
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
