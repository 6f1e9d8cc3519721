package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/pipeline"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/service"
)

// gatedRunner emits the scripted progress events, then blocks until release is closed.
type gatedRunner struct {
	events  []pipeline.Progress
	release chan struct{}
	report  *pipeline.Report
	err     error
	panics  bool
}

func (g *gatedRunner) RunWithProgress(ctx context.Context, _ []models.SourceConfig, onProgress func(pipeline.Progress)) (*pipeline.Report, error) {
	for _, e := range g.events {
		onProgress(e)
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return g.report, ctx.Err()
		}
	}
	if g.panics {
		panic("boom")
	}
	return g.report, g.err
}

var sources = []models.SourceConfig{
	{StoreURI: "memory://", DBName: "github_scraper", CollectionName: "repositories", SourceName: "github"},
	{StoreURI: "memory://", DBName: "medium_scraper", CollectionName: "repositories", SourceName: "medium"},
}

func waitFor(t *testing.T, m *service.JobManager, id string) service.JobView {
	t.Helper()
	var view service.JobView
	require.Eventually(t, func() bool {
		var err error
		view, err = m.Get(id)
		return err == nil && view.Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)
	return view
}

func TestJobManagerCompletes(t *testing.T) {
	runner := &gatedRunner{
		events: []pipeline.Progress{
			{Source: "github", Done: 0, Total: 2},
			{Source: "github", Done: 2, Total: 2, Processed: 2},
			{Source: "medium", Done: 0, Total: 3},
			{Source: "medium", Done: 1, Total: 3, Processed: 0, Errors: 1},
		},
		release: make(chan struct{}),
		report:  &pipeline.Report{RunID: "r1", TotalProcessed: 4, TotalErrors: 1},
	}
	m := service.NewJobManager(runner, nil)

	job, err := m.Start(sources)
	require.NoError(t, err)
	assert.Len(t, job.ID, 8)
	assert.Equal(t, []string{"github", "medium"}, job.Sources)

	require.Eventually(t, func() bool {
		v, _ := m.Get(job.ID)
		return v.Source == "medium" && v.Done == 1
	}, 2*time.Second, 5*time.Millisecond)

	running, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, service.JobStatusRunning, running.Status)
	assert.Equal(t, 3, running.Total)
	assert.Equal(t, 2, running.Processed)
	assert.Equal(t, 1, running.Errors)

	close(runner.release)
	done := waitFor(t, m, job.ID)
	assert.Equal(t, service.JobStatusCompleted, done.Status)
	assert.Equal(t, 4, done.Processed)
	require.NotNil(t, done.Report)
	assert.Equal(t, "r1", done.Report.RunID)
	assert.NotNil(t, done.CompletedAt)
}

func TestJobManagerRejectsConcurrentRuns(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{}), report: &pipeline.Report{}}
	m := service.NewJobManager(runner, nil)

	first, err := m.Start(sources)
	require.NoError(t, err)

	_, err = m.Start(sources)
	assert.ErrorIs(t, err, service.ErrJobRunning)

	close(runner.release)
	waitFor(t, m, first.ID)

	second, err := m.Start(sources)
	require.NoError(t, err)
	waitFor(t, m, second.ID)

	jobs := m.List()
	require.Len(t, jobs, 2)
	assert.False(t, jobs[0].StartedAt.Before(jobs[1].StartedAt))
}

func TestJobManagerReleasesOnlyFinishedJobs(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{}), report: &pipeline.Report{TotalProcessed: 1}}
	m := service.NewJobManager(runner, nil)

	first, err := m.Start(sources)
	require.NoError(t, err)
	close(runner.release)

	// The first Start that succeeds must already see the previous job finished.
	var second, prev service.JobView
	var prevErr error
	require.Eventually(t, func() bool {
		var err error
		second, err = m.Start(sources)
		if err != nil {
			return false
		}
		prev, prevErr = m.Get(first.ID)
		return true
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, prevErr)
	assert.Equal(t, service.JobStatusCompleted, prev.Status)
	assert.NotNil(t, prev.CompletedAt)
	waitFor(t, m, second.ID)
}

func TestJobManagerFailures(t *testing.T) {
	t.Run("runner error", func(t *testing.T) {
		m := service.NewJobManager(&gatedRunner{err: errors.New("auth failed")}, nil)
		job, err := m.Start(sources)
		require.NoError(t, err)
		v := waitFor(t, m, job.ID)
		assert.Equal(t, service.JobStatusFailed, v.Status)
		assert.Equal(t, "auth failed", v.Error)
	})

	t.Run("panic", func(t *testing.T) {
		m := service.NewJobManager(&gatedRunner{panics: true}, nil)
		job, err := m.Start(sources)
		require.NoError(t, err)
		v := waitFor(t, m, job.ID)
		assert.Equal(t, service.JobStatusFailed, v.Status)
		assert.Contains(t, v.Error, "internal panic")
	})

	t.Run("unknown id", func(t *testing.T) {
		m := service.NewJobManager(&gatedRunner{}, nil)
		_, err := m.Get("nope")
		assert.ErrorIs(t, err, service.ErrJobNotFound)
	})
}

func TestJobManagerShutdown(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{})}
	m := service.NewJobManager(runner, nil)

	job, err := m.Start(sources)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	v, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, service.JobStatusFailed, v.Status)
	assert.ErrorContains(t, errors.New(v.Error), "context canceled")

	_, err = m.Start(sources)
	assert.Error(t, err)
}
