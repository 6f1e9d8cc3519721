package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/pipeline"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/service"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status lipgloss.Color
	Accent lipgloss.Color
	Error  lipgloss.Color
	Hint   lipgloss.Color
}

var defaultTheme = Theme{
	Status: lipgloss.Color("#5FAFD7"), // light blue
	Accent: lipgloss.Color("#00D787"), // green
	Error:  lipgloss.Color("#FF005F"), // red
	Hint:   lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// jobGetter fetches job state, from a local manager or a server.
type jobGetter interface {
	GetJob(ctx context.Context, id string) (*service.JobView, error)
}

// localJobs adapts a JobManager to jobGetter.
type localJobs struct{ m *service.JobManager }

func (l localJobs) GetJob(_ context.Context, id string) (*service.JobView, error) {
	job, err := l.m.Get(id)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

type tickMsg time.Time

type jobUpdateMsg struct {
	job *service.JobView
	err error
}

// progressModel polls a job and renders its progress.
type progressModel struct {
	jobs     jobGetter
	interval time.Duration
	remote   bool
	jobID    string
	job      *service.JobView
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
	err      error
}

func newProgressModel(jobs jobGetter, job *service.JobView, interval time.Duration, remote bool) progressModel {
	return progressModel{
		jobs:     jobs,
		interval: interval,
		remote:   remote,
		jobID:    job.ID,
		job:      job,
		progress: progress.New(progress.WithDefaultBlend(), progress.WithWidth(40)),
		theme:    defaultTheme,
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.progress.Init())
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.fetchJob()

	case jobUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("fetch job status: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}
		m.job = msg.job
		if m.job.Status.Terminal() {
			m.done = true
			if m.job.Status == service.JobStatusFailed {
				m.err = fmt.Errorf("%s", m.job.Error)
			}
			return m, tea.Quit
		}
		return m, m.tick()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}
	if m.job == nil {
		return "Loading job status...\n"
	}

	var pct float64
	if m.job.Total > 0 {
		pct = float64(m.job.Done) / float64(m.job.Total)
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.job.Status))
	src := m.job.Source
	if src == "" {
		src = "starting"
	}
	counts := fmt.Sprintf("%s %d/%d docs (%d ok, %d failed)", src, m.job.Done, m.job.Total, m.job.Processed, m.job.Errors)

	hint := "Press Ctrl+C to cancel"
	if m.remote {
		hint = "Press Ctrl+C to continue in background"
	}
	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.ViewAs(pct), counts, m.theme.hintStyle().Render(hint))
}

func (m progressModel) finalView() string {
	if m.quitting {
		if m.remote {
			return m.theme.hintStyle().Render(fmt.Sprintf(
				"\nJob %s continues in background.\nUse 'ragpipe jobs %s --server ...' to check status.\n", m.jobID, m.jobID))
		}
		return m.theme.hintStyle().Render("\nCancelling...\n")
	}
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Ingest failed: %s\n", m.err))
	}
	if m.job != nil && m.job.Report != nil {
		return formatReport(m.theme, m.job.Report)
	}
	return m.theme.completedStyle().Render("✓ Completed\n")
}

func (m progressModel) fetchJob() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		job, err := m.jobs.GetJob(ctx, m.jobID)
		return jobUpdateMsg{job: job, err: err}
	}
}

func (m progressModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runJobProgress shows the progress UI until the job ends or the user quits.
// It returns quit=true when the user left before the job finished.
func runJobProgress(jobs jobGetter, job *service.JobView, interval time.Duration, remote bool) (quit bool, err error) {
	final, err := tea.NewProgram(newProgressModel(jobs, job, interval, remote)).Run()
	if err != nil {
		return false, fmt.Errorf("progress UI error: %w", err)
	}
	if m, ok := final.(progressModel); ok {
		if m.quitting {
			return true, nil
		}
		return false, m.err
	}
	return false, nil
}

// formatReport renders a pipeline report.
func formatReport(theme Theme, r *pipeline.Report) string {
	var b strings.Builder
	b.WriteString(theme.completedStyle().Render("✓ Completed"))
	fmt.Fprintf(&b, " run %s\n\n", r.RunID)
	fmt.Fprintf(&b, "  %-12s %6s %10s %7s %8s\n", "SOURCE", "FOUND", "PROCESSED", "ERRORS", "DROPPED")
	for _, s := range r.Sources {
		line := fmt.Sprintf("  %-12s %6d %10d %7d %8d", s.Name, s.Found, s.Processed, s.Errors, s.DroppedChunks)
		if s.Errors > 0 {
			line = theme.errorStyle().Render(line)
		}
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "\n  Total processed: %d\n  Total errors:    %d\n", r.TotalProcessed, r.TotalErrors)
	return b.String()
}
