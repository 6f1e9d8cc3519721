package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/classifier"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/embedding"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/processor"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/source"
)

// stubEmbedder returns a fixed vector, or err for texts containing failOn.
type stubEmbedder struct {
	failOn string
	err    error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.failOn != "" && strings.Contains(text, s.failOn) {
		return nil, s.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}
func (s *stubEmbedder) Model() string  { return "stub" }
func (s *stubEmbedder) Dimension() int { return 3 }

// mapOpener serves repositories by source name.
type mapOpener map[string]source.Repository

func (m mapOpener) Open(_ context.Context, cfg models.SourceConfig) (source.Repository, error) {
	repo, ok := m[cfg.Name()]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return repo, nil
}

// failingMark fails MarkProcessed for one document id.
type failingMark struct {
	source.Repository
	id string
}

func (f failingMark) MarkProcessed(ctx context.Context, id, file string) error {
	if id == f.id {
		return errors.New("write conflict")
	}
	return f.Repository.MarkProcessed(ctx, id, file)
}

var fixedTime = time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)

func newTestOrchestrator(t *testing.T, opener source.Opener, emb embedding.Embedder, opts Options) *Orchestrator {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	p := processor.New(classifier.New(nil), emb, nil, nil)
	o := New(opener, p, opts, nil, metrics.NewRecorder())
	o.now = func() time.Time { return fixedTime }
	return o
}

func githubSource() models.SourceConfig {
	return models.SourceConfig{StoreURI: "memory://", DBName: "github_scraper", CollectionName: "repositories", SourceName: "github"}
}

func seed(n int) *source.Memory {
	m := source.NewMemory()
	for i := range n {
		m.Add(models.RawDocument{
			ID:      "doc" + string(rune('a'+i)),
			Content: "func main() {\n    return nil\n}\nimport fmt",
		})
	}
	return m
}

func outputFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	return matches
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	repo := seed(3)
	o := newTestOrchestrator(t, mapOpener{"github": repo}, &stubEmbedder{}, Options{BatchSize: 2})

	report, err := o.Run(ctx, []models.SourceConfig{githubSource()})
	require.NoError(t, err)
	require.Len(t, report.Sources, 1)
	assert.NotEmpty(t, report.RunID)

	sr := report.Sources[0]
	assert.Equal(t, "github", sr.Name)
	assert.Equal(t, 3, sr.Found)
	assert.Equal(t, 3, sr.Processed)
	assert.Equal(t, 0, sr.Errors)
	assert.Equal(t, 3, report.TotalProcessed)

	files := outputFiles(t, o.Options().OutputDir)
	require.Len(t, files, 3)
	assert.Equal(t, "github_doca_20240315_103045.json", filepath.Base(sr.Files[0]))

	doc, ok := repo.Get("doca")
	require.True(t, ok)
	assert.True(t, doc.Processed)
	assert.Equal(t, "github_doca_20240315_103045.json", doc.ProcessedFile)

	data, err := os.ReadFile(sr.Files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"chunks\"", "output is indented")

	var file models.ProcessedDocumentFile
	require.NoError(t, json.Unmarshal(data, &file))
	require.Equal(t, 1, file.TotalChunks)
	assert.Equal(t, models.ContentCode, file.Chunks[0].ContentType)
	assert.Equal(t, "github", file.Chunks[0].Metadata.Source)
	assert.Equal(t, "doca", file.Chunks[0].Metadata.DocID)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, file.Chunks[0].Embedding)

	total := 0
	for _, n := range file.ContentTypeDistribution {
		total += n
	}
	assert.Equal(t, file.TotalChunks, total)
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := seed(2)
	o := newTestOrchestrator(t, mapOpener{"github": repo}, &stubEmbedder{}, Options{})

	_, err := o.Run(ctx, []models.SourceConfig{githubSource()})
	require.NoError(t, err)

	report, err := o.Run(ctx, []models.SourceConfig{githubSource()})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sources[0].Found)
	assert.Equal(t, 0, report.TotalProcessed)
	assert.Len(t, outputFiles(t, o.Options().OutputDir), 2)
}

func TestRunIsolatesDocumentErrors(t *testing.T) {
	ctx := context.Background()
	repo := failingMark{Repository: seed(4), id: "docb"}
	o := newTestOrchestrator(t, mapOpener{"github": repo}, &stubEmbedder{}, Options{})

	report, err := o.Run(ctx, []models.SourceConfig{githubSource()})
	require.NoError(t, err)

	sr := report.Sources[0]
	assert.Equal(t, 4, sr.Found)
	assert.Equal(t, 3, sr.Processed)
	assert.Equal(t, 1, sr.Errors)
	assert.Len(t, outputFiles(t, o.Options().OutputDir), 3)
}

func TestRunSplitsOversizedDocuments(t *testing.T) {
	ctx := context.Background()
	repo := source.NewMemory()
	repo.Add(models.RawDocument{ID: "big", Content: strings.Repeat("word ", 10)})
	o := newTestOrchestrator(t, mapOpener{"github": repo}, &stubEmbedder{}, Options{MaxChunkSize: 20})

	report, err := o.Run(ctx, []models.SourceConfig{githubSource()})
	require.NoError(t, err)

	data, err := os.ReadFile(report.Sources[0].Files[0])
	require.NoError(t, err)
	var file models.ProcessedDocumentFile
	require.NoError(t, json.Unmarshal(data, &file))
	assert.Equal(t, 3, file.TotalChunks)
}

func TestRunTransientEmbeddingFailureKeepsChunk(t *testing.T) {
	ctx := context.Background()
	repo := source.NewMemory()
	repo.Add(models.RawDocument{ID: "x", Chunks: []models.Chunk{{Content: "ok text"}, {Content: "bad text"}}})
	emb := &stubEmbedder{failOn: "bad", err: &embedding.EmbedError{Kind: embedding.KindTransient, Err: errors.New("503")}}
	o := newTestOrchestrator(t, mapOpener{"github": repo}, emb, Options{})

	report, err := o.Run(ctx, []models.SourceConfig{githubSource()})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalProcessed)

	data, err := os.ReadFile(report.Sources[0].Files[0])
	require.NoError(t, err)
	var file models.ProcessedDocumentFile
	require.NoError(t, json.Unmarshal(data, &file))
	require.Equal(t, 2, file.TotalChunks)
	assert.Len(t, file.Chunks[0].Embedding, 3)
	assert.Empty(t, file.Chunks[1].Embedding)
}

// flakyProcessor fails chunks containing failOn with err and classifies the rest as posts.
type flakyProcessor struct {
	failOn string
	err    error
}

func (f flakyProcessor) Process(_ context.Context, content string, meta models.ChunkMetadata) (models.ProcessedChunk, error) {
	if strings.Contains(content, f.failOn) {
		return models.ProcessedChunk{}, f.err
	}
	return models.ProcessedChunk{
		Content:     content,
		ContentType: models.ContentPost,
		Metadata:    meta,
		Embedding:   []float32{1, 0, 0},
	}, nil
}

func TestRunDropsFailedChunks(t *testing.T) {
	ctx := context.Background()
	repo := source.NewMemory()
	repo.Add(models.RawDocument{ID: "x", Chunks: []models.Chunk{
		{Content: "first chunk"},
		{Content: "broken chunk"},
		{Content: "third chunk"},
	}})
	o := New(mapOpener{"github": repo}, flakyProcessor{failOn: "broken", err: errors.New("classifier exploded")},
		Options{OutputDir: t.TempDir()}, nil, nil)
	o.now = func() time.Time { return fixedTime }

	report, err := o.Run(ctx, []models.SourceConfig{githubSource()})
	require.NoError(t, err)

	sr := report.Sources[0]
	assert.Equal(t, 1, sr.Processed)
	assert.Equal(t, 0, sr.Errors)
	assert.Equal(t, 1, sr.DroppedChunks)

	data, err := os.ReadFile(sr.Files[0])
	require.NoError(t, err)
	var file models.ProcessedDocumentFile
	require.NoError(t, json.Unmarshal(data, &file))
	require.Equal(t, 2, file.TotalChunks)
	assert.Equal(t, "first chunk", file.Chunks[0].Content)
	assert.Equal(t, "third chunk", file.Chunks[1].Content)

	total := 0
	for _, n := range file.ContentTypeDistribution {
		total += n
	}
	assert.Equal(t, file.TotalChunks, total)

	doc, ok := repo.Get("x")
	require.True(t, ok)
	assert.True(t, doc.Processed)
	assert.Equal(t, filepath.Base(sr.Files[0]), doc.ProcessedFile)
}

func TestRunAbortsOnAuthFailure(t *testing.T) {
	ctx := context.Background()
	github := seed(3)
	medium := seed(2)
	emb := &stubEmbedder{failOn: "func", err: &embedding.EmbedError{Kind: embedding.KindAuthFatal, Err: errors.New("401 invalid api key")}}
	o := newTestOrchestrator(t, mapOpener{"github": github, "medium": medium}, emb, Options{})

	mediumSrc := githubSource()
	mediumSrc.SourceName = "medium"

	report, err := o.Run(ctx, []models.SourceConfig{githubSource(), mediumSrc})
	require.Error(t, err)
	assert.True(t, embedding.IsAuthFatal(err))

	require.Len(t, report.Sources, 1, "later sources are not attempted")
	assert.Equal(t, 1, report.Sources[0].Errors)
	assert.Empty(t, outputFiles(t, o.Options().OutputDir))

	docs, err := github.FindUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestRunContinuesPastUnavailableSource(t *testing.T) {
	ctx := context.Background()
	medium := seed(1)
	o := newTestOrchestrator(t, mapOpener{"medium": medium}, &stubEmbedder{}, Options{})

	mediumSrc := githubSource()
	mediumSrc.SourceName = "medium"

	report, err := o.Run(ctx, []models.SourceConfig{githubSource(), mediumSrc})
	require.NoError(t, err)
	require.Len(t, report.Sources, 2)
	assert.Equal(t, 1, report.Sources[0].Errors)
	assert.Equal(t, 1, report.Sources[1].Processed)
	assert.Equal(t, 1, report.TotalErrors)
}

func TestRunRespectsDocumentLimit(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator(t, mapOpener{"github": seed(5)}, &stubEmbedder{}, Options{MaxDocumentsPerSource: 2})

	report, err := o.Run(ctx, []models.SourceConfig{githubSource()})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Sources[0].Found)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := newTestOrchestrator(t, mapOpener{"github": seed(1)}, &stubEmbedder{}, Options{})

	_, err := o.Run(ctx, []models.SourceConfig{githubSource()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunReportsProgress(t *testing.T) {
	repo := failingMark{Repository: seed(3), id: "docb"}
	var events []Progress
	o := newTestOrchestrator(t, mapOpener{"github": repo}, &stubEmbedder{}, Options{
		OnProgress: func(p Progress) { events = append(events, p) },
	})

	_, err := o.Run(context.Background(), []models.SourceConfig{githubSource()})
	require.NoError(t, err)

	require.Len(t, events, 4)
	assert.Equal(t, Progress{Source: "github", Done: 0, Total: 3}, events[0])
	assert.Equal(t, Progress{Source: "github", Done: 2, Total: 3, Processed: 1, Errors: 1}, events[2])
	assert.Equal(t, Progress{Source: "github", Done: 3, Total: 3, Processed: 2, Errors: 1}, events[3])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "github_abc_20240315_103045.json", FileName("github", "abc", fixedTime))
	assert.Equal(t, "github_owner_repo_20240315_103045.json", FileName("github", "owner/repo", fixedTime))
}
