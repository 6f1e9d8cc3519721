package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/embedding"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/pipeline"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/retrieval"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/tools"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/vectorstore"
)

type fakeRetriever struct {
	results []models.SearchResult
	err     error
	opts    retrieval.Options
}

func (f *fakeRetriever) Query(_ context.Context, _ string, opts retrieval.Options) ([]models.SearchResult, error) {
	f.opts = opts
	return f.results, f.err
}

func (f *fakeRetriever) Ask(_ context.Context, question string, opts retrieval.Options) (*retrieval.Answer, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &retrieval.Answer{Question: question, Answer: "because", Sources: f.results}, nil
}

type fakeIngester struct {
	got []models.SourceConfig
	err error
}

func (f *fakeIngester) Run(_ context.Context, sources []models.SourceConfig) (*pipeline.Report, error) {
	f.got = sources
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Report{RunID: "run-1", TotalProcessed: len(sources)}, nil
}

type fixedCounter int

func (c fixedCounter) Count(context.Context) (int, error) { return int(c), nil }

// connect serves deps over in-memory transports and returns a client session.
func connect(t *testing.T, deps *tools.Dependencies) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	server := mcp.NewServer(&mcp.Implementation{Name: "test-ragpipe", Version: "0.0.1-test"}, nil)
	tools.RegisterAll(server, deps)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	go func() { _ = server.Run(ctx, serverTransport) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be TextContent")
	return text.Text, result.IsError
}

var sources = []models.SourceConfig{
	{StoreURI: "memory://", DBName: "github_scraper", CollectionName: "repositories", SourceName: "github"},
	{StoreURI: "memory://", DBName: "medium_scraper", CollectionName: "repositories", SourceName: "medium"},
}

func TestListTools(t *testing.T) {
	t.Run("without ingester", func(t *testing.T) {
		session := connect(t, &tools.Dependencies{Retriever: &fakeRetriever{}})
		result, err := session.ListTools(context.Background(), nil)
		require.NoError(t, err)

		var names []string
		for _, tool := range result.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"query", "ask", "collection_info"}, names)
	})

	t.Run("with ingester", func(t *testing.T) {
		session := connect(t, &tools.Dependencies{Retriever: &fakeRetriever{}, Ingester: &fakeIngester{}, Sources: sources})
		result, err := session.ListTools(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, result.Tools, 4)
	})
}

func TestQueryTool(t *testing.T) {
	hit := models.SearchResult{Content: "go code", ContentType: models.ContentCode, Score: 0.91,
		Metadata: models.ChunkMetadata{DocID: "1", Source: "github"}}

	t.Run("returns results", func(t *testing.T) {
		f := &fakeRetriever{results: []models.SearchResult{hit}}
		session := connect(t, &tools.Dependencies{Retriever: f})

		text, isErr := call(t, session, "query", map[string]any{"question": "go?", "limit": 2, "score_threshold": 0.5})
		require.False(t, isErr, text)

		var out tools.QueryOutput
		require.NoError(t, json.Unmarshal([]byte(text), &out))
		assert.Equal(t, 1, out.Count)
		assert.Equal(t, "go code", out.Results[0].Content)
		assert.Equal(t, 2, f.opts.Limit)
		require.NotNil(t, f.opts.ScoreThreshold)
		assert.InDelta(t, 0.5, *f.opts.ScoreThreshold, 1e-9)
	})

	tests := []struct {
		name string
		err  error
		args map[string]any
		want string
	}{
		{name: "limit too large", args: map[string]any{"question": "q", "limit": 500}, want: "Limit must be 1-100"},
		{name: "threshold out of range", args: map[string]any{"question": "q", "score_threshold": 3}, want: "score_threshold"},
		{name: "empty question", err: retrieval.ErrEmptyQuestion, args: map[string]any{"question": ""}, want: "Question cannot be empty"},
		{name: "missing collection", err: vectorstore.ErrCollectionNotFound, args: map[string]any{"question": "q"}, want: "not initialized"},
		{name: "embedding failure", err: &embedding.EmbedError{Kind: embedding.KindTransient, Err: errors.New("timeout")},
			args: map[string]any{"question": "q"}, want: "Failed to embed question"},
		{name: "auth failure", err: &embedding.EmbedError{Kind: embedding.KindAuthFatal, Err: errors.New("401")},
			args: map[string]any{"question": "q"}, want: "rejected the credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := connect(t, &tools.Dependencies{Retriever: &fakeRetriever{err: tt.err}})
			text, isErr := call(t, session, "query", tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, tt.want)
		})
	}
}

func TestAskTool(t *testing.T) {
	t.Run("answers", func(t *testing.T) {
		session := connect(t, &tools.Dependencies{Retriever: &fakeRetriever{results: []models.SearchResult{{Content: "ctx"}}}})
		text, isErr := call(t, session, "ask", map[string]any{"question": "why?"})
		require.False(t, isErr, text)

		var answer retrieval.Answer
		require.NoError(t, json.Unmarshal([]byte(text), &answer))
		assert.Equal(t, "because", answer.Answer)
		assert.Len(t, answer.Sources, 1)
	})

	t.Run("no model", func(t *testing.T) {
		session := connect(t, &tools.Dependencies{Retriever: &fakeRetriever{err: retrieval.ErrNoAnswerer}})
		text, isErr := call(t, session, "ask", map[string]any{"question": "why?"})
		assert.True(t, isErr)
		assert.Contains(t, text, "No language model configured")
	})
}

func TestCollectionInfoTool(t *testing.T) {
	rec := metrics.NewRecorder()
	rec.ObserveSearch(time.Millisecond)
	session := connect(t, &tools.Dependencies{
		Retriever:  &fakeRetriever{},
		Counter:    fixedCounter(7),
		Collection: "content_vectors",
		Recorder:   rec,
	})

	text, isErr := call(t, session, "collection_info", map[string]any{})
	require.False(t, isErr, text)

	var out tools.InfoOutput
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, "content_vectors", out.Collection)
	assert.Equal(t, 7, out.Vectors)
	require.NotNil(t, out.Runtime.VectorSearch)
	assert.Equal(t, int64(1), out.Runtime.VectorSearch.Count)
}

func TestIngestTool(t *testing.T) {
	t.Run("all sources", func(t *testing.T) {
		ing := &fakeIngester{}
		session := connect(t, &tools.Dependencies{Retriever: &fakeRetriever{}, Ingester: ing, Sources: sources})

		text, isErr := call(t, session, "ingest", map[string]any{})
		require.False(t, isErr, text)
		assert.Len(t, ing.got, 2)

		var report pipeline.Report
		require.NoError(t, json.Unmarshal([]byte(text), &report))
		assert.Equal(t, "run-1", report.RunID)
	})

	t.Run("selected source", func(t *testing.T) {
		ing := &fakeIngester{}
		session := connect(t, &tools.Dependencies{Retriever: &fakeRetriever{}, Ingester: ing, Sources: sources})

		_, isErr := call(t, session, "ingest", map[string]any{"sources": []string{"medium"}})
		require.False(t, isErr)
		require.Len(t, ing.got, 1)
		assert.Equal(t, "medium", ing.got[0].Name())
	})

	t.Run("unknown source", func(t *testing.T) {
		session := connect(t, &tools.Dependencies{Retriever: &fakeRetriever{}, Ingester: &fakeIngester{}, Sources: sources})
		text, isErr := call(t, session, "ingest", map[string]any{"sources": []string{"twitter"}})
		assert.True(t, isErr)
		assert.Contains(t, text, "No configured source matches")
	})

	t.Run("abort", func(t *testing.T) {
		ing := &fakeIngester{err: &embedding.EmbedError{Kind: embedding.KindAuthFatal, Err: errors.New("401")}}
		session := connect(t, &tools.Dependencies{Retriever: &fakeRetriever{}, Ingester: ing, Sources: sources})
		text, isErr := call(t, session, "ingest", map[string]any{})
		assert.True(t, isErr)
		assert.Contains(t, text, "rejected the credentials")
	})
}
