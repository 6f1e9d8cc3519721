package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/api"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/embedding"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/retrieval"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/vectorstore"
)

type fakeRetriever struct {
	results []models.SearchResult
	err     error
	opts    retrieval.Options
}

func (f *fakeRetriever) Query(_ context.Context, question string, opts retrieval.Options) ([]models.SearchResult, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	if question == "   " {
		return nil, retrieval.ErrEmptyQuestion
	}
	return f.results, nil
}

func (f *fakeRetriever) Ask(ctx context.Context, question string, opts retrieval.Options) (*retrieval.Answer, error) {
	results, err := f.Query(ctx, question, opts)
	if err != nil {
		return nil, err
	}
	return &retrieval.Answer{Question: question, Answer: "because", Sources: results}, nil
}

type fixedCounter int

func (c fixedCounter) Count(context.Context) (int, error) { return int(c), nil }

func doJSON(t *testing.T, h *api.Handler, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			r = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := api.NewApp(h, nil).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHealthy(t *testing.T) {
	status, body := doJSON(t, api.NewHandler(&fakeRetriever{}, nil, nil), http.MethodGet, "/check/healthy", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"result":"ok"}`, string(body))
}

func TestQuery(t *testing.T) {
	hit := models.SearchResult{Content: "go code", ContentType: models.ContentCode, Score: 0.9,
		Metadata: models.ChunkMetadata{DocID: "1", Source: "github"}}

	t.Run("returns results", func(t *testing.T) {
		f := &fakeRetriever{results: []models.SearchResult{hit}}
		status, body := doJSON(t, api.NewHandler(f, nil, nil), http.MethodPost, "/api/v1/query",
			map[string]any{"question": "go?", "limit": 3, "score_threshold": 0})
		require.Equal(t, http.StatusOK, status, string(body))

		var resp api.QueryResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, "go?", resp.Question)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "go code", resp.Results[0].Content)

		assert.Equal(t, 3, f.opts.Limit)
		require.NotNil(t, f.opts.ScoreThreshold)
		assert.Zero(t, *f.opts.ScoreThreshold)
	})

	t.Run("empty results encode as array", func(t *testing.T) {
		status, body := doJSON(t, api.NewHandler(&fakeRetriever{}, nil, nil), http.MethodPost, "/api/v1/query",
			map[string]any{"question": "nothing"})
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, string(body), `"results":[]`)
	})

	t.Run("omitted options use defaults", func(t *testing.T) {
		f := &fakeRetriever{}
		doJSON(t, api.NewHandler(f, nil, nil), http.MethodPost, "/api/v1/query", map[string]any{"question": "q"})
		assert.Zero(t, f.opts.Limit)
		assert.Nil(t, f.opts.ScoreThreshold)
	})
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body any
		want int
	}{
		{name: "malformed json", body: "{not json", want: http.StatusBadRequest},
		{name: "missing question", body: map[string]any{"limit": 2}, want: http.StatusUnprocessableEntity},
		{name: "limit too large", body: map[string]any{"question": "q", "limit": 500}, want: http.StatusUnprocessableEntity},
		{name: "threshold out of range", body: map[string]any{"question": "q", "score_threshold": 1.5}, want: http.StatusUnprocessableEntity},
		{name: "blank question", body: map[string]any{"question": "   "}, want: http.StatusBadRequest},
		{name: "collection missing", err: vectorstore.ErrCollectionNotFound, body: map[string]any{"question": "q"}, want: http.StatusServiceUnavailable},
		{name: "embedding failure", err: &embedding.EmbedError{Kind: embedding.KindTransient, Err: errors.New("timeout")},
			body: map[string]any{"question": "q"}, want: http.StatusBadGateway},
		{name: "unknown failure", err: errors.New("boom"), body: map[string]any{"question": "q"}, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, api.NewHandler(&fakeRetriever{err: tt.err}, nil, nil), http.MethodPost, "/api/v1/query", tt.body)
			assert.Equal(t, tt.want, status, string(body))
		})
	}
}

func TestValidationErrorBody(t *testing.T) {
	status, body := doJSON(t, api.NewHandler(&fakeRetriever{}, nil, nil), http.MethodPost, "/api/v1/query",
		map[string]any{"limit": 500})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	var resp api.ValidationError
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "failed on 'required' tag", resp.Errors["Question"])
	assert.Equal(t, "failed on 'max' tag", resp.Errors["Limit"])
}

func TestAsk(t *testing.T) {
	f := &fakeRetriever{results: []models.SearchResult{{Content: "ctx", Score: 0.8}}}
	status, body := doJSON(t, api.NewHandler(f, nil, nil), http.MethodPost, "/ask", map[string]any{"question": "why?"})
	require.Equal(t, http.StatusOK, status, string(body))

	var resp retrieval.Answer
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "why?", resp.Question)
	assert.Equal(t, "because", resp.Answer)
	assert.Len(t, resp.Sources, 1)
}

func TestAskWithoutModel(t *testing.T) {
	svc := retrieval.NewService(nil, vectorstore.NewMemory(4), nil, nil, nil)
	status, _ := doJSON(t, api.NewHandler(svc, nil, nil), http.MethodPost, "/ask", map[string]any{"question": "why?"})
	assert.Equal(t, http.StatusNotImplemented, status)
}

func TestStats(t *testing.T) {
	rec := metrics.NewRecorder()
	rec.ObserveSearch(0)

	status, body := doJSON(t, api.NewHandler(&fakeRetriever{}, fixedCounter(42), rec), http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, status)

	var resp api.StatsResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotNil(t, resp.Vectors)
	assert.Equal(t, 42, *resp.Vectors)
	require.NotNil(t, resp.Runtime.VectorSearch)
	assert.Equal(t, int64(1), resp.Runtime.VectorSearch.Count)
}

func TestMetrics(t *testing.T) {
	rec := metrics.NewRecorder()
	app := api.NewApp(api.NewHandler(&fakeRetriever{}, nil, rec), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/check/healthy", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Prometheus.HTTPRequestsTotal.WithLabelValues("GET", "/check/healthy", "200")))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ragpipe_http_requests_total")
}
