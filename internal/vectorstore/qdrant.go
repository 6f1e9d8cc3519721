package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// QdrantConfig configures the Qdrant REST client.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// Qdrant is a minimal REST client for one Qdrant collection.
type Qdrant struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

// Compile-time check that Qdrant implements Store.
var _ Store = (*Qdrant)(nil)

// NewQdrant creates a client. No request is made until Init.
func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	return &Qdrant{
		url:        strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}
}

// statusError is a non-2xx Qdrant response.
type statusError struct {
	method, path string
	code         int
	body         string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %d %s", e.method, e.path, e.code, e.body)
}

func (q *Qdrant) collectionPath() string {
	return "/collections/" + q.collection
}

func (q *Qdrant) Init(ctx context.Context, recreate bool) error {
	if q.dimension <= 0 {
		return fmt.Errorf("invalid dimension: %d", q.dimension)
	}

	if recreate {
		err := q.do(ctx, http.MethodDelete, q.collectionPath(), nil, nil)
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("drop collection %s: %w", q.collection, err)
		}
	} else {
		err := q.do(ctx, http.MethodGet, q.collectionPath(), nil, nil)
		if err == nil {
			return nil
		}
		if !isNotFound(err) {
			return fmt.Errorf("get collection %s: %w", q.collection, err)
		}
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     q.dimension,
			"distance": "Cosine",
		},
	}
	if err := q.do(ctx, http.MethodPut, q.collectionPath(), body, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", q.collection, err)
	}
	return nil
}

func (q *Qdrant) Upsert(ctx context.Context, chunks []models.ProcessedChunk) (int, error) {
	records := toRecords(chunks, q.dimension)
	if len(records) == 0 {
		return 0, nil
	}

	type point struct {
		ID      string               `json:"id"`
		Vector  []float32            `json:"vector"`
		Payload models.VectorPayload `json:"payload"`
	}
	points := make([]point, len(records))
	for i, r := range records {
		points[i] = point{ID: r.ID, Vector: r.Vector, Payload: r.Payload}
	}

	err := q.do(ctx, http.MethodPut, q.collectionPath()+"/points?wait=true", map[string]any{"points": points}, nil)
	if err != nil {
		return 0, q.wrap("upsert", err)
	}
	return len(records), nil
}

func (q *Qdrant) Search(ctx context.Context, vector []float32, limit int, threshold float64) ([]models.SearchResult, error) {
	if err := checkQuery(vector, q.dimension, limit); err != nil {
		return nil, err
	}

	req := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": threshold,
	}
	var resp struct {
		Result []struct {
			Score   float64              `json:"score"`
			Payload models.VectorPayload `json:"payload"`
		} `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, q.collectionPath()+"/points/search", req, &resp); err != nil {
		return nil, q.wrap("search", err)
	}

	results := make([]models.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, r.Payload.ToSearchResult(r.Score))
	}
	return finalize(results, limit, threshold), nil
}

func (q *Qdrant) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, q.collectionPath()+"/points/count", map[string]any{"exact": true}, &resp); err != nil {
		return 0, q.wrap("count", err)
	}
	return resp.Result.Count, nil
}

func (q *Qdrant) Close(context.Context) error {
	q.client.CloseIdleConnections()
	return nil
}

func (q *Qdrant) wrap(op string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s %s: %w", op, q.collection, ErrCollectionNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, q.collection, err)
}

func (q *Qdrant) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.url+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{method: method, path: path, code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}
