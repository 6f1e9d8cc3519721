// Package retrieval answers natural-language questions from the vector store.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/embedding"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// Query defaults.
const (
	DefaultLimit          = 5
	DefaultScoreThreshold = 0.7
)

// NoContextAnswer is returned by Ask when nothing clears the score threshold.
const NoContextAnswer = "I couldn't find any relevant content to answer that question."

var (
	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrNoAnswerer is returned by Ask when no chat model is configured.
	ErrNoAnswerer = errors.New("no language model configured")
)

// Searcher finds the nearest stored chunks to a vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int, threshold float64) ([]models.SearchResult, error)
}

// Answerer writes an answer from retrieved chunks.
type Answerer interface {
	SynthesizeAnswer(ctx context.Context, question string, chunks []models.SearchResult) (string, error)
}

// Options bounds a query. Zero Limit and nil ScoreThreshold take the defaults;
// an explicit threshold of 0 is honored.
type Options struct {
	Limit          int
	ScoreThreshold *float64
}

// Threshold returns a pointer to v for Options.ScoreThreshold.
func Threshold(v float64) *float64 { return &v }

func (o Options) resolve() (int, float64) {
	limit := o.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	threshold := DefaultScoreThreshold
	if o.ScoreThreshold != nil {
		threshold = *o.ScoreThreshold
	}
	return limit, threshold
}

// Answer is the result of Ask.
type Answer struct {
	Question string                `json:"question"`
	Answer   string                `json:"answer"`
	Sources  []models.SearchResult `json:"sources"`
}

// Service embeds questions and searches the vector store.
type Service struct {
	embedder embedding.Embedder
	store    Searcher
	answerer Answerer
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// NewService creates a retrieval service. answerer and recorder may be nil.
func NewService(embedder embedding.Embedder, store Searcher, answerer Answerer, recorder *metrics.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embedder: embedder,
		store:    store,
		answerer: answerer,
		recorder: recorder,
		logger:   logger,
	}
}

// Query returns the chunks most similar to question, best first.
// Embedding failures fail the call; there is no empty-vector fallback.
func (s *Service) Query(ctx context.Context, question string, opts Options) (results []models.SearchResult, err error) {
	start := time.Now()
	defer func() {
		s.recorder.ObserveRetrieval(time.Since(start), len(results), err)
	}()

	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	limit, threshold := opts.resolve()

	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	searchStart := time.Now()
	results, err = s.store.Search(ctx, vec, limit, threshold)
	s.recorder.ObserveSearch(time.Since(searchStart))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	s.logger.Debug("query complete",
		"limit", limit,
		"threshold", threshold,
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// Ask retrieves context for question and has the language model answer from it.
func (s *Service) Ask(ctx context.Context, question string, opts Options) (*Answer, error) {
	if s.answerer == nil {
		return nil, ErrNoAnswerer
	}

	results, err := s.Query(ctx, question, opts)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Answer{Question: question, Answer: NoContextAnswer, Sources: results}, nil
	}

	text, err := s.answerer.SynthesizeAnswer(ctx, question, results)
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}
	return &Answer{Question: question, Answer: text, Sources: results}, nil
}
