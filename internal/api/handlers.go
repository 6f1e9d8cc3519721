// Package api serves retrieval and answer synthesis over HTTP.
package api

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/metrics"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/retrieval"
)

// Retriever is the retrieval surface the handlers need.
type Retriever interface {
	Query(ctx context.Context, question string, opts retrieval.Options) ([]models.SearchResult, error)
	Ask(ctx context.Context, question string, opts retrieval.Options) (*retrieval.Answer, error)
}

// Counter reports the number of stored vectors.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// QueryParams is the body of /api/v1/query and /ask.
type QueryParams struct {
	Question       string   `json:"question" validate:"required"`
	Limit          int      `json:"limit" validate:"omitempty,min=1,max=100"`
	ScoreThreshold *float64 `json:"score_threshold" validate:"omitempty,min=-1,max=1"`
}

var validate = validator.New()

// Validate returns field errors keyed by field name, or nil.
func (p *QueryParams) Validate() map[string]string {
	if err := validate.Struct(p); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return map[string]string{"body": err.Error()}
		}
		out := make(map[string]string, len(errs))
		for _, e := range errs {
			out[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return out
	}
	return nil
}

func (p *QueryParams) options() retrieval.Options {
	return retrieval.Options{Limit: p.Limit, ScoreThreshold: p.ScoreThreshold}
}

// QueryResponse is returned by /api/v1/query.
type QueryResponse struct {
	Question string                `json:"question"`
	Results  []models.SearchResult `json:"results"`
}

// Handler serves the API endpoints.
type Handler struct {
	retriever Retriever
	counter   Counter
	recorder  *metrics.Recorder
	jobs      Jobs
	sources   []models.SourceConfig
}

// NewHandler creates the handlers. counter and recorder may be nil.
func NewHandler(retriever Retriever, counter Counter, recorder *metrics.Recorder) *Handler {
	return &Handler{retriever: retriever, counter: counter, recorder: recorder}
}

func parseParams(c *fiber.Ctx) (*QueryParams, error) {
	var params QueryParams
	if err := c.BodyParser(&params); err != nil {
		return nil, ErrBadRequest()
	}
	if errs := params.Validate(); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}
	return &params, nil
}

// HandleHealthy reports liveness.
func (h *Handler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"result": "ok"})
}

// HandleQuery returns the chunks most similar to the question.
func (h *Handler) HandleQuery(c *fiber.Ctx) error {
	params, err := parseParams(c)
	if err != nil {
		return err
	}
	results, err := h.retriever.Query(c.UserContext(), params.Question, params.options())
	if err != nil {
		return err
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	return c.JSON(QueryResponse{Question: params.Question, Results: results})
}

// HandleAsk answers the question from retrieved chunks.
func (h *Handler) HandleAsk(c *fiber.Ctx) error {
	params, err := parseParams(c)
	if err != nil {
		return err
	}
	answer, err := h.retriever.Ask(c.UserContext(), params.Question, params.options())
	if err != nil {
		return err
	}
	return c.JSON(answer)
}

// StatsResponse is returned by /api/v1/stats.
type StatsResponse struct {
	Vectors *int             `json:"vectors,omitempty"`
	Runtime metrics.Snapshot `json:"runtime"`
}

// HandleStats returns the vector count and in-memory timing statistics.
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	resp := StatsResponse{Runtime: h.recorder.Snapshot()}
	if h.counter != nil {
		n, err := h.counter.Count(c.UserContext())
		if err != nil {
			return err
		}
		resp.Vectors = &n
	}
	return c.JSON(resp)
}
