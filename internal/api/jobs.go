package api

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/service"
)

// Jobs starts and tracks background ingest runs.
type Jobs interface {
	Start(sources []models.SourceConfig) (service.JobView, error)
	Get(id string) (service.JobView, error)
	List() []service.JobView
}

// IngestParams is the body of /api/v1/ingest. Empty Sources means all.
type IngestParams struct {
	Sources []string `json:"sources"`
}

// WithJobs enables the ingest and job endpoints over the given sources.
func (h *Handler) WithJobs(jobs Jobs, sources []models.SourceConfig) *Handler {
	h.jobs = jobs
	h.sources = sources
	return h
}

// HandleIngest starts an ingest job and returns it with 202 Accepted.
func (h *Handler) HandleIngest(c *fiber.Ctx) error {
	var params IngestParams
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&params); err != nil {
			return ErrBadRequest()
		}
	}

	sources := h.sources
	if len(params.Sources) > 0 {
		sources = nil
		for _, src := range h.sources {
			if slices.Contains(params.Sources, src.Name()) {
				sources = append(sources, src)
			}
		}
		if len(sources) == 0 {
			return NewValidationError(map[string]string{"Sources": "no configured source matches"})
		}
	}

	job, err := h.jobs.Start(sources)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(job)
}

// HandleGetJob returns one job.
func (h *Handler) HandleGetJob(c *fiber.Ctx) error {
	job, err := h.jobs.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(job)
}

// HandleListJobs returns all jobs, most recent first.
func (h *Handler) HandleListJobs(c *fiber.Ctx) error {
	return c.JSON(h.jobs.List())
}
