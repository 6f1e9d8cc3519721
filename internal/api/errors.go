package api

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/embedding"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/retrieval"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/service"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/vectorstore"
)

// Error is the JSON error body.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e Error) Error() string {
	return e.Message
}

// NewError creates an API error.
func NewError(code int, msg string) Error {
	return Error{Code: code, Message: msg}
}

// ErrBadRequest is returned for bodies that are not valid JSON.
func ErrBadRequest() Error {
	return NewError(fiber.StatusBadRequest, "invalid JSON request")
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError creates a 422 validation error.
func NewValidationError(errs map[string]string) ValidationError {
	return ValidationError{Status: fiber.StatusUnprocessableEntity, Errors: errs}
}

// NewErrorHandler maps handler errors onto status codes and JSON bodies.
func NewErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			apiErr Error
			valErr ValidationError
		)
		switch {
		case errors.As(err, &apiErr):
			return c.Status(apiErr.Code).JSON(apiErr)
		case errors.As(err, &valErr):
			return c.Status(valErr.Status).JSON(valErr)
		}

		apiErr = fromError(err)
		if apiErr.Code >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"code", apiErr.Code,
				"error", err,
			)
		}
		return c.Status(apiErr.Code).JSON(apiErr)
	}
}

// statusOf returns the status the error handler will send for err.
func statusOf(err error) int {
	var (
		apiErr Error
		valErr ValidationError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.As(err, &valErr):
		return valErr.Status
	}
	return fromError(err).Code
}

// fromError classifies errors coming out of the retrieval stack.
func fromError(err error) Error {
	var (
		fiberErr *fiber.Error
		embedErr *embedding.EmbedError
	)
	switch {
	case errors.As(err, &fiberErr):
		return NewError(fiberErr.Code, fiberErr.Message)
	case errors.Is(err, retrieval.ErrEmptyQuestion):
		return NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, retrieval.ErrNoAnswerer):
		return NewError(fiber.StatusNotImplemented, err.Error())
	case errors.Is(err, service.ErrJobRunning):
		return NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrJobNotFound):
		return NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, vectorstore.ErrCollectionNotFound):
		return NewError(fiber.StatusServiceUnavailable, "vector collection is not initialized")
	case errors.As(err, &embedErr):
		return NewError(fiber.StatusBadGateway, fmt.Sprintf("embedding failed: %s", embedErr.Kind))
	default:
		return NewError(fiber.StatusInternalServerError, "internal server error")
	}
}
