package api

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/validation"
	"github.com/gofiber/fiber/v3"
)

// sanitizeError converts an internal error to a user-safe message.
// Internal details are logged but not exposed.
func (s *Server) sanitizeError(err error, operation string) string {
	s.logger.Error("request failed", logging.String("op", operation), logging.Error(err))
	return fmt.Sprintf("%s failed", operation)
}

// statusOf maps an engine error to an HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, graph.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, graph.ErrGenerationInFlight), errors.Is(err, graph.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, graph.ErrValidation):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status its kind maps to
func (s *Server) respondError(c fiber.Ctx, operation string, err error) error {
	status := statusOf(err)
	body := ErrorResponse{Error: err.Error()}
	if status == fiber.StatusInternalServerError {
		body.Error = s.sanitizeError(err, operation)
	}

	var gerr *graph.Error
	if errors.As(err, &gerr) {
		for _, v := range gerr.Violations {
			body.Violations = append(body.Violations, v.Message)
		}
	}
	return c.Status(status).JSON(body)
}

// badRequest rejects a malformed request
func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}

// ownerParam returns the validated :owner route parameter.
// Returns false on error (error response sent).
func ownerParam(c fiber.Ctx) (string, bool) {
	owner := c.Params("owner")
	if err := validation.ValidateID(owner); err != nil {
		_ = badRequest(c, err.Error())
		return "", false
	}
	return owner, true
}

// bindJSON decodes the request body into v.
// Returns false on error (error response sent).
func bindJSON(c fiber.Ctx, v any) bool {
	if err := c.Bind().JSON(v); err != nil {
		_ = badRequest(c, "invalid request body")
		return false
	}
	return true
}
