package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
)

// metricsMiddleware tracks HTTP request metrics by route pattern
func (s *Server) metricsMiddleware(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}
	s.metrics.RecordHTTPRequest(c.Method(), c.Route().Path, status, time.Since(start))
	return err
}
