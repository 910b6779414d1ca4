package health

import (
	"github.com/gofiber/fiber/v3"
)

// Handler serves every check. Degraded still answers 200.
func (hc *Checker) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		resp := hc.Check(c.Context())
		status := fiber.StatusOK
		if resp.Status == StatusUnhealthy {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(resp)
	}
}

// ReadinessHandler serves readiness checks. Readiness is binary.
func (hc *Checker) ReadinessHandler() fiber.Handler {
	return func(c fiber.Ctx) error {
		return respondBinary(c, hc.CheckReadiness(c.Context()))
	}
}

// LivenessHandler serves liveness checks
func (hc *Checker) LivenessHandler() fiber.Handler {
	return func(c fiber.Ctx) error {
		return respondBinary(c, hc.CheckLiveness(c.Context()))
	}
}

func respondBinary(c fiber.Ctx, resp Response) error {
	if resp.Status != StatusHealthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
