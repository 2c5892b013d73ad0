package handler

import (
	"github.com/gofiber/fiber/v2"
)

// Readiness reports whether the grading backend has the credentials it
// needs to serve requests.
type Readiness interface {
	Configured() bool
}

// Root returns a simple status banner confirming the API is running.
//
//	@Summary		Root Endpoint
//	@Description	A simple root endpoint to confirm the API is running.
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/ [get]
func Root() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"message":  "Welcome to the Assignment Checker API!",
			"docs_url": "/swagger/index.html",
		})
	}
}

// HealthCheck reports readiness: healthy only when the grading backend is
// configured.
//
//	@Summary		Health Check
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Failure		503	{object}	errorPayload
//	@Router			/health [get]
func HealthCheck(ready Readiness) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !ready.Configured() {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "grading backend is not configured")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a bare liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
