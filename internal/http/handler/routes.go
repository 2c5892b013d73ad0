package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rickcedwhat/assignment-checker/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. requireAuth
// guards the endpoints that act on user uploads; the question solver stays
// open so the browser extension can call it without a session.
func RegisterRoutes(app *fiber.App, meta service.MetadataService, grader service.GraderService, ready Readiness, requireAuth fiber.Handler) {
	app.Get("/", Root())
	app.Get("/health", HealthCheck(ready))
	app.Get("/healthz", LivenessProbe())

	app.Post("/get-metadata", requireAuth, GetMetadata(meta))
	app.Post("/process-file", requireAuth, ProcessFile(meta))
	app.Post("/check-assignment", requireAuth, CheckAssignment(grader))
	app.Post("/solve-question", SolveQuestion(grader))
}
