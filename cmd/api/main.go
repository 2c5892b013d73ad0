package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickcedwhat/assignment-checker/docs"
	"github.com/rickcedwhat/assignment-checker/internal/auth"
	"github.com/rickcedwhat/assignment-checker/internal/config"
	"github.com/rickcedwhat/assignment-checker/internal/gemini"
	handlers "github.com/rickcedwhat/assignment-checker/internal/http/handler"
	"github.com/rickcedwhat/assignment-checker/internal/http/middleware"
	"github.com/rickcedwhat/assignment-checker/internal/otel"
	"github.com/rickcedwhat/assignment-checker/internal/service"
)

// @title Assignment Checker API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Initialize tracing; degrades to a no-op provider when no collector is set
	shutdownTracing, err := otel.Init(context.Background())
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTracing(ctx)
	}()

	// Token verifier for the endpoints that act on user uploads
	verifier := auth.NewFirebaseVerifier(cfg.Auth.ProjectID)

	// Generative-language client and the services built on it
	genClient := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Timeout: time.Duration(cfg.Gemini.TimeoutSec) * time.Second,
	})
	metaSvc := service.NewMetadataService(cfg.Upload.MaxBytes)
	graderSvc := service.NewGraderService(genClient, cfg.Gemini)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Uploads are buffered in memory; cap the request body a little above
		// the per-file limit to leave room for multipart framing.
		BodyLimit: int(cfg.Upload.MaxBytes) + 1<<20,
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(otelfiber.Middleware())

	// Prometheus metrics with the default process and Go collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMW, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	requireAuth := middleware.RequireAuth(verifier, cfg.Auth.Disabled)
	handlers.RegisterRoutes(app, metaSvc, graderSvc, genClient, requireAuth)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
