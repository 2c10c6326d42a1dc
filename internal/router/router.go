package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/skillforge/arena-api/internal/config"
	"github.com/skillforge/arena-api/internal/handler"
	"github.com/skillforge/arena-api/internal/middleware"
	"github.com/skillforge/arena-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SolutionHandler *handler.SolutionHandler
	ProblemHandler  *handler.ProblemHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ProblemHandler != nil {
		problems := api.Group("/problems", jwtMiddleware)
		deps.ProblemHandler.Register(problems)
		if deps.SolutionHandler != nil {
			deps.SolutionHandler.RegisterProblemRoutes(problems)
		}
	}

	if deps.SolutionHandler != nil {
		solutions := api.Group("/solutions", jwtMiddleware,
			middleware.RateLimit("solutions", cfg.SubmitRateLimit, time.Minute))
		deps.SolutionHandler.Register(solutions)
	}
}
