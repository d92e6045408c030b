package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-roster-api/internal/config"
	"github.com/noah-isme/gema-roster-api/internal/handler"
	"github.com/noah-isme/gema-roster-api/internal/middleware"
	"github.com/noah-isme/gema-roster-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	RosterHandler     *handler.RosterHandler
	ActivityHandler   *handler.ActivityHandler
	HealthPinger      handler.Pinger
	JWTMiddleware     fiber.Handler
	SessionMiddleware fiber.Handler
	LoginRateLimiter  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthPinger))
	api.Get("/metrics", observability.MetricsHandler())

	var roleGuard []fiber.Handler
	if deps.JWTMiddleware != nil {
		roleGuard = append(roleGuard, middleware.RequireRole("teacher", "admin"))
	}

	if deps.AuthHandler != nil {
		var loginGuards []fiber.Handler
		if deps.LoginRateLimiter != nil {
			loginGuards = append(loginGuards, deps.LoginRateLimiter)
		}
		logoutGuards := append([]fiber.Handler{passThrough(deps.JWTMiddleware)}, roleGuard...)
		deps.AuthHandler.Register(api.Group("/auth"), loginGuards, logoutGuards)
	}

	protected := append([]fiber.Handler{passThrough(deps.JWTMiddleware), passThrough(deps.SessionMiddleware)}, roleGuard...)

	if deps.RosterHandler != nil {
		deps.RosterHandler.Register(api.Group("/roster", protected...))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activity", protected...))
	}
}

// passThrough substitutes a no-op for missing middleware so tests can mount
// handlers without authentication.
func passThrough(h fiber.Handler) fiber.Handler {
	if h != nil {
		return h
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}
