package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/desh1993/fitness-mvp/internal/api/http/handlers"
	"github.com/desh1993/fitness-mvp/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Members        *handlers.MembersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	authenticated := cfg.AuthMiddleware.Handle
	api := app.Group("/api")
	api.Post("/login", cfg.Auth.Login)
	api.Post("/logout", authenticated, cfg.Auth.Logout)
	api.Get("/me", authenticated, cfg.Auth.Me)
	api.Get("/user", authenticated, cfg.Auth.User)

	members := app.Group("/members", authenticated, auth.RequireVerified())
	members.Get("/", cfg.Members.Index)
	members.Post("/", cfg.Members.Store)
	members.Post("/check", cfg.Members.Check)
	members.Get("/:id", cfg.Members.Show)
	members.Put("/:id", cfg.Members.Update)
	members.Delete("/:id", cfg.Members.Destroy)
}
