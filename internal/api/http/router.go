package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/operalog/api/internal/api/http/handlers"
	"github.com/operalog/api/internal/auth"
	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/observability"
	apperrors "github.com/operalog/api/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Ships          *handlers.ShipsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	mw := cfg.AuthMiddleware
	api := app.Group("/api")

	api.Get("/health", cfg.Health.Ready)
	api.Get("/health/live", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	authGroup := api.Group("/auth")
	authGroup.Post("/login/admin", cfg.Auth.LoginAdmin)
	authGroup.Post("/login/ship", cfg.Auth.LoginShip)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", mw.RequireEither, cfg.Auth.Me)

	ships := api.Group("/ships")
	ships.Get("/me/profile", mw.RequireShip, cfg.Ships.Profile)
	ships.Get("/", mw.RequireUser, cfg.Ships.List)
	ships.Post("/", mw.RequireUser, auth.RequireRole(domain.UserRoleAdmin), cfg.Ships.Create)
	ships.Get("/:id", mw.RequireUser, cfg.Ships.Get)
	ships.Put("/:id", mw.RequireUser, auth.RequireRole(domain.UserRoleAdmin, domain.UserRoleSupervisor), cfg.Ships.Update)
	ships.Delete("/:id", mw.RequireUser, auth.RequireRole(domain.UserRoleAdmin), cfg.Ships.Delete)

	reports := api.Group("/reports")
	reports.Get("/stats", mw.RequireUser, cfg.Reports.Stats)
	reports.Get("/ship/:shipId", mw.RequireEither, cfg.Reports.ListByShip)
	reports.Get("/", mw.RequireUser, cfg.Reports.List)
	reports.Post("/", mw.RequireEither, cfg.Reports.Create)
	reports.Get("/:id", mw.RequireEither, cfg.Reports.Get)
	reports.Put("/:id", mw.RequireEither, cfg.Reports.Update)
	reports.Delete("/:id", mw.RequireUser, cfg.Reports.Delete)

	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("route", map[string]any{"method": c.Method(), "path": c.Path()})
	})
}
