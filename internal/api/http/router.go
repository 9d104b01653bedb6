package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/westservices/ticketd/internal/api/http/handlers"
	"github.com/westservices/ticketd/internal/auth"
	"github.com/westservices/ticketd/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Blacklist      *handlers.BlacklistHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)
	app.Get("/stats", cfg.Stats.Get)

	operators := app.Group("", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleAdmin, domain.RoleStaff))
	operators.Get("/tickets", cfg.Tickets.List)
	operators.Get("/tickets/:id", cfg.Tickets.Get)
	operators.Get("/tickets/:id/transcript", cfg.Tickets.Transcript)
	operators.Get("/blacklist", cfg.Blacklist.List)

	admin := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/auth/tokens/staff", cfg.Auth.IssueStaffToken)
	admin.Post("/blacklist", cfg.Blacklist.Add)
	admin.Delete("/blacklist/:userID", cfg.Blacklist.Remove)
}
