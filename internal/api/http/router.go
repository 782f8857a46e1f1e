package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dochub-service/internal/ai"
	"github.com/spec-kit/dochub-service/internal/api/http/handlers"
	"github.com/spec-kit/dochub-service/internal/auth"
	"github.com/spec-kit/dochub-service/internal/storage"
)

// RouteConfig bundles dependencies for route registration. ObjectStore and
// Completions back the document and prompt route groups, which register
// their routes separately.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.Middleware
	ObjectStore    storage.ObjectStore
	Completions    ai.CompletionClient
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	users := api.Group("/users")
	users.Post("/register", cfg.Users.Register)
	users.Get("/departments", cfg.Users.Departments)
	users.Post("/invite", cfg.AuthMiddleware.Handle, auth.AdminRequired(), cfg.Users.Invite)
	users.Get("/dashboard", cfg.AuthMiddleware.Handle, auth.AdminRequired(), cfg.Users.Dashboard)
	users.Get("/", cfg.AuthMiddleware.Handle, auth.AdminRequired(), cfg.Users.List)
	users.Get("/:id", cfg.AuthMiddleware.Handle, auth.SelfOrAdminRequired("id"), cfg.Users.Get)
	users.Put("/:id", cfg.AuthMiddleware.Handle, auth.SelfOrAdminRequired("id"), cfg.Users.Update)
}
