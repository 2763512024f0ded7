package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chatloom/chat-service/internal/api/http/handlers"
	"github.com/chatloom/chat-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Messages       *handlers.MessagesHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	messages := app.Group("/messages", cfg.AuthMiddleware.Handle)
	messages.Post("/", cfg.Messages.SendMessage)
	messages.Delete("/:id", cfg.Messages.DeleteMessage)
}
