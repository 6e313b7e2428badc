package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/comics-comments-api/internal/config"
	"github.com/noah-isme/comics-comments-api/internal/handler"
	"github.com/noah-isme/comics-comments-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DB             *gorm.DB
	CommentHandler *handler.CommentHandler
	StreamHandler  *handler.CommentStreamHandler
	// CommentGuards run on every comment route, e.g. the flood guard and admin session.
	CommentGuards []fiber.Handler
	// WriteGuards run before a comment is created, e.g. identity and rate limiting.
	WriteGuards []fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB))

	if deps.CommentHandler == nil {
		return
	}

	comments := api.Group("/comments", deps.CommentGuards...)
	// The stream route must precede the /:id lookup.
	if deps.StreamHandler != nil {
		deps.StreamHandler.Register(comments)
	}
	deps.CommentHandler.Register(comments, deps.WriteGuards...)
}
