package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/user-registry/internal/config"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/dto"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// Health probes stay outside the rate limiter
	api.Get("/health", healthHandler.Check)
	api.Get("/health/ready", healthHandler.Ready)
	api.Get("/health/live", healthHandler.Live)

	// Per-IP rate limit on the resource routes
	users := api.Group("/users")
	users.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimitMax,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: "Too many requests",
			})
		},
	}))

	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.Get)

	// Mutations carry the optional bearer-token guard
	protected := middleware.JWTProtected(cfg)
	users.Post("/", protected, userHandler.Create)
	users.Put("/:id", protected, userHandler.Update)
	users.Delete("/:id", protected, userHandler.Delete)
}
