package middleware

import (
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/config"
	"github.com/ahmetcoskunkizilkaya/user-registry/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// JWTProtected guards mutating routes with an HS256 bearer token when
// JWT_SECRET is set. Without a secret the routes stay open.
func JWTProtected(cfg *config.Config) fiber.Handler {
	if cfg.JWTSecret == "" {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: "Unauthorized: invalid or expired token",
			})
		},
	})
}
