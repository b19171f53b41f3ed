package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/ranco-loyalty/internal/config"
	"github.com/example/ranco-loyalty/internal/utils"
)

const ownerContextKey = "currentOwnerID"

// StaticTokenHeader carries the legacy shared-secret admin credential.
const StaticTokenHeader = "X-API-Token"

// AdminAuth guards owner endpoints. It accepts either the legacy static
// shared-secret header or a bearer session token, interchangeably.
func AdminAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := c.Get(StaticTokenHeader); token != "" && cfg.StaticAPIToken != "" {
			if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.StaticAPIToken)) == 1 {
				return c.Next()
			}
			return fiber.NewError(fiber.StatusUnauthorized, "invalid api token")
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		ownerID, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(ownerContextKey, ownerID)
		return c.Next()
	}
}

// GetCurrentOwnerID extracts the authenticated owner ID from context.
// It is absent when the request authenticated with the static token.
func GetCurrentOwnerID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(ownerContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}
