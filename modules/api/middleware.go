package api

import (
	"strings"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is where the middleware stores the validated claims
	// for downstream handlers (cart, catalog, websocket upgrade).
	UserContextKey = "user"
)

// AuthMiddleware guards the shop routes behind the locally issued session
// token. The token is validated offline; no round trip to the store API
// happens here.
func AuthMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return unauthorized(c, "Authorization header is required")
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return unauthorized(c, "Invalid authorization header format. Use: Bearer <token>")
		}
		if token == "" {
			return unauthorized(c, "Token is required")
		}

		claims, err := authAdapter.ValidateToken(c.UserContext(), token)
		if err != nil {
			// Covers both bad signatures and sessions revoked by logout.
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
