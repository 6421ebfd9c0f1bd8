package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"noteshare/internal/auth"
	"noteshare/internal/model"
	"noteshare/internal/service"
)

// AuthUserLocalKey is the key under which the authenticated user is stored
// in Fiber's context locals.
const AuthUserLocalKey = "auth_user"

// Auth verifies the Bearer token, loads the account it names, and stores
// it in context locals for downstream handlers.
//
// Responses:
// - 401 when the header is absent, malformed, or the token fails validation
// - 404 when the token is valid but the user no longer exists
func Auth(users service.UserService, jwtSecret string) fiber.Handler {
	secret := []byte(jwtSecret)

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization token required")
		}

		uid, err := auth.ParseUserID(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		user, err := users.Get(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}

		c.Locals(AuthUserLocalKey, user)
		return c.Next()
	}
}

// AuthUser returns the user stored by Auth, or nil outside an authenticated
// route.
func AuthUser(c *fiber.Ctx) *model.User {
	if u, ok := c.Locals(AuthUserLocalKey).(*model.User); ok {
		return u
	}
	return nil
}
