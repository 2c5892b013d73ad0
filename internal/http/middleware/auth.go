package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rickcedwhat/assignment-checker/internal/auth"
)

// UserLocalKey is the key under which the verified caller's uid is stored in
// Fiber's context locals.
const UserLocalKey = "user_uid"

// RequireAuth verifies the bearer ID token on the request. A missing token is
// a 401, a token that fails verification is a 403 (the envelope is produced
// by the global error handler). With disabled set, every request passes
// through unverified.
func RequireAuth(v auth.Verifier, disabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if disabled {
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "bearer token not provided")
		}

		claims, err := v.Verify(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "invalid authentication credentials")
		}

		c.Locals(UserLocalKey, claims.UID)
		return c.Next()
	}
}
