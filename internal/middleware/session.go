package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-roster-api/internal/utils"
)

// SessionChecker reports whether the shared logged-in flag is set.
type SessionChecker interface {
	IsLoggedIn(ctx context.Context) (bool, error)
}

// RequireSession rejects requests once the teacher has logged out, even when the
// bearer token has not expired yet.
func RequireSession(checker SessionChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loggedIn, err := checker.IsLoggedIn(c.UserContext())
		if err != nil {
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to read session")
		}
		if !loggedIn {
			return utils.SendError(c, fiber.StatusUnauthorized, "session ended, please log in again")
		}
		return c.Next()
	}
}
