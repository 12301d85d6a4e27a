package middleware

import (
	"errors"

	"boutique/internal/apperrors"
	"boutique/internal/logging"
	"boutique/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Category selects how AdminGate rejects a request.
type Category int

const (
	// CategoryPage redirects unauthenticated browsers to the login page.
	CategoryPage Category = iota
	// CategoryAPI answers with 401 when no session is presented and 403
	// when the session is invalid or expired.
	CategoryAPI
)

const (
	adminSessionKey = "admin_session"
	loginPath       = "/"
)

// SessionLoader loads the admin session from a request.
type SessionLoader interface {
	Load(c *fiber.Ctx) (session.Data, error)
}

// AdminGate guards admin routes with the signed session cookie.
func AdminGate(sessions SessionLoader, category Category) fiber.Handler {
	if sessions == nil {
		panic("admin gate: session loader is required")
	}
	return func(c *fiber.Ctx) error {
		data, err := sessions.Load(c)
		if err == nil {
			c.Locals(adminSessionKey, data)
			return c.Next()
		}

		if !errors.Is(err, session.ErrNoSession) {
			logging.FromCtx(c).Info("admin session rejected", zap.Error(err))
		}
		if category == CategoryPage {
			return c.Redirect(loginPath, fiber.StatusFound)
		}
		if errors.Is(err, session.ErrNoSession) {
			return apperrors.Unauthorized("admin session required")
		}
		return apperrors.Forbidden("admin session is invalid or expired")
	}
}

// AdminSession returns the session attached by AdminGate.
func AdminSession(c *fiber.Ctx) (session.Data, bool) {
	data, ok := c.Locals(adminSessionKey).(session.Data)
	return data, ok
}
