package middleware

import (
	"strings"

	"boutique/internal/apperrors"
	"boutique/internal/logging"
	"boutique/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	accountIDKey = "account_id"
	emailKey     = "account_email"
)

// TokenValidator verifies customer bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Claims, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return apperrors.Unauthorized("authorization header must be 'Bearer <token>'")
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			logging.FromCtx(c).Debug("bearer token rejected", zap.Error(err))
			return err
		}

		c.Locals(accountIDKey, claims.AccountID)
		c.Locals(emailKey, claims.Email)
		return c.Next()
	}
}

// OptionalAuth attaches the account of a valid bearer token when one is
// presented. Missing or invalid tokens are ignored.
func OptionalAuth(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := tokens.ValidateToken(tokenString); err == nil {
				c.Locals(accountIDKey, claims.AccountID)
				c.Locals(emailKey, claims.Email)
			}
		}
		return c.Next()
	}
}

// AccountID returns the account attached by AuthRequired or OptionalAuth.
func AccountID(c *fiber.Ctx) string {
	id, _ := c.Locals(accountIDKey).(string)
	return id
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(c.Get(fiber.HeaderAuthorization)), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
