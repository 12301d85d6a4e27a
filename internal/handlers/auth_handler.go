package handlers

import (
	"strings"

	"boutique/internal/apperrors"
	"boutique/internal/middleware"
	"boutique/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for customer accounts.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes registers the authentication routes. limiter guards the
// credential endpoints; bearer guards the account endpoints.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, limiter, bearer fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", limiter, h.HandleRegister)
	authRoutes.Post("/login", limiter, h.HandleLogin)
	authRoutes.Post("/refresh", h.HandleRefresh)
	authRoutes.Get("/profile", bearer, h.HandleGetProfile)
	authRoutes.Put("/profile", bearer, h.HandleUpdateProfile)
	authRoutes.Put("/change-password", bearer, h.HandleChangePassword)
}

// HandleRegister handles new account registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, badBody(err))
	}

	session, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// HandleLogin handles account login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req services.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, badBody(err))
	}

	session, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(session)
}

// HandleRefresh exchanges a valid token for a new one. The token is read from
// the Authorization header or a {"token"} body.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	} else {
		var body struct {
			Token string `json:"token"`
		}
		_ = c.BodyParser(&body)
		token = body.Token
	}
	if token == "" {
		return writeError(c, apperrors.Unauthorized("token is required"))
	}

	refreshed, err := h.authService.Refresh(c.UserContext(), token)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"token": refreshed})
}

// HandleGetProfile returns the signed-in account.
func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	account, err := h.authService.Profile(c.UserContext(), middleware.AccountID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(account)
}

// HandleUpdateProfile changes name, phone and address of the signed-in account.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var upd services.ProfileUpdate
	if err := c.BodyParser(&upd); err != nil {
		return writeError(c, badBody(err))
	}
	account, err := h.authService.UpdateProfile(c.UserContext(), middleware.AccountID(c), upd)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(account)
}

// HandleChangePassword replaces the password of the signed-in account.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req services.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, badBody(err))
	}
	if err := h.authService.ChangePassword(c.UserContext(), middleware.AccountID(c), req); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "password updated"})
}
