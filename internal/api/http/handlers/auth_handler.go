package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/operalog/api/internal/api/dto"
	"github.com/operalog/api/internal/service"
	apperrors "github.com/operalog/api/pkg/util/errorutil"
)

// AuthHandler exposes login, logout and identity endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// LoginAdmin handles POST /api/auth/login/admin.
func (h *AuthHandler) LoginAdmin(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, session, err := h.auth.LoginAdmin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(user),
			"auth": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, Type: "admin"},
		},
	})
}

// LoginShip handles POST /api/auth/login/ship.
func (h *AuthHandler) LoginShip(c *fiber.Ctx) error {
	var req dto.ShipLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	ship, session, err := h.auth.LoginShip(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"ship": shipResponse(ship),
			"auth": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, Type: "ship"},
		},
	})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so the client
// discarding its token is the whole logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	if principal.IsShip() {
		return c.JSON(fiber.Map{"data": fiber.Map{"type": principal.Type, "ship": shipResponse(principal.Ship)}})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"type": principal.Type, "user": userResponse(principal.User)}})
}
