package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/operalog/api/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AuthMiddleware exposes the gate as Fiber handlers.
type AuthMiddleware struct {
	gate   *Gate
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(gate *Gate, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{gate: gate, logger: logger}
}

// RequireUser admits only active administrative users.
func (m *AuthMiddleware) RequireUser(c *fiber.Ctx) error {
	return m.handle(c, KindUser)
}

// RequireShip admits only existing ships.
func (m *AuthMiddleware) RequireShip(c *fiber.Ctx) error {
	return m.handle(c, KindShip)
}

// RequireEither admits users and ships and tags the principal type.
func (m *AuthMiddleware) RequireEither(c *fiber.Ctx) error {
	return m.handle(c, KindEither)
}

func (m *AuthMiddleware) handle(c *fiber.Ctx, kind Kind) error {
	principal, err := m.gate.Authenticate(c.UserContext(), kind, c.Get(fiber.HeaderAuthorization))
	if err != nil {
		m.logger.Debug("authentication rejected",
			zap.String("kind", string(kind)),
			zap.String("outcome", Outcome(err)),
			zap.String("path", c.Path()))
		return toHTTPError(err)
	}

	c.Locals(principalKey, principal)
	c.SetUserContext(ContextWithPrincipal(c.UserContext(), principal))
	return c.Next()
}

// PrincipalFromFiber retrieves the authenticated entity.
func PrincipalFromFiber(c *fiber.Ctx) (Principal, bool) {
	principal, ok := c.Locals(principalKey).(Principal)
	return principal, ok
}

// toHTTPError collapses auth failures into the uniform outward responses.
// Errors that are not auth outcomes (datastore failures) pass through.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrMissingToken):
		return apperrors.NewUnauthorized("authentication token missing")
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken):
		return apperrors.NewUnauthorized("invalid token")
	case errors.Is(err, ErrWrongPrincipalType):
		return apperrors.NewUnauthorized("invalid token type")
	case errors.Is(err, ErrPrincipalInvalid):
		return apperrors.NewUnauthorized("principal not found or inactive")
	case errors.Is(err, ErrUnauthenticated):
		return apperrors.NewUnauthorized("authentication required")
	case errors.Is(err, ErrForbidden):
		return apperrors.NewForbidden("insufficient permissions")
	default:
		return err
	}
}

// HTTPError maps an authorization error raised outside the middleware (role
// or ownership checks in services) to its HTTP form.
func HTTPError(err error) error {
	return toHTTPError(err)
}
