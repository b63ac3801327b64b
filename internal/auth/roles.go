package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/operalog/api/internal/domain"
)

// AuthorizeRole checks that principal is a user holding one of allowed.
func AuthorizeRole(principal Principal, allowed ...domain.UserRole) error {
	if !principal.IsUser() {
		return ErrUnauthenticated
	}
	for _, role := range allowed {
		if principal.User.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// RequireRole ensures the user principal has one of the allowed roles. It must
// run after RequireUser.
func RequireRole(allowed ...domain.UserRole) fiber.Handler {
	allowedSet := make(map[domain.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}
	roles := make([]domain.UserRole, 0, len(allowedSet))
	for role := range allowedSet {
		roles = append(roles, role)
	}

	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromFiber(c)
		if err := AuthorizeRole(principal, roles...); err != nil {
			return toHTTPError(err)
		}
		return c.Next()
	}
}
