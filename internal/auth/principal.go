package auth

import (
	"context"

	"github.com/operalog/api/internal/domain"
)

// Principal is the authenticated caller. Exactly one of User or Ship is set,
// matching Type. It is produced once per request by the Gate and passed by
// value to downstream checks.
type Principal struct {
	Type domain.PrincipalType
	User *domain.User
	Ship *domain.Ship
}

// UserPrincipal wraps a resolved user.
func UserPrincipal(user *domain.User) Principal {
	return Principal{Type: domain.PrincipalTypeUser, User: user}
}

// ShipPrincipal wraps a resolved ship.
func ShipPrincipal(ship *domain.Ship) Principal {
	return Principal{Type: domain.PrincipalTypeShip, Ship: ship}
}

// IsUser reports whether the principal is a resolved user.
func (p Principal) IsUser() bool {
	return p.Type == domain.PrincipalTypeUser && p.User != nil
}

// IsShip reports whether the principal is a resolved ship.
func (p Principal) IsShip() bool {
	return p.Type == domain.PrincipalTypeShip && p.Ship != nil
}

// ID returns the principal's identifier, or 0 when unauthenticated.
func (p Principal) ID() int64 {
	switch {
	case p.IsUser():
		return p.User.ID
	case p.IsShip():
		return p.Ship.ID
	default:
		return 0
	}
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
