package auth

import (
	"context"
	"strings"

	"github.com/operalog/api/internal/domain"
)

// Kind selects which principal types a gate accepts.
type Kind string

const (
	KindUser   Kind = "user"
	KindShip   Kind = "ship"
	KindEither Kind = "either"
)

// TokenVerifier decodes and validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// DecisionRecorder observes gate outcomes.
type DecisionRecorder interface {
	RecordAuthDecision(kind, outcome string)
}

// Gate turns an Authorization header into a resolved Principal.
type Gate struct {
	tokens   TokenVerifier
	resolver *Resolver
	recorder DecisionRecorder
}

// NewGate constructs a gate. recorder may be nil.
func NewGate(tokens TokenVerifier, resolver *Resolver, recorder DecisionRecorder) *Gate {
	return &Gate{tokens: tokens, resolver: resolver, recorder: recorder}
}

// Authenticate verifies the bearer token in header, checks its principal type
// against kind and loads the live principal. Failures are one of the auth
// sentinel errors, or a datastore error passed through unchanged.
func (g *Gate) Authenticate(ctx context.Context, kind Kind, header string) (Principal, error) {
	principal, err := g.authenticate(ctx, kind, header)
	if g.recorder != nil {
		g.recorder.RecordAuthDecision(string(kind), Outcome(err))
	}
	return principal, err
}

func (g *Gate) authenticate(ctx context.Context, kind Kind, header string) (Principal, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return Principal{}, err
	}

	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return Principal{}, err
	}

	switch kind {
	case KindUser:
		if claims.Type != domain.PrincipalTypeUser {
			return Principal{}, ErrWrongPrincipalType
		}
	case KindShip:
		if claims.Type != domain.PrincipalTypeShip {
			return Principal{}, ErrWrongPrincipalType
		}
	case KindEither:
		if !claims.Type.Valid() {
			return Principal{}, ErrWrongPrincipalType
		}
	default:
		return Principal{}, ErrWrongPrincipalType
	}

	if claims.Type == domain.PrincipalTypeUser {
		user, err := g.resolver.ResolveUser(ctx, claims.PrincipalID())
		if err != nil {
			return Principal{}, err
		}
		return UserPrincipal(user), nil
	}

	ship, err := g.resolver.ResolveShip(ctx, claims.PrincipalID())
	if err != nil {
		return Principal{}, err
	}
	return ShipPrincipal(ship), nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. A blank header or a bare scheme yields ErrMissingToken; any
// other malformed value yields ErrInvalidToken.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, "Bearer") {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Outcome names an authentication result for logs and metrics.
func Outcome(err error) string {
	switch err {
	case nil:
		return "authenticated"
	case ErrMissingToken:
		return "missing_token"
	case ErrInvalidToken:
		return "invalid_token"
	case ErrExpiredToken:
		return "expired_token"
	case ErrWrongPrincipalType:
		return "wrong_principal_type"
	case ErrPrincipalInvalid:
		return "principal_invalid"
	default:
		return "error"
	}
}
