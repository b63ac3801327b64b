package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operalog/api/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenRoundTrip(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret", 0, WithClock(fixedClock(issuedAt)))

	token, expiresAt, err := tm.Issue(TokenPayload{
		ID:    7,
		Type:  domain.PrincipalTypeUser,
		Role:  "admin",
		Email: "ops@operalog.io",
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(DefaultTokenTTL), expiresAt)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.PrincipalID())
	assert.Equal(t, domain.PrincipalTypeUser, claims.Type)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "7", claims.Subject)
}

func TestTokenExpiry(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	issuer := NewTokenManager("secret", time.Hour, WithClock(fixedClock(issuedAt)))
	token, _, err := issuer.Issue(TokenPayload{ID: 3, Type: domain.PrincipalTypeShip}, 0)
	require.NoError(t, err)

	early := NewTokenManager("secret", time.Hour, WithClock(fixedClock(issuedAt.Add(59*time.Minute))))
	_, err = early.Verify(token)
	require.NoError(t, err)

	late := NewTokenManager("secret", time.Hour, WithClock(fixedClock(issuedAt.Add(2*time.Hour))))
	_, err = late.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenRejectsForgeries(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, _, err := tm.Issue(TokenPayload{ID: 1, Type: domain.PrincipalTypeUser}, 0)
	require.NoError(t, err)

	_, err = NewTokenManager("other-secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, err = tm.Verify(parts[0] + "." + parts[1] + "." + string(sig))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		TokenPayload: TokenPayload{ID: 1, Type: domain.PrincipalTypeUser},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRequiresExpiry(t *testing.T) {
	claims := &Claims{TokenPayload: TokenPayload{ID: 1, Type: domain.PrincipalTypeUser}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
