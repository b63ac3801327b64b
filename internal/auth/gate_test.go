package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/repository"
	"github.com/operalog/api/internal/repository/memstore"
)

type recordedDecision struct {
	kind, outcome string
}

type decisionLog struct {
	decisions []recordedDecision
}

func (d *decisionLog) RecordAuthDecision(kind, outcome string) {
	d.decisions = append(d.decisions, recordedDecision{kind, outcome})
}

type gateFixture struct {
	store  *memstore.Store
	tokens *TokenManager
	gate   *Gate
	log    *decisionLog
	user   *domain.User
	ship   *domain.Ship
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	user := &domain.User{Email: "ops@operalog.io", Name: "Ops", Role: domain.UserRoleAdmin, IsActive: true}
	require.NoError(t, store.Users().Create(ctx, user))
	ship := &domain.Ship{Name: "Aurora", Captain: "J. Doe", Username: "aurora"}
	require.NoError(t, store.Ships().Create(ctx, ship))

	tokens := NewTokenManager("secret", time.Hour)
	log := &decisionLog{}
	gate := NewGate(tokens, NewResolver(store.Users(), store.Ships()), log)
	return &gateFixture{store: store, tokens: tokens, gate: gate, log: log, user: user, ship: ship}
}

func (f *gateFixture) bearer(t *testing.T, id int64, typ domain.PrincipalType) string {
	t.Helper()
	token, _, err := f.tokens.Issue(TokenPayload{ID: id, Type: typ}, 0)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestGateAuthenticatesActiveUser(t *testing.T) {
	f := newGateFixture(t)

	principal, err := f.gate.Authenticate(context.Background(), KindUser, f.bearer(t, f.user.ID, domain.PrincipalTypeUser))
	require.NoError(t, err)
	assert.True(t, principal.IsUser())
	assert.Equal(t, f.user.Email, principal.User.Email)
	assert.Equal(t, []recordedDecision{{"user", "authenticated"}}, f.log.decisions)
}

func TestGateInactiveAndUnknownUsersAreIndistinguishable(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	f.store.SetUserActive(f.user.ID, false)
	_, inactiveErr := f.gate.Authenticate(ctx, KindUser, f.bearer(t, f.user.ID, domain.PrincipalTypeUser))
	_, unknownErr := f.gate.Authenticate(ctx, KindUser, f.bearer(t, 999, domain.PrincipalTypeUser))

	assert.ErrorIs(t, inactiveErr, ErrPrincipalInvalid)
	assert.ErrorIs(t, unknownErr, ErrPrincipalInvalid)
	assert.Equal(t, toHTTPError(inactiveErr), toHTTPError(unknownErr))
}

func TestGateRejectsWrongPrincipalType(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	_, err := f.gate.Authenticate(ctx, KindUser, f.bearer(t, f.ship.ID, domain.PrincipalTypeShip))
	assert.ErrorIs(t, err, ErrWrongPrincipalType)

	_, err = f.gate.Authenticate(ctx, KindShip, f.bearer(t, f.user.ID, domain.PrincipalTypeUser))
	assert.ErrorIs(t, err, ErrWrongPrincipalType)

	_, err = f.gate.Authenticate(ctx, KindEither, f.bearer(t, f.user.ID, domain.PrincipalType("robot")))
	assert.ErrorIs(t, err, ErrWrongPrincipalType)
}

func TestGateEitherTagsPrincipal(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	principal, err := f.gate.Authenticate(ctx, KindEither, f.bearer(t, f.ship.ID, domain.PrincipalTypeShip))
	require.NoError(t, err)
	assert.True(t, principal.IsShip())
	assert.Equal(t, f.ship.ID, principal.ID())

	principal, err = f.gate.Authenticate(ctx, KindEither, f.bearer(t, f.user.ID, domain.PrincipalTypeUser))
	require.NoError(t, err)
	assert.True(t, principal.IsUser())
}

func TestGateShipDeletedAfterIssuance(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()
	header := f.bearer(t, f.ship.ID, domain.PrincipalTypeShip)

	_, err := f.gate.Authenticate(ctx, KindShip, header)
	require.NoError(t, err)

	require.NoError(t, f.store.Ships().Delete(ctx, f.ship.ID))
	_, err = f.gate.Authenticate(ctx, KindShip, header)
	assert.ErrorIs(t, err, ErrPrincipalInvalid)
}

func TestGateHeaderErrors(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	tests := []struct {
		header  string
		want    error
		outcome string
	}{
		{header: "", want: ErrMissingToken, outcome: "missing_token"},
		{header: "   ", want: ErrMissingToken, outcome: "missing_token"},
		{header: "Bearer ", want: ErrMissingToken, outcome: "missing_token"},
		{header: "  bearer  ", want: ErrMissingToken, outcome: "missing_token"},
		{header: "Basic dXNlcjpwYXNz", want: ErrInvalidToken, outcome: "invalid_token"},
		{header: "Bearer garbage", want: ErrInvalidToken, outcome: "invalid_token"},
	}
	for _, tt := range tests {
		f.log.decisions = nil
		_, err := f.gate.Authenticate(ctx, KindEither, tt.header)
		assert.ErrorIs(t, err, tt.want, tt.header)
		require.Len(t, f.log.decisions, 1)
		assert.Equal(t, tt.outcome, f.log.decisions[0].outcome, tt.header)
	}
}

func TestGateExpiredToken(t *testing.T) {
	f := newGateFixture(t)
	past := time.Now().Add(-2 * time.Hour)
	old := NewTokenManager("secret", time.Hour, WithClock(fixedClock(past)))
	token, _, err := old.Issue(TokenPayload{ID: f.user.ID, Type: domain.PrincipalTypeUser}, 0)
	require.NoError(t, err)

	_, err = f.gate.Authenticate(context.Background(), KindUser, "Bearer "+token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Equal(t, "expired_token", f.log.decisions[len(f.log.decisions)-1].outcome)
}

type failingUsers struct {
	repository.UserRepository
	err error
}

func (f failingUsers) GetByID(context.Context, int64) (*domain.User, error) {
	return nil, f.err
}

func TestResolverPassesDatastoreErrorsThrough(t *testing.T) {
	boom := errors.New("connection refused")
	store := memstore.New()
	resolver := NewResolver(failingUsers{err: boom}, store.Ships())

	_, err := resolver.ResolveUser(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrPrincipalInvalid)

	_, err = resolver.ResolveShip(context.Background(), 1)
	assert.ErrorIs(t, err, ErrPrincipalInvalid)
}

func TestGateResolvesPayloadIDEndToEnd(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	second := &domain.User{Email: "sup@operalog.io", Name: "Sup", Role: domain.UserRoleSupervisor, IsActive: true}
	require.NoError(t, f.store.Users().Create(ctx, second))

	// A token id (jti) must not be confused with the principal id.
	claims := &Claims{
		TokenPayload: TokenPayload{ID: second.ID, Type: domain.PrincipalTypeUser, Role: string(second.Role)},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	principal, err := f.gate.Authenticate(ctx, KindUser, "Bearer "+token)
	require.NoError(t, err)
	require.True(t, principal.IsUser())
	assert.Equal(t, second.ID, principal.User.ID)
	assert.Equal(t, domain.UserRoleSupervisor, principal.User.Role)

	principal, err = f.gate.Authenticate(ctx, KindEither, f.bearer(t, f.ship.ID, domain.PrincipalTypeShip))
	require.NoError(t, err)
	require.True(t, principal.IsShip())
	assert.Equal(t, f.ship.ID, principal.Ship.ID)
	assert.Equal(t, "aurora", principal.Ship.Username)

	verified, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, second.ID, verified.PrincipalID())
	assert.Equal(t, "jti-1", verified.RegisteredClaims.ID)
}
