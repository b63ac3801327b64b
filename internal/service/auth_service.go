package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/operalog/api/internal/auth"
	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/events"
	"github.com/operalog/api/internal/repository"
)

// AuthService coordinates login flows for users and ships.
type AuthService struct {
	users      repository.UserRepository
	ships      repository.ShipRepository
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger

	compare   func(hashed, plain string) error
	dummyHash func() string
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	ShipRepo   repository.ShipRepository
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		ships:      deps.ShipRepo,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		compare:    auth.ComparePassword,
		dummyHash:  sync.OnceValue(func() string {
			hash, err := auth.HashPassword("operalog-no-such-account", deps.BcryptCost)
			if err != nil {
				logger.Warn("dummy password hash unavailable", zap.Error(err))
			}
			return hash
		}),
	}
}

// LoginAdmin authenticates an administrative user by email.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*domain.User, Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Session{}, s.rejectWithoutAccount(password)
		}
		return nil, Session{}, err
	}
	if !user.IsActive {
		s.logger.Info("login rejected for inactive user", zap.Int64("user_id", user.ID))
		return nil, Session{}, s.rejectWithoutAccount(password)
	}
	if err := s.compare(user.PasswordHash, password); err != nil {
		return nil, Session{}, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(auth.TokenPayload{
		ID:    user.ID,
		Type:  domain.PrincipalTypeUser,
		Role:  string(user.Role),
		Email: user.Email,
	}, 0)
	if err != nil {
		return nil, Session{}, err
	}
	return user, Session{Token: token, ExpiresAt: exp}, nil
}

// LoginShip authenticates a ship by username and records the login time.
func (s *AuthService) LoginShip(ctx context.Context, username, password string) (*domain.Ship, Session, error) {
	ship, err := s.ships.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Session{}, s.rejectWithoutAccount(password)
		}
		return nil, Session{}, err
	}
	if err := s.compare(ship.PasswordHash, password); err != nil {
		return nil, Session{}, ErrInvalidCredentials
	}

	if err := s.ships.TouchLastLogin(ctx, ship.ID); err != nil {
		return nil, Session{}, err
	}
	now := time.Now()
	ship.LastLogin = &now

	token, exp, err := s.tokens.Issue(auth.TokenPayload{
		ID:       ship.ID,
		Type:     domain.PrincipalTypeShip,
		Username: ship.Username,
		Name:     ship.Name,
	}, 0)
	if err != nil {
		return nil, Session{}, err
	}

	s.publish(ctx, events.New(events.EventShipLoggedIn, ship.ID,
		events.Actor{Type: domain.PrincipalTypeShip, ID: ship.ID}, nil))
	return ship, Session{Token: token, ExpiresAt: exp}, nil
}

// Logout is a no-op; tokens stay valid until they expire.
func (s *AuthService) Logout(_ context.Context) error {
	return nil
}

// rejectWithoutAccount spends one bcrypt comparison so failures for unknown
// or inactive accounts take as long as a wrong password.
func (s *AuthService) rejectWithoutAccount(password string) error {
	_ = s.compare(s.dummyHash(), password)
	return ErrInvalidCredentials
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
