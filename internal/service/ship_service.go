package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/operalog/api/internal/auth"
	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/events"
	"github.com/operalog/api/internal/repository"
	apperrors "github.com/operalog/api/pkg/util/errorutil"
)

// ShipService manages ship accounts.
type ShipService struct {
	ships      repository.ShipRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// ShipDependencies bundles requirements for the ship service.
type ShipDependencies struct {
	ShipRepo   repository.ShipRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// ShipCreateInput describes a new ship account.
type ShipCreateInput struct {
	Name      string
	SmallName *string
	Type      *string
	Status    *string
	Captain   string
	Username  string
	Password  string
	Crew      *int
	Position  *string
}

// ShipUpdateInput describes a partial ship update; nil fields are kept.
type ShipUpdateInput struct {
	Name      *string
	SmallName *string
	Type      *string
	Status    *string
	Captain   *string
	Username  *string
	Password  *string
	Crew      *int
	Position  *string
}

// NewShipService constructs the service.
func NewShipService(deps ShipDependencies) *ShipService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipService{
		ships:      deps.ShipRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: deps.BcryptCost,
	}
}

// List returns a page of ships, newest first.
func (s *ShipService) List(ctx context.Context, page Page) ([]domain.Ship, Pagination, error) {
	page = page.Normalize()
	ships, err := s.ships.List(ctx, page.Size, page.Offset())
	if err != nil {
		return nil, Pagination{}, err
	}
	total, err := s.ships.Count(ctx)
	if err != nil {
		return nil, Pagination{}, err
	}
	return ships, newPagination(page, total), nil
}

// Get loads one ship.
func (s *ShipService) Get(ctx context.Context, id int64) (*domain.Ship, error) {
	ship, err := s.ships.GetByID(ctx, id)
	if err != nil {
		return nil, shipLookupError(err, id)
	}
	return ship, nil
}

// Create registers a ship. Only admins may create ships.
func (s *ShipService) Create(ctx context.Context, actor auth.Principal, input ShipCreateInput) (*domain.Ship, error) {
	if err := auth.AuthorizeRole(actor, domain.UserRoleAdmin); err != nil {
		return nil, auth.HTTPError(err)
	}

	missing := []string{}
	if strings.TrimSpace(input.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(input.Captain) == "" {
		missing = append(missing, "captain")
	}
	if strings.TrimSpace(input.Username) == "" {
		missing = append(missing, "username")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	ship := &domain.Ship{
		Name:         strings.TrimSpace(input.Name),
		SmallName:    input.SmallName,
		Type:         input.Type,
		Status:       input.Status,
		Captain:      strings.TrimSpace(input.Captain),
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		Crew:         input.Crew,
		Position:     input.Position,
	}
	if err := s.ships.Create(ctx, ship); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("ship with this name or username already exists", nil)
		}
		return nil, err
	}

	s.publish(ctx, events.New(events.EventShipCreated, ship.ID, actorOf(actor), events.ShipPayload{
		Name:     ship.Name,
		Username: ship.Username,
	}))
	return ship, nil
}

// Update applies a partial update. Admins and supervisors may update ships.
func (s *ShipService) Update(ctx context.Context, actor auth.Principal, id int64, input ShipUpdateInput) (*domain.Ship, error) {
	if err := auth.AuthorizeRole(actor, domain.UserRoleAdmin, domain.UserRoleSupervisor); err != nil {
		return nil, auth.HTTPError(err)
	}

	update := repository.ShipUpdate{
		Name:      input.Name,
		Type:      input.Type,
		Status:    input.Status,
		Captain:   input.Captain,
		Username:  input.Username,
		Crew:      input.Crew,
		SmallName: input.SmallName,
		Position:  input.Position,
	}
	if input.Password != nil {
		if *input.Password == "" {
			return nil, apperrors.NewValidationError("password must not be empty", nil)
		}
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hash
	}

	ship, err := s.ships.Update(ctx, id, update)
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("ship with this name or username already exists", nil)
		}
		return nil, shipLookupError(err, id)
	}

	s.publish(ctx, events.New(events.EventShipUpdated, ship.ID, actorOf(actor), events.ShipPayload{
		Name:     ship.Name,
		Username: ship.Username,
		Fields:   input.fields(),
	}))
	return ship, nil
}

// Delete removes a ship and, through the foreign key, its reports. Admin only.
func (s *ShipService) Delete(ctx context.Context, actor auth.Principal, id int64) error {
	if err := auth.AuthorizeRole(actor, domain.UserRoleAdmin); err != nil {
		return auth.HTTPError(err)
	}
	if err := s.ships.Delete(ctx, id); err != nil {
		return shipLookupError(err, id)
	}
	s.publish(ctx, events.New(events.EventShipDeleted, id, actorOf(actor), nil))
	return nil
}

func (in ShipUpdateInput) fields() []string {
	fields := []string{}
	add := func(present bool, name string) {
		if present {
			fields = append(fields, name)
		}
	}
	add(in.Name != nil, "name")
	add(in.SmallName != nil, "small_name")
	add(in.Type != nil, "type")
	add(in.Status != nil, "status")
	add(in.Captain != nil, "captain")
	add(in.Username != nil, "username")
	add(in.Password != nil, "password")
	add(in.Crew != nil, "crew")
	add(in.Position != nil, "position")
	return fields
}

func (s *ShipService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func shipLookupError(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ship", map[string]any{"id": id})
	}
	return err
}

func actorOf(p auth.Principal) events.Actor {
	return events.Actor{Type: p.Type, ID: p.ID()}
}
