package auth

import (
	"context"
	"errors"

	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/repository"
)

// Resolver loads the live principal record behind a verified token. Every call
// reads the datastore; nothing is cached, so deactivating a user or deleting a
// ship takes effect on the next request.
type Resolver struct {
	users repository.UserRepository
	ships repository.ShipRepository
}

// NewResolver constructs a resolver.
func NewResolver(users repository.UserRepository, ships repository.ShipRepository) *Resolver {
	return &Resolver{users: users, ships: ships}
}

// ResolveUser returns the user if it exists and is active. Missing and
// inactive users both yield ErrPrincipalInvalid.
func (r *Resolver) ResolveUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := r.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPrincipalInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrPrincipalInvalid
	}
	return user, nil
}

// ResolveShip returns the ship if it exists.
func (r *Resolver) ResolveShip(ctx context.Context, id int64) (*domain.Ship, error) {
	ship, err := r.ships.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPrincipalInvalid
		}
		return nil, err
	}
	return ship, nil
}
