// Package memstore keeps users, ships and daily reports in process memory.
// It mirrors the Postgres repositories closely enough for service and HTTP
// tests, including the unique constraints on emails, usernames and
// (ship_id, report_date).
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/repository"
)

// Store holds every table. Deleting a ship deletes its reports.
type Store struct {
	mu sync.RWMutex

	now func() time.Time

	users   map[int64]domain.User
	ships   map[int64]domain.Ship
	reports map[int64]domain.DailyReport

	userSeq, shipSeq, reportSeq int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:     time.Now,
		users:   make(map[int64]domain.User),
		ships:   make(map[int64]domain.Ship),
		reports: make(map[int64]domain.DailyReport),
	}
}

// Users exposes the store as a repository.UserRepository.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Ships exposes the store as a repository.ShipRepository.
func (s *Store) Ships() repository.ShipRepository { return shipRepo{s} }

// Reports exposes the store as a repository.ReportRepository.
func (s *Store) Reports() repository.ReportRepository { return reportRepo{s} }

// SetUserActive flips is_active for a user, as an operator would in the database.
func (s *Store) SetUserActive(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.IsActive = active
		s.users[id] = u
	}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
	}
	r.s.userSeq++
	now := r.s.now()
	user.ID = r.s.userSeq
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type shipRepo struct{ s *Store }

func (r shipRepo) Create(_ context.Context, ship *domain.Ship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.ships {
		if existing.Username == ship.Username {
			return uniqueViolation("ships_username_key")
		}
		if existing.Name == ship.Name {
			return uniqueViolation("ships_name_key")
		}
	}
	r.s.shipSeq++
	now := r.s.now()
	ship.ID = r.s.shipSeq
	ship.CreatedAt, ship.UpdatedAt = now, now
	r.s.ships[ship.ID] = *ship
	return nil
}

func (r shipRepo) GetByID(_ context.Context, id int64) (*domain.Ship, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ship, ok := r.s.ships[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ship, nil
}

func (r shipRepo) GetByUsername(_ context.Context, username string) (*domain.Ship, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, ship := range r.s.ships {
		if ship.Username == username {
			return &ship, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r shipRepo) List(_ context.Context, limit, offset int) ([]domain.Ship, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]domain.Ship, 0, len(r.s.ships))
	for _, ship := range r.s.ships {
		all = append(all, ship)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return page(all, limit, offset), nil
}

func (r shipRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.ships)), nil
}

func (r shipRepo) Update(_ context.Context, id int64, update repository.ShipUpdate) (*domain.Ship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ship, ok := r.s.ships[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Username != nil {
		for otherID, other := range r.s.ships {
			if otherID != id && other.Username == *update.Username {
				return nil, uniqueViolation("ships_username_key")
			}
		}
	}
	assign(&ship.Name, update.Name)
	assign(&ship.PasswordHash, update.PasswordHash)
	assign(&ship.Captain, update.Captain)
	assign(&ship.Username, update.Username)
	assignPtr(&ship.Type, update.Type)
	assignPtr(&ship.Status, update.Status)
	assignPtr(&ship.Crew, update.Crew)
	assignPtr(&ship.SmallName, update.SmallName)
	assignPtr(&ship.Position, update.Position)
	ship.UpdatedAt = r.s.now()
	r.s.ships[id] = ship
	return &ship, nil
}

func (r shipRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.ships[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.ships, id)
	for reportID, report := range r.s.reports {
		if report.ShipID == id {
			delete(r.s.reports, reportID)
		}
	}
	return nil
}

func (r shipRepo) TouchLastLogin(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ship, ok := r.s.ships[id]
	if !ok {
		return nil
	}
	now := r.s.now()
	ship.LastLogin = &now
	r.s.ships[id] = ship
	return nil
}

func assign[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func assignPtr[T any](dst **T, v *T) {
	if v != nil {
		val := *v
		*dst = &val
	}
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]T{}, all[offset:end]...)
}
