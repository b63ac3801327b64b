package repository

import (
	"context"

	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/querybuilder"
)

// ShipUpdate carries the optional fields of a partial ship update. Nil
// fields are left untouched.
type ShipUpdate struct {
	Name         *string
	PasswordHash *string
	Type         *string
	Status       *string
	Captain      *string
	Username     *string
	Crew         *int
	SmallName    *string
	Position     *string
}

// ShipRepository handles persistence for ships.
type ShipRepository interface {
	Create(ctx context.Context, ship *domain.Ship) error
	GetByID(ctx context.Context, id int64) (*domain.Ship, error)
	GetByUsername(ctx context.Context, username string) (*domain.Ship, error)
	List(ctx context.Context, limit, offset int) ([]domain.Ship, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id int64, update ShipUpdate) (*domain.Ship, error)
	Delete(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64) error
}

type shipRepository struct {
	db Querier
}

// NewShipRepository instantiates the repository.
func NewShipRepository(db Querier) ShipRepository {
	return &shipRepository{db: db}
}

const shipColumns = `id, name, small_name, type, status, captain, username, password_hash,
               crew, position, last_login, created_at, updated_at`

func (r *shipRepository) Create(ctx context.Context, ship *domain.Ship) error {
	const query = `
        INSERT INTO ships (name, small_name, type, status, captain, username, password_hash, crew, position)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		ship.Name,
		ship.SmallName,
		ship.Type,
		ship.Status,
		ship.Captain,
		ship.Username,
		ship.PasswordHash,
		ship.Crew,
		ship.Position,
	).Scan(&ship.ID, &ship.CreatedAt, &ship.UpdatedAt)
}

func (r *shipRepository) GetByID(ctx context.Context, id int64) (*domain.Ship, error) {
	const query = `SELECT ` + shipColumns + ` FROM ships WHERE id = $1`
	return scanShip(r.db.QueryRowContext(ctx, query, id))
}

func (r *shipRepository) GetByUsername(ctx context.Context, username string) (*domain.Ship, error) {
	const query = `SELECT ` + shipColumns + ` FROM ships WHERE username = $1`
	return scanShip(r.db.QueryRowContext(ctx, query, username))
}

func (r *shipRepository) List(ctx context.Context, limit, offset int) ([]domain.Ship, error) {
	const query = `SELECT ` + shipColumns + ` FROM ships ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ship{}
	for rows.Next() {
		ship, err := scanShip(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ship)
	}
	return result, rows.Err()
}

func (r *shipRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ships`).Scan(&total)
	return total, err
}

// Update applies the non-nil fields of update and always bumps updated_at.
// An update with no fields is a touch.
func (r *shipRepository) Update(ctx context.Context, id int64, update ShipUpdate) (*domain.Ship, error) {
	set := querybuilder.NewUpdate("updated_at", id)
	querybuilder.SetOptional(set, "name", update.Name)
	querybuilder.SetOptional(set, "password_hash", update.PasswordHash)
	querybuilder.SetOptional(set, "type", update.Type)
	querybuilder.SetOptional(set, "status", update.Status)
	querybuilder.SetOptional(set, "captain", update.Captain)
	querybuilder.SetOptional(set, "username", update.Username)
	querybuilder.SetOptional(set, "crew", update.Crew)
	querybuilder.SetOptional(set, "small_name", update.SmallName)
	querybuilder.SetOptional(set, "position", update.Position)
	clause := set.Build()

	query := `UPDATE ships SET ` + clause.Text + ` WHERE id = $1 RETURNING ` + shipColumns
	return scanShip(r.db.QueryRowContext(ctx, query, clause.Args...))
}

func (r *shipRepository) Delete(ctx context.Context, id int64) error {
	var deleted int64
	err := r.db.QueryRowContext(ctx, `DELETE FROM ships WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return notFound(err)
}

func (r *shipRepository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE ships SET last_login = CURRENT_TIMESTAMP WHERE id = $1`, id)
	return err
}

func scanShip(row rowScanner) (*domain.Ship, error) {
	var ship domain.Ship
	if err := row.Scan(
		&ship.ID,
		&ship.Name,
		&ship.SmallName,
		&ship.Type,
		&ship.Status,
		&ship.Captain,
		&ship.Username,
		&ship.PasswordHash,
		&ship.Crew,
		&ship.Position,
		&ship.LastLogin,
		&ship.CreatedAt,
		&ship.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &ship, nil
}
