package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studentperf/domain/core"
	"studentperf/ports"

	"github.com/jmoiron/sqlx"
)

// directionRepository implements ports.DirectionRepository
type directionRepository struct {
	db *sqlx.DB
}

// NewDirectionRepository creates a new direction repository
func NewDirectionRepository(db *sqlx.DB) ports.DirectionRepository {
	return &directionRepository{db: db}
}

// Create inserts a direction
func (r *directionRepository) Create(ctx context.Context, name string) (*ports.Direction, error) {
	d := ports.Direction{Name: name}
	query := r.db.Rebind(`INSERT INTO directions (name) VALUES (?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, query, name).Scan(&d.ID); err != nil {
		return nil, fmt.Errorf("failed to create direction %q: %w", name, err)
	}
	return &d, nil
}

// GetByName retrieves a direction by name
func (r *directionRepository) GetByName(ctx context.Context, name string) (*ports.Direction, error) {
	var d ports.Direction
	err := r.db.GetContext(ctx, &d, r.db.Rebind(`SELECT id, name FROM directions WHERE name = ?`), name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("direction", name)
		}
		return nil, fmt.Errorf("failed to get direction: %w", err)
	}
	return &d, nil
}

// List returns all directions ordered by id
func (r *directionRepository) List(ctx context.Context) ([]ports.Direction, error) {
	var out []ports.Direction
	if err := r.db.SelectContext(ctx, &out, `SELECT id, name FROM directions ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list directions: %w", err)
	}
	return out, nil
}
