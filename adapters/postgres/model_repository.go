package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"studentperf/domain/core"
	"studentperf/domain/model"
	"studentperf/ports"

	"github.com/jmoiron/sqlx"
)

// modelRow is the ml_model table row
type modelRow struct {
	ID          core.ModelID  `db:"id"`
	Name        string        `db:"name"`
	Features    []byte        `db:"features"`
	DirectionID sql.NullInt64 `db:"direction_id"`
}

func (row modelRow) record() (*model.ModelRecord, error) {
	rec := &model.ModelRecord{ID: row.ID, Name: row.Name}
	if err := json.Unmarshal(row.Features, &rec.Features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal features of model %s: %w", row.Name, err)
	}
	if row.DirectionID.Valid {
		d := core.DirectionID(row.DirectionID.Int64)
		rec.DirectionID = &d
	}
	return rec, nil
}

// modelRepository implements ports.ModelRepository
type modelRepository struct {
	db *sqlx.DB
}

// NewModelRepository creates a new model registry repository
func NewModelRepository(db *sqlx.DB) ports.ModelRepository {
	return &modelRepository{db: db}
}

// AddOrUpdate registers a model under a unique name
func (r *modelRepository) AddOrUpdate(ctx context.Context, name string, features []string, direction *core.DirectionID) (*model.ModelRecord, error) {
	if features == nil {
		features = []string{}
	}
	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}
	var dir sql.NullInt64
	if direction != nil {
		dir = sql.NullInt64{Int64: int64(*direction), Valid: true}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id core.ModelID
	err = tx.GetContext(ctx, &id, tx.Rebind(`SELECT id FROM ml_model WHERE name = ?`), name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		query := tx.Rebind(`INSERT INTO ml_model (name, features, direction_id) VALUES (?, ?, ?) RETURNING id`)
		if err := tx.QueryRowxContext(ctx, query, name, string(featuresJSON), dir).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert model %s: %w", name, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up model %s: %w", name, err)
	default:
		query := tx.Rebind(`UPDATE ml_model SET features = ?, direction_id = ? WHERE id = ?`)
		if _, err := tx.ExecContext(ctx, query, string(featuresJSON), dir, id); err != nil {
			return nil, fmt.Errorf("failed to update model %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit model %s: %w", name, err)
	}
	return &model.ModelRecord{ID: id, Name: name, Features: features, DirectionID: direction}, nil
}

// GetByID retrieves a model by id
func (r *modelRepository) GetByID(ctx context.Context, id core.ModelID) (*model.ModelRecord, error) {
	return r.getOne(ctx, `SELECT id, name, features, direction_id FROM ml_model WHERE id = ?`, id, id.String())
}

// GetByName retrieves a model by name
func (r *modelRepository) GetByName(ctx context.Context, name string) (*model.ModelRecord, error) {
	return r.getOne(ctx, `SELECT id, name, features, direction_id FROM ml_model WHERE name = ?`, name, name)
}

func (r *modelRepository) getOne(ctx context.Context, query string, arg any, key string) (*model.ModelRecord, error) {
	var row modelRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrModelNotFound, key)
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return row.record()
}

// List returns every registered model ordered by id
func (r *modelRepository) List(ctx context.Context) ([]model.ModelRecord, error) {
	return r.list(ctx, `SELECT id, name, features, direction_id FROM ml_model ORDER BY id`)
}

// ListByDirection returns the models of a direction
func (r *modelRepository) ListByDirection(ctx context.Context, direction core.DirectionID) ([]model.ModelRecord, error) {
	return r.list(ctx, `SELECT id, name, features, direction_id FROM ml_model WHERE direction_id = ? ORDER BY id`, direction)
}

func (r *modelRepository) list(ctx context.Context, query string, args ...any) ([]model.ModelRecord, error) {
	var rows []modelRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	out := make([]model.ModelRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Delete removes a model and, by cascade, its predictions
func (r *modelRepository) Delete(ctx context.Context, id core.ModelID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM ml_model WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete model %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete model %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", core.ErrModelNotFound, id)
	}
	return nil
}
