package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studentperf/domain/core"
	"studentperf/domain/model"
	"studentperf/ports"

	"github.com/jmoiron/sqlx"
)

// predictionRepository implements ports.PredictionRepository
type predictionRepository struct {
	db *sqlx.DB
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db *sqlx.DB) ports.PredictionRepository {
	return &predictionRepository{db: db}
}

// AddMany upserts predictions keyed by (student_id, model_id) in one
// transaction. Existing rows are updated only when class or probability
// changed.
func (r *predictionRepository) AddMany(ctx context.Context, records []model.PredictionRecord) (int, int, error) {
	if len(records) == 0 {
		return 0, 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	selectQ := tx.Rebind(`SELECT student_id, predicted_class, predicted_prob, model_id
		FROM prediction WHERE student_id = ? AND model_id = ?`)
	insertQ := tx.Rebind(`INSERT INTO prediction (student_id, predicted_class, predicted_prob, model_id)
		VALUES (?, ?, ?, ?)`)
	updateQ := tx.Rebind(`UPDATE prediction SET predicted_class = ?, predicted_prob = ?
		WHERE student_id = ? AND model_id = ?`)

	inserted, updated := 0, 0
	for _, rec := range records {
		var existing model.PredictionRecord
		err := tx.GetContext(ctx, &existing, selectQ, rec.StudentID, rec.ModelID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, insertQ, rec.StudentID, rec.PredictedClass, rec.PredictedProb, rec.ModelID); err != nil {
				return 0, 0, fmt.Errorf("failed to insert prediction for student %d: %w", rec.StudentID, err)
			}
			inserted++
		case err != nil:
			return 0, 0, fmt.Errorf("failed to read prediction for student %d: %w", rec.StudentID, err)
		case existing.PredictedClass != rec.PredictedClass || existing.PredictedProb != rec.PredictedProb:
			if _, err := tx.ExecContext(ctx, updateQ, rec.PredictedClass, rec.PredictedProb, rec.StudentID, rec.ModelID); err != nil {
				return 0, 0, fmt.Errorf("failed to update prediction for student %d: %w", rec.StudentID, err)
			}
			updated++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit predictions: %w", err)
	}
	return inserted, updated, nil
}

// ListByModel returns a model's predictions for existing students
func (r *predictionRepository) ListByModel(ctx context.Context, modelID core.ModelID) ([]model.PredictionRecord, error) {
	var out []model.PredictionRecord
	query := r.db.Rebind(`SELECT p.student_id, p.predicted_class, p.predicted_prob, p.model_id
		FROM prediction p JOIN student s ON s.id = p.student_id
		WHERE p.model_id = ? ORDER BY p.student_id`)
	if err := r.db.SelectContext(ctx, &out, query, modelID); err != nil {
		return nil, fmt.Errorf("failed to list predictions of model %d: %w", modelID, err)
	}
	return out, nil
}

// ListByStudent returns a student's predictions across models
func (r *predictionRepository) ListByStudent(ctx context.Context, studentID core.StudentID) ([]model.PredictionRecord, error) {
	var out []model.PredictionRecord
	query := r.db.Rebind(`SELECT student_id, predicted_class, predicted_prob, model_id
		FROM prediction WHERE student_id = ? ORDER BY model_id`)
	if err := r.db.SelectContext(ctx, &out, query, studentID); err != nil {
		return nil, fmt.Errorf("failed to list predictions of student %d: %w", studentID, err)
	}
	return out, nil
}
