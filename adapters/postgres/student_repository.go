package postgres

import (
	"context"
	"fmt"

	"studentperf/domain/core"
	"studentperf/domain/model"
	"studentperf/ports"

	"github.com/jmoiron/sqlx"
)

const studentColumns = `id, full_name, math_score, russian_score, ege_score,
	session_1_passed, session_2_passed, session_3_passed, session_4_passed, direction_id`

// studentRepository implements ports.StudentRepository
type studentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *sqlx.DB) ports.StudentRepository {
	return &studentRepository{db: db}
}

// CreateMany inserts students in one transaction and returns their ids
func (r *studentRepository) CreateMany(ctx context.Context, students []model.Student) ([]core.StudentID, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`INSERT INTO student (
		full_name, math_score, russian_score, ege_score,
		session_1_passed, session_2_passed, session_3_passed, session_4_passed, direction_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	ids := make([]core.StudentID, 0, len(students))
	for _, s := range students {
		var id core.StudentID
		err := tx.QueryRowxContext(ctx, query,
			s.FullName, s.MathScore, s.RussianScore, s.EgeScore,
			s.Session1Passed, s.Session2Passed, s.Session3Passed, s.Session4Passed, s.DirectionID,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to insert student %q: %w", s.FullName, err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit students: %w", err)
	}
	return ids, nil
}

// GetByIDs returns the students with the given ids, ordered by id
func (r *studentRepository) GetByIDs(ctx context.Context, ids []core.StudentID) ([]model.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+studentColumns+` FROM student WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build student query: %w", err)
	}
	var out []model.Student
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get students: %w", err)
	}
	return out, nil
}

// ListByDirection returns a direction's students ordered by id
func (r *studentRepository) ListByDirection(ctx context.Context, direction core.DirectionID) ([]model.Student, error) {
	var out []model.Student
	query := r.db.Rebind(`SELECT ` + studentColumns + ` FROM student WHERE direction_id = ? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &out, query, direction); err != nil {
		return nil, fmt.Errorf("failed to list students of direction %d: %w", direction, err)
	}
	return out, nil
}

// ListWithoutPrediction returns a direction's students the model has not scored
func (r *studentRepository) ListWithoutPrediction(ctx context.Context, direction core.DirectionID, modelID core.ModelID) ([]model.Student, error) {
	var out []model.Student
	query := r.db.Rebind(`SELECT ` + studentColumns + ` FROM student s
		WHERE s.direction_id = ?
		AND NOT EXISTS (SELECT 1 FROM prediction p WHERE p.student_id = s.id AND p.model_id = ?)
		ORDER BY s.id`)
	if err := r.db.SelectContext(ctx, &out, query, direction, modelID); err != nil {
		return nil, fmt.Errorf("failed to list unscored students: %w", err)
	}
	return out, nil
}
