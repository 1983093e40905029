package ports

import (
	"context"

	"studentperf/domain/core"
	"studentperf/domain/model"
)

// Direction is a study program students belong to
type Direction struct {
	ID   core.DirectionID `db:"id" json:"id"`
	Name string           `db:"name" json:"name"`
}

// DirectionRepository manages directions
type DirectionRepository interface {
	Create(ctx context.Context, name string) (*Direction, error)
	GetByName(ctx context.Context, name string) (*Direction, error)
	List(ctx context.Context) ([]Direction, error)
}

// StudentRepository reads student records
type StudentRepository interface {
	CreateMany(ctx context.Context, students []model.Student) ([]core.StudentID, error)
	GetByIDs(ctx context.Context, ids []core.StudentID) ([]model.Student, error)
	ListByDirection(ctx context.Context, direction core.DirectionID) ([]model.Student, error)
	// ListWithoutPrediction returns the direction's students that have no
	// prediction from the model yet
	ListWithoutPrediction(ctx context.Context, direction core.DirectionID, modelID core.ModelID) ([]model.Student, error)
}

// ModelRepository is the registry of trained models
type ModelRepository interface {
	// AddOrUpdate inserts the model or, when the name exists, replaces its
	// features and direction
	AddOrUpdate(ctx context.Context, name string, features []string, direction *core.DirectionID) (*model.ModelRecord, error)
	GetByID(ctx context.Context, id core.ModelID) (*model.ModelRecord, error)
	GetByName(ctx context.Context, name string) (*model.ModelRecord, error)
	List(ctx context.Context) ([]model.ModelRecord, error)
	ListByDirection(ctx context.Context, direction core.DirectionID) ([]model.ModelRecord, error)
	Delete(ctx context.Context, id core.ModelID) error
}

// PredictionRepository stores per-student predictions
type PredictionRepository interface {
	// AddMany upserts on (student_id, model_id). Rows whose class and
	// probability are unchanged are left alone and not counted.
	AddMany(ctx context.Context, records []model.PredictionRecord) (inserted, updated int, err error)
	ListByModel(ctx context.Context, modelID core.ModelID) ([]model.PredictionRecord, error)
	ListByStudent(ctx context.Context, studentID core.StudentID) ([]model.PredictionRecord, error)
}
