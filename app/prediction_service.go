package app

import (
	"context"
	"fmt"

	"studentperf/adapters/stats/glm"
	"studentperf/domain/core"
	"studentperf/domain/model"
	apperrors "studentperf/internal/errors"
	"studentperf/internal/metrics"
	"studentperf/ports"

	"github.com/rs/zerolog/log"
)

// PredictionResult reports a prediction run
type PredictionResult struct {
	ModelID     core.ModelID             `json:"model_id"`
	Predictions []model.PredictionRecord `json:"predictions"`
	Inserted    int                      `json:"inserted"`
	Updated     int                      `json:"updated"`
}

// PredictionService scores students with a registered model and stores the
// predictions
type PredictionService struct {
	students    ports.StudentRepository
	predictions ports.PredictionRepository
	loader      *ModelLoader
	metrics     *metrics.Metrics
}

// NewPredictionService creates a prediction service
func NewPredictionService(students ports.StudentRepository, predictions ports.PredictionRepository, loader *ModelLoader, m *metrics.Metrics) *PredictionService {
	return &PredictionService{students: students, predictions: predictions, loader: loader, metrics: m}
}

// PredictForDirection scores the students of a direction. With onlyNew, only
// students the model has not scored yet are considered.
func (s *PredictionService) PredictForDirection(ctx context.Context, modelID core.ModelID, direction core.DirectionID, onlyNew bool) (*PredictionResult, error) {
	lm, err := s.loader.load(ctx, modelID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to load model %d", modelID)
	}

	var students []model.Student
	if onlyNew {
		students, err = s.students.ListWithoutPrediction(ctx, direction, modelID)
	} else {
		students, err = s.students.ListByDirection(ctx, direction)
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load students", err)
	}
	return s.predict(ctx, lm, students)
}

// PredictForStudents scores the given students
func (s *PredictionService) PredictForStudents(ctx context.Context, modelID core.ModelID, ids []core.StudentID) (*PredictionResult, error) {
	students, err := s.students.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load students", err)
	}
	if len(students) == 0 {
		return nil, apperrors.Wrap(core.NewNotFoundError("students", fmt.Sprint(ids)), "nothing to predict")
	}
	lm, err := s.loader.load(ctx, modelID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to load model %d", modelID)
	}
	return s.predict(ctx, lm, students)
}

func (s *PredictionService) predict(ctx context.Context, lm *loadedModel, students []model.Student) (*PredictionResult, error) {
	result := &PredictionResult{ModelID: lm.record.ID, Predictions: []model.PredictionRecord{}}
	if len(students) == 0 {
		return result, nil
	}

	X, err := model.StudentFrame(students, lm.classifier.FeatureNames()...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build feature frame")
	}
	probs, err := lm.classifier.PredictProba(X)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to score with %s", lm.record.Name)
	}
	classes := glm.Classify(probs)

	result.Predictions = make([]model.PredictionRecord, len(students))
	for i, st := range students {
		result.Predictions[i] = model.PredictionRecord{
			StudentID:      st.ID,
			PredictedClass: classes[i],
			PredictedProb:  probs[i],
			ModelID:        lm.record.ID,
		}
	}

	result.Inserted, result.Updated, err = s.predictions.AddMany(ctx, result.Predictions)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to store predictions", err)
	}
	s.metrics.ObservePredictions(len(students), result.Inserted, result.Updated)

	log.Info().
		Str("model", lm.record.Name).
		Int("students", len(students)).
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Msg("predictions stored")
	return result, nil
}
