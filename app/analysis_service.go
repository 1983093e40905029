package app

import (
	"context"
	"math"

	"studentperf/adapters/stats/intervals"
	"studentperf/domain/core"
	"studentperf/domain/model"
	apperrors "studentperf/internal/errors"
	"studentperf/ports"
)

// probColumn is the joined prediction column of the interval analysis
const probColumn = "predicted_prob"

// MarginPoint is the marginal effect at one scan value
type MarginPoint struct {
	X      float64 `json:"x"`
	Effect float64 `json:"effect"`
}

// AnalysisService answers questions about a fitted model: marginal effects
// and mean predicted probability over feature intervals
type AnalysisService struct {
	models      ports.ModelRepository
	students    ports.StudentRepository
	predictions ports.PredictionRepository
	loader      *ModelLoader
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(models ports.ModelRepository, students ports.StudentRepository, predictions ports.PredictionRepository, loader *ModelLoader) *AnalysisService {
	return &AnalysisService{models: models, students: students, predictions: predictions, loader: loader}
}

// MarginEffects evaluates dP/dx of feature at each scan value, the other
// covariates fixed by policy
func (s *AnalysisService) MarginEffects(ctx context.Context, modelID core.ModelID, feature string, values []float64, policy model.FixPolicy) ([]MarginPoint, error) {
	lm, err := s.loader.load(ctx, modelID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to load model %d", modelID)
	}
	effects, err := lm.classifier.MarginalEffectAt(feature, values, policy)
	if err != nil {
		return nil, apperrors.Wrapf(err, "marginal effect of %s", feature)
	}
	out := make([]MarginPoint, len(values))
	for i, x := range values {
		out[i] = MarginPoint{X: x, Effect: effects[i]}
	}
	return out, nil
}

// AverageEffects returns the average marginal effect of every feature over
// the model's stored training rows
func (s *AnalysisService) AverageEffects(ctx context.Context, modelID core.ModelID) ([]model.FeatureEffect, error) {
	lm, err := s.loader.load(ctx, modelID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to load model %d", modelID)
	}
	train := lm.artifact.TrainingFrame
	if train == nil {
		return nil, apperrors.InvalidInput("model " + lm.record.Name + " has no stored training data")
	}
	X, err := train.Select(lm.classifier.FeatureNames()...)
	if err != nil {
		return nil, apperrors.Wrap(err, "training data does not match the model")
	}
	effects, err := lm.classifier.AverageMarginalEffect(X)
	if err != nil {
		return nil, apperrors.Wrap(err, "average marginal effect")
	}
	return effects, nil
}

// ProbabilityIntervals bins the direction's students by feature and averages
// the model's stored predicted probability per interval. Students without a
// prediction count toward their interval but not toward its mean.
func (s *AnalysisService) ProbabilityIntervals(ctx context.Context, modelID core.ModelID, feature string, direction core.DirectionID) (intervals.Result, error) {
	record, err := s.models.GetByID(ctx, modelID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to load model %d", modelID)
	}
	if !record.HasFeature(feature) {
		return nil, apperrors.Wrapf(core.NewUnknownFeatureError(feature), "feature not used by model %s", record.Name)
	}

	students, err := s.students.ListByDirection(ctx, direction)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load students", err)
	}
	preds, err := s.predictions.ListByModel(ctx, modelID)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load predictions", err)
	}
	byStudent := make(map[core.StudentID]float64, len(preds))
	for _, p := range preds {
		byStudent[p.StudentID] = p.PredictedProb
	}

	df, err := model.StudentFrame(students, feature)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build feature frame")
	}
	probs := make([]float64, len(students))
	for i, st := range students {
		p, ok := byStudent[st.ID]
		if !ok {
			p = math.NaN()
		}
		probs[i] = p
	}
	if df, err = df.WithColumn(probColumn, probs); err != nil {
		return nil, apperrors.Wrap(err, "failed to join predictions")
	}
	return intervals.BinAndAverage(df, feature, probColumn)
}
