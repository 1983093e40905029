package ports

import (
	"studentperf/domain/frame"
	"studentperf/domain/model"
)

// Classifier is a fitted or fittable binary model
type Classifier interface {
	Kind() model.Kind
	Fit(X *frame.Frame, y frame.Target) (*model.FitResult, error)
	Result() (*model.FitResult, error)
	FeatureNames() []string

	PredictProba(X *frame.Frame) ([]float64, error)
	Predict(X *frame.Frame) ([]int, error)
	LogLikelihoodFull(X *frame.Frame, y frame.Target) (float64, error)
	LogLikelihoodNull(y frame.Target) float64

	MarginalEffectAt(feature string, scan []float64, policy model.FixPolicy) ([]float64, error)
	AverageMarginalEffect(X *frame.Frame) ([]model.FeatureEffect, error)
}
