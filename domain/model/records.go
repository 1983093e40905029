package model

import (
	"studentperf/domain/core"
	"studentperf/domain/frame"
)

// Artifact is a saved model unit: weights, optional training frame and the
// metadata document, stored and removed together under one name.
type Artifact struct {
	Name           string
	DirectionID    core.DirectionID
	Params         *FitResult
	FeatureColumns []string
	TrainingFrame  *frame.Frame
	Metrics        *MetricsBundle
	SavedAt        core.Timestamp
}

// PredictionRecord is a per-student prediction of one model
type PredictionRecord struct {
	StudentID      core.StudentID `db:"student_id" json:"student_id"`
	PredictedClass int            `db:"predicted_class" json:"predicted_class"`
	PredictedProb  float64        `db:"predicted_prob" json:"predicted_prob"`
	ModelID        core.ModelID   `db:"model_id" json:"model_id"`
}

// ModelRecord is the registry entry of a trained model
type ModelRecord struct {
	ID          core.ModelID      `json:"id"`
	Name        string            `json:"name"`
	Features    []string          `json:"features"`
	DirectionID *core.DirectionID `json:"direction_id,omitempty"`
}

// HasFeature reports whether the model was trained on a feature
func (m *ModelRecord) HasFeature(name string) bool {
	for _, f := range m.Features {
		if f == name {
			return true
		}
	}
	return false
}

// FeatureEffect is the marginal effect of one feature
type FeatureEffect struct {
	Feature string  `json:"feature"`
	Effect  float64 `json:"effect"`
}
