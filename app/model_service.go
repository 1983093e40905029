package app

import (
	"context"
	"errors"

	"studentperf/domain/core"
	"studentperf/domain/model"
	apperrors "studentperf/internal/errors"
	"studentperf/internal/metrics"
	"studentperf/ports"

	"github.com/rs/zerolog/log"
)

// ModelMetrics is the stored evaluation of a registered model
type ModelMetrics struct {
	Model          *model.ModelRecord   `json:"model"`
	FeatureColumns []string             `json:"feature_columns"`
	Metrics        *model.MetricsBundle `json:"metrics"`
	DirectionID    core.DirectionID     `json:"direction_id"`
	SavedAt        core.Timestamp       `json:"saved_at"`
}

// ModelService reads and deletes registered models
type ModelService struct {
	models    ports.ModelRepository
	artifacts ports.ArtifactStore
	loader    *ModelLoader
	metrics   *metrics.Metrics
}

// NewModelService creates a model service
func NewModelService(models ports.ModelRepository, artifacts ports.ArtifactStore, loader *ModelLoader, m *metrics.Metrics) *ModelService {
	return &ModelService{models: models, artifacts: artifacts, loader: loader, metrics: m}
}

// Get returns a registry row
func (s *ModelService) Get(ctx context.Context, id core.ModelID) (*model.ModelRecord, error) {
	record, err := s.models.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to get model %d", id)
	}
	return record, nil
}

// List returns all models, or those of one direction
func (s *ModelService) List(ctx context.Context, direction *core.DirectionID) ([]model.ModelRecord, error) {
	var (
		records []model.ModelRecord
		err     error
	)
	if direction != nil {
		records, err = s.models.ListByDirection(ctx, *direction)
	} else {
		records, err = s.models.List(ctx)
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list models", err)
	}
	return records, nil
}

// Metrics returns the evaluation stored with a model's artifact
func (s *ModelService) Metrics(ctx context.Context, id core.ModelID) (*ModelMetrics, error) {
	lm, err := s.loader.load(ctx, id)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to load model %d", id)
	}
	return &ModelMetrics{
		Model:          lm.record,
		FeatureColumns: lm.artifact.FeatureColumns,
		Metrics:        lm.artifact.Metrics,
		DirectionID:    lm.artifact.DirectionID,
		SavedAt:        lm.artifact.SavedAt,
	}, nil
}

// Delete removes the artifact, the registry row and, by cascade, the
// model's predictions. A missing artifact does not block removing the row.
func (s *ModelService) Delete(ctx context.Context, id core.ModelID) error {
	record, err := s.models.GetByID(ctx, id)
	if err != nil {
		return apperrors.Wrapf(err, "failed to get model %d", id)
	}

	err = s.artifacts.Delete(ctx, record.Name)
	s.loader.invalidate(record.Name)
	switch {
	case errors.Is(err, core.ErrArtifactNotFound):
		log.Warn().Str("model", record.Name).Msg("artifact already gone, removing registry row")
	case err != nil:
		return apperrors.Wrapf(err, "failed to delete artifact of %s", record.Name)
	default:
		s.metrics.ObserveArtifact("delete")
	}

	if err := s.models.Delete(ctx, id); err != nil {
		return apperrors.Wrapf(err, "failed to delete model %d", id)
	}
	log.Info().Str("model", record.Name).Int64("model_id", int64(id)).Msg("model deleted")
	return nil
}
