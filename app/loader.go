package app

import (
	"context"
	"fmt"

	"studentperf/adapters/stats/glm"
	"studentperf/domain/core"
	"studentperf/domain/model"
	"studentperf/internal/cache"
	"studentperf/ports"
)

// loadedModel is a registry row with its artifact and a ready classifier
type loadedModel struct {
	record     *model.ModelRecord
	artifact   *model.Artifact
	classifier ports.Classifier
}

// ModelLoader resolves a registered model to a fitted classifier, reading
// artifacts through the model cache
type ModelLoader struct {
	models    ports.ModelRepository
	artifacts ports.ArtifactStore
	cache     *cache.ModelCache
}

// NewModelLoader creates a loader
func NewModelLoader(models ports.ModelRepository, artifacts ports.ArtifactStore, c *cache.ModelCache) *ModelLoader {
	return &ModelLoader{models: models, artifacts: artifacts, cache: c}
}

func (l *ModelLoader) load(ctx context.Context, id core.ModelID) (*loadedModel, error) {
	record, err := l.models.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	artifact, err := l.cache.Get(ctx, record.Name, l.artifacts.Load)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", record.Name, err)
	}
	classifier, err := glm.Restore(artifact.Params, artifact.TrainingFrame)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", record.Name, err)
	}
	return &loadedModel{record: record, artifact: artifact, classifier: classifier}, nil
}

// invalidate drops a model name from the cache after a save or delete
func (l *ModelLoader) invalidate(name string) {
	l.cache.Invalidate(name)
}
