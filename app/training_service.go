package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"studentperf/adapters/stats/evaluate"
	"studentperf/adapters/stats/glm"
	"studentperf/domain/core"
	"studentperf/domain/frame"
	"studentperf/domain/model"
	apperrors "studentperf/internal/errors"
	"studentperf/internal/metrics"
	"studentperf/ports"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// SplitConfig controls the held-out split and the optimizer
type SplitConfig struct {
	TestFraction      float64
	Seed              int64
	GradientTolerance float64
}

// DefaultSplitConfig is a 70/30 split with seed 12
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{TestFraction: 0.3, Seed: 12, GradientTolerance: glm.DefaultGradientTolerance}
}

// TrainRequest names a model to fit on the students of one direction
type TrainRequest struct {
	Name        string
	Kind        model.Kind
	DirectionID core.DirectionID
	Features    []string
	Target      string
}

// TrainResponse is the outcome of a training run
type TrainResponse struct {
	Model     *model.ModelRecord   `json:"model"`
	Metrics   *model.MetricsBundle `json:"metrics"`
	Converged bool                 `json:"converged"`
	Warning   string               `json:"warning,omitempty"`
	RuntimeMs int64                `json:"runtime_ms"`
}

// CompareRequest fits both model kinds on the same data and split
type CompareRequest struct {
	DirectionID core.DirectionID
	Features    []string
	Target      string
}

// CompareResponse holds one metrics bundle per kind
type CompareResponse struct {
	Logit  *model.MetricsBundle `json:"logit"`
	Probit *model.MetricsBundle `json:"probit"`
}

// TrainingService fits, evaluates and registers models
type TrainingService struct {
	students  ports.StudentRepository
	models    ports.ModelRepository
	artifacts ports.ArtifactStore
	loader    *ModelLoader
	metrics   *metrics.Metrics
	split     SplitConfig

	// serializes artifact writes
	mu sync.Mutex
}

// NewTrainingService creates a training service
func NewTrainingService(
	students ports.StudentRepository,
	models ports.ModelRepository,
	artifacts ports.ArtifactStore,
	loader *ModelLoader,
	m *metrics.Metrics,
	split SplitConfig,
) *TrainingService {
	return &TrainingService{
		students:  students,
		models:    models,
		artifacts: artifacts,
		loader:    loader,
		metrics:   m,
		split:     split,
	}
}

// dataset is the split feature frame and target of one direction
type dataset struct {
	trainX, testX *frame.Frame
	trainY, testY frame.Target
}

// Train fits the requested model, evaluates it on the held-out split, saves
// the artifact and upserts the registry row. A fit that did not converge is
// still saved; the response carries a warning.
func (s *TrainingService) Train(ctx context.Context, req TrainRequest) (*TrainResponse, error) {
	start := time.Now()

	name, err := core.ParseModelName(req.Name)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeInvalidInput, err)
	}
	kind, err := model.ParseKind(string(req.Kind))
	if err != nil {
		return nil, apperrors.Wrap(err, "invalid model kind")
	}
	data, err := s.prepare(ctx, req.DirectionID, req.Features, req.Target)
	if err != nil {
		return nil, err
	}

	classifier, bundle, fitErr := s.fitAndEvaluate(kind, data)
	if fitErr != nil && !errors.Is(fitErr, core.ErrOptimizationDidNotConverge) {
		return nil, apperrors.Wrapf(fitErr, "failed to fit %s", name)
	}
	params, err := classifier.Result()
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to fit %s", name)
	}

	trainFrame, err := data.trainX.WithColumn(req.Target, data.trainY)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build training frame")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.artifacts.Save(ctx, &model.Artifact{
		Name:           name,
		DirectionID:    req.DirectionID,
		Params:         params,
		FeatureColumns: req.Features,
		TrainingFrame:  trainFrame,
		Metrics:        bundle,
		SavedAt:        core.Now(),
	})
	s.loader.invalidate(name)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to save %s", name)
	}
	s.metrics.ObserveArtifact("save")

	direction := req.DirectionID
	record, err := s.models.AddOrUpdate(ctx, name, req.Features, &direction)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to register model", err)
	}

	resp := &TrainResponse{
		Model:     record,
		Metrics:   bundle,
		Converged: params.Converged,
		RuntimeMs: time.Since(start).Milliseconds(),
	}
	if fitErr != nil {
		resp.Warning = fitErr.Error()
		log.Warn().Err(fitErr).Str("model", name).Msg("model saved without convergence")
	}
	s.metrics.HeldOutAccuracy.WithLabelValues(name).Set(bundle.Metric(model.MetricAccuracy))

	log.Info().
		Str("model", name).
		Str("kind", kind.String()).
		Int64("model_id", int64(record.ID)).
		Int("train_rows", data.trainX.Rows()).
		Int("test_rows", data.testX.Rows()).
		Float64("accuracy", bundle.Metric(model.MetricAccuracy)).
		Int64("runtime_ms", resp.RuntimeMs).
		Msg("model trained")
	return resp, nil
}

// Compare fits logit and probit concurrently on the same split and returns
// both metric bundles without saving anything
func (s *TrainingService) Compare(ctx context.Context, req CompareRequest) (*CompareResponse, error) {
	data, err := s.prepare(ctx, req.DirectionID, req.Features, req.Target)
	if err != nil {
		return nil, err
	}

	var resp CompareResponse
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range []model.Kind{model.Logit, model.Probit} {
		kind := kind
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, bundle, err := s.fitAndEvaluate(kind, data)
			if err != nil && !errors.Is(err, core.ErrOptimizationDidNotConverge) {
				return apperrors.Wrapf(err, "failed to fit %s", kind)
			}
			if kind == model.Logit {
				resp.Logit = bundle
			} else {
				resp.Probit = bundle
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// prepare loads the direction's students and splits them
func (s *TrainingService) prepare(ctx context.Context, direction core.DirectionID, features []string, target string) (*dataset, error) {
	if len(features) == 0 {
		return nil, apperrors.InvalidInput("at least one feature is required")
	}
	for _, f := range features {
		if f == target {
			return nil, apperrors.InvalidInput(fmt.Sprintf("target %q is also a feature", target))
		}
	}

	students, err := s.students.ListByDirection(ctx, direction)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load students", err)
	}
	if len(students) < 2 {
		return nil, apperrors.Wrap(core.NewTrainingDataError(
			fmt.Sprintf("direction %d has %d students", direction, len(students))), "not enough data")
	}

	X, err := model.StudentFrame(students, features...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build feature frame")
	}
	targetFrame, err := model.StudentFrame(students, target)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build target")
	}
	col, _ := targetFrame.Column(target)
	y, err := frame.NewTarget(col)
	if err != nil {
		return nil, apperrors.Wrap(err, "invalid target")
	}

	train, test := frame.SplitIndices(X.Rows(), s.split.TestFraction, s.split.Seed)
	return &dataset{
		trainX: X.Take(train),
		testX:  X.Take(test),
		trainY: y.Take(train),
		testY:  y.Take(test),
	}, nil
}

// fitAndEvaluate fits one kind and scores it on the held-out rows. The
// returned error may wrap core.ErrOptimizationDidNotConverge alongside a
// usable classifier and bundle.
func (s *TrainingService) fitAndEvaluate(kind model.Kind, data *dataset) (*glm.Classifier, *model.MetricsBundle, error) {
	classifier, err := glm.New(kind, glm.WithGradientTolerance(s.split.GradientTolerance))
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	result, fitErr := classifier.Fit(data.trainX, data.trainY)
	if result == nil {
		return nil, nil, fitErr
	}
	s.metrics.ObserveFit(kind.String(), result.Converged, time.Since(start))

	bundle, err := evaluate.Evaluate(classifier, data.testX, data.testY)
	if err != nil {
		return nil, nil, err
	}
	return classifier, bundle, fitErr
}
