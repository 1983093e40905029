package artifacts

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"studentperf/adapters/stats/evaluate"
	"studentperf/adapters/stats/glm"
	"studentperf/domain/core"
	"studentperf/domain/frame"
	"studentperf/domain/model"
	"studentperf/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var features = []string{"math_score", "russian_score", "session_3_passed"}

func trainedArtifact(t *testing.T, name string, kind model.Kind) (*model.Artifact, *glm.Classifier, *frame.Frame) {
	t.Helper()
	students := testkit.NewCohortGenerator(testkit.DefaultCohortConfig()).Generate()
	X, err := model.StudentFrame(students, features...)
	require.NoError(t, err)
	yf, err := model.StudentFrame(students, "session_4_passed")
	require.NoError(t, err)
	col, err := yf.Column("session_4_passed")
	require.NoError(t, err)
	y, err := frame.NewTarget(col)
	require.NoError(t, err)

	trainIdx, testIdx := frame.SplitIndices(X.Rows(), 0.3, 12)
	c, err := glm.New(kind)
	require.NoError(t, err)
	params, err := c.Fit(X.Take(trainIdx), y.Take(trainIdx))
	require.NoError(t, err)
	bundle, err := evaluate.Evaluate(c, X.Take(testIdx), y.Take(testIdx))
	require.NoError(t, err)

	return &model.Artifact{
		Name:           name,
		DirectionID:    3,
		Params:         params,
		FeatureColumns: features,
		TrainingFrame:  X.Take(trainIdx),
		Metrics:        bundle,
	}, c, X.Take(testIdx)
}

func TestStore_RoundTripReproducesPredictions(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, t.TempDir())
	require.NoError(t, err)

	a, c, heldOut := trainedArtifact(t, "cohort-probit", model.Probit)
	require.NoError(t, store.Save(ctx, a))

	loaded, err := store.Load(ctx, "cohort-probit")
	require.NoError(t, err)
	assert.Equal(t, features, loaded.FeatureColumns)
	assert.Equal(t, core.DirectionID(3), loaded.DirectionID)
	assert.False(t, loaded.SavedAt.IsZero())
	require.NotNil(t, loaded.TrainingFrame)
	assert.Equal(t, a.TrainingFrame.Rows(), loaded.TrainingFrame.Rows())

	restored, err := glm.Restore(loaded.Params, loaded.TrainingFrame)
	require.NoError(t, err)
	want, err := c.PredictProba(heldOut)
	require.NoError(t, err)
	got, err := restored.PredictProba(heldOut)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-9)

	require.NotNil(t, loaded.Metrics)
	assert.Equal(t, a.Metrics.Confusion, loaded.Metrics.Confusion)
	assert.Len(t, loaded.Metrics.Statistics, 4)
	assert.Equal(t, model.InterceptName, loaded.Metrics.Statistics[0].Feature)
	assert.InDelta(t, a.Metrics.Metric(model.MetricLR), loaded.Metrics.Metric(model.MetricLR), 1e-9)
	assert.Equal(t, len(a.Metrics.Report.Rows), len(loaded.Metrics.Report.Rows))
}

func TestStore_LayoutOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := Open(ctx, dir)
	require.NoError(t, err)

	a, _, _ := trainedArtifact(t, "layout", model.Logit)
	require.NoError(t, store.Save(ctx, a))

	for _, f := range []string{ModelFile, TrainFile, MetaFile} {
		_, err := os.Stat(filepath.Join(dir, "layout", f))
		assert.NoError(t, err, f)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "layout", MetaFile))
	require.NoError(t, err)
	for _, key := range []string{`"feature_columns"`, `"metrics"`, `"saved_at"`, `"direction_id"`,
		`"performance_metrics"`, `"classification_report"`, `"confusion_matrix"`, `"model_statistics"`} {
		assert.Contains(t, string(raw), key)
	}
}

func TestStore_NaNMetricsSurvive(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, t.TempDir())
	require.NoError(t, err)

	a, _, _ := trainedArtifact(t, "nan", model.Logit)
	a.Metrics.Performance.Set(model.MetricPrecision, math.NaN())
	require.NoError(t, store.Save(ctx, a))

	loaded, err := store.Load(ctx, "nan")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(loaded.Metrics.Metric(model.MetricPrecision)))
}

func TestStore_ResaveSupersedes(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, t.TempDir())
	require.NoError(t, err)

	a, _, _ := trainedArtifact(t, "m", model.Logit)
	require.NoError(t, store.Save(ctx, a))

	b, _, _ := trainedArtifact(t, "m", model.Probit)
	b.TrainingFrame = nil
	b.DirectionID = 9
	b.SavedAt = core.NewTimestamp(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, b))

	loaded, err := store.Load(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, model.Probit, loaded.Params.Kind)
	assert.Equal(t, core.DirectionID(9), loaded.DirectionID)
	assert.Nil(t, loaded.TrainingFrame, "the previous training frame is gone")
	assert.True(t, b.SavedAt.Time().Equal(loaded.SavedAt.Time()))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"m"}, names)
}

func TestStore_DeleteAndNotFound(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(ctx, "absent")
	assert.ErrorIs(t, err, core.ErrArtifactNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "absent"), core.ErrArtifactNotFound)

	a, _, _ := trainedArtifact(t, "gone", model.Logit)
	require.NoError(t, store.Save(ctx, a))
	ok, err := store.Exists(ctx, "gone")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "gone"))
	_, err = store.Load(ctx, "gone")
	assert.ErrorIs(t, err, core.ErrArtifactNotFound)
	assert.True(t, core.IsNotFoundError(err))
}

func TestStore_SaveValidates(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, store.Save(ctx, &model.Artifact{Name: "x"}), core.ErrModelNotFitted)
	assert.Error(t, store.Save(ctx, &model.Artifact{Name: "../escape"}))

	a, _, _ := trainedArtifact(t, "cols", model.Logit)
	a.FeatureColumns = []string{"russian_score", "math_score", "session_3_passed"}
	assert.ErrorIs(t, store.Save(ctx, a), core.ErrFeatureMismatch)
}

func TestStore_CorruptTrainingFrameIsRejected(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := Open(ctx, dir)
	require.NoError(t, err)

	a, _, _ := trainedArtifact(t, "corrupt", model.Logit)
	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt", TrainFile), []byte("a\n1\n"), 0o644))

	_, err = store.Load(ctx, "corrupt")
	assert.ErrorContains(t, err, "checksum")
}
