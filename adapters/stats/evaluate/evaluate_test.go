package evaluate

import (
	"math"
	"testing"

	"studentperf/adapters/stats/glm"
	"studentperf/domain/core"
	"studentperf/domain/frame"
	"studentperf/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestROCAUC(t *testing.T) {
	y := frame.Target{0, 0, 1, 1}
	assert.InDelta(t, 1.0, ROCAUC(y, []float64{0.1, 0.2, 0.8, 0.9}), 1e-12)
	assert.InDelta(t, 0.75, ROCAUC(y, []float64{0.1, 0.4, 0.35, 0.8}), 1e-12)
	assert.InDelta(t, 0.5, ROCAUC(y, []float64{0.5, 0.5, 0.5, 0.5}), 1e-12)
	assert.True(t, math.IsNaN(ROCAUC(frame.Target{1, 1}, []float64{0.2, 0.3})))
}

func TestConfusionAndReport(t *testing.T) {
	y := frame.Target{0, 0, 0, 1, 1, 1}
	pred := []int{0, 0, 1, 1, 1, 0}

	cm := Confusion(y, pred)
	assert.Equal(t, 2, cm.TN())
	assert.Equal(t, 1, cm.FP())
	assert.Equal(t, 1, cm.FN())
	assert.Equal(t, 2, cm.TP())

	rep := Report(y, pred)
	require.Len(t, rep.Rows, 4)
	one, ok := rep.Row("1")
	require.True(t, ok)
	assert.InDelta(t, 2.0/3, one.Precision, 1e-12)
	assert.InDelta(t, 2.0/3, one.Recall, 1e-12)
	assert.InDelta(t, 2.0/3, one.F1, 1e-12)
	assert.Equal(t, 3.0, one.Support)
	macro, ok := rep.Row(model.ReportMacroAvg)
	require.True(t, ok)
	assert.Equal(t, 6.0, macro.Support)
	assert.InDelta(t, 4.0/6, rep.Accuracy, 1e-12)
}

func TestReport_SingleClassPresent(t *testing.T) {
	rep := Report(frame.Target{1, 1}, []int{1, 1})
	require.Len(t, rep.Rows, 3)
	_, ok := rep.Row("0")
	assert.False(t, ok)
	assert.Equal(t, 1.0, rep.Accuracy)
}

func TestEvaluate(t *testing.T) {
	X, err := frame.New(10, []string{"x"}, [][]float64{{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}})
	require.NoError(t, err)
	y := frame.Target{0, 0, 1, 0, 0, 1, 1, 0, 1, 1}

	c, err := glm.New(model.Logit)
	require.NoError(t, err)
	_, err = c.Fit(X, y)
	require.NoError(t, err)

	b, err := Evaluate(c, X, y)
	require.NoError(t, err)

	assert.Equal(t, "LOGIT", b.ModelType)
	assert.True(t, b.Converged)
	require.Len(t, b.Statistics, 2)
	assert.Equal(t, model.InterceptName, b.Statistics[0].Feature)
	assert.Equal(t, "x", b.Statistics[1].Feature)

	full, err := c.LogLikelihoodFull(X, y)
	require.NoError(t, err)
	null := c.LogLikelihoodNull(y)
	assert.InDelta(t, full, b.Metric(model.MetricLnLFull), 1e-12)
	assert.InDelta(t, null, b.Metric(model.MetricLnLNull), 1e-12)
	assert.InDelta(t, 2*(full-null), b.Metric(model.MetricLR), 1e-12)
	assert.InDelta(t, 1-full/null, b.Metric(model.MetricPseudoR2McFadden), 1e-12)
	assert.InDelta(t, 1-1/(1+2*(full-null)/10), b.Metric(model.MetricPseudoR2), 1e-12)
	assert.InDelta(t, -full/10, b.Metric(model.MetricLogLoss), 1e-12)
	assert.InDelta(t, 3.841459, b.Metric(model.MetricChi2Critical), 1e-5)

	acc := b.Metric(model.MetricAccuracy)
	assert.InDelta(t, acc*100, b.Metric(model.MetricHitRate), 1e-9)
	assert.InDelta(t, 1-(1-acc)/0.5, b.Metric(model.MetricRp), 1e-12)
	assert.Equal(t, 10, b.Confusion.Total())
}

func TestEvaluate_UndefinedRatiosAreNaN(t *testing.T) {
	X, err := frame.New(4, []string{"x"}, [][]float64{{1, 2, 3, 4}})
	require.NoError(t, err)
	c, err := glm.New(model.Logit)
	require.NoError(t, err)
	_, err = c.Fit(X, frame.Target{0, 1, 0, 1})
	require.NoError(t, err)

	// a held-out set with one class only
	Xt, err := frame.New(2, []string{"x"}, [][]float64{{-50, -60}})
	require.NoError(t, err)
	b, err := Evaluate(c, Xt, frame.Target{0, 0})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(b.Metric(model.MetricPrecision)))
	assert.True(t, math.IsNaN(b.Metric(model.MetricRecall)))
	assert.True(t, math.IsNaN(b.Metric(model.MetricROCAUC)))
	assert.True(t, math.IsNaN(b.Metric(model.MetricRp)))
	assert.Equal(t, 1.0, b.Metric(model.MetricAccuracy))
}

func TestEvaluate_Unfitted(t *testing.T) {
	c, err := glm.New(model.Probit)
	require.NoError(t, err)
	_, err = Evaluate(c, frame.Empty(1), frame.Target{1})
	assert.ErrorIs(t, err, core.ErrModelNotFitted)
}

func TestChiSquareCritical_NoPredictors(t *testing.T) {
	assert.True(t, math.IsNaN(chiSquareCritical(0)))
	assert.InDelta(t, 5.991465, chiSquareCritical(2), 1e-5)
}
