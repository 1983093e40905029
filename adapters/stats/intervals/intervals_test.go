package intervals

import (
	"math"
	"testing"

	"studentperf/domain/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFrame(t *testing.T, values, probs []float64) *frame.Frame {
	t.Helper()
	f, err := frame.New(len(values), []string{"score", "prob"}, [][]float64{values, probs})
	require.NoError(t, err)
	return f
}

func TestSturgesCount(t *testing.T) {
	assert.Equal(t, 3, SturgesCount(5))
	assert.Equal(t, 1, SturgesCount(1))
	assert.Equal(t, 7, SturgesCount(100))
}

func TestBinAndAverage_FiveValues(t *testing.T) {
	f := buildFrame(t, []float64{1, 2, 3, 4, 5}, []float64{0.1, 0.2, 0.3, 0.4, 0.5})

	res, err := BinAndAverage(f, "score", "prob")
	require.NoError(t, err)

	// r = 3, h = 4/3: edges 0, 1.667, 3, 4.333, 5.667
	require.Len(t, res, 4)
	assert.Equal(t, "0.0-1.7", res[0].Label)
	assert.Equal(t, "1.7-3.0", res[1].Label)
	assert.Equal(t, "3.0-4.3", res[2].Label)
	assert.Equal(t, "4.3-5.7", res[3].Label)

	total := 0
	for _, b := range res {
		total += b.Count
	}
	assert.Equal(t, 5, total, "every row lands in exactly one interval")

	assert.Equal(t, 1, res[0].Count)
	assert.InDelta(t, 0.1, res[0].Mean, 1e-12)
	assert.Equal(t, 2, res[1].Count)
	assert.InDelta(t, 0.25, res[1].Mean, 1e-12)
	assert.Equal(t, 1, res[2].Count)
	assert.InDelta(t, 0.4, res[2].Mean, 1e-12)
	assert.Equal(t, 1, res[3].Count)
	assert.InDelta(t, 0.5, res[3].Mean, 1e-12)
}

func TestBinAndAverage_Degenerate(t *testing.T) {
	f := buildFrame(t, []float64{7, 7, 7, 7}, []float64{0.2, 0.4, 0.6, 0.8})

	res, err := BinAndAverage(f, "score", "prob")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "7.0-8.0", res[0].Label)
	assert.Equal(t, 4, res[0].Count)
	assert.InDelta(t, 0.5, res[0].Mean, 1e-12)
	assert.Equal(t, map[string]float64{"7.0-8.0": res[0].Mean}, res.Map())
}

func TestBinAndAverage_EmptyIntervalsReportZero(t *testing.T) {
	values := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 10}
	probs := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.9}
	f := buildFrame(t, values, probs)

	res, err := BinAndAverage(f, "score", "prob")
	require.NoError(t, err)
	require.Len(t, res, SturgesCount(10)+1)

	empty := 0
	for _, b := range res {
		if b.Count == 0 {
			empty++
			assert.Zero(t, b.Mean)
		}
	}
	assert.Positive(t, empty)
	assert.InDelta(t, 0.1, res[0].Mean, 1e-12)
	assert.InDelta(t, 0.9, res[len(res)-1].Mean, 1e-12)
}

func TestBinAndAverage_SkipsMissingProbabilities(t *testing.T) {
	nan := math.NaN()
	f := buildFrame(t, []float64{1, 1, 2, 2}, []float64{0.4, nan, nan, nan})

	res, err := BinAndAverage(f, "score", "prob")
	require.NoError(t, err)
	var counted int
	for _, b := range res {
		counted += b.Count
		assert.False(t, math.IsNaN(b.Mean))
	}
	assert.Equal(t, 4, counted)
	assert.InDelta(t, 0.4, res[0].Mean, 1e-12)
	assert.Zero(t, res[len(res)-1].Mean)
}

func TestBinAndAverage_UnknownColumn(t *testing.T) {
	f := buildFrame(t, []float64{1, 2}, []float64{0.1, 0.2})
	_, err := BinAndAverage(f, "missing", "prob")
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	labels, err := Labels([]float64{0, 1.5, 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"0.0-1.5", "1.5-3.0"}, labels)

	labels, err = Labels([]float64{0, 0.01, 0.02})
	require.NoError(t, err)
	assert.Equal(t, []string{"0.00-0.01", "0.01-0.02"}, labels)

	_, err = Labels([]float64{0, 1e-12})
	assert.Error(t, err)
}

func TestBinAndAverage_NarrowRangeKeepsEveryInterval(t *testing.T) {
	values := []float64{0.01, 0.01, 0.02, 0.02, 0.03, 0.03, 0.04, 0.04, 0.05, 0.05}
	probs := []float64{0.1, 0.1, 0.2, 0.2, 0.3, 0.3, 0.4, 0.4, 0.5, 0.5}
	f := buildFrame(t, values, probs)

	res, err := BinAndAverage(f, "score", "prob")
	require.NoError(t, err)
	require.Len(t, res, SturgesCount(10)+1)

	m := res.Map()
	assert.Len(t, m, len(res))
	total := 0
	for _, b := range res {
		total += b.Count
		assert.NotEqual(t, "0.0-0.0", b.Label)
		assert.Equal(t, b.Mean, m[b.Label])
	}
	assert.Equal(t, 10, total)
	assert.InDelta(t, 0.1, res[0].Mean, 1e-12)
	assert.InDelta(t, 0.5, res[len(res)-1].Mean, 1e-12)
}
