package frame

import (
	"errors"
	"math"
	"testing"

	"studentperf/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		rows  int
		names []string
		cols  [][]float64
	}{
		{"negative rows", -1, nil, nil},
		{"name count mismatch", 1, []string{"a"}, nil},
		{"empty name", 1, []string{""}, [][]float64{{1}}},
		{"duplicate", 1, []string{"a", "a"}, [][]float64{{1}, {2}}},
		{"short column", 2, []string{"a"}, [][]float64{{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rows, tt.names, tt.cols)
			assert.Error(t, err)
		})
	}
}

func TestEmptyKeepsShape(t *testing.T) {
	f := Empty(5)
	assert.Equal(t, 5, f.Rows())
	assert.Equal(t, 0, f.Width())
	assert.Empty(t, f.Row(3))
}

func TestFrameAccessors(t *testing.T) {
	src := []float64{1, 2, 3}
	f, err := New(3, []string{"a", "b"}, [][]float64{src, {4, 5, 6}})
	require.NoError(t, err)
	src[0] = 100

	a, err := f.Column("a")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, a)
	assert.Equal(t, []float64{2, 5}, f.Row(1))
	assert.Equal(t, 6.0, f.At(2, 1))
	assert.True(t, f.Has("b"))
	assert.True(t, f.HasSameColumns([]string{"a", "b"}))
	assert.False(t, f.HasSameColumns([]string{"b", "a"}))

	_, err = f.Column("c")
	assert.True(t, errors.Is(err, core.ErrUnknownFeature))
}

func TestSelectDropTake(t *testing.T) {
	f, err := New(3, []string{"a", "b", "c"}, [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	require.NoError(t, err)

	s, err := f.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, s.Names())
	assert.Equal(t, []float64{9, 3}, s.Row(2))

	_, err = f.Select("z")
	assert.True(t, errors.Is(err, core.ErrUnknownFeature))

	d := f.Drop("b", "missing")
	assert.Equal(t, []string{"a", "c"}, d.Names())

	tk := f.Take([]int{2, 0})
	assert.Equal(t, 2, tk.Rows())
	assert.Equal(t, []float64{3, 6, 9}, tk.Row(0))
}

func TestWithColumn(t *testing.T) {
	f, err := New(2, []string{"a"}, [][]float64{{1, 2}})
	require.NoError(t, err)

	g, err := f.WithColumn("y", []float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "y"}, g.Names())
	assert.Equal(t, 1, f.Width())

	h, err := g.WithColumn("a", []float64{7, 8})
	require.NoError(t, err)
	a, _ := h.Column("a")
	assert.Equal(t, []float64{7, 8}, a)

	_, err = f.WithColumn("z", []float64{1})
	assert.Error(t, err)
}

func TestCheckFinite(t *testing.T) {
	f, _ := New(2, []string{"a"}, [][]float64{{1, math.NaN()}})
	assert.ErrorContains(t, f.CheckFinite(), `"a" row 1`)
	g, _ := New(1, []string{"a"}, [][]float64{{1}})
	assert.NoError(t, g.CheckFinite())
}

func TestTarget(t *testing.T) {
	_, err := NewTarget([]float64{0, 1, 2})
	assert.True(t, errors.Is(err, core.ErrInvalidTrainingData))

	y, err := NewTarget([]float64{0, 1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.75, y.Mean())
	assert.False(t, y.IsDegenerate())
	assert.Equal(t, Target{1, 0}, y.Take([]int{3, 0}))

	assert.True(t, Target{1, 1}.IsDegenerate())
	assert.True(t, math.IsNaN(Target{}.Mean()))
}

func TestSplitIndices(t *testing.T) {
	train, test := SplitIndices(10, 0.3, 12)
	assert.Len(t, test, 3)
	assert.Len(t, train, 7)

	seen := make(map[int]bool)
	for _, i := range append(append([]int(nil), train...), test...) {
		assert.False(t, seen[i], "index %d repeated", i)
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train2, test2 := SplitIndices(10, 0.3, 12)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	// ceil(0.3*11) = 4
	_, test = SplitIndices(11, 0.3, 1)
	assert.Len(t, test, 4)

	train, test = SplitIndices(2, 0.9, 1)
	assert.Len(t, train, 1)
	assert.Len(t, test, 1)
}

func TestBuilder(t *testing.T) {
	_, err := NewBuilder(Schema{{Name: "a"}, {Name: "a"}})
	assert.Error(t, err)

	b, err := NewBuilder(Schema{{Name: "score", Type: Numeric}, {Name: "passed", Type: Bool}})
	require.NoError(t, err)
	require.NoError(t, b.Append(80, true))
	require.NoError(t, b.Append(int64(55), false))
	require.NoError(t, b.Append(61.5, 1.0))

	assert.Error(t, b.Append(1))
	assert.Error(t, b.Append("x", true))
	assert.Error(t, b.Append(1, 2))

	f := b.Frame()
	assert.Equal(t, 3, f.Rows())
	passed, _ := f.Column("passed")
	assert.Equal(t, []float64{1, 0, 1}, passed)
	score, _ := f.Column("score")
	assert.Equal(t, []float64{80, 55, 61.5}, score)
}
