package link

import (
	"math"
	"testing"

	"studentperf/domain/core"
	"studentperf/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateAtZero(t *testing.T) {
	for _, l := range []Link{Logit{}, Probit{}} {
		assert.Equal(t, 0.5, l.Activate(0), "%s activate(0)", l.Kind())
	}
}

func TestDensitySymmetry(t *testing.T) {
	for _, l := range []Link{Logit{}, Probit{}} {
		for _, z := range []float64{0.1, 0.5, 1, 2.5, 7, 30} {
			assert.InDelta(t, l.Density(z), l.Density(-z), 1e-15, "%s density(%v)", l.Kind(), z)
			assert.GreaterOrEqual(t, l.Density(z), 0.0)
		}
	}
}

func TestActivateIsStableForLargeInputs(t *testing.T) {
	for _, l := range []Link{Logit{}, Probit{}} {
		for _, z := range []float64{-1e6, -800, 800, 1e6} {
			p := l.Activate(z)
			assert.False(t, math.IsNaN(p), "%s activate(%v) is NaN", l.Kind(), z)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
		}
	}
	assert.Equal(t, 1.0, Logit{}.Activate(math.Inf(1)))
	assert.Equal(t, 0.0, Logit{}.Activate(math.Inf(-1)))
}

func TestNullInterceptInvertsActivate(t *testing.T) {
	for _, l := range []Link{Logit{}, Probit{}} {
		for _, ybar := range []float64{0.1, 0.37, 0.5, 0.9} {
			assert.InDelta(t, ybar, l.Activate(l.NullIntercept(ybar)), 1e-12)
		}
	}
}

func TestLogLikelihoodIsFiniteAtBounds(t *testing.T) {
	assert.InDelta(t, math.Log(Epsilon), LogLikelihood(1, 0), 1e-12)
	assert.InDelta(t, math.Log(Epsilon), LogLikelihood(0, 1), 1e-12)
	assert.InDelta(t, math.Log(1-Epsilon), LogLikelihood(1, 1), 1e-15)
}

func TestFor(t *testing.T) {
	l, err := For(model.Probit)
	require.NoError(t, err)
	assert.Equal(t, model.Probit, l.Kind())

	_, err = For(model.Kind("tobit"))
	assert.ErrorIs(t, err, core.ErrInvalidModelKind)
}
