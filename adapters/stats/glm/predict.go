package glm

import (
	"fmt"

	"studentperf/adapters/stats/link"
	"studentperf/domain/core"
	"studentperf/domain/frame"
)

// linearPredictor returns X·w for a frame whose columns match the fit
func (c *Classifier) linearPredictor(X *frame.Frame) ([]float64, error) {
	if c.result == nil {
		return nil, core.ErrModelNotFitted
	}
	features := c.result.FeatureNames()
	if !X.HasSameColumns(features) {
		return nil, core.NewFeatureMismatchError(features, X.Names())
	}
	w := c.result.Coefficients
	offset := 0
	if c.result.Intercept {
		offset = 1
	}
	z := make([]float64, X.Rows())
	for r := range z {
		if offset == 1 {
			z[r] = w[0]
		}
		for j := 0; j < X.Width(); j++ {
			z[r] += w[j+offset] * X.At(r, j)
		}
	}
	return z, nil
}

// PredictProba returns P(y=1) per row
func (c *Classifier) PredictProba(X *frame.Frame) ([]float64, error) {
	z, err := c.linearPredictor(X)
	if err != nil {
		return nil, err
	}
	p := make([]float64, len(z))
	for i, v := range z {
		p[i] = c.link.Activate(v)
	}
	return p, nil
}

// Predict returns the class per row; a probability of exactly 0.5 is class 1
func (c *Classifier) Predict(X *frame.Frame) ([]int, error) {
	p, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return Classify(p), nil
}

// Classify thresholds probabilities at 0.5
func Classify(p []float64) []int {
	out := make([]int, len(p))
	for i, v := range p {
		if v >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

// LogLikelihoodFull is the log-likelihood of (X, y) at the fitted weights
func (c *Classifier) LogLikelihoodFull(X *frame.Frame, y frame.Target) (float64, error) {
	p, err := c.PredictProba(X)
	if err != nil {
		return 0, err
	}
	if len(p) != len(y) {
		return 0, fmt.Errorf("%d rows for %d labels", len(p), len(y))
	}
	ll := 0.0
	for i := range p {
		ll += link.LogLikelihood(y[i], p[i])
	}
	return ll, nil
}

// LogLikelihoodNull is the log-likelihood of y under the intercept-only model
// of this classifier's link. It does not depend on the fitted weights.
func (c *Classifier) LogLikelihoodNull(y frame.Target) float64 {
	return nullLogLikelihood(c.link, y)
}
