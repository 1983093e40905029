package glm

import (
	"fmt"

	"studentperf/domain/core"
	"studentperf/domain/frame"
	"studentperf/domain/model"
)

// MarginalEffectAt returns dP/dx of feature at every scan value, with the
// other covariates fixed at their training mean or median.
func (c *Classifier) MarginalEffectAt(feature string, scan []float64, policy model.FixPolicy) ([]float64, error) {
	if c.result == nil {
		return nil, core.ErrModelNotFitted
	}
	r := c.result
	if (r.Intercept && feature == model.InterceptName) || !contains(r.FeatureNames(), feature) {
		return nil, core.NewUnknownFeatureError(feature)
	}
	if r.Covariates == nil {
		return nil, fmt.Errorf("marginal effect of %q: model carries no training covariates", feature)
	}
	if policy == "" {
		policy = model.FixMedian
	}

	base := 0.0
	var beta float64
	for i, name := range r.Names {
		w := r.Coefficients[i]
		switch {
		case r.Intercept && name == model.InterceptName:
			base += w
		case name == feature:
			beta = w
		default:
			v, ok := r.Covariates.Value(name, policy)
			if !ok {
				return nil, fmt.Errorf("marginal effect of %q: no fixed value for %q", feature, name)
			}
			base += w * v
		}
	}

	effects := make([]float64, len(scan))
	for i, x := range scan {
		effects[i] = c.link.Density(base+beta*x) * beta
	}
	return effects, nil
}

// RowMarginalEffects returns density(z_i)·β_j for every row i and every
// non-intercept feature j
func (c *Classifier) RowMarginalEffects(X *frame.Frame) ([][]float64, error) {
	z, err := c.linearPredictor(X)
	if err != nil {
		return nil, err
	}
	w := c.result.Coefficients
	offset := 0
	if c.result.Intercept {
		offset = 1
	}
	out := make([][]float64, len(z))
	for i, zi := range z {
		d := c.link.Density(zi)
		row := make([]float64, len(w)-offset)
		for j := range row {
			row[j] = d * w[j+offset]
		}
		out[i] = row
	}
	return out, nil
}

// AverageMarginalEffect averages the per-row marginal effects over X: the
// density is evaluated at every row and then averaged, not at the mean row.
func (c *Classifier) AverageMarginalEffect(X *frame.Frame) ([]model.FeatureEffect, error) {
	rows, err := c.RowMarginalEffects(X)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.NewTrainingDataError("average marginal effect needs at least one row")
	}
	features := c.result.FeatureNames()
	out := make([]model.FeatureEffect, len(features))
	for j, name := range features {
		sum := 0.0
		for _, row := range rows {
			sum += row[j]
		}
		out[j] = model.FeatureEffect{Feature: name, Effect: sum / float64(len(rows))}
	}
	return out, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
