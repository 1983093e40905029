// Package glm fits binary generalized linear models (logit and probit) by
// maximum likelihood and derives predictions, likelihoods and marginal
// effects from the fitted weights.
package glm

import (
	"fmt"

	"studentperf/adapters/stats/link"
	"studentperf/domain/core"
	"studentperf/domain/frame"
	"studentperf/domain/model"

	"github.com/montanaflynn/stats"
)

// DefaultGradientTolerance is the sup-norm of the log-likelihood gradient
// below which a point is accepted as the optimum.
const DefaultGradientTolerance = 1e-5

// Option configures a Classifier
type Option func(*Classifier)

// WithoutIntercept fits the model without a constant term
func WithoutIntercept() Option {
	return func(c *Classifier) { c.intercept = false }
}

// WithGradientTolerance overrides DefaultGradientTolerance
func WithGradientTolerance(tol float64) Option {
	return func(c *Classifier) { c.gradTol = tol }
}

// Classifier is a logit or probit model. It is Unfit until Fit succeeds or
// it is rebuilt with Restore. A Classifier is owned by one caller at a time.
type Classifier struct {
	link      link.Link
	intercept bool
	gradTol   float64
	result    *model.FitResult
}

// New creates an unfit classifier of the given kind
func New(kind model.Kind, opts ...Option) (*Classifier, error) {
	kind, err := model.ParseKind(string(kind))
	if err != nil {
		return nil, err
	}
	l, err := link.For(kind)
	if err != nil {
		return nil, err
	}
	c := &Classifier{link: l, intercept: true, gradTol: DefaultGradientTolerance}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Restore rebuilds a fitted classifier from persisted parameters. When the
// parameters carry no covariate summary it is derived from train, if given.
func Restore(params *model.FitResult, train *frame.Frame) (*Classifier, error) {
	if params == nil {
		return nil, core.ErrModelNotFitted
	}
	c, err := New(params.Kind)
	if err != nil {
		return nil, err
	}
	if len(params.Names) != len(params.Coefficients) || len(params.Names) == 0 {
		return nil, fmt.Errorf("restore %s model: %d names for %d coefficients", params.Kind, len(params.Names), len(params.Coefficients))
	}
	if params.Intercept && params.Names[0] != model.InterceptName {
		return nil, fmt.Errorf("restore %s model: intercept must be the first coefficient", params.Kind)
	}
	restored := *params
	if restored.Covariates == nil && train != nil {
		sel, err := train.Select(restored.FeatureNames()...)
		if err != nil {
			return nil, fmt.Errorf("restore %s model: %w", params.Kind, err)
		}
		if restored.Covariates, err = summarize(sel); err != nil {
			return nil, fmt.Errorf("restore %s model: %w", params.Kind, err)
		}
	}
	c.intercept = restored.Intercept
	c.result = &restored
	return c, nil
}

// Kind returns the link kind
func (c *Classifier) Kind() model.Kind { return c.link.Kind() }

// Link returns the link function
func (c *Classifier) Link() link.Link { return c.link }

// IsFitted reports whether weights are available
func (c *Classifier) IsFitted() bool { return c.result != nil }

// Result returns the fitted parameters. Callers must not modify them.
func (c *Classifier) Result() (*model.FitResult, error) {
	if c.result == nil {
		return nil, core.ErrModelNotFitted
	}
	return c.result, nil
}

// FeatureNames returns the fitted feature columns, intercept excluded
func (c *Classifier) FeatureNames() []string {
	if c.result == nil {
		return nil
	}
	return c.result.FeatureNames()
}

// summarize computes per-column mean and median of a feature frame
func summarize(X *frame.Frame) (*model.CovariateSummary, error) {
	s := &model.CovariateSummary{
		Features: X.Names(),
		Mean:     make([]float64, X.Width()),
		Median:   make([]float64, X.Width()),
	}
	for i, name := range s.Features {
		col, _ := X.Column(name)
		mean, err := stats.Mean(col)
		if err != nil {
			return nil, fmt.Errorf("mean of %q: %w", name, err)
		}
		median, err := stats.Median(col)
		if err != nil {
			return nil, fmt.Errorf("median of %q: %w", name, err)
		}
		s.Mean[i], s.Median[i] = mean, median
	}
	return s, nil
}
