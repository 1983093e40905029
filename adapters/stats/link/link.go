// Package link implements the logit and probit link functions of binary
// response models.
package link

import (
	"math"

	"studentperf/domain/model"

	"gonum.org/v1/gonum/stat/distuv"
)

// Epsilon bounds every probability away from 0 and 1 before a logarithm is taken.
const Epsilon = 1e-10

// Link maps a linear predictor to a probability
type Link interface {
	Kind() model.Kind
	// Activate returns P(y=1) for the linear predictor z
	Activate(z float64) float64
	// Density returns dP/dz at z
	Density(z float64) float64
	// NullIntercept is the intercept-only estimate for a positive share ybar
	NullIntercept(ybar float64) float64
}

// For returns the link of a model kind
func For(kind model.Kind) (Link, error) {
	switch kind {
	case model.Logit:
		return Logit{}, nil
	case model.Probit:
		return Probit{}, nil
	}
	_, err := model.ParseKind(string(kind))
	return nil, err
}

// Logit is the logistic link
type Logit struct{}

func (Logit) Kind() model.Kind { return model.Logit }

// Activate is a sigmoid that never evaluates exp of a large positive number
func (Logit) Activate(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func (l Logit) Density(z float64) float64 {
	p := l.Activate(z)
	return p * (1 - p)
}

func (Logit) NullIntercept(ybar float64) float64 {
	return math.Log(ybar / (1 - ybar))
}

// Probit is the standard normal link
type Probit struct{}

func (Probit) Kind() model.Kind { return model.Probit }

func (Probit) Activate(z float64) float64 {
	return distuv.UnitNormal.CDF(z)
}

func (Probit) Density(z float64) float64 {
	return distuv.UnitNormal.Prob(z)
}

func (Probit) NullIntercept(ybar float64) float64 {
	return distuv.UnitNormal.Quantile(ybar)
}

// Clip bounds p to [Epsilon, 1-Epsilon]
func Clip(p float64) float64 {
	if p < Epsilon {
		return Epsilon
	}
	if p > 1-Epsilon {
		return 1 - Epsilon
	}
	return p
}

// LogLikelihood is the Bernoulli log-likelihood of one observation
func LogLikelihood(y, p float64) float64 {
	p = Clip(p)
	return y*math.Log(p) + (1-y)*math.Log(1-p)
}
