package glm

import (
	"fmt"
	"math"

	"studentperf/adapters/stats/link"
	"studentperf/domain/core"
	"studentperf/domain/frame"
	"studentperf/domain/model"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// Fit estimates the weights by minimizing the negative log-likelihood with
// BFGS from a zero start.
//
// When the optimizer fails the best point found is kept: the returned result
// is usable, has Converged=false, and the returned error wraps
// core.ErrOptimizationDidNotConverge. Any other error leaves the classifier
// unchanged.
func (c *Classifier) Fit(X *frame.Frame, y frame.Target) (*model.FitResult, error) {
	if err := c.validateTraining(X, y); err != nil {
		return nil, err
	}

	names := X.Names()
	if c.intercept {
		names = append([]string{model.InterceptName}, names...)
	}
	design := designMatrix(X, c.intercept)
	obj := &objective{link: c.link, x: design, y: y}

	problem := optimize.Problem{
		Func: obj.negLogLikelihood,
		Grad: obj.gradient,
	}
	settings := &optimize.Settings{GradientThreshold: c.gradTol}
	init := make([]float64, len(names))

	res, optErr := optimize.Minimize(problem, init, settings, &optimize.BFGS{})

	weights := init
	status := "Failure"
	iterations := 0
	if res != nil && res.X != nil {
		weights = append([]float64(nil), res.X...)
		status = res.Status.String()
		iterations = res.MajorIterations
	}

	grad := make([]float64, len(weights))
	obj.gradient(grad, weights)
	stationary := floats.Norm(grad, math.Inf(1)) <= c.gradTol
	converged := stationary || (optErr == nil && res != nil && !res.Status.Early())

	stdErrs, pValues, ok := obj.waldStatistics(weights)

	covariates, err := summarize(X)
	if err != nil {
		return nil, core.NewTrainingDataError(err.Error())
	}

	result := &model.FitResult{
		Kind:              c.link.Kind(),
		Intercept:         c.intercept,
		Names:             names,
		Coefficients:      weights,
		StdErrors:         stdErrs,
		PValues:           pValues,
		Converged:         converged,
		Degraded:          !converged || !ok,
		Status:            status,
		Iterations:        iterations,
		NObs:              len(y),
		LogLikelihood:     -obj.negLogLikelihood(weights),
		NullLogLikelihood: nullLogLikelihood(c.link, y),
		Covariates:        covariates,
	}
	c.result = result

	if !converged {
		if optErr == nil {
			optErr = fmt.Errorf("terminated with status %s", status)
		}
		return result, fmt.Errorf("%w: %s model: %v", core.ErrOptimizationDidNotConverge, c.link.Kind(), optErr)
	}
	return result, nil
}

func (c *Classifier) validateTraining(X *frame.Frame, y frame.Target) error {
	if X == nil {
		return core.NewTrainingDataError("feature frame is nil")
	}
	if X.Rows() == 0 {
		return core.NewTrainingDataError("no training rows")
	}
	if X.Rows() != len(y) {
		return core.NewTrainingDataError(fmt.Sprintf("%d feature rows for %d labels", X.Rows(), len(y)))
	}
	if !c.intercept && X.Width() == 0 {
		return core.NewTrainingDataError("no features and no intercept")
	}
	if c.intercept && X.Has(model.InterceptName) {
		return core.NewTrainingDataError(fmt.Sprintf("feature name %q is reserved for the intercept", model.InterceptName))
	}
	if err := X.CheckFinite(); err != nil {
		return core.NewTrainingDataError(err.Error())
	}
	if _, err := frame.NewTarget(y); err != nil {
		return err
	}
	if y.IsDegenerate() {
		return fmt.Errorf("%w: %v", core.ErrInvalidTrainingData, core.ErrDegenerateTarget)
	}
	return nil
}

// designMatrix lays out the rows of X with the constant column first
func designMatrix(X *frame.Frame, intercept bool) *mat.Dense {
	k := X.Width()
	offset := 0
	if intercept {
		k++
		offset = 1
	}
	d := mat.NewDense(X.Rows(), k, nil)
	for r := 0; r < X.Rows(); r++ {
		if intercept {
			d.Set(r, 0, 1)
		}
		for c := 0; c < X.Width(); c++ {
			d.Set(r, c+offset, X.At(r, c))
		}
	}
	return d
}

type objective struct {
	link link.Link
	x    *mat.Dense
	y    frame.Target
}

func (o *objective) negLogLikelihood(w []float64) float64 {
	n, _ := o.x.Dims()
	ll := 0.0
	for i := 0; i < n; i++ {
		ll += link.LogLikelihood(o.y[i], o.link.Activate(floats.Dot(o.x.RawRowView(i), w)))
	}
	return -ll
}

// gradient of the clipped negative log-likelihood. Rows whose probability
// is clipped have a flat contribution.
func (o *objective) gradient(grad, w []float64) {
	for j := range grad {
		grad[j] = 0
	}
	n, _ := o.x.Dims()
	for i := 0; i < n; i++ {
		row := o.x.RawRowView(i)
		z := floats.Dot(row, w)
		p := o.link.Activate(z)
		if p < link.Epsilon || p > 1-link.Epsilon {
			continue
		}
		yi := o.y[i]
		var d float64
		switch o.link.(type) {
		case link.Logit:
			d = yi - p
		default:
			d = o.link.Density(z) * (yi/p - (1-yi)/(1-p))
		}
		floats.AddScaled(grad, -d, row)
	}
}

// information returns the negative Hessian of the log-likelihood at w
func (o *objective) information(w []float64) *mat.SymDense {
	n, k := o.x.Dims()
	info := mat.NewSymDense(k, nil)
	for i := 0; i < n; i++ {
		row := o.x.RawRowView(i)
		z := floats.Dot(row, w)
		var weight float64
		switch o.link.(type) {
		case link.Logit:
			weight = o.link.Density(z)
		default:
			q := 2*o.y[i] - 1
			lambda := q * o.link.Density(q*z) / link.Clip(o.link.Activate(q*z))
			weight = lambda * (lambda + z)
		}
		info.SymRankOne(info, weight, mat.NewVecDense(k, row))
	}
	return info
}

// waldStatistics derives standard errors from the inverse information matrix
// and two-sided normal p-values. ok is false when the matrix is not
// invertible; the statistics are then NaN.
func (o *objective) waldStatistics(w []float64) (stdErrs, pValues []float64, ok bool) {
	k := len(w)
	stdErrs = make([]float64, k)
	pValues = make([]float64, k)
	for i := range stdErrs {
		stdErrs[i], pValues[i] = math.NaN(), math.NaN()
	}

	var chol mat.Cholesky
	if !chol.Factorize(o.information(w)) {
		return stdErrs, pValues, false
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return stdErrs, pValues, false
	}
	for i := 0; i < k; i++ {
		v := cov.At(i, i)
		if v <= 0 || math.IsNaN(v) {
			return stdErrs, pValues, false
		}
		stdErrs[i] = math.Sqrt(v)
		pValues[i] = 2 * distuv.UnitNormal.Survival(math.Abs(w[i]/stdErrs[i]))
	}
	return stdErrs, pValues, true
}

// nullLogLikelihood is the log-likelihood of the intercept-only model with
// its closed-form intercept
func nullLogLikelihood(l link.Link, y frame.Target) float64 {
	p := l.Activate(l.NullIntercept(y.Mean()))
	ll := 0.0
	for _, yi := range y {
		ll += link.LogLikelihood(yi, p)
	}
	return ll
}
