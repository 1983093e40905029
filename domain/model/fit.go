package model

import "encoding/json"

// InterceptName is the coefficient name of the constant term
const InterceptName = "const"

// CovariateSummary holds the training mean and median of every feature,
// aligned with Features. Marginal effects fix covariates from it.
type CovariateSummary struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Median   []float64 `json:"median"`
}

// Value returns the fixed value for a feature under a policy
func (s *CovariateSummary) Value(feature string, policy FixPolicy) (float64, bool) {
	for i, f := range s.Features {
		if f == feature {
			if policy == FixMean {
				return s.Mean[i], true
			}
			return s.Median[i], true
		}
	}
	return 0, false
}

// FitResult is the outcome of a maximum-likelihood fit. It is the persisted
// weights object of a model artifact.
type FitResult struct {
	Kind      Kind     `json:"kind"`
	Intercept bool     `json:"intercept"`
	Names     []string `json:"names"`

	Coefficients []float64 `json:"-"`
	StdErrors    []float64 `json:"-"`
	PValues      []float64 `json:"-"`

	// Converged is false when the optimizer reported failure; the weights are
	// then the best point found. Degraded is set when standard errors could
	// not be derived from the curvature at the optimum.
	Converged  bool   `json:"converged"`
	Degraded   bool   `json:"degraded"`
	Status     string `json:"status"`
	Iterations int    `json:"iterations"`

	NObs              int     `json:"nobs"`
	LogLikelihood     float64 `json:"log_likelihood"`
	NullLogLikelihood float64 `json:"null_log_likelihood"`

	Covariates *CovariateSummary `json:"covariates,omitempty"`
}

// FeatureNames returns coefficient names without the intercept
func (r *FitResult) FeatureNames() []string {
	var out []string
	for _, n := range r.Names {
		if r.Intercept && n == InterceptName {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Coefficient returns the weight of a named coefficient
func (r *FitResult) Coefficient(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Coefficients[i], true
		}
	}
	return 0, false
}

type fitResultJSON FitResult

type fitResultWire struct {
	*fitResultJSON
	Coefficients []float64 `json:"coefficients"`
	StdErrors    []Float   `json:"std_errors"`
	PValues      []Float   `json:"p_values"`
}

func (r FitResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(fitResultWire{
		fitResultJSON: (*fitResultJSON)(&r),
		Coefficients:  r.Coefficients,
		StdErrors:     floats(r.StdErrors),
		PValues:       floats(r.PValues),
	})
}

func (r *FitResult) UnmarshalJSON(data []byte) error {
	wire := fitResultWire{fitResultJSON: (*fitResultJSON)(r)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.Coefficients = wire.Coefficients
	r.StdErrors = unfloats(wire.StdErrors)
	r.PValues = unfloats(wire.PValues)
	return nil
}
