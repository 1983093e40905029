package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Model lifecycle errors
	ErrInvalidModelKind           = errors.New("invalid model kind")
	ErrModelNotFitted             = errors.New("model is not fitted")
	ErrOptimizationDidNotConverge = errors.New("optimization did not converge")

	// Data errors
	ErrFeatureMismatch     = errors.New("feature columns do not match fitted columns")
	ErrUnknownFeature      = errors.New("unknown feature")
	ErrInvalidTrainingData = errors.New("invalid training data")
	ErrDegenerateTarget    = errors.New("target has zero variance")

	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrArtifactNotFound = fmt.Errorf("%w: model artifact", ErrNotFound)
	ErrModelNotFound    = fmt.Errorf("%w: model", ErrNotFound)
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewFeatureMismatchError(want, got []string) error {
	return fmt.Errorf("%w: fitted %v, got %v", ErrFeatureMismatch, want, got)
}

func NewUnknownFeatureError(name string) error {
	return fmt.Errorf("%w: %q is not among fitted coefficients", ErrUnknownFeature, name)
}

func NewTrainingDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidTrainingData, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidModelKind) ||
		errors.Is(err, ErrFeatureMismatch) ||
		errors.Is(err, ErrUnknownFeature) ||
		errors.Is(err, ErrInvalidTrainingData)
}
