// Package model defines the types exchanged by the modeling engine: model
// kinds, fitted parameters, metric bundles, artifacts and prediction rows.
package model

import (
	"fmt"
	"strings"

	"studentperf/domain/core"
)

// Kind selects the link function of a binary model
type Kind string

const (
	Logit  Kind = "logit"
	Probit Kind = "probit"
)

// ParseKind accepts logit or probit in any case
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Logit:
		return Logit, nil
	case Probit:
		return Probit, nil
	}
	return "", fmt.Errorf("%w: %q (use logit or probit)", core.ErrInvalidModelKind, s)
}

func (k Kind) String() string { return string(k) }

// FixPolicy is how non-target covariates are held fixed for marginal effects
type FixPolicy string

const (
	FixMedian FixPolicy = "median"
	FixMean   FixPolicy = "mean"
)

// ParseFixPolicy defaults to median for an empty string
func ParseFixPolicy(s string) (FixPolicy, error) {
	switch FixPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FixMedian:
		return FixMedian, nil
	case FixMean:
		return FixMean, nil
	}
	return "", fmt.Errorf("unknown fix policy %q (use mean or median)", s)
}
