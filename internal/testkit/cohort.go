package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"studentperf/domain/core"
	"studentperf/domain/model"
)

// CohortConfig configures the synthetic cohort generator
type CohortConfig struct {
	Students    int              `json:"students"`
	DirectionID core.DirectionID `json:"direction_id"`
	FirstID     core.StudentID   `json:"first_id"`
	Seed        int64            `json:"seed"`
}

// DefaultCohortConfig returns a mid-sized cohort
func DefaultCohortConfig() CohortConfig {
	return CohortConfig{
		Students:    300,
		DirectionID: 1,
		FirstID:     1,
		Seed:        42,
	}
}

// CohortGenerator produces students whose session outcomes follow a latent
// logistic model of their entrance scores, so fitted models recover
// positive score effects
type CohortGenerator struct {
	config CohortConfig
	rng    *rand.Rand
}

// NewCohortGenerator creates a new generator
func NewCohortGenerator(config CohortConfig) *CohortGenerator {
	return &CohortGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns the cohort
func (g *CohortGenerator) Generate() []model.Student {
	students := make([]model.Student, g.config.Students)
	for i := range students {
		mathScore := g.score(62, 14)
		russian := g.score(68, 12)
		third := g.score(60, 15)
		s := model.Student{
			ID:           g.config.FirstID + core.StudentID(i),
			FullName:     fmt.Sprintf("Student %04d", i+1),
			MathScore:    mathScore,
			RussianScore: russian,
			EgeScore:     mathScore + russian + third,
			DirectionID:  g.config.DirectionID,
		}
		ability := 0.06*float64(mathScore-62) + 0.04*float64(russian-68)
		s.Session1Passed = g.bernoulli(0.8 + ability)
		s.Session2Passed = g.bernoulli(0.4 + ability + boolTerm(s.Session1Passed, 0.9))
		s.Session3Passed = g.bernoulli(0.2 + ability + boolTerm(s.Session2Passed, 1.1))
		s.Session4Passed = g.bernoulli(-0.3 + ability + boolTerm(s.Session3Passed, 1.2))
		students[i] = s
	}
	return students
}

func (g *CohortGenerator) score(mean, sd float64) int {
	v := int(math.Round(mean + sd*g.rng.NormFloat64()))
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (g *CohortGenerator) bernoulli(z float64) bool {
	return g.rng.Float64() < 1/(1+math.Exp(-z))
}

func boolTerm(b bool, w float64) float64 {
	if b {
		return w
	}
	return 0
}
