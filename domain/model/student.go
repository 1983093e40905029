package model

import (
	"fmt"

	"studentperf/domain/core"
	"studentperf/domain/frame"
)

// Student is an academic record within a direction
type Student struct {
	ID             core.StudentID   `db:"id" json:"id"`
	FullName       string           `db:"full_name" json:"full_name"`
	MathScore      int              `db:"math_score" json:"math_score"`
	RussianScore   int              `db:"russian_score" json:"russian_score"`
	EgeScore       int              `db:"ege_score" json:"ege_score"`
	Session1Passed bool             `db:"session_1_passed" json:"session_1_passed"`
	Session2Passed bool             `db:"session_2_passed" json:"session_2_passed"`
	Session3Passed bool             `db:"session_3_passed" json:"session_3_passed"`
	Session4Passed bool             `db:"session_4_passed" json:"session_4_passed"`
	DirectionID    core.DirectionID `db:"direction_id" json:"direction_id"`
}

// StudentSchema is the catalogue of student columns usable as features or targets
var StudentSchema = frame.Schema{
	{Name: "math_score", Type: frame.Numeric},
	{Name: "russian_score", Type: frame.Numeric},
	{Name: "ege_score", Type: frame.Numeric},
	{Name: "session_1_passed", Type: frame.Bool},
	{Name: "session_2_passed", Type: frame.Bool},
	{Name: "session_3_passed", Type: frame.Bool},
	{Name: "session_4_passed", Type: frame.Bool},
}

// Value returns the raw value of a catalogue column
func (s *Student) Value(column string) (any, error) {
	switch column {
	case "math_score":
		return s.MathScore, nil
	case "russian_score":
		return s.RussianScore, nil
	case "ege_score":
		return s.EgeScore, nil
	case "session_1_passed":
		return s.Session1Passed, nil
	case "session_2_passed":
		return s.Session2Passed, nil
	case "session_3_passed":
		return s.Session3Passed, nil
	case "session_4_passed":
		return s.Session4Passed, nil
	}
	return nil, core.NewUnknownFeatureError(column)
}

// StudentColumns resolves column names against the catalogue, keeping order
func StudentColumns(names ...string) (frame.Schema, error) {
	out := make(frame.Schema, 0, len(names))
	for _, name := range names {
		found := false
		for _, c := range StudentSchema {
			if c.Name == name {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			return nil, core.NewUnknownFeatureError(name)
		}
	}
	return out, out.Validate()
}

// StudentFrame builds a frame of the named columns, one row per student
func StudentFrame(students []Student, columns ...string) (*frame.Frame, error) {
	schema, err := StudentColumns(columns...)
	if err != nil {
		return nil, err
	}
	b, err := frame.NewBuilder(schema)
	if err != nil {
		return nil, err
	}
	for i := range students {
		values := make([]any, len(columns))
		for j, col := range columns {
			if values[j], err = students[i].Value(col); err != nil {
				return nil, err
			}
		}
		if err := b.Append(values...); err != nil {
			return nil, fmt.Errorf("student %d: %w", students[i].ID, err)
		}
	}
	return b.Frame(), nil
}
