// Package frame holds the typed, column-ordered feature matrices and target
// vectors the modeling engine consumes. Dynamic row data enters through a
// Schema and is validated once, at the Builder boundary.
package frame

import (
	"fmt"
	"math"
	"math/rand"

	"studentperf/domain/core"
)

// ColumnType is the declared type of a schema column
type ColumnType int

const (
	Numeric ColumnType = iota
	Bool
)

func (t ColumnType) String() string {
	if t == Bool {
		return "bool"
	}
	return "numeric"
}

// Column is one entry of an ordered schema
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered list of columns of a frame
type Schema []Column

// Names returns the column names in schema order
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Validate checks that column names are present and unique
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, c := range s {
		if c.Name == "" {
			return fmt.Errorf("schema column name cannot be empty")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate schema column %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// Frame is an immutable set of named float64 columns with a fixed row count.
// The row count is explicit so a frame without columns still has a shape.
type Frame struct {
	names []string
	index map[string]int
	cols  [][]float64
	rows  int
}

// New creates a frame from column-major data. Columns are copied.
func New(rows int, names []string, cols [][]float64) (*Frame, error) {
	if rows < 0 {
		return nil, fmt.Errorf("row count cannot be negative")
	}
	if len(names) != len(cols) {
		return nil, fmt.Errorf("got %d column names for %d columns", len(names), len(cols))
	}
	f := &Frame{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
		cols:  make([][]float64, len(cols)),
		rows:  rows,
	}
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := f.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		if len(cols[i]) != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", name, len(cols[i]), rows)
		}
		f.names[i] = name
		f.index[name] = i
		f.cols[i] = append([]float64(nil), cols[i]...)
	}
	return f, nil
}

// Empty returns a frame with rows rows and no columns
func Empty(rows int) *Frame {
	f, _ := New(rows, nil, nil)
	return f
}

// Rows returns the row count
func (f *Frame) Rows() int { return f.rows }

// Width returns the column count
func (f *Frame) Width() int { return len(f.names) }

// Names returns a copy of the ordered column names
func (f *Frame) Names() []string {
	return append([]string(nil), f.names...)
}

// Has reports whether the frame contains a column
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns a copy of the named column
func (f *Frame) Column(name string) ([]float64, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, core.NewUnknownFeatureError(name)
	}
	return append([]float64(nil), f.cols[i]...), nil
}

// At returns the value at row r, column c
func (f *Frame) At(r, c int) float64 {
	return f.cols[c][r]
}

// Row returns row r in column order
func (f *Frame) Row(r int) []float64 {
	row := make([]float64, len(f.cols))
	for c := range f.cols {
		row[c] = f.cols[c][r]
	}
	return row
}

// Select returns a frame with the named columns in the given order
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([][]float64, len(names))
	for i, name := range names {
		j, ok := f.index[name]
		if !ok {
			return nil, core.NewUnknownFeatureError(name)
		}
		cols[i] = f.cols[j]
	}
	return New(f.rows, names, cols)
}

// Drop returns a frame without the named columns; absent names are ignored
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	var keep []string
	for _, n := range f.names {
		if !skip[n] {
			keep = append(keep, n)
		}
	}
	out, _ := f.Select(keep...)
	return out
}

// Take returns the rows at the given indices, in that order
func (f *Frame) Take(idx []int) *Frame {
	cols := make([][]float64, len(f.cols))
	for c, col := range f.cols {
		out := make([]float64, len(idx))
		for i, r := range idx {
			out[i] = col[r]
		}
		cols[c] = out
	}
	out, _ := New(len(idx), f.names, cols)
	return out
}

// WithColumn returns a copy of the frame with a column appended or replaced
func (f *Frame) WithColumn(name string, values []float64) (*Frame, error) {
	names := f.Names()
	cols := append([][]float64(nil), f.cols...)
	if i, ok := f.index[name]; ok {
		cols[i] = values
	} else {
		names = append(names, name)
		cols = append(cols, values)
	}
	return New(f.rows, names, cols)
}

// HasSameColumns reports whether names equals the frame columns, order included
func (f *Frame) HasSameColumns(names []string) bool {
	if len(names) != len(f.names) {
		return false
	}
	for i := range names {
		if names[i] != f.names[i] {
			return false
		}
	}
	return true
}

// CheckFinite returns an error naming the first NaN or infinite cell
func (f *Frame) CheckFinite() error {
	for c, col := range f.cols {
		for r, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("column %q row %d is not finite", f.names[c], r)
			}
		}
	}
	return nil
}

// Target is a vector of {0,1} labels
type Target []float64

// NewTarget validates that every label is 0 or 1
func NewTarget(values []float64) (Target, error) {
	for i, v := range values {
		if v != 0 && v != 1 {
			return nil, core.NewTrainingDataError(fmt.Sprintf("label %v at row %d is not 0 or 1", v, i))
		}
	}
	return Target(append([]float64(nil), values...)), nil
}

// Mean returns the share of positive labels; NaN for an empty target
func (t Target) Mean() float64 {
	if len(t) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range t {
		sum += v
	}
	return sum / float64(len(t))
}

// IsDegenerate reports whether every label is equal
func (t Target) IsDegenerate() bool {
	for i := 1; i < len(t); i++ {
		if t[i] != t[0] {
			return false
		}
	}
	return true
}

// Take returns the labels at the given indices
func (t Target) Take(idx []int) Target {
	out := make(Target, len(idx))
	for i, r := range idx {
		out[i] = t[r]
	}
	return out
}

// SplitIndices shuffles 0..n-1 with a seeded source and splits off
// ceil(testFraction*n) rows for the test set, keeping at least one training row.
func SplitIndices(n int, testFraction float64, seed int64) (train, test []int) {
	if n == 0 {
		return nil, nil
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest < 0 {
		nTest = 0
	}
	if nTest > n-1 {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}
