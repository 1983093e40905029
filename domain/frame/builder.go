package frame

import (
	"fmt"
	"math"
)

// Builder accumulates schema-typed rows into a Frame
type Builder struct {
	schema Schema
	cols   [][]float64
	rows   int
}

// NewBuilder creates a builder for the given schema
func NewBuilder(schema Schema) (*Builder, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Builder{
		schema: schema,
		cols:   make([][]float64, len(schema)),
	}, nil
}

// Append adds one row; values are given in schema order. Bool columns accept
// bool (coerced to 0/1) or a numeric 0/1; numeric columns accept Go numbers.
func (b *Builder) Append(values ...any) error {
	if len(values) != len(b.schema) {
		return fmt.Errorf("row %d has %d values, schema has %d columns", b.rows, len(values), len(b.schema))
	}
	row := make([]float64, len(values))
	for i, v := range values {
		f, err := coerce(b.schema[i], v)
		if err != nil {
			return fmt.Errorf("row %d: %w", b.rows, err)
		}
		row[i] = f
	}
	for i, f := range row {
		b.cols[i] = append(b.cols[i], f)
	}
	b.rows++
	return nil
}

// Frame returns the accumulated frame
func (b *Builder) Frame() *Frame {
	f, _ := New(b.rows, b.schema.Names(), b.cols)
	return f
}

func coerce(col Column, v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case bool:
		if x {
			f = 1
		}
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case float32:
		f = float64(x)
	case float64:
		f = x
	case nil:
		f = math.NaN()
	default:
		return 0, fmt.Errorf("column %q: unsupported value type %T", col.Name, v)
	}
	if col.Type == Bool && f != 0 && f != 1 {
		return 0, fmt.Errorf("column %q: bool column got %v", col.Name, v)
	}
	return f, nil
}
