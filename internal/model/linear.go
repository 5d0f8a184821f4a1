package model

import (
	"context"
	"fmt"

	"github.com/yash/flightprice/internal/encoding"
)

// Linear is a fitted linear regressor: intercept + Σ w_i·x_i.
type Linear struct {
	columns   []string
	weights   []float64
	intercept float64
}

// NewLinear aligns named coefficients with the column order. Columns without
// a coefficient get weight zero; a coefficient for an unknown column is an
// error.
func NewLinear(columns []string, intercept float64, coefficients map[string]float64) (*Linear, error) {
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		pos[c] = i
	}

	m := &Linear{
		columns:   make([]string, len(columns)),
		weights:   make([]float64, len(columns)),
		intercept: intercept,
	}
	copy(m.columns, columns)

	for name, w := range coefficients {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("linear: coefficient for unknown column %q", name)
		}
		m.weights[i] = w
	}
	return m, nil
}

// Columns returns the training-time column list.
func (m *Linear) Columns() []string {
	out := make([]string, len(m.columns))
	copy(out, m.columns)
	return out
}

// Predict computes the dot product for one vector.
func (m *Linear) Predict(ctx context.Context, v encoding.Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkWidth(m.columns, v); err != nil {
		return 0, err
	}

	y := m.intercept
	for i, w := range m.weights {
		y += w * v.At(i)
	}
	if err := finite(y); err != nil {
		return 0, err
	}
	return y, nil
}
