// Package model is the boundary to the pre-trained price regressor. The
// regressor is opaque to the rest of the system: it takes an encoded vector
// and returns a price.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/yash/flightprice/internal/encoding"
)

// Predictor returns a price for one encoded feature vector.
type Predictor interface {
	Predict(ctx context.Context, v encoding.Vector) (float64, error)
}

// ColumnProvider is implemented by predictors that know the column list
// they were trained on.
type ColumnProvider interface {
	Columns() []string
}

// PredictorFunc adapts a plain function to Predictor.
type PredictorFunc func(ctx context.Context, v encoding.Vector) (float64, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, v encoding.Vector) (float64, error) {
	return f(ctx, v)
}

// ErrWidthMismatch is returned when a vector does not match the model width.
var ErrWidthMismatch = errors.New("vector width does not match model")

// ---------------------------------------------------------------------------
// Model file
// ---------------------------------------------------------------------------

// Kind names a supported model export format.
type Kind string

const (
	KindDecisionTree Kind = "decision_tree"
	KindLinear       Kind = "linear"
)

// File is the JSON export of a trained regressor.
type File struct {
	Kind    Kind       `json:"kind"`
	Name    string     `json:"name,omitempty"`
	Columns []string   `json:"columns"`
	Nodes   []TreeNode `json:"nodes,omitempty"`

	Intercept    float64            `json:"intercept,omitempty"`
	Coefficients map[string]float64 `json:"coefficients,omitempty"`
}

// Load reads a model export from disk.
func Load(path string) (Predictor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a model export and builds the matching predictor.
func Decode(r io.Reader) (Predictor, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(f.Columns) == 0 {
		return nil, errors.New("model: no columns")
	}

	switch f.Kind {
	case KindDecisionTree:
		return NewDecisionTree(f.Columns, f.Nodes)
	case KindLinear:
		return NewLinear(f.Columns, f.Intercept, f.Coefficients)
	default:
		return nil, fmt.Errorf("model: unsupported kind %q", f.Kind)
	}
}

// checkWidth validates the vector against a trained column list.
func checkWidth(columns []string, v encoding.Vector) error {
	if v.Len() != len(columns) {
		return fmt.Errorf("%w: got %d, want %d", ErrWidthMismatch, v.Len(), len(columns))
	}
	return nil
}

func finite(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("model produced non-finite price %v", price)
	}
	return nil
}
