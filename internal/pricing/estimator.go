// Package pricing runs one flight price request end to end: validate,
// derive features, encode, invoke the model, and produce tips.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yash/flightprice/internal/encoding"
	"github.com/yash/flightprice/internal/features"
	"github.com/yash/flightprice/internal/metrics"
	"github.com/yash/flightprice/internal/model"
	"github.com/yash/flightprice/internal/tips"
)

// DefaultMinDurationMins rejects flights of 30 minutes or less.
const DefaultMinDurationMins = 30

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// ErrInvalidDuration matches any InvalidDurationError.
var ErrInvalidDuration = errors.New("invalid flight duration")

// InvalidDurationError reports a duration at or below the configured minimum.
type InvalidDurationError struct {
	DurationMins int
	MinMins      int
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("flight duration must be more than %d minutes, got %d", e.MinMins, e.DurationMins)
}

// Is lets callers match with errors.Is(err, ErrInvalidDuration).
func (e *InvalidDurationError) Is(target error) bool {
	return target == ErrInvalidDuration
}

// ModelInvocationError wraps a failure returned by the predictor. The
// underlying error stays reachable through errors.Is and errors.As.
type ModelInvocationError struct {
	Err error
}

func (e *ModelInvocationError) Error() string {
	return "model invocation failed: " + e.Err.Error()
}

func (e *ModelInvocationError) Unwrap() error {
	return e.Err
}

// ---------------------------------------------------------------------------
// Estimator
// ---------------------------------------------------------------------------

// Quote is the outcome of one price request.
type Quote struct {
	Price      float64
	Tips       []string
	Features   features.Features
	Vector     encoding.Vector
	RouteKind  string
	DistanceKm float64
	Elapsed    time.Duration
}

// Estimator wires the deriver, encoder and model together. It keeps no
// per-request state; concurrent Quote calls are independent.
type Estimator struct {
	deriver   *features.Deriver
	encoder   *encoding.Encoder
	predictor model.Predictor
	minMins   int
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithMinDuration sets the exclusive lower bound on flight duration.
func WithMinDuration(mins int) Option {
	return func(e *Estimator) { e.minMins = mins }
}

// WithDeriver replaces the default feature deriver.
func WithDeriver(d *features.Deriver) Option {
	return func(e *Estimator) { e.deriver = d }
}

// WithEncoder replaces the default encoder.
func WithEncoder(enc *encoding.Encoder) Option {
	return func(e *Estimator) { e.encoder = enc }
}

// New creates an estimator around a predictor. When the predictor reports
// its training columns and no encoder is given, the encoder is built from
// those columns so vector positions match the model.
func New(p model.Predictor, opts ...Option) (*Estimator, error) {
	if p == nil {
		return nil, errors.New("pricing: nil predictor")
	}
	e := &Estimator{
		predictor: p,
		minMins:   DefaultMinDurationMins,
	}
	for _, o := range opts {
		o(e)
	}

	if e.deriver == nil {
		e.deriver = features.NewDeriver(nil)
	}
	if e.encoder == nil {
		schema := encoding.DefaultSchema()
		if cp, ok := p.(model.ColumnProvider); ok {
			s, err := encoding.NewSchema(cp.Columns())
			if err != nil {
				return nil, fmt.Errorf("pricing: model columns: %w", err)
			}
			schema = s
		}
		e.encoder = encoding.NewEncoder(schema)
	}
	return e, nil
}

// Deriver returns the feature deriver in use.
func (e *Estimator) Deriver() *features.Deriver { return e.deriver }

// Schema returns the schema vectors are encoded against.
func (e *Estimator) Schema() *encoding.Schema { return e.encoder.Schema() }

// MinDurationMins returns the exclusive duration floor.
func (e *Estimator) MinDurationMins() int { return e.minMins }

// ValidateDuration rejects durations at or below the floor.
func (e *Estimator) ValidateDuration(durationMins int) error {
	if durationMins <= e.minMins {
		return &InvalidDurationError{DurationMins: durationMins, MinMins: e.minMins}
	}
	return nil
}

// Quote prices one flight. An invalid duration stops before any feature is
// derived; encoding errors stop before the model is called; the model is
// called exactly once and its failure is returned without retry.
func (e *Estimator) Quote(ctx context.Context, raw features.RawInputs) (Quote, error) {
	start := time.Now()
	metrics.QuoteRequests.Inc()

	if err := e.ValidateDuration(raw.DurationMins); err != nil {
		metrics.QuoteInvalidDuration.Inc()
		return Quote{}, err
	}

	f, err := e.deriver.Derive(raw)
	if err != nil {
		return Quote{}, fmt.Errorf("derive features: %w", err)
	}

	vec, err := e.encoder.Encode(f)
	if err != nil {
		if errors.Is(err, encoding.ErrSchemaMismatch) {
			metrics.QuoteSchemaMismatch.Inc()
		}
		return Quote{}, err
	}

	modelStart := time.Now()
	price, err := e.predictor.Predict(ctx, vec)
	metrics.ModelLatency.ObserveSince(modelStart)
	if err != nil {
		metrics.QuoteModelErrors.Inc()
		return Quote{}, &ModelInvocationError{Err: err}
	}

	tables := e.deriver.Tables()
	routeKind, err := tables.RouteKind(f.Source, f.Destination)
	if err != nil {
		return Quote{}, err
	}
	distance, _ := tables.DistanceKm(f.Source, f.Destination)

	q := Quote{
		Price:      price,
		Tips:       tips.Generate(f),
		Features:   f,
		Vector:     vec,
		RouteKind:  routeKind,
		DistanceKm: distance,
		Elapsed:    time.Since(start),
	}

	metrics.LastPredictedPrice.Set(price)
	metrics.QuoteLatency.Observe(q.Elapsed.Seconds())
	return q, nil
}
