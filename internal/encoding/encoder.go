package encoding

import (
	"errors"
	"fmt"

	"github.com/yash/flightprice/internal/features"
)

// ErrSchemaMismatch matches any SchemaMismatchError.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError reports a value with no slot in the schema.
type SchemaMismatchError struct {
	Column string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: no column %q", e.Column)
}

// Is lets callers match with errors.Is(err, ErrSchemaMismatch).
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// ---------------------------------------------------------------------------
// Vector
// ---------------------------------------------------------------------------

// Vector is an encoded feature row aligned with its schema. It is never
// mutated after Encode returns.
type Vector struct {
	schema *Schema
	values []float64
}

// Len returns the number of slots.
func (v Vector) Len() int {
	return len(v.values)
}

// At returns the value at position i.
func (v Vector) At(i int) float64 {
	return v.values[i]
}

// Values returns a copy of the slot values in schema order.
func (v Vector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Columns returns the schema column names.
func (v Vector) Columns() []string {
	if v.schema == nil {
		return nil
	}
	return v.schema.Columns()
}

// Get returns the value of a named column.
func (v Vector) Get(name string) (float64, bool) {
	if v.schema == nil {
		return 0, false
	}
	i, ok := v.schema.Index(name)
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Named returns the vector as a column→value map.
func (v Vector) Named() map[string]float64 {
	out := make(map[string]float64, len(v.values))
	if v.schema == nil {
		return out
	}
	for i, col := range v.schema.columns {
		out[col] = v.values[i]
	}
	return out
}

// OneHotSum adds up every slot that belongs to a categorical group.
func (v Vector) OneHotSum() float64 {
	var sum float64
	if v.schema == nil {
		return 0
	}
	for _, g := range Groups() {
		for _, i := range v.schema.GroupColumns(g) {
			sum += v.values[i]
		}
	}
	return sum
}

// ---------------------------------------------------------------------------
// Encoder
// ---------------------------------------------------------------------------

// Encoder maps Features onto a schema.
type Encoder struct {
	schema *Schema
}

// NewEncoder creates an encoder. A nil schema selects DefaultSchema.
func NewEncoder(schema *Schema) *Encoder {
	if schema == nil {
		schema = DefaultSchema()
	}
	return &Encoder{schema: schema}
}

// Schema returns the encoder's schema.
func (e *Encoder) Schema() *Schema {
	return e.schema
}

// Encode builds a fresh vector. Every slot starts at zero, the numeric
// columns are written, then exactly one slot per categorical group is set.
// Any value without a column fails the whole encoding.
func (e *Encoder) Encode(f features.Features) (Vector, error) {
	values := make([]float64, e.schema.Len())

	numeric := []struct {
		col string
		val float64
	}{
		{ColStops, float64(f.Stops)},
		{ColDaysLeft, float64(f.DaysLeft)},
		{ColDurationMins, float64(f.DurationMins)},
		{ColRedEye, boolToFloat(f.RedEye)},
		{ColIsPeakDeparture, boolToFloat(f.IsPeakDeparture)},
		{ColCrossRegion, boolToFloat(f.CrossRegion)},
		{ColDaysDurationInteraction, float64(f.DaysDurationInteraction)},
		{ColStopsPerHour, f.StopsPerHour},
	}
	for _, n := range numeric {
		i, ok := e.schema.Index(n.col)
		if !ok {
			return Vector{}, &SchemaMismatchError{Column: n.col}
		}
		values[i] = n.val
	}

	for _, sel := range Selections(f) {
		col := SlotName(sel.Group, sel.Label)
		i, ok := e.schema.Index(col)
		if !ok {
			return Vector{}, &SchemaMismatchError{Column: col}
		}
		values[i] = 1
	}

	return Vector{schema: e.schema, values: values}, nil
}

// Selection is the chosen label within one categorical group.
type Selection struct {
	Group string
	Label string
}

// Selections lists the categorical choices carried by a feature record.
func Selections(f features.Features) []Selection {
	return []Selection{
		{GroupAirline, f.Airline.String()},
		{GroupSourceCity, f.Source.String()},
		{GroupDestinationCity, f.Destination.String()},
		{GroupDepartureTime, f.Departure.String()},
		{GroupArrivalTime, f.Arrival.String()},
		{GroupClass, f.Class.String()},
		{GroupAirlineTier, f.AirlineTier.String()},
		{GroupBookingType, f.BookingType.String()},
		{GroupDurationCategory, f.DurationCategory.String()},
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
