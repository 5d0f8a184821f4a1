package encoding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash/flightprice/internal/features"
)

func derive(t *testing.T, raw features.RawInputs) features.Features {
	t.Helper()
	f, err := features.NewDeriver(nil).Derive(raw)
	require.NoError(t, err)
	return f
}

func sampleInputs() features.RawInputs {
	return features.RawInputs{
		Source:       features.Delhi,
		Destination:  features.Mumbai,
		Airline:      features.Vistara,
		Stops:        2,
		Departure:    features.Night,
		Arrival:      features.EarlyMorning,
		Class:        features.Business,
		DaysLeft:     2,
		DurationMins: 240,
	}
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func TestDefaultSchemaLayout(t *testing.T) {
	s := DefaultSchema()
	require.Equal(t, 47, s.Len())

	assert.Equal(t, NumericColumns(), s.Columns()[:8])

	for _, tc := range []struct {
		group string
		size  int
	}{
		{GroupAirline, 6},
		{GroupSourceCity, 6},
		{GroupDestinationCity, 6},
		{GroupDepartureTime, 6},
		{GroupArrivalTime, 6},
		{GroupClass, 2},
		{GroupAirlineTier, 2},
		{GroupBookingType, 3},
		{GroupDurationCategory, 2},
	} {
		assert.Len(t, s.GroupColumns(tc.group), tc.size, tc.group)
	}
}

func TestNewSchemaValidation(t *testing.T) {
	_, err := NewSchema(nil)
	assert.Error(t, err)

	_, err = NewSchema([]string{"stops", "days_left", "stops"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = NewSchema([]string{"stops", " "})
	assert.Error(t, err)
}

func TestSchemaColumnsIsCopy(t *testing.T) {
	s := DefaultSchema()
	cols := s.Columns()
	cols[0] = "mutated"
	assert.Equal(t, ColStops, s.Columns()[0])
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

func TestEncodeNumericSlots(t *testing.T) {
	v, err := NewEncoder(nil).Encode(derive(t, sampleInputs()))
	require.NoError(t, err)
	require.Equal(t, 47, v.Len())

	want := []float64{2, 2, 240, 1, 0, 1, 480, 0.5}
	if diff := cmp.Diff(want, v.Values()[:8]); diff != "" {
		t.Errorf("numeric slots mismatch (-want +got):\n%s", diff)
	}

	for _, col := range []string{
		"airline_Vistara", "source_city_Delhi", "destination_city_Mumbai",
		"departure_time_Night", "arrival_time_Early_Morning", "class_Business",
		"airline_tier_High-Cost", "booking_type_Last_Minute", "duration_category_Long",
	} {
		got, ok := v.Get(col)
		require.True(t, ok, col)
		assert.Equal(t, 1.0, got, col)
	}
}

func TestEncodeOneHotPerGroup(t *testing.T) {
	enc := NewEncoder(nil)
	schema := enc.Schema()
	deriver := features.NewDeriver(nil)

	for _, airline := range features.Airlines() {
		for _, src := range features.Cities() {
			for _, dst := range features.Destinations(src) {
				for _, days := range []int{0, 10, 45} {
					raw := sampleInputs()
					raw.Airline, raw.Source, raw.Destination, raw.DaysLeft = airline, src, dst, days
					raw.Class = deriver.Tables().NormalizeClass(airline, raw.Class)

					f, err := deriver.Derive(raw)
					require.NoError(t, err)
					v, err := enc.Encode(f)
					require.NoError(t, err)

					for _, g := range Groups() {
						var sum float64
						for _, i := range schema.GroupColumns(g) {
							sum += v.At(i)
						}
						assert.Equal(t, 1.0, sum, "group %s for %s %s->%s", g, airline, src, dst)
					}
					assert.Equal(t, 9.0, v.OneHotSum())
				}
			}
		}
	}
}

func TestEncodeFollowsSchemaOrder(t *testing.T) {
	cols := DefaultSchema().Columns()
	reversed := make([]string, len(cols))
	for i, c := range cols {
		reversed[len(cols)-1-i] = c
	}
	schema, err := NewSchema(reversed)
	require.NoError(t, err)

	f := derive(t, sampleInputs())
	a, err := NewEncoder(nil).Encode(f)
	require.NoError(t, err)
	b, err := NewEncoder(schema).Encode(f)
	require.NoError(t, err)

	av, bv := a.Values(), b.Values()
	for i := range av {
		assert.Equal(t, av[i], bv[len(bv)-1-i])
	}
	assert.Equal(t, reversed, b.Columns())
}

func TestEncodeSchemaMismatch(t *testing.T) {
	f := derive(t, sampleInputs())

	t.Run("missing one-hot slot", func(t *testing.T) {
		cols := DefaultSchema().Columns()
		var trimmed []string
		for _, c := range cols {
			if c != "airline_Vistara" {
				trimmed = append(trimmed, c)
			}
		}
		schema, err := NewSchema(trimmed)
		require.NoError(t, err)

		_, err = NewEncoder(schema).Encode(f)
		require.ErrorIs(t, err, ErrSchemaMismatch)

		var sm *SchemaMismatchError
		require.ErrorAs(t, err, &sm)
		assert.Equal(t, "airline_Vistara", sm.Column)
	})

	t.Run("missing numeric column", func(t *testing.T) {
		schema, err := NewSchema(DefaultSchema().Columns()[1:])
		require.NoError(t, err)
		_, err = NewEncoder(schema).Encode(f)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("value outside closed set", func(t *testing.T) {
		bad := f
		bad.Airline = features.Airline(99)
		_, err := NewEncoder(nil).Encode(bad)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestVectorValuesIsCopy(t *testing.T) {
	v, err := NewEncoder(nil).Encode(derive(t, sampleInputs()))
	require.NoError(t, err)

	vals := v.Values()
	vals[0] = 1000
	assert.Equal(t, 2.0, v.At(0))

	named := v.Named()
	assert.Len(t, named, 47)
	assert.Equal(t, 240.0, named[ColDurationMins])
}
