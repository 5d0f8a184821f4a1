package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInputs() RawInputs {
	return RawInputs{
		Source:       Delhi,
		Destination:  Mumbai,
		Airline:      Indigo,
		Stops:        1,
		Departure:    Morning,
		Arrival:      Afternoon,
		Class:        Economy,
		DaysLeft:     30,
		DurationMins: 150,
	}
}

// ---------------------------------------------------------------------------
// Enums
// ---------------------------------------------------------------------------

func TestEnumLabels(t *testing.T) {
	assert.Equal(t, "Air_India", AirIndia.String())
	assert.Equal(t, "GO_FIRST", GoFirst.String())
	assert.Equal(t, "Early_Morning", EarlyMorning.String())
	assert.Equal(t, "Late_Night", LateNight.String())
	assert.Equal(t, "Last_Minute", LastMinute.String())
	assert.Equal(t, "High-Cost", HighCost.String())
	assert.Equal(t, "Low-cost", LowCost.String())
	assert.Equal(t, "unknown", City(255).String())
	assert.Equal(t, "unknown", TimeBucket(255).String())
}

func TestParseLabels(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Airline
	}{
		{"Air_India", AirIndia},
		{"Air India", AirIndia},
		{"air-india", AirIndia},
		{" vistara ", Vistara},
		{"go_first", GoFirst},
	} {
		got, err := ParseAirline(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseAirline("Lufthansa")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownValue))

	var uv *UnknownValueError
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, "airline", uv.Kind)

	_, err = ParseCity("")
	assert.ErrorIs(t, err, ErrUnknownValue)

	b, err := ParseTimeBucket("early morning")
	require.NoError(t, err)
	assert.Equal(t, EarlyMorning, b)
}

func TestBucketForHour(t *testing.T) {
	assert.Equal(t, LateNight, BucketForHour(2))
	assert.Equal(t, EarlyMorning, BucketForHour(4))
	assert.Equal(t, Morning, BucketForHour(11))
	assert.Equal(t, Afternoon, BucketForHour(12))
	assert.Equal(t, Evening, BucketForHour(19))
	assert.Equal(t, Night, BucketForHour(22))
	assert.Equal(t, LateNight, BucketForHour(23))
	assert.Equal(t, Night, BucketForHour(-2))
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

func TestDefaultTables(t *testing.T) {
	tables := DefaultTables()

	r, err := tables.RegionOf(Kolkata)
	require.NoError(t, err)
	assert.Equal(t, East, r)

	assert.True(t, tables.IsHighCost(Vistara))
	assert.True(t, tables.IsHighCost(AirIndia))
	assert.False(t, tables.IsHighCost(Indigo))

	d, ok := tables.DistanceKm(Delhi, Mumbai)
	require.True(t, ok)
	assert.InDelta(t, 1150, d, 30)

	kind, err := tables.RouteKind(Bangalore, Chennai)
	require.NoError(t, err)
	assert.Equal(t, "Same-region flight", kind)
}

func TestParseTablesRejectsIncomplete(t *testing.T) {
	_, err := ParseTables([]byte(`
regions:
  Delhi: North
booking: {last_minute_max_days: 3, near_max_days: 20}
duration: {medium_below_mins: 180}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing city")

	_, err = ParseTables([]byte(`regions: {Delhi: Middle}`))
	assert.ErrorIs(t, err, ErrUnknownValue)
}

func TestParseTablesThresholds(t *testing.T) {
	doc := `
regions: {Delhi: North, Mumbai: West, Bangalore: South, Kolkata: East, Hyderabad: South, Chennai: South}
booking: {last_minute_max_days: 20, near_max_days: 3}
duration: {medium_below_mins: 180}
`
	_, err := ParseTables([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "booking thresholds")
}

func TestClassAvailability(t *testing.T) {
	tables := DefaultTables()
	assert.Equal(t, []TravelClass{Economy, Business}, tables.AllowedClasses(Vistara))
	assert.Equal(t, []TravelClass{Economy}, tables.AllowedClasses(SpiceJet))
	assert.Equal(t, Economy, tables.NormalizeClass(SpiceJet, Business))
	assert.Equal(t, Business, tables.NormalizeClass(AirIndia, Business))
}

// ---------------------------------------------------------------------------
// Derivation
// ---------------------------------------------------------------------------

func TestDeriveBasic(t *testing.T) {
	d := NewDeriver(nil)
	f, err := d.Derive(baseInputs())
	require.NoError(t, err)

	assert.Equal(t, 1, f.Stops)
	assert.Equal(t, 30, f.DaysLeft)
	assert.Equal(t, 150, f.DurationMins)
	assert.True(t, f.CrossRegion)
	assert.False(t, f.RedEye)
	assert.True(t, f.IsPeakDeparture)
	assert.Equal(t, 4500, f.DaysDurationInteraction)
	assert.InDelta(t, 0.4, f.StopsPerHour, 1e-9)
	assert.Equal(t, Advance, f.BookingType)
	assert.Equal(t, LowCost, f.AirlineTier)
	assert.Equal(t, Medium, f.DurationCategory)
	assert.Equal(t, Indigo, f.Airline)
	assert.Equal(t, Delhi, f.Source)
	assert.Equal(t, Mumbai, f.Destination)
}

func TestDeriveCrossRegion(t *testing.T) {
	d := NewDeriver(nil)
	for _, tc := range []struct {
		src, dst City
		want     bool
	}{
		{Delhi, Mumbai, true},
		{Bangalore, Chennai, false},
		{Hyderabad, Bangalore, false},
		{Kolkata, Chennai, true},
	} {
		raw := baseInputs()
		raw.Source, raw.Destination = tc.src, tc.dst
		f, err := d.Derive(raw)
		require.NoError(t, err)
		assert.Equal(t, tc.want, f.CrossRegion, "%s->%s", tc.src, tc.dst)
	}
}

func TestDeriveUnknownCity(t *testing.T) {
	raw := baseInputs()
	raw.Source = City(200)
	_, err := NewDeriver(nil).Derive(raw)
	assert.ErrorIs(t, err, ErrUnknownCity)
}

func TestRedEyeMatrix(t *testing.T) {
	d := NewDeriver(nil)
	fired := 0
	for _, dep := range TimeBuckets() {
		for _, arr := range TimeBuckets() {
			raw := baseInputs()
			raw.Departure, raw.Arrival = dep, arr
			f, err := d.Derive(raw)
			require.NoError(t, err)

			want := (dep == LateNight || dep == Night) && (arr == EarlyMorning || arr == Morning)
			assert.Equal(t, want, f.RedEye, "%s->%s", dep, arr)
			if f.RedEye {
				fired++
			}
		}
	}
	assert.Equal(t, 4, fired)
}

func TestPeakDeparture(t *testing.T) {
	d := NewDeriver(nil)
	for _, dep := range TimeBuckets() {
		raw := baseInputs()
		raw.Departure = dep
		f, err := d.Derive(raw)
		require.NoError(t, err)
		assert.Equal(t, dep == Morning || dep == EarlyMorning, f.IsPeakDeparture, dep.String())
	}
}

func TestBookingTypeThresholds(t *testing.T) {
	tables := DefaultTables()
	for _, tc := range []struct {
		days int
		want BookingType
	}{
		{0, LastMinute},
		{3, LastMinute},
		{4, Near},
		{20, Near},
		{21, Advance},
		{60, Advance},
	} {
		assert.Equal(t, tc.want, tables.BookingTypeFor(tc.days), "days=%d", tc.days)
	}
}

func TestDurationCategoryThreshold(t *testing.T) {
	tables := DefaultTables()
	assert.Equal(t, Medium, tables.DurationCategoryFor(179))
	assert.Equal(t, Long, tables.DurationCategoryFor(180))
}

func TestStopsPerHour(t *testing.T) {
	assert.Equal(t, 0.0, StopsPerHour(2, 0))
	assert.Equal(t, 0.0, StopsPerHour(2, -10))
	assert.InDelta(t, 1.0, StopsPerHour(2, 120), 1e-9)
	assert.InDelta(t, 5.0/(31.0/60.0), StopsPerHour(5, 31), 1e-9)

	for mins := 0; mins < 2000; mins += 7 {
		v := StopsPerHour(3, mins)
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "mins=%d", mins)
	}
}

func TestCatalogue(t *testing.T) {
	c := NewCatalogue()
	assert.Len(t, c.Cities, 6)
	assert.Len(t, c.Airlines, 6)
	assert.Len(t, c.TimeBuckets, 6)
	assert.Equal(t, []string{"Economy", "Business"}, c.Classes)
	assert.Equal(t, MaxStops, c.MaxStops)
	assert.Equal(t, MaxDaysLeft, c.MaxDaysLeft)
	assert.Equal(t, 48*60, c.MaxDurationMins)

	dst := Destinations(Delhi)
	assert.Len(t, dst, 5)
	assert.NotContains(t, dst, Delhi)
}
