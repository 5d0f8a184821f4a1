// Package features derives the semantic feature record a flight price model
// consumes from raw search inputs.
package features

import "errors"

var (
	// ErrUnknownCity is returned when a city has no region in the tables.
	ErrUnknownCity = errors.New("city not in region table")

	// ErrUnknownValue matches any UnknownValueError.
	ErrUnknownValue = errors.New("value outside closed set")
)

// ---------------------------------------------------------------------------
// Inputs and derived record
// ---------------------------------------------------------------------------

// RawInputs is one flight search as selected by the caller.
type RawInputs struct {
	Source       City
	Destination  City
	Airline      Airline
	Stops        int
	Departure    TimeBucket
	Arrival      TimeBucket
	Class        TravelClass
	DaysLeft     int
	DurationMins int
}

// Features is the semantic record derived from RawInputs.
type Features struct {
	Stops                   int
	DaysLeft                int
	DurationMins            int
	RedEye                  bool
	IsPeakDeparture         bool
	CrossRegion             bool
	DaysDurationInteraction int
	StopsPerHour            float64

	BookingType      BookingType
	AirlineTier      AirlineTier
	DurationCategory DurationCategory

	// One-of selections echoed for encoding.
	Airline     Airline
	Source      City
	Destination City
	Departure   TimeBucket
	Arrival     TimeBucket
	Class       TravelClass
}

// ---------------------------------------------------------------------------
// Deriver
// ---------------------------------------------------------------------------

// Deriver turns RawInputs into Features using a fixed set of lookup tables.
// It holds no mutable state and is safe for concurrent use.
type Deriver struct {
	tables *Tables
}

// NewDeriver creates a deriver. A nil tables argument selects DefaultTables.
func NewDeriver(tables *Tables) *Deriver {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Deriver{tables: tables}
}

// Tables returns the lookup tables the deriver was built with.
func (d *Deriver) Tables() *Tables {
	return d.tables
}

// Derive computes the feature record. Inputs are assumed to come from the
// closed sets; the only failure is a city missing from the region table.
func (d *Deriver) Derive(raw RawInputs) (Features, error) {
	cross, err := d.tables.CrossRegion(raw.Source, raw.Destination)
	if err != nil {
		return Features{}, err
	}

	f := Features{
		Stops:        raw.Stops,
		DaysLeft:     raw.DaysLeft,
		DurationMins: raw.DurationMins,
		CrossRegion:  cross,

		Airline:     raw.Airline,
		Source:      raw.Source,
		Destination: raw.Destination,
		Departure:   raw.Departure,
		Arrival:     raw.Arrival,
		Class:       raw.Class,
	}

	f.RedEye = d.tables.IsRedEye(raw.Departure, raw.Arrival)
	f.IsPeakDeparture = d.tables.IsPeakDeparture(raw.Departure)
	f.DaysDurationInteraction = raw.DaysLeft * raw.DurationMins
	f.StopsPerHour = StopsPerHour(raw.Stops, raw.DurationMins)
	f.BookingType = d.tables.BookingTypeFor(raw.DaysLeft)
	f.AirlineTier = d.tables.Tier(raw.Airline)
	f.DurationCategory = d.tables.DurationCategoryFor(raw.DurationMins)

	return f, nil
}

// StopsPerHour is stops divided by flight hours, or 0 for a non-positive
// duration.
func StopsPerHour(stops, durationMins int) float64 {
	if durationMins <= 0 {
		return 0
	}
	return float64(stops) / (float64(durationMins) / 60)
}

// ---------------------------------------------------------------------------
// Catalogue
// ---------------------------------------------------------------------------

// MaxStops caps the stop count offered to callers.
const MaxStops = 5

// MaxDaysLeft caps the booking horizon offered to callers.
const MaxDaysLeft = 60

// MaxDurationMins caps the flight duration accepted from callers. Two days
// is well beyond any itinerary in the dataset and keeps
// DaysDurationInteraction far from integer overflow.
const MaxDurationMins = 48 * 60

// Catalogue lists the closed option sets a caller may choose from.
type Catalogue struct {
	Cities      []string `json:"cities"`
	Airlines    []string `json:"airlines"`
	TimeBuckets []string `json:"time_buckets"`
	Classes     []string `json:"classes"`
	MaxStops    int      `json:"max_stops"`
	MaxDaysLeft int      `json:"max_days_left"`

	MaxDurationMins int `json:"max_duration_mins"`
}

// NewCatalogue builds the option lists in training-label order.
func NewCatalogue() Catalogue {
	c := Catalogue{
		Classes:     []string{Economy.String(), Business.String()},
		MaxStops:    MaxStops,
		MaxDaysLeft: MaxDaysLeft,

		MaxDurationMins: MaxDurationMins,
	}
	for _, city := range Cities() {
		c.Cities = append(c.Cities, city.String())
	}
	for _, a := range Airlines() {
		c.Airlines = append(c.Airlines, a.String())
	}
	for _, b := range TimeBuckets() {
		c.TimeBuckets = append(c.TimeBuckets, b.String())
	}
	return c
}

// Destinations returns every city except the source.
func Destinations(src City) []City {
	out := make([]City, 0, cityCount-1)
	for _, c := range Cities() {
		if c != src {
			out = append(out, c)
		}
	}
	return out
}
