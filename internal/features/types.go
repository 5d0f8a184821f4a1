package features

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Closed input sets
// ---------------------------------------------------------------------------
//
// Every enum below renders to the exact label the price model was trained
// on. Those labels end up in one-hot column names ("airline_Air_India"), so
// they must not be reformatted.

// City is one of the six served cities.
type City uint8

const (
	Bangalore City = iota
	Chennai
	Delhi
	Hyderabad
	Kolkata
	Mumbai
	cityCount // must be last
)

var cityNames = [cityCount]string{
	Bangalore: "Bangalore",
	Chennai:   "Chennai",
	Delhi:     "Delhi",
	Hyderabad: "Hyderabad",
	Kolkata:   "Kolkata",
	Mumbai:    "Mumbai",
}

func (c City) String() string {
	if c < cityCount {
		return cityNames[c]
	}
	return "unknown"
}

// Cities returns all cities in training-label order.
func Cities() []City {
	out := make([]City, cityCount)
	for i := range out {
		out[i] = City(i)
	}
	return out
}

// ParseCity converts a label like "Delhi" to its City constant.
func ParseCity(s string) (City, error) {
	i, ok := lookupLabel(cityNames[:], s)
	if !ok {
		return 0, &UnknownValueError{Kind: "city", Value: s}
	}
	return City(i), nil
}

// Airline is one of the six carriers in the training data.
type Airline uint8

const (
	AirAsia Airline = iota
	AirIndia
	GoFirst
	Indigo
	SpiceJet
	Vistara
	airlineCount
)

var airlineNames = [airlineCount]string{
	AirAsia:  "AirAsia",
	AirIndia: "Air_India",
	GoFirst:  "GO_FIRST",
	Indigo:   "Indigo",
	SpiceJet: "SpiceJet",
	Vistara:  "Vistara",
}

func (a Airline) String() string {
	if a < airlineCount {
		return airlineNames[a]
	}
	return "unknown"
}

// Airlines returns all carriers in training-label order.
func Airlines() []Airline {
	out := make([]Airline, airlineCount)
	for i := range out {
		out[i] = Airline(i)
	}
	return out
}

// ParseAirline accepts "Air_India", "Air India" and "air-india" alike.
func ParseAirline(s string) (Airline, error) {
	i, ok := lookupLabel(airlineNames[:], s)
	if !ok {
		return 0, &UnknownValueError{Kind: "airline", Value: s}
	}
	return Airline(i), nil
}

// TimeBucket is a coarse departure or arrival time of day.
//
//	Early_Morning 04:00-08:00   Morning   08:00-12:00
//	Afternoon     12:00-17:00   Evening   17:00-20:00
//	Night         20:00-23:00   Late_Night 23:00-04:00
type TimeBucket uint8

const (
	Afternoon TimeBucket = iota
	EarlyMorning
	Evening
	LateNight
	Morning
	Night
	timeBucketCount
)

var timeBucketNames = [timeBucketCount]string{
	Afternoon:    "Afternoon",
	EarlyMorning: "Early_Morning",
	Evening:      "Evening",
	LateNight:    "Late_Night",
	Morning:      "Morning",
	Night:        "Night",
}

func (t TimeBucket) String() string {
	if t < timeBucketCount {
		return timeBucketNames[t]
	}
	return "unknown"
}

// TimeBuckets returns all buckets in training-label order.
func TimeBuckets() []TimeBucket {
	out := make([]TimeBucket, timeBucketCount)
	for i := range out {
		out[i] = TimeBucket(i)
	}
	return out
}

// ParseTimeBucket converts a label like "Early_Morning" to a TimeBucket.
func ParseTimeBucket(s string) (TimeBucket, error) {
	i, ok := lookupLabel(timeBucketNames[:], s)
	if !ok {
		return 0, &UnknownValueError{Kind: "time bucket", Value: s}
	}
	return TimeBucket(i), nil
}

// BucketForHour maps a clock hour (0-23) onto its TimeBucket.
func BucketForHour(hour int) TimeBucket {
	hour = ((hour % 24) + 24) % 24
	switch {
	case hour >= 4 && hour < 8:
		return EarlyMorning
	case hour >= 8 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 20:
		return Evening
	case hour >= 20 && hour < 23:
		return Night
	default:
		return LateNight
	}
}

// TravelClass is the cabin booked.
type TravelClass uint8

const (
	Business TravelClass = iota
	Economy
	travelClassCount
)

var travelClassNames = [travelClassCount]string{
	Business: "Business",
	Economy:  "Economy",
}

func (c TravelClass) String() string {
	if c < travelClassCount {
		return travelClassNames[c]
	}
	return "unknown"
}

// ParseTravelClass converts "Economy" or "Business" to a TravelClass.
func ParseTravelClass(s string) (TravelClass, error) {
	i, ok := lookupLabel(travelClassNames[:], s)
	if !ok {
		return 0, &UnknownValueError{Kind: "travel class", Value: s}
	}
	return TravelClass(i), nil
}

// ---------------------------------------------------------------------------
// Derived categories
// ---------------------------------------------------------------------------

// Region is the coarse geographic grouping of a city.
type Region uint8

const (
	North Region = iota
	West
	South
	East
	regionCount
)

var regionNames = [regionCount]string{
	North: "North",
	West:  "West",
	South: "South",
	East:  "East",
}

func (r Region) String() string {
	if r < regionCount {
		return regionNames[r]
	}
	return "unknown"
}

// ParseRegion converts "North", "West", "South" or "East" to a Region.
func ParseRegion(s string) (Region, error) {
	i, ok := lookupLabel(regionNames[:], s)
	if !ok {
		return 0, &UnknownValueError{Kind: "region", Value: s}
	}
	return Region(i), nil
}

// BookingType buckets how far ahead of departure the ticket is bought.
type BookingType uint8

const (
	Advance BookingType = iota
	LastMinute
	Near
	bookingTypeCount
)

var bookingTypeNames = [bookingTypeCount]string{
	Advance:    "Advance",
	LastMinute: "Last_Minute",
	Near:       "Near",
}

func (b BookingType) String() string {
	if b < bookingTypeCount {
		return bookingTypeNames[b]
	}
	return "unknown"
}

// AirlineTier is the cost bracket of a carrier.
type AirlineTier uint8

const (
	HighCost AirlineTier = iota
	LowCost
	airlineTierCount
)

var airlineTierNames = [airlineTierCount]string{
	HighCost: "High-Cost",
	LowCost:  "Low-cost",
}

func (t AirlineTier) String() string {
	if t < airlineTierCount {
		return airlineTierNames[t]
	}
	return "unknown"
}

// DurationCategory buckets the flight length.
type DurationCategory uint8

const (
	Long DurationCategory = iota
	Medium
	durationCategoryCount
)

var durationCategoryNames = [durationCategoryCount]string{
	Long:   "Long",
	Medium: "Medium",
}

func (d DurationCategory) String() string {
	if d < durationCategoryCount {
		return durationCategoryNames[d]
	}
	return "unknown"
}

// ---------------------------------------------------------------------------
// Label lookup
// ---------------------------------------------------------------------------

// UnknownValueError reports a label outside one of the closed sets.
type UnknownValueError struct {
	Kind  string
	Value string
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Value)
}

// Is lets callers match with errors.Is(err, ErrUnknownValue).
func (e *UnknownValueError) Is(target error) bool {
	return target == ErrUnknownValue
}

func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return strings.ToLower(s)
}

func lookupLabel(names []string, s string) (int, bool) {
	want := normalizeLabel(s)
	if want == "" {
		return 0, false
	}
	for i, name := range names {
		if normalizeLabel(name) == want {
			return i, true
		}
	}
	return 0, false
}
