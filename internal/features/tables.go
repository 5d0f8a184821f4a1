package features

import (
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// ---------------------------------------------------------------------------
// Lookup tables
// ---------------------------------------------------------------------------

// Tables is the static configuration the deriver reads from. It is built
// once, validated, and never mutated afterwards; accessors hand out copies.
type Tables struct {
	regions            map[City]Region
	coords             map[City]Coordinate
	highCost           map[Airline]bool
	redEyeDepartures   map[TimeBucket]bool
	redEyeArrivals     map[TimeBucket]bool
	peakDepartures     map[TimeBucket]bool
	lastMinuteMaxDays  int
	nearMaxDays        int
	mediumMaxExclusive int
}

// Coordinate is a city position in decimal degrees.
type Coordinate struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// tablesFile is the on-disk YAML layout.
type tablesFile struct {
	Regions          map[string]string     `yaml:"regions"`
	Coordinates      map[string]Coordinate `yaml:"coordinates"`
	HighCostAirlines []string              `yaml:"high_cost_airlines"`
	RedEye           struct {
		Departures []string `yaml:"departures"`
		Arrivals   []string `yaml:"arrivals"`
	} `yaml:"red_eye"`
	PeakDepartures []string `yaml:"peak_departures"`
	Booking        struct {
		LastMinuteMaxDays int `yaml:"last_minute_max_days"`
		NearMaxDays       int `yaml:"near_max_days"`
	} `yaml:"booking"`
	Duration struct {
		MediumBelowMins int `yaml:"medium_below_mins"`
	} `yaml:"duration"`
}

// DefaultTables returns the tables the bundled price model was trained with.
func DefaultTables() *Tables {
	t, err := ParseTables(defaultTablesYAML)
	if err != nil {
		panic(fmt.Sprintf("features: embedded tables invalid: %v", err))
	}
	return t
}

// LoadTables reads a YAML override file.
func LoadTables(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tables: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes and validates a YAML table document. Every city must
// have a region; thresholds must be positive and ordered.
func ParseTables(data []byte) (*Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}

	t := &Tables{
		regions:            make(map[City]Region, len(f.Regions)),
		coords:             make(map[City]Coordinate, len(f.Coordinates)),
		highCost:           make(map[Airline]bool, len(f.HighCostAirlines)),
		lastMinuteMaxDays:  f.Booking.LastMinuteMaxDays,
		nearMaxDays:        f.Booking.NearMaxDays,
		mediumMaxExclusive: f.Duration.MediumBelowMins,
	}

	for name, regionName := range f.Regions {
		c, err := ParseCity(name)
		if err != nil {
			return nil, fmt.Errorf("regions: %w", err)
		}
		r, err := ParseRegion(regionName)
		if err != nil {
			return nil, fmt.Errorf("regions[%s]: %w", name, err)
		}
		t.regions[c] = r
	}
	for _, c := range Cities() {
		if _, ok := t.regions[c]; !ok {
			return nil, fmt.Errorf("regions: missing city %s", c)
		}
	}

	for name, coord := range f.Coordinates {
		c, err := ParseCity(name)
		if err != nil {
			return nil, fmt.Errorf("coordinates: %w", err)
		}
		t.coords[c] = coord
	}

	for _, name := range f.HighCostAirlines {
		a, err := ParseAirline(name)
		if err != nil {
			return nil, fmt.Errorf("high_cost_airlines: %w", err)
		}
		t.highCost[a] = true
	}

	var err error
	if t.redEyeDepartures, err = bucketSet(f.RedEye.Departures); err != nil {
		return nil, fmt.Errorf("red_eye.departures: %w", err)
	}
	if t.redEyeArrivals, err = bucketSet(f.RedEye.Arrivals); err != nil {
		return nil, fmt.Errorf("red_eye.arrivals: %w", err)
	}
	if t.peakDepartures, err = bucketSet(f.PeakDepartures); err != nil {
		return nil, fmt.Errorf("peak_departures: %w", err)
	}

	if t.lastMinuteMaxDays < 0 || t.nearMaxDays <= t.lastMinuteMaxDays {
		return nil, fmt.Errorf("booking thresholds must satisfy 0 <= last_minute (%d) < near (%d)",
			t.lastMinuteMaxDays, t.nearMaxDays)
	}
	if t.mediumMaxExclusive <= 0 {
		return nil, fmt.Errorf("duration.medium_below_mins must be positive, got %d", t.mediumMaxExclusive)
	}

	return t, nil
}

func bucketSet(names []string) (map[TimeBucket]bool, error) {
	set := make(map[TimeBucket]bool, len(names))
	for _, name := range names {
		b, err := ParseTimeBucket(name)
		if err != nil {
			return nil, err
		}
		set[b] = true
	}
	return set, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// RegionOf returns the region of a city.
func (t *Tables) RegionOf(c City) (Region, error) {
	r, ok := t.regions[c]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCity, c)
	}
	return r, nil
}

// IsHighCost reports whether the airline belongs to the high-cost tier.
func (t *Tables) IsHighCost(a Airline) bool {
	return t.highCost[a]
}

// Tier returns the cost bracket of an airline.
func (t *Tables) Tier(a Airline) AirlineTier {
	if t.highCost[a] {
		return HighCost
	}
	return LowCost
}

// CrossRegion reports whether the route spans two regions.
func (t *Tables) CrossRegion(src, dst City) (bool, error) {
	rs, err := t.RegionOf(src)
	if err != nil {
		return false, err
	}
	rd, err := t.RegionOf(dst)
	if err != nil {
		return false, err
	}
	return rs != rd, nil
}

// RouteKind describes the route for display next to a quote.
func (t *Tables) RouteKind(src, dst City) (string, error) {
	cross, err := t.CrossRegion(src, dst)
	if err != nil {
		return "", err
	}
	if cross {
		return "Cross-region flight", nil
	}
	return "Same-region flight", nil
}

// Coordinate returns the position of a city, if known.
func (t *Tables) Coordinate(c City) (Coordinate, bool) {
	coord, ok := t.coords[c]
	return coord, ok
}

// DistanceKm returns the great-circle distance between two cities. It is
// informational only and never enters the feature vector.
func (t *Tables) DistanceKm(src, dst City) (float64, bool) {
	a, ok := t.coords[src]
	if !ok {
		return 0, false
	}
	b, ok := t.coords[dst]
	if !ok {
		return 0, false
	}
	return haversineKm(a.Lat, a.Lon, b.Lat, b.Lon), true
}

// BookingTypeFor buckets days until departure. Thresholds are inclusive and
// checked in order, so the first match wins.
func (t *Tables) BookingTypeFor(daysLeft int) BookingType {
	switch {
	case daysLeft <= t.lastMinuteMaxDays:
		return LastMinute
	case daysLeft <= t.nearMaxDays:
		return Near
	default:
		return Advance
	}
}

// DurationCategoryFor buckets the flight length in minutes.
func (t *Tables) DurationCategoryFor(durationMins int) DurationCategory {
	if durationMins < t.mediumMaxExclusive {
		return Medium
	}
	return Long
}

// IsRedEye reports a late departure that lands early in the morning.
func (t *Tables) IsRedEye(dep, arr TimeBucket) bool {
	return t.redEyeDepartures[dep] && t.redEyeArrivals[arr]
}

// IsPeakDeparture reports a departure in the morning peak.
func (t *Tables) IsPeakDeparture(dep TimeBucket) bool {
	return t.peakDepartures[dep]
}

// AllowedClasses lists the cabins an airline sells. Only high-cost carriers
// offer Business.
func (t *Tables) AllowedClasses(a Airline) []TravelClass {
	if t.highCost[a] {
		return []TravelClass{Economy, Business}
	}
	return []TravelClass{Economy}
}

// NormalizeClass forces Economy for carriers without a Business cabin.
func (t *Tables) NormalizeClass(a Airline, c TravelClass) TravelClass {
	if c == Business && !t.highCost[a] {
		return Economy
	}
	return c
}

// haversineKm returns the distance in kilometers between two lat/lon points.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0
	lat1r := lat1 * math.Pi / 180.0
	lat2r := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
