// Package encoding turns derived flight features into the fixed-order numeric
// vector a trained price model indexes positionally.
package encoding

import (
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Column groups
// ---------------------------------------------------------------------------

// Numeric columns, in training order.
const (
	ColStops                   = "stops"
	ColDaysLeft                = "days_left"
	ColDurationMins            = "duration_mins"
	ColRedEye                  = "red_eye"
	ColIsPeakDeparture         = "is_peak_departure"
	ColCrossRegion             = "cross_region"
	ColDaysDurationInteraction = "days_duration_interaction"
	ColStopsPerHour            = "stops_per_hour"
)

// One-hot group prefixes. A slot is named "<group>_<label>".
const (
	GroupAirline          = "airline"
	GroupSourceCity       = "source_city"
	GroupDepartureTime    = "departure_time"
	GroupArrivalTime      = "arrival_time"
	GroupDestinationCity  = "destination_city"
	GroupClass            = "class"
	GroupAirlineTier      = "airline_tier"
	GroupBookingType      = "booking_type"
	GroupDurationCategory = "duration_category"
)

// NumericColumns lists the eight numeric and derived columns.
func NumericColumns() []string {
	return []string{
		ColStops, ColDaysLeft, ColDurationMins, ColRedEye, ColIsPeakDeparture,
		ColCrossRegion, ColDaysDurationInteraction, ColStopsPerHour,
	}
}

// Groups lists the categorical groups in the order they are encoded.
func Groups() []string {
	return []string{
		GroupAirline, GroupSourceCity, GroupDestinationCity, GroupDepartureTime,
		GroupArrivalTime, GroupClass, GroupAirlineTier, GroupBookingType,
		GroupDurationCategory,
	}
}

// SlotName returns the one-hot column for a group selection.
func SlotName(group, label string) string {
	return group + "_" + label
}

// defaultColumns is the column list the price model was trained on.
var defaultColumns = []string{
	ColStops, ColDaysLeft, ColDurationMins, ColRedEye, ColIsPeakDeparture, ColCrossRegion,
	ColDaysDurationInteraction, ColStopsPerHour,
	"airline_AirAsia", "airline_Air_India", "airline_GO_FIRST", "airline_Indigo", "airline_SpiceJet", "airline_Vistara",
	"source_city_Bangalore", "source_city_Chennai", "source_city_Delhi", "source_city_Hyderabad", "source_city_Kolkata", "source_city_Mumbai",
	"departure_time_Afternoon", "departure_time_Early_Morning", "departure_time_Evening", "departure_time_Late_Night", "departure_time_Morning", "departure_time_Night",
	"arrival_time_Afternoon", "arrival_time_Early_Morning", "arrival_time_Evening", "arrival_time_Late_Night", "arrival_time_Morning", "arrival_time_Night",
	"destination_city_Bangalore", "destination_city_Chennai", "destination_city_Delhi", "destination_city_Hyderabad", "destination_city_Kolkata", "destination_city_Mumbai",
	"class_Business", "class_Economy",
	"airline_tier_High-Cost", "airline_tier_Low-cost",
	"booking_type_Advance", "booking_type_Last_Minute", "booking_type_Near",
	"duration_category_Long", "duration_category_Medium",
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

// Schema is an ordered, duplicate-free list of model columns. Positions are
// a hard contract with the model and never change after construction.
type Schema struct {
	columns []string
	index   map[string]int
}

// DefaultSchema returns the 47-column training-time schema.
func DefaultSchema() *Schema {
	s, err := NewSchema(defaultColumns)
	if err != nil {
		panic(fmt.Sprintf("encoding: default schema invalid: %v", err))
	}
	return s
}

// NewSchema validates and copies a column list.
func NewSchema(columns []string) (*Schema, error) {
	if len(columns) == 0 {
		return nil, errors.New("schema: no columns")
	}
	s := &Schema{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, fmt.Errorf("schema: empty column name at position %d", i)
		}
		if prev, dup := s.index[col]; dup {
			return nil, fmt.Errorf("schema: duplicate column %q at positions %d and %d", col, prev, i)
		}
		s.columns[i] = col
		s.index[col] = i
	}
	return s, nil
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Columns returns a copy of the ordered column names.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Index returns the position of a column.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// GroupColumns returns the schema positions belonging to a one-hot group.
func (s *Schema) GroupColumns(group string) []int {
	prefix := group + "_"
	var out []int
	for i, col := range s.columns {
		if !strings.HasPrefix(col, prefix) {
			continue
		}
		// "airline_tier_*" shares the "airline_" prefix; claim it only for
		// its own group.
		if group == GroupAirline && strings.HasPrefix(col, GroupAirlineTier+"_") {
			continue
		}
		out = append(out, i)
	}
	return out
}
