package models

// QuoteRequest is a flight search as submitted over the API (wire DTO).
type QuoteRequest struct {
	Source       string `json:"source_city"`
	Destination  string `json:"destination_city"`
	Airline      string `json:"airline"`
	Stops        int    `json:"stops"`
	Departure    string `json:"departure_time"`
	Arrival      string `json:"arrival_time"`
	Class        string `json:"class,omitempty"`
	DaysLeft     int    `json:"days_left"`
	DurationMins int    `json:"duration_mins"`
}

// QuoteResponse carries a predicted price and the tips derived with it.
type QuoteResponse struct {
	RequestID  string             `json:"request_id"`
	Price      float64            `json:"price"`
	Tips       []string           `json:"tips"`
	RouteKind  string             `json:"route_kind"`
	DistanceKm float64            `json:"distance_km,omitempty"`
	Features   FeatureSummary     `json:"features"`
	Vector     *EncodedVector     `json:"vector,omitempty"`
	Elapsed    string             `json:"elapsed"`
}

// EncodedVector is the model input in vector order. Values[i] belongs to
// Columns[i].
type EncodedVector struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// FeatureSummary is the semantic feature record in wire form.
type FeatureSummary struct {
	Stops                   int     `json:"stops"`
	DaysLeft                int     `json:"days_left"`
	DurationMins            int     `json:"duration_mins"`
	RedEye                  bool    `json:"red_eye"`
	IsPeakDeparture         bool    `json:"is_peak_departure"`
	CrossRegion             bool    `json:"cross_region"`
	DaysDurationInteraction int     `json:"days_duration_interaction"`
	StopsPerHour            float64 `json:"stops_per_hour"`
	BookingType             string  `json:"booking_type"`
	AirlineTier             string  `json:"airline_tier"`
	DurationCategory        string  `json:"duration_category"`
	Class                   string  `json:"class"`
}

// DurationSuggestion is the historical median duration for a route.
type DurationSuggestion struct {
	Source       string `json:"source_city"`
	Destination  string `json:"destination_city"`
	Stops        int    `json:"stops"`
	DurationMins int    `json:"duration_mins"`
	Samples      int    `json:"samples"`
	Fallback     bool   `json:"fallback"`
}

// SchemaResponse lists the model columns in vector order.
type SchemaResponse struct {
	Columns []string `json:"columns"`
	Count   int      `json:"count"`
}

// ErrorResponse is returned for every failed API call.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
	Code      string `json:"code"`
}
