package pricing

import (
	"errors"
	"fmt"

	"github.com/yash/flightprice/internal/features"
	"github.com/yash/flightprice/pkg/models"
)

// ErrInvalidInput is returned for out-of-range numeric inputs or an
// itinerary that starts and ends in the same city.
var ErrInvalidInput = errors.New("invalid input")

// ParseRequest converts a wire request into RawInputs. Labels must come
// from the closed sets, stops and days left must be in range, and the
// duration may not exceed features.MaxDurationMins. Business is downgraded
// to Economy for carriers that do not sell it. An empty class means Economy.
func ParseRequest(req models.QuoteRequest, tables *features.Tables) (features.RawInputs, error) {
	var raw features.RawInputs
	var err error

	if raw.Source, err = features.ParseCity(req.Source); err != nil {
		return raw, err
	}
	if raw.Destination, err = features.ParseCity(req.Destination); err != nil {
		return raw, err
	}
	if raw.Source == raw.Destination {
		return raw, fmt.Errorf("%w: source and destination are both %s", ErrInvalidInput, raw.Source)
	}
	if raw.Airline, err = features.ParseAirline(req.Airline); err != nil {
		return raw, err
	}
	if raw.Departure, err = features.ParseTimeBucket(req.Departure); err != nil {
		return raw, err
	}
	if raw.Arrival, err = features.ParseTimeBucket(req.Arrival); err != nil {
		return raw, err
	}

	raw.Class = features.Economy
	if req.Class != "" {
		if raw.Class, err = features.ParseTravelClass(req.Class); err != nil {
			return raw, err
		}
	}
	if tables != nil {
		raw.Class = tables.NormalizeClass(raw.Airline, raw.Class)
	}

	if req.Stops < 0 || req.Stops > features.MaxStops {
		return raw, fmt.Errorf("%w: stops must be between 0 and %d, got %d", ErrInvalidInput, features.MaxStops, req.Stops)
	}
	if req.DaysLeft < 0 || req.DaysLeft > features.MaxDaysLeft {
		return raw, fmt.Errorf("%w: days_left must be between 0 and %d, got %d", ErrInvalidInput, features.MaxDaysLeft, req.DaysLeft)
	}
	if req.DurationMins > features.MaxDurationMins {
		return raw, fmt.Errorf("%w: duration_mins must be at most %d, got %d", ErrInvalidInput, features.MaxDurationMins, req.DurationMins)
	}
	raw.Stops = req.Stops
	raw.DaysLeft = req.DaysLeft
	raw.DurationMins = req.DurationMins

	return raw, nil
}

// Summary converts derived features to their wire form.
func Summary(f features.Features) models.FeatureSummary {
	return models.FeatureSummary{
		Stops:                   f.Stops,
		DaysLeft:                f.DaysLeft,
		DurationMins:            f.DurationMins,
		RedEye:                  f.RedEye,
		IsPeakDeparture:         f.IsPeakDeparture,
		CrossRegion:             f.CrossRegion,
		DaysDurationInteraction: f.DaysDurationInteraction,
		StopsPerHour:            f.StopsPerHour,
		BookingType:             f.BookingType.String(),
		AirlineTier:             f.AirlineTier.String(),
		DurationCategory:        f.DurationCategory.String(),
		Class:                   f.Class.String(),
	}
}

// Response builds the wire response for a quote. The vector is included
// only when requested.
func Response(requestID string, q Quote, withVector bool) models.QuoteResponse {
	resp := models.QuoteResponse{
		RequestID:  requestID,
		Price:      q.Price,
		Tips:       q.Tips,
		RouteKind:  q.RouteKind,
		DistanceKm: q.DistanceKm,
		Features:   Summary(q.Features),
		Elapsed:    q.Elapsed.String(),
	}
	if withVector {
		resp.Vector = &models.EncodedVector{
			Columns: q.Vector.Columns(),
			Values:  q.Vector.Values(),
		}
	}
	return resp
}
