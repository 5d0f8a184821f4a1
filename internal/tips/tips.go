// Package tips derives money-saving advice from a flight's semantic features.
package tips

import "github.com/yash/flightprice/internal/features"

// Tip texts, in the order Generate emits them.
const (
	SwitchToEconomy = "✈️ Consider flying Economy class to save costs."
	BookEarlier     = "📅 Booking earlier can help get better prices."
	ChooseLowCost   = "💰 Choosing low-cost airlines can save you money."
	Optimized       = "🎉 Your flight details look optimized for the best price!"
)

// Generate returns the tips for a feature record. The checks are
// independent and emitted in a fixed order; when none applies the single
// Optimized tip is returned, so the list is never empty.
func Generate(f features.Features) []string {
	var out []string

	if f.Class == features.Business {
		out = append(out, SwitchToEconomy)
	}
	if f.BookingType == features.LastMinute || f.BookingType == features.Near {
		out = append(out, BookEarlier)
	}
	if f.AirlineTier == features.HighCost {
		out = append(out, ChooseLowCost)
	}

	if len(out) == 0 {
		out = append(out, Optimized)
	}
	return out
}
