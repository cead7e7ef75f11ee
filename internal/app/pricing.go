package app

import (
	"math"
	"strings"

	"staybook/internal/domain"
)

// Pricing constants. Synthetic estimates are derived in EUR and converted to
// RON; trusted prices are already RON and skip the conversion.
const (
	avgNightlyEUR = 170
	eurToRON      = 4.97

	syntheticBaseMin  = 80
	syntheticBaseSpan = 220 // base falls in [80, 300)
	defaultBase       = 100 // used when the record has no id to hash
)

var centralHints = []string{"center", "centru", "downtown", "central"}

// EstimatePrice maps a hotel record to its displayed nightly price in RON.
// Pure: the same record always yields the same price, so search results,
// listings and the detail view all agree. It never fails; missing fields are
// defaulted inline.
//
// Every branch, trusted prices included, passes through normalize. Keeping
// that behavior is deliberate: stored bookings and cached listings were priced
// with it, and changing it would disagree with every previously shown price.
func EstimatePrice(h *domain.HotelRecord) int {
	return normalize(rawPrice(h))
}

// EstimateBase is the pre-normalization price. It is what gets persisted as a
// record's estimatedPrice: a later EstimatePrice over the stored value passes
// through the same normalize step and displays the identical number.
func EstimateBase(h *domain.HotelRecord) float64 {
	return rawPrice(h)
}

func rawPrice(h *domain.HotelRecord) float64 {
	if h == nil {
		// flat average converted to RON
		return math.Round(avgNightlyEUR * eurToRON)
	}
	if h.Price != nil {
		return *h.Price
	}
	if h.SavedPrice != nil {
		return *h.SavedPrice
	}
	if h.ID != "" && h.EstimatedPrice != nil {
		return *h.EstimatedPrice
	}
	return synthetic(h)
}

// synthetic derives a plausible EUR price from the record's stable fields and
// converts it to RON rounded to the nearest 10.
func synthetic(h *domain.HotelRecord) float64 {
	base := float64(defaultBase)
	if h.ID != "" {
		base = float64(syntheticBaseMin + foldHash(hashID(h.ID)))
	}

	price := base

	// rating: +0..30%, missing treated as a 0.5 ratio (+15%)
	ratio := 0.5
	if h.Rating != nil {
		ratio = *h.Rating / 5
	}
	price *= 1 + ratio*0.30

	price *= 1 + reviewBoost(h.UserRatingCount)
	price *= 1 + typeBoost(h.Types)
	price *= 1 + locationBoost(h.FormattedAddress)

	return math.Round(price*eurToRON/10) * 10
}

// hashID is a polynomial rolling hash with 32-bit wraparound, matching the
// hash historically used to seed prices. Changing it would silently reprice
// every hotel without a trusted price.
func hashID(id string) int32 {
	var h int32
	for _, r := range id {
		h = h*31 + int32(r)
	}
	return h
}

func foldHash(h int32) int {
	a := int64(h)
	if a < 0 {
		a = -a
	}
	return int(a % syntheticBaseSpan)
}

// reviewBoost returns the highest applicable tier; tiers are exclusive.
func reviewBoost(count *int) float64 {
	if count == nil {
		return 0
	}
	switch c := *count; {
	case c > 1000:
		return 0.40
	case c > 500:
		return 0.30
	case c > 200:
		return 0.20
	case c > 100:
		return 0.10
	default:
		return 0
	}
}

func typeBoost(types []string) float64 {
	var hotel bool
	for _, t := range types {
		switch strings.ToLower(t) {
		case "luxury", "resort":
			return 0.30
		case "hotel":
			hotel = true
		}
	}
	if hotel {
		return 0.15
	}
	return 0
}

func locationBoost(addr *string) float64 {
	if addr == nil {
		return 0
	}
	a := strings.ToLower(*addr)
	for _, hint := range centralHints {
		if strings.Contains(a, hint) {
			return 0.25
		}
	}
	return 0
}

// normalize is the unconditional display scaling: divide by 3, round to the
// nearest 10, round to the nearest 10 again (the second pass is a no-op but
// kept so the formula matches stored prices digit for digit).
func normalize(p float64) int {
	n := math.Round(p / 3)
	n = math.Round(n/10) * 10
	n = math.Round(n/10) * 10
	return int(n)
}
