package domain

import "encoding/json"

// HotelRecord is a single property of mixed provenance: either mapped from the
// places API or submitted by a user. Optional fields stay nil when the source
// payload omitted them; pricing defaults them inline.
type HotelRecord struct {
	ID               string          `json:"id"`
	Name             *string         `json:"name,omitempty"`
	Price            *float64        `json:"price,omitempty"`          // trusted nightly price, already in RON
	SavedPrice       *float64        `json:"savedPrice,omitempty"`     // price persisted at an earlier lookup
	EstimatedPrice   *float64        `json:"estimatedPrice,omitempty"` // previously computed estimate, passed through
	Rating           *float64        `json:"rating,omitempty"`         // 0..5
	UserRatingCount  *int            `json:"userRatingCount,omitempty"`
	Types            []string        `json:"types,omitempty"`
	FormattedAddress *string         `json:"formattedAddress,omitempty"`
	City             *string         `json:"city,omitempty"`
	Country          *string         `json:"country,omitempty"`
	Lat              *float64        `json:"lat,omitempty"`
	Lon              *float64        `json:"lon,omitempty"`
	Images           []string        `json:"images,omitempty"`
	OwnerID          *int64          `json:"ownerId,omitempty"` // set for user-submitted accommodations
	RawJSON          json.RawMessage `json:"-"`                 // full upstream payload for ingested records
}

type HotelsQuery struct {
	Q             *string
	Country, City *string
	OwnerID       *int64
	Limit         int
}

type HotelsPage struct {
	Items []HotelRecord
}
