package domain

import "time"

const BookingPaid = "paid"

type Booking struct {
	ID         int64
	HotelID    string
	UserID     int64
	CheckIn    time.Time
	CheckOut   time.Time
	Nights     int
	NightlyRON int
	TotalRON   int
	Status     string
	CreatedAt  time.Time
}

type Availability struct {
	HotelID   string `json:"hotelId"`
	Available bool   `json:"available"`
	Nights    int    `json:"nights"`
	Nightly   int    `json:"nightlyPrice"`
	Total     int    `json:"totalPrice"`
}
