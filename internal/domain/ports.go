package domain

import (
	"context"
	"time"
)

type HotelRepository interface {
	// Write paths
	UpsertHotel(ctx context.Context, h HotelRecord) error
	SaveEstimate(ctx context.Context, id string, price float64) error
	LogMiss(ctx context.Context, query string, status int, reason string) error

	// Read paths
	GetHotel(ctx context.Context, id string) (HotelRecord, error)
	ListHotels(ctx context.Context, q HotelsQuery) (HotelsPage, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	UpdateProfile(ctx context.Context, id int64, p ProfileUpdate) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdatePlan(ctx context.Context, id int64, plan string) error
	UpdateRole(ctx context.Context, id int64, role string) error
	UpdateImage(ctx context.Context, id int64, kind, path string) error
}

type ApprovalRepository interface {
	CreateApproval(ctx context.Context, a ApprovalRequest) (int64, error)
	GetApprovalByToken(ctx context.Context, token string) (ApprovalRequest, error)
	GetApprovalByEmail(ctx context.Context, email string) (ApprovalRequest, error)
	SetApprovalStatus(ctx context.Context, id int64, st ApprovalStatus) error
	SetApprovalCode(ctx context.Context, id int64, code string, expires time.Time) error
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) (int64, error)
	OverlappingBookings(ctx context.Context, hotelID string, in, out time.Time) (int, error)
}

type PlacesClient interface {
	SearchNearby(ctx context.Context, lat, lng, radiusM float64) ([]map[string]any, error)
	SearchText(ctx context.Context, query string) ([]map[string]any, error)
	Media(ctx context.Context, ref string) ([]byte, string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
