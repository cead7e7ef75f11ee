package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"staybook/internal/domain"
)

type HotelService struct {
	repo     domain.HotelRepository
	bookings domain.BookingRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewHotelService(r domain.HotelRepository, b domain.BookingRepository, c domain.Cache, ttl time.Duration) *HotelService {
	return &HotelService{repo: r, bookings: b, cache: c, cacheTTL: ttl}
}

// PricedHotel is a listing item with both the persisted estimate base and the
// displayed nightly price, so clients never recompute prices themselves.
type PricedHotel struct {
	domain.HotelRecord
	NightlyPrice int `json:"nightlyPrice"`
}

type PricedPage struct {
	Items []PricedHotel `json:"items"`
}

func listKey(q domain.HotelsQuery) string {
	return fmt.Sprintf("hotels:%s:%s:%s:%d",
		strings.ToLower(deref(q.Country)), strings.ToLower(deref(q.City)), strings.ToLower(deref(q.Q)), q.Limit)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (s *HotelService) ListHotels(ctx context.Context, q domain.HotelsQuery) (PricedPage, error) {
	key := listKey(q)
	var out PricedPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	page, err := s.repo.ListHotels(ctx, q)
	if err != nil {
		return PricedPage{}, err
	}
	out = pricePage(page)

	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *HotelService) GetHotel(ctx context.Context, id string) (PricedHotel, error) {
	key := "hotel:" + id
	var out PricedHotel
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return PricedHotel{}, err
	}
	out = priceRecord(h)
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// CreateUserHotel persists a user-submitted accommodation. The record gets a
// synthetic id so the estimator prices it deterministically from day one.
func (s *HotelService) CreateUserHotel(ctx context.Context, ownerID int64, h domain.HotelRecord) (PricedHotel, error) {
	if h.Name == nil || strings.TrimSpace(*h.Name) == "" {
		return PricedHotel{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if h.ID == "" {
		b := make([]byte, 6)
		if _, err := rand.Read(b); err != nil {
			return PricedHotel{}, err
		}
		h.ID = fmt.Sprintf("u%d-%s", ownerID, hex.EncodeToString(b))
	}
	h.OwnerID = &ownerID

	if err := s.repo.UpsertHotel(ctx, h); err != nil {
		return PricedHotel{}, err
	}
	s.invalidateHotel(ctx, h.ID)
	return priceRecord(h), nil
}

// Availability checks a date range against existing bookings and quotes the
// stay at the record's estimated nightly price.
func (s *HotelService) Availability(ctx context.Context, hotelID string, checkIn, checkOut time.Time) (domain.Availability, error) {
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights <= 0 {
		return domain.Availability{}, fmt.Errorf("%w: check-out must be after check-in", domain.ErrValidation)
	}

	h, err := s.repo.GetHotel(ctx, hotelID)
	if err != nil {
		return domain.Availability{}, err
	}
	overlaps, err := s.bookings.OverlappingBookings(ctx, hotelID, checkIn, checkOut)
	if err != nil {
		return domain.Availability{}, err
	}

	nightly := EstimatePrice(&h)
	return domain.Availability{
		HotelID:   hotelID,
		Available: overlaps == 0,
		Nights:    nights,
		Nightly:   nightly,
		Total:     nightly * nights,
	}, nil
}

// Pay validates availability and records a paid booking. Payment itself is
// delegated to the gateway at the edge; this owns the booking record.
func (s *HotelService) Pay(ctx context.Context, userID int64, hotelID string, checkIn, checkOut time.Time) (domain.Booking, error) {
	av, err := s.Availability(ctx, hotelID, checkIn, checkOut)
	if err != nil {
		return domain.Booking{}, err
	}
	if !av.Available {
		return domain.Booking{}, domain.ErrUnavailable
	}

	b := domain.Booking{
		HotelID:    hotelID,
		UserID:     userID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Nights:     av.Nights,
		NightlyRON: av.Nightly,
		TotalRON:   av.Total,
		Status:     domain.BookingPaid,
	}
	id, err := s.bookings.CreateBooking(ctx, b)
	if err != nil {
		return domain.Booking{}, err
	}
	b.ID = id
	return b, nil
}

// invalidateHotel drops the detail key and the default listing variants.
func (s *HotelService) invalidateHotel(ctx context.Context, id string) {
	_ = s.cache.Del(ctx, "hotel:"+id)
	for _, lim := range []int{20, 50, 100} {
		_ = s.cache.Del(ctx, listKey(domain.HotelsQuery{Limit: lim}))
	}
}

func pricePage(page domain.HotelsPage) PricedPage {
	out := PricedPage{Items: make([]PricedHotel, 0, len(page.Items))}
	for _, h := range page.Items {
		out.Items = append(out.Items, priceRecord(h))
	}
	return out
}

func priceRecord(h domain.HotelRecord) PricedHotel {
	return PricedHotel{HotelRecord: h, NightlyPrice: EstimatePrice(&h)}
}
