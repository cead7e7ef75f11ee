package mysql

import (
	"context"
	"time"

	"staybook/internal/domain"
)

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertBookingSQL,
		b.HotelID, b.UserID, b.CheckIn, b.CheckOut, b.Nights, b.NightlyRON, b.TotalRON, b.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// OverlappingBookings counts paid stays that intersect [in, out).
func (r *Repo) OverlappingBookings(ctx context.Context, hotelID string, in, out time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, overlappingBookingsSQL, hotelID, out, in).Scan(&n)
	return n, err
}
