package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"staybook/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
func nullF64(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}
func nullInt64(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- hotels ----

func (r *Repo) UpsertHotel(ctx context.Context, h domain.HotelRecord) error {
	types, _ := json.Marshal(h.Types)
	imgs, _ := json.Marshal(h.Images)
	var raw any
	if len(h.RawJSON) > 0 {
		raw = string(h.RawJSON)
	}
	_, err := r.db.ExecContext(ctx, upsertHotelSQL,
		h.ID,
		valStr(h.Name),
		valF64(h.Price),
		valF64(h.SavedPrice),
		valF64(h.EstimatedPrice),
		valF64(h.Rating),
		valInt(h.UserRatingCount),
		string(types),
		valStr(h.FormattedAddress),
		valStr(h.City),
		valStr(h.Country),
		valF64(h.Lat),
		valF64(h.Lon),
		string(imgs),
		valInt64(h.OwnerID),
		raw,
	)
	return err
}

func (r *Repo) SaveEstimate(ctx context.Context, id string, price float64) error {
	_, err := r.db.ExecContext(ctx, saveEstimateSQL, price, id)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, query string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, query, status, reason)
	return err
}

func (r *Repo) GetHotel(ctx context.Context, id string) (domain.HotelRecord, error) {
	return scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
}

func (r *Repo) ListHotels(ctx context.Context, q domain.HotelsQuery) (domain.HotelsPage, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if q.Country != nil {
		where = append(where, "country = ?")
		args = append(args, *q.Country)
	}
	if q.City != nil {
		where = append(where, "city = ?")
		args = append(args, *q.City)
	}
	if q.Q != nil {
		where = append(where, "(name LIKE ? OR formatted_address LIKE ?)")
		pat := "%" + *q.Q + "%"
		args = append(args, pat, pat)
	}
	if q.OwnerID != nil {
		where = append(where, "owner_id = ?")
		args = append(args, *q.OwnerID)
	}

	sqlStr := listHotelsPrefix
	if len(where) > 0 {
		sqlStr += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sqlStr += "ORDER BY id\nLIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return domain.HotelsPage{}, err
	}
	defer rows.Close()

	var out []domain.HotelRecord
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return domain.HotelsPage{}, err
		}
		out = append(out, h)
	}
	return domain.HotelsPage{Items: out}, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanHotel(row rowScanner) (domain.HotelRecord, error) {
	var h domain.HotelRecord
	var name, addr, city, country sql.NullString
	var price, saved, est, rating, lat, lon sql.NullFloat64
	var count, owner sql.NullInt64
	var typesJSON, imagesJSON, raw []byte

	if err := row.Scan(
		&h.ID, &name, &price, &saved, &est, &rating, &count,
		&typesJSON, &addr, &city, &country, &lat, &lon, &imagesJSON, &owner, &raw,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.HotelRecord{}, domain.ErrNotFound
		}
		return domain.HotelRecord{}, err
	}

	h.Name = nullStr(name)
	h.Price = nullF64(price)
	h.SavedPrice = nullF64(saved)
	h.EstimatedPrice = nullF64(est)
	h.Rating = nullF64(rating)
	h.UserRatingCount = nullInt(count)
	h.FormattedAddress = nullStr(addr)
	h.City = nullStr(city)
	h.Country = nullStr(country)
	h.Lat = nullF64(lat)
	h.Lon = nullF64(lon)
	h.OwnerID = nullInt64(owner)
	h.RawJSON = raw
	_ = json.Unmarshal(typesJSON, &h.Types)
	_ = json.Unmarshal(imagesJSON, &h.Images)
	return h, nil
}
