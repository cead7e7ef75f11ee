package app

import (
	"context"
	"errors"
	"fmt"

	"staybook/internal/domain"
)

type IngestionService struct {
	places domain.PlacesClient
	repo   domain.HotelRepository
	cache  domain.Cache
}

func NewIngestionService(c domain.PlacesClient, r domain.HotelRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{places: c, repo: r, cache: cache}
}

// IngestQuery runs one seed text-search and upserts every mapped hotel with a
// precomputed price estimate. Known upstream misses (404/401/403) are recorded
// and skipped; anything else bubbles up.
func (s *IngestionService) IngestQuery(ctx context.Context, query string) (int, error) {
	payloads, err := s.places.SearchText(ctx, query)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			_ = s.repo.LogMiss(ctx, query, 404, "not found")
			return 0, nil
		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
			_ = s.repo.LogMiss(ctx, query, 403, "inactive")
			return 0, nil
		default:
			return 0, err
		}
	}

	stored := 0
	for _, rec := range mapPlaces(payloads) {
		if rec.ID == "" {
			_ = s.repo.LogMiss(ctx, query, 200, "payload without id")
			continue
		}
		if err := s.repo.UpsertHotel(ctx, rec); err != nil {
			return stored, fmt.Errorf("upsert hotel %s failed: %w", rec.ID, err)
		}
		// seed the estimate base so later reads price the record identically
		if rec.Price == nil {
			if err := s.repo.SaveEstimate(ctx, rec.ID, EstimateBase(&rec)); err != nil {
				return stored, fmt.Errorf("save estimate for %s failed: %w", rec.ID, err)
			}
		}
		s.invalidate(ctx, rec.ID)
		stored++
	}
	return stored, nil
}

func (s *IngestionService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, "hotel:"+id)
	for _, lim := range []int{20, 50, 100} {
		_ = s.cache.Del(ctx, listKey(domain.HotelsQuery{Limit: lim}))
	}
}
