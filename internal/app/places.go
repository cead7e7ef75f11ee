package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"staybook/internal/domain"
)

// PlacesService serves live search against the places API, mapped into priced
// hotel records and cached like the repository-backed listings.
type PlacesService struct {
	client   domain.PlacesClient
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewPlacesService(c domain.PlacesClient, cache domain.Cache, ttl time.Duration) *PlacesService {
	return &PlacesService{client: c, cache: cache, cacheTTL: ttl}
}

func (s *PlacesService) SearchNearby(ctx context.Context, lat, lng, radiusM float64) (PricedPage, error) {
	key := fmt.Sprintf("nearby:%.4f:%.4f:%.0f", lat, lng, radiusM)
	var out PricedPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	payloads, err := s.client.SearchNearby(ctx, lat, lng, radiusM)
	if err != nil {
		return PricedPage{}, err
	}
	out = pricePage(domain.HotelsPage{Items: mapPlaces(payloads)})
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *PlacesService) SearchText(ctx context.Context, query string) (PricedPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return PricedPage{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	key := "textsearch:" + strings.ToLower(query)
	var out PricedPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	payloads, err := s.client.SearchText(ctx, query)
	if err != nil {
		return PricedPage{}, err
	}
	out = pricePage(domain.HotelsPage{Items: mapPlaces(payloads)})
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *PlacesService) Media(ctx context.Context, ref string) ([]byte, string, error) {
	if ref == "" {
		return nil, "", fmt.Errorf("%w: media ref is required", domain.ErrValidation)
	}
	return s.client.Media(ctx, ref)
}
