package app

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"staybook/internal/domain"
)

/********** alias registries (single source of truth) **********/

// The places API has shipped both the v1 field names and the legacy ones;
// payloads in the wild mix them. First non-empty alias wins.
var placeAliases = map[string][]string{
	"id":      {"id", "place_id", "placeId"},
	"name":    {"displayName.text", "displayName", "name"},
	"address": {"formattedAddress", "formatted_address", "vicinity", "address"},
	"city":    {"addressComponents.city", "address.city", "city", "locality"},
	"country": {"addressComponents.country", "address.country", "country"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func firstNonEmptyAlias(m map[string]any, key string) *string {
	for _, p := range placeAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func getIntFlexible(m map[string]any, paths ...string) *int {
	if f := getFloatFlexible(m, paths...); f != nil {
		n := int(*f)
		return &n
	}
	return nil
}

// stringSlice accepts []any of strings or of objects keyed by one of keys.
func stringSlice(m map[string]any, path string, keys ...string) []string {
	raw, ok := lookupAny(m, path).([]any)
	if !ok {
		return nil
	}
	out := lo.FilterMap(raw, func(it any, _ int) (string, bool) {
		switch t := it.(type) {
		case string:
			return t, t != ""
		case map[string]any:
			for _, k := range keys {
				if s, ok := t[k].(string); ok && s != "" {
					return s, true
				}
			}
		}
		return "", false
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

/********** place mapper **********/

// mapPlace turns one places-API payload into a HotelRecord. Absent fields stay
// nil; the estimator defaults them at display time.
func mapPlace(p map[string]any) domain.HotelRecord {
	raw, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Str("context", "mapPlace").Msg("marshal place payload failed")
	}

	rec := domain.HotelRecord{
		ID:               strings.TrimSpace(lo.FromPtr(firstNonEmptyAlias(p, "id"))),
		Name:             firstNonEmptyAlias(p, "name"),
		Rating:           getFloatFlexible(p, "rating", "rating.value"),
		UserRatingCount:  getIntFlexible(p, "userRatingCount", "user_ratings_total"),
		FormattedAddress: firstNonEmptyAlias(p, "address"),
		City:             firstNonEmptyAlias(p, "city"),
		Country:          firstNonEmptyAlias(p, "country"),
		Lat:              getFloatFlexible(p, "location.latitude", "geometry.location.lat", "lat"),
		Lon:              getFloatFlexible(p, "location.longitude", "geometry.location.lng", "lon", "lng"),
		Types:            normalizeTypes(stringSlice(p, "types")),
		Images:           stringSlice(p, "photos", "name", "url", "src"),
		RawJSON:          raw,
	}

	// some payloads carry a nightly price already; keep it as the trusted source
	rec.Price = getFloatFlexible(p, "price", "nightlyPrice", "price_per_night")
	return rec
}

func mapPlaces(in []map[string]any) []domain.HotelRecord {
	return lo.Map(in, func(p map[string]any, _ int) domain.HotelRecord { return mapPlace(p) })
}

func normalizeTypes(types []string) []string {
	out := lo.Map(types, func(t string, _ int) string { return strings.ToLower(strings.TrimSpace(t)) })
	return lo.Compact(out)
}
