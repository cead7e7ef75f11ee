package app

import (
	"context"

	"staybook/internal/domain"
)

type MaintenanceStatus struct {
	Maintenance bool `json:"maintenance"`
}

// SupportService answers the maintenance poll. A cache override lets ops flip
// maintenance on without a restart; the config flag is the fallback.
type SupportService struct {
	cache       domain.Cache
	maintenance bool
}

func NewSupportService(cache domain.Cache, maintenance bool) *SupportService {
	return &SupportService{cache: cache, maintenance: maintenance}
}

func (s *SupportService) MaintenanceStatus(ctx context.Context) MaintenanceStatus {
	var override bool
	if ok, err := s.cache.Get(ctx, "maintenance", &override); err == nil && ok {
		return MaintenanceStatus{Maintenance: override}
	}
	return MaintenanceStatus{Maintenance: s.maintenance}
}
