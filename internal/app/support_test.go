package app_test

import (
	"context"
	"testing"

	"staybook/internal/app"
)

func TestMaintenanceStatus_CacheOverridesConfig(t *testing.T) {
	cache := &fakeCache{}
	svc := app.NewSupportService(cache, false)

	if svc.MaintenanceStatus(context.Background()).Maintenance {
		t.Fatal("expected maintenance off by default")
	}

	// ops flips the flag at runtime
	_ = cache.Set(context.Background(), "maintenance", true, 60)
	if !svc.MaintenanceStatus(context.Background()).Maintenance {
		t.Fatal("expected cache override to win")
	}
}

func TestMaintenanceStatus_ConfigFallback(t *testing.T) {
	svc := app.NewSupportService(&fakeCache{}, true)
	if !svc.MaintenanceStatus(context.Background()).Maintenance {
		t.Fatal("expected config flag to apply without an override")
	}
}
