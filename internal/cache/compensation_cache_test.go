package cache

import (
	"context"
	"testing"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/models"
)

func TestDefaultPlanKey(t *testing.T) {
	if got := DefaultPlanKey(12); got != "commission:default_plan:12" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestDefaultPlanCacheDisabled(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	ctx := context.Background()
	if err := SetDefaultPlan(ctx, 1, &models.CommissionPlan{ID: 3}, DefaultPlanCacheTTL); err != nil {
		t.Fatalf("set should be a no-op: %v", err)
	}
	plan, hit, err := GetDefaultPlan(ctx, 1)
	if err != nil || hit || plan != nil {
		t.Fatalf("expected cache miss when disabled, got %v %v %v", plan, hit, err)
	}
	if err := InvalidateDefaultPlan(ctx, 1); err != nil {
		t.Fatalf("invalidate should be a no-op: %v", err)
	}
}
