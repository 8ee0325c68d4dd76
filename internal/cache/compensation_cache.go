package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tienda-next/internal/models"
)

// DefaultPlanCacheTTL 租户默认提成方案缓存时长
const DefaultPlanCacheTTL = 5 * time.Minute

// DefaultPlanKey 租户默认提成方案缓存键
func DefaultPlanKey(tenantID uint) string {
	return fmt.Sprintf("commission:default_plan:%d", tenantID)
}

// cachedDefaultPlan 缓存载荷，PlanID 为 0 表示租户没有默认方案
type cachedDefaultPlan struct {
	PlanID uint                   `json:"plan_id"`
	Plan   *models.CommissionPlan `json:"plan,omitempty"`
}

// GetDefaultPlan 读取默认方案缓存，hit=true 且 plan=nil 表示已确认无默认方案
func GetDefaultPlan(ctx context.Context, tenantID uint) (*models.CommissionPlan, bool, error) {
	var payload cachedDefaultPlan
	hit, err := GetJSON(ctx, DefaultPlanKey(tenantID), &payload)
	if err != nil || !hit {
		return nil, false, err
	}
	if payload.PlanID == 0 || payload.Plan == nil {
		return nil, true, nil
	}
	return payload.Plan, true, nil
}

// SetDefaultPlan 写入默认方案缓存，plan 为 nil 时记录为空
func SetDefaultPlan(ctx context.Context, tenantID uint, plan *models.CommissionPlan, ttl time.Duration) error {
	payload := cachedDefaultPlan{Plan: plan}
	if plan != nil {
		payload.PlanID = plan.ID
	}
	return SetJSON(ctx, DefaultPlanKey(tenantID), payload, ttl)
}

// InvalidateDefaultPlan 方案写入后清除默认方案缓存
func InvalidateDefaultPlan(ctx context.Context, tenantID uint) error {
	return Del(ctx, DefaultPlanKey(tenantID))
}
