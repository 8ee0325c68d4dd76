package compensation

import (
	"github.com/shopspring/decimal"
)

// BaseRules 提成基数构成规则
type BaseRules struct {
	OnDiscountedAmount bool
	IncludeTaxes       bool
	IncludeShipping    bool
}

// PlanParams 方案参数
type PlanParams struct {
	ID                   uint
	Name                 string
	Type                 string
	DefaultPercentage    decimal.Decimal
	FixedAmount          decimal.Decimal
	Tiers                []Tier
	Base                 BaseRules
	MinOrderAmount       decimal.Decimal
	MaxCommission        *decimal.Decimal
	ApplicableRoles      []string
	ApplicableProducts   []uint
	ApplicableCategories []string
}

// OverrideParams 员工覆盖项，nil 表示未覆盖
type OverrideParams struct {
	ConfigID      uint
	Percentage    *decimal.Decimal
	FixedAmount   *decimal.Decimal
	Tiers         []Tier
	MaxCommission *decimal.Decimal
}

// Present 是否存在任一覆盖项
func (o *OverrideParams) Present() bool {
	if o == nil {
		return false
	}
	return o.Percentage != nil || o.FixedAmount != nil || len(o.Tiers) > 0 || o.MaxCommission != nil
}

// ResolvedCommissionConfig 某员工某时刻生效的提成配置（覆盖项已合并）
type ResolvedCommissionConfig struct {
	PlanID               uint
	PlanName             string
	EmployeeConfigID     *uint
	Formula              CommissionFormula
	Base                 BaseRules
	MinOrderAmount       decimal.Decimal
	MaxCommission        *decimal.Decimal
	WasOverridden        bool
	ApplicableRoles      []string
	ApplicableProducts   []uint
	ApplicableCategories []string
}

// PlanType 方案类型
func (c ResolvedCommissionConfig) PlanType() string {
	if c.Formula == nil {
		return ""
	}
	return c.Formula.Type()
}

// AppliesToRole 岗位是否适用（未配置表示全部适用）
func (c ResolvedCommissionConfig) AppliesToRole(role string) bool {
	if len(c.ApplicableRoles) == 0 {
		return true
	}
	for _, allowed := range c.ApplicableRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// ScopesItems 是否限定了商品或分类
func (c ResolvedCommissionConfig) ScopesItems() bool {
	return len(c.ApplicableProducts) > 0 || len(c.ApplicableCategories) > 0
}

// Scope 商品范围
func (c ResolvedCommissionConfig) Scope() ItemScope {
	return ItemScope{ProductIDs: c.ApplicableProducts, Categories: c.ApplicableCategories}
}

// ResolveConfig 将覆盖项合并到方案上，覆盖项存在即生效（不比较取值是否相同）
func ResolveConfig(plan PlanParams, override *OverrideParams) (ResolvedCommissionConfig, error) {
	params := FormulaParams{
		Type:       plan.Type,
		Percentage: plan.DefaultPercentage,
		Fixed:      plan.FixedAmount,
		Tiers:      plan.Tiers,
	}
	maxCommission := plan.MaxCommission
	var configID *uint
	if override != nil {
		if override.Percentage != nil {
			params.Percentage = *override.Percentage
		}
		if override.FixedAmount != nil {
			params.Fixed = *override.FixedAmount
		}
		if len(override.Tiers) > 0 {
			params.Tiers = override.Tiers
		}
		if override.MaxCommission != nil {
			maxCommission = override.MaxCommission
		}
		if override.ConfigID != 0 {
			id := override.ConfigID
			configID = &id
		}
	}

	formula, err := NewCommissionFormula(params)
	if err != nil {
		return ResolvedCommissionConfig{}, err
	}
	return ResolvedCommissionConfig{
		PlanID:               plan.ID,
		PlanName:             plan.Name,
		EmployeeConfigID:     configID,
		Formula:              formula,
		Base:                 plan.Base,
		MinOrderAmount:       plan.MinOrderAmount,
		MaxCommission:        maxCommission,
		WasOverridden:        override.Present(),
		ApplicableRoles:      plan.ApplicableRoles,
		ApplicableProducts:   plan.ApplicableProducts,
		ApplicableCategories: plan.ApplicableCategories,
	}, nil
}
