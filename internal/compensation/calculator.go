package compensation

import (
	"github.com/tienda-next/internal/constants"

	"github.com/shopspring/decimal"
)

// OrderAmounts 参与基数计算的订单金额
type OrderAmounts struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
}

// CommissionResult 提成计算结果
type CommissionResult struct {
	Base           decimal.Decimal
	Percentage     decimal.Decimal
	FixedAmount    decimal.Decimal
	Amount         decimal.Decimal
	OriginalAmount *decimal.Decimal
	Tier           *Tier
	WasOverridden  bool
	WasCapped      bool
}

// Skipped 正常业务流量中的跳过结果，不是错误
type Skipped struct {
	Reason string
}

// Skip 构造跳过结果
func Skip(reason string) *Skipped {
	return &Skipped{Reason: reason}
}

// BaseAmount 按方案规则组装提成基数，负数按 0 处理
func BaseAmount(amounts OrderAmounts, rules BaseRules) decimal.Decimal {
	base := amounts.Subtotal
	if rules.OnDiscountedAmount {
		base = base.Sub(amounts.Discount)
	}
	if rules.IncludeTaxes {
		base = base.Add(amounts.Tax)
	}
	if rules.IncludeShipping {
		base = base.Add(amounts.Shipping)
	}
	if base.IsNegative() {
		return decimal.Zero
	}
	return base.Round(2)
}

// Calculate 计算单个订单的提成。低于最低金额时返回 Skipped。
func Calculate(amounts OrderAmounts, cfg ResolvedCommissionConfig) (CommissionResult, *Skipped) {
	if cfg.Formula == nil {
		return CommissionResult{}, Skip(constants.CommissionSkipNoApplicablePlan)
	}
	base := BaseAmount(amounts, cfg.Base)
	if base.LessThan(cfg.MinOrderAmount) {
		return CommissionResult{}, Skip(constants.CommissionSkipBelowMinimum)
	}

	outcome := cfg.Formula.apply(base)
	amount := outcome.amount.Round(2)
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	result := CommissionResult{
		Base:          base,
		Percentage:    outcome.percentage,
		FixedAmount:   outcome.fixed,
		Amount:        amount,
		Tier:          outcome.tier,
		WasOverridden: cfg.WasOverridden,
	}
	if cfg.MaxCommission != nil && amount.GreaterThan(*cfg.MaxCommission) {
		original := amount
		result.OriginalAmount = &original
		result.Amount = cfg.MaxCommission.Round(2)
		result.WasCapped = true
	}
	return result, nil
}
