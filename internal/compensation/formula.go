package compensation

import (
	"errors"
	"fmt"

	"github.com/tienda-next/internal/constants"

	"github.com/shopspring/decimal"
)

// ErrUnknownFormula 未知的方案/奖金类型
var ErrUnknownFormula = errors.New("unknown formula type")

var hundred = decimal.NewFromInt(100)

// CommissionFormula 提成公式（封闭集合：Percentage / Tiered / Fixed / Mixed）
type CommissionFormula interface {
	// Type 对应存储的方案类型
	Type() string
	apply(base decimal.Decimal) formulaOutcome
}

type formulaOutcome struct {
	amount     decimal.Decimal
	percentage decimal.Decimal
	fixed      decimal.Decimal
	tier       *Tier
}

// PercentageFormula 按比例
type PercentageFormula struct {
	Percentage decimal.Decimal
}

// TieredFormula 按阶梯比例
type TieredFormula struct {
	Tiers []Tier
}

// FixedFormula 每单固定金额
type FixedFormula struct {
	Amount decimal.Decimal
}

// MixedFormula 固定金额 + 比例
type MixedFormula struct {
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

func (PercentageFormula) Type() string { return constants.CommissionPlanTypePercentage }
func (TieredFormula) Type() string { return constants.CommissionPlanTypeTiered }
func (FixedFormula) Type() string { return constants.CommissionPlanTypeFixed }
func (MixedFormula) Type() string { return constants.CommissionPlanTypeMixed }

func (f PercentageFormula) apply(base decimal.Decimal) formulaOutcome {
	return formulaOutcome{
		amount:     percentOf(base, f.Percentage),
		percentage: f.Percentage,
	}
}

func (f TieredFormula) apply(base decimal.Decimal) formulaOutcome {
	tier := ResolveTier(f.Tiers, base)
	if tier == nil {
		return formulaOutcome{amount: decimal.Zero}
	}
	return formulaOutcome{
		amount:     percentOf(base, tier.Percentage),
		percentage: tier.Percentage,
		tier:       tier,
	}
}

func (f FixedFormula) apply(_ decimal.Decimal) formulaOutcome {
	return formulaOutcome{
		amount: f.Amount,
		fixed:  f.Amount,
	}
}

func (f MixedFormula) apply(base decimal.Decimal) formulaOutcome {
	return formulaOutcome{
		amount:     f.Amount.Add(percentOf(base, f.Percentage)),
		percentage: f.Percentage,
		fixed:      f.Amount,
	}
}

// FormulaParams 组装公式所需的已合并参数
type FormulaParams struct {
	Type       string
	Percentage decimal.Decimal
	Fixed      decimal.Decimal
	Tiers      []Tier
}

// NewCommissionFormula 按存储类型构造公式
func NewCommissionFormula(p FormulaParams) (CommissionFormula, error) {
	switch p.Type {
	case constants.CommissionPlanTypePercentage:
		return PercentageFormula{Percentage: p.Percentage}, nil
	case constants.CommissionPlanTypeTiered:
		return TieredFormula{Tiers: SortTiers(p.Tiers)}, nil
	case constants.CommissionPlanTypeFixed:
		return FixedFormula{Amount: p.Fixed}, nil
	case constants.CommissionPlanTypeMixed:
		return MixedFormula{Amount: p.Fixed, Percentage: p.Percentage}, nil
	default:
		return nil, fmt.Errorf("%w: commission %q", ErrUnknownFormula, p.Type)
	}
}

func percentOf(base, percentage decimal.Decimal) decimal.Decimal {
	return base.Mul(percentage).Div(hundred)
}
