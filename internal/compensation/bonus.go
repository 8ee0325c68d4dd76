package compensation

import (
	"fmt"
	"sort"

	"github.com/tienda-next/internal/constants"

	"github.com/shopspring/decimal"
)

// BonusTier 奖金阶梯：达成率达到 Threshold 即可获得 Amount
type BonusTier struct {
	Threshold decimal.Decimal
	Amount    decimal.Decimal
	Label     string
}

// BonusRules 奖金计算上下文
type BonusRules struct {
	TargetValue    decimal.Decimal
	MinAchievement decimal.Decimal
	ProRated       bool
}

// BonusResult 奖金计算结果
type BonusResult struct {
	Amount    decimal.Decimal
	TierLabel string
}

// BonusFormula 奖金公式（封闭集合：Fixed / Percentage / Tiered / None）
type BonusFormula interface {
	// Type 对应存储的奖金类型
	Type() string
	compute(rules BonusRules, achievement decimal.Decimal) BonusResult
}

// FixedBonus 固定奖金
type FixedBonus struct {
	Amount decimal.Decimal
}

// PercentageBonus 按目标值比例
type PercentageBonus struct {
	Percentage decimal.Decimal
}

// TieredBonus 按达成率阶梯
type TieredBonus struct {
	Tiers []BonusTier
}

// NoBonus 不发放奖金
type NoBonus struct{}

func (FixedBonus) Type() string { return constants.GoalBonusFixed }
func (PercentageBonus) Type() string { return constants.GoalBonusPercentage }
func (TieredBonus) Type() string { return constants.GoalBonusTiered }
func (NoBonus) Type() string { return constants.GoalBonusNone }

func (b FixedBonus) compute(rules BonusRules, achievement decimal.Decimal) BonusResult {
	return BonusResult{Amount: prorate(b.Amount, rules.ProRated, achievement)}
}

func (b PercentageBonus) compute(rules BonusRules, achievement decimal.Decimal) BonusResult {
	full := percentOf(rules.TargetValue, b.Percentage)
	return BonusResult{Amount: prorate(full, rules.ProRated, achievement)}
}

func (b TieredBonus) compute(_ BonusRules, achievement decimal.Decimal) BonusResult {
	tiers := make([]BonusTier, len(b.Tiers))
	copy(tiers, b.Tiers)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].Threshold.GreaterThan(tiers[j].Threshold)
	})
	for _, tier := range tiers {
		if tier.Threshold.LessThanOrEqual(achievement) {
			return BonusResult{Amount: tier.Amount, TierLabel: tier.Label}
		}
	}
	return BonusResult{Amount: decimal.Zero}
}

func (NoBonus) compute(_ BonusRules, _ decimal.Decimal) BonusResult {
	return BonusResult{Amount: decimal.Zero}
}

// BonusParams 奖金公式参数
type BonusParams struct {
	Type       string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
	Tiers      []BonusTier
}

// NewBonusFormula 按存储类型构造奖金公式，空类型视为不发放
func NewBonusFormula(p BonusParams) (BonusFormula, error) {
	switch p.Type {
	case constants.GoalBonusFixed:
		return FixedBonus{Amount: p.Amount}, nil
	case constants.GoalBonusPercentage:
		return PercentageBonus{Percentage: p.Percentage}, nil
	case constants.GoalBonusTiered:
		return TieredBonus{Tiers: p.Tiers}, nil
	case constants.GoalBonusNone, "":
		return NoBonus{}, nil
	default:
		return nil, fmt.Errorf("%w: bonus %q", ErrUnknownFormula, p.Type)
	}
}

// ComputeBonus 按达成率计算奖金；低于最低达成率时为 0
func ComputeBonus(formula BonusFormula, rules BonusRules, achievement decimal.Decimal) BonusResult {
	if formula == nil || achievement.LessThan(rules.MinAchievement) {
		return BonusResult{Amount: decimal.Zero}
	}
	result := formula.compute(rules, achievement)
	result.Amount = result.Amount.Round(2)
	if result.Amount.IsNegative() {
		result.Amount = decimal.Zero
	}
	return result
}

// prorate 折算系数封顶 100%，超额达成不放大奖金
func prorate(amount decimal.Decimal, enabled bool, achievement decimal.Decimal) decimal.Decimal {
	if !enabled || achievement.GreaterThanOrEqual(hundred) {
		return amount
	}
	return percentOf(amount, achievement)
}
