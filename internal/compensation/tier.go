// Package compensation 提成、目标与奖金的纯计算逻辑，不做任何 I/O。
package compensation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Tier 阶梯区间 [From, To)，To 为空表示无上限
type Tier struct {
	From       decimal.Decimal  `json:"from"`
	To         *decimal.Decimal `json:"to,omitempty"`
	Percentage decimal.Decimal  `json:"percentage"`
}

// Contains 判断基数是否落在区间内
func (t Tier) Contains(base decimal.Decimal) bool {
	if base.LessThan(t.From) {
		return false
	}
	return t.To == nil || base.LessThan(*t.To)
}

// SortTiers 按 From 升序返回副本
func SortTiers(tiers []Tier) []Tier {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].From.LessThan(sorted[j].From)
	})
	return sorted
}

// ResolveTier 返回基数命中的阶梯。
// 基数超过所有有界阶梯的上限时取上限最大的阶梯；落在区间空隙时返回 nil。
func ResolveTier(tiers []Tier, base decimal.Decimal) *Tier {
	if len(tiers) == 0 {
		return nil
	}
	sorted := SortTiers(tiers)
	for i := range sorted {
		if sorted[i].Contains(base) {
			matched := sorted[i]
			return &matched
		}
	}

	var top *Tier
	for i := range sorted {
		if sorted[i].To == nil {
			return nil
		}
		if base.LessThan(*sorted[i].To) {
			return nil
		}
		if top == nil || sorted[i].To.GreaterThan(*top.To) {
			top = &sorted[i]
		}
	}
	if top == nil {
		return nil
	}
	matched := *top
	return &matched
}
