package compensation

import (
	"sort"

	"github.com/tienda-next/internal/constants"

	"github.com/shopspring/decimal"
)

// ItemScope 商品/分类范围，均为空表示不限定
type ItemScope struct {
	ProductIDs []uint
	Categories []string
}

// Empty 是否未限定范围
func (s ItemScope) Empty() bool {
	return len(s.ProductIDs) == 0 && len(s.Categories) == 0
}

// Matches 订单项是否落在范围内（商品或分类任一命中）
func (s ItemScope) Matches(item ContributionItem) bool {
	if s.Empty() {
		return true
	}
	for _, id := range s.ProductIDs {
		if id == item.ProductID {
			return true
		}
	}
	if item.Category == "" {
		return false
	}
	for _, category := range s.Categories {
		if category == item.Category {
			return true
		}
	}
	return false
}

// ContributionItem 参与贡献计算的订单项
type ContributionItem struct {
	ProductID uint
	Category  string
	Quantity  int
	Price     decimal.Decimal
	Cost      *decimal.Decimal
}

// LineTotal 行金额
func (i ContributionItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ContributionOrder 参与贡献计算的订单
type ContributionOrder struct {
	TotalAmount decimal.Decimal
	Items       []ContributionItem
}

// MatchingItems 返回命中范围的订单项
func MatchingItems(order ContributionOrder, scope ItemScope) []ContributionItem {
	if scope.Empty() {
		return order.Items
	}
	matched := make([]ContributionItem, 0, len(order.Items))
	for _, item := range order.Items {
		if scope.Matches(item) {
			matched = append(matched, item)
		}
	}
	return matched
}

// ContributionValue 计算订单对某指标的贡献值。
// 限定了范围但没有订单项命中时 matched 为 false。
// 毛利缺少成本时按 行金额 × marginFallbackRatio 估算。
func ContributionValue(targetType string, order ContributionOrder, scope ItemScope, marginFallbackRatio decimal.Decimal) (decimal.Decimal, bool) {
	items := MatchingItems(order, scope)
	if !scope.Empty() && len(items) == 0 {
		return decimal.Zero, false
	}

	switch targetType {
	case constants.GoalTargetAmount:
		if scope.Empty() {
			return order.TotalAmount.Round(2), true
		}
		total := decimal.Zero
		for _, item := range items {
			total = total.Add(item.LineTotal())
		}
		return total.Round(2), true
	case constants.GoalTargetUnits:
		units := int64(0)
		for _, item := range items {
			units += int64(item.Quantity)
		}
		return decimal.NewFromInt(units), true
	case constants.GoalTargetOrders:
		return decimal.NewFromInt(1), true
	case constants.GoalTargetMargin:
		margin := decimal.Zero
		for _, item := range items {
			if item.Cost != nil {
				unitMargin := item.Price.Sub(*item.Cost)
				margin = margin.Add(unitMargin.Mul(decimal.NewFromInt(int64(item.Quantity))))
				continue
			}
			margin = margin.Add(item.LineTotal().Mul(marginFallbackRatio))
		}
		return margin.Round(2), true
	default:
		return decimal.Zero, false
	}
}

// PercentageComplete 完成率 current / target × 100，截断到两位小数；目标值非正时为 0
// 截断保证未达到目标值时不会显示为 100，整数里程碑的判定与未截断值一致
func PercentageComplete(current, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	return current.Mul(hundred).Div(target).Truncate(2)
}

// NewMilestones 返回本次新跨过的里程碑（升序），已达成的不再返回
func NewMilestones(milestones []int, reached []int, percentage decimal.Decimal) []int {
	seen := make(map[int]struct{}, len(reached))
	for _, m := range reached {
		seen[m] = struct{}{}
	}
	crossed := make([]int, 0)
	for _, m := range milestones {
		if _, ok := seen[m]; ok {
			continue
		}
		if percentage.GreaterThanOrEqual(decimal.NewFromInt(int64(m))) {
			crossed = append(crossed, m)
			seen[m] = struct{}{}
		}
	}
	sort.Ints(crossed)
	return crossed
}

// AppendBounded 追加元素，超过 limit 时从头部淘汰最旧的元素；limit <= 0 不限制
func AppendBounded[T any](items []T, item T, limit int) []T {
	items = append(items, item)
	if limit > 0 && len(items) > limit {
		trimmed := make([]T, limit)
		copy(trimmed, items[len(items)-limit:])
		return trimmed
	}
	return items
}
