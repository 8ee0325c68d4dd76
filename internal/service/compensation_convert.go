package service

import (
	"time"

	"github.com/tienda-next/internal/compensation"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/queue"

	"github.com/shopspring/decimal"
)

var hundredPercent = decimal.NewFromInt(100)

// BulkResult 批量操作结果，单条失败不影响其余记录
type BulkResult struct {
	Requested int             `json:"requested"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  map[uint]string `json:"failures,omitempty"`
}

func newBulkResult(requested int) *BulkResult {
	return &BulkResult{Requested: requested, Failures: map[uint]string{}}
}

func (r *BulkResult) fail(id uint, err error) {
	r.Failed++
	r.Failures[id] = err.Error()
}

func (r *BulkResult) ok() {
	r.Succeeded++
}

func toCompensationTiers(tiers models.CommissionTiers) []compensation.Tier {
	out := make([]compensation.Tier, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, compensation.Tier{
			From:       tier.From.Decimal,
			To:         models.DecimalPtr(tier.To),
			Percentage: tier.Percentage.Decimal,
		})
	}
	return compensation.SortTiers(out)
}

func planParamsOf(plan *models.CommissionPlan) compensation.PlanParams {
	return compensation.PlanParams{
		ID:                plan.ID,
		Name:              plan.Name,
		Type:              plan.Type,
		DefaultPercentage: plan.DefaultPercentage.Decimal,
		FixedAmount:       plan.FixedAmount.Decimal,
		Tiers:             toCompensationTiers(plan.Tiers),
		Base: compensation.BaseRules{
			OnDiscountedAmount: plan.CalculateOnDiscountedAmount,
			IncludeTaxes:       plan.IncludeTaxesInBase,
			IncludeShipping:    plan.IncludeShippingInBase,
		},
		MinOrderAmount:       plan.MinOrderAmount.Decimal,
		MaxCommission:        models.DecimalPtr(plan.MaxCommissionAmount),
		ApplicableRoles:      plan.ApplicableRoles,
		ApplicableProducts:   plan.ApplicableProducts,
		ApplicableCategories: plan.ApplicableCategories,
	}
}

func overrideParamsOf(cfg *models.EmployeeCommissionConfig) *compensation.OverrideParams {
	if cfg == nil {
		return nil
	}
	override := &compensation.OverrideParams{
		ConfigID:      cfg.ID,
		Percentage:    models.DecimalPtr(cfg.OverridePercentage),
		FixedAmount:   models.DecimalPtr(cfg.OverrideFixedAmount),
		MaxCommission: models.DecimalPtr(cfg.OverrideMaxCommission),
	}
	if len(cfg.OverrideTiers) > 0 {
		override.Tiers = toCompensationTiers(cfg.OverrideTiers)
	}
	return override
}

func bonusFormulaOf(snapshot models.GoalSnapshot) (compensation.BonusFormula, error) {
	tiers := make([]compensation.BonusTier, 0, len(snapshot.BonusTiers))
	for _, tier := range snapshot.BonusTiers {
		tiers = append(tiers, compensation.BonusTier{
			Threshold: tier.AchievementPercentage.Decimal,
			Amount:    tier.Amount.Decimal,
			Label:     tier.Label,
		})
	}
	return compensation.NewBonusFormula(compensation.BonusParams{
		Type:       snapshot.BonusType,
		Amount:     snapshot.BonusAmount.Decimal,
		Percentage: snapshot.BonusPercentage.Decimal,
		Tiers:      tiers,
	})
}

func bonusRulesOf(snapshot models.GoalSnapshot) compensation.BonusRules {
	return compensation.BonusRules{
		TargetValue:    snapshot.TargetValue.Decimal,
		MinAchievement: snapshot.MinAchievementForBonus.Decimal,
		ProRated:       snapshot.BonusProRated,
	}
}

func scopeOf(snapshot models.GoalSnapshot) compensation.ItemScope {
	return compensation.ItemScope{ProductIDs: snapshot.ProductIDs, Categories: snapshot.Categories}
}

func customWindowOf(goal *models.SalesGoal) compensation.CustomWindow {
	if goal == nil {
		return compensation.CustomWindow{}
	}
	return compensation.CustomWindow{Start: goal.CustomPeriodStart, End: goal.CustomPeriodEnd}
}

func orderAmountsOf(order *models.Order) compensation.OrderAmounts {
	return compensation.OrderAmounts{
		Subtotal: order.Subtotal.Decimal,
		Discount: order.DiscountAmount.Decimal,
		Tax:      order.TaxAmount.Decimal,
		Shipping: order.ShippingAmount.Decimal,
	}
}

// OrderContribution 计入目标进度的一笔订单
type OrderContribution struct {
	OrderID     uint
	OrderNumber string
	OrderDate   time.Time
	Order       compensation.ContributionOrder
}

// ContributionFromOrder 由订单存储中的订单构建贡献
func ContributionFromOrder(order *models.Order) OrderContribution {
	items := make([]compensation.ContributionItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, compensation.ContributionItem{
			ProductID: item.ProductID,
			Category:  item.Category,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice.Decimal,
			Cost:      models.DecimalPtr(item.UnitCost),
		})
	}
	return OrderContribution{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		OrderDate:   order.OrderDate().UTC(),
		Order: compensation.ContributionOrder{
			TotalAmount: order.TotalAmount.Decimal,
			Items:       items,
		},
	}
}

// ContributionFromEvent 由订单事件载荷构建贡献，缺少完成时间时取 fallback
func ContributionFromEvent(payload queue.OrderEventPayload, fallback time.Time) OrderContribution {
	items := make([]compensation.ContributionItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, compensation.ContributionItem{
			ProductID: item.ProductID,
			Category:  item.Category,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Cost:      item.Cost,
		})
	}
	orderDate := fallback
	if payload.CompletedAt != nil && !payload.CompletedAt.IsZero() {
		orderDate = *payload.CompletedAt
	}
	return OrderContribution{
		OrderID:     payload.OrderID,
		OrderNumber: payload.OrderNumber,
		OrderDate:   orderDate.UTC(),
		Order: compensation.ContributionOrder{
			TotalAmount: payload.TotalAmount,
			Items:       items,
		},
	}
}

func uintPtr(v uint) *uint {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}
