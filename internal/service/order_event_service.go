package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/tienda-next/internal/compensation"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/queue"
)

// OrderEventService 订单事件编排：提成与目标进度两条分支互不影响
type OrderEventService struct {
	commissionSvc *CommissionService
	progressSvc   *GoalProgressService
	bonusSvc      *BonusService
	now           func() time.Time
}

// NewOrderEventService 创建订单事件编排服务
func NewOrderEventService(commissionSvc *CommissionService, progressSvc *GoalProgressService, bonusSvc *BonusService) *OrderEventService {
	return &OrderEventService{
		commissionSvc: commissionSvc,
		progressSvc:   progressSvc,
		bonusSvc:      bonusSvc,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// OrderEventResult 订单事件处理结果
type OrderEventResult struct {
	SalesPersonID uint               `json:"sales_person_id"`
	Commission    *CommissionOutcome `json:"commission,omitempty"`
	Goals         *ApplyOrderResult  `json:"goals,omitempty"`
}

// OrderEventPayloadFromOrder 由已落库的订单构造完成事件载荷，供补录与演示数据使用
func OrderEventPayloadFromOrder(order *models.Order) queue.OrderEventPayload {
	payload := queue.OrderEventPayload{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		TenantID:         order.TenantID,
		TotalAmount:      order.TotalAmount.Decimal,
		Subtotal:         order.Subtotal.Decimal,
		SalesPersonID:    order.SalesPersonID,
		AssignedWaiterID: order.AssignedWaiterID,
		CreatedBy:        order.CreatedBy,
		CompletedAt:      order.CompletedAt,
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, queue.OrderItemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice.Decimal,
			Cost:      models.DecimalPtr(item.UnitCost),
			Category:  item.Category,
		})
	}
	return payload
}

// HandleOrderCompleted 处理订单完成/支付事件。
// 任一分支失败不影响另一分支；业务类错误只记录日志，其余错误返回给调用方重试。
func (s *OrderEventService) HandleOrderCompleted(payload queue.OrderEventPayload) (*OrderEventResult, error) {
	log := logger.ForTenant(payload.TenantID, "order_id", payload.OrderID)
	result := &OrderEventResult{SalesPersonID: payload.ResolveSalesPerson()}
	if payload.OrderID == 0 {
		return nil, validationError("order_id is required")
	}
	if result.SalesPersonID == 0 {
		log.Infow("order_event_skipped", "reason", "no_salesperson")
		return result, nil
	}

	var errs []error
	if err := s.guard("commission", payload, func() error {
		outcome, err := s.commissionSvc.CalculateCommission(payload.TenantID, payload.OrderID)
		result.Commission = outcome
		return err
	}); err != nil {
		errs = append(errs, err)
	}
	if err := s.guard("goal_progress", payload, func() error {
		contribution := ContributionFromEvent(payload, s.now())
		applied, err := s.progressSvc.ApplyOrder(payload.TenantID, result.SalesPersonID, contribution)
		result.Goals = applied
		if applied != nil {
			for _, achieved := range applied.Achievements {
				if awardErr := s.HandleGoalAchieved(achieved); awardErr != nil {
					err = errors.Join(err, awardErr)
				}
			}
		}
		return err
	}); err != nil {
		errs = append(errs, err)
	}
	return result, errors.Join(errs...)
}

// guard 执行单条分支：捕获 panic，业务类错误降级为日志
func (s *OrderEventService) guard(branch string, payload queue.OrderEventPayload, fn func() error) (err error) {
	log := logger.ForTenant(payload.TenantID, "order_id", payload.OrderID, "branch", branch)
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Errorw("order_event_branch_panic", "panic", recovered)
			err = fmt.Errorf("%s branch panic: %v", branch, recovered)
		}
	}()
	if err = fn(); err == nil {
		return nil
	}
	if IsBusinessError(err) {
		log.Warnw("order_event_branch_rejected", "error", err)
		return nil
	}
	log.Errorw("order_event_branch_failed", "error", err)
	return err
}

// HandleOrderCancelled 订单取消事件；已生成的提成与进度需人工处理，这里只记录
func (s *OrderEventService) HandleOrderCancelled(payload queue.OrderCancelledPayload) error {
	logger.ForTenant(payload.TenantID).Infow("order_cancelled_received", "order_id", payload.OrderID)
	return nil
}

// HandleGoalAchieved 目标达成事件，按需自动创建奖金
func (s *OrderEventService) HandleGoalAchieved(event compensation.GoalAchieved) error {
	return s.bonusSvc.HandleGoalAchieved(event)
}

// ClosePeriod 关闭到期周期
func (s *OrderEventService) ClosePeriod(payload queue.GoalClosePeriodPayload) (*ClosePeriodResult, error) {
	return s.progressSvc.ClosePeriod(payload.TenantID, payload.PeriodEnd)
}

// RecalculateGoal 重算目标进度，重算中新达成的进度同样触发自动奖金
func (s *OrderEventService) RecalculateGoal(payload queue.GoalRecalculatePayload) (*RecalculateResult, error) {
	result, err := s.progressSvc.Recalculate(payload.TenantID, payload.GoalID)
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, achieved := range result.Achievements {
		if err := s.HandleGoalAchieved(achieved); err != nil {
			errs = append(errs, err)
		}
	}
	return result, errors.Join(errs...)
}
