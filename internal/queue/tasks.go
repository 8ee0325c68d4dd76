package queue

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/tienda-next/internal/compensation"
	"github.com/tienda-next/internal/constants"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

const (
	// TaskOrderCompleted 订单完成事件
	TaskOrderCompleted = constants.TaskOrderCompleted
	// TaskOrderPaid 订单支付事件（与完成事件同等处理）
	TaskOrderPaid = constants.TaskOrderPaid
	// TaskOrderCancelled 订单取消事件
	TaskOrderCancelled = constants.TaskOrderCancelled
	// TaskGoalAchieved 目标达成事件
	TaskGoalAchieved = constants.TaskGoalAchieved
	// TaskGoalClosePeriod 关闭到期周期
	TaskGoalClosePeriod = constants.TaskGoalClosePeriod
	// TaskGoalRecalculate 重算目标进度
	TaskGoalRecalculate = constants.TaskGoalRecalculate
)

// OrderItemPayload 订单事件中的订单项
type OrderItemPayload struct {
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Cost      *decimal.Decimal `json:"cost,omitempty"`
	Category  string           `json:"category,omitempty"`
}

// OrderEventPayload 订单完成/支付事件载荷
type OrderEventPayload struct {
	OrderID          uint               `json:"order_id"`
	OrderNumber      string             `json:"order_number"`
	TenantID         uint               `json:"tenant_id"`
	TotalAmount      decimal.Decimal    `json:"total_amount"`
	Subtotal         decimal.Decimal    `json:"subtotal"`
	SalesPersonID    *uint              `json:"sales_person_id,omitempty"`
	AssignedWaiterID *uint              `json:"assigned_waiter_id,omitempty"`
	CreatedBy        *uint              `json:"created_by,omitempty"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	Items            []OrderItemPayload `json:"items"`
}

// ResolveSalesPerson 按 销售员 → 服务员 → 下单人 的顺序确定业绩归属，0 表示无
func (p OrderEventPayload) ResolveSalesPerson() uint {
	for _, candidate := range []*uint{p.SalesPersonID, p.AssignedWaiterID, p.CreatedBy} {
		if candidate != nil && *candidate != 0 {
			return *candidate
		}
	}
	return 0
}

// OrderCancelledPayload 订单取消事件载荷
type OrderCancelledPayload struct {
	OrderID  uint `json:"order_id"`
	TenantID uint `json:"tenant_id"`
}

// GoalAchievedPayload 目标达成事件载荷
type GoalAchievedPayload = compensation.GoalAchieved

// GoalClosePeriodPayload 关闭周期任务载荷
type GoalClosePeriodPayload struct {
	TenantID  uint      `json:"tenant_id"`
	PeriodEnd time.Time `json:"period_end"`
}

// GoalRecalculatePayload 重算任务载荷
type GoalRecalculatePayload struct {
	TenantID uint `json:"tenant_id"`
	GoalID   uint `json:"goal_id"`
}

// NewOrderEventTask 创建订单事件任务，taskType 为 order.completed 或 order.paid
func NewOrderEventTask(taskType string, payload OrderEventPayload) (*asynq.Task, error) {
	if taskType != TaskOrderCompleted && taskType != TaskOrderPaid {
		return nil, errors.New("unsupported order event type: " + taskType)
	}
	return newJSONTask(taskType, payload)
}

// NewGoalClosePeriodTask 创建关闭周期任务
func NewGoalClosePeriodTask(payload GoalClosePeriodPayload) (*asynq.Task, error) {
	return newJSONTask(TaskGoalClosePeriod, payload)
}

// NewGoalRecalculateTask 创建重算任务
func NewGoalRecalculateTask(payload GoalRecalculatePayload) (*asynq.Task, error) {
	return newJSONTask(TaskGoalRecalculate, payload)
}

// NewSignalTask 将领域信号包装为任务，任务类型即信号类型
func NewSignalTask(signal compensation.Signal) (*asynq.Task, error) {
	if signal == nil {
		return nil, errors.New("signal is nil")
	}
	return newJSONTask(signal.SignalType(), signal)
}

func newJSONTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}
