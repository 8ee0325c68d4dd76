package worker

import (
	"context"
	"encoding/json"

	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/provider"
	"github.com/tienda-next/internal/queue"
	"github.com/tienda-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderCompleted, c.handleOrderCompleted)
	mux.HandleFunc(queue.TaskOrderPaid, c.handleOrderCompleted)
	mux.HandleFunc(queue.TaskOrderCancelled, c.handleOrderCancelled)
	mux.HandleFunc(queue.TaskGoalAchieved, c.handleGoalAchieved)
	mux.HandleFunc(queue.TaskGoalClosePeriod, c.handleGoalClosePeriod)
	mux.HandleFunc(queue.TaskGoalRecalculate, c.handleGoalRecalculate)
}

func (c *Consumer) ready(task *asynq.Task, event string) bool {
	if c == nil || c.Container == nil || c.OrderEventService == nil || task == nil {
		logger.Debugw(event+"_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return false
	}
	return true
}

// settle 统一处理业务结果：业务错误重试无意义，记录后丢弃；其余错误交给 asynq 重试
func settle(event string, tenantID uint, err error, kv ...interface{}) error {
	if err == nil {
		return nil
	}
	fields := append([]interface{}{"error", err}, kv...)
	if service.IsBusinessError(err) {
		logger.ForTenant(tenantID).Warnw(event+"_dropped", fields...)
		return nil
	}
	logger.ForTenant(tenantID).Errorw(event+"_failed", fields...)
	return err
}

func (c *Consumer) handleOrderCompleted(_ context.Context, task *asynq.Task) error {
	if !c.ready(task, "worker_order_completed") {
		return nil
	}
	var payload queue.OrderEventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_completed_unmarshal_failed", "task_type", task.Type(), "error", err)
		return err
	}
	result, err := c.OrderEventService.HandleOrderCompleted(payload)
	if err != nil {
		return settle("worker_order_completed", payload.TenantID, err, "order_id", payload.OrderID, "task_type", task.Type())
	}
	logger.ForTenant(payload.TenantID).Debugw("worker_order_completed_done",
		"order_id", payload.OrderID,
		"sales_person_id", result.SalesPersonID,
		"task_type", task.Type(),
	)
	return nil
}

func (c *Consumer) handleOrderCancelled(_ context.Context, task *asynq.Task) error {
	if !c.ready(task, "worker_order_cancelled") {
		return nil
	}
	var payload queue.OrderCancelledPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_cancelled_unmarshal_failed", "error", err)
		return err
	}
	return settle("worker_order_cancelled", payload.TenantID, c.OrderEventService.HandleOrderCancelled(payload), "order_id", payload.OrderID)
}

func (c *Consumer) handleGoalAchieved(_ context.Context, task *asynq.Task) error {
	if !c.ready(task, "worker_goal_achieved") {
		return nil
	}
	var payload queue.GoalAchievedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_goal_achieved_unmarshal_failed", "error", err)
		return err
	}
	if payload.GoalProgressID == 0 {
		logger.Debugw("worker_goal_achieved_skip_invalid_payload", "goal_progress_id", payload.GoalProgressID)
		return nil
	}
	return settle("worker_goal_achieved", payload.TenantID, c.OrderEventService.HandleGoalAchieved(payload),
		"goal_progress_id", payload.GoalProgressID,
	)
}

func (c *Consumer) handleGoalClosePeriod(_ context.Context, task *asynq.Task) error {
	if !c.ready(task, "worker_goal_close_period") {
		return nil
	}
	var payload queue.GoalClosePeriodPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_goal_close_period_unmarshal_failed", "error", err)
		return err
	}
	result, err := c.OrderEventService.ClosePeriod(payload)
	if err != nil {
		return settle("worker_goal_close_period", payload.TenantID, err, "period_end", payload.PeriodEnd)
	}
	logger.ForTenant(payload.TenantID).Infow("worker_goal_close_period_done",
		"period_end", payload.PeriodEnd,
		"failed", result.Failed,
		"initialized", result.Initialized,
	)
	return nil
}

func (c *Consumer) handleGoalRecalculate(_ context.Context, task *asynq.Task) error {
	if !c.ready(task, "worker_goal_recalculate") {
		return nil
	}
	var payload queue.GoalRecalculatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_goal_recalculate_unmarshal_failed", "error", err)
		return err
	}
	result, err := c.OrderEventService.RecalculateGoal(payload)
	if result != nil {
		logger.ForTenant(payload.TenantID).Infow("worker_goal_recalculate_done",
			"goal_id", payload.GoalID,
			"progresses", result.Progresses,
			"orders", result.Orders,
			"achievements", len(result.Achievements),
		)
	}
	return settle("worker_goal_recalculate", payload.TenantID, err, "goal_id", payload.GoalID)
}
