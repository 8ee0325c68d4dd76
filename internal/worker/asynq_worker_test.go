package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/provider"
	"github.com/tienda-next/internal/queue"
	"github.com/tienda-next/internal/repository"
	"github.com/tienda-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const workerTestTenant = uint(1)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	container := provider.NewContainerWithDB(&config.Config{}, db)
	return NewConsumer(container), db
}

func newJSONTestTask(t *testing.T, taskType string, payload interface{}) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(taskType, body)
}

func TestHandleOrderCompletedUnmarshalErrorIsRetried(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	task := asynq.NewTask(queue.TaskOrderCompleted, []byte("{not-json"))
	if err := consumer.handleOrderCompleted(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error to be returned")
	}
}

func TestHandleOrderCompletedDropsBusinessError(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	task := newJSONTestTask(t, queue.TaskOrderCompleted, queue.OrderEventPayload{TenantID: workerTestTenant})
	if err := consumer.handleOrderCompleted(context.Background(), task); err != nil {
		t.Fatalf("expected invalid payload to be dropped, got %v", err)
	}
}

func TestHandleOrderPaidCalculatesCommission(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	seller := &models.Employee{TenantID: workerTestTenant, Name: "Ines", Role: "sales", IsActive: true}
	if err := db.Create(seller).Error; err != nil {
		t.Fatalf("create employee failed: %v", err)
	}
	if _, err := consumer.CommissionConfigService.CreatePlan(workerTestTenant, 1, service.CommissionPlanInput{
		Name:              "Default",
		Type:              constants.CommissionPlanTypePercentage,
		DefaultPercentage: models.NewMoneyFromInt(10),
		IsDefault:         true,
	}); err != nil {
		t.Fatalf("create plan failed: %v", err)
	}

	completedAt := time.Now().UTC()
	total := models.NewMoneyFromInt(200)
	order := &models.Order{
		TenantID:      workerTestTenant,
		OrderNumber:   "WRK-1",
		Status:        constants.OrderStatusCompleted,
		Subtotal:      total,
		TotalAmount:   total,
		SalesPersonID: &seller.ID,
		CompletedAt:   &completedAt,
	}
	items := []models.OrderItem{{ProductID: 1, Category: "drinks", Quantity: 1, UnitPrice: total}}
	if err := repository.NewOrderRepository(db).Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	payload := queue.OrderEventPayload{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		TenantID:      workerTestTenant,
		TotalAmount:   decimal.NewFromInt(200),
		Subtotal:      decimal.NewFromInt(200),
		SalesPersonID: &seller.ID,
		CompletedAt:   &completedAt,
	}
	task := newJSONTestTask(t, queue.TaskOrderPaid, payload)
	for i := 0; i < 2; i++ {
		if err := consumer.handleOrderCompleted(context.Background(), task); err != nil {
			t.Fatalf("delivery %d failed: %v", i+1, err)
		}
	}

	var records []models.CommissionRecord
	if err := db.Find(&records).Error; err != nil {
		t.Fatalf("load records failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly one commission record, got %d", len(records))
	}
	if !records[0].CommissionAmount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected commission 20, got %s", records[0].CommissionAmount.String())
	}
}

func TestHandleGoalRecalculateUnknownGoalIsDropped(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	task := newJSONTestTask(t, queue.TaskGoalRecalculate, queue.GoalRecalculatePayload{TenantID: workerTestTenant, GoalID: 404})
	if err := consumer.handleGoalRecalculate(context.Background(), task); err != nil {
		t.Fatalf("expected not found to be dropped, got %v", err)
	}
}

func TestHandleGoalClosePeriodZeroBoundaryIsDropped(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	task := newJSONTestTask(t, queue.TaskGoalClosePeriod, queue.GoalClosePeriodPayload{TenantID: workerTestTenant})
	if err := consumer.handleGoalClosePeriod(context.Background(), task); err != nil {
		t.Fatalf("expected zero period end to be dropped, got %v", err)
	}
}

func TestRegisterHandlesNilConsumer(t *testing.T) {
	var consumer *Consumer
	consumer.Register(asynq.NewServeMux())
}
