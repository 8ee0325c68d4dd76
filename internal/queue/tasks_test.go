package queue

import (
	"encoding/json"
	"testing"

	"github.com/tienda-next/internal/compensation"
	"github.com/tienda-next/internal/config"

	"github.com/shopspring/decimal"
)

func TestOrderEventPayloadResolveSalesPerson(t *testing.T) {
	zero := uint(0)
	waiter := uint(4)
	creator := uint(9)

	payload := OrderEventPayload{SalesPersonID: &zero, AssignedWaiterID: &waiter, CreatedBy: &creator}
	if got := payload.ResolveSalesPerson(); got != waiter {
		t.Fatalf("expected waiter %d, got %d", waiter, got)
	}
	if got := (OrderEventPayload{}).ResolveSalesPerson(); got != 0 {
		t.Fatalf("expected no salesperson, got %d", got)
	}
}

func TestNewOrderEventTaskRejectsOtherTypes(t *testing.T) {
	if _, err := NewOrderEventTask(TaskOrderCancelled, OrderEventPayload{}); err == nil {
		t.Fatalf("expected cancelled type to be rejected")
	}
	task, err := NewOrderEventTask(TaskOrderPaid, OrderEventPayload{OrderID: 3, TenantID: 1})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskOrderPaid {
		t.Fatalf("unexpected task type %s", task.Type())
	}
}

func TestNewSignalTaskUsesSignalType(t *testing.T) {
	signal := compensation.BonusApproved{BonusEvent: compensation.BonusEvent{
		BonusID:    5,
		TenantID:   1,
		EmployeeID: 2,
		Amount:     decimal.RequireFromString("80.5"),
		Type:       "spot",
	}}
	task, err := NewSignalTask(signal)
	if err != nil {
		t.Fatalf("new signal task failed: %v", err)
	}
	if task.Type() != "bonus.approved" {
		t.Fatalf("unexpected task type %s", task.Type())
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if decoded["bonus_id"] != float64(5) || decoded["type"] != "spot" {
		t.Fatalf("unexpected payload %v", decoded)
	}

	if _, err := NewSignalTask(nil); err == nil {
		t.Fatalf("expected nil signal to fail")
	}
}

func TestBuildServerConfigSkipsSignalQueue(t *testing.T) {
	_, cfg := BuildServerConfig(&config.QueueConfig{
		Queues: map[string]int{"default": 3, "critical": 1, "signals": 1},
	}, "")
	if _, ok := cfg.Queues["signals"]; ok {
		t.Fatalf("signal queue must not be consumed locally")
	}
	if cfg.Queues["default"] != 3 || cfg.Concurrency != 10 {
		t.Fatalf("unexpected server config %+v", cfg)
	}
}

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false}, "")
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("expected disabled client")
	}
	if err := client.EnqueueSignal(compensation.GoalAchieved{TenantID: 1}); err != nil {
		t.Fatalf("disabled client should not fail: %v", err)
	}
}
