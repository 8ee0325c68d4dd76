package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/provider"
	"github.com/tienda-next/internal/service"
)

type seedOrder struct {
	number   string
	seller   int
	amount   int64
	category string
}

func main() {
	var tenantID uint
	flag.UintVar(&tenantID, "tenant", 1, "演示租户ID")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示数据同步处理事件，不投递出站信号
	cfg.Queue.Enabled = false
	c := provider.NewContainer(cfg)

	// 员工
	names := []struct{ name, role string }{
		{"Ana Torres", "sales"},
		{"Bruno Diaz", "sales"},
		{"Carla Ruiz", "waiter"},
	}
	employees := make([]*models.Employee, 0, len(names))
	for _, item := range names {
		var existing models.Employee
		err := models.DB.Where("tenant_id = ? AND name = ?", tenantID, item.name).First(&existing).Error
		if err == nil {
			stdLog.Printf("Employee already exists: %s", item.name)
			employees = append(employees, &existing)
			continue
		}
		employee := &models.Employee{TenantID: tenantID, Name: item.name, Role: item.role, IsActive: true}
		if err := c.EmployeeRepo.Create(employee); err != nil {
			stdLog.Fatalf("Failed to create employee %s: %v", item.name, err)
		}
		stdLog.Printf("Created employee: %s", item.name)
		employees = append(employees, employee)
	}

	// 默认阶梯提成方案
	plan, err := c.CommissionConfigService.CreatePlan(tenantID, 0, service.CommissionPlanInput{
		Name:              "Store default",
		Description:       "8% up to 500, 10% above",
		Type:              constants.CommissionPlanTypeTiered,
		DefaultPercentage: models.NewMoneyFromInt(5),
		Tiers: models.CommissionTiers{
			{From: models.NewMoneyFromInt(0), To: models.MoneyPtr(models.NewMoneyFromInt(500).Decimal), Percentage: models.NewMoneyFromInt(8)},
			{From: models.NewMoneyFromInt(500), Percentage: models.NewMoneyFromInt(10)},
		},
		IsDefault: true,
	})
	switch {
	case errors.Is(err, service.ErrDefaultPlanExists):
		stdLog.Printf("Default commission plan already exists")
	case err != nil:
		stdLog.Fatalf("Failed to create commission plan: %v", err)
	default:
		stdLog.Printf("Created commission plan: %s (id=%d)", plan.Name, plan.ID)
	}

	// 月度销售额目标
	now := time.Now().UTC()
	goalName := fmt.Sprintf("Monthly sales %s", now.Format("2006-01"))
	var goalCount int64
	models.DB.Model(&models.SalesGoal{}).Where("tenant_id = ? AND name = ?", tenantID, goalName).Count(&goalCount)
	if goalCount == 0 {
		goal, err := c.GoalService.Create(tenantID, 0, service.SalesGoalInput{
			Name:               goalName,
			TargetType:         constants.GoalTargetAmount,
			TargetValue:        models.NewMoneyFromInt(1000),
			PeriodType:         constants.GoalPeriodMonthly,
			ApplicableTo:       constants.GoalApplicableRole,
			ApplicableRoles:    []string{"sales"},
			BonusType:          constants.GoalBonusFixed,
			BonusAmount:        models.NewMoneyFromInt(150),
			AutoAwardBonus:     true,
			ProgressMilestones: []int{50, 90},
		})
		if err != nil {
			stdLog.Fatalf("Failed to create goal: %v", err)
		}
		if _, initialized, err := c.GoalService.Activate(tenantID, goal.ID); err != nil {
			stdLog.Fatalf("Failed to activate goal: %v", err)
		} else {
			stdLog.Printf("Created goal: %s (progress rows=%d)", goal.Name, initialized)
		}
	} else {
		stdLog.Printf("Goal already exists: %s", goalName)
	}

	// 已完成订单，同步走订单事件编排
	orders := []seedOrder{
		{number: "DEMO-1001", seller: 0, amount: 320, category: "drinks"},
		{number: "DEMO-1002", seller: 0, amount: 780, category: "food"},
		{number: "DEMO-1003", seller: 1, amount: 450, category: "food"},
		{number: "DEMO-1004", seller: 2, amount: 120, category: "drinks"},
	}
	for _, item := range orders {
		var count int64
		models.DB.Model(&models.Order{}).Where("tenant_id = ? AND order_number = ?", tenantID, item.number).Count(&count)
		if count > 0 {
			stdLog.Printf("Order already exists: %s", item.number)
			continue
		}
		completedAt := now
		amount := models.NewMoneyFromInt(item.amount)
		order := &models.Order{
			TenantID:    tenantID,
			OrderNumber: item.number,
			Status:      constants.OrderStatusCompleted,
			Subtotal:    amount,
			TotalAmount: amount,
			CompletedAt: &completedAt,
		}
		sellerID := employees[item.seller].ID
		if employees[item.seller].Role == "waiter" {
			order.AssignedWaiterID = &sellerID
		} else {
			order.SalesPersonID = &sellerID
		}
		orderItems := []models.OrderItem{{ProductID: uint(100 + item.seller), Category: item.category, Quantity: 1, UnitPrice: amount}}
		if err := c.OrderRepo.Create(order, orderItems); err != nil {
			stdLog.Fatalf("Failed to create order %s: %v", item.number, err)
		}
		order.Items = orderItems

		result, err := c.OrderEventService.HandleOrderCompleted(service.OrderEventPayloadFromOrder(order))
		if err != nil {
			stdLog.Printf("Order %s processed with errors: %v", item.number, err)
			continue
		}
		commission := "skipped"
		if result.Commission != nil && result.Commission.Record != nil {
			commission = result.Commission.Record.CommissionAmount.StringFixed(2)
		}
		stdLog.Printf("Processed order %s: commission=%s", item.number, commission)
	}

	stdLog.Printf("Seed completed for tenant %d", tenantID)
}
