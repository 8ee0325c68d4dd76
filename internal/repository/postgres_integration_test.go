//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	all := models.AllModels()
	_ = db.Migrator().DropTable(all...)
	if err := models.MigrateWith(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(all...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresKeywordSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	planRepo := NewCommissionPlanRepository(db)
	if err := planRepo.Create(&models.CommissionPlan{
		TenantID:          1,
		Name:              "Floor Staff",
		Description:       "Weekend REGISTER shifts",
		Type:              constants.CommissionPlanTypePercentage,
		DefaultPercentage: models.NewMoneyFromInt(5),
		IsActive:          true,
	}); err != nil {
		t.Fatalf("create plan failed: %v", err)
	}
	for _, keyword := range []string{"floor", "register"} {
		rows, total, err := planRepo.List(CommissionPlanListFilter{Page: 1, TenantID: 1, Keyword: keyword})
		if err != nil {
			t.Fatalf("plan search %q failed: %v", keyword, err)
		}
		if total != 1 || len(rows) != 1 {
			t.Fatalf("plan search %q want 1 got total=%d len=%d", keyword, total, len(rows))
		}
	}

	goalRepo := NewSalesGoalRepository(db)
	if err := goalRepo.Create(&models.SalesGoal{
		TenantID:     1,
		Name:         "Quarterly Push",
		TargetType:   constants.GoalTargetAmount,
		TargetValue:  models.NewMoneyFromInt(1000),
		PeriodType:   constants.GoalPeriodQuarterly,
		ApplicableTo: constants.GoalApplicableAll,
	}); err != nil {
		t.Fatalf("create goal failed: %v", err)
	}
	rows, total, err := goalRepo.List(SalesGoalListFilter{Page: 1, TenantID: 1, Keyword: "PUSH"})
	if err != nil {
		t.Fatalf("goal search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("goal search want 1 got total=%d len=%d", total, len(rows))
	}
}

func TestPostgresClaimCommissionOnce(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)

	seller := uint(3)
	order := &models.Order{
		TenantID:      1,
		OrderNumber:   "PG-ORDER-001",
		Status:        constants.OrderStatusCompleted,
		Subtotal:      models.NewMoneyFromInt(120),
		TotalAmount:   models.NewMoneyFromInt(120),
		SalesPersonID: &seller,
	}
	if err := repo.Create(order, []models.OrderItem{{ProductID: 1, Quantity: 1, UnitPrice: models.NewMoneyFromInt(120)}}); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := repo.ClaimCommission(1, order.ID, time.Now().UTC())
			if err != nil {
				t.Errorf("claim failed: %v", err)
				return
			}
			if claimed {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if winners != 1 {
		t.Fatalf("expected exactly one claim winner, got %d", winners)
	}
}

func TestPostgresGoalProgressAddValueIsAtomic(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewGoalProgressRepository(db)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	progress := &models.GoalProgress{
		TenantID:    1,
		GoalID:      1,
		EmployeeID:  2,
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, 1, 0),
		TargetValue: models.NewMoneyFromInt(100),
		Status:      constants.GoalProgressStatusInProgress,
	}
	if err := repo.Create(progress); err != nil {
		t.Fatalf("create progress failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.AddValue(progress.ID, decimal.NewFromFloat(2.5)); err != nil {
				t.Errorf("add value failed: %v", err)
			}
		}()
	}
	wg.Wait()

	loaded, err := repo.GetByID(1, progress.ID)
	if err != nil || loaded == nil {
		t.Fatalf("load progress failed: %v", err)
	}
	if !loaded.CurrentValue.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("current value want 25 got %s", loaded.CurrentValue.String())
	}
}
