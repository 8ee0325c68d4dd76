package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/constants"
	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/provider"
	"github.com/tienda-next/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const (
	handlerTestTenant   = uint(7)
	handlerTestOperator = uint(99)
)

type handlerEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupAdminHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	h := New(provider.NewContainerWithDB(&config.Config{}, db))

	engine := gin.New()
	api := engine.Group("/api/v1/admin", func(c *gin.Context) {
		c.Set(handlershared.TenantIDKey, handlerTestTenant)
		c.Set(handlershared.OperatorIDKey, handlerTestOperator)
		c.Set(handlershared.RequestIDKey, "req-test")
		c.Next()
	})
	comp := api.Group("/compensation")
	comp.GET("/commission-plans", h.ListCommissionPlans)
	comp.POST("/commission-plans", h.CreateCommissionPlan)
	comp.GET("/commission-plans/:id", h.GetCommissionPlan)
	comp.DELETE("/commission-plans/:id", h.DeleteCommissionPlan)
	comp.POST("/employees/:id/commission-config", h.AssignEmployeeCommissionConfig)
	comp.GET("/commissions", h.ListCommissions)
	comp.POST("/bonuses", h.CreateBonus)
	comp.POST("/bonuses/:id/approve", h.ApproveBonus)
	comp.POST("/bonuses/:id/reject", h.RejectBonus)
	comp.POST("/bonuses/:id/cancel", h.CancelBonus)
	comp.POST("/events/order-completed", h.PostOrderCompleted)
	authz := api.Group("/authz")
	authz.PUT("/staff/:id/roles", h.SetAuthzStaffRoles)
	authz.GET("/staff/:id/roles", h.GetAuthzStaffRoles)
	authz.GET("/audit-logs", h.ListAuthzAuditLogs)
	return engine, db
}

func doAdminRequest(t *testing.T, engine *gin.Engine, method, path string, body interface{}) handlerEnvelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected http 200, got %d body=%s", w.Code, w.Body.String())
	}
	var env handlerEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
	}
	return env
}

func createHandlerTestEmployee(t *testing.T, db *gorm.DB, name string) *models.Employee {
	t.Helper()
	employee := &models.Employee{TenantID: handlerTestTenant, Name: name, Role: "sales", IsActive: true}
	if err := db.Create(employee).Error; err != nil {
		t.Fatalf("create employee failed: %v", err)
	}
	return employee
}

func decodeID(t *testing.T, env handlerEnvelope) uint {
	t.Helper()
	var payload struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode id failed: %v", err)
	}
	if payload.ID == 0 {
		t.Fatalf("expected id in response data: %s", string(env.Data))
	}
	return payload.ID
}

func TestCommissionPlanHandlersMapServiceErrors(t *testing.T) {
	engine, db := setupAdminHandlerTest(t)
	seller := createHandlerTestEmployee(t, db, "Lucia")

	created := doAdminRequest(t, engine, http.MethodPost, "/api/v1/admin/compensation/commission-plans", map[string]interface{}{
		"name":               "Floor",
		"type":               constants.CommissionPlanTypePercentage,
		"default_percentage": "10",
		"is_default":         true,
	})
	if created.StatusCode != response.CodeOK {
		t.Fatalf("create plan failed: %+v", created)
	}
	planID := decodeID(t, created)

	duplicate := doAdminRequest(t, engine, http.MethodPost, "/api/v1/admin/compensation/commission-plans", map[string]interface{}{
		"name":               "Second",
		"type":               constants.CommissionPlanTypePercentage,
		"default_percentage": "5",
		"is_default":         true,
	})
	if duplicate.StatusCode != response.CodeConflict {
		t.Fatalf("expected conflict for second default plan, got %+v", duplicate)
	}

	invalid := doAdminRequest(t, engine, http.MethodPost, "/api/v1/admin/compensation/commission-plans", map[string]interface{}{
		"name": "Broken",
		"type": "bogus",
	})
	if invalid.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected bad request for invalid type, got %+v", invalid)
	}

	missing := doAdminRequest(t, engine, http.MethodGet, "/api/v1/admin/compensation/commission-plans/9999", nil)
	if missing.StatusCode != response.CodeNotFound {
		t.Fatalf("expected not found, got %+v", missing)
	}

	assigned := doAdminRequest(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/admin/compensation/employees/%d/commission-config", seller.ID),
		map[string]interface{}{"plan_id": planID})
	if assigned.StatusCode != response.CodeOK {
		t.Fatalf("assign config failed: %+v", assigned)
	}
	inUse := doAdminRequest(t, engine, http.MethodDelete, fmt.Sprintf("/api/v1/admin/compensation/commission-plans/%d", planID), nil)
	if inUse.StatusCode != response.CodeConflict {
		t.Fatalf("expected conflict deleting assigned plan, got %+v", inUse)
	}

	badID := doAdminRequest(t, engine, http.MethodGet, "/api/v1/admin/compensation/commission-plans/abc", nil)
	if badID.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected bad request for invalid id, got %+v", badID)
	}
}

func TestBonusHandlersLifecycle(t *testing.T) {
	engine, db := setupAdminHandlerTest(t)
	seller := createHandlerTestEmployee(t, db, "Marco")

	created := doAdminRequest(t, engine, http.MethodPost, "/api/v1/admin/compensation/bonuses", map[string]interface{}{
		"employee_id": seller.ID,
		"type":        constants.BonusTypeSpot,
		"amount":      "50",
		"description": "weekend cover",
	})
	if created.StatusCode != response.CodeOK {
		t.Fatalf("create bonus failed: %+v", created)
	}
	bonusID := decodeID(t, created)

	approved := doAdminRequest(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/admin/compensation/bonuses/%d/approve", bonusID), nil)
	if approved.StatusCode != response.CodeOK {
		t.Fatalf("approve bonus failed: %+v", approved)
	}
	var bonus models.BonusRecord
	if err := json.Unmarshal(approved.Data, &bonus); err != nil {
		t.Fatalf("decode bonus failed: %v", err)
	}
	if bonus.Status != constants.BonusStatusApproved || bonus.ApprovedBy == nil || *bonus.ApprovedBy != handlerTestOperator {
		t.Fatalf("unexpected approved bonus %+v", bonus)
	}

	rejected := doAdminRequest(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/admin/compensation/bonuses/%d/reject", bonusID),
		map[string]string{"reason": "late"})
	if rejected.StatusCode != response.CodeInvalidState {
		t.Fatalf("expected invalid state rejecting approved bonus, got %+v", rejected)
	}

	cancelled := doAdminRequest(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/admin/compensation/bonuses/%d/cancel", bonusID),
		map[string]string{"reason": "duplicate"})
	if cancelled.StatusCode != response.CodeOK {
		t.Fatalf("cancel approved bonus failed: %+v", cancelled)
	}

	unknownEmployee := doAdminRequest(t, engine, http.MethodPost, "/api/v1/admin/compensation/bonuses", map[string]interface{}{
		"employee_id": 4040,
		"type":        constants.BonusTypeSpot,
		"amount":      "10",
	})
	if unknownEmployee.StatusCode != response.CodeNotFound {
		t.Fatalf("expected not found for unknown employee, got %+v", unknownEmployee)
	}
}

func TestPostOrderCompletedUsesTokenTenant(t *testing.T) {
	engine, db := setupAdminHandlerTest(t)
	seller := createHandlerTestEmployee(t, db, "Rosa")
	plan := doAdminRequest(t, engine, http.MethodPost, "/api/v1/admin/compensation/commission-plans", map[string]interface{}{
		"name":               "Default",
		"type":               constants.CommissionPlanTypePercentage,
		"default_percentage": "10",
		"is_default":         true,
	})
	if plan.StatusCode != response.CodeOK {
		t.Fatalf("create plan failed: %+v", plan)
	}

	completedAt := time.Now().UTC()
	total := models.NewMoneyFromInt(300)
	order := &models.Order{
		TenantID:      handlerTestTenant,
		OrderNumber:   "HDL-1",
		Status:        constants.OrderStatusCompleted,
		Subtotal:      total,
		TotalAmount:   total,
		SalesPersonID: &seller.ID,
		CompletedAt:   &completedAt,
	}
	items := []models.OrderItem{{ProductID: 3, Category: "drinks", Quantity: 1, UnitPrice: total}}
	if err := repository.NewOrderRepository(db).Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	result := doAdminRequest(t, engine, http.MethodPost, "/api/v1/admin/compensation/events/order-completed", map[string]interface{}{
		"order_id":        order.ID,
		"order_number":    order.OrderNumber,
		"tenant_id":       12345,
		"total_amount":    "300",
		"subtotal":        "300",
		"sales_person_id": seller.ID,
		"completed_at":    completedAt,
	})
	if result.StatusCode != response.CodeOK {
		t.Fatalf("replay order completed failed: %+v", result)
	}

	var records []models.CommissionRecord
	if err := db.Find(&records).Error; err != nil {
		t.Fatalf("load records failed: %v", err)
	}
	if len(records) != 1 || records[0].TenantID != handlerTestTenant {
		t.Fatalf("expected one commission in token tenant, got %+v", records)
	}
	if records[0].CommissionAmount.StringFixed(2) != "30.00" {
		t.Fatalf("expected commission 30.00, got %s", records[0].CommissionAmount.StringFixed(2))
	}
}

func TestSetAuthzStaffRolesWritesAudit(t *testing.T) {
	engine, _ := setupAdminHandlerTest(t)

	set := doAdminRequest(t, engine, http.MethodPut, "/api/v1/admin/authz/staff/12/roles", map[string]interface{}{
		"roles": []string{"compensation_viewer"},
	})
	if set.StatusCode != response.CodeOK {
		t.Fatalf("set staff roles failed: %+v", set)
	}

	got := doAdminRequest(t, engine, http.MethodGet, "/api/v1/admin/authz/staff/12/roles", nil)
	var roles []string
	if err := json.Unmarshal(got.Data, &roles); err != nil {
		t.Fatalf("decode roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:compensation_viewer" {
		t.Fatalf("unexpected roles %v", roles)
	}

	logs := doAdminRequest(t, engine, http.MethodGet, "/api/v1/admin/authz/audit-logs?target_staff_id=12", nil)
	var items []models.AuthzAuditLog
	if err := json.Unmarshal(logs.Data, &items); err != nil {
		t.Fatalf("decode audit logs failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one audit log, got %d", len(items))
	}
	if items[0].OperatorID != handlerTestOperator || items[0].RequestID != "req-test" || items[0].TenantID != handlerTestTenant {
		t.Fatalf("unexpected audit log %+v", items[0])
	}
}
