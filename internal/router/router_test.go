package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func setupRouterTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.Server.Mode = "debug"
	cfg.JWT.SecretKey = middlewareTestSecret
	return SetupRouter(cfg, provider.NewContainerWithDB(cfg, db))
}

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"/":                                 "system",
		"/admin/authz/roles":                "authz",
		"/admin/compensation/bonuses/:id":   "bonuses",
		"/admin/compensation/payroll/bonus": "payroll",
		"/health":                           "health",
	}
	for object, want := range cases {
		if got := deriveAdminPermissionModule(object); got != want {
			t.Fatalf("%s: want %s got %s", object, want, got)
		}
	}
}

func TestSetupRouterGuardsCompensationRoutes(t *testing.T) {
	r := setupRouterTest(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/compensation/commission-plans", nil))
	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("anonymous status_code want 401 got %d", code)
	}

	staff := signOperatorToken(t, middlewareTestSecret, OperatorClaims{
		OperatorID:       8,
		TenantID:         1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/compensation/commission-plans", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	r.ServeHTTP(w, req)
	if code := decodeStatusCode(t, w); code != 403 {
		t.Fatalf("staff without roles status_code want 403 got %d", code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/authz/me", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	r.ServeHTTP(w, req)
	if code := decodeStatusCode(t, w); code != 0 {
		t.Fatalf("authz me status_code want 0 got %d", code)
	}

	owner := signOperatorToken(t, middlewareTestSecret, OperatorClaims{
		OperatorID:       1,
		TenantID:         1,
		IsOwner:          true,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/compensation/commission-plans", nil)
	req.Header.Set("Authorization", "Bearer "+owner)
	r.ServeHTTP(w, req)
	if code := decodeStatusCode(t, w); code != 0 {
		t.Fatalf("owner status_code want 0 got %d", code)
	}
}

func TestBuildAdminPermissionCatalog(t *testing.T) {
	r := setupRouterTest(t)
	items := buildAdminPermissionCatalog(r)
	found := false
	for _, item := range items {
		if item.Permission == "POST:/admin/compensation/bonuses/:id/approve" {
			found = item.Module == "bonuses"
		}
		if item.Object == "/health" {
			t.Fatalf("catalog should only list admin routes")
		}
	}
	if !found {
		t.Fatalf("expected bonus approve permission in catalog")
	}
}

func TestHealthReportsDependencies(t *testing.T) {
	r := setupRouterTest(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		Status       string `json:"status"`
		Redis        string `json:"redis"`
		QueueEnabled bool   `json:"queue_enabled"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal health failed: %v", err)
	}
	if resp.Status != "ok" || resp.Redis != "disabled" || resp.QueueEnabled {
		t.Fatalf("unexpected health %+v", resp)
	}
}
