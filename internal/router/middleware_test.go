package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tienda-next/internal/authz"
	handlershared "github.com/tienda-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const middlewareTestSecret = "middleware-test-secret"

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func decodeStatusCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func signOperatorToken(t *testing.T, secret string, claims OperatorClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func newJWTTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(middlewareTestSecret, "tienda-login"))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status_code": 0,
			"tenant_id":   handlershared.TenantID(c),
			"operator_id": handlershared.OperatorID(c),
			"is_owner":    handlershared.IsOwner(c),
		})
	})
	return r
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware("", ""))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}
}

func TestJWTAuthMiddlewareSetsOperatorScope(t *testing.T) {
	r := newJWTTestRouter()
	token := signOperatorToken(t, middlewareTestSecret, OperatorClaims{
		OperatorID: 5,
		TenantID:   2,
		IsOwner:    true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "tienda-login",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	var resp struct {
		StatusCode int  `json:"status_code"`
		TenantID   uint `json:"tenant_id"`
		OperatorID uint `json:"operator_id"`
		IsOwner    bool `json:"is_owner"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 || resp.TenantID != 2 || resp.OperatorID != 5 || !resp.IsOwner {
		t.Fatalf("unexpected scope %+v", resp)
	}
}

func TestJWTAuthMiddlewareRejectsInvalidTokens(t *testing.T) {
	r := newJWTTestRouter()
	valid := jwt.RegisteredClaims{Issuer: "tienda-login", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"wrong secret":   "Bearer " + signOperatorToken(t, "other", OperatorClaims{OperatorID: 1, TenantID: 1, RegisteredClaims: valid}),
		"wrong issuer": "Bearer " + signOperatorToken(t, middlewareTestSecret, OperatorClaims{
			OperatorID: 1, TenantID: 1,
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere", ExpiresAt: valid.ExpiresAt},
		}),
		"expired": "Bearer " + signOperatorToken(t, middlewareTestSecret, OperatorClaims{
			OperatorID: 1, TenantID: 1,
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "tienda-login", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		}),
		"missing tenant": "Bearer " + signOperatorToken(t, middlewareTestSecret, OperatorClaims{OperatorID: 1, RegisteredClaims: valid}),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			r.ServeHTTP(w, req)
			if code := decodeStatusCode(t, w); code != 401 {
				t.Fatalf("status_code want 401 got %d", code)
			}
		})
	}
}

func setupRBACTest(t *testing.T) *authz.Service {
	t.Helper()
	dsn := fmt.Sprintf("file:router_rbac_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("init authz failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}
	return svc
}

func newRBACTestRouter(svc *authz.Service, tenantID, operatorID uint, owner bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api/v1/admin/compensation", func(c *gin.Context) {
		c.Set(handlershared.TenantIDKey, tenantID)
		c.Set(handlershared.OperatorIDKey, operatorID)
		c.Set(handlershared.IsOwnerKey, owner)
		c.Next()
	}, AdminRBACMiddleware(svc))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	}
	group.GET("/bonuses", handler)
	group.POST("/bonuses/:id/approve", handler)
	return r
}

func TestAdminRBACMiddleware(t *testing.T) {
	svc := setupRBACTest(t)
	if err := svc.SetStaffRoles(1, 10, []string{authz.RoleCompensationViewer}); err != nil {
		t.Fatalf("set staff roles failed: %v", err)
	}

	cases := []struct {
		name       string
		tenantID   uint
		operatorID uint
		owner      bool
		method     string
		path       string
		want       int
	}{
		{name: "viewer reads", tenantID: 1, operatorID: 10, method: http.MethodGet, path: "/api/v1/admin/compensation/bonuses", want: 0},
		{name: "viewer cannot approve", tenantID: 1, operatorID: 10, method: http.MethodPost, path: "/api/v1/admin/compensation/bonuses/3/approve", want: 403},
		{name: "other tenant denied", tenantID: 2, operatorID: 10, method: http.MethodGet, path: "/api/v1/admin/compensation/bonuses", want: 403},
		{name: "owner bypass", tenantID: 2, operatorID: 77, owner: true, method: http.MethodPost, path: "/api/v1/admin/compensation/bonuses/3/approve", want: 0},
		{name: "missing operator", tenantID: 1, operatorID: 0, method: http.MethodGet, path: "/api/v1/admin/compensation/bonuses", want: 401},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRBACTestRouter(svc, tc.tenantID, tc.operatorID, tc.owner)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			r.ServeHTTP(w, req)
			if code := decodeStatusCode(t, w); code != tc.want {
				t.Fatalf("status_code want %d got %d", tc.want, code)
			}
		})
	}
}
