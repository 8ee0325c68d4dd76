package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceStaffWithRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("plan_editor", "/admin/compensation/commission-plans/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetStaffRoles(1, 7, []string{"plan_editor"}); err != nil {
		t.Fatalf("set staff roles failed: %v", err)
	}

	allow, err := svc.EnforceStaff(1, 7, "/api/v1/admin/compensation/commission-plans/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceStaff(1, 7, "/api/v1/admin/compensation/commission-plans/42", "DELETE")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}
}

func TestStaffRolesAreTenantScoped(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("viewer", "/admin/compensation/goals", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetStaffRoles(1, 9, []string{"viewer"}); err != nil {
		t.Fatalf("set staff roles failed: %v", err)
	}

	allow, err := svc.EnforceStaff(2, 9, "/admin/compensation/goals", "GET")
	if err != nil {
		t.Fatalf("enforce other tenant failed: %v", err)
	}
	if allow {
		t.Fatalf("expected role binding not to leak across tenants")
	}
}

func TestSetStaffRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("goals", "/admin/compensation/goals", "GET"); err != nil {
		t.Fatalf("grant goals policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("payroll", "/admin/compensation/payroll/commissions/mark-paid", "POST"); err != nil {
		t.Fatalf("grant payroll policy failed: %v", err)
	}

	if err := svc.SetStaffRoles(1, 2, []string{"goals"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	roles, err := svc.GetStaffRoles(1, 2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:goals" {
		t.Fatalf("roles want [role:goals], got=%v", roles)
	}

	if err := svc.SetStaffRoles(1, 2, []string{"payroll"}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	roles, err = svc.GetStaffRoles(1, 2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:payroll" {
		t.Fatalf("roles want [role:payroll], got=%v", roles)
	}

	allow, err := svc.EnforceStaff(1, 2, "/admin/compensation/goals", "GET")
	if err != nil {
		t.Fatalf("enforce old role failed: %v", err)
	}
	if allow {
		t.Fatalf("expected old role permission removed")
	}

	allow, err = svc.EnforceStaff(1, 2, "/admin/compensation/payroll/commissions/mark-paid", "POST")
	if err != nil {
		t.Fatalf("enforce new role failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected new role permission granted")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/compensation/bonuses/:id", want: "/admin/compensation/bonuses/:id"},
		{in: "/admin/compensation/bonuses/:id", want: "/admin/compensation/bonuses/:id"},
		{in: "admin/compensation", want: "/admin/compensation"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:compensation_viewer":  true,
		"role:compensation_manager": true,
		"role:payroll_operator":     true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	if err := svc.SetStaffRoles(1, 3, []string{RolePayrollOperator}); err != nil {
		t.Fatalf("set staff roles failed: %v", err)
	}

	allow, err := svc.EnforceStaff(1, 3, "/admin/compensation/goals", "GET")
	if err != nil {
		t.Fatalf("enforce inherited viewer failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected inherited viewer permission")
	}

	allow, err = svc.EnforceStaff(1, 3, "/admin/compensation/bonuses/5/approve", "POST")
	if err != nil {
		t.Fatalf("enforce payroll approve failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected payroll operator to approve bonuses")
	}

	allow, err = svc.EnforceStaff(1, 3, "/admin/compensation/commission-plans", "POST")
	if err != nil {
		t.Fatalf("enforce plan write failed: %v", err)
	}
	if allow {
		t.Fatalf("expected payroll operator to be denied plan writes")
	}

	if err := svc.DeleteRole(RolePayrollOperator); !errors.Is(err, ErrImmutableRole) {
		t.Fatalf("expected immutable role error, got %v", err)
	}
}
