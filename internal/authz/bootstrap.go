package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

const (
	// RoleCompensationViewer 只读查看提成、目标与奖金
	RoleCompensationViewer = "compensation_viewer"
	// RoleCompensationManager 维护方案、目标与奖金
	RoleCompensationManager = "compensation_manager"
	// RolePayrollOperator 审批与发薪
	RolePayrollOperator = "payroll_operator"
)

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: RoleCompensationViewer,
			Policies: []Policy{
				{Object: "/admin/compensation/*", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     RoleCompensationManager,
			Inherits: []string{RoleCompensationViewer},
			Policies: []Policy{
				{Object: "/admin/compensation/commission-plans", Action: "POST"},
				{Object: "/admin/compensation/commission-plans/*", Action: "*"},
				{Object: "/admin/compensation/employees/:id/commission-config", Action: "*"},
				{Object: "/admin/compensation/commission-configs/:id", Action: "*"},
				{Object: "/admin/compensation/orders/:id/commission", Action: "POST"},
				{Object: "/admin/compensation/goals", Action: "POST"},
				{Object: "/admin/compensation/goals/*", Action: "*"},
				{Object: "/admin/compensation/goal-progress/:id/award-bonus", Action: "POST"},
				{Object: "/admin/compensation/bonuses", Action: "POST"},
				{Object: "/admin/compensation/bonuses/:id", Action: "*"},
				{Object: "/admin/compensation/bonuses/:id/cancel", Action: "POST"},
				{Object: "/admin/compensation/events/*", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     RolePayrollOperator,
			Inherits: []string{RoleCompensationViewer},
			Policies: []Policy{
				{Object: "/admin/compensation/commissions/:id/approve", Action: "POST"},
				{Object: "/admin/compensation/commissions/:id/reject", Action: "POST"},
				{Object: "/admin/compensation/commissions/bulk-approve", Action: "POST"},
				{Object: "/admin/compensation/payroll/commissions/mark-paid", Action: "POST"},
				{Object: "/admin/compensation/bonuses/:id/approve", Action: "POST"},
				{Object: "/admin/compensation/bonuses/:id/reject", Action: "POST"},
				{Object: "/admin/compensation/bonuses/:id/journal-entry", Action: "POST"},
				{Object: "/admin/compensation/bonuses/bulk-approve", Action: "POST"},
				{Object: "/admin/compensation/payroll/bonuses/mark-paid", Action: "POST"},
			},
			Immutable: true,
		},
	}
}

// IsBuiltinRole 判断是否为预置角色
func IsBuiltinRole(role string) bool {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return false
	}
	for _, seed := range BuiltinRoleSeeds() {
		if rolePrefix+seed.Role == normalized {
			return seed.Immutable
		}
	}
	return false
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}

	changed := false
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		added, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("create builtin role failed: %w", err)
		}
		changed = changed || added

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole)
			if err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
			changed = changed || added
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			added, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action)
			if err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
			changed = changed || added
		}
	}

	if changed {
		return s.ReloadPolicy()
	}
	return nil
}
