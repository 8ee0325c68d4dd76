package repository

import "time"

// CommissionPlanListFilter 查询提成方案列表的过滤条件
type CommissionPlanListFilter struct {
	Page     int
	PageSize int
	TenantID uint
	Type     string
	Keyword  string
	IsActive *bool
}

// CommissionRecordListFilter 查询提成记录列表的过滤条件
type CommissionRecordListFilter struct {
	Page        int
	PageSize    int
	TenantID    uint
	EmployeeID  uint
	OrderID     uint
	Status      string
	PayrollRun  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// SalesGoalListFilter 查询销售目标列表的过滤条件
type SalesGoalListFilter struct {
	Page       int
	PageSize   int
	TenantID   uint
	TargetType string
	PeriodType string
	Keyword    string
	IsActive   *bool
}

// GoalProgressListFilter 查询目标进度列表的过滤条件
type GoalProgressListFilter struct {
	Page       int
	PageSize   int
	TenantID   uint
	GoalID     uint
	EmployeeID uint
	Status     string
	ActiveAt   *time.Time
}

// BonusRecordListFilter 查询奖金记录列表的过滤条件
type BonusRecordListFilter struct {
	Page        int
	PageSize    int
	TenantID    uint
	EmployeeID  uint
	Type        string
	Status      string
	GoalID      uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AuthzAuditLogListFilter 查询权限审计日志的过滤条件
type AuthzAuditLogListFilter struct {
	Page          int
	PageSize      int
	TenantID      uint
	OperatorID    uint
	TargetStaffID uint
	Action        string
	Role          string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}
