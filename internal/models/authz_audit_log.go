package models

import "time"

// AuthzAuditLog 权限变更审计日志
// 记录角色、策略与员工授权的每次变更，按租户隔离
type AuthzAuditLog struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	TenantID      uint      `gorm:"index;not null" json:"tenant_id"`                              // 租户
	OperatorID    uint      `gorm:"index;not null" json:"operator_id"`                            // 操作人（来自令牌）
	TargetStaffID *uint     `gorm:"index" json:"target_staff_id,omitempty"`                       // 被授权员工
	Action        string    `gorm:"type:varchar(100);index;not null" json:"action"`               // 变更类型
	Role          string    `gorm:"type:varchar(120);index;not null;default:''" json:"role"`      // 角色
	Object        string    `gorm:"type:varchar(255);not null;default:''" json:"object"`          // 资源路径
	Method        string    `gorm:"type:varchar(20);not null;default:''" json:"method"`           // 动作
	RequestID     string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"` // 请求编号
	DetailJSON    JSON      `gorm:"type:json" json:"detail"`                                      // 变更明细
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AuthzAuditLog) TableName() string {
	return "authz_audit_logs"
}

