package models

import (
	"time"

	"gorm.io/gorm"
)

// EmployeeCommissionConfig 员工提成方案绑定，生效区间 [EffectiveDate, EndDate)
type EmployeeCommissionConfig struct {
	ID                    uint            `gorm:"primarykey" json:"id"`                                                    // 主键
	TenantID              uint            `gorm:"not null;index:idx_employee_commission_config_lookup" json:"tenant_id"`   // 租户ID
	EmployeeID            uint            `gorm:"not null;index:idx_employee_commission_config_lookup" json:"employee_id"` // 员工ID
	PlanID                uint            `gorm:"not null;index" json:"plan_id"`                                           // 提成方案ID
	EffectiveDate         time.Time       `gorm:"not null;index" json:"effective_date"`                                    // 生效时间
	EndDate               *time.Time      `gorm:"index" json:"end_date,omitempty"`                                         // 失效时间（为空表示当前生效）
	OverridePercentage    *Money          `gorm:"type:decimal(10,2)" json:"override_percentage,omitempty"`                 // 覆盖提成比例
	OverrideFixedAmount   *Money          `gorm:"type:decimal(20,2)" json:"override_fixed_amount,omitempty"`               // 覆盖固定金额
	OverrideTiers         CommissionTiers `gorm:"type:json" json:"override_tiers,omitempty"`                               // 覆盖阶梯
	OverrideMaxCommission *Money          `gorm:"type:decimal(20,2)" json:"override_max_commission,omitempty"`             // 覆盖提成上限
	Notes                 string          `gorm:"type:varchar(500)" json:"notes"`                                          // 备注
	AssignedBy            uint            `gorm:"not null;default:0" json:"assigned_by"`                                   // 分配人
	CreatedAt             time.Time       `gorm:"index" json:"created_at"`                                                 // 创建时间
	UpdatedAt             time.Time       `gorm:"index" json:"updated_at"`                                                 // 更新时间
	DeletedAt             gorm.DeletedAt  `gorm:"index" json:"-"`                                                          // 软删除时间

	Plan *CommissionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"` // 关联方案
}

// TableName 指定表名
func (EmployeeCommissionConfig) TableName() string {
	return "employee_commission_configs"
}

// HasOverrides 是否存在任一覆盖项
func (c *EmployeeCommissionConfig) HasOverrides() bool {
	if c == nil {
		return false
	}
	return c.OverridePercentage != nil ||
		c.OverrideFixedAmount != nil ||
		len(c.OverrideTiers) > 0 ||
		c.OverrideMaxCommission != nil
}
