package models

import (
	"time"

	"gorm.io/gorm"
)

// CommissionRecord 订单提成记录（每个订单一条，除状态流转字段外不可修改）
type CommissionRecord struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                                    // 主键
	TenantID         uint           `gorm:"not null;index;uniqueIndex:idx_commission_record_order" json:"tenant_id"` // 租户ID
	EmployeeID       uint           `gorm:"not null;index" json:"employee_id"`                                       // 员工ID
	OrderID          uint           `gorm:"not null;uniqueIndex:idx_commission_record_order" json:"order_id"`        // 订单ID
	OrderNumber      string         `gorm:"type:varchar(64);index" json:"order_number"`                              // 订单编号快照
	OrderDate        time.Time      `gorm:"index" json:"order_date"`                                                 // 订单完成时间
	OrderSubtotal    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"order_subtotal"`             // 订单小计快照
	OrderDiscount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"order_discount"`             // 订单优惠快照
	OrderTax         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"order_tax"`                  // 订单税费快照
	OrderShipping    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"order_shipping"`             // 订单运费快照
	OrderTotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"order_total"`                // 订单实付快照
	PlanID           uint           `gorm:"not null;index" json:"plan_id"`                                           // 方案ID
	PlanName         string         `gorm:"type:varchar(120)" json:"plan_name"`                                      // 方案名称快照
	PlanType         string         `gorm:"type:varchar(20)" json:"plan_type"`                                       // 方案类型快照
	EmployeeConfigID *uint          `gorm:"index" json:"employee_config_id,omitempty"`                               // 员工配置ID
	BaseAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_amount"`                // 提成基数
	Percentage       Money          `gorm:"type:decimal(10,2);not null;default:0" json:"percentage"`                 // 适用比例
	FixedAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"fixed_amount"`               // 固定金额
	TierFrom         *Money         `gorm:"type:decimal(20,2)" json:"tier_from,omitempty"`                           // 命中阶梯下限
	TierTo           *Money         `gorm:"type:decimal(20,2)" json:"tier_to,omitempty"`                             // 命中阶梯上限
	TierPercentage   *Money         `gorm:"type:decimal(10,2)" json:"tier_percentage,omitempty"`                     // 命中阶梯比例
	CommissionAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount"`          // 提成金额
	OriginalAmount   *Money         `gorm:"type:decimal(20,2)" json:"original_amount,omitempty"`                     // 封顶前金额
	WasOverridden    bool           `gorm:"not null;default:false" json:"was_overridden"`                            // 使用了员工覆盖
	WasCapped        bool           `gorm:"not null;default:false" json:"was_capped"`                                // 触发封顶
	Status           string         `gorm:"type:varchar(20);not null;index" json:"status"`                           // 状态
	ApprovedBy       *uint          `json:"approved_by,omitempty"`                                                   // 审核人
	ApprovedAt       *time.Time     `gorm:"index" json:"approved_at,omitempty"`                                      // 审核时间
	RejectedBy       *uint          `json:"rejected_by,omitempty"`                                                   // 驳回人
	RejectedAt       *time.Time     `json:"rejected_at,omitempty"`                                                   // 驳回时间
	RejectionReason  string         `gorm:"type:varchar(500)" json:"rejection_reason,omitempty"`                     // 驳回原因
	PayrollRunID     string         `gorm:"type:varchar(64);index" json:"payroll_run_id,omitempty"`                  // 薪资批次
	PaidAt           *time.Time     `gorm:"index" json:"paid_at,omitempty"`                                          // 发放时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                                 // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                                 // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                          // 软删除时间
}

// TableName 指定表名
func (CommissionRecord) TableName() string {
	return "commission_records"
}
