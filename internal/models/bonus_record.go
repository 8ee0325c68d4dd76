package models

import (
	"time"

	"gorm.io/gorm"
)

// BonusRecord 奖金记录（人工奖金或目标达成奖金）
type BonusRecord struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                       // 主键
	TenantID              uint           `gorm:"not null;index" json:"tenant_id"`                            // 租户ID
	EmployeeID            uint           `gorm:"not null;index" json:"employee_id"`                          // 员工ID
	Type                  string         `gorm:"type:varchar(32);not null;index" json:"type"`                // 奖金类型
	SourceGoalID          *uint          `gorm:"index" json:"source_goal_id,omitempty"`                      // 来源目标
	SourceGoalProgressID  *uint          `gorm:"index" json:"source_goal_progress_id,omitempty"`             // 来源进度
	GoalProgressLock      *uint          `gorm:"uniqueIndex" json:"-"`                                       // 生效中的目标奖金占位（驳回/取消后置空）
	Amount                Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`        // 金额
	AchievementPercentage *Money         `gorm:"type:decimal(10,2)" json:"achievement_percentage,omitempty"` // 达成率
	TierLabel             string         `gorm:"type:varchar(64)" json:"tier_label,omitempty"`               // 奖金阶梯
	PeriodLabel           string         `gorm:"type:varchar(64)" json:"period_label,omitempty"`             // 周期标签
	Description           string         `gorm:"type:varchar(500)" json:"description"`                       // 说明
	Status                string         `gorm:"type:varchar(20);not null;index" json:"status"`              // 状态
	CreatedBy             uint           `gorm:"not null;default:0" json:"created_by"`                       // 创建人（0 表示系统）
	ApprovedBy            *uint          `json:"approved_by,omitempty"`                                      // 审核人
	ApprovedAt            *time.Time     `gorm:"index" json:"approved_at,omitempty"`                         // 审核时间
	RejectedBy            *uint          `json:"rejected_by,omitempty"`                                      // 驳回人
	RejectedAt            *time.Time     `json:"rejected_at,omitempty"`                                      // 驳回时间
	RejectionReason       string         `gorm:"type:varchar(500)" json:"rejection_reason,omitempty"`        // 驳回原因
	CancelledBy           *uint          `json:"cancelled_by,omitempty"`                                     // 取消人
	CancelledAt           *time.Time     `json:"cancelled_at,omitempty"`                                     // 取消时间
	CancellationReason    string         `gorm:"type:varchar(500)" json:"cancellation_reason,omitempty"`     // 取消原因
	PayrollRunID          string         `gorm:"type:varchar(64);index" json:"payroll_run_id,omitempty"`     // 薪资批次
	PaidAt                *time.Time     `gorm:"index" json:"paid_at,omitempty"`                             // 发放时间
	JournalEntryID        string         `gorm:"type:varchar(64)" json:"journal_entry_id,omitempty"`         // 总账凭证号
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt             time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间
}

// TableName 指定表名
func (BonusRecord) TableName() string {
	return "bonus_records"
}

// IsGoalLinked 是否为目标达成奖金
func (b *BonusRecord) IsGoalLinked() bool {
	return b != nil && b.SourceGoalProgressID != nil && *b.SourceGoalProgressID != 0
}
