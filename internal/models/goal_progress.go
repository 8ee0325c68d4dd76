package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// GoalSnapshot 进度创建时冻结的目标规则，后续修改目标不影响进行中的进度
type GoalSnapshot struct {
	Name                   string         `json:"name"`
	TargetType             string         `json:"target_type"`
	TargetValue            Money          `json:"target_value"`
	PeriodType             string         `json:"period_type"`
	ProductIDs             UintArray      `json:"product_ids,omitempty"`
	Categories             StringArray    `json:"categories,omitempty"`
	BonusType              string         `json:"bonus_type"`
	BonusAmount            Money          `json:"bonus_amount"`
	BonusPercentage        Money          `json:"bonus_percentage"`
	BonusTiers             GoalBonusTiers `json:"bonus_tiers,omitempty"`
	BonusProRated          bool           `json:"bonus_pro_rated"`
	MinAchievementForBonus Money          `json:"min_achievement_for_bonus"`
	AutoAwardBonus         bool           `json:"auto_award_bonus"`
	ProgressMilestones     IntArray       `json:"progress_milestones,omitempty"`
}

// SnapshotOf 抓取目标当前规则
func SnapshotOf(goal *SalesGoal) GoalSnapshot {
	if goal == nil {
		return GoalSnapshot{}
	}
	return GoalSnapshot{
		Name:                   goal.Name,
		TargetType:             goal.TargetType,
		TargetValue:            goal.TargetValue,
		PeriodType:             goal.PeriodType,
		ProductIDs:             append(UintArray(nil), goal.ProductIDs...),
		Categories:             append(StringArray(nil), goal.Categories...),
		BonusType:              goal.BonusType,
		BonusAmount:            goal.BonusAmount,
		BonusPercentage:        goal.BonusPercentage,
		BonusTiers:             append(GoalBonusTiers(nil), goal.BonusTiers...),
		BonusProRated:          goal.BonusProRated,
		MinAchievementForBonus: goal.MinAchievementForBonus,
		AutoAwardBonus:         goal.AutoAwardBonus,
		ProgressMilestones:     append(IntArray(nil), goal.ProgressMilestones...),
	}
}

// Value 实现 driver.Valuer 接口
func (s GoalSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (s *GoalSnapshot) Scan(value interface{}) error {
	*s = GoalSnapshot{}
	return scanJSON(value, s)
}

// ContributionEntry 单笔订单贡献
type ContributionEntry struct {
	OrderID     uint      `json:"order_id"`
	OrderNumber string    `json:"order_number,omitempty"`
	Value       Money     `json:"value"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// ContributionLog 最近贡献（有界，超出时淘汰最旧）
type ContributionLog []ContributionEntry

// Value 实现 driver.Valuer 接口
func (l ContributionLog) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (l *ContributionLog) Scan(value interface{}) error {
	*l = ContributionLog{}
	return scanJSON(value, l)
}

// GoalProgress 员工目标进度（目标 × 员工 × 周期 唯一）
type GoalProgress struct {
	ID                         uint            `gorm:"primarykey" json:"id"`                                                   // 主键
	TenantID                   uint            `gorm:"not null;index" json:"tenant_id"`                                        // 租户ID
	GoalID                     uint            `gorm:"not null;uniqueIndex:idx_goal_progress_period" json:"goal_id"`           // 目标ID
	EmployeeID                 uint            `gorm:"not null;uniqueIndex:idx_goal_progress_period;index" json:"employee_id"` // 员工ID
	PeriodStart                time.Time       `gorm:"not null;uniqueIndex:idx_goal_progress_period" json:"period_start"`      // 周期开始
	PeriodEnd                  time.Time       `gorm:"not null;index" json:"period_end"`                                       // 周期结束（不含）
	PeriodLabel                string          `gorm:"type:varchar(64)" json:"period_label"`                                   // 周期标签
	CurrentValue               Money           `gorm:"type:decimal(20,2);not null;default:0" json:"current_value"`             // 当前值
	TargetValue                Money           `gorm:"type:decimal(20,2);not null;default:0" json:"target_value"`              // 目标值快照
	PercentageComplete         Money           `gorm:"type:decimal(10,2);not null;default:0" json:"percentage_complete"`       // 完成率
	Contributions              ContributionLog `gorm:"type:json" json:"contributions"`                                         // 最近贡献
	MilestonesReached          IntArray        `gorm:"type:json" json:"milestones_reached"`                                    // 已达成里程碑
	Status                     string          `gorm:"type:varchar(20);not null;index" json:"status"`                          // 状态
	Achieved                   bool            `gorm:"not null;default:false" json:"achieved"`                                 // 是否达成
	AchievedAt                 *time.Time      `json:"achieved_at,omitempty"`                                                  // 达成时间
	FinalAchievementPercentage *Money          `gorm:"type:decimal(10,2)" json:"final_achievement_percentage,omitempty"`       // 达成时完成率
	BonusEligible              bool            `gorm:"not null;default:false" json:"bonus_eligible"`                           // 是否有资格获得奖金
	BonusAwarded               bool            `gorm:"not null;default:false" json:"bonus_awarded"`                            // 奖金是否已审核发放
	BonusAmount                Money           `gorm:"type:decimal(20,2);not null;default:0" json:"bonus_amount"`              // 奖金金额
	TierLabel                  string          `gorm:"type:varchar(64)" json:"tier_label,omitempty"`                           // 奖金阶梯
	BonusRecordID              *uint           `gorm:"index" json:"bonus_record_id,omitempty"`                                 // 关联奖金
	GoalSnapshot               GoalSnapshot    `gorm:"type:json" json:"goal_snapshot"`                                         // 目标规则快照
	Version                    uint            `gorm:"not null;default:0" json:"version"`                                      // 更新版本号
	ClosedAt                   *time.Time      `json:"closed_at,omitempty"`                                                    // 关闭时间
	CreatedAt                  time.Time       `gorm:"index" json:"created_at"`                                                // 创建时间
	UpdatedAt                  time.Time       `gorm:"index" json:"updated_at"`                                                // 更新时间
}

// TableName 指定表名
func (GoalProgress) TableName() string {
	return "goal_progress"
}

// GoalProgressContribution 进度计入流水（按订单去重）
type GoalProgressContribution struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                                              // 主键
	TenantID       uint      `gorm:"not null;index" json:"tenant_id"`                                                   // 租户ID
	GoalProgressID uint      `gorm:"not null;uniqueIndex:idx_goal_progress_contribution_order" json:"goal_progress_id"` // 进度ID
	OrderID        uint      `gorm:"not null;uniqueIndex:idx_goal_progress_contribution_order" json:"order_id"`         // 订单ID
	Value          Money     `gorm:"type:decimal(20,2);not null;default:0" json:"value"`                                // 计入值
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                                           // 创建时间
}

// TableName 指定表名
func (GoalProgressContribution) TableName() string {
	return "goal_progress_contributions"
}
