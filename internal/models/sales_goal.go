package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/tienda-next/internal/constants"

	"gorm.io/gorm"
)

// GoalBonusTier 目标奖金阶梯：达成率达到 AchievementPercentage 时发放 Amount
type GoalBonusTier struct {
	AchievementPercentage Money  `json:"achievement_percentage"`
	Amount                Money  `json:"amount"`
	Label                 string `json:"label"`
}

// GoalBonusTiers 奖金阶梯列表（json 列）
type GoalBonusTiers []GoalBonusTier

// Value 实现 driver.Valuer 接口
func (t GoalBonusTiers) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (t *GoalBonusTiers) Scan(value interface{}) error {
	*t = GoalBonusTiers{}
	return scanJSON(value, t)
}

// SalesGoal 销售目标
type SalesGoal struct {
	ID                     uint           `gorm:"primarykey" json:"id"`                                          // 主键
	TenantID               uint           `gorm:"not null;index" json:"tenant_id"`                               // 租户ID
	Name                   string         `gorm:"type:varchar(120);not null" json:"name"`                        // 目标名称
	Description            string         `gorm:"type:text" json:"description"`                                  // 说明
	TargetType             string         `gorm:"type:varchar(20);not null" json:"target_type"`                  // 指标类型 amount/units/orders/margin
	TargetValue            Money          `gorm:"type:decimal(20,2);not null;default:0" json:"target_value"`     // 目标值
	PeriodType             string         `gorm:"type:varchar(20);not null" json:"period_type"`                  // 周期类型
	CustomPeriodStart      *time.Time     `json:"custom_period_start,omitempty"`                                 // 自定义周期开始
	CustomPeriodEnd        *time.Time     `json:"custom_period_end,omitempty"`                                   // 自定义周期结束（不含）
	ApplicableTo           string         `gorm:"type:varchar(20);not null" json:"applicable_to"`                // 适用范围 all/role/individual/team
	ApplicableRoles        StringArray    `gorm:"type:json" json:"applicable_roles"`                             // 适用岗位
	ApplicableEmployees    UintArray      `gorm:"type:json" json:"applicable_employees"`                         // 适用员工
	ApplicableTeams        UintArray      `gorm:"type:json" json:"applicable_teams"`                             // 适用团队
	ProductIDs             UintArray      `gorm:"type:json" json:"product_ids"`                                  // 限定商品
	Categories             StringArray    `gorm:"type:json" json:"categories"`                                   // 限定分类
	BonusType              string         `gorm:"type:varchar(20);not null" json:"bonus_type"`                   // 奖金类型 fixed/percentage/tiered/none
	BonusAmount            Money          `gorm:"type:decimal(20,2);not null;default:0" json:"bonus_amount"`     // 固定奖金
	BonusPercentage        Money          `gorm:"type:decimal(10,2);not null;default:0" json:"bonus_percentage"` // 奖金比例（按目标值）
	BonusTiers             GoalBonusTiers `gorm:"type:json" json:"bonus_tiers"`                                  // 奖金阶梯
	BonusProRated          bool           `gorm:"not null;default:false" json:"bonus_pro_rated"`                 // 按达成率折算
	MinAchievementForBonus Money          `gorm:"type:decimal(10,2);not null" json:"min_achievement_for_bonus"`  // 发放奖金的最低达成率
	AutoAwardBonus         bool           `gorm:"not null;default:false" json:"auto_award_bonus"`                // 达成后自动创建奖金
	ProgressMilestones     IntArray       `gorm:"type:json" json:"progress_milestones"`                          // 里程碑百分比
	IsActive               bool           `gorm:"not null;default:false;index" json:"is_active"`                 // 是否启用
	ActivatedAt            *time.Time     `json:"activated_at,omitempty"`                                        // 最近启用时间
	CreatedBy              uint           `gorm:"not null;default:0" json:"created_by"`                          // 创建人
	CreatedAt              time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt              time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (SalesGoal) TableName() string {
	return "sales_goals"
}

// AppliesTo 判断目标是否适用于该员工
func (g *SalesGoal) AppliesTo(employee *Employee) bool {
	if g == nil || employee == nil {
		return false
	}
	switch g.ApplicableTo {
	case "", constants.GoalApplicableAll:
		return true
	case constants.GoalApplicableRole:
		return g.ApplicableRoles.Contains(employee.Role)
	case constants.GoalApplicableIndividual:
		return g.ApplicableEmployees.Contains(employee.ID)
	case constants.GoalApplicableTeam:
		return employee.TeamID != nil && g.ApplicableTeams.Contains(*employee.TeamID)
	default:
		return false
	}
}
