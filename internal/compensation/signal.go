package compensation

import (
	"github.com/tienda-next/internal/constants"

	"github.com/shopspring/decimal"
)

// Signal 对外发出的领域信号（记账、通知等下游消费）
type Signal interface {
	SignalType() string
	Tenant() uint
}

// CommissionCalculated 提成已计算
type CommissionCalculated struct {
	CommissionRecordID uint            `json:"commission_record_id"`
	TenantID           uint            `json:"tenant_id"`
	EmployeeID         uint            `json:"employee_id"`
	OrderID            uint            `json:"order_id"`
	Amount             decimal.Decimal `json:"amount"`
}

// BonusEvent 奖金生命周期信号的公共字段
type BonusEvent struct {
	BonusID        uint            `json:"bonus_id"`
	TenantID       uint            `json:"tenant_id"`
	EmployeeID     uint            `json:"employee_id"`
	Amount         decimal.Decimal `json:"amount"`
	Type           string          `json:"type"`
	JournalEntryID string          `json:"journal_entry_id,omitempty"`
}

// BonusCreated 奖金已创建
type BonusCreated struct{ BonusEvent }

// BonusApproved 奖金已审核
type BonusApproved struct{ BonusEvent }

// BonusCancelled 奖金已取消
type BonusCancelled struct{ BonusEvent }

// GoalMilestoneReached 进度跨过里程碑
type GoalMilestoneReached struct {
	GoalProgressID    uint            `json:"goal_progress_id"`
	TenantID          uint            `json:"tenant_id"`
	EmployeeID        uint            `json:"employee_id"`
	GoalID            uint            `json:"goal_id"`
	Milestone         int             `json:"milestone"`
	CurrentPercentage decimal.Decimal `json:"current_percentage"`
}

// GoalAchieved 目标达成
type GoalAchieved struct {
	GoalProgressID        uint            `json:"goal_progress_id"`
	TenantID              uint            `json:"tenant_id"`
	EmployeeID            uint            `json:"employee_id"`
	GoalID                uint            `json:"goal_id"`
	AchievementPercentage decimal.Decimal `json:"achievement_percentage"`
	BonusAmount           decimal.Decimal `json:"bonus_amount"`
	AutoAwardBonus        bool            `json:"auto_award_bonus"`
}

func (s CommissionCalculated) SignalType() string { return constants.SignalCommissionCalculated }
func (s BonusCreated) SignalType() string { return constants.SignalBonusCreated }
func (s BonusApproved) SignalType() string { return constants.SignalBonusApproved }
func (s BonusCancelled) SignalType() string { return constants.SignalBonusCancelled }
func (s GoalMilestoneReached) SignalType() string { return constants.SignalGoalMilestoneReached }
func (s GoalAchieved) SignalType() string { return constants.SignalGoalAchieved }

func (s CommissionCalculated) Tenant() uint { return s.TenantID }
func (s BonusEvent) Tenant() uint { return s.TenantID }
func (s GoalMilestoneReached) Tenant() uint { return s.TenantID }
func (s GoalAchieved) Tenant() uint { return s.TenantID }
