package constants

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
	QueueSignals  = "signals"
)

// 入站事件任务类型
const (
	TaskOrderCompleted  = "order.completed"
	TaskOrderPaid       = "order.paid"
	TaskOrderCancelled  = "order.cancelled"
	TaskGoalAchieved    = "goal.achieved"
	TaskGoalClosePeriod = "goal.close_period"
	TaskGoalRecalculate = "goal.recalculate"
)

// 出站信号类型
const (
	SignalCommissionCalculated = "commission.calculated"
	SignalBonusCreated         = "bonus.created"
	SignalBonusApproved        = "bonus.approved"
	SignalBonusCancelled       = "bonus.cancelled"
	SignalGoalMilestoneReached = "goal.milestone.reached"
	SignalGoalAchieved         = "goal.achieved"
)

// 提成方案类型
const (
	CommissionPlanTypePercentage = "percentage"
	CommissionPlanTypeTiered     = "tiered"
	CommissionPlanTypeFixed      = "fixed"
	CommissionPlanTypeMixed      = "mixed"
)

// 提成记录状态
const (
	CommissionStatusPending  = "pending"
	CommissionStatusApproved = "approved"
	CommissionStatusRejected = "rejected"
	CommissionStatusPaid     = "paid"
)

// 提成跳过原因
const (
	CommissionSkipBelowMinimum      = "below_minimum_amount"
	CommissionSkipNoSalesperson     = "no_salesperson"
	CommissionSkipNoApplicablePlan  = "no_applicable_plan"
	CommissionSkipRoleNotApplicable = "role_not_applicable"
	CommissionSkipNoApplicableItems = "no_applicable_items"
	CommissionSkipOrderNotCompleted = "order_not_completed"
	CommissionSkipAlreadyCalculated = "already_calculated"
)

// 订单状态（订单中心写入，这里只读）
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// 销售目标指标类型
const (
	GoalTargetAmount = "amount"
	GoalTargetUnits  = "units"
	GoalTargetOrders = "orders"
	GoalTargetMargin = "margin"
)

// 销售目标周期
const (
	GoalPeriodDaily     = "daily"
	GoalPeriodWeekly    = "weekly"
	GoalPeriodBiweekly  = "biweekly"
	GoalPeriodMonthly   = "monthly"
	GoalPeriodQuarterly = "quarterly"
	GoalPeriodYearly    = "yearly"
	GoalPeriodCustom    = "custom"
)

// 销售目标适用范围
const (
	GoalApplicableAll        = "all"
	GoalApplicableRole       = "role"
	GoalApplicableIndividual = "individual"
	GoalApplicableTeam       = "team"
)

// 目标奖金类型
const (
	GoalBonusFixed      = "fixed"
	GoalBonusPercentage = "percentage"
	GoalBonusTiered     = "tiered"
	GoalBonusNone       = "none"
)

// 目标进度状态
const (
	GoalProgressStatusInProgress   = "in_progress"
	GoalProgressStatusAchieved     = "achieved"
	GoalProgressStatusFailed       = "failed"
	GoalProgressStatusBonusPending = "bonus_pending"
	GoalProgressStatusBonusAwarded = "bonus_awarded"
	GoalProgressStatusBonusPaid    = "bonus_paid"
)

// 奖金类型
const (
	BonusTypeGoalAchievement = "goal_achievement"
	BonusTypePerformance     = "performance"
	BonusTypeHoliday         = "holiday"
	BonusTypeReferral        = "referral"
	BonusTypeSpot            = "spot"
	BonusTypeOther           = "other"
)

// 奖金状态
const (
	BonusStatusPending   = "pending"
	BonusStatusApproved  = "approved"
	BonusStatusRejected  = "rejected"
	BonusStatusPaid      = "paid"
	BonusStatusCancelled = "cancelled"
)
