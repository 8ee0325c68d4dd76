package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tienda-next/internal/compensation"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoalProgressOptions 进度累计参数
type GoalProgressOptions struct {
	HistoryLimit        int
	MarginFallbackRatio decimal.Decimal
	Location            *time.Location
}

// GoalProgressService 目标进度累计服务
type GoalProgressService struct {
	progressRepo repository.GoalProgressRepository
	goalRepo     repository.SalesGoalRepository
	employeeRepo repository.EmployeeRepository
	orderRepo    repository.OrderRepository
	outbox       SignalSink
	opts         GoalProgressOptions
	now          func() time.Time
}

// NewGoalProgressService 创建目标进度服务
func NewGoalProgressService(
	progressRepo repository.GoalProgressRepository,
	goalRepo repository.SalesGoalRepository,
	employeeRepo repository.EmployeeRepository,
	orderRepo repository.OrderRepository,
	outbox SignalSink,
	opts GoalProgressOptions,
) *GoalProgressService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &GoalProgressService{
		progressRepo: progressRepo,
		goalRepo:     goalRepo,
		employeeRepo: employeeRepo,
		orderRepo:    orderRepo,
		outbox:       sinkOrDiscard(outbox),
		opts:         opts,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ApplyOrderResult 一笔订单计入后的结果
type ApplyOrderResult struct {
	Updated      []models.GoalProgress               `json:"updated"`
	Milestones   []compensation.GoalMilestoneReached `json:"milestones"`
	Achievements []compensation.GoalAchieved         `json:"achievements"`
}

func (r *ApplyOrderResult) merge(step *progressStep) {
	if step == nil || step.progress == nil {
		return
	}
	r.Updated = append(r.Updated, *step.progress)
	r.Milestones = append(r.Milestones, step.milestones...)
	if step.achieved != nil {
		r.Achievements = append(r.Achievements, *step.achieved)
	}
}

type progressStep struct {
	progress   *models.GoalProgress
	milestones []compensation.GoalMilestoneReached
	achieved   *compensation.GoalAchieved
}

var (
	// errContributionRecorded 该订单已计入此进度
	errContributionRecorded = errors.New("contribution already recorded")
	// errProgressClosed 进度已不在进行中
	errProgressClosed = errors.New("goal progress is no longer in progress")
)

// ApplyOrder 将一笔已完成订单计入员工所有覆盖订单日期的进行中进度。
// 同一订单重复投递时按 (进度, 订单) 流水去重，不会重复累计。
func (s *GoalProgressService) ApplyOrder(tenantID, employeeID uint, contribution OrderContribution) (*ApplyOrderResult, error) {
	result := &ApplyOrderResult{}
	log := logger.ForTenant(tenantID, "employee_id", employeeID, "order_id", contribution.OrderID)
	employee, err := s.employeeRepo.GetByID(tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		log.Warnw("goal_progress_employee_missing")
		return result, nil
	}

	orderDate := contribution.OrderDate.UTC()
	if err := s.ensureProgressForOrder(tenantID, employee, orderDate); err != nil {
		return nil, err
	}
	rows, err := s.progressRepo.ListOpenForEmployeeAt(tenantID, employeeID, orderDate)
	if err != nil {
		return nil, err
	}

	var errs []error
	for i := range rows {
		step, err := s.applyToProgress(&rows[i], contribution, true)
		if err != nil {
			log.Errorw("goal_progress_apply_failed", "goal_progress_id", rows[i].ID, "error", err)
			errs = append(errs, err)
			continue
		}
		result.merge(step)
	}
	s.emitStepSignals(result)
	return result, errors.Join(errs...)
}

func (s *GoalProgressService) emitStepSignals(result *ApplyOrderResult) {
	for _, milestone := range result.Milestones {
		s.outbox.Emit(milestone)
	}
	for _, achieved := range result.Achievements {
		s.outbox.Emit(achieved)
	}
}

// ensureProgressForOrder 为适用的启用目标惰性创建订单日期所在周期的进度
func (s *GoalProgressService) ensureProgressForOrder(tenantID uint, employee *models.Employee, orderDate time.Time) error {
	goals, err := s.goalRepo.ListActive(tenantID)
	if err != nil {
		return err
	}
	for i := range goals {
		goal := &goals[i]
		if !goal.AppliesTo(employee) {
			continue
		}
		period, err := s.periodFor(goal, orderDate)
		if err != nil {
			logger.ForTenant(tenantID).Warnw("goal_period_compute_failed", "goal_id", goal.ID, "error", err)
			continue
		}
		if !period.Contains(orderDate) {
			continue
		}
		if _, err := s.ensureProgress(goal, employee.ID, period); err != nil {
			return err
		}
	}
	return nil
}

func (s *GoalProgressService) periodFor(goal *models.SalesGoal, at time.Time) (compensation.Period, error) {
	return compensation.ComputePeriod(goal.PeriodType, at.In(s.opts.Location), customWindowOf(goal))
}

// ensureProgress 不存在则创建进度，返回是否新建
func (s *GoalProgressService) ensureProgress(goal *models.SalesGoal, employeeID uint, period compensation.Period) (bool, error) {
	start := period.Start.UTC()
	existing, err := s.progressRepo.FindForPeriod(goal.TenantID, goal.ID, employeeID, start)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	progress := &models.GoalProgress{
		TenantID:           goal.TenantID,
		GoalID:             goal.ID,
		EmployeeID:         employeeID,
		PeriodStart:        start,
		PeriodEnd:          period.End.UTC(),
		PeriodLabel:        period.Label,
		CurrentValue:       models.NewMoneyFromInt(0),
		TargetValue:        goal.TargetValue,
		PercentageComplete: models.NewMoneyFromInt(0),
		Contributions:      models.ContributionLog{},
		MilestonesReached:  models.IntArray{},
		Status:             constants.GoalProgressStatusInProgress,
		GoalSnapshot:       models.SnapshotOf(goal),
	}
	if err := s.progressRepo.Create(progress); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	logger.ForTenant(goal.TenantID).Debugw("goal_progress_created",
		"goal_id", goal.ID,
		"employee_id", employeeID,
		"period_label", period.Label,
	)
	return true, nil
}

// applyToProgress 在单个事务内：写入订单流水、原子累加、重算派生字段并按版本号写回
func (s *GoalProgressService) applyToProgress(row *models.GoalProgress, contribution OrderContribution, requireActiveGoal bool) (*progressStep, error) {
	if requireActiveGoal {
		goal, err := s.goalRepo.GetByID(row.TenantID, row.GoalID)
		if err != nil {
			return nil, err
		}
		if goal == nil || !goal.IsActive {
			return nil, nil
		}
	}

	snapshot := row.GoalSnapshot
	value, matched := compensation.ContributionValue(snapshot.TargetType, contribution.Order, scopeOf(snapshot), s.opts.MarginFallbackRatio)
	if !matched || !value.IsPositive() {
		return nil, nil
	}
	value = value.Round(2)

	now := s.now()
	step := &progressStep{}
	err := s.progressRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.progressRepo.WithTx(tx)
		entry := &models.GoalProgressContribution{
			TenantID:       row.TenantID,
			GoalProgressID: row.ID,
			OrderID:        contribution.OrderID,
			Value:          models.NewMoneyFromDecimal(value),
		}
		if err := repo.InsertContribution(entry); err != nil {
			if isUniqueViolation(err) {
				return errContributionRecorded
			}
			return err
		}
		affected, err := repo.AddValue(row.ID, value)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errProgressClosed
		}
		current, err := repo.GetByID(row.TenantID, row.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}

		updates, milestones, achieved := s.computeProgress(current, contribution, value, now)
		affected, err = repo.SaveComputed(current.ID, current.Version, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("goal progress %d changed concurrently", current.ID)
		}
		refreshed, err := repo.GetByID(row.TenantID, row.ID)
		if err != nil {
			return err
		}
		step.progress = refreshed
		step.milestones = milestones
		step.achieved = achieved
		return nil
	})
	if errors.Is(err, errContributionRecorded) || errors.Is(err, errProgressClosed) {
		logger.ForTenant(row.TenantID).Debugw("goal_progress_contribution_skipped",
			"goal_progress_id", row.ID,
			"order_id", contribution.OrderID,
			"reason", err.Error(),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return step, nil
}

// computeProgress 根据累加后的当前值计算完成率、最近贡献、里程碑与达成状态
func (s *GoalProgressService) computeProgress(current *models.GoalProgress, contribution OrderContribution, value decimal.Decimal, now time.Time) (map[string]interface{}, []compensation.GoalMilestoneReached, *compensation.GoalAchieved) {
	snapshot := current.GoalSnapshot
	percentage := compensation.PercentageComplete(current.CurrentValue.Decimal, current.TargetValue.Decimal)
	contributions := compensation.AppendBounded([]models.ContributionEntry(current.Contributions), models.ContributionEntry{
		OrderID:     contribution.OrderID,
		OrderNumber: contribution.OrderNumber,
		Value:       models.NewMoneyFromDecimal(value),
		RecordedAt:  now,
	}, s.opts.HistoryLimit)

	crossed := compensation.NewMilestones(snapshot.ProgressMilestones, current.MilestonesReached, percentage)
	reached := append(models.IntArray{}, current.MilestonesReached...)
	reached = append(reached, crossed...)
	sort.Ints(reached)

	updates := map[string]interface{}{
		"percentage_complete": models.NewMoneyFromDecimal(percentage),
		"contributions":       models.ContributionLog(contributions),
		"milestones_reached":  reached,
		"updated_at":          now,
	}

	milestones := make([]compensation.GoalMilestoneReached, 0, len(crossed))
	for _, m := range crossed {
		milestones = append(milestones, compensation.GoalMilestoneReached{
			GoalProgressID:    current.ID,
			TenantID:          current.TenantID,
			EmployeeID:        current.EmployeeID,
			GoalID:            current.GoalID,
			Milestone:         m,
			CurrentPercentage: percentage,
		})
	}

	if current.Achieved || !current.TargetValue.IsPositive() || current.CurrentValue.LessThan(current.TargetValue.Decimal) {
		return updates, milestones, nil
	}

	bonus := compensation.BonusResult{Amount: decimal.Zero}
	formula, err := bonusFormulaOf(snapshot)
	if err != nil {
		logger.ForTenant(current.TenantID).Warnw("goal_bonus_formula_invalid",
			"goal_progress_id", current.ID,
			"bonus_type", snapshot.BonusType,
			"error", err,
		)
	} else {
		bonus = compensation.ComputeBonus(formula, bonusRulesOf(snapshot), percentage)
	}
	updates["status"] = constants.GoalProgressStatusAchieved
	updates["achieved"] = true
	updates["achieved_at"] = now
	updates["final_achievement_percentage"] = models.NewMoneyFromDecimal(percentage)
	updates["bonus_eligible"] = percentage.GreaterThanOrEqual(snapshot.MinAchievementForBonus.Decimal)
	updates["bonus_amount"] = models.NewMoneyFromDecimal(bonus.Amount)
	updates["tier_label"] = bonus.TierLabel

	logger.ForTenant(current.TenantID).Infow("goal_achieved",
		"goal_progress_id", current.ID,
		"goal_id", current.GoalID,
		"employee_id", current.EmployeeID,
		"achievement_percentage", percentage.StringFixed(2),
		"bonus_amount", bonus.Amount.StringFixed(2),
	)
	return updates, milestones, &compensation.GoalAchieved{
		GoalProgressID:        current.ID,
		TenantID:              current.TenantID,
		EmployeeID:            current.EmployeeID,
		GoalID:                current.GoalID,
		AchievementPercentage: percentage,
		BonusAmount:           bonus.Amount,
		AutoAwardBonus:        snapshot.AutoAwardBonus,
	}
}

// Get 获取进度
func (s *GoalProgressService) Get(tenantID, id uint) (*models.GoalProgress, error) {
	progress, err := s.progressRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, ErrNotFound
	}
	return progress, nil
}

// ListByGoal 目标下的进度列表
func (s *GoalProgressService) ListByGoal(tenantID, goalID uint, status string, page, pageSize int) ([]models.GoalProgress, int64, error) {
	return s.progressRepo.List(repository.GoalProgressListFilter{
		Page:     page,
		PageSize: pageSize,
		TenantID: tenantID,
		GoalID:   goalID,
		Status:   strings.TrimSpace(status),
	})
}

// ListByEmployee 员工的进度列表
func (s *GoalProgressService) ListByEmployee(tenantID, employeeID uint, status string, page, pageSize int) ([]models.GoalProgress, int64, error) {
	return s.progressRepo.List(repository.GoalProgressListFilter{
		Page:       page,
		PageSize:   pageSize,
		TenantID:   tenantID,
		EmployeeID: employeeID,
		Status:     strings.TrimSpace(status),
	})
}

// InitializeProgress 为所有适用的在职员工创建目标当前周期的进度，已存在的跳过
func (s *GoalProgressService) InitializeProgress(tenantID, goalID uint) (int, error) {
	goal, err := s.goalRepo.GetByID(tenantID, goalID)
	if err != nil {
		return 0, err
	}
	if goal == nil {
		return 0, ErrNotFound
	}
	if !goal.IsActive {
		return 0, ErrGoalInactive
	}
	return s.initializeAt(goal, s.now())
}

func (s *GoalProgressService) initializeAt(goal *models.SalesGoal, at time.Time) (int, error) {
	period, err := s.periodFor(goal, at)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !at.Before(period.End) {
		return 0, nil
	}
	employees, err := s.employeeRepo.ListActive(goal.TenantID)
	if err != nil {
		return 0, err
	}
	created := 0
	for i := range employees {
		if !goal.AppliesTo(&employees[i]) {
			continue
		}
		ok, err := s.ensureProgress(goal, employees[i].ID, period)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	logger.ForTenant(goal.TenantID).Infow("goal_progress_initialized",
		"goal_id", goal.ID,
		"period_label", period.Label,
		"created", created,
	)
	return created, nil
}

// ClosePeriodResult 周期关闭结果
type ClosePeriodResult struct {
	Failed      int64 `json:"failed"`
	Initialized int   `json:"initialized"`
}

// ClosePeriod 关闭 PeriodEnd <= periodEnd 的进行中进度（置为失败），
// 并为所有启用的周期性目标初始化 periodEnd 所在的新周期
func (s *GoalProgressService) ClosePeriod(tenantID uint, periodEnd time.Time) (*ClosePeriodResult, error) {
	if periodEnd.IsZero() {
		return nil, validationError("period_end is required")
	}
	periodEnd = periodEnd.UTC()
	failed, err := s.progressRepo.FailExpired(tenantID, periodEnd, s.now())
	if err != nil {
		return nil, err
	}
	result := &ClosePeriodResult{Failed: failed}

	goals, err := s.goalRepo.ListActive(tenantID)
	if err != nil {
		return nil, err
	}
	for i := range goals {
		if !compensation.IsRecurring(goals[i].PeriodType) {
			continue
		}
		created, err := s.initializeAt(&goals[i], periodEnd)
		if err != nil {
			logger.ForTenant(tenantID).Warnw("goal_period_initialize_failed", "goal_id", goals[i].ID, "error", err)
			continue
		}
		result.Initialized += created
	}
	logger.ForTenant(tenantID).Infow("goal_period_closed",
		"period_end", periodEnd,
		"failed", result.Failed,
		"initialized", result.Initialized,
	)
	return result, nil
}

// RecalculateResult 重算结果
type RecalculateResult struct {
	Progresses   int                         `json:"progresses"`
	Orders       int                         `json:"orders"`
	Achievements []compensation.GoalAchieved `json:"achievements,omitempty"`
}

// Recalculate 从订单存储重建目标下所有进行中进度；已达成的里程碑不会重复发出
func (s *GoalProgressService) Recalculate(tenantID, goalID uint) (*RecalculateResult, error) {
	goal, err := s.goalRepo.GetByID(tenantID, goalID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, ErrNotFound
	}
	rows, err := s.progressRepo.ListOpenByGoal(tenantID, goalID)
	if err != nil {
		return nil, err
	}

	result := &RecalculateResult{}
	applied := &ApplyOrderResult{}
	for i := range rows {
		row := &rows[i]
		now := s.now()
		err := s.progressRepo.Transaction(func(tx *gorm.DB) error {
			repo := s.progressRepo.WithTx(tx)
			if err := repo.ClearContributions(row.ID); err != nil {
				return err
			}
			_, err := repo.ResetValue(row.ID, now)
			return err
		})
		if err != nil {
			return nil, err
		}
		orders, err := s.orderRepo.ListCompletedBySalesPerson(tenantID, row.EmployeeID, row.PeriodStart, row.PeriodEnd)
		if err != nil {
			return nil, err
		}
		for j := range orders {
			step, err := s.applyToProgress(row, ContributionFromOrder(&orders[j]), false)
			if err != nil {
				return nil, err
			}
			if step != nil {
				result.Orders++
			}
			applied.merge(step)
		}
		result.Progresses++
	}
	s.emitStepSignals(applied)
	result.Achievements = applied.Achievements
	logger.ForTenant(tenantID).Infow("goal_progress_recalculated",
		"goal_id", goalID,
		"progresses", result.Progresses,
		"orders", result.Orders,
	)
	return result, nil
}
