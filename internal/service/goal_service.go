package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/tienda-next/internal/compensation"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"
)

// GoalService 销售目标管理服务
type GoalService struct {
	goalRepo    repository.SalesGoalRepository
	progressSvc *GoalProgressService
	now         func() time.Time
}

// NewGoalService 创建销售目标服务
func NewGoalService(goalRepo repository.SalesGoalRepository, progressSvc *GoalProgressService) *GoalService {
	return &GoalService{
		goalRepo:    goalRepo,
		progressSvc: progressSvc,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SalesGoalInput 创建/更新销售目标输入
type SalesGoalInput struct {
	Name                   string                `json:"name" validate:"required,max=120"`
	Description            string                `json:"description" validate:"max=2000"`
	TargetType             string                `json:"target_type" validate:"required,oneof=amount units orders margin"`
	TargetValue            models.Money          `json:"target_value" validate:"gt=0"`
	PeriodType             string                `json:"period_type" validate:"required,oneof=daily weekly biweekly monthly quarterly yearly custom"`
	CustomPeriodStart      *time.Time            `json:"custom_period_start" validate:"required_if=PeriodType custom"`
	CustomPeriodEnd        *time.Time            `json:"custom_period_end" validate:"required_if=PeriodType custom"`
	ApplicableTo           string                `json:"applicable_to" validate:"omitempty,oneof=all role individual team"`
	ApplicableRoles        []string              `json:"applicable_roles" validate:"required_if=ApplicableTo role,omitempty,dive,required"`
	ApplicableEmployees    []uint                `json:"applicable_employees" validate:"required_if=ApplicableTo individual,omitempty,dive,gt=0"`
	ApplicableTeams        []uint                `json:"applicable_teams" validate:"required_if=ApplicableTo team,omitempty,dive,gt=0"`
	ProductIDs             []uint                `json:"product_ids" validate:"omitempty,dive,gt=0"`
	Categories             []string              `json:"categories" validate:"omitempty,dive,required"`
	BonusType              string                `json:"bonus_type" validate:"omitempty,oneof=fixed percentage tiered none"`
	BonusAmount            models.Money          `json:"bonus_amount" validate:"gte=0"`
	BonusPercentage        models.Money          `json:"bonus_percentage" validate:"gte=0"`
	BonusTiers             models.GoalBonusTiers `json:"bonus_tiers"`
	BonusProRated          bool                  `json:"bonus_pro_rated"`
	MinAchievementForBonus *models.Money         `json:"min_achievement_for_bonus" validate:"omitempty,gte=0"`
	AutoAwardBonus         bool                  `json:"auto_award_bonus"`
	ProgressMilestones     []int                 `json:"progress_milestones"`
}

func (in SalesGoalInput) validate() error {
	if err := validateInput(in); err != nil {
		return err
	}
	if in.PeriodType == constants.GoalPeriodCustom {
		window := compensation.CustomWindow{Start: in.CustomPeriodStart, End: in.CustomPeriodEnd}
		if _, err := compensation.ComputePeriod(in.PeriodType, time.Now().UTC(), window); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if in.BonusType == constants.GoalBonusTiered && len(in.BonusTiers) == 0 {
		return validationError("bonus_tiers is required for tiered bonus")
	}
	if err := validateGoalBonusTiers(in.BonusTiers); err != nil {
		return err
	}
	return validateMilestones(in.ProgressMilestones)
}

func (in SalesGoalInput) apply(goal *models.SalesGoal) {
	goal.Name = strings.TrimSpace(in.Name)
	goal.Description = strings.TrimSpace(in.Description)
	goal.TargetType = in.TargetType
	goal.TargetValue = in.TargetValue
	goal.PeriodType = in.PeriodType
	goal.CustomPeriodStart = nil
	goal.CustomPeriodEnd = nil
	if in.PeriodType == constants.GoalPeriodCustom {
		goal.CustomPeriodStart = utcPtr(in.CustomPeriodStart)
		goal.CustomPeriodEnd = utcPtr(in.CustomPeriodEnd)
	}
	goal.ApplicableTo = in.ApplicableTo
	if goal.ApplicableTo == "" {
		goal.ApplicableTo = constants.GoalApplicableAll
	}
	goal.ApplicableRoles = models.StringArray(in.ApplicableRoles)
	goal.ApplicableEmployees = models.UintArray(in.ApplicableEmployees)
	goal.ApplicableTeams = models.UintArray(in.ApplicableTeams)
	goal.ProductIDs = models.UintArray(in.ProductIDs)
	goal.Categories = models.StringArray(in.Categories)
	goal.BonusType = in.BonusType
	if goal.BonusType == "" {
		goal.BonusType = constants.GoalBonusNone
	}
	goal.BonusAmount = in.BonusAmount
	goal.BonusPercentage = in.BonusPercentage
	goal.BonusTiers = in.BonusTiers
	goal.BonusProRated = in.BonusProRated
	goal.MinAchievementForBonus = models.NewMoneyFromInt(100)
	if in.MinAchievementForBonus != nil {
		goal.MinAchievementForBonus = *in.MinAchievementForBonus
	}
	goal.AutoAwardBonus = in.AutoAwardBonus
	goal.ProgressMilestones = models.IntArray(in.ProgressMilestones)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// Create 创建销售目标（未启用）
func (s *GoalService) Create(tenantID, actorID uint, input SalesGoalInput) (*models.SalesGoal, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	goal := &models.SalesGoal{TenantID: tenantID, CreatedBy: actorID}
	input.apply(goal)
	if err := s.goalRepo.Create(goal); err != nil {
		return nil, err
	}
	logger.ForTenant(tenantID).Infow("sales_goal_created", "goal_id", goal.ID, "period_type", goal.PeriodType)
	return goal, nil
}

// Update 更新销售目标；已创建的进度使用各自的规则快照，不受影响
func (s *GoalService) Update(tenantID, id uint, input SalesGoalInput) (*models.SalesGoal, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	goal, err := s.goalRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, ErrNotFound
	}
	input.apply(goal)
	if err := s.goalRepo.Update(goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// Get 获取销售目标
func (s *GoalService) Get(tenantID, id uint) (*models.SalesGoal, error) {
	goal, err := s.goalRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, ErrNotFound
	}
	return goal, nil
}

// List 分页查询销售目标
func (s *GoalService) List(filter repository.SalesGoalListFilter) ([]models.SalesGoal, int64, error) {
	filter.TargetType = strings.TrimSpace(filter.TargetType)
	filter.PeriodType = strings.TrimSpace(filter.PeriodType)
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	return s.goalRepo.List(filter)
}

// Delete 删除销售目标，需先停用
func (s *GoalService) Delete(tenantID, id uint) error {
	goal, err := s.goalRepo.GetByID(tenantID, id)
	if err != nil {
		return err
	}
	if goal == nil {
		return ErrNotFound
	}
	if goal.IsActive {
		return fmt.Errorf("%w: deactivate goal %d before deleting", ErrInvalidStateTransition, id)
	}
	affected, err := s.goalRepo.Delete(tenantID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Activate 启用目标并为适用员工初始化当前周期进度
func (s *GoalService) Activate(tenantID, id uint) (*models.SalesGoal, int, error) {
	if err := s.setActive(tenantID, id, true); err != nil {
		return nil, 0, err
	}
	created, err := s.progressSvc.InitializeProgress(tenantID, id)
	if err != nil {
		logger.ForTenant(tenantID).Warnw("sales_goal_initialize_progress_failed", "goal_id", id, "error", err)
	}
	goal, err := s.Get(tenantID, id)
	if err != nil {
		return nil, created, err
	}
	logger.ForTenant(tenantID).Infow("sales_goal_activated", "goal_id", id, "progress_created", created)
	return goal, created, nil
}

// Deactivate 停用目标，进行中的进度不再累计
func (s *GoalService) Deactivate(tenantID, id uint) (*models.SalesGoal, error) {
	if err := s.setActive(tenantID, id, false); err != nil {
		return nil, err
	}
	logger.ForTenant(tenantID).Infow("sales_goal_deactivated", "goal_id", id)
	return s.Get(tenantID, id)
}

func (s *GoalService) setActive(tenantID, id uint, active bool) error {
	affected, err := s.goalRepo.SetActive(tenantID, id, active, s.now())
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	goal, err := s.goalRepo.GetByID(tenantID, id)
	if err != nil {
		return err
	}
	if goal == nil {
		return ErrNotFound
	}
	return fmt.Errorf("%w: goal %d is_active is already %t", ErrInvalidStateTransition, id, active)
}
