package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tienda-next/internal/cache"
	"github.com/tienda-next/internal/compensation"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"gorm.io/gorm"
)

// CommissionConfigService 提成方案与员工提成配置服务
type CommissionConfigService struct {
	planRepo     repository.CommissionPlanRepository
	configRepo   repository.EmployeeCommissionConfigRepository
	employeeRepo repository.EmployeeRepository
	cacheTTL     time.Duration
	now          func() time.Time
}

// NewCommissionConfigService 创建提成配置服务，cacheTTL <= 0 时不缓存默认方案
func NewCommissionConfigService(
	planRepo repository.CommissionPlanRepository,
	configRepo repository.EmployeeCommissionConfigRepository,
	employeeRepo repository.EmployeeRepository,
	cacheTTL time.Duration,
) *CommissionConfigService {
	return &CommissionConfigService{
		planRepo:     planRepo,
		configRepo:   configRepo,
		employeeRepo: employeeRepo,
		cacheTTL:     cacheTTL,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CommissionPlanInput 创建/更新提成方案输入
type CommissionPlanInput struct {
	Name                        string                 `json:"name" validate:"required,max=120"`
	Description                 string                 `json:"description" validate:"max=2000"`
	Type                        string                 `json:"type" validate:"required,oneof=percentage tiered fixed mixed"`
	DefaultPercentage           models.Money           `json:"default_percentage" validate:"gte=0,lte=100"`
	FixedAmount                 models.Money           `json:"fixed_amount" validate:"gte=0"`
	Tiers                       models.CommissionTiers `json:"tiers"`
	ApplicableRoles             []string               `json:"applicable_roles" validate:"omitempty,dive,required,max=64"`
	ApplicableProducts          []uint                 `json:"applicable_products" validate:"omitempty,dive,gt=0"`
	ApplicableCategories        []string               `json:"applicable_categories" validate:"omitempty,dive,required,max=120"`
	CalculateOnDiscountedAmount bool                   `json:"calculate_on_discounted_amount"`
	IncludeTaxesInBase          bool                   `json:"include_taxes_in_base"`
	IncludeShippingInBase       bool                   `json:"include_shipping_in_base"`
	MinOrderAmount              models.Money           `json:"min_order_amount" validate:"gte=0"`
	MaxCommissionAmount         *models.Money          `json:"max_commission_amount" validate:"omitempty,gte=0"`
	IsActive                    *bool                  `json:"is_active"`
	IsDefault                   bool                   `json:"is_default"`
}

func (in CommissionPlanInput) validate() error {
	if err := validateInput(in); err != nil {
		return err
	}
	if in.Type == constants.CommissionPlanTypeTiered && len(in.Tiers) == 0 {
		return validationError("tiers is required for tiered plans")
	}
	return validateCommissionTiers(in.Tiers)
}

func (in CommissionPlanInput) apply(plan *models.CommissionPlan) {
	plan.Name = strings.TrimSpace(in.Name)
	plan.Description = strings.TrimSpace(in.Description)
	plan.Type = in.Type
	plan.DefaultPercentage = in.DefaultPercentage
	plan.FixedAmount = in.FixedAmount
	plan.Tiers = in.Tiers
	plan.ApplicableRoles = models.StringArray(in.ApplicableRoles)
	plan.ApplicableProducts = models.UintArray(in.ApplicableProducts)
	plan.ApplicableCategories = models.StringArray(in.ApplicableCategories)
	plan.CalculateOnDiscountedAmount = in.CalculateOnDiscountedAmount
	plan.IncludeTaxesInBase = in.IncludeTaxesInBase
	plan.IncludeShippingInBase = in.IncludeShippingInBase
	plan.MinOrderAmount = in.MinOrderAmount
	plan.MaxCommissionAmount = in.MaxCommissionAmount
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}
	plan.IsDefault = in.IsDefault
}

// CommissionOverrideInput 员工覆盖项，未传的字段不覆盖方案
type CommissionOverrideInput struct {
	OverridePercentage    *models.Money          `json:"override_percentage" validate:"omitempty,gte=0,lte=100"`
	OverrideFixedAmount   *models.Money          `json:"override_fixed_amount" validate:"omitempty,gte=0"`
	OverrideTiers         models.CommissionTiers `json:"override_tiers"`
	OverrideMaxCommission *models.Money          `json:"override_max_commission" validate:"omitempty,gte=0"`
	Notes                 string                 `json:"notes" validate:"max=500"`
}

func (in CommissionOverrideInput) apply(cfg *models.EmployeeCommissionConfig) {
	cfg.OverridePercentage = in.OverridePercentage
	cfg.OverrideFixedAmount = in.OverrideFixedAmount
	cfg.OverrideTiers = in.OverrideTiers
	cfg.OverrideMaxCommission = in.OverrideMaxCommission
	cfg.Notes = strings.TrimSpace(in.Notes)
}

// AssignCommissionConfigInput 分配员工提成方案输入
type AssignCommissionConfigInput struct {
	PlanID        uint       `json:"plan_id" validate:"required"`
	EffectiveDate *time.Time `json:"effective_date"`
	CommissionOverrideInput
}

// Resolve 解析员工在 asOf 时刻生效的提成配置；没有可用方案时返回 nil
func (s *CommissionConfigService) Resolve(tenantID, employeeID uint, asOf time.Time) (*compensation.ResolvedCommissionConfig, error) {
	asOf = asOf.UTC()
	cfg, err := s.configRepo.GetCurrent(tenantID, employeeID, asOf)
	if err != nil {
		return nil, err
	}
	if cfg != nil && cfg.Plan != nil && cfg.Plan.IsActive {
		resolved, err := compensation.ResolveConfig(planParamsOf(cfg.Plan), overrideParamsOf(cfg))
		if err != nil {
			return nil, fmt.Errorf("%w: plan %d: %v", ErrValidation, cfg.PlanID, err)
		}
		return &resolved, nil
	}
	if cfg != nil {
		logger.ForTenant(tenantID).Warnw("commission_config_plan_unavailable",
			"employee_id", employeeID,
			"config_id", cfg.ID,
			"plan_id", cfg.PlanID,
		)
	}

	plan, err := s.defaultPlan(tenantID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}
	resolved, err := compensation.ResolveConfig(planParamsOf(plan), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: plan %d: %v", ErrValidation, plan.ID, err)
	}
	return &resolved, nil
}

func (s *CommissionConfigService) defaultPlan(tenantID uint) (*models.CommissionPlan, error) {
	ctx := context.Background()
	if s.cacheTTL > 0 {
		plan, hit, err := cache.GetDefaultPlan(ctx, tenantID)
		if err != nil {
			logger.ForTenant(tenantID).Warnw("commission_default_plan_cache_get_failed", "error", err)
		} else if hit {
			return plan, nil
		}
	}
	plan, err := s.planRepo.FindDefault(tenantID, true)
	if err != nil {
		return nil, err
	}
	if s.cacheTTL > 0 {
		if err := cache.SetDefaultPlan(ctx, tenantID, plan, s.cacheTTL); err != nil {
			logger.ForTenant(tenantID).Warnw("commission_default_plan_cache_set_failed", "error", err)
		}
	}
	return plan, nil
}

func (s *CommissionConfigService) invalidateDefaultPlan(tenantID uint) {
	if err := cache.InvalidateDefaultPlan(context.Background(), tenantID); err != nil {
		logger.ForTenant(tenantID).Warnw("commission_default_plan_cache_invalidate_failed", "error", err)
	}
}

// CreatePlan 创建提成方案
func (s *CommissionConfigService) CreatePlan(tenantID, actorID uint, input CommissionPlanInput) (*models.CommissionPlan, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	plan := &models.CommissionPlan{TenantID: tenantID, IsActive: true, CreatedBy: actorID}
	input.apply(plan)
	if plan.IsDefault && !plan.IsActive {
		return nil, ErrPlanInactive
	}

	err := s.planRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.planRepo.WithTx(tx)
		if plan.IsDefault {
			existing, err := repo.FindDefault(tenantID, false)
			if err != nil {
				return err
			}
			if existing != nil {
				return ErrDefaultPlanExists
			}
		}
		return repo.Create(plan)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateDefaultPlan(tenantID)
	logger.ForTenant(tenantID).Infow("commission_plan_created", "plan_id", plan.ID, "type", plan.Type, "is_default", plan.IsDefault)
	return plan, nil
}

// UpdatePlan 更新提成方案，已生成的提成记录不受影响
func (s *CommissionConfigService) UpdatePlan(tenantID, id uint, input CommissionPlanInput) (*models.CommissionPlan, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	var plan *models.CommissionPlan
	err := s.planRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.planRepo.WithTx(tx)
		existing, err := repo.GetByID(tenantID, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		wasDefault := existing.IsDefault
		input.apply(existing)
		if existing.IsDefault && !existing.IsActive {
			return ErrPlanInactive
		}
		if existing.IsDefault && !wasDefault {
			current, err := repo.FindDefault(tenantID, false)
			if err != nil {
				return err
			}
			if current != nil && current.ID != existing.ID {
				return ErrDefaultPlanExists
			}
		}
		if err := repo.Update(existing); err != nil {
			return err
		}
		plan = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateDefaultPlan(tenantID)
	return plan, nil
}

// GetPlan 获取提成方案
func (s *CommissionConfigService) GetPlan(tenantID, id uint) (*models.CommissionPlan, error) {
	plan, err := s.planRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrNotFound
	}
	return plan, nil
}

// ListPlans 分页查询提成方案
func (s *CommissionConfigService) ListPlans(filter repository.CommissionPlanListFilter) ([]models.CommissionPlan, int64, error) {
	filter.Type = strings.TrimSpace(filter.Type)
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	return s.planRepo.List(filter)
}

// DeletePlan 删除提成方案；仍被员工当前配置引用时拒绝
func (s *CommissionConfigService) DeletePlan(tenantID, id uint) error {
	plan, err := s.planRepo.GetByID(tenantID, id)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrNotFound
	}
	inUse, err := s.configRepo.CountCurrentByPlan(tenantID, id, s.now())
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrPlanInUse
	}
	affected, err := s.planRepo.Delete(tenantID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.invalidateDefaultPlan(tenantID)
	logger.ForTenant(tenantID).Infow("commission_plan_deleted", "plan_id", id)
	return nil
}

// SetDefaultPlan 设置租户默认方案（同一事务内取消原默认方案）
func (s *CommissionConfigService) SetDefaultPlan(tenantID, id uint) (*models.CommissionPlan, error) {
	var plan *models.CommissionPlan
	err := s.planRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.planRepo.WithTx(tx)
		existing, err := repo.GetByID(tenantID, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		if !existing.IsActive {
			return ErrPlanInactive
		}
		now := s.now()
		if _, err := repo.ClearDefault(tenantID, now); err != nil {
			return err
		}
		affected, err := repo.MarkDefault(tenantID, id, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrPlanInactive
		}
		existing.IsDefault = true
		existing.UpdatedAt = now
		plan = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateDefaultPlan(tenantID)
	logger.ForTenant(tenantID).Infow("commission_default_plan_changed", "plan_id", id)
	return plan, nil
}

// AssignConfig 为员工分配提成方案：关闭当前配置并创建新配置
func (s *CommissionConfigService) AssignConfig(tenantID, employeeID, actorID uint, input AssignCommissionConfigInput) (*models.EmployeeCommissionConfig, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := validateCommissionTiers(input.OverrideTiers); err != nil {
		return nil, err
	}
	employee, err := s.employeeRepo.GetByID(tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %d", ErrNotFound, employeeID)
	}
	plan, err := s.planRepo.GetByID(tenantID, input.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: commission plan %d", ErrNotFound, input.PlanID)
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	effective := s.now()
	if input.EffectiveDate != nil && !input.EffectiveDate.IsZero() {
		effective = input.EffectiveDate.UTC()
	}
	cfg := &models.EmployeeCommissionConfig{
		TenantID:      tenantID,
		EmployeeID:    employeeID,
		PlanID:        plan.ID,
		EffectiveDate: effective,
		AssignedBy:    actorID,
	}
	input.CommissionOverrideInput.apply(cfg)

	err = s.configRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.configRepo.WithTx(tx)
		if _, err := repo.CloseOpen(tenantID, employeeID, effective); err != nil {
			return err
		}
		return repo.Create(cfg)
	})
	if err != nil {
		return nil, err
	}
	cfg.Plan = plan
	logger.ForTenant(tenantID).Infow("employee_commission_config_assigned",
		"employee_id", employeeID,
		"config_id", cfg.ID,
		"plan_id", plan.ID,
		"has_overrides", cfg.HasOverrides(),
	)
	return cfg, nil
}

// UpdateConfig 更新员工配置的覆盖项与备注
func (s *CommissionConfigService) UpdateConfig(tenantID, configID uint, input CommissionOverrideInput) (*models.EmployeeCommissionConfig, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := validateCommissionTiers(input.OverrideTiers); err != nil {
		return nil, err
	}
	cfg, err := s.configRepo.GetByID(tenantID, configID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrNotFound
	}
	input.apply(cfg)
	if err := s.configRepo.Update(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RemoveConfig 立即结束员工当前配置，之后回退到租户默认方案
func (s *CommissionConfigService) RemoveConfig(tenantID, employeeID uint) error {
	affected, err := s.configRepo.CloseOpen(tenantID, employeeID, s.now())
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	logger.ForTenant(tenantID).Infow("employee_commission_config_removed", "employee_id", employeeID)
	return nil
}

// GetCurrentConfig 员工当前生效配置，没有时返回 nil
func (s *CommissionConfigService) GetCurrentConfig(tenantID, employeeID uint) (*models.EmployeeCommissionConfig, error) {
	return s.configRepo.GetCurrent(tenantID, employeeID, s.now())
}

// ListConfigHistory 员工全部配置（含已结束）
func (s *CommissionConfigService) ListConfigHistory(tenantID, employeeID uint) ([]models.EmployeeCommissionConfig, error) {
	return s.configRepo.ListByEmployee(tenantID, employeeID)
}
