package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// CommissionPlanRepository 提成方案数据访问接口
type CommissionPlanRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CommissionPlanRepository

	Create(plan *models.CommissionPlan) error
	Update(plan *models.CommissionPlan) error
	GetByID(tenantID, id uint) (*models.CommissionPlan, error)
	List(filter CommissionPlanListFilter) ([]models.CommissionPlan, int64, error)
	Delete(tenantID, id uint) (int64, error)
	FindDefault(tenantID uint, activeOnly bool) (*models.CommissionPlan, error)
	ClearDefault(tenantID uint, at time.Time) (int64, error)
	MarkDefault(tenantID, id uint, at time.Time) (int64, error)
}

// GormCommissionPlanRepository GORM 提成方案仓储
type GormCommissionPlanRepository struct {
	db *gorm.DB
}

// NewCommissionPlanRepository 创建提成方案仓储
func NewCommissionPlanRepository(db *gorm.DB) *GormCommissionPlanRepository {
	return &GormCommissionPlanRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionPlanRepository) WithTx(tx *gorm.DB) CommissionPlanRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionPlanRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCommissionPlanRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建方案
func (r *GormCommissionPlanRepository) Create(plan *models.CommissionPlan) error {
	return r.db.Create(plan).Error
}

// Update 保存方案
func (r *GormCommissionPlanRepository) Update(plan *models.CommissionPlan) error {
	return r.db.Save(plan).Error
}

// GetByID 按租户与ID获取方案
func (r *GormCommissionPlanRepository) GetByID(tenantID, id uint) (*models.CommissionPlan, error) {
	if id == 0 {
		return nil, nil
	}
	var plan models.CommissionPlan
	if err := r.db.Where("tenant_id = ?", tenantID).First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// List 查询方案列表
func (r *GormCommissionPlanRepository) List(filter CommissionPlanListFilter) ([]models.CommissionPlan, int64, error) {
	query := r.db.Model(&models.CommissionPlan{}).Where("tenant_id = ?", filter.TenantID)
	if planType := strings.TrimSpace(filter.Type); planType != "" {
		query = query.Where("type = ?", planType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, "name", "description")
		query = query.Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
	}

	return findPage[models.CommissionPlan](query, filter.Page, filter.PageSize, "is_default desc, id desc")
}

// Delete 软删除方案
func (r *GormCommissionPlanRepository) Delete(tenantID, id uint) (int64, error) {
	result := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.CommissionPlan{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// FindDefault 获取租户默认方案
func (r *GormCommissionPlanRepository) FindDefault(tenantID uint, activeOnly bool) (*models.CommissionPlan, error) {
	query := r.db.Where("tenant_id = ? AND is_default = ?", tenantID, true)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var plan models.CommissionPlan
	if err := query.Order("id desc").First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// ClearDefault 取消租户当前默认方案
func (r *GormCommissionPlanRepository) ClearDefault(tenantID uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.CommissionPlan{}).
		Where("tenant_id = ? AND is_default = ?", tenantID, true).
		Updates(map[string]interface{}{
			"is_default": false,
			"updated_at": at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkDefault 将启用中的方案设为默认
func (r *GormCommissionPlanRepository) MarkDefault(tenantID, id uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.CommissionPlan{}).
		Where("tenant_id = ? AND id = ? AND is_active = ?", tenantID, id, true).
		Updates(map[string]interface{}{
			"is_default": true,
			"updated_at": at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
