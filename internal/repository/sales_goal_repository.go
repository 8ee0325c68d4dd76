package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// SalesGoalRepository 销售目标数据访问接口
type SalesGoalRepository interface {
	Create(goal *models.SalesGoal) error
	Update(goal *models.SalesGoal) error
	GetByID(tenantID, id uint) (*models.SalesGoal, error)
	List(filter SalesGoalListFilter) ([]models.SalesGoal, int64, error)
	ListActive(tenantID uint) ([]models.SalesGoal, error)
	SetActive(tenantID, id uint, active bool, at time.Time) (int64, error)
	Delete(tenantID, id uint) (int64, error)
	WithTx(tx *gorm.DB) SalesGoalRepository
}

// GormSalesGoalRepository GORM 销售目标仓储
type GormSalesGoalRepository struct {
	db *gorm.DB
}

// NewSalesGoalRepository 创建销售目标仓储
func NewSalesGoalRepository(db *gorm.DB) *GormSalesGoalRepository {
	return &GormSalesGoalRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSalesGoalRepository) WithTx(tx *gorm.DB) SalesGoalRepository {
	if tx == nil {
		return r
	}
	return &GormSalesGoalRepository{db: tx}
}

// Create 创建目标
func (r *GormSalesGoalRepository) Create(goal *models.SalesGoal) error {
	return r.db.Create(goal).Error
}

// Update 保存目标
func (r *GormSalesGoalRepository) Update(goal *models.SalesGoal) error {
	return r.db.Save(goal).Error
}

// GetByID 获取目标
func (r *GormSalesGoalRepository) GetByID(tenantID, id uint) (*models.SalesGoal, error) {
	if id == 0 {
		return nil, nil
	}
	var goal models.SalesGoal
	if err := r.db.Where("tenant_id = ?", tenantID).First(&goal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &goal, nil
}

// List 查询目标列表
func (r *GormSalesGoalRepository) List(filter SalesGoalListFilter) ([]models.SalesGoal, int64, error) {
	query := r.db.Model(&models.SalesGoal{}).Where("tenant_id = ?", filter.TenantID)
	if targetType := strings.TrimSpace(filter.TargetType); targetType != "" {
		query = query.Where("target_type = ?", targetType)
	}
	if periodType := strings.TrimSpace(filter.PeriodType); periodType != "" {
		query = query.Where("period_type = ?", periodType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, "name", "description")
		query = query.Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
	}

	return findPage[models.SalesGoal](query, filter.Page, filter.PageSize, "id desc")
}

// ListActive 租户下启用中的目标
func (r *GormSalesGoalRepository) ListActive(tenantID uint) ([]models.SalesGoal, error) {
	var goals []models.SalesGoal
	if err := r.db.Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("id asc").
		Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

// SetActive 条件切换启用状态，状态未变化时返回 0
func (r *GormSalesGoalRepository) SetActive(tenantID, id uint, active bool, at time.Time) (int64, error) {
	updates := map[string]interface{}{
		"is_active":  active,
		"updated_at": at,
	}
	if active {
		updates["activated_at"] = at
	}
	result := r.db.Model(&models.SalesGoal{}).
		Where("id = ? AND tenant_id = ? AND is_active = ?", id, tenantID, !active).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Delete 软删除目标
func (r *GormSalesGoalRepository) Delete(tenantID, id uint) (int64, error) {
	result := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.SalesGoal{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
