package repository

import (
	"errors"
	"time"

	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// EmployeeCommissionConfigRepository 员工提成配置数据访问接口
type EmployeeCommissionConfigRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) EmployeeCommissionConfigRepository

	Create(config *models.EmployeeCommissionConfig) error
	Update(config *models.EmployeeCommissionConfig) error
	GetByID(tenantID, id uint) (*models.EmployeeCommissionConfig, error)
	GetCurrent(tenantID, employeeID uint, asOf time.Time) (*models.EmployeeCommissionConfig, error)
	CloseOpen(tenantID, employeeID uint, at time.Time) (int64, error)
	ListByEmployee(tenantID, employeeID uint) ([]models.EmployeeCommissionConfig, error)
	CountCurrentByPlan(tenantID, planID uint, asOf time.Time) (int64, error)
}

// GormEmployeeCommissionConfigRepository GORM 员工提成配置仓储
type GormEmployeeCommissionConfigRepository struct {
	db *gorm.DB
}

// NewEmployeeCommissionConfigRepository 创建员工提成配置仓储
func NewEmployeeCommissionConfigRepository(db *gorm.DB) *GormEmployeeCommissionConfigRepository {
	return &GormEmployeeCommissionConfigRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEmployeeCommissionConfigRepository) WithTx(tx *gorm.DB) EmployeeCommissionConfigRepository {
	if tx == nil {
		return r
	}
	return &GormEmployeeCommissionConfigRepository{db: tx}
}

// Transaction 执行事务
func (r *GormEmployeeCommissionConfigRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建配置
func (r *GormEmployeeCommissionConfigRepository) Create(config *models.EmployeeCommissionConfig) error {
	return r.db.Omit("Plan").Create(config).Error
}

// Update 保存配置
func (r *GormEmployeeCommissionConfigRepository) Update(config *models.EmployeeCommissionConfig) error {
	return r.db.Omit("Plan").Save(config).Error
}

// GetByID 按ID获取配置（含方案）
func (r *GormEmployeeCommissionConfigRepository) GetByID(tenantID, id uint) (*models.EmployeeCommissionConfig, error) {
	if id == 0 {
		return nil, nil
	}
	var config models.EmployeeCommissionConfig
	if err := r.db.Preload("Plan").Where("tenant_id = ?", tenantID).First(&config, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// GetCurrent 获取 asOf 时刻生效的配置：EffectiveDate <= asOf < EndDate
func (r *GormEmployeeCommissionConfigRepository) GetCurrent(tenantID, employeeID uint, asOf time.Time) (*models.EmployeeCommissionConfig, error) {
	if employeeID == 0 {
		return nil, nil
	}
	var config models.EmployeeCommissionConfig
	err := r.db.Preload("Plan").
		Where("tenant_id = ? AND employee_id = ?", tenantID, employeeID).
		Where("effective_date <= ?", asOf).
		Where("end_date IS NULL OR end_date > ?", asOf).
		Order("effective_date desc, id desc").
		First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// CloseOpen 在 at 时刻关闭员工尚未结束的配置
func (r *GormEmployeeCommissionConfigRepository) CloseOpen(tenantID, employeeID uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.EmployeeCommissionConfig{}).
		Where("tenant_id = ? AND employee_id = ?", tenantID, employeeID).
		Where("end_date IS NULL OR end_date > ?", at).
		Updates(map[string]interface{}{
			"end_date":   at,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListByEmployee 员工配置历史（新的在前）
func (r *GormEmployeeCommissionConfigRepository) ListByEmployee(tenantID, employeeID uint) ([]models.EmployeeCommissionConfig, error) {
	var configs []models.EmployeeCommissionConfig
	if err := r.db.Preload("Plan").
		Where("tenant_id = ? AND employee_id = ?", tenantID, employeeID).
		Order("effective_date desc, id desc").
		Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// CountCurrentByPlan 统计引用方案且仍在生效（或尚未生效）的配置数量
func (r *GormEmployeeCommissionConfigRepository) CountCurrentByPlan(tenantID, planID uint, asOf time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&models.EmployeeCommissionConfig{}).
		Where("tenant_id = ? AND plan_id = ?", tenantID, planID).
		Where("end_date IS NULL OR end_date > ?", asOf).
		Count(&total).Error
	return total, err
}
