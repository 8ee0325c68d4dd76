package repository

import (
	"errors"

	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// EmployeeRepository 员工数据访问接口
type EmployeeRepository interface {
	Create(employee *models.Employee) error
	GetByID(tenantID, id uint) (*models.Employee, error)
	ListActive(tenantID uint) ([]models.Employee, error)
}

// GormEmployeeRepository GORM 员工仓储
type GormEmployeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository 创建员工仓储
func NewEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

// Create 创建员工
func (r *GormEmployeeRepository) Create(employee *models.Employee) error {
	return r.db.Create(employee).Error
}

// GetByID 获取员工
func (r *GormEmployeeRepository) GetByID(tenantID, id uint) (*models.Employee, error) {
	if id == 0 {
		return nil, nil
	}
	var employee models.Employee
	if err := r.db.Where("tenant_id = ?", tenantID).First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

// ListActive 租户下在职员工
func (r *GormEmployeeRepository) ListActive(tenantID uint) ([]models.Employee, error) {
	var employees []models.Employee
	if err := r.db.Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("id asc").
		Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}
