package repository

import (
	"errors"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口（订单中心的只读切片 + 提成幂等标记）
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(tenantID, id uint) (*models.Order, error)
	ClaimCommission(tenantID, id uint, at time.Time) (bool, error)
	ListCompletedBySalesPerson(tenantID, employeeID uint, from, to time.Time) ([]models.Order, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Omit("Items").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

// GetByID 根据租户与 ID 获取订单（含订单项）
func (r *GormOrderRepository) GetByID(tenantID, id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Items").Where("tenant_id = ?", tenantID).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ClaimCommission 原子地抢占提成计算标记，返回 false 表示已被计算过
func (r *GormOrderRepository) ClaimCommission(tenantID, id uint, at time.Time) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND tenant_id = ? AND commission_calculated = ?", id, tenantID, false).
		Updates(map[string]interface{}{
			"commission_calculated":    true,
			"commission_calculated_at": at,
			"updated_at":               at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListCompletedBySalesPerson 查询业绩归属某员工、在 [from, to) 内完成的订单
func (r *GormOrderRepository) ListCompletedBySalesPerson(tenantID, employeeID uint, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("tenant_id = ?", tenantID).
		Where("status IN ?", []string{constants.OrderStatusCompleted, constants.OrderStatusPaid}).
		Where(salesPersonExpr+" = ?", employeeID).
		Where("COALESCE(completed_at, created_at) >= ? AND COALESCE(completed_at, created_at) < ?", from, to).
		Order("COALESCE(completed_at, created_at) asc, id asc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
