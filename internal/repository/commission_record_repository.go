package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// CommissionRecordRepository 提成记录数据访问接口
type CommissionRecordRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CommissionRecordRepository

	Create(record *models.CommissionRecord) error
	GetByID(tenantID, id uint) (*models.CommissionRecord, error)
	GetByOrder(tenantID, orderID uint) (*models.CommissionRecord, error)
	List(filter CommissionRecordListFilter) ([]models.CommissionRecord, int64, error)
	Transition(tenantID, id uint, fromStatus string, updates map[string]interface{}) (int64, error)
	ListApprovedUnpaid(tenantID, employeeID uint, from, to time.Time) ([]models.CommissionRecord, error)
	MarkPaid(tenantID uint, ids []uint, payrollRunID string, paidAt time.Time) (int64, error)
}

// GormCommissionRecordRepository GORM 提成记录仓储
type GormCommissionRecordRepository struct {
	db *gorm.DB
}

// NewCommissionRecordRepository 创建提成记录仓储
func NewCommissionRecordRepository(db *gorm.DB) *GormCommissionRecordRepository {
	return &GormCommissionRecordRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRecordRepository) WithTx(tx *gorm.DB) CommissionRecordRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRecordRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCommissionRecordRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建提成记录
func (r *GormCommissionRecordRepository) Create(record *models.CommissionRecord) error {
	return r.db.Create(record).Error
}

// GetByID 获取提成记录
func (r *GormCommissionRecordRepository) GetByID(tenantID, id uint) (*models.CommissionRecord, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.CommissionRecord
	if err := r.db.Where("tenant_id = ?", tenantID).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByOrder 按订单获取提成记录
func (r *GormCommissionRecordRepository) GetByOrder(tenantID, orderID uint) (*models.CommissionRecord, error) {
	if orderID == 0 {
		return nil, nil
	}
	var record models.CommissionRecord
	if err := r.db.Where("tenant_id = ? AND order_id = ?", tenantID, orderID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// List 查询提成记录列表
func (r *GormCommissionRecordRepository) List(filter CommissionRecordListFilter) ([]models.CommissionRecord, int64, error) {
	query := r.db.Model(&models.CommissionRecord{}).Where("tenant_id = ?", filter.TenantID)
	if filter.EmployeeID != 0 {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if run := strings.TrimSpace(filter.PayrollRun); run != "" {
		query = query.Where("payroll_run_id = ?", run)
	}
	query = applyCreatedRange(query, filter.CreatedFrom, filter.CreatedTo)

	return findPage[models.CommissionRecord](query, filter.Page, filter.PageSize, "id desc")
}

// Transition 条件状态流转：仅当当前状态为 fromStatus 时更新
func (r *GormCommissionRecordRepository) Transition(tenantID, id uint, fromStatus string, updates map[string]interface{}) (int64, error) {
	result := r.db.Model(&models.CommissionRecord{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenantID, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListApprovedUnpaid 员工在 [from, to) 内审核通过且未发放的提成
func (r *GormCommissionRecordRepository) ListApprovedUnpaid(tenantID, employeeID uint, from, to time.Time) ([]models.CommissionRecord, error) {
	query := r.db.Where("tenant_id = ? AND status = ?", tenantID, constants.CommissionStatusApproved).
		Where("approved_at >= ? AND approved_at < ?", from, to)
	if employeeID != 0 {
		query = query.Where("employee_id = ?", employeeID)
	}
	var records []models.CommissionRecord
	if err := query.Order("approved_at asc, id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// MarkPaid 将已审核的提成标记为已发放，返回实际更新条数
func (r *GormCommissionRecordRepository) MarkPaid(tenantID uint, ids []uint, payrollRunID string, paidAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.CommissionRecord{}).
		Where("tenant_id = ? AND id IN ? AND status = ?", tenantID, ids, constants.CommissionStatusApproved).
		Updates(map[string]interface{}{
			"status":         constants.CommissionStatusPaid,
			"payroll_run_id": payrollRunID,
			"paid_at":        paidAt,
			"updated_at":     paidAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
