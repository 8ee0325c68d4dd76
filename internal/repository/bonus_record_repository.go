package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// BonusRecordRepository 奖金记录数据访问接口
type BonusRecordRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) BonusRecordRepository

	Create(bonus *models.BonusRecord) error
	GetByID(tenantID, id uint) (*models.BonusRecord, error)
	FindActiveByProgress(tenantID, progressID uint) (*models.BonusRecord, error)
	List(filter BonusRecordListFilter) ([]models.BonusRecord, int64, error)
	Transition(tenantID, id uint, fromStatuses []string, updates map[string]interface{}) (int64, error)
	DeletePendingManual(tenantID, id uint) (int64, error)
	ListApprovedUnpaid(tenantID, employeeID uint, from, to time.Time) ([]models.BonusRecord, error)
}

// GormBonusRecordRepository GORM 奖金记录仓储
type GormBonusRecordRepository struct {
	db *gorm.DB
}

// NewBonusRecordRepository 创建奖金记录仓储
func NewBonusRecordRepository(db *gorm.DB) *GormBonusRecordRepository {
	return &GormBonusRecordRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBonusRecordRepository) WithTx(tx *gorm.DB) BonusRecordRepository {
	if tx == nil {
		return r
	}
	return &GormBonusRecordRepository{db: tx}
}

// Transaction 执行事务
func (r *GormBonusRecordRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建奖金记录
func (r *GormBonusRecordRepository) Create(bonus *models.BonusRecord) error {
	return r.db.Create(bonus).Error
}

// GetByID 获取奖金记录
func (r *GormBonusRecordRepository) GetByID(tenantID, id uint) (*models.BonusRecord, error) {
	if id == 0 {
		return nil, nil
	}
	var bonus models.BonusRecord
	if err := r.db.Where("tenant_id = ?", tenantID).First(&bonus, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bonus, nil
}

// FindActiveByProgress 查找引用该进度且未驳回/未取消的目标奖金
func (r *GormBonusRecordRepository) FindActiveByProgress(tenantID, progressID uint) (*models.BonusRecord, error) {
	if progressID == 0 {
		return nil, nil
	}
	var bonus models.BonusRecord
	err := r.db.Where("tenant_id = ? AND source_goal_progress_id = ?", tenantID, progressID).
		Where("status NOT IN ?", []string{constants.BonusStatusRejected, constants.BonusStatusCancelled}).
		Order("id desc").
		First(&bonus).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bonus, nil
}

// List 查询奖金列表
func (r *GormBonusRecordRepository) List(filter BonusRecordListFilter) ([]models.BonusRecord, int64, error) {
	query := r.db.Model(&models.BonusRecord{}).Where("tenant_id = ?", filter.TenantID)
	if filter.EmployeeID != 0 {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if bonusType := strings.TrimSpace(filter.Type); bonusType != "" {
		query = query.Where("type = ?", bonusType)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.GoalID != 0 {
		query = query.Where("source_goal_id = ?", filter.GoalID)
	}
	query = applyCreatedRange(query, filter.CreatedFrom, filter.CreatedTo)

	return findPage[models.BonusRecord](query, filter.Page, filter.PageSize, "id desc")
}

// Transition 条件状态流转：仅当当前状态属于 fromStatuses 时更新
func (r *GormBonusRecordRepository) Transition(tenantID, id uint, fromStatuses []string, updates map[string]interface{}) (int64, error) {
	result := r.db.Model(&models.BonusRecord{}).
		Where("id = ? AND tenant_id = ? AND status IN ?", id, tenantID, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeletePendingManual 删除待审核的人工奖金
func (r *GormBonusRecordRepository) DeletePendingManual(tenantID, id uint) (int64, error) {
	result := r.db.
		Where("tenant_id = ? AND id = ? AND status = ? AND source_goal_progress_id IS NULL", tenantID, id, constants.BonusStatusPending).
		Delete(&models.BonusRecord{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListApprovedUnpaid 员工在 [from, to) 内审核通过且未发放的奖金
func (r *GormBonusRecordRepository) ListApprovedUnpaid(tenantID, employeeID uint, from, to time.Time) ([]models.BonusRecord, error) {
	query := r.db.Where("tenant_id = ? AND status = ?", tenantID, constants.BonusStatusApproved).
		Where("approved_at >= ? AND approved_at < ?", from, to)
	if employeeID != 0 {
		query = query.Where("employee_id = ?", employeeID)
	}
	var rows []models.BonusRecord
	if err := query.Order("approved_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
