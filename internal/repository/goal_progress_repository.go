package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoalProgressRepository 目标进度数据访问接口
type GoalProgressRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) GoalProgressRepository

	Create(progress *models.GoalProgress) error
	GetByID(tenantID, id uint) (*models.GoalProgress, error)
	FindForPeriod(tenantID, goalID, employeeID uint, periodStart time.Time) (*models.GoalProgress, error)
	List(filter GoalProgressListFilter) ([]models.GoalProgress, int64, error)
	ListOpenForEmployeeAt(tenantID, employeeID uint, at time.Time) ([]models.GoalProgress, error)
	ListOpenByGoal(tenantID, goalID uint) ([]models.GoalProgress, error)

	InsertContribution(entry *models.GoalProgressContribution) error
	ClearContributions(progressID uint) error
	AddValue(id uint, delta decimal.Decimal) (int64, error)
	SaveComputed(id, version uint, updates map[string]interface{}) (int64, error)
	ResetValue(id uint, at time.Time) (int64, error)
	FailExpired(tenantID uint, periodEnd, at time.Time) (int64, error)
	TransitionStatus(tenantID, id uint, fromStatuses []string, updates map[string]interface{}) (int64, error)
}

// GormGoalProgressRepository GORM 目标进度仓储
type GormGoalProgressRepository struct {
	db *gorm.DB
}

// NewGoalProgressRepository 创建目标进度仓储
func NewGoalProgressRepository(db *gorm.DB) *GormGoalProgressRepository {
	return &GormGoalProgressRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGoalProgressRepository) WithTx(tx *gorm.DB) GoalProgressRepository {
	if tx == nil {
		return r
	}
	return &GormGoalProgressRepository{db: tx}
}

// Transaction 执行事务
func (r *GormGoalProgressRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建进度
func (r *GormGoalProgressRepository) Create(progress *models.GoalProgress) error {
	return r.db.Create(progress).Error
}

// GetByID 获取进度
func (r *GormGoalProgressRepository) GetByID(tenantID, id uint) (*models.GoalProgress, error) {
	if id == 0 {
		return nil, nil
	}
	var progress models.GoalProgress
	if err := r.db.Where("tenant_id = ?", tenantID).First(&progress, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &progress, nil
}

// FindForPeriod 按 目标 × 员工 × 周期开始 查找进度
func (r *GormGoalProgressRepository) FindForPeriod(tenantID, goalID, employeeID uint, periodStart time.Time) (*models.GoalProgress, error) {
	var progress models.GoalProgress
	err := r.db.Where("tenant_id = ? AND goal_id = ? AND employee_id = ? AND period_start = ?", tenantID, goalID, employeeID, periodStart).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &progress, nil
}

// List 查询进度列表
func (r *GormGoalProgressRepository) List(filter GoalProgressListFilter) ([]models.GoalProgress, int64, error) {
	query := r.db.Model(&models.GoalProgress{}).Where("tenant_id = ?", filter.TenantID)
	if filter.GoalID != 0 {
		query = query.Where("goal_id = ?", filter.GoalID)
	}
	if filter.EmployeeID != 0 {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.ActiveAt != nil {
		query = query.Where("period_start <= ? AND period_end > ?", *filter.ActiveAt, *filter.ActiveAt)
	}

	return findPage[models.GoalProgress](query, filter.Page, filter.PageSize, "period_start desc, id desc")
}

// ListOpenForEmployeeAt 员工在 at 时刻所在周期内、仍在进行中的进度
func (r *GormGoalProgressRepository) ListOpenForEmployeeAt(tenantID, employeeID uint, at time.Time) ([]models.GoalProgress, error) {
	var rows []models.GoalProgress
	err := r.db.Where("tenant_id = ? AND employee_id = ? AND status = ?", tenantID, employeeID, constants.GoalProgressStatusInProgress).
		Where("period_start <= ? AND period_end > ?", at, at).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListOpenByGoal 目标下所有进行中的进度
func (r *GormGoalProgressRepository) ListOpenByGoal(tenantID, goalID uint) ([]models.GoalProgress, error) {
	var rows []models.GoalProgress
	err := r.db.Where("tenant_id = ? AND goal_id = ? AND status = ?", tenantID, goalID, constants.GoalProgressStatusInProgress).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertContribution 写入订单贡献流水，同一进度同一订单重复写入会触发唯一约束
func (r *GormGoalProgressRepository) InsertContribution(entry *models.GoalProgressContribution) error {
	return r.db.Create(entry).Error
}

// ClearContributions 清空进度的贡献流水
func (r *GormGoalProgressRepository) ClearContributions(progressID uint) error {
	return r.db.Where("goal_progress_id = ?", progressID).Delete(&models.GoalProgressContribution{}).Error
}

// AddValue 原子累加当前值并递增版本号
func (r *GormGoalProgressRepository) AddValue(id uint, delta decimal.Decimal) (int64, error) {
	result := r.db.Model(&models.GoalProgress{}).
		Where("id = ? AND status = ?", id, constants.GoalProgressStatusInProgress).
		Updates(map[string]interface{}{
			"current_value": gorm.Expr("current_value + ?", delta.Round(2).StringFixed(2)),
			"version":       gorm.Expr("version + 1"),
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SaveComputed 按版本号条件写入派生字段
func (r *GormGoalProgressRepository) SaveComputed(id, version uint, updates map[string]interface{}) (int64, error) {
	result := r.db.Model(&models.GoalProgress{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ResetValue 重置进行中的进度（重算前调用）
func (r *GormGoalProgressRepository) ResetValue(id uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.GoalProgress{}).
		Where("id = ? AND status = ?", id, constants.GoalProgressStatusInProgress).
		Updates(map[string]interface{}{
			"current_value":       models.NewMoneyFromInt(0),
			"percentage_complete": models.NewMoneyFromInt(0),
			"contributions":       models.ContributionLog{},
			"version":             gorm.Expr("version + 1"),
			"updated_at":          at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// FailExpired 将周期已结束（PeriodEnd <= periodEnd）且仍在进行中的进度置为失败
func (r *GormGoalProgressRepository) FailExpired(tenantID uint, periodEnd, at time.Time) (int64, error) {
	result := r.db.Model(&models.GoalProgress{}).
		Where("tenant_id = ? AND status = ? AND period_end <= ?", tenantID, constants.GoalProgressStatusInProgress, periodEnd).
		Updates(map[string]interface{}{
			"status":     constants.GoalProgressStatusFailed,
			"closed_at":  at,
			"version":    gorm.Expr("version + 1"),
			"updated_at": at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// TransitionStatus 条件状态流转：仅当当前状态属于 fromStatuses 时更新
func (r *GormGoalProgressRepository) TransitionStatus(tenantID, id uint, fromStatuses []string, updates map[string]interface{}) (int64, error) {
	if _, ok := updates["version"]; !ok {
		updates["version"] = gorm.Expr("version + 1")
	}
	result := r.db.Model(&models.GoalProgress{}).
		Where("id = ? AND tenant_id = ? AND status IN ?", id, tenantID, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
