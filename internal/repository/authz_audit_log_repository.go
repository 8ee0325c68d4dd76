package repository

import (
	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// AuthzAuditLogRepository 权限审计日志数据访问接口
type AuthzAuditLogRepository interface {
	Create(log *models.AuthzAuditLog) error
	List(filter AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error)
}

// GormAuthzAuditLogRepository GORM 实现
type GormAuthzAuditLogRepository struct {
	db *gorm.DB
}

// NewAuthzAuditLogRepository 创建权限审计日志仓库
func NewAuthzAuditLogRepository(db *gorm.DB) *GormAuthzAuditLogRepository {
	return &GormAuthzAuditLogRepository{db: db}
}

// Create 追加审计日志，日志只写不改
func (r *GormAuthzAuditLogRepository) Create(log *models.AuthzAuditLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// List 按租户查询审计日志，最新在前
func (r *GormAuthzAuditLogRepository) List(filter AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	query := r.db.Model(&models.AuthzAuditLog{}).Where("tenant_id = ?", filter.TenantID)
	if filter.OperatorID != 0 {
		query = query.Where("operator_id = ?", filter.OperatorID)
	}
	if filter.TargetStaffID != 0 {
		query = query.Where("target_staff_id = ?", filter.TargetStaffID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	query = applyCreatedRange(query, filter.CreatedFrom, filter.CreatedTo)

	return findPage[models.AuthzAuditLog](query, filter.Page, filter.PageSize, "id DESC")
}
