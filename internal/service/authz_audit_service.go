package service

import (
	"strings"
	"time"

	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"
)

const (
	AuthzAuditActionRoleCreate   = "role_create"
	AuthzAuditActionRoleDelete   = "role_delete"
	AuthzAuditActionPolicyGrant  = "policy_grant"
	AuthzAuditActionPolicyRevoke = "policy_revoke"
	AuthzAuditActionStaffRoles   = "staff_roles_set"
)

// AuthzAuditRecordInput 权限审计记录输入
type AuthzAuditRecordInput struct {
	TenantID      uint
	OperatorID    uint
	TargetStaffID *uint
	Action        string
	Role          string
	Object        string
	Method        string
	RequestID     string
	Detail        models.JSON
}

// AuthzAuditService 权限审计服务
type AuthzAuditService struct {
	repo repository.AuthzAuditLogRepository
}

// NewAuthzAuditService 创建权限审计服务
func NewAuthzAuditService(repo repository.AuthzAuditLogRepository) *AuthzAuditService {
	return &AuthzAuditService{repo: repo}
}

// Record 记录权限变更，写入失败只记日志不影响主流程
func (s *AuthzAuditService) Record(input AuthzAuditRecordInput) {
	if s == nil || s.repo == nil {
		return
	}
	action := strings.TrimSpace(input.Action)
	if input.OperatorID == 0 || action == "" {
		return
	}

	item := &models.AuthzAuditLog{
		TenantID:      input.TenantID,
		OperatorID:    input.OperatorID,
		TargetStaffID: input.TargetStaffID,
		Action:        action,
		Role:          strings.TrimSpace(input.Role),
		Object:        strings.TrimSpace(input.Object),
		Method:        strings.ToUpper(strings.TrimSpace(input.Method)),
		RequestID:     strings.TrimSpace(input.RequestID),
		DetailJSON:    input.Detail,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(item); err != nil {
		logger.Warnw("authz_audit_record_failed",
			"tenant_id", input.TenantID,
			"operator_id", input.OperatorID,
			"action", action,
			"error", err,
		)
	}
}

// List 查询租户内的权限审计日志
func (s *AuthzAuditService) List(filter repository.AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuthzAuditLog{}, 0, nil
	}
	return s.repo.List(filter)
}
