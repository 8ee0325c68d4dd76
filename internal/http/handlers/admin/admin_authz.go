package admin

import (
	"errors"
	"net/url"
	"strings"

	"github.com/tienda-next/internal/authz"
	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
)

type authzRolePayload struct {
	Role string `json:"role" binding:"required"`
}

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type authzSetStaffRolesPayload struct {
	Roles []string `json:"roles"`
}

// GetAuthzMe 当前操作人的权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	tenantID, operatorID, ok := scope(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetStaffRoles(tenantID, operatorID)
	if err != nil {
		respondError(c, response.CodeInternal, "load roles failed", err)
		return
	}
	policies, err := h.AuthzService.GetStaffPolicies(tenantID, operatorID)
	if err != nil {
		respondError(c, response.CodeInternal, "load policies failed", err)
		return
	}
	response.Success(c, gin.H{
		"tenant_id":   tenantID,
		"operator_id": operatorID,
		"is_owner":    handlershared.IsOwner(c),
		"roles":       roles,
		"policies":    policies,
	})
}

// ListAuthzRoles 角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "load roles failed", err)
		return
	}
	response.Success(c, roles)
}

// CreateAuthzRole 创建角色
func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req authzRolePayload
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondError(c, response.CodeBadRequest, err.Error(), err)
		return
	}
	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		Action: service.AuthzAuditActionRoleCreate,
		Role:   role,
		Detail: models.JSON{"role": role},
	})
	response.Success(c, gin.H{"role": role})
}

// DeleteAuthzRole 删除角色，预置角色不可删除
func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "role is required", nil)
		return
	}
	if err := h.AuthzService.DeleteRole(role); err != nil {
		if errors.Is(err, authz.ErrImmutableRole) {
			respondError(c, response.CodeConflict, err.Error(), err)
			return
		}
		respondError(c, response.CodeBadRequest, err.Error(), err)
		return
	}
	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		Action: service.AuthzAuditActionRoleDelete,
		Role:   role,
		Detail: models.JSON{"role": role},
	})
	response.Success(c, nil)
}

// GetAuthzRolePolicies 角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "role is required", nil)
		return
	}
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, err.Error(), err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	h.changeAuthzPolicy(c, service.AuthzAuditActionPolicyGrant, h.AuthzService.GrantRolePolicy)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	h.changeAuthzPolicy(c, service.AuthzAuditActionPolicyRevoke, h.AuthzService.RevokeRolePolicy)
}

func (h *Handler) changeAuthzPolicy(c *gin.Context, action string, fn func(role, object, method string) error) {
	var req authzPolicyPayload
	if !bindJSON(c, &req) {
		return
	}
	if err := fn(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, err.Error(), err)
		return
	}
	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		Action: action,
		Role:   req.Role,
		Object: authz.NormalizeObject(req.Object),
		Method: req.Action,
		Detail: models.JSON{
			"role":   req.Role,
			"object": authz.NormalizeObject(req.Object),
			"method": authz.NormalizeAction(req.Action),
		},
	})
	response.Success(c, nil)
}

// GetAuthzStaffRoles 员工在当前租户的角色
func (h *Handler) GetAuthzStaffRoles(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	staffID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetStaffRoles(tenantID, staffID)
	if err != nil {
		respondError(c, response.CodeInternal, "load roles failed", err)
		return
	}
	response.Success(c, roles)
}

// SetAuthzStaffRoles 覆盖设置员工在当前租户的角色
func (h *Handler) SetAuthzStaffRoles(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	staffID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req authzSetStaffRolesPayload
	if !bindJSON(c, &req) {
		return
	}
	if err := h.AuthzService.SetStaffRoles(tenantID, staffID, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, err.Error(), err)
		return
	}
	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		TargetStaffID: &staffID,
		Action:        service.AuthzAuditActionStaffRoles,
		Detail: models.JSON{
			"target_staff_id": staffID,
			"roles":           req.Roles,
		},
	})
	response.Success(c, nil)
}

// recordAuthzAudit 补全租户、操作人与请求编号后写入审计
func (h *Handler) recordAuthzAudit(c *gin.Context, input service.AuthzAuditRecordInput) {
	if h == nil || h.AuthzAuditService == nil {
		return
	}
	input.TenantID = handlershared.TenantID(c)
	input.OperatorID = handlershared.OperatorID(c)
	input.RequestID = handlershared.RequestID(c)
	h.AuthzAuditService.Record(input)
	requestLog(c).Infow("admin_authz_changed",
		"operator_id", input.OperatorID,
		"action", input.Action,
		"role", input.Role,
		"object", input.Object,
	)
}

func decodeRoleParam(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}
