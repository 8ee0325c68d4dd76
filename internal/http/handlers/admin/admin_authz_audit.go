package admin

import (
	"strings"

	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuthzAuditLogs 当前租户的权限审计日志
func (h *Handler) ListAuthzAuditLogs(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	operatorID, ok := parseUintQuery(c, "operator_id")
	if !ok {
		return
	}
	targetStaffID, ok := parseUintQuery(c, "target_staff_id")
	if !ok {
		return
	}
	createdFrom, ok := parseTimeQuery(c, "created_from")
	if !ok {
		return
	}
	createdTo, ok := parseTimeQuery(c, "created_to")
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)

	items, total, err := h.AuthzAuditService.List(repository.AuthzAuditLogListFilter{
		Page:          page,
		PageSize:      pageSize,
		TenantID:      tenantID,
		OperatorID:    operatorID,
		TargetStaffID: targetStaffID,
		Action:        strings.TrimSpace(c.Query("action")),
		Role:          strings.TrimSpace(c.Query("role")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "load audit logs failed", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}
