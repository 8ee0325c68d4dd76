package admin

import (
	"strings"

	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/repository"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListCommissionPlans 提成方案列表
func (h *Handler) ListCommissionPlans(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	isActive, ok := parseBoolQuery(c, "is_active")
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	plans, total, err := h.CommissionConfigService.ListPlans(repository.CommissionPlanListFilter{
		Page:     page,
		PageSize: pageSize,
		TenantID: tenantID,
		Type:     strings.TrimSpace(c.Query("type")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		IsActive: isActive,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, plans, response.BuildPagination(page, pageSize, total))
}

// GetCommissionPlan 提成方案详情
func (h *Handler) GetCommissionPlan(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	plan, err := h.CommissionConfigService.GetPlan(tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, plan)
}

// CreateCommissionPlan 创建提成方案
func (h *Handler) CreateCommissionPlan(c *gin.Context) {
	tenantID, operatorID, ok := scope(c)
	if !ok {
		return
	}
	var req service.CommissionPlanInput
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.CommissionConfigService.CreatePlan(tenantID, operatorID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, plan)
}

// UpdateCommissionPlan 更新提成方案
func (h *Handler) UpdateCommissionPlan(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.CommissionPlanInput
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.CommissionConfigService.UpdatePlan(tenantID, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, plan)
}

// DeleteCommissionPlan 删除提成方案
func (h *Handler) DeleteCommissionPlan(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.CommissionConfigService.DeletePlan(tenantID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// SetDefaultCommissionPlan 设为租户默认方案
func (h *Handler) SetDefaultCommissionPlan(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	plan, err := h.CommissionConfigService.SetDefaultPlan(tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, plan)
}

// GetEmployeeCommissionConfig 员工当前配置与历史
func (h *Handler) GetEmployeeCommissionConfig(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	employeeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	current, err := h.CommissionConfigService.GetCurrentConfig(tenantID, employeeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	history, err := h.CommissionConfigService.ListConfigHistory(tenantID, employeeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"current": current,
		"history": history,
	})
}

// AssignEmployeeCommissionConfig 为员工分配方案，结束之前的配置
func (h *Handler) AssignEmployeeCommissionConfig(c *gin.Context) {
	tenantID, operatorID, ok := scope(c)
	if !ok {
		return
	}
	employeeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.AssignCommissionConfigInput
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.CommissionConfigService.AssignConfig(tenantID, employeeID, operatorID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, cfg)
}

// UpdateEmployeeCommissionConfig 更新覆盖项
func (h *Handler) UpdateEmployeeCommissionConfig(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.CommissionOverrideInput
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.CommissionConfigService.UpdateConfig(tenantID, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, cfg)
}

// RemoveEmployeeCommissionConfig 结束员工当前配置
func (h *Handler) RemoveEmployeeCommissionConfig(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	employeeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.CommissionConfigService.RemoveConfig(tenantID, employeeID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
