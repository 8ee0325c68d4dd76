package admin

import (
	"strings"
	"time"

	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/queue"
	"github.com/tienda-next/internal/repository"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
)

type closePeriodPayload struct {
	PeriodEnd *time.Time `json:"period_end"`
}

// ListGoals 销售目标列表
func (h *Handler) ListGoals(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	isActive, ok := parseBoolQuery(c, "is_active")
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	goals, total, err := h.GoalService.List(repository.SalesGoalListFilter{
		Page:       page,
		PageSize:   pageSize,
		TenantID:   tenantID,
		TargetType: strings.TrimSpace(c.Query("target_type")),
		PeriodType: strings.TrimSpace(c.Query("period_type")),
		Keyword:    strings.TrimSpace(c.Query("keyword")),
		IsActive:   isActive,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, goals, response.BuildPagination(page, pageSize, total))
}

// GetGoal 销售目标详情
func (h *Handler) GetGoal(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	goal, err := h.GoalService.Get(tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, goal)
}

// CreateGoal 创建销售目标（默认未启用）
func (h *Handler) CreateGoal(c *gin.Context) {
	tenantID, operatorID, ok := scope(c)
	if !ok {
		return
	}
	var req service.SalesGoalInput
	if !bindJSON(c, &req) {
		return
	}
	goal, err := h.GoalService.Create(tenantID, operatorID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, goal)
}

// UpdateGoal 更新销售目标
func (h *Handler) UpdateGoal(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.SalesGoalInput
	if !bindJSON(c, &req) {
		return
	}
	goal, err := h.GoalService.Update(tenantID, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, goal)
}

// DeleteGoal 删除未启用的目标
func (h *Handler) DeleteGoal(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.GoalService.Delete(tenantID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// ActivateGoal 启用目标并初始化当前周期进度
func (h *Handler) ActivateGoal(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	goal, created, err := h.GoalService.Activate(tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"goal": goal, "progress_created": created})
}

// DeactivateGoal 停用目标
func (h *Handler) DeactivateGoal(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	goal, err := h.GoalService.Deactivate(tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, goal)
}

// InitializeGoalProgress 为新入职员工补建当前周期进度
func (h *Handler) InitializeGoalProgress(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	created, err := h.GoalProgressService.InitializeProgress(tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"progress_created": created})
}

// RecalculateGoal 从订单重建进度；队列可用时异步执行
func (h *Handler) RecalculateGoal(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	payload := queue.GoalRecalculatePayload{TenantID: tenantID, GoalID: id}
	if h.QueueClient.Enabled() && c.Query("sync") != "true" {
		if _, err := h.GoalService.Get(tenantID, id); err != nil {
			respondServiceError(c, err)
			return
		}
		if err := h.QueueClient.EnqueueGoalRecalculate(payload); err != nil {
			respondServiceError(c, err)
			return
		}
		response.Success(c, gin.H{"queued": true})
		return
	}
	result, err := h.OrderEventService.RecalculateGoal(payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ListGoalProgress 目标下的员工进度
func (h *Handler) ListGoalProgress(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	items, total, err := h.GoalProgressService.ListByGoal(tenantID, id, c.Query("status"), page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// ListEmployeeGoalProgress 员工的全部目标进度
func (h *Handler) ListEmployeeGoalProgress(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	employeeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	items, total, err := h.GoalProgressService.ListByEmployee(tenantID, employeeID, c.Query("status"), page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// GetGoalProgress 进度详情（含最近贡献）
func (h *Handler) GetGoalProgress(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	progress, err := h.GoalProgressService.Get(tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, progress)
}

// CloseGoalPeriod 关闭到期周期，period_end 缺省为当前时间
func (h *Handler) CloseGoalPeriod(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	var req closePeriodPayload
	if !bindJSON(c, &req) {
		return
	}
	periodEnd := time.Now().UTC()
	if req.PeriodEnd != nil {
		periodEnd = req.PeriodEnd.UTC()
	}
	result, err := h.OrderEventService.ClosePeriod(queue.GoalClosePeriodPayload{TenantID: tenantID, PeriodEnd: periodEnd})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}
