package admin

import (
	"strings"

	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
)

type journalEntryPayload struct {
	JournalEntryID string `json:"journal_entry_id" binding:"required"`
}

// ListBonuses 奖金记录列表
func (h *Handler) ListBonuses(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	employeeID, ok := parseUintQuery(c, "employee_id")
	if !ok {
		return
	}
	goalID, ok := parseUintQuery(c, "goal_id")
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
	items, total, err := h.BonusService.List(repository.BonusRecordListFilter{
		Page:        page,
		PageSize:    pageSize,
		TenantID:    tenantID,
		EmployeeID:  employeeID,
		Type:        strings.TrimSpace(c.Query("type")),
		Status:      strings.TrimSpace(c.Query("status")),
		GoalID:      goalID,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// GetBonus 奖金详情
func (h *Handler) GetBonus(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bonus, err := h.BonusService.Get(tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, bonus)
}

// CreateBonus 创建人工奖金
func (h *Handler) CreateBonus(c *gin.Context) {
	tenantID, operatorID, ok := scope(c)
	if !ok {
		return
	}
	var req service.ManualBonusInput
	if !bindJSON(c, &req) {
		return
	}
	bonus, err := h.BonusService.CreateManualBonus(tenantID, operatorID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, bonus)
}

// UpdateBonus 更新待审核的人工奖金
func (h *Handler) UpdateBonus(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateManualBonusInput
	if !bindJSON(c, &req) {
		return
	}
	bonus, err := h.BonusService.UpdateManualBonus(tenantID, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, bonus)
}

// DeleteBonus 删除待审核的人工奖金
func (h *Handler) DeleteBonus(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.BonusService.Delete(tenantID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// ApproveBonus 审核通过
func (h *Handler) ApproveBonus(c *gin.Context) {
	tenantID, operatorID, ok := scope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bonus, err := h.BonusService.Approve(tenantID, id, operatorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, bonus)
}

// RejectBonus 驳回待审核奖金
func (h *Handler) RejectBonus(c *gin.Context) {
	h.closeBonus(c, h.BonusService.Reject)
}

// CancelBonus 取消待审核或已审核奖金
func (h *Handler) CancelBonus(c *gin.Context) {
	h.closeBonus(c, h.BonusService.Cancel)
}

func (h *Handler) closeBonus(c *gin.Context, fn func(tenantID, id, actorID uint, reason string) (*models.BonusRecord, error)) {
	tenantID, operatorID, ok := scope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reasonPayload
	if !bindJSON(c, &req) {
		return
	}
	bonus, err := fn(tenantID, id, operatorID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, bonus)
}

// LinkBonusJournalEntry 关联记账凭证
func (h *Handler) LinkBonusJournalEntry(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req journalEntryPayload
	if !bindJSON(c, &req) {
		return
	}
	bonus, err := h.BonusService.LinkJournalEntry(tenantID, id, req.JournalEntryID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, bonus)
}

// BulkApproveBonuses 批量审核
func (h *Handler) BulkApproveBonuses(c *gin.Context) {
	tenantID, operatorID, ok := scope(c)
	if !ok {
		return
	}
	var req idsPayload
	if !bindJSON(c, &req) {
		return
	}
	response.Success(c, h.BonusService.BulkApprove(tenantID, req.IDs, operatorID))
}

// AwardGoalBonus 为已达成的进度发放目标奖金
func (h *Handler) AwardGoalBonus(c *gin.Context) {
	tenantID, operatorID, ok := scope(c)
	if !ok {
		return
	}
	progressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bonus, err := h.BonusService.AwardGoalBonus(tenantID, progressID, operatorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, bonus)
}

// ListPayrollBonuses 发薪周期内已审核的奖金
func (h *Handler) ListPayrollBonuses(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	employeeID, from, to, ok := parsePayrollWindow(c)
	if !ok {
		return
	}
	items, err := h.BonusService.ApprovedSince(tenantID, employeeID, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, items)
}

// MarkBonusesPaid 标记已发放
func (h *Handler) MarkBonusesPaid(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	var req markPaidPayload
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.BonusService.MarkPaid(tenantID, req.IDs, req.PayrollRunID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}
