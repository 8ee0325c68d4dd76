package admin

import (
	"strings"
	"time"

	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/repository"

	"github.com/gin-gonic/gin"
)

type idsPayload struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

type reasonPayload struct {
	Reason string `json:"reason"`
}

type markPaidPayload struct {
	IDs          []uint `json:"ids" binding:"required,min=1"`
	PayrollRunID string `json:"payroll_run_id"`
}

// CalculateOrderCommission 手动计算订单提成
func (h *Handler) CalculateOrderCommission(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	outcome, err := h.CommissionService.CalculateCommission(tenantID, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, outcome)
}

// ListCommissions 提成记录列表
func (h *Handler) ListCommissions(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	employeeID, ok := parseUintQuery(c, "employee_id")
	if !ok {
		return
	}
	orderID, ok := parseUintQuery(c, "order_id")
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
	records, total, err := h.CommissionService.List(repository.CommissionRecordListFilter{
		Page:        page,
		PageSize:    pageSize,
		TenantID:    tenantID,
		EmployeeID:  employeeID,
		OrderID:     orderID,
		Status:      strings.TrimSpace(c.Query("status")),
		PayrollRun:  strings.TrimSpace(c.Query("payroll_run_id")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, records, response.BuildPagination(page, pageSize, total))
}

// ApproveCommission 审核通过
func (h *Handler) ApproveCommission(c *gin.Context) {
	tenantID, operatorID, ok := scope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	record, err := h.CommissionService.Approve(tenantID, id, operatorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, record)
}

// RejectCommission 驳回
func (h *Handler) RejectCommission(c *gin.Context) {
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
	record, err := h.CommissionService.Reject(tenantID, id, operatorID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, record)
}

// BulkApproveCommissions 批量审核，逐条返回结果
func (h *Handler) BulkApproveCommissions(c *gin.Context) {
	tenantID, operatorID, ok := scope(c)
	if !ok {
		return
	}
	var req idsPayload
	if !bindJSON(c, &req) {
		return
	}
	response.Success(c, h.CommissionService.BulkApprove(tenantID, req.IDs, operatorID))
}

// ListPayrollCommissions 发薪周期内已审核的提成
func (h *Handler) ListPayrollCommissions(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	employeeID, from, to, ok := parsePayrollWindow(c)
	if !ok {
		return
	}
	records, err := h.CommissionService.ApprovedSince(tenantID, employeeID, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, records)
}

// MarkCommissionsPaid 标记已发放
func (h *Handler) MarkCommissionsPaid(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	var req markPaidPayload
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.CommissionService.MarkPaid(tenantID, req.IDs, req.PayrollRunID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// parsePayrollWindow 读取 employee_id 与 [from, to)，to 缺省为当前时间
func parsePayrollWindow(c *gin.Context) (uint, time.Time, time.Time, bool) {
	employeeID, ok := parseUintQuery(c, "employee_id")
	if !ok {
		return 0, time.Time{}, time.Time{}, false
	}
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return 0, time.Time{}, time.Time{}, false
	}
	if from == nil {
		respondError(c, response.CodeBadRequest, "from is required", nil)
		return 0, time.Time{}, time.Time{}, false
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return 0, time.Time{}, time.Time{}, false
	}
	end := time.Now().UTC()
	if to != nil {
		end = *to
	}
	return employeeID, *from, end, true
}
