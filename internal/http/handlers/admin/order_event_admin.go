package admin

import (
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/queue"

	"github.com/gin-gonic/gin"
)

// PostOrderCompleted 同步处理订单完成事件，供后台补录使用
func (h *Handler) PostOrderCompleted(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	var req queue.OrderEventPayload
	if !bindJSON(c, &req) {
		return
	}
	req.TenantID = tenantID
	result, err := h.OrderEventService.HandleOrderCompleted(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_order_completed_replayed",
		"order_id", req.OrderID,
		"sales_person_id", result.SalesPersonID,
	)
	response.Success(c, result)
}

// PostOrderCancelled 记录订单取消事件
func (h *Handler) PostOrderCancelled(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	var req queue.OrderCancelledPayload
	if !bindJSON(c, &req) {
		return
	}
	req.TenantID = tenantID
	if err := h.OrderEventService.HandleOrderCancelled(req); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
