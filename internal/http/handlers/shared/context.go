package shared

import (
	"strings"

	"github.com/tienda-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 上下文键，由鉴权中间件写入
const (
	RequestIDKey  = "request_id"
	OperatorIDKey = "operator_id"
	TenantIDKey   = "tenant_id"
	IsOwnerKey    = "is_owner"
)

func contextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v >= 0 {
			return uint(v), true
		}
	case float64:
		if v >= 0 {
			return uint(v), true
		}
	}
	return 0, false
}

// GetContextUint 从上下文读取 uint 值，缺失时直接返回未授权响应。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, ok := contextUint(c, key)
	if !ok {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return 0, false
	}
	return value, true
}

// OperatorID 当前操作人，未登录时为 0
func OperatorID(c *gin.Context) uint {
	value, _ := contextUint(c, OperatorIDKey)
	return value
}

// TenantID 当前租户，未登录时为 0
func TenantID(c *gin.Context) uint {
	value, _ := contextUint(c, TenantIDKey)
	return value
}

// IsOwner 当前操作人是否为租户所有者
func IsOwner(c *gin.Context) bool {
	value, exists := c.Get(IsOwnerKey)
	if !exists {
		return false
	}
	flag, ok := value.(bool)
	return ok && flag
}

// RequestID 当前请求编号
func RequestID(c *gin.Context) string {
	value, exists := c.Get(RequestIDKey)
	if !exists {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return strings.TrimSpace(requestID)
	}
	return ""
}
