package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

func getTenantID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, handlershared.TenantIDKey)
}

func getOperatorID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, handlershared.OperatorIDKey)
}

// scope 读取租户与操作人，任一缺失时已写入响应
func scope(c *gin.Context) (tenantID, operatorID uint, ok bool) {
	if tenantID, ok = getTenantID(c); !ok {
		return 0, 0, false
	}
	if operatorID, ok = getOperatorID(c); !ok {
		return 0, 0, false
	}
	return tenantID, operatorID, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}

func parseUintQuery(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid "+name, err)
		return 0, false
	}
	return uint(value), true
}

func parseBoolQuery(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid "+name, err)
		return nil, false
	}
	return &value, true
}

// parseTimeQuery 支持 RFC3339 与 2006-01-02，结果统一为 UTC
func parseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			parsed = parsed.UTC()
			return &parsed, true
		}
	}
	respondError(c, response.CodeBadRequest, "invalid "+name, nil)
	return nil, false
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return false
	}
	return true
}
