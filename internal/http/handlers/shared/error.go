package shared

import (
	"errors"

	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 与 tenant_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	kv := make([]interface{}, 0, 4)
	if id := RequestID(c); id != "" {
		kv = append(kv, "request_id", id)
	}
	if tenantID, ok := contextUint(c, TenantIDKey); ok {
		kv = append(kv, "tenant_id", tenantID)
	}
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		log := RequestLog(c)
		if appErr.Internal() {
			log.Errorw("handler_error", "code", appErr.Code, "message", appErr.Message, "error", err)
		} else {
			log.Debugw("handler_rejected", "code", appErr.Code, "message", appErr.Message, "error", err)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondServiceError 将业务错误映射为响应码，已包装的 AppError 按其响应码返回，其余错误隐藏细节。
func RespondServiceError(c *gin.Context, err error) {
	if appErr, ok := response.AsAppError(err); ok {
		RespondError(c, appErr.Code, appErr.Message, appErr.Err)
		return
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		RespondError(c, response.CodeNotFound, err.Error(), err)
	case errors.Is(err, service.ErrValidation):
		RespondError(c, response.CodeBadRequest, err.Error(), err)
	case errors.Is(err, service.ErrConflict):
		RespondError(c, response.CodeConflict, err.Error(), err)
	case errors.Is(err, service.ErrInvalidStateTransition):
		RespondError(c, response.CodeInvalidState, err.Error(), err)
	default:
		RespondError(c, response.CodeInternal, "internal error", err)
	}
}
