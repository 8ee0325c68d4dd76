package admin

import "github.com/tienda-next/internal/provider"

// Handler 提成与奖金后台接口处理器
// 租户与操作人均来自令牌，路径与请求体中的租户字段一律忽略
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
