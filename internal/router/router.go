package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tienda-next/internal/authz"
	"github.com/tienda-next/internal/cache"
	"github.com/tienda-next/internal/config"
	adminhandlers "github.com/tienda-next/internal/http/handlers/admin"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "comp"
	}
	writeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_write", redisPrefix),
		WindowSeconds: cfg.Security.WriteRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WriteRateLimit.MaxRequests,
		WritesOnly:    true,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, cfg.JWT.Issuer))

		// 当前操作人的权限，无需额外授权
		admin.GET("/authz/me", adminHandler.GetAuthzMe)

		authorized := admin.Group("", AdminRBACMiddleware(c.AuthzService), RateLimitMiddleware(cache.Client(), writeRule, KeyByOperator))
		{
			comp := authorized.Group("/compensation")

			// 提成方案
			comp.GET("/commission-plans", adminHandler.ListCommissionPlans)
			comp.POST("/commission-plans", adminHandler.CreateCommissionPlan)
			comp.GET("/commission-plans/:id", adminHandler.GetCommissionPlan)
			comp.PUT("/commission-plans/:id", adminHandler.UpdateCommissionPlan)
			comp.DELETE("/commission-plans/:id", adminHandler.DeleteCommissionPlan)
			comp.POST("/commission-plans/:id/default", adminHandler.SetDefaultCommissionPlan)

			// 员工提成配置
			comp.GET("/employees/:id/commission-config", adminHandler.GetEmployeeCommissionConfig)
			comp.POST("/employees/:id/commission-config", adminHandler.AssignEmployeeCommissionConfig)
			comp.DELETE("/employees/:id/commission-config", adminHandler.RemoveEmployeeCommissionConfig)
			comp.PUT("/commission-configs/:id", adminHandler.UpdateEmployeeCommissionConfig)

			// 提成记录
			comp.POST("/orders/:id/commission", adminHandler.CalculateOrderCommission)
			comp.GET("/commissions", adminHandler.ListCommissions)
			comp.POST("/commissions/bulk-approve", adminHandler.BulkApproveCommissions)
			comp.POST("/commissions/:id/approve", adminHandler.ApproveCommission)
			comp.POST("/commissions/:id/reject", adminHandler.RejectCommission)

			// 销售目标与进度
			comp.GET("/goals", adminHandler.ListGoals)
			comp.POST("/goals", adminHandler.CreateGoal)
			comp.POST("/goals/close-period", adminHandler.CloseGoalPeriod)
			comp.GET("/goals/:id", adminHandler.GetGoal)
			comp.PUT("/goals/:id", adminHandler.UpdateGoal)
			comp.DELETE("/goals/:id", adminHandler.DeleteGoal)
			comp.POST("/goals/:id/activate", adminHandler.ActivateGoal)
			comp.POST("/goals/:id/deactivate", adminHandler.DeactivateGoal)
			comp.POST("/goals/:id/initialize", adminHandler.InitializeGoalProgress)
			comp.POST("/goals/:id/recalculate", adminHandler.RecalculateGoal)
			comp.GET("/goals/:id/progress", adminHandler.ListGoalProgress)
			comp.GET("/employees/:id/goal-progress", adminHandler.ListEmployeeGoalProgress)
			comp.GET("/goal-progress/:id", adminHandler.GetGoalProgress)
			comp.POST("/goal-progress/:id/award-bonus", adminHandler.AwardGoalBonus)

			// 奖金
			comp.GET("/bonuses", adminHandler.ListBonuses)
			comp.POST("/bonuses", adminHandler.CreateBonus)
			comp.POST("/bonuses/bulk-approve", adminHandler.BulkApproveBonuses)
			comp.GET("/bonuses/:id", adminHandler.GetBonus)
			comp.PUT("/bonuses/:id", adminHandler.UpdateBonus)
			comp.DELETE("/bonuses/:id", adminHandler.DeleteBonus)
			comp.POST("/bonuses/:id/approve", adminHandler.ApproveBonus)
			comp.POST("/bonuses/:id/reject", adminHandler.RejectBonus)
			comp.POST("/bonuses/:id/cancel", adminHandler.CancelBonus)
			comp.POST("/bonuses/:id/journal-entry", adminHandler.LinkBonusJournalEntry)

			// 薪资对接
			comp.GET("/payroll/commissions", adminHandler.ListPayrollCommissions)
			comp.POST("/payroll/commissions/mark-paid", adminHandler.MarkCommissionsPaid)
			comp.GET("/payroll/bonuses", adminHandler.ListPayrollBonuses)
			comp.POST("/payroll/bonuses/mark-paid", adminHandler.MarkBonusesPaid)

			// 订单事件补录
			comp.POST("/events/order-completed", adminHandler.PostOrderCompleted)
			comp.POST("/events/order-cancelled", adminHandler.PostOrderCancelled)

			// 权限管理
			authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
			authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
			authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
			authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			authorized.GET("/authz/staff/:id/roles", adminHandler.GetAuthzStaffRoles)
			authorized.PUT("/authz/staff/:id/roles", adminHandler.SetAuthzStaffRoles)
			authorized.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
			authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	// 健康检查，Redis 不可用时降级但仍返回 200
	r.GET("/health", func(ctx *gin.Context) {
		redisStatus := "disabled"
		if cache.Enabled() {
			redisStatus = "ok"
			if err := cache.Ping(ctx.Request.Context()); err != nil {
				redisStatus = "down"
			}
		}
		ctx.JSON(200, gin.H{
			"status":        "ok",
			"redis":         redisStatus,
			"queue_enabled": c.QueueClient.Enabled(),
		})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "compensation" && len(segments) > 2 {
		return segments[2]
	}
	return segments[1]
}
