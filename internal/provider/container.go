package provider

import (
	"errors"

	"github.com/tienda-next/internal/authz"
	"github.com/tienda-next/internal/cache"
	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/queue"
	"github.com/tienda-next/internal/repository"
	"github.com/tienda-next/internal/service"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Outbox      service.SignalSink

	// Repositories
	EmployeeRepo         repository.EmployeeRepository
	OrderRepo            repository.OrderRepository
	CommissionPlanRepo   repository.CommissionPlanRepository
	EmployeeConfigRepo   repository.EmployeeCommissionConfigRepository
	CommissionRecordRepo repository.CommissionRecordRepository
	SalesGoalRepo        repository.SalesGoalRepository
	GoalProgressRepo     repository.GoalProgressRepository
	BonusRecordRepo      repository.BonusRecordRepository
	AuthzAuditLogRepo    repository.AuthzAuditLogRepository

	// Services
	AuthzService            *authz.Service
	AuthzAuditService       *service.AuthzAuditService
	CommissionConfigService *service.CommissionConfigService
	CommissionService       *service.CommissionService
	GoalService             *service.GoalService
	GoalProgressService     *service.GoalProgressService
	BonusService            *service.BonusService
	OrderEventService       *service.OrderEventService
}

// NewContainer 初始化容器，使用全局数据库连接
func NewContainer(cfg *config.Config) *Container {
	return NewContainerWithDB(cfg, models.DB)
}

// NewContainerWithDB 基于指定数据库连接初始化容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue, cfg.Compensation.SignalQueue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	if queueClient != nil && queueClient.Enabled() {
		c.Outbox = service.NewQueueOutbox(queueClient)
	} else {
		logger.Infow("provider_signal_outbox_disabled", "queue_enabled", cfg.Queue.Enabled)
		c.Outbox = service.NewQueueOutbox(nil)
	}

	c.initRepositories(db)
	c.initServices(db)
	return c
}

// Close 释放队列客户端与缓存连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	return errors.Join(c.QueueClient.Close(), cache.Close())
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.EmployeeRepo = repository.NewEmployeeRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CommissionPlanRepo = repository.NewCommissionPlanRepository(db)
	c.EmployeeConfigRepo = repository.NewEmployeeCommissionConfigRepository(db)
	c.CommissionRecordRepo = repository.NewCommissionRecordRepository(db)
	c.SalesGoalRepo = repository.NewSalesGoalRepository(db)
	c.GoalProgressRepo = repository.NewGoalProgressRepository(db)
	c.BonusRecordRepo = repository.NewBonusRecordRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
}

func (c *Container) initServices(db *gorm.DB) {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)

	comp := c.Config.Compensation
	c.CommissionConfigService = service.NewCommissionConfigService(
		c.CommissionPlanRepo,
		c.EmployeeConfigRepo,
		c.EmployeeRepo,
		comp.DefaultPlanCacheTTL(),
	)
	c.CommissionService = service.NewCommissionService(
		c.CommissionRecordRepo,
		c.OrderRepo,
		c.EmployeeRepo,
		c.CommissionConfigService,
		c.Outbox,
	)
	c.GoalProgressService = service.NewGoalProgressService(
		c.GoalProgressRepo,
		c.SalesGoalRepo,
		c.EmployeeRepo,
		c.OrderRepo,
		c.Outbox,
		service.GoalProgressOptions{
			HistoryLimit:        comp.ContributionHistoryLimit,
			MarginFallbackRatio: decimal.NewFromFloat(comp.MarginFallbackRatio),
			Location:            comp.Location(),
		},
	)
	c.GoalService = service.NewGoalService(c.SalesGoalRepo, c.GoalProgressService)
	c.BonusService = service.NewBonusService(c.BonusRecordRepo, c.GoalProgressRepo, c.EmployeeRepo, c.Outbox)
	c.OrderEventService = service.NewOrderEventService(c.CommissionService, c.GoalProgressService, c.BonusService)
}
