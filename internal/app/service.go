package app

import (
	"context"
	"errors"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

const defaultStopTimeout = 10 * time.Second

// Service 服务接口
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 服务运行器：任一服务退出即停止全部服务，随后释放共享资源
type Runner struct {
	services []Service
	onStop   func() error // 全部服务退出后释放数据库、redis 等共享资源
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

type serviceExit struct {
	name string
	err  error
}

// Run 启动全部服务，等待首个退出或 ctx 结束
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, logger *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exits := make(chan serviceExit, len(r.services))
	for _, svc := range r.services {
		go func(service Service) {
			if service == nil {
				exits <- serviceExit{name: "unknown", err: errors.New("service is nil")}
				return
			}
			logger.Infow("service_start", "service", service.Name())
			exits <- serviceExit{name: service.Name(), err: service.Start(ctx)}
		}(svc)
	}

	var runErr error
	pending := len(r.services)
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case exit := <-exits:
		pending--
		runErr = exit.err
		logger.Infow("service_exit", "service", exit.name, "error", exit.err)
	}
	cancel()

	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	r.stopAll(stopCtx, logger)
	r.awaitExits(stopCtx, exits, pending, logger)

	if r.onStop != nil {
		if err := r.onStop(); err != nil {
			logger.Warnw("runner_release_failed", "error", err)
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// stopAll 逆序停止服务，后启动的先停
func (r *Runner) stopAll(ctx context.Context, logger *zap.SugaredLogger) {
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if svc == nil {
			continue
		}
		if err := svc.Stop(ctx); err != nil {
			logger.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
}

// awaitExits 等待仍在运行的服务返回，超时后放弃等待
func (r *Runner) awaitExits(ctx context.Context, exits <-chan serviceExit, pending int, logger *zap.SugaredLogger) {
	for pending > 0 {
		select {
		case exit := <-exits:
			pending--
			logger.Infow("service_exit", "service", exit.name)
		case <-ctx.Done():
			logger.Warnw("service_exit_timeout", "pending", pending)
			return
		}
	}
}
