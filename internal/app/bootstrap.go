package app

import (
	"errors"
	"net"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/provider"
	"github.com/tienda-next/internal/router"
	"github.com/tienda-next/internal/worker"
)

// ErrQueueDisabled worker 模式要求启用队列
var ErrQueueDisabled = errors.New("worker mode requires queue.enabled")

// BuildRunner 按运行模式组装 HTTP 与 Worker 服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if mode == ModeWorker && !cfg.Queue.Enabled {
		return nil, ErrQueueDisabled
	}
	container := provider.NewContainer(cfg)
	runner, err := buildRunner(cfg, mode, container)
	if err != nil {
		_ = container.Close()
		return nil, err
	}
	runner.onStop = container.Close
	return runner, nil
}

func buildRunner(cfg *config.Config, mode string, container *provider.Container) (*Runner, error) {
	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(net.JoinHostPort(cfg.Server.Host, cfg.Server.Port), engine))
	}

	// all 模式下队列关闭时只启动 HTTP，订单事件走后台补录接口
	if mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled) {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, cfg.Compensation.SignalQueue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}
	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start",
		"addr", net.JoinHostPort(opts.Config.Server.Host, opts.Config.Server.Port),
		"mode", opts.Mode,
		"queue_enabled", opts.Config.Queue.Enabled,
	)
	return RunWithOptions(runner, opts)
}
