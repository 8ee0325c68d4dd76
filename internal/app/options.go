package app

import (
	"os"
	"strings"
	"time"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/logger"

	"go.uber.org/zap"
)

// 运行模式
const (
	ModeAll    = "all"    // API + Worker
	ModeAPI    = "api"    // 仅后台 API
	ModeWorker = "worker" // 仅消费订单与目标任务
)

// ValidMode 校验运行模式
func ValidMode(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeAll, ModeAPI, ModeWorker:
		return true
	}
	return false
}

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// normalizeOptions 补齐默认参数
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	opts.Mode = strings.ToLower(strings.TrimSpace(opts.Mode))
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	return opts
}
