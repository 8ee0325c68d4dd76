package queue

import (
	"fmt"
	"strings"

	"github.com/tienda-next/internal/compensation"
	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 周期关闭等运维任务队列
	CriticalQueue = constants.QueueCritical
	// SignalQueue 出站信号队列（由记账、通知等下游服务消费）
	SignalQueue = constants.QueueSignals
)

// Client 队列客户端封装
type Client struct {
	client       *asynq.Client
	enabled      bool
	defaultQueue string
	signalQueue  string
}

// NewClient 创建队列客户端，signalQueue 为空时使用默认信号队列
func NewClient(cfg *config.QueueConfig, signalQueue string) (*Client, error) {
	signalQueue = strings.TrimSpace(signalQueue)
	if signalQueue == "" {
		signalQueue = SignalQueue
	}
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue, signalQueue: signalQueue}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:       client,
		enabled:      true,
		defaultQueue: DefaultQueue,
		signalQueue:  signalQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueSignal 推送出站领域信号
func (c *Client) EnqueueSignal(signal compensation.Signal, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewSignalTask(signal)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{asynq.Queue(c.signalQueue)}, opts...)
	_, err = c.client.Enqueue(task, options...)
	return err
}

// EnqueueOrderEvent 推送订单完成/支付事件
func (c *Client) EnqueueOrderEvent(taskType string, payload OrderEventPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderEventTask(taskType, payload)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{asynq.Queue(c.defaultQueue)}, opts...)
	_, err = c.client.Enqueue(task, options...)
	return err
}

// EnqueueGoalClosePeriod 推送周期关闭任务
func (c *Client) EnqueueGoalClosePeriod(payload GoalClosePeriodPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewGoalClosePeriodTask(payload)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{asynq.Queue(CriticalQueue)}, opts...)
	_, err = c.client.Enqueue(task, options...)
	return err
}

// EnqueueGoalRecalculate 推送目标重算任务
func (c *Client) EnqueueGoalRecalculate(payload GoalRecalculatePayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewGoalRecalculateTask(payload)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{asynq.Queue(c.defaultQueue)}, opts...)
	_, err = c.client.Enqueue(task, options...)
	return err
}

// BuildServerConfig 生成队列服务配置，出站信号队列不在本服务消费
func BuildServerConfig(cfg *config.QueueConfig, signalQueue string) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 2, CriticalQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = make(map[string]int, len(cfg.Queues))
		for name, weight := range cfg.Queues {
			queues[name] = weight
		}
	}
	if strings.TrimSpace(signalQueue) == "" {
		signalQueue = SignalQueue
	}
	delete(queues, signalQueue)
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
