package service

import (
	"sync"

	"github.com/tienda-next/internal/compensation"
	"github.com/tienda-next/internal/logger"

	"github.com/hibiken/asynq"
)

// SignalSink 出站信号投递口，服务在事务提交后调用
type SignalSink interface {
	Emit(signal compensation.Signal)
}

// SignalEnqueuer 能把信号写入队列的客户端
type SignalEnqueuer interface {
	Enabled() bool
	EnqueueSignal(signal compensation.Signal, opts ...asynq.Option) error
}

// QueueOutbox 将信号作为 asynq 任务写入出站队列
type QueueOutbox struct {
	client SignalEnqueuer
}

// NewQueueOutbox 创建队列出站投递
func NewQueueOutbox(client SignalEnqueuer) *QueueOutbox {
	return &QueueOutbox{client: client}
}

// Emit 投递信号，失败只记录日志，不回滚已提交的业务数据
func (o *QueueOutbox) Emit(signal compensation.Signal) {
	if o == nil || signal == nil {
		return
	}
	if o.client == nil || !o.client.Enabled() {
		logger.ForTenant(signal.Tenant()).Debugw("signal_queue_disabled", "signal", signal.SignalType())
		return
	}
	if err := o.client.EnqueueSignal(signal); err != nil {
		logger.ForTenant(signal.Tenant()).Errorw("signal_enqueue_failed",
			"signal", signal.SignalType(),
			"error", err,
		)
	}
}

// MemoryOutbox 内存收集信号（测试与同步调试使用）
type MemoryOutbox struct {
	mu      sync.Mutex
	signals []compensation.Signal
}

// NewMemoryOutbox 创建内存出站投递
func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{}
}

// Emit 记录信号
func (o *MemoryOutbox) Emit(signal compensation.Signal) {
	if signal == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.signals = append(o.signals, signal)
}

// Signals 返回已记录信号的副本
func (o *MemoryOutbox) Signals() []compensation.Signal {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]compensation.Signal, len(o.signals))
	copy(out, o.signals)
	return out
}

// OfType 按信号类型过滤
func (o *MemoryOutbox) OfType(signalType string) []compensation.Signal {
	var out []compensation.Signal
	for _, signal := range o.Signals() {
		if signal.SignalType() == signalType {
			out = append(out, signal)
		}
	}
	return out
}

// Reset 清空记录
func (o *MemoryOutbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.signals = nil
}

type discardOutbox struct{}

func (discardOutbox) Emit(compensation.Signal) {}

func sinkOrDiscard(sink SignalSink) SignalSink {
	if sink == nil {
		return discardOutbox{}
	}
	return sink
}
