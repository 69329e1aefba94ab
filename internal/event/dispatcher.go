package event

import (
	"github.com/panjf2000/ants/v2"
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/logger"
)

// Dispatcher 引擎事件出口，把事件投递到协程池异步更新读模型。
// 引擎是权威状态，数据库只是索引和审计层，落库失败不影响引擎。
type Dispatcher struct {
	pool      *ants.Pool
	processor *Processor
}

// NewDispatcher 创建事件分发器
func NewDispatcher(processor *Processor, poolSize int) (*Dispatcher, error) {
	if poolSize <= 0 {
		poolSize = 8
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{pool: pool, processor: processor}, nil
}

// Emit 投递事件，协程池满时降级为同步处理
func (d *Dispatcher) Emit(ev engine.Event) {
	err := d.pool.Submit(func() {
		d.processor.Process(ev)
	})
	if err != nil {
		logger.Warn("Failed to submit event to pool, processing inline: %v", err)
		d.processor.Process(ev)
	}
}

// Close 释放协程池
func (d *Dispatcher) Close() {
	d.pool.Release()
}
