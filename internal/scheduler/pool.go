// Package scheduler dispatches ProcessBar calls across many concurrent
// Engines while preserving each Engine's required single-threaded,
// strict-FIFO-per-timestamp processing order.
package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Task is one unit of work submitted for a given engine key.
type Task func()

// PoolConfig configures a Pool.
type PoolConfig struct {
	Name          string
	LaneQueueSize int // buffered capacity of each per-engine lane
	PanicRecovery bool
}

// DefaultPoolConfig returns sensible defaults sized off the host's CPU
// count: each lane's queue holds 64 tasks per CPU, leaving headroom for
// I/O-adjacent workloads (broker calls can block on I/O).
func DefaultPoolConfig(name string) PoolConfig {
	return PoolConfig{
		Name:          name,
		LaneQueueSize: runtime.NumCPU() * 64,
		PanicRecovery: true,
	}
}

// Pool fans work out across any number of engine keys. Each key gets its
// own dedicated lane: a single goroutine draining a buffered channel, so
// tasks submitted under the same key run strictly one at a time and in
// submission order, while distinct keys proceed fully in parallel. This
// gives the per-Engine FIFO-per-timestamp guarantee without serialising
// unrelated strategies behind a shared worker set.
type Pool struct {
	logger *zap.Logger
	cfg    PoolConfig

	mu    sync.Mutex
	lanes map[string]*lane
}

type lane struct {
	tasks chan Task
	done  chan struct{}
}

// NewPool constructs a Pool. Lanes are created lazily on first Submit for
// a given key and run until Close.
func NewPool(logger *zap.Logger, cfg PoolConfig) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LaneQueueSize <= 0 {
		cfg.LaneQueueSize = DefaultPoolConfig(cfg.Name).LaneQueueSize
	}
	return &Pool{
		logger: logger.Named("scheduler.pool"),
		cfg:    cfg,
		lanes:  make(map[string]*lane),
	}
}

// Submit enqueues task on key's lane, starting the lane if this is its
// first task. Submit never blocks past the lane's queue capacity; a full
// lane applies backpressure to the caller.
func (p *Pool) Submit(ctx context.Context, key string, task Task) error {
	l := p.laneFor(key)
	select {
	case l.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) laneFor(key string) *lane {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.lanes[key]
	if ok {
		return l
	}
	l = &lane{
		tasks: make(chan Task, p.cfg.LaneQueueSize),
		done:  make(chan struct{}),
	}
	p.lanes[key] = l
	go p.runLane(key, l)
	return l
}

func (p *Pool) runLane(key string, l *lane) {
	defer close(l.done)
	for task := range l.tasks {
		p.runTask(key, task)
	}
}

func (p *Pool) runTask(key string, task Task) {
	if !p.cfg.PanicRecovery {
		task()
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("recovered panic in engine lane",
				zap.String("key", key),
				zap.Any("panic", fmt.Sprintf("%v", r)),
			)
		}
	}()
	task()
}

// CloseLane stops accepting new tasks for key and waits for its queued
// tasks to drain. Used when an Engine shuts down permanently.
func (p *Pool) CloseLane(key string) {
	p.mu.Lock()
	l, ok := p.lanes[key]
	if ok {
		delete(p.lanes, key)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	close(l.tasks)
	<-l.done
}

// Close stops every lane and waits for all of them to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	keys := make([]string, 0, len(p.lanes))
	for k := range p.lanes {
		keys = append(keys, k)
	}
	p.mu.Unlock()

	for _, k := range keys {
		p.CloseLane(k)
	}
}
