package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

var ErrPoolClosed = errors.New("worker pool is closed")

// WorkerPool runs fire-and-forget tasks on a fixed number of goroutines fed
// from a bounded queue. Tasks cannot be cancelled once submitted.
type WorkerPool struct {
	tasks   chan func()
	logger  *zap.Logger
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	queued    atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
}

func NewWorkerPool(workers, queueSize int, logger *zap.Logger) *WorkerPool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	p := &WorkerPool{
		tasks:   make(chan func(), queueSize),
		logger:  logger,
		workers: workers,
	}

	for w := 0; w < workers; w++ {
		p.wg.Add(1)
		go p.run(w)
	}

	return p
}

// Submit enqueues task, blocking while the queue is full. It returns
// ctx.Err() if ctx ends first and ErrPoolClosed after Close.
func (p *WorkerPool) Submit(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		p.queued.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *WorkerPool) Stats() map[string]interface{} {
	return map[string]interface{}{
		"workers":   p.workers,
		"pending":   len(p.tasks),
		"submitted": p.queued.Load(),
		"completed": p.completed.Load(),
		"panicked":  p.panicked.Load(),
	}
}

func (p *WorkerPool) run(workerID int) {
	defer p.wg.Done()

	for task := range p.tasks {
		p.execute(workerID, task)
	}
}

func (p *WorkerPool) execute(workerID int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Error("Task panicked",
				zap.Int("worker_id", workerID),
				zap.Any("panic", r))
		}
		p.completed.Add(1)
	}()

	task()
}
