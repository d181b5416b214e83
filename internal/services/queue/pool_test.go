package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWorkerPool_RunsAllTasks(t *testing.T) {
	p := NewWorkerPool(3, 4, zap.NewNop())

	var ran atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		if err := p.Submit(context.Background(), func() {
			defer wg.Done()
			ran.Add(1)
		}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	wg.Wait()
	p.Close()

	if ran.Load() != 50 {
		t.Fatalf("expected 50 tasks to run, got %d", ran.Load())
	}
	stats := p.Stats()
	if stats["submitted"].(int64) != 50 || stats["completed"].(int64) != 50 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	p := NewWorkerPool(2, 16, zap.NewNop())
	defer p.Close()

	var active, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		p.Submit(context.Background(), func() {
			defer wg.Done()
			n := active.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
		})
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent tasks, saw %d", peak.Load())
	}
}

func TestWorkerPool_RecoversPanics(t *testing.T) {
	p := NewWorkerPool(1, 1, zap.NewNop())

	done := make(chan struct{})
	p.Submit(context.Background(), func() { panic("boom") })
	p.Submit(context.Background(), func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not survive a panicking task")
	}
	p.Close()

	if got := p.Stats()["panicked"].(int64); got != 1 {
		t.Fatalf("expected 1 panicked task, got %d", got)
	}
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	p := NewWorkerPool(1, 1, zap.NewNop())
	p.Close()
	p.Close()

	if err := p.Submit(context.Background(), func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestWorkerPool_SubmitHonoursContext(t *testing.T) {
	p := NewWorkerPool(1, 1, zap.NewNop())

	release := make(chan struct{})
	started := make(chan struct{})
	p.Submit(context.Background(), func() {
		close(started)
		<-release
	})
	<-started
	p.Submit(context.Background(), func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Submit(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded on a full queue, got %v", err)
	}

	close(release)
	p.Close()
}
