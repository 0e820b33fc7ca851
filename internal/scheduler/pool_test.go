package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSubmitPreservesPerKeyOrder(t *testing.T) {
	p := NewPool(zap.NewNop(), DefaultPoolConfig("test"))
	defer p.Close()

	const n = 200
	var mu sync.Mutex
	var seen []int

	ctx := context.Background()
	for i := 0; i < n; i++ {
		i := i
		if err := p.Submit(ctx, "engine-a", func() {
			mu.Lock()
			seen = append(seen, i)
			mu.Unlock()
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	p.CloseLane("engine-a")

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != n {
		t.Fatalf("expected %d tasks run, got %d", n, len(seen))
	}
	for i, v := range seen {
		if v != i {
			t.Fatalf("order violated at position %d: got %d", i, v)
		}
	}
}

func TestDistinctKeysRunConcurrently(t *testing.T) {
	p := NewPool(zap.NewNop(), DefaultPoolConfig("test"))
	defer p.Close()

	const keys = 8
	var wg sync.WaitGroup
	var running int32
	var maxConcurrent int32

	ctx := context.Background()
	wg.Add(keys)
	for i := 0; i < keys; i++ {
		key := string(rune('a' + i))
		err := p.Submit(ctx, key, func() {
			defer wg.Done()
			cur := atomic.AddInt32(&running, 1)
			for {
				max := atomic.LoadInt32(&maxConcurrent)
				if cur <= max || atomic.CompareAndSwapInt32(&maxConcurrent, max, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&running, -1)
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	wg.Wait()

	if atomic.LoadInt32(&maxConcurrent) < 2 {
		t.Errorf("expected tasks under distinct keys to overlap, max concurrent was %d", maxConcurrent)
	}
}

func TestRunTaskRecoversPanic(t *testing.T) {
	p := NewPool(zap.NewNop(), DefaultPoolConfig("test"))
	defer p.Close()

	done := make(chan struct{})
	ctx := context.Background()
	if err := p.Submit(ctx, "panicky", func() { panic("boom") }); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := p.Submit(ctx, "panicky", func() { close(done) }); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lane did not continue processing after a panicking task")
	}
}
