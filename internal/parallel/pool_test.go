package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestPoolLimitsConcurrency(t *testing.T) {
	p := NewPool(2)

	var active, peak atomic.Int64
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Run(context.Background(), func() error {
				n := active.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				active.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestPoolPropagatesError(t *testing.T) {
	p := NewPool(1)
	want := errors.New("boom")
	if err := p.Run(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestPoolCancelledContext(t *testing.T) {
	p := NewPool(1)
	release := make(chan struct{})
	go func() {
		_ = p.Run(context.Background(), func() error {
			<-release
			return nil
		})
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The single slot may be held; a cancelled context must not block.
	err := p.Run(ctx, func() error { return nil })
	close(release)
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want nil or context.Canceled", err)
	}
}

func TestNilPoolRunsDirectly(t *testing.T) {
	var p *Pool
	ran := false
	if err := p.Run(context.Background(), func() error { ran = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Error("fn did not run on nil pool")
	}
}
