package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsJobs(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	var n int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Run(context.Background(), func() {
				atomic.AddInt32(&n, 1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(20), atomic.LoadInt32(&n))
}

// 并发上限固定: 同时在跑的任务不会超过 size
func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	var cur, max int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Run(context.Background(), func() {
				c := atomic.AddInt32(&cur, 1)
				for {
					m := atomic.LoadInt32(&max)
					if c <= m || atomic.CompareAndSwapInt32(&max, m, c) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&cur, -1)
			})
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&max); got > 2 {
		t.Fatalf("并发数超过上限: %d", got)
	}
}

func TestPoolRunContextCancelled(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	block := make(chan struct{})
	go func() {
		_ = p.Run(context.Background(), func() { <-block })
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// worker 被占满，等待中的调用随 ctx 一起放弃
	err := p.Run(ctx, func() { <-block })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
}

func TestPoolCloseIdempotent(t *testing.T) {
	p := NewPool(1)
	p.Close()
	p.Close()

	err := p.Run(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrClosed)
}
