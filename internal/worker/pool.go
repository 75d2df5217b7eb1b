package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"agent-wallet/pkg/logger"
)

var ErrClosed = errors.New("worker pool closed")

// Pool 有界执行器: 所有阻塞的链上 RPC 调用都经由它执行，
// 并发数固定，队列满时 Run 阻塞 (背压)，调度方永不被 RPC 卡死。
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup

	// mu 保护 closed 与 jobs 的写端: 持有读锁期间 jobs 不会被关闭
	mu     sync.RWMutex
	closed bool
}

// NewPool 创建并启动 size 个 worker
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{
		// 带缓冲的 Channel 作为队列
		jobs: make(chan func(), size*2),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
	logger.Debug("worker 退出", zap.Int("id", id))
}

// Run 提交 fn 并等待其执行完成。队列满时阻塞；ctx 取消时放弃等待
// (已入队的任务仍会执行，只是结果被丢弃，与轮询丢弃语义一致)。
func (p *Pool) Run(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	job := func() {
		defer close(done)
		fn()
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	case p.jobs <- job:
		p.mu.RUnlock()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Close 停止接收新任务并等待在途任务结束。幂等。
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
