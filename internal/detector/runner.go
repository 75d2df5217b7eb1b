package detector

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"agent-wallet/internal/notify"
	"agent-wallet/pkg/logger"
	"agent-wallet/pkg/monitor"
)

// Runner 单个账户的轮询循环。不同账户的 Runner 互不阻塞；
// 同一账户内轮询严格串行 — 上一次没结束，下一次不会开始，
// 所以 previous/cursor 永远只有一个在途写者。
type Runner struct {
	name      string // 日志与指标中的账户名，如 "robot_sol"
	chain     string
	det       Detector
	interval  time.Duration
	buffer    *notify.Buffer
	connected func() bool // 提交结果前的"仍然连接"检查
}

func NewRunner(name, chainName string, det Detector, interval time.Duration, buffer *notify.Buffer, connected func() bool) *Runner {
	return &Runner{
		name:      name,
		chain:     chainName,
		det:       det,
		interval:  interval,
		buffer:    buffer,
		connected: connected,
	}
}

// Start 启动轮询 goroutine，ctx 取消时退出
func (r *Runner) Start(ctx context.Context) {
	go r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) {
	logger.Info("余额检测启动",
		zap.String("account", r.name),
		zap.String("mode", r.det.Mode()),
		zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("余额检测停止", zap.String("account", r.name))
			return
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

func (r *Runner) pollOnce(ctx context.Context) {
	sample, err := r.det.Poll(ctx)
	if errors.Is(err, ErrDisconnected) {
		// 轮询期间账户被断开: 检测器未提交状态，这里也不写缓冲
		logger.Debug("账户已断开，丢弃轮询结果", zap.String("account", r.name))
		r.count("discarded")
		return
	}
	if err != nil {
		// 瞬时网络错误不重试，下一个 tick 自然重来
		logger.Error("轮询失败", zap.String("account", r.name), zap.Error(err))
		r.count("error")
		return
	}

	if r.connected != nil && !r.connected() {
		// Poll 返回到写缓冲之间仍可能断开
		logger.Debug("账户已断开，丢弃轮询结果", zap.String("account", r.name))
		r.count("discarded")
		return
	}

	if monitor.Business != nil {
		bal, _ := sample.Balance.Float64()
		monitor.Business.WalletBalance.WithLabelValues(r.chain, r.name).Set(bal)
	}

	if sample.Delta.IsPositive() {
		r.buffer.Append(sample.Delta, time.Now())
		r.count("received")
		return
	}
	r.count("ok")
}

func (r *Runner) count(outcome string) {
	if monitor.Business != nil {
		monitor.Business.BalancePollTotal.WithLabelValues(r.chain, r.det.Mode(), outcome).Inc()
	}
}
