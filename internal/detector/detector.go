package detector

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrDisconnected 轮询进行期间账户被断开。检测器此时不提交任何
// 内部状态 (基线 / 游标)，整次轮询作废；重连后的下一次轮询会重新
// 看到这段时间的变化。
var ErrDisconnected = errors.New("wallet disconnected during poll")

// Sample 一次轮询的输出。两种检测模式共享同一契约，
// 消费方不需要知道账户背后跑的是哪种模式。
type Sample struct {
	// Balance 当前余额 (显示单位)
	Balance decimal.Decimal
	// Delta 自上次轮询以来新收到的金额；<= 0 时恒为 0，不产生通知
	Delta decimal.Decimal
}

// Detector 按 (链, 账户) 维度的余额变化检测
type Detector interface {
	Poll(ctx context.Context) (Sample, error)

	// Mode returns "delta" or "scan", for metrics and logging only.
	Mode() string
}

// BalanceReader 检测器依赖的最小读口
type BalanceReader interface {
	GetBalance(ctx context.Context, addr string) (decimal.Decimal, error)
}

// ConnectedFunc 报告账户当前是否仍处于连接状态。
// 检测器在提交基线 / 游标前必须再查一次, nil 视为恒连接。
type ConnectedFunc func() bool

func stillConnected(fn ConnectedFunc) bool {
	return fn == nil || fn()
}
