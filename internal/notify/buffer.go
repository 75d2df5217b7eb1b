package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"agent-wallet/internal/status"
	"agent-wallet/pkg/monitor"
)

type entry struct {
	amount decimal.Decimal
	at     time.Time
}

// Buffer 收款通知缓冲。检测循环只管 Append，
// 冲刷时把窗口内的多笔收款聚合成一条消息，避免刷屏。
type Buffer struct {
	mu      sync.Mutex
	label   string // 状态标签，如 "WalletSolanaStatus"
	asset   string // 消息里的资产名，如 "SOL"
	sink    status.Sink
	entries []entry
}

func NewBuffer(label, asset string, sink status.Sink) *Buffer {
	return &Buffer{label: label, asset: asset, sink: sink}
}

// Append 追加一笔收款。amount 必须为正，调用方保证。
func (b *Buffer) Append(amount decimal.Decimal, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry{amount: amount, at: at})
}

// Len 当前未冲刷的条目数
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Consume 聚合并清空缓冲。缓冲为空时不产生任何输出。
// 消息时间戳取最后一条收款的时间，表示"截至何时"。
func (b *Buffer) Consume() {
	b.mu.Lock()
	if len(b.entries) == 0 {
		b.mu.Unlock()
		return
	}
	total := decimal.Zero
	for _, e := range b.entries {
		total = total.Add(e.amount)
	}
	last := b.entries[len(b.entries)-1].at
	b.entries = nil
	b.mu.Unlock()

	msg := fmt.Sprintf("You just received %s %s.", total.StringFixed(5), b.asset)
	b.sink.Write(b.label, msg, last)

	if monitor.Business != nil {
		monitor.Business.NotificationsTotal.Inc()
	}
}
