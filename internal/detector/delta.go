package detector

import (
	"context"

	"github.com/shopspring/decimal"
)

// DeltaDetector 朴素前后差值检测: delta = current - previous。
// 只关心净余额变化的账户用它。已知的不精确性 (按原样保留):
// 同一个轮询间隔内先转出再转入，只会报出净效果，不会拆成两笔事件。
type DeltaDetector struct {
	reader    BalanceReader
	addr      string
	connected ConnectedFunc

	previous decimal.Decimal
	primed   bool
}

func NewDeltaDetector(reader BalanceReader, addr string, connected ConnectedFunc) *DeltaDetector {
	return &DeltaDetector{
		reader:    reader,
		addr:      addr,
		connected: connected,
	}
}

func (d *DeltaDetector) Mode() string { return "delta" }

func (d *DeltaDetector) Poll(ctx context.Context) (Sample, error) {
	current, err := d.reader.GetBalance(ctx, d.addr)
	if err != nil {
		return Sample{Balance: d.previous}, err
	}

	// 提交基线前再查一次连接状态: 断开期间的在途轮询整体作废，
	// 否则这段时间的入账会被新基线吞掉
	if !stillConnected(d.connected) {
		return Sample{Balance: d.previous}, ErrDisconnected
	}

	if !d.primed {
		// 第一次轮询只建立基线
		d.previous = current
		d.primed = true
		return Sample{Balance: current, Delta: decimal.Zero}, nil
	}

	delta := current.Sub(d.previous)
	// previous 无条件更新: 转出只会压低基线，自己发起的支出永远不会
	// 伪装成一次"到账"
	d.previous = current

	if delta.IsPositive() {
		return Sample{Balance: current, Delta: delta}, nil
	}
	return Sample{Balance: current, Delta: decimal.Zero}, nil
}
