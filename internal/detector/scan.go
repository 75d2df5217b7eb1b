package detector

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agent-wallet/internal/chain"
	"agent-wallet/pkg/logger"
)

// ScanDetector 遍历账户新交易历史，把每笔交易的 pre/post 余额差
// 归因到被跟踪账户上。需要精确区分"收到转账"和"自己花钱"的账户用它。
//
// 游标规则: cursor 单调前进、永不回退；一次轮询完整结束后推进到最新
// 签名，单笔交易查询失败只跳过、不重放。断开期间的在途轮询不提交
// 游标，重连后同一批签名会重新看到。依赖上游签名列表严格从新到旧排列。
type ScanDetector struct {
	scanner   chain.TxScanner
	reader    BalanceReader
	addr      string
	limit     int
	connected ConnectedFunc

	cursor string
	cached decimal.Decimal
}

func NewScanDetector(scanner chain.TxScanner, reader BalanceReader, addr string, limit int, connected ConnectedFunc) *ScanDetector {
	if limit <= 0 {
		limit = 10
	}
	return &ScanDetector{
		scanner:   scanner,
		reader:    reader,
		addr:      addr,
		limit:     limit,
		connected: connected,
	}
}

func (d *ScanDetector) Mode() string { return "scan" }

func (d *ScanDetector) Poll(ctx context.Context) (Sample, error) {
	sigs, err := d.scanner.Signatures(ctx, d.addr, d.limit)
	if err != nil {
		return Sample{Balance: d.cached}, err
	}
	if len(sigs) == 0 {
		return Sample{Balance: d.cached, Delta: decimal.Zero}, nil
	}

	// 收集游标之后的新签名 (列表从新到旧)
	var fresh []chain.SignatureInfo
	for _, si := range sigs {
		if d.cursor != "" && si.Signature == d.cursor {
			break
		}
		fresh = append(fresh, si)
	}

	// 断开了就不再为这次轮询花任何 RPC
	if !stillConnected(d.connected) {
		return Sample{Balance: d.cached}, ErrDisconnected
	}

	// 按时间序 (旧的先处理) 累加正向差值
	received := decimal.Zero
	for i := len(fresh) - 1; i >= 0; i-- {
		si := fresh[i]
		delta, found, err := d.scanner.BalanceDelta(ctx, si.Signature, d.addr)
		if err != nil {
			logger.Error("处理交易失败", zap.String("signature", si.Signature), zap.Error(err))
			continue
		}
		if !found {
			// 账户未参与该交易
			logger.Debug("账户不在交易参与者中", zap.String("signature", si.Signature))
			continue
		}
		if delta.IsPositive() {
			received = received.Add(delta)
			logger.Info("检测到入账转账",
				zap.String("amount", delta.String()),
				zap.String("signature", si.Signature))
		}
	}

	// 有入账时刷新一次余额，保持与链上状态一致
	balance := d.cached
	refreshed := false
	if received.IsPositive() {
		if b, err := d.reader.GetBalance(ctx, d.addr); err == nil {
			balance = b
			refreshed = true
		}
	}

	// 提交游标前的最终连接检查: 断开期间的在途结果整体丢弃，
	// 游标不前进，这批签名重连后重新处理
	if !stillConnected(d.connected) {
		return Sample{Balance: d.cached}, ErrDisconnected
	}

	d.cursor = sigs[0].Signature
	if refreshed {
		d.cached = balance
	}

	if received.IsPositive() {
		return Sample{Balance: balance, Delta: received}, nil
	}
	return Sample{Balance: d.cached, Delta: decimal.Zero}, nil
}
