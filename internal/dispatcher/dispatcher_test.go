package dispatcher

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"agent-wallet/internal/chain"
	"agent-wallet/internal/provider"
	"agent-wallet/internal/status"
	"agent-wallet/pkg/errno"
)

// fakeAdapter 只做格式校验，地址必须以 "0x" 开头且长度 > 4
type fakeAdapter struct{}

func (fakeAdapter) Name() string    { return "ETH" }
func (fakeAdapter) AssetID() string { return "eth" }
func (fakeAdapter) ValidateAddress(addr string) error {
	if !strings.HasPrefix(addr, "0x") || len(addr) <= 4 {
		return errno.ErrInvalidAddress
	}
	return nil
}
func (fakeAdapter) FromBaseUnit(v *big.Int) decimal.Decimal { return decimal.Zero }
func (fakeAdapter) ToBaseUnit(d decimal.Decimal) *big.Int   { return big.NewInt(0) }
func (fakeAdapter) ParseKey(string) (chain.Key, error)      { return nil, errno.ErrConfiguration }
func (fakeAdapter) Dial(context.Context, string) (chain.Client, error) {
	return nil, errno.ErrConnection
}

// fakeProvider 记录每次调用，按字段配置返回值
type fakeProvider struct {
	info      *provider.WalletInfo
	balance   decimal.Decimal
	signature string
	txHash    string
	err       error

	signedMsg string
	sentTo    string
	sentAmt   decimal.Decimal
	calls     int
}

func (f *fakeProvider) Connect(context.Context) (*provider.WalletInfo, error) {
	return f.info, f.err
}
func (f *fakeProvider) GetBalance(context.Context, string) (decimal.Decimal, error) {
	f.calls++
	return f.balance, f.err
}
func (f *fakeProvider) SignMessage(_ context.Context, msg string) (string, error) {
	f.calls++
	f.signedMsg = msg
	return f.signature, f.err
}
func (f *fakeProvider) SendTransaction(_ context.Context, to string, amt decimal.Decimal, _ []byte) (string, error) {
	f.calls++
	f.sentTo = to
	f.sentAmt = amt
	return f.txHash, f.err
}
func (f *fakeProvider) Disconnect()                {}
func (f *fakeProvider) Info() *provider.WalletInfo { return f.info }

func newTestDispatcher(p *fakeProvider) (*Dispatcher, *status.MemorySink) {
	sink := status.NewMemorySink()
	return New(p, fakeAdapter{}, sink, "WalletStatus"), sink
}

func TestDispatchPoll(t *testing.T) {
	p := &fakeProvider{
		info:    &provider.WalletInfo{Address: "0xabc123"},
		balance: decimal.RequireFromString("1.5"),
	}
	d, sink := newTestDispatcher(p)

	out := d.Dispatch(context.Background(), "poll")

	assert.Equal(t, "poll", out.Action)
	assert.Equal(t, "success", out.Status)
	assert.Contains(t, out.Details, "balance=1.5")
	assert.Contains(t, out.Details, "asset=eth")
	assert.Contains(t, out.Details, "address=0xabc123")

	// 恰好一条状态记录
	records := sink.Records()
	if len(records) != 1 {
		t.Fatalf("期望 1 条状态记录，得到 %d 条", len(records))
	}
	assert.Equal(t, "WalletStatus", records[0].Label)
	assert.Contains(t, records[0].Message, "action=poll status=success")
}

func TestDispatchPollNotInitialized(t *testing.T) {
	p := &fakeProvider{info: nil}
	d, _ := newTestDispatcher(p)

	out := d.Dispatch(context.Background(), "poll")

	assert.Equal(t, "failed", out.Status)
	assert.Contains(t, out.Details, "wallet_not_initialized")
	assert.Equal(t, 0, p.calls, "未初始化时不应触发任何网络调用")
}

func TestDispatchSignPreservesColons(t *testing.T) {
	p := &fakeProvider{
		info:      &provider.WalletInfo{Address: "0xabc123"},
		signature: "0xsig",
	}
	d, _ := newTestDispatcher(p)

	out := d.Dispatch(context.Background(), "sign:hello:world")

	assert.Equal(t, "success", out.Status)
	// 消息里的冒号必须原样保留
	assert.Equal(t, "hello:world", p.signedMsg)
	assert.Contains(t, out.Details, "signature=0xsig")
}

func TestDispatchSignMissingMessage(t *testing.T) {
	for _, cmd := range []string{"sign", "sign:"} {
		t.Run(cmd, func(t *testing.T) {
			p := &fakeProvider{info: &provider.WalletInfo{Address: "0xabc123"}}
			d, _ := newTestDispatcher(p)

			out := d.Dispatch(context.Background(), cmd)

			assert.Equal(t, "failed", out.Status)
			assert.Contains(t, out.Details, "missing_message")
			assert.Equal(t, 0, p.calls)
		})
	}
}

func TestDispatchSendAlwaysRedirects(t *testing.T) {
	p := &fakeProvider{info: &provider.WalletInfo{Address: "0xabc123"}, txHash: "0xdead"}
	d, _ := newTestDispatcher(p)

	out := d.Dispatch(context.Background(), "send:0xdef456")

	assert.Equal(t, "send", out.Action)
	assert.Equal(t, "failed", out.Status)
	assert.Contains(t, out.Details, "use_transfer_action_instead")
	assert.Equal(t, 0, p.calls, "send 是占位动作，绝不执行交易")
}

func TestDispatchTransfer(t *testing.T) {
	p := &fakeProvider{
		info:   &provider.WalletInfo{Address: "0xabc123"},
		txHash: "0xfeed",
	}
	d, _ := newTestDispatcher(p)

	out := d.Dispatch(context.Background(), "transfer:0xdef456:0.5")

	assert.Equal(t, "success", out.Status)
	assert.Equal(t, "0xdef456", p.sentTo)
	assert.True(t, p.sentAmt.Equal(decimal.RequireFromString("0.5")))
	assert.Contains(t, out.Details, "tx_hash=0xfeed")
}

// 校验失败绝不触发网络调用
func TestDispatchTransferValidation(t *testing.T) {
	tests := []struct {
		name    string
		command string
		reason  string
	}{
		{"缺少金额", "transfer:0xdef456", "missing_parameters"},
		{"缺少全部参数", "transfer", "missing_parameters"},
		{"空目标地址", "transfer::0.5", "missing_parameters"},
		{"金额不是数字", "transfer:0xdef456:abc", "invalid_amount"},
		{"金额为零", "transfer:0xdef456:0", "invalid_amount"},
		{"金额为负", "transfer:0xdef456:-1", "invalid_amount"},
		{"地址格式错误", "transfer:not-an-address:0.5", "invalid_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{info: &provider.WalletInfo{Address: "0xabc123"}, txHash: "0xfeed"}
			d, _ := newTestDispatcher(p)

			out := d.Dispatch(context.Background(), tt.command)

			assert.Equal(t, "failed", out.Status)
			assert.Contains(t, out.Details, tt.reason)
			assert.Equal(t, 0, p.calls, "校验失败不应触发网络调用")
		})
	}
}

func TestDispatchTransferConfirmationTimeout(t *testing.T) {
	p := &fakeProvider{
		info:   &provider.WalletInfo{Address: "0xabc123"},
		txHash: "0xpending",
		err:    errno.ErrConfirmationTimeout,
	}
	d, _ := newTestDispatcher(p)

	out := d.Dispatch(context.Background(), "transfer:0xdef456:0.5")

	// 确认超时要带上已广播的交易哈希
	assert.Equal(t, "failed", out.Status)
	assert.Contains(t, out.Details, "confirmation_timeout")
	assert.Contains(t, out.Details, "tx_hash=0xpending")
}

func TestDispatchUnknownAction(t *testing.T) {
	p := &fakeProvider{info: &provider.WalletInfo{Address: "0xabc123"}}
	d, sink := newTestDispatcher(p)

	out := d.Dispatch(context.Background(), "stake:0xdef456")

	assert.Equal(t, "stake", out.Action)
	assert.Equal(t, "failed", out.Status)
	assert.Contains(t, out.Details, "unknown_action")
	assert.Len(t, sink.Records(), 1)
}

// 动词大小写不敏感，前后空白容忍
func TestDispatchNormalization(t *testing.T) {
	p := &fakeProvider{
		info:    &provider.WalletInfo{Address: "0xabc123"},
		balance: decimal.NewFromInt(2),
	}
	d, _ := newTestDispatcher(p)

	out := d.Dispatch(context.Background(), "  POLL  ")
	assert.Equal(t, "success", out.Status)
}
