package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Adapter 抽象一条链的常量与基础能力: 原生单位换算、地址校验、
// 密钥解析与 RPC 客户端创建。WalletProvider 通过它屏蔽链差异。
type Adapter interface {
	// Name returns the chain identifier, e.g. "ETH", "SOL".
	Name() string

	// AssetID returns the default asset id for status records, e.g. "eth", "sol".
	AssetID() string

	// ValidateAddress 在任何网络调用之前做格式校验
	ValidateAddress(addr string) error

	// FromBaseUnit converts the chain's base unit (wei / lamports) to display units.
	FromBaseUnit(v *big.Int) decimal.Decimal

	// ToBaseUnit converts display units to the chain's base unit.
	ToBaseUnit(d decimal.Decimal) *big.Int

	// ParseKey 解析配置中的私钥并派生地址。格式错误视为配置错误。
	ParseKey(secret string) (Key, error)

	// Dial 建立 RPC 连接
	Dial(ctx context.Context, endpoint string) (Client, error)
}

// Key 一把已加载的私钥
type Key interface {
	// Address returns the derived account address.
	Address() string

	// SignMessage 本地签名，无网络调用。返回链惯用的编码 (ETH: hex, SOL: base58)。
	SignMessage(msg []byte) (string, error)
}

// Client 一条链的在线能力
type Client interface {
	// ChainID returns the chain id (EVM) or genesis hash (Solana cluster).
	ChainID(ctx context.Context) (string, error)

	// Balance 查询地址余额 (显示单位)
	Balance(ctx context.Context, addr string) (decimal.Decimal, error)

	// Transfer 构造、签名并广播一笔原生转账，等待确认至多 confirmWait。
	// 广播成功但确认超时: 返回交易哈希和 errno.ErrConfirmationTimeout —
	// 调用方绝不能凭此重新广播。
	Transfer(ctx context.Context, key Key, to string, amount decimal.Decimal, data []byte, confirmWait time.Duration) (string, error)

	Close()
}

// SignatureInfo 一条交易签名引用
type SignatureInfo struct {
	Signature string
	Slot      uint64
	BlockTime time.Time
}

// TxScanner 支持按账户列出交易历史的链 (scan 模式检测依赖它)。
// Signatures 必须按从新到旧排列 — 游标终止规则依赖这一上游保证，
// 若乱序会漏交易 (已知外部假设，不在此补救)。
type TxScanner interface {
	// Signatures returns at most limit recent signatures for addr, newest first.
	Signatures(ctx context.Context, addr string, limit int) ([]SignatureInfo, error)

	// BalanceDelta 返回 addr 在该笔交易中的余额变化 (显示单位)。
	// 账户未参与该交易时返回 found=false (不是错误)。
	BalanceDelta(ctx context.Context, signature, addr string) (delta decimal.Decimal, found bool, err error)
}
