package provider

import (
	"context"

	"github.com/shopspring/decimal"
)

// WalletInfo 一个已连接钱包的快照。connect 成功时创建，disconnect 时清除。
type WalletInfo struct {
	Address      string           `json:"address"`
	ChainID      string           `json:"chain_id"` // EVM chain id 或 Solana genesis hash
	Balance      *decimal.Decimal `json:"balance,omitempty"`
	ProviderName string           `json:"provider_name"`
}

// Provider 钱包能力集，机器人钱包与用户钱包实现同一接口。
// 用户钱包不持有私钥，Sign/Send 永远返回 ErrUnsupportedOperation。
type Provider interface {
	// Connect 建立连接并返回钱包信息
	Connect(ctx context.Context) (*WalletInfo, error)

	// GetBalance 查询余额，要求先 Connect
	GetBalance(ctx context.Context, addr string) (decimal.Decimal, error)

	// SignMessage 本地签名消息
	SignMessage(ctx context.Context, message string) (string, error)

	// SendTransaction 构造、签名、广播并等待确认，返回交易哈希
	SendTransaction(ctx context.Context, to string, amount decimal.Decimal, data []byte) (string, error)

	// Disconnect 幂等；清除持有的状态
	Disconnect()

	// Info 当前连接信息，未连接时返回 nil
	Info() *WalletInfo
}
