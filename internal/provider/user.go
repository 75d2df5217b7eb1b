package provider

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agent-wallet/pkg/errno"
	"agent-wallet/pkg/logger"
)

// UserProvider 人类用户的钱包: 状态从浏览器会话镜像过来，
// 私钥永远留在浏览器 (MetaMask / WalletConnect)，后端不可代签。
type UserProvider struct {
	mu   sync.Mutex
	info *WalletInfo
}

func NewUserProvider() *UserProvider {
	return &UserProvider{}
}

// Connect 真正的连接发生在浏览器侧；这里只返回已镜像的信息
func (p *UserProvider) Connect(_ context.Context) (*WalletInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.info == nil {
		return nil, errno.ErrNotConnected
	}
	return p.info, nil
}

// SetWalletInfo 写入浏览器上报的钱包信息，幂等覆盖
func (p *UserProvider) SetWalletInfo(addr, chainID string, balance *decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info = &WalletInfo{
		Address:      addr,
		ChainID:      chainID,
		Balance:      balance,
		ProviderName: "user_browser",
	}
	logger.Info("用户钱包信息已更新", zap.String("address", addr), zap.String("chain_id", chainID))
}

// GetBalance 返回浏览器镜像的余额；浏览器没报就是 0
func (p *UserProvider) GetBalance(_ context.Context, _ string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.info == nil {
		return decimal.Zero, errno.ErrNotConnected
	}
	if p.info.Balance == nil {
		logger.Warn("用户钱包余额不可用")
		return decimal.Zero, nil
	}
	return *p.info.Balance, nil
}

// SignMessage 用户钱包签名必须发生在浏览器
func (p *UserProvider) SignMessage(_ context.Context, _ string) (string, error) {
	return "", errno.ErrUnsupportedOperation
}

// SendTransaction 用户钱包交易必须发生在浏览器
func (p *UserProvider) SendTransaction(_ context.Context, _ string, _ decimal.Decimal, _ []byte) (string, error) {
	return "", errno.ErrUnsupportedOperation
}

func (p *UserProvider) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info = nil
	logger.Info("用户钱包已断开")
}

func (p *UserProvider) Info() *WalletInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info
}
