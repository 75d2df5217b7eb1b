package provider

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"agent-wallet/pkg/errno"
)

func TestUserProviderLifecycle(t *testing.T) {
	p := NewUserProvider()

	// 浏览器上报之前一律未连接
	_, err := p.Connect(context.Background())
	assert.ErrorIs(t, err, errno.ErrNotConnected)
	assert.Nil(t, p.Info())

	balance := decimal.RequireFromString("2.5")
	p.SetWalletInfo("0xAbC", "1", &balance)

	info, err := p.Connect(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "0xAbC", info.Address)
	assert.Equal(t, "user_browser", info.ProviderName)

	got, err := p.GetBalance(context.Background(), "0xAbC")
	assert.NoError(t, err)
	assert.True(t, got.Equal(balance))

	p.Disconnect()
	assert.Nil(t, p.Info())
}

// 浏览器没报余额: 返回 0 而不是错误
func TestUserProviderBalanceUnavailable(t *testing.T) {
	p := NewUserProvider()
	p.SetWalletInfo("0xAbC", "1", nil)

	got, err := p.GetBalance(context.Background(), "0xAbC")
	assert.NoError(t, err)
	assert.True(t, got.IsZero())
}

// 私钥在浏览器里，后端永远不能代签
func TestUserProviderCannotSignOrSend(t *testing.T) {
	p := NewUserProvider()
	p.SetWalletInfo("0xAbC", "1", nil)

	_, err := p.SignMessage(context.Background(), "hello")
	assert.ErrorIs(t, err, errno.ErrUnsupportedOperation)

	_, err = p.SendTransaction(context.Background(), "0xDef", decimal.NewFromInt(1), nil)
	assert.ErrorIs(t, err, errno.ErrUnsupportedOperation)
}

// SetWalletInfo 幂等覆盖旧状态
func TestUserProviderReconnectOverwrites(t *testing.T) {
	p := NewUserProvider()
	p.SetWalletInfo("0xAbC", "1", nil)
	p.SetWalletInfo("0xDef", "8453", nil)

	info := p.Info()
	assert.Equal(t, "0xDef", info.Address)
	assert.Equal(t, "8453", info.ChainID)
}
