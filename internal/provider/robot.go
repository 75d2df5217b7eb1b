package provider

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agent-wallet/internal/chain"
	"agent-wallet/internal/worker"
	"agent-wallet/pkg/errno"
	"agent-wallet/pkg/hdkey"
	"agent-wallet/pkg/logger"
	"agent-wallet/pkg/monitor"
)

// RobotConfig 机器人钱包配置，构造时读取一次
type RobotConfig struct {
	Secret         string // 私钥 (ETH: hex, SOL: base58/JSON 数组)
	Mnemonic       string // BIP-39 助记词, 仅 EVM; 与 Secret 二选一
	Endpoint       string // RPC endpoint
	ConfirmTimeout time.Duration
}

// RobotProvider 由本进程持有私钥直接控制的钱包。
// 配置缺失是致命的: initErr 一旦置位，Provider 永久不可用，不重试。
type RobotProvider struct {
	adapter chain.Adapter
	pool    *worker.Pool
	cfg     RobotConfig

	mu      sync.Mutex
	key     chain.Key
	client  chain.Client
	info    *WalletInfo
	initErr error
}

func NewRobotProvider(adapter chain.Adapter, pool *worker.Pool, cfg RobotConfig) *RobotProvider {
	p := &RobotProvider{
		adapter: adapter,
		pool:    pool,
		cfg:     cfg,
	}

	secret := cfg.Secret
	if secret == "" && cfg.Mnemonic != "" && adapter.Name() == "ETH" {
		derived, err := hdkey.EthKeyFromMnemonic(cfg.Mnemonic, "")
		if err != nil {
			logger.Error("助记词派生失败", zap.String("chain", adapter.Name()), zap.Error(err))
			p.initErr = errno.ErrConfiguration
			return p
		}
		secret = derived
	}

	if secret == "" {
		// 只记录一次，之后所有操作直接失败
		logger.Error("机器人钱包私钥未配置", zap.String("chain", adapter.Name()))
		p.initErr = errno.ErrConfiguration
		return p
	}

	key, err := adapter.ParseKey(secret)
	if err != nil {
		logger.Error("机器人钱包私钥解析失败", zap.String("chain", adapter.Name()), zap.Error(err))
		p.initErr = errno.ErrConfiguration
		return p
	}
	p.key = key
	return p
}

// Connect 建立 RPC 连接，校验可达性并拉取初始余额
func (p *RobotProvider) Connect(ctx context.Context) (*WalletInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initErr != nil {
		return nil, p.initErr
	}
	if p.info != nil {
		return p.info, nil
	}

	var (
		client  chain.Client
		chainID string
		balance decimal.Decimal
		opErr   error
	)
	err := p.pool.Run(ctx, func() {
		start := time.Now()
		defer p.observe("connect", start)

		client, opErr = p.adapter.Dial(ctx, p.cfg.Endpoint)
		if opErr != nil {
			return
		}
		// Dial 对 HTTP 端点是惰性的，用 ChainID 探测可达性
		chainID, opErr = client.ChainID(ctx)
		if opErr != nil {
			client.Close()
			return
		}
		balance, opErr = client.Balance(ctx, p.key.Address())
	})
	if err != nil {
		return nil, err
	}
	if opErr != nil {
		return nil, opErr
	}

	p.client = client
	p.info = &WalletInfo{
		Address:      p.key.Address(),
		ChainID:      chainID,
		Balance:      &balance,
		ProviderName: "robot_" + p.adapter.AssetID(),
	}

	logger.Info("机器人钱包已连接",
		zap.String("chain", p.adapter.Name()),
		zap.String("address", p.info.Address),
		zap.String("endpoint", p.cfg.Endpoint))
	return p.info, nil
}

func (p *RobotProvider) GetBalance(ctx context.Context, addr string) (decimal.Decimal, error) {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()
	if client == nil {
		return decimal.Zero, errno.ErrNotConnected
	}
	if err := p.adapter.ValidateAddress(addr); err != nil {
		return decimal.Zero, err
	}

	var (
		balance decimal.Decimal
		opErr   error
	)
	if err := p.pool.Run(ctx, func() {
		start := time.Now()
		defer p.observe("balance", start)
		balance, opErr = client.Balance(ctx, addr)
	}); err != nil {
		return decimal.Zero, err
	}
	return balance, opErr
}

// SignMessage 本地签名，无网络回路
func (p *RobotProvider) SignMessage(_ context.Context, message string) (string, error) {
	p.mu.Lock()
	connected := p.info != nil
	p.mu.Unlock()
	if !connected {
		return "", errno.ErrNotConnected
	}
	return p.key.SignMessage([]byte(message))
}

func (p *RobotProvider) SendTransaction(ctx context.Context, to string, amount decimal.Decimal, data []byte) (string, error) {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()
	if client == nil {
		return "", errno.ErrNotConnected
	}
	if err := p.adapter.ValidateAddress(to); err != nil {
		return "", err
	}
	if !amount.IsPositive() {
		return "", errno.ErrInvalidAmount
	}

	var (
		txHash string
		opErr  error
	)
	if err := p.pool.Run(ctx, func() {
		start := time.Now()
		defer p.observe("transfer", start)
		txHash, opErr = client.Transfer(ctx, p.key, to, amount, data, p.cfg.ConfirmTimeout)
	}); err != nil {
		return "", err
	}
	return txHash, opErr
}

// Disconnect 幂等，清除连接状态
func (p *RobotProvider) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	p.info = nil
	logger.Info("机器人钱包已断开", zap.String("chain", p.adapter.Name()))
}

func (p *RobotProvider) Info() *WalletInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info
}

// Scanner 返回底层客户端的交易扫描能力 (仅支持的链, 目前是 SOL)
func (p *RobotProvider) Scanner() (chain.TxScanner, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sc, ok := p.client.(chain.TxScanner)
	return sc, ok
}

// Adapter 暴露链适配器供上层做校验与单位转换
func (p *RobotProvider) Adapter() chain.Adapter {
	return p.adapter
}

func (p *RobotProvider) observe(op string, start time.Time) {
	if monitor.Business != nil {
		monitor.Business.RPCDuration.WithLabelValues(p.adapter.Name(), op).Observe(time.Since(start).Seconds())
	}
}
