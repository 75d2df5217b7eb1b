package manager

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agent-wallet/internal/provider"
	"agent-wallet/internal/status"
	"agent-wallet/pkg/errno"
	"agent-wallet/pkg/logger"
)

const statusLabel = "WalletManager"

// balanceCacheTTL 短 TTL 余额读缓存，挡住推理循环连续 poll 打爆 RPC
const balanceCacheTTL = 10 * time.Second

// Result 浏览器桥接操作的结构化结果
type Result struct {
	Status  string            `json:"status"` // "success" | "error"
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}

// TransactionRecord 追加式交易遥测记录，只增不改，仅供 UI/遥测
type TransactionRecord struct {
	Chain     string          `json:"chain"`
	From      string          `json:"from"`
	To        string          `json:"to,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Hash      string          `json:"hash,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Manager 编排一个机器人钱包 (私钥在本进程) 和一个用户钱包 (浏览器镜像)。
// connect/disconnect 互斥，保证 WalletInfo 不会被并发写半套。
type Manager struct {
	mu    sync.Mutex
	robot *provider.RobotProvider
	user  *provider.UserProvider

	robotConnected bool
	userConnected  bool

	balances *gocache.Cache
	sink     status.Sink

	recordsMu sync.Mutex
	records   []TransactionRecord
}

func New(robot *provider.RobotProvider, user *provider.UserProvider, sink status.Sink) *Manager {
	return &Manager{
		robot:    robot,
		user:     user,
		balances: gocache.New(balanceCacheTTL, time.Minute),
		sink:     sink,
	}
}

// ConnectRobotWallet 连接机器人钱包；错误原样上抛
func (m *Manager) ConnectRobotWallet(ctx context.Context) (*provider.WalletInfo, error) {
	// 网络往返放在锁外，连接期间不挡住 IsRobotConnected 和用户链路
	info, err := m.robot.Connect(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.robotConnected = true
	m.mu.Unlock()

	logger.Info("Robot wallet connected", zap.String("address", info.Address))
	m.writeStatus("connect", "success", "role=robot address="+info.Address)
	return info, nil
}

// ConnectUserWallet 记录浏览器侧已完成的连接，无网络调用，幂等覆盖
func (m *Manager) ConnectUserWallet(addr, chainID string, balance *decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.user.SetWalletInfo(addr, chainID, balance)
	m.userConnected = true
	logger.Info("User wallet connected", zap.String("address", addr))
	m.writeStatus("connect", "success", "role=user address="+addr)
}

// DisconnectRobotWallet 断开机器人钱包，从不失败
func (m *Manager) DisconnectRobotWallet() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.robot.Disconnect()
	m.robotConnected = false
	m.balances.Flush()
	m.writeStatus("disconnect", "success", "role=robot")
}

// DisconnectUserWallet 断开用户钱包，从不失败
func (m *Manager) DisconnectUserWallet() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user.Disconnect()
	m.userConnected = false
	m.writeStatus("disconnect", "success", "role=user")
}

func (m *Manager) IsRobotConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.robotConnected
}

func (m *Manager) IsUserConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userConnected
}

// RobotSignMessage 机器人钱包签名
func (m *Manager) RobotSignMessage(ctx context.Context, message string) (string, error) {
	if !m.IsRobotConnected() {
		return "", errno.ErrNotConnected
	}
	return m.robot.SignMessage(ctx, message)
}

// RobotSendTransaction 机器人钱包转账
func (m *Manager) RobotSendTransaction(ctx context.Context, to string, amount decimal.Decimal, data []byte) (string, error) {
	if !m.IsRobotConnected() {
		return "", errno.ErrNotConnected
	}
	txHash, err := m.robot.SendTransaction(ctx, to, amount, data)
	if txHash != "" {
		// 确认超时也记录: 交易已广播
		m.appendRecord(TransactionRecord{
			Chain:     m.robot.Adapter().Name(),
			From:      m.robotAddress(),
			To:        to,
			Amount:    amount,
			Hash:      txHash,
			Timestamp: time.Now(),
		})
	}
	return txHash, err
}

// RobotGetBalance 机器人钱包余额查询，带短 TTL 读缓存
func (m *Manager) RobotGetBalance(ctx context.Context, addr string) (decimal.Decimal, error) {
	if !m.IsRobotConnected() {
		return decimal.Zero, errno.ErrNotConnected
	}
	if cached, ok := m.balances.Get(addr); ok {
		return cached.(decimal.Decimal), nil
	}
	balance, err := m.robot.GetBalance(ctx, addr)
	if err != nil {
		return decimal.Zero, err
	}
	m.balances.SetDefault(addr, balance)
	return balance, nil
}

// ProcessUserSignature 校验浏览器上报的签名出处。
// 这里只做出处校验 (地址是否等于当前绑定的用户地址，大小写不敏感)，
// 不做密码学验签 — 签名本身由上游或链上提交时验证。
func (m *Manager) ProcessUserSignature(message, signature, fromAddress string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.userConnected {
		return Result{Status: "error", Message: errno.ErrNotConnected.Message}
	}
	info := m.user.Info()
	if info == nil || !strings.EqualFold(info.Address, fromAddress) {
		m.writeStatus("user_sign", "failed", "reason=address_mismatch from="+fromAddress)
		return Result{Status: "error", Message: errno.ErrProvenanceMismatch.Message}
	}

	logger.Info("User signature processed",
		zap.String("from", fromAddress),
		zap.String("message", message))
	m.writeStatus("user_sign", "success", "from="+fromAddress)

	return Result{
		Status:  "success",
		Message: "Signature verified and processed",
		Data: map[string]string{
			"from_address": fromAddress,
			"message":      message,
			"signature":    signature,
		},
	}
}

// ProcessUserTransaction 校验浏览器上报的交易出处，同上只查地址绑定
func (m *Manager) ProcessUserTransaction(fromAddress, toAddress string, amount decimal.Decimal, txHash string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.userConnected {
		return Result{Status: "error", Message: errno.ErrNotConnected.Message}
	}
	info := m.user.Info()
	if info == nil || !strings.EqualFold(info.Address, fromAddress) {
		m.writeStatus("user_transaction", "failed", "reason=address_mismatch from="+fromAddress)
		return Result{Status: "error", Message: errno.ErrProvenanceMismatch.Message}
	}

	m.appendRecord(TransactionRecord{
		Chain:     info.ChainID,
		From:      fromAddress,
		To:        toAddress,
		Amount:    amount,
		Hash:      txHash,
		Timestamp: time.Now(),
	})

	logger.Info("User transaction processed",
		zap.String("from", fromAddress),
		zap.String("to", toAddress),
		zap.String("amount", amount.String()),
		zap.String("tx_hash", txHash))
	m.writeStatus("user_transaction", "success",
		fmt.Sprintf("from=%s to=%s amount=%s tx_hash=%s", fromAddress, toAddress, amount.String(), txHash))

	return Result{
		Status:  "success",
		Message: "Transaction verified and processed",
		Data: map[string]string{
			"from_address": fromAddress,
			"to_address":   toAddress,
			"amount":       amount.String(),
			"tx_hash":      txHash,
		},
	}
}

// Records 返回交易遥测记录快照
func (m *Manager) Records() []TransactionRecord {
	m.recordsMu.Lock()
	defer m.recordsMu.Unlock()
	out := make([]TransactionRecord, len(m.records))
	copy(out, m.records)
	return out
}

// UserInfo 当前镜像的用户钱包信息
func (m *Manager) UserInfo() *provider.WalletInfo {
	return m.user.Info()
}

// RobotInfo 当前机器人钱包信息
func (m *Manager) RobotInfo() *provider.WalletInfo {
	return m.robot.Info()
}

func (m *Manager) appendRecord(r TransactionRecord) {
	m.recordsMu.Lock()
	defer m.recordsMu.Unlock()
	m.records = append(m.records, r)
}

func (m *Manager) robotAddress() string {
	if info := m.robot.Info(); info != nil {
		return info.Address
	}
	return ""
}

func (m *Manager) writeStatus(action, result, details string) {
	if m.sink == nil {
		return
	}
	message := fmt.Sprintf("action=%s status=%s", action, result)
	if details != "" {
		message += " " + details
	}
	m.sink.Write(statusLabel, message, time.Now())
}
