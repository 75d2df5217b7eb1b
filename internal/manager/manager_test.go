package manager

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"agent-wallet/internal/chain"
	"agent-wallet/internal/provider"
	"agent-wallet/internal/status"
	"agent-wallet/internal/worker"
	"agent-wallet/pkg/errno"
)

// 机器人 Provider 不配置私钥: 永久 ErrConfiguration，
// 足够测试 Manager 自身的编排逻辑而不碰网络
func newTestManager() (*Manager, *status.MemorySink) {
	pool := worker.NewPool(1)
	robot := provider.NewRobotProvider(chain.NewEthAdapter(), pool, provider.RobotConfig{})
	sink := status.NewMemorySink()
	return New(robot, provider.NewUserProvider(), sink), sink
}

func TestConnectUserWallet(t *testing.T) {
	m, sink := newTestManager()

	balance := decimal.RequireFromString("1.5")
	m.ConnectUserWallet("0xAbC123", "8453", &balance)

	assert.True(t, m.IsUserConnected())
	info := m.UserInfo()
	assert.Equal(t, "0xAbC123", info.Address)
	assert.Equal(t, "8453", info.ChainID)
	assert.Equal(t, "user_browser", info.ProviderName)

	records := sink.Records()
	assert.Len(t, records, 1)
	assert.Contains(t, records[0].Message, "action=connect status=success")
	assert.Contains(t, records[0].Message, "role=user")
}

func TestDisconnectUserWallet(t *testing.T) {
	m, _ := newTestManager()
	m.ConnectUserWallet("0xAbC123", "8453", nil)

	m.DisconnectUserWallet()

	assert.False(t, m.IsUserConnected())
	assert.Nil(t, m.UserInfo())

	// 断开后的出处校验直接失败
	r := m.ProcessUserSignature("msg", "sig", "0xAbC123")
	assert.Equal(t, "error", r.Status)
}

func TestProcessUserSignature(t *testing.T) {
	m, _ := newTestManager()
	m.ConnectUserWallet("0xAbC123", "8453", nil)

	r := m.ProcessUserSignature("hello", "0xsig", "0xAbC123")

	assert.Equal(t, "success", r.Status)
	assert.Equal(t, "hello", r.Data["message"])
	assert.Equal(t, "0xsig", r.Data["signature"])
}

// 出处校验大小写不敏感
func TestProcessUserSignatureCaseInsensitive(t *testing.T) {
	m, _ := newTestManager()
	m.ConnectUserWallet("0xAbC123", "8453", nil)

	r := m.ProcessUserSignature("hello", "0xsig", "0xabc123")
	assert.Equal(t, "success", r.Status)
}

func TestProcessUserSignatureMismatch(t *testing.T) {
	m, sink := newTestManager()
	m.ConnectUserWallet("0xAbC123", "8453", nil)

	r := m.ProcessUserSignature("hello", "0xsig", "0xDeadBeef")

	assert.Equal(t, "error", r.Status)
	assert.Equal(t, errno.ErrProvenanceMismatch.Message, r.Message)

	last := sink.Records()[len(sink.Records())-1]
	assert.Contains(t, last.Message, "reason=address_mismatch")
}

func TestProcessUserTransactionAppendsRecord(t *testing.T) {
	m, _ := newTestManager()
	m.ConnectUserWallet("0xAbC123", "8453", nil)

	amount := decimal.RequireFromString("0.5")
	r := m.ProcessUserTransaction("0xAbC123", "0xDef456", amount, "0xhash")

	assert.Equal(t, "success", r.Status)
	records := m.Records()
	if len(records) != 1 {
		t.Fatalf("期望 1 条交易记录，得到 %d 条", len(records))
	}
	assert.Equal(t, "0xDef456", records[0].To)
	assert.Equal(t, "0xhash", records[0].Hash)
	assert.True(t, records[0].Amount.Equal(amount))
}

// 出处校验失败不会留下交易记录
func TestProcessUserTransactionMismatchNoRecord(t *testing.T) {
	m, _ := newTestManager()
	m.ConnectUserWallet("0xAbC123", "8453", nil)

	r := m.ProcessUserTransaction("0xOther", "0xDef456", decimal.NewFromInt(1), "0xhash")

	assert.Equal(t, "error", r.Status)
	assert.Empty(t, m.Records())
}

func TestRobotOperationsRequireConnection(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.RobotSignMessage(context.Background(), "hello")
	assert.ErrorIs(t, err, errno.ErrNotConnected)

	_, err = m.RobotSendTransaction(context.Background(), "0xDef456", decimal.NewFromInt(1), nil)
	assert.ErrorIs(t, err, errno.ErrNotConnected)

	_, err = m.RobotGetBalance(context.Background(), "0xDef456")
	assert.ErrorIs(t, err, errno.ErrNotConnected)
}

// 私钥未配置时 Connect 永久失败
func TestConnectRobotWalletConfigError(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.ConnectRobotWallet(context.Background())
	assert.ErrorIs(t, err, errno.ErrConfiguration)
	assert.False(t, m.IsRobotConnected())

	// 重试也不会恢复
	_, err = m.ConnectRobotWallet(context.Background())
	assert.ErrorIs(t, err, errno.ErrConfiguration)
}

// 机器人连接在途时不能把读路径一起锁住
func TestConnectRobotWalletDoesNotBlockReads(t *testing.T) {
	pool := worker.NewPool(1)
	defer pool.Close()
	robot := provider.NewRobotProvider(chain.NewEthAdapter(), pool, provider.RobotConfig{
		Secret: "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	})
	m := New(robot, provider.NewUserProvider(), status.NewMemorySink())

	// 占住唯一的 worker, Connect 的拨号任务只能排队
	release := make(chan struct{})
	started := make(chan struct{})
	go pool.Run(context.Background(), func() {
		close(started)
		<-release
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	connectDone := make(chan struct{})
	go func() {
		_, _ = m.ConnectRobotWallet(ctx)
		close(connectDone)
	}()

	// Connect 还挂着, 状态查询必须立刻返回
	readDone := make(chan bool, 1)
	go func() { readDone <- m.IsRobotConnected() }()
	select {
	case v := <-readDone:
		assert.False(t, v)
	case <-time.After(time.Second):
		t.Fatal("IsRobotConnected 被进行中的 Connect 阻塞")
	}

	cancel()
	close(release)
	<-connectDone
}
