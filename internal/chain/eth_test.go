package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"agent-wallet/pkg/errno"
)

const testEthKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestEthValidateAddress(t *testing.T) {
	a := NewEthAdapter()

	// EIP-55 标准测试向量
	valid := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
		// 全小写 / 全大写跳过校验和
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED",
	}
	for _, addr := range valid {
		assert.NoError(t, a.ValidateAddress(addr), addr)
	}

	invalid := []string{
		"",
		"0x123",
		"5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",   // 缺 0x
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeg", // 非 hex 字符
		"0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", // 校验和错误
	}
	for _, addr := range invalid {
		assert.Error(t, a.ValidateAddress(addr), addr)
	}
}

func TestEthUnitConversion(t *testing.T) {
	a := NewEthAdapter()

	wei, ok := new(big.Int).SetString("1500000000000000000", 10)
	if !ok {
		t.Fatal("构造 wei 失败")
	}
	assert.Equal(t, "1.5", a.FromBaseUnit(wei).String())
	assert.Equal(t, wei.String(), a.ToBaseUnit(decimal.RequireFromString("1.5")).String())

	// 往返无损
	small := big.NewInt(1) // 1 wei
	assert.Equal(t, small.String(), a.ToBaseUnit(a.FromBaseUnit(small)).String())
}

func TestEthParseKey(t *testing.T) {
	a := NewEthAdapter()

	key, err := a.ParseKey(testEthKey)
	assert.NoError(t, err)

	// 带 0x 前缀等价
	key2, err := a.ParseKey("0x" + testEthKey)
	assert.NoError(t, err)
	assert.Equal(t, key.Address(), key2.Address())

	// 派生地址本身必须通过校验
	assert.NoError(t, a.ValidateAddress(key.Address()))

	_, err = a.ParseKey("not-hex")
	assert.Error(t, err)
	_, err = a.ParseKey("")
	assert.Error(t, err)
}

// 签名遵循 personal_sign: 可以用消息哈希恢复出签名地址
func TestEthSignMessageRecoverable(t *testing.T) {
	a := NewEthAdapter()
	key, err := a.ParseKey(testEthKey)
	assert.NoError(t, err)

	msg := []byte("hello:world")
	sigHex, err := key.SignMessage(msg)
	assert.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	assert.NoError(t, err)
	if len(sig) != 65 {
		t.Fatalf("签名长度应为 65 字节，得到 %d", len(sig))
	}
	// V 已调整为 27/28，恢复前还原
	sig[64] -= 27

	pub, err := crypto.SigToPub(accounts.TextHash(msg), sig)
	assert.NoError(t, err)
	assert.Equal(t, key.Address(), crypto.PubkeyToAddress(*pub).Hex())
}

// 回执查询偶发失败不算交易失败: 忍到出回执为止
func TestWaitForReceiptToleratesTransientErrors(t *testing.T) {
	calls := 0
	fetch := func(context.Context) (*ethtypes.Receipt, error) {
		calls++
		switch calls {
		case 1:
			return nil, errors.New("502 bad gateway")
		case 2:
			return nil, ethereum.NotFound
		default:
			return &ethtypes.Receipt{}, nil
		}
	}

	err := waitForReceipt(context.Background(), fetch, time.Millisecond, time.Second)
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWaitForReceiptTimeout(t *testing.T) {
	fetch := func(context.Context) (*ethtypes.Receipt, error) {
		return nil, errors.New("connection refused")
	}

	err := waitForReceipt(context.Background(), fetch, time.Millisecond, 10*time.Millisecond)
	assert.ErrorIs(t, err, errno.ErrConfirmationTimeout)
}
