package chain

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSolValidateAddress(t *testing.T) {
	a := NewSolAdapter()

	pub := solana.NewWallet().PublicKey()
	assert.NoError(t, a.ValidateAddress(pub.String()))

	invalid := []string{
		"",
		"not-base58-0OIl",
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", // EVM 地址
	}
	for _, addr := range invalid {
		assert.Error(t, a.ValidateAddress(addr), addr)
	}
}

func TestSolUnitConversion(t *testing.T) {
	a := NewSolAdapter()

	lamports := big.NewInt(1_500_000_000)
	assert.Equal(t, "1.5", a.FromBaseUnit(lamports).String())
	assert.Equal(t, lamports.String(), a.ToBaseUnit(decimal.RequireFromString("1.5")).String())
}

func TestSolParseKeyBase58(t *testing.T) {
	a := NewSolAdapter()
	w := solana.NewWallet()

	key, err := a.ParseKey(w.PrivateKey.String())
	assert.NoError(t, err)
	assert.Equal(t, w.PublicKey().String(), key.Address())

	_, err = a.ParseKey("not-a-key")
	assert.Error(t, err)
}

// JSON 字节数组格式 (solana-keygen 的 id.json)
func TestSolParseKeyJSONArray(t *testing.T) {
	a := NewSolAdapter()
	w := solana.NewWallet()

	ints := make([]int, len(w.PrivateKey))
	for i, b := range w.PrivateKey {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	assert.NoError(t, err)

	key, err := a.ParseKey(string(raw))
	assert.NoError(t, err)
	assert.Equal(t, w.PublicKey().String(), key.Address())

	// 长度错误的数组
	_, err = a.ParseKey("[1,2,3]")
	assert.Error(t, err)
}

// 签名用对应公钥可验证
func TestSolSignMessageVerifiable(t *testing.T) {
	a := NewSolAdapter()
	w := solana.NewWallet()

	key, err := a.ParseKey(w.PrivateKey.String())
	assert.NoError(t, err)

	msg := []byte("hello:solana")
	sigStr, err := key.SignMessage(msg)
	assert.NoError(t, err)

	sig := solana.MustSignatureFromBase58(sigStr)
	assert.True(t, sig.Verify(w.PublicKey(), msg))
}
