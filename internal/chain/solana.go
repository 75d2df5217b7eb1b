package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"agent-wallet/pkg/errno"
)

const (
	solDecimals = 9
	// 查询签名确认状态的轮询间隔
	solStatusPollInterval = 2 * time.Second
)

// SolAdapter Solana 系链适配器
type SolAdapter struct{}

func NewSolAdapter() *SolAdapter {
	return &SolAdapter{}
}

func (a *SolAdapter) Name() string    { return "SOL" }
func (a *SolAdapter) AssetID() string { return "sol" }

func (a *SolAdapter) ValidateAddress(addr string) error {
	if _, err := solana.PublicKeyFromBase58(addr); err != nil {
		return errno.ErrInvalidAddress
	}
	return nil
}

func (a *SolAdapter) FromBaseUnit(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, -solDecimals)
}

func (a *SolAdapter) ToBaseUnit(d decimal.Decimal) *big.Int {
	return d.Shift(solDecimals).BigInt()
}

// ParseKey 支持 base58 字符串和 JSON 字节数组 ([1,2,...]) 两种私钥格式
func (a *SolAdapter) ParseKey(secret string) (Key, error) {
	secret = strings.TrimSpace(secret)

	if strings.HasPrefix(secret, "[") {
		// JSON array format: [1,2,3,...]
		var ints []int
		if err := json.Unmarshal([]byte(secret), &ints); err != nil {
			return nil, fmt.Errorf("%w: %v", errno.ErrConfiguration, err)
		}
		raw := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: key byte out of range", errno.ErrConfiguration)
			}
			raw[i] = byte(v)
		}
		if len(raw) != 64 {
			return nil, fmt.Errorf("%w: ed25519 key must be 64 bytes, got %d", errno.ErrConfiguration, len(raw))
		}
		return &solKey{priv: solana.PrivateKey(raw)}, nil
	}

	priv, err := solana.PrivateKeyFromBase58(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrConfiguration, err)
	}
	return &solKey{priv: priv}, nil
}

func (a *SolAdapter) Dial(ctx context.Context, endpoint string) (Client, error) {
	c := rpc.New(endpoint)
	return &solChainClient{c: c, adapter: a}, nil
}

type solKey struct {
	priv solana.PrivateKey
}

func (k *solKey) Address() string {
	return k.priv.PublicKey().String()
}

// SignMessage ed25519 签名，返回 base58
func (k *solKey) SignMessage(msg []byte) (string, error) {
	sig, err := k.priv.Sign(msg)
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}

type solChainClient struct {
	c       *rpc.Client
	adapter *SolAdapter
}

// ChainID 返回 genesis hash 作为集群标识
func (s *solChainClient) ChainID(ctx context.Context) (string, error) {
	hash, err := s.c.GetGenesisHash(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errno.ErrConnection, err)
	}
	return hash.String(), nil
}

func (s *solChainClient) Balance(ctx context.Context, addr string) (decimal.Decimal, error) {
	pub, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return decimal.Zero, errno.ErrInvalidAddress
	}
	out, err := s.c.GetBalance(ctx, pub, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", errno.ErrTransientNetwork, err)
	}
	return s.adapter.FromBaseUnit(new(big.Int).SetUint64(out.Value)), nil
}

func (s *solChainClient) Transfer(ctx context.Context, key Key, to string, amount decimal.Decimal, data []byte, confirmWait time.Duration) (string, error) {
	k, ok := key.(*solKey)
	if !ok {
		return "", errno.ErrConfiguration
	}
	from := k.priv.PublicKey()
	toPub, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", errno.ErrInvalidAddress
	}

	lamports := s.adapter.ToBaseUnit(amount).Uint64()
	ix := system.NewTransferInstruction(lamports, from, toPub).Build()

	recent, err := s.c.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("%w: blockhash: %v", errno.ErrTransientNetwork, err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		recent.Value.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return "", err
	}

	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(from) {
			return &k.priv
		}
		return nil
	}); err != nil {
		return "", err
	}

	sig, err := s.c.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("%w: broadcast: %v", errno.ErrTransientNetwork, err)
	}

	// 等待确认。超时后同样不能重发
	return sig.String(), s.waitConfirmed(ctx, sig, confirmWait)
}

func (s *solChainClient) waitConfirmed(ctx context.Context, sig solana.Signature, confirmWait time.Duration) error {
	deadline := time.Now().Add(confirmWait)
	ticker := time.NewTicker(solStatusPollInterval)
	defer ticker.Stop()

	for {
		out, err := s.c.GetSignatureStatuses(ctx, true, sig)
		if err == nil && len(out.Value) > 0 && out.Value[0] != nil {
			st := out.Value[0].ConfirmationStatus
			if st == rpc.ConfirmationStatusConfirmed || st == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return errno.ErrConfirmationTimeout
		}
		select {
		case <-ctx.Done():
			return errno.ErrConfirmationTimeout
		case <-ticker.C:
		}
	}
}

// Signatures 列出账户最近的交易签名，从新到旧
func (s *solChainClient) Signatures(ctx context.Context, addr string, limit int) ([]SignatureInfo, error) {
	pub, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return nil, errno.ErrInvalidAddress
	}
	out, err := s.c.GetSignaturesForAddressWithOpts(ctx, pub, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrTransientNetwork, err)
	}

	infos := make([]SignatureInfo, 0, len(out))
	for _, si := range out {
		info := SignatureInfo{
			Signature: si.Signature.String(),
			Slot:      si.Slot,
		}
		if si.BlockTime != nil {
			info.BlockTime = si.BlockTime.Time()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// BalanceDelta 计算 addr 在该笔交易中的 pre/post 余额差
func (s *solChainClient) BalanceDelta(ctx context.Context, signature, addr string) (decimal.Decimal, bool, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return decimal.Zero, false, errno.ErrInvalidAddress
	}
	pub, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return decimal.Zero, false, errno.ErrInvalidAddress
	}

	maxVersion := uint64(0)
	out, err := s.c.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: %v", errno.ErrTransientNetwork, err)
	}
	if out == nil || out.Meta == nil {
		return decimal.Zero, false, nil
	}

	decoded, err := out.Transaction.GetTransaction()
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("decode transaction: %w", err)
	}

	// 定位账户在交易参与者中的下标
	index := -1
	for i, k := range decoded.Message.AccountKeys {
		if k.Equals(pub) {
			index = i
			break
		}
	}
	if index < 0 || index >= len(out.Meta.PreBalances) || index >= len(out.Meta.PostBalances) {
		// 账户未参与该交易，跳过
		return decimal.Zero, false, nil
	}

	pre := new(big.Int).SetUint64(out.Meta.PreBalances[index])
	post := new(big.Int).SetUint64(out.Meta.PostBalances[index])
	delta := s.adapter.FromBaseUnit(new(big.Int).Sub(post, pre))
	return delta, true, nil
}

func (s *solChainClient) Close() {
	_ = s.c.Close()
}
