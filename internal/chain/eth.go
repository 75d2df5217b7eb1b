package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agent-wallet/pkg/address"
	"agent-wallet/pkg/errno"
	"agent-wallet/pkg/logger"
)

const (
	ethDecimals = 18
	// 标准原生转账的 Gas 上限
	ethTransferGasLimit = uint64(21000)
	// 查询回执的轮询间隔
	ethReceiptPollInterval = 2 * time.Second
)

// EthAdapter 以太坊系链 (EVM) 适配器
type EthAdapter struct{}

func NewEthAdapter() *EthAdapter {
	return &EthAdapter{}
}

func (a *EthAdapter) Name() string    { return "ETH" }
func (a *EthAdapter) AssetID() string { return "eth" }

func (a *EthAdapter) ValidateAddress(addr string) error {
	if !address.IsHexAddress(addr) {
		return errno.ErrInvalidAddress
	}
	// 混合大小写地址必须通过 EIP-55 校验
	if !address.VerifyChecksum(addr) {
		return errno.ErrInvalidAddress
	}
	return nil
}

func (a *EthAdapter) FromBaseUnit(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, -ethDecimals)
}

func (a *EthAdapter) ToBaseUnit(d decimal.Decimal) *big.Int {
	return d.Shift(ethDecimals).BigInt()
}

// ParseKey 解析十六进制私钥 (0x 前缀可选)
func (a *EthAdapter) ParseKey(secret string) (Key, error) {
	secret = strings.TrimPrefix(strings.TrimSpace(secret), "0x")
	priv, err := crypto.HexToECDSA(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrConfiguration, err)
	}
	return &ethKey{priv: priv}, nil
}

func (a *EthAdapter) Dial(ctx context.Context, endpoint string) (Client, error) {
	c, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrConnection, err)
	}
	return &ethChainClient{c: c, adapter: a}, nil
}

type ethKey struct {
	priv *ecdsa.PrivateKey
}

func (k *ethKey) Address() string {
	return crypto.PubkeyToAddress(k.priv.PublicKey).Hex()
}

// SignMessage 按 EIP-191 personal message 前缀签名，返回 0x 开头的 hex
func (k *ethKey) SignMessage(msg []byte) (string, error) {
	hash := accounts.TextHash(msg)
	sig, err := crypto.Sign(hash, k.priv)
	if err != nil {
		return "", err
	}
	// V: 0/1 -> 27/28，与浏览器钱包返回的格式一致
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

type ethChainClient struct {
	c       *ethclient.Client
	adapter *EthAdapter
}

func (e *ethChainClient) ChainID(ctx context.Context) (string, error) {
	id, err := e.c.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errno.ErrConnection, err)
	}
	return id.String(), nil
}

func (e *ethChainClient) Balance(ctx context.Context, addr string) (decimal.Decimal, error) {
	wei, err := e.c.BalanceAt(ctx, common.HexToAddress(addr), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", errno.ErrTransientNetwork, err)
	}
	return e.adapter.FromBaseUnit(wei), nil
}

func (e *ethChainClient) Transfer(ctx context.Context, key Key, to string, amount decimal.Decimal, data []byte, confirmWait time.Duration) (string, error) {
	k, ok := key.(*ethKey)
	if !ok {
		return "", errno.ErrConfiguration
	}
	from := crypto.PubkeyToAddress(k.priv.PublicKey)
	toAddr := common.HexToAddress(to)

	nonce, err := e.c.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("%w: nonce: %v", errno.ErrTransientNetwork, err)
	}
	gasPrice, err := e.c.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: gas price: %v", errno.ErrTransientNetwork, err)
	}
	chainID, err := e.c.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: chain id: %v", errno.ErrTransientNetwork, err)
	}

	gasLimit := ethTransferGasLimit
	if len(data) > 0 {
		est, err := e.c.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &toAddr, Value: e.adapter.ToBaseUnit(amount), Data: data})
		if err == nil {
			gasLimit = est
		}
	}

	tx := ethtypes.NewTransaction(nonce, toAddr, e.adapter.ToBaseUnit(amount), gasLimit, gasPrice, data)

	signer := ethtypes.NewEIP155Signer(chainID)
	signedTx, err := ethtypes.SignTx(tx, signer, k.priv)
	if err != nil {
		return "", err
	}

	if err := e.c.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("%w: broadcast: %v", errno.ErrTransientNetwork, err)
	}
	txHash := signedTx.Hash()

	// 等待上链。注意: 超时后绝不重发，交易已广播
	return txHash.Hex(), e.waitMined(ctx, txHash, confirmWait)
}

func (e *ethChainClient) waitMined(ctx context.Context, txHash common.Hash, confirmWait time.Duration) error {
	return waitForReceipt(ctx, func(ctx context.Context) (*ethtypes.Receipt, error) {
		return e.c.TransactionReceipt(ctx, txHash)
	}, ethReceiptPollInterval, confirmWait)
}

// waitForReceipt 轮询回执直到出现或超时。交易已在链上广播，单次查询
// 失败 (节点抖动) 不能当成发送失败上报，记一条日志继续等
func waitForReceipt(ctx context.Context, fetch func(context.Context) (*ethtypes.Receipt, error), pollInterval, confirmWait time.Duration) error {
	deadline := time.Now().Add(confirmWait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := fetch(ctx)
		if receipt != nil {
			return nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			logger.Warn("查询回执失败，继续等待", zap.Error(err))
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

func (e *ethChainClient) Close() {
	e.c.Close()
}
