package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agent-wallet/internal/chain"
	"agent-wallet/internal/provider"
	"agent-wallet/internal/status"
	"agent-wallet/pkg/errno"
	"agent-wallet/pkg/logger"
	"agent-wallet/pkg/monitor"
)

// Action 一次解析完成的钱包操作，校验通过后不再修改
type Action struct {
	Verb      string
	Message   string
	ToAddress string
	Amount    decimal.Decimal
	AssetID   string
}

// Outcome 每次 Dispatch 的终态。无论成功失败，总是恰好写一条状态记录。
type Outcome struct {
	Action  string
	Status  string // "success" | "failed"
	Details string
}

// Dispatcher 把紧凑命令串解析为类型化操作并路由到钱包能力。
// 流程: 解析 -> 校验 -> 执行；校验失败绝不触发网络调用。
type Dispatcher struct {
	provider provider.Provider
	adapter  chain.Adapter
	sink     status.Sink
	label    string // 状态记录标签, 如 "WalletStatus" / "WalletSolanaStatus"
}

func New(p provider.Provider, adapter chain.Adapter, sink status.Sink, label string) *Dispatcher {
	return &Dispatcher{
		provider: p,
		adapter:  adapter,
		sink:     sink,
		label:    label,
	}
}

// Dispatch 执行一条命令。语法: verb[":"arg]*
//
//	poll
//	sign:<message>            (message 内的冒号保留)
//	send:<to>                 (占位动作，永远引导到 transfer)
//	transfer:<to>:<amount>
func (d *Dispatcher) Dispatch(ctx context.Context, command string) Outcome {
	action, parseErr := d.parse(command)
	if parseErr != nil {
		return d.finish(action.Verb, "failed", "reason="+reasonOf(parseErr))
	}

	switch action.Verb {
	case "poll":
		return d.pollBalance(ctx, action)
	case "sign":
		return d.signMessage(ctx, action)
	case "send":
		// 故意的 API 引导，不是缺陷: send 永远失败并指向 transfer
		logger.Info("Use 'transfer' action for actual transfers")
		return d.finish("send", "failed", "reason=use_transfer_action_instead")
	case "transfer":
		return d.transfer(ctx, action)
	default:
		logger.Error("Unknown wallet action", zap.String("action", action.Verb))
		return d.finish(action.Verb, "failed", "reason=unknown_action")
	}
}

// parse 解析并校验；返回错误时 Action.Verb 仍然可用于状态记录
func (d *Dispatcher) parse(command string) (Action, error) {
	parts := strings.Split(strings.TrimSpace(command), ":")
	action := Action{
		Verb:    strings.ToLower(strings.TrimSpace(parts[0])),
		AssetID: d.adapter.AssetID(),
	}

	switch action.Verb {
	case "poll":
		return action, nil

	case "sign":
		if len(parts) < 2 {
			return action, errno.ErrMissingMessage
		}
		// 重新拼接，保留消息里的冒号
		action.Message = strings.Join(parts[1:], ":")
		if action.Message == "" {
			return action, errno.ErrMissingMessage
		}
		return action, nil

	case "send":
		if len(parts) < 2 || parts[1] == "" {
			return action, errno.ErrMissingParameters
		}
		action.ToAddress = parts[1]
		return action, nil

	case "transfer":
		if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
			return action, errno.ErrMissingParameters
		}
		action.ToAddress = parts[1]
		amount, err := decimal.NewFromString(parts[2])
		if err != nil {
			logger.Error("Invalid amount in transfer action", zap.String("raw", parts[2]))
			return action, errno.ErrInvalidAmount
		}
		if !amount.IsPositive() {
			return action, errno.ErrInvalidAmount
		}
		if err := d.adapter.ValidateAddress(action.ToAddress); err != nil {
			return action, errno.ErrInvalidAddress
		}
		action.Amount = amount
		return action, nil

	default:
		return action, errno.ErrUnknownAction
	}
}

func (d *Dispatcher) pollBalance(ctx context.Context, action Action) Outcome {
	info := d.provider.Info()
	if info == nil {
		logger.Error("Wallet not initialized")
		return d.finish("poll", "failed", "reason=wallet_not_initialized")
	}

	balance, err := d.provider.GetBalance(ctx, info.Address)
	if err != nil {
		logger.Error("Error polling balance", zap.Error(err))
		return d.finish("poll", "failed", "reason="+reasonOf(err))
	}

	logger.Info("Wallet balance",
		zap.String("balance", balance.String()),
		zap.String("asset", action.AssetID))
	return d.finish("poll", "success",
		fmt.Sprintf("balance=%s asset=%s address=%s", balance.String(), action.AssetID, info.Address))
}

func (d *Dispatcher) signMessage(ctx context.Context, action Action) Outcome {
	signature, err := d.provider.SignMessage(ctx, action.Message)
	if err != nil {
		logger.Error("Error signing message", zap.Error(err))
		return d.finish("sign", "failed", "reason="+reasonOf(err))
	}

	logger.Info("Message signed", zap.String("signature", signature))
	return d.finish("sign", "success", "signature="+signature)
}

func (d *Dispatcher) transfer(ctx context.Context, action Action) Outcome {
	txHash, err := d.provider.SendTransaction(ctx, action.ToAddress, action.Amount, nil)

	if errors.Is(err, errno.ErrConfirmationTimeout) {
		// 广播成功，确认未知 — 单独报告，不算失败也不算成功
		logger.Warn("Transfer broadcast, confirmation pending",
			zap.String("tx_hash", txHash),
			zap.String("to", action.ToAddress))
		return d.finish("transfer", "failed",
			fmt.Sprintf("reason=confirmation_timeout tx_hash=%s", txHash))
	}
	if err != nil {
		logger.Error("Error transferring assets", zap.Error(err))
		return d.finish("transfer", "failed", "reason="+reasonOf(err))
	}

	logger.Info("Transfer completed",
		zap.String("amount", action.Amount.String()),
		zap.String("asset", strings.ToUpper(action.AssetID)),
		zap.String("to", action.ToAddress),
		zap.String("tx_hash", txHash))
	return d.finish("transfer", "success",
		fmt.Sprintf("amount=%s asset=%s to=%s tx_hash=%s",
			action.Amount.String(), action.AssetID, action.ToAddress, txHash))
}

// finish 写入唯一一条状态记录并返回终态
func (d *Dispatcher) finish(action, result, details string) Outcome {
	message := fmt.Sprintf("action=%s status=%s", action, result)
	if details != "" {
		message += " " + details
	}
	d.sink.Write(d.label, message, time.Now())

	if monitor.Business != nil {
		monitor.Business.ActionDispatchTotal.WithLabelValues(action, result).Inc()
	}
	return Outcome{Action: action, Status: result, Details: details}
}

// reasonOf 把错误压成状态记录里的 reason 短语
func reasonOf(err error) string {
	switch {
	case errors.Is(err, errno.ErrNotConnected):
		return "wallet_not_initialized"
	case errors.Is(err, errno.ErrMissingMessage):
		return "missing_message"
	case errors.Is(err, errno.ErrMissingParameters):
		return "missing_parameters"
	case errors.Is(err, errno.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, errno.ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, errno.ErrUnsupportedOperation):
		return "unsupported_operation"
	case errors.Is(err, errno.ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, errno.ErrConfiguration):
		return "wallet_not_initialized"
	default:
		return strings.ReplaceAll(err.Error(), " ", "_")
	}
}
