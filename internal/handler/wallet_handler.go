package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"agent-wallet/internal/dispatcher"
	"agent-wallet/internal/event"
	"agent-wallet/internal/handler/request"
	"agent-wallet/internal/handler/response"
	"agent-wallet/internal/manager"
	"agent-wallet/internal/status"
	"agent-wallet/pkg/errno"
)

// WalletHandler 浏览器桥接与代理命令的 HTTP 入口
type WalletHandler struct {
	manager     *manager.Manager
	dispatchers map[string]*dispatcher.Dispatcher // key: "eth" / "sol"
	statuses    *status.MemorySink
}

func NewWalletHandler(m *manager.Manager, dispatchers map[string]*dispatcher.Dispatcher, statuses *status.MemorySink) *WalletHandler {
	return &WalletHandler{
		manager:     m,
		dispatchers: dispatchers,
		statuses:    statuses,
	}
}

// UserConnect 浏览器扩展上报钱包连接
func (h *WalletHandler) UserConnect(c *gin.Context) {
	var ev event.ConnectEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	var balance *decimal.Decimal
	if ev.Balance != "" {
		b, err := decimal.NewFromString(ev.Balance)
		if err != nil {
			response.Error(c, errno.ErrInvalidAmount)
			return
		}
		balance = &b
	}

	h.manager.ConnectUserWallet(ev.Address, ev.ChainID, balance)
	response.Success(c, h.manager.UserInfo())
}

// UserDisconnect 浏览器扩展上报钱包断开
func (h *WalletHandler) UserDisconnect(c *gin.Context) {
	var ev event.DisconnectEvent
	_ = c.ShouldBindJSON(&ev) // body 可为空

	h.manager.DisconnectUserWallet()
	response.Success(c, nil)
}

// UserSubmit 浏览器扩展上报已完成的签名/转账回执
func (h *WalletHandler) UserSubmit(c *gin.Context) {
	var ev event.SubmitEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	var result manager.Result
	switch ev.ActionType {
	case "sign":
		if ev.Message == "" || ev.Signature == "" {
			response.Error(c, errno.ErrMissingParameters)
			return
		}
		result = h.manager.ProcessUserSignature(ev.Message, ev.Signature, ev.FromAddress)
	case "transfer":
		if ev.ToAddress == "" || ev.Amount == "" || ev.TxHash == "" {
			response.Error(c, errno.ErrMissingParameters)
			return
		}
		amount, err := decimal.NewFromString(ev.Amount)
		if err != nil || !amount.IsPositive() {
			response.Error(c, errno.ErrInvalidAmount)
			return
		}
		result = h.manager.ProcessUserTransaction(ev.FromAddress, ev.ToAddress, amount, ev.TxHash)
	}

	// 出处校验失败等业务错误也在 result 里，整体作为数据返回
	response.Success(c, result)
}

// DispatchAction 执行一条代理命令，结果永远是 200 + Outcome
func (h *WalletHandler) DispatchAction(c *gin.Context) {
	var req request.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	d, ok := h.dispatchers[req.Chain]
	if !ok {
		response.Error(c, errno.ErrUnknownAction)
		return
	}

	outcome := d.Dispatch(c.Request.Context(), req.Command)
	response.Success(c, gin.H{
		"action":  outcome.Action,
		"status":  outcome.Status,
		"details": outcome.Details,
	})
}

// Robot 机器人钱包当前状态，余额走短 TTL 缓存
func (h *WalletHandler) Robot(c *gin.Context) {
	info := h.manager.RobotInfo()
	if info == nil {
		response.Error(c, errno.ErrNotConnected)
		return
	}

	balance, err := h.manager.RobotGetBalance(c.Request.Context(), info.Address)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"address":  info.Address,
		"chain_id": info.ChainID,
		"provider": info.ProviderName,
		"balance":  balance.String(),
	})
}

// Records 交易遥测记录快照
func (h *WalletHandler) Records(c *gin.Context) {
	response.Success(c, gin.H{"records": h.manager.Records()})
}

// Statuses 最近的状态记录，供 UI 轮询
func (h *WalletHandler) Statuses(c *gin.Context) {
	response.Success(c, gin.H{"statuses": h.statuses.Records()})
}
