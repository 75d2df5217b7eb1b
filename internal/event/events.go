// Package event 定义浏览器桥接的入站事件。
// 浏览器扩展持有用户私钥，签名和发送都在扩展侧完成，
// 这里只接收连接状态和已完成操作的回执。
package event

// ConnectEvent 用户钱包连接（或刷新镜像信息）
type ConnectEvent struct {
	Address string `json:"address" binding:"required"`
	ChainID string `json:"chain_id" binding:"required"`
	Balance string `json:"balance"` // 可选，十进制展示单位
}

// DisconnectEvent 用户钱包断开
type DisconnectEvent struct {
	Address string `json:"address"`
}

// SubmitEvent 扩展侧完成的签名或转账回执
type SubmitEvent struct {
	ActionType  string `json:"action_type" binding:"required,oneof=sign transfer"`
	FromAddress string `json:"from_address" binding:"required"`

	// sign
	Message   string `json:"message"`
	Signature string `json:"signature"`

	// transfer
	ToAddress string `json:"to_address"`
	Amount    string `json:"amount"`
	TxHash    string `json:"tx_hash"`
}
