package request

// ActionRequest 代理侧下发的紧凑命令
type ActionRequest struct {
	Chain   string `json:"chain" binding:"required,oneof=eth sol"`
	Command string `json:"command" binding:"required"`
}
