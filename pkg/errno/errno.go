package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	switch typed := err.(type) {
	case *Errno:
		return typed.Code, typed.Message
	case Errno:
		return typed.Code, typed.Message
	}

	// 被 fmt.Errorf("%w: ...") 包装过的错误: 码取内层，信息保留外层细节
	var wrapped Errno
	if errors.As(err, &wrapped) {
		return wrapped.Code, err.Error()
	}
	return InternalServerError.Code, err.Error()
}

// Is 让 errors.Is 按错误码匹配
func (e Errno) Is(target error) bool {
	t, ok := target.(Errno)
	return ok && t.Code == e.Code
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
)

// Wallet Errors (20100+)
var (
	// ErrConfiguration 配置缺失是致命的: Provider 构造后永久不可用，不会重试
	ErrConfiguration        = Errno{Code: 20101, Message: "Wallet configuration missing or invalid"}
	ErrNotConnected         = Errno{Code: 20102, Message: "Wallet not connected"}
	ErrUnsupportedOperation = Errno{Code: 20103, Message: "Operation not supported by this wallet"}
	ErrInvalidAddress       = Errno{Code: 20104, Message: "Invalid address format"}
	ErrInvalidAmount        = Errno{Code: 20105, Message: "Amount must be a positive decimal"}
	ErrMissingParameters    = Errno{Code: 20106, Message: "Missing required parameters"}
	ErrProvenanceMismatch   = Errno{Code: 20107, Message: "Address does not match connected wallet"}
)

// Network Errors (20200+)
var (
	ErrConnection       = Errno{Code: 20201, Message: "RPC endpoint unreachable"}
	ErrTransientNetwork = Errno{Code: 20202, Message: "Upstream RPC request failed"}
	// ErrConfirmationTimeout 广播已成功，确认状态未知。不是失败也不是成功，
	// 调用方不能重新广播 (会造成重复提交)。
	ErrConfirmationTimeout = Errno{Code: 20203, Message: "Transaction broadcast, confirmation not observed in time"}
)

// Action Errors (20300+)
var (
	ErrUnknownAction  = Errno{Code: 20301, Message: "Unknown wallet action"}
	ErrMissingMessage = Errno{Code: 20302, Message: "Sign action requires a message"}
	ErrUseTransfer    = Errno{Code: 20303, Message: "Use 'transfer' action for actual transfers"}
)
