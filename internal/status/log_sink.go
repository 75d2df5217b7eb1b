package status

import (
	"time"

	"go.uber.org/zap"

	"agent-wallet/pkg/logger"
)

// LogSink 把状态记录落到 zap 日志
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Write(label, message string, ts time.Time) {
	logger.Info(message,
		zap.String("label", label),
		zap.Time("ts", ts))
}
