package notify

import (
	"github.com/robfig/cron/v3"

	"agent-wallet/pkg/logger"
)

// Flusher 周期性冲刷所有通知缓冲
type Flusher struct {
	cron    *cron.Cron
	spec    string
	buffers []*Buffer
}

func NewFlusher(spec string, buffers ...*Buffer) *Flusher {
	return &Flusher{
		cron:    cron.New(),
		spec:    spec,
		buffers: buffers,
	}
}

func (f *Flusher) Start() {
	_, _ = f.cron.AddFunc(f.spec, f.FlushAll)
	f.cron.Start()
	logger.Info("Notification flusher started")
}

func (f *Flusher) Stop() {
	// Stop 不打断正在执行的冲刷
	f.cron.Stop()
	f.FlushAll() // 退出前把剩余通知发出去
	logger.Info("Notification flusher stopped")
}

func (f *Flusher) FlushAll() {
	for _, b := range f.buffers {
		b.Consume()
	}
}
