package status

import (
	"sync"
	"time"
)

// Record 一条追加写入的状态记录
type Record struct {
	Label     string    `json:"label"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink 是核心组件的唯一输出通道: 只追加，核心永不回读。
// 上游推理循环 (或 dashboard) 作为外部协作方消费它。
type Sink interface {
	Write(label, message string, ts time.Time)
}

// 内存环容量。写满后丢最旧的一条，进程长跑不会撑爆内存
const memorySinkCap = 512

// MemorySink 进程内固定容量的环形 Sink，供遥测接口和测试读取
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(label, message string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) >= memorySinkCap {
		s.records = s.records[1:]
	}
	s.records = append(s.records, Record{Label: label, Message: message, Timestamp: ts})
}

// Records 返回记录快照
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// MultiSink 将同一条记录扇出到多个 Sink
type MultiSink []Sink

func (m MultiSink) Write(label, message string, ts time.Time) {
	for _, s := range m {
		s.Write(label, message, ts)
	}
}
