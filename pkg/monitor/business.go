package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	ActionDispatchTotal *prometheus.CounterVec
	BalancePollTotal    *prometheus.CounterVec
	RPCDuration         *prometheus.HistogramVec
	NotificationsTotal  prometheus.Counter
	WalletBalance       *prometheus.GaugeVec
}

// Global Metrics Instance
var Business *BusinessMetrics

// InitBusinessMetrics 初始化业务指标
func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		ActionDispatchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_action_dispatch_total",
			Help: "The total number of dispatched wallet actions",
		}, []string{"action", "status"}),
		BalancePollTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_balance_poll_total",
			Help: "The total number of balance detector polls",
		}, []string{"chain", "mode", "outcome"}),
		RPCDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wallet_rpc_duration_seconds",
			Help:    "Duration of chain RPC calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"chain", "op"}),
		NotificationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wallet_notifications_total",
			Help: "The total number of aggregated balance notifications",
		}),
		WalletBalance: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wallet_balance_native",
			Help: "Last observed wallet balance in native display units",
		}, []string{"chain", "role"}),
	}
}
