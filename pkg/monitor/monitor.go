package monitor

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP 层指标，统一挂在 agent_wallet 命名空间下
var (
	// APIRequestsTotal 按方法 / 路由模板 / 状态码累计请求量
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent_wallet",
			Name:      "api_requests_total",
			Help:      "Total HTTP requests handled by the wallet API.",
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestDuration 请求耗时分布。钱包接口大多在签名或广播上
	// 花时间，桶往秒级偏
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agent_wallet",
			Name:      "api_request_duration_seconds",
			Help:      "Wallet API request latency distributions.",
			Buckets:   []float64{0.05, 0.2, 0.5, 1.0, 3.0, 10.0},
		},
		[]string{"method", "path"},
	)
)

// Init 完成全部指标注册，启动时调用一次
func Init() {
	InitBusinessMetrics()
}

// PrometheusMiddleware 采集每个请求的量和耗时
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// 路由模板 (/api/v1/wallet/:chain/sign) 而非实际路径，避免标签爆炸
		path := c.FullPath()

		c.Next()

		// 未匹配到路由的请求 (404 探测之类) 不进指标
		if path == "" {
			return
		}
		status := strconv.Itoa(c.Writer.Status())
		APIRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		APIRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
