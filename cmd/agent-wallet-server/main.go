package main

import (
	"context"
	"time"

	"agent-wallet/internal/chain"
	"agent-wallet/internal/detector"
	"agent-wallet/internal/dispatcher"
	"agent-wallet/internal/handler"
	"agent-wallet/internal/manager"
	"agent-wallet/internal/notify"
	"agent-wallet/internal/provider"
	"agent-wallet/internal/server"
	"agent-wallet/internal/server/routes"
	"agent-wallet/internal/status"
	"agent-wallet/internal/worker"
	"agent-wallet/pkg/config"
	"agent-wallet/pkg/logger"
	"agent-wallet/pkg/monitor"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 0. 初始化 Config
	config.Init()

	// 1. 初始化 Logger
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	// 2. 初始化监控指标
	monitor.Init()

	// 3. RPC 并发池 (所有链上调用都经过它限流)
	pool := worker.NewPool(config.Global.Worker.PoolSize)
	defer pool.Close()

	// 4. 链适配器
	ethAdapter := chain.NewEthAdapter()
	solAdapter := chain.NewSolAdapter()

	// 5. 机器人钱包 Provider
	ethRobot := provider.NewRobotProvider(ethAdapter, pool, provider.RobotConfig{
		Secret:         config.Global.Eth.PrivateKey,
		Mnemonic:       config.Global.Eth.Mnemonic,
		Endpoint:       config.Global.Eth.RpcUrl,
		ConfirmTimeout: time.Duration(config.Global.Eth.ConfirmTimeoutSec) * time.Second,
	})
	solRobot := provider.NewRobotProvider(solAdapter, pool, provider.RobotConfig{
		Secret:         config.Global.Solana.PrivateKey,
		Endpoint:       config.Global.Solana.RpcUrl,
		ConfirmTimeout: time.Duration(config.Global.Solana.ConfirmTimeoutSec) * time.Second,
	})

	// 6. 状态汇聚: 内存环 (供 UI 轮询) + 结构化日志
	memSink := status.NewMemorySink()
	sink := status.MultiSink{memSink, status.NewLogSink()}

	// 7. 钱包管理器 (EVM 机器人 + 浏览器用户钱包)
	userWallet := provider.NewUserProvider()
	mgr := manager.New(ethRobot, userWallet, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 8. 连接机器人钱包。配置缺失不致命: 对应链的动作会持续报错，服务照常起
	if _, err := mgr.ConnectRobotWallet(ctx); err != nil {
		logger.Warn("ETH 机器人钱包未连接", zap.Error(err))
	}
	if _, err := solRobot.Connect(ctx); err != nil {
		logger.Warn("Solana 机器人钱包未连接", zap.Error(err))
	}

	// 9. 命令分发器，每条链一个
	dispatchers := map[string]*dispatcher.Dispatcher{
		"eth": dispatcher.New(ethRobot, ethAdapter, sink, "WalletStatus"),
		"sol": dispatcher.New(solRobot, solAdapter, sink, "WalletSolanaStatus"),
	}

	// 10. 收款通知缓冲 + 定时冲刷
	ethBuffer := notify.NewBuffer("WalletStatus", ethAdapter.Name(), sink)
	solBuffer := notify.NewBuffer("WalletSolanaStatus", solAdapter.Name(), sink)
	flusher := notify.NewFlusher(config.Global.Notify.FlushSpec, ethBuffer, solBuffer)
	flusher.Start()

	// 11. 余额变动检测
	// ETH: 前后余额差值; Solana: 签名扫描, 能区分出正向入账
	interval := time.Duration(config.Global.Detector.IntervalSec) * time.Second
	if info := ethRobot.Info(); info != nil {
		det := detector.NewDeltaDetector(ethRobot, info.Address, mgr.IsRobotConnected)
		detector.NewRunner("robot_eth", ethAdapter.Name(), det, interval, ethBuffer, mgr.IsRobotConnected).Start(ctx)
	}
	if info := solRobot.Info(); info != nil {
		scanner, ok := solRobot.Scanner()
		if !ok {
			logger.Fatal("Solana 客户端必须支持签名扫描")
		}
		connected := func() bool { return solRobot.Info() != nil }
		det := detector.NewScanDetector(scanner, solRobot, info.Address, config.Global.Detector.SignatureLimit, connected)
		detector.NewRunner("robot_sol", solAdapter.Name(), det, interval, solBuffer, connected).Start(ctx)
	}

	// 12. HTTP Router
	if config.Global.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(monitor.PrometheusMiddleware())

	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	walletHandler := handler.NewWalletHandler(mgr, dispatchers, memSink)
	apiV1 := r.Group("/api/v1")
	routes.RegisterWalletRoutes(apiV1, walletHandler)

	// 13. 启动应用
	app := server.New(server.Config{HttpPort: config.Global.App.HttpPort}, r)
	app.OnShutdown(func() {
		cancel()
		flusher.Stop()
		mgr.DisconnectRobotWallet()
		solRobot.Disconnect()
	})

	// 运行 (阻塞)
	app.Run()
	logger.Info("系统已退出")
}
