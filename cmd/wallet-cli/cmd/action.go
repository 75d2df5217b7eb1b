package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"agent-wallet/internal/chain"
	"agent-wallet/internal/dispatcher"
	"agent-wallet/internal/provider"
	"agent-wallet/internal/status"
	"agent-wallet/internal/worker"
	"agent-wallet/pkg/config"
	"agent-wallet/pkg/logger"
	"agent-wallet/pkg/monitor"
)

var actionChain string

// actionCmd 不起服务直接执行一条命令，方便调试
var actionCmd = &cobra.Command{
	Use:   "action <command>",
	Short: "向机器人钱包下发一条命令",
	Long: `直接连接机器人钱包并执行命令，打印状态记录。
命令格式: poll | sign:<message> | transfer:<to>:<amount>
示例: wallet-cli action --chain sol "transfer:Fg6PaFpo...:0.05"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config.Init()
		logger.Init(config.Global.App.Env)
		defer logger.Sync()
		monitor.Init()

		var (
			adapter chain.Adapter
			robCfg  provider.RobotConfig
			label   string
		)
		switch actionChain {
		case "eth":
			adapter = chain.NewEthAdapter()
			label = "WalletStatus"
			robCfg = provider.RobotConfig{
				Secret:         config.Global.Eth.PrivateKey,
				Mnemonic:       config.Global.Eth.Mnemonic,
				Endpoint:       config.Global.Eth.RpcUrl,
				ConfirmTimeout: time.Duration(config.Global.Eth.ConfirmTimeoutSec) * time.Second,
			}
		case "sol":
			adapter = chain.NewSolAdapter()
			label = "WalletSolanaStatus"
			robCfg = provider.RobotConfig{
				Secret:         config.Global.Solana.PrivateKey,
				Endpoint:       config.Global.Solana.RpcUrl,
				ConfirmTimeout: time.Duration(config.Global.Solana.ConfirmTimeoutSec) * time.Second,
			}
		default:
			fmt.Printf("不支持的链: %s (可选 eth / sol)\n", actionChain)
			os.Exit(1)
		}

		pool := worker.NewPool(config.Global.Worker.PoolSize)
		defer pool.Close()

		robot := provider.NewRobotProvider(adapter, pool, robCfg)
		ctx := context.Background()
		if _, err := robot.Connect(ctx); err != nil {
			fmt.Printf("连接失败: %v\n", err)
			os.Exit(1)
		}
		defer robot.Disconnect()

		sink := status.NewMemorySink()
		d := dispatcher.New(robot, adapter, sink, label)
		outcome := d.Dispatch(ctx, args[0])

		fmt.Println("---------------------------------------------------")
		for _, rec := range sink.Records() {
			fmt.Printf("[%s] %s\n", rec.Label, rec.Message)
		}
		if outcome.Status != "success" {
			os.Exit(1)
		}
	},
}

func init() {
	actionCmd.Flags().StringVar(&actionChain, "chain", "eth", "目标链 (eth / sol)")
	rootCmd.AddCommand(actionCmd)
}
