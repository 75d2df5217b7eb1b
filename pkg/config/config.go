package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Eth      EthConfig      `mapstructure:"eth"`
	Solana   SolanaConfig   `mapstructure:"solana"`
	Detector DetectorConfig `mapstructure:"detector"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

type EthConfig struct {
	RpcUrl     string `mapstructure:"rpc_url"`
	PrivateKey string `mapstructure:"private_key"` // hex, 可带 0x 前缀 (环境变量 ETH_PRIVATE_KEY)
	Mnemonic   string `mapstructure:"mnemonic"`    // BIP-39 助记词, 与 private_key 二选一
	// ConfirmTimeoutSec 等待交易上链确认的超时 (秒)。超时不代表失败: 广播已成功
	ConfirmTimeoutSec int `mapstructure:"confirm_timeout_sec"`
}

type SolanaConfig struct {
	RpcUrl            string `mapstructure:"rpc_url"`
	PrivateKey        string `mapstructure:"private_key"` // base58 或 JSON 字节数组 (环境变量 SOLANA_PRIVATE_KEY)
	ConfirmTimeoutSec int    `mapstructure:"confirm_timeout_sec"`
}

type DetectorConfig struct {
	IntervalSec    int `mapstructure:"interval_sec"`    // 每个账户的轮询间隔
	SignatureLimit int `mapstructure:"signature_limit"` // scan 模式每次拉取的签名数
}

type NotifyConfig struct {
	FlushSpec string `mapstructure:"flush_spec"` // cron 表达式, 例如 "@every 30s"
}

type WorkerConfig struct {
	PoolSize int `mapstructure:"pool_size"` // 并发 RPC 上限
}

var Global Config

func Init() {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath(".")      // optionally look for config in the working directory
	viper.AddConfigPath("./config")

	// 环境变量设置
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 密钥只允许从环境变量注入，不落盘
	_ = viper.BindEnv("eth.private_key", "ETH_PRIVATE_KEY")
	_ = viper.BindEnv("eth.mnemonic", "ETH_MNEMONIC")
	_ = viper.BindEnv("eth.rpc_url", "ETH_RPC_URL")
	_ = viper.BindEnv("solana.private_key", "SOLANA_PRIVATE_KEY")
	_ = viper.BindEnv("solana.rpc_url", "SOLANA_RPC_URL")

	// 设置默认值
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error if desired
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			// Config file was found but another error was produced
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("eth.rpc_url", "https://sepolia.base.org")
	viper.SetDefault("eth.confirm_timeout_sec", 120)

	viper.SetDefault("solana.rpc_url", "https://api.devnet.solana.com")
	viper.SetDefault("solana.confirm_timeout_sec", 120)

	viper.SetDefault("detector.interval_sec", 100)
	viper.SetDefault("detector.signature_limit", 10)

	viper.SetDefault("notify.flush_spec", "@every 30s")

	viper.SetDefault("worker.pool_size", 4)
}
