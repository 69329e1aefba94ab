package config

import (
	"github.com/sovseas/sse/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Platform PlatformConfig `mapstructure:"platform"`
	Tokens   []TokenConfig  `mapstructure:"tokens"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 链配置
type ChainConfig struct {
	Enabled    bool   `mapstructure:"enabled"`     // 是否启用链上结算和投票监控
	ChainType  string `mapstructure:"chain_type"`  // 链类型 (celo, ethereum, polygon, etc.)
	ChainId    int64  `mapstructure:"chain_id"`    // 链ID
	RpcUrl     string `mapstructure:"rpc_url"`     // RPC节点URL
	PrivateKey string `mapstructure:"private_key"` // 资金池账户私钥

	VotingContract string `mapstructure:"voting_contract"` // 投票合约地址
	OracleContract string `mapstructure:"oracle_contract"` // 汇率合约地址
	StartBlock     int64  `mapstructure:"start_block"`     // 监控起始区块
	Confirmations  int    `mapstructure:"confirmations"`   // 确认区块数
}

// PlatformConfig 平台配置，结算时显式传给引擎
type PlatformConfig struct {
	SuperAdmins []string `mapstructure:"super_admins"` // 平台超级管理员账户
	Operator    string   `mapstructure:"operator"`     // 自动结算任务使用的操作账户
	PoolAccount string   `mapstructure:"pool_account"` // 托管资金池账户
	FeeSink     string   `mapstructure:"fee_sink"`     // 手续费归集账户
}

// TokenConfig 支持的代币
type TokenConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"` // ERC20 合约地址
	Decimals int    `mapstructure:"decimals"`
	Rate     int64  `mapstructure:"rate"` // 开发模式下的固定汇率（标准单位/代币）
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/sse")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "sovereign_seas")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("chain.enabled", false)
	viper.SetDefault("chain.start_block", 0)
	viper.SetDefault("chain.confirmations", 12)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
