package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sovseas/sse/internal/chain"
	"github.com/sovseas/sse/internal/config"
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/event"
	"github.com/sovseas/sse/internal/identity"
	"github.com/sovseas/sse/internal/logger"
	"github.com/sovseas/sse/internal/monitor"
	"github.com/sovseas/sse/internal/repository"
	"github.com/sovseas/sse/internal/router"
	"github.com/sovseas/sse/internal/task"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithRotation(logger.ParseLevel(cfg.Log.Level), logger.RotateConfig{Filename: cfg.Log.File})
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefault(l)
	}

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 代币与外部依赖：链上模式走合约，否则用进程内实现
	tokens := make([]engine.Token, 0, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		tokens = append(tokens, engine.Token(t.Symbol))
	}

	var (
		ledger      engine.TokenLedger
		oracle      engine.RateOracle
		chainClient *chain.Client
	)
	if cfg.Chain.Enabled {
		chainClient, err = chain.NewClient(cfg.Chain)
		if err != nil {
			logger.Fatal("Failed to initialize chain client: %v", err)
		}
		ledger, err = chain.NewERC20Ledger(chainClient, cfg.Tokens)
		if err != nil {
			logger.Fatal("Failed to initialize ERC20 ledger: %v", err)
		}
		oracle, err = chain.NewContractOracle(chainClient, cfg.Chain.OracleContract, cfg.Tokens)
		if err != nil {
			logger.Fatal("Failed to initialize rate oracle: %v", err)
		}
	} else {
		logger.Info("Chain integration disabled, using in-process ledger and fixed rates")
		ledger = chain.NewMemoryLedger()
		oracle = chain.NewFixedRateOracle(cfg.Tokens)
	}

	// 初始化引擎
	eng := engine.New(engine.Config{
		SupportedTokens: tokens,
		PoolAccount:     engine.Account(cfg.Platform.PoolAccount),
		FeeSink:         engine.Account(cfg.Platform.FeeSink),
	}, engine.Deps{
		Ledger:   ledger,
		Oracle:   oracle,
		Identity: identity.NewResolver(cfg.Platform.SuperAdmins),
	})

	// 事件分发：引擎事件异步落成数据库读模型
	dispatcher, err := event.NewDispatcher(event.NewProcessor(eng, db), 8)
	if err != nil {
		logger.Fatal("Failed to initialize event dispatcher: %v", err)
	}
	defer dispatcher.Close()
	eng.SetSink(dispatcher)

	// 链上投票监控
	if cfg.Chain.Enabled {
		voteMonitor := monitor.NewEventMonitor(chainClient, eng, db, cfg.Tokens, 0)
		if err := voteMonitor.Start(); err != nil {
			logger.Fatal("Failed to start vote monitor: %v", err)
		}
		defer voteMonitor.Stop()
	}

	// 定时任务
	taskManager := task.Start(db, eng, cfg)
	defer taskManager.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由并启动服务器
	r := router.Setup(eng, db)
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
