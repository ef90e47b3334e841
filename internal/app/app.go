package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ninja0404/token-pilot/internal/config"
	"github.com/ninja0404/token-pilot/internal/decoder"
	"github.com/ninja0404/token-pilot/internal/ledger"
	"github.com/ninja0404/token-pilot/internal/metrics"
	"github.com/ninja0404/token-pilot/internal/pipeline"
	"github.com/ninja0404/token-pilot/internal/publisher"
	"github.com/ninja0404/token-pilot/internal/source"
	"github.com/ninja0404/token-pilot/internal/source/replay"
	"github.com/ninja0404/token-pilot/internal/source/stream"
	"github.com/ninja0404/token-pilot/internal/strategy"
	"github.com/ninja0404/token-pilot/pkg/logger"
	"github.com/ninja0404/token-pilot/pkg/mq/kafka"
)

// Application 单代币模拟交易应用
type Application struct {
	configManager *config.Manager
	pipeline      *pipeline.Pipeline
	tradeLedger   *ledger.Ledger
	engine        *strategy.Engine
}

// New 创建应用实例
func New() *Application {
	return &Application{
		configManager: config.NewManager(),
	}
}

// Initialize 初始化应用
func (app *Application) Initialize(configPath string) error {
	// 1. 加载配置
	if err := app.configManager.Load(configPath); err != nil {
		return err
	}

	// 2. 初始化日志系统
	if err := app.configManager.InitLogger(); err != nil {
		return err
	}
	logger.Info("🚀 模拟交易服务初始化开始", logger.String("config_path", configPath))

	// 3. 组装管道
	if err := app.buildPipeline(); err != nil {
		return err
	}

	logger.Info("✅ 模拟交易服务初始化完成")
	return nil
}

// buildPipeline 按配置组装账本、策略、聚合器、数据源和发布器
func (app *Application) buildPipeline() error {
	appCfg := app.configManager.GetAppConfig()
	mint := appCfg.Stream.Mint

	strategyCfg, err := app.configManager.GetStrategyConfig()
	if err != nil {
		return err
	}

	ledgerDir := appCfg.Ledger.Dir
	if ledgerDir == "" {
		ledgerDir = "./trades"
	}
	app.tradeLedger, err = ledger.New(ledgerDir, mint)
	if err != nil {
		return err
	}
	logger.Info("📒 交易账本已就绪", logger.String("path", app.tradeLedger.Path()))

	app.engine = strategy.NewEngine(mint, strategyCfg, app.tradeLedger)

	aggregator := metrics.NewAggregator(metrics.Config{
		Mint:        mint,
		SolPriceUSD: appCfg.Metrics.SolPriceUSD,
		TotalSupply: appCfg.Metrics.TotalSupply,
	})

	sourceManager := source.NewManager()
	app.setupDataSource(sourceManager, appCfg)

	publisherManager, err := app.setupPublishers(appCfg)
	if err != nil {
		return err
	}

	app.pipeline = pipeline.NewPipeline(
		sourceManager,
		decoder.Nop{},
		decoder.Options{},
		aggregator,
		app.engine,
		publisherManager,
	)
	return nil
}

// setupDataSource 回放模式用Kafka，否则用流式订阅
func (app *Application) setupDataSource(manager *source.Manager, appCfg *config.AppConfig) {
	if appCfg.Replay.Enabled {
		manager.AddSource(replay.NewSource(replay.SourceConfig{
			Topic:   appCfg.Replay.Topic,
			Brokers: appCfg.Replay.Brokers,
			KafkaConfig: kafka.KafkaConsumerConfig{
				GroupId: appCfg.Replay.GroupId,
			},
		}))
		logger.Info("🗄️ 已配置Kafka回放数据源",
			logger.String("topic", appCfg.Replay.Topic),
			logger.String("group_id", appCfg.Replay.GroupId))
		return
	}

	manager.AddSource(stream.NewSource(appCfg.Stream))
	logger.Info("🌊 已配置流式订阅数据源",
		logger.String("endpoint", appCfg.Stream.Endpoint),
		logger.FieldMint(appCfg.Stream.Mint))
}

// setupPublishers 日志发布器始终开启，其余按配置加载
func (app *Application) setupPublishers(appCfg *config.AppConfig) (*publisher.Manager, error) {
	manager := publisher.NewManager()
	manager.AddPublisher(&publisher.LogPublisher{})

	pubCfg := appCfg.Publisher
	if pubCfg.Console {
		manager.AddPublisher(&publisher.ConsolePublisher{})
	}
	if pubCfg.Feishu.WebhookURL != "" {
		manager.AddPublisher(publisher.NewFeishuPublisher(pubCfg.Feishu.WebhookURL))
	}
	if pubCfg.Kafka.Enabled {
		kafkaPublisher, err := publisher.NewKafkaPublisher(
			pubCfg.Kafka.Brokers, pubCfg.Kafka.Topic, kafka.KafkaProducerConfig{})
		if err != nil {
			return nil, err
		}
		manager.AddPublisher(kafkaPublisher)
	}

	return manager, nil
}

// Run 运行应用
func (app *Application) Run() error {
	logger.Info("🎯 启动模拟交易管道")

	if err := app.pipeline.Start(); err != nil {
		return err
	}

	logger.Info("🔥 模拟交易服务已启动，开始跟踪代币行情...")
	logger.Info("💼 " + app.engine.WalletStatus())

	app.waitForShutdown()
	return nil
}

// waitForShutdown 等待终止信号或数据源致命错误
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("📤 收到终止信号，开始优雅关闭应用...", logger.String("signal", sig.String()))
	case err := <-app.pipeline.Fatal():
		logger.Error("🚨 数据源不可恢复，开始关闭应用", logger.FieldErr(err))
	}

	app.Shutdown()
}

// Shutdown 优雅关闭应用
func (app *Application) Shutdown() {
	logger.Info("🛑 开始关闭模拟交易服务...")

	if err := app.pipeline.Stop(); err != nil {
		logger.Error("停止数据处理管道失败", logger.FieldErr(err))
	}

	stats := app.pipeline.GetStats()
	logger.Info("📈 服务运行统计",
		logger.Int64("envelopes_processed", stats.EnvelopesProcessed),
		logger.Int64("trades_decoded", stats.TradesDecoded),
		logger.Int64("fills_executed", stats.FillsExecuted),
		logger.Int64("errors_count", stats.ErrorsCount))

	if ledgerStats, err := app.tradeLedger.Stats(); err == nil {
		logger.Info("💰 交易账本统计",
			logger.Int("total_trades", ledgerStats.TotalTrades),
			logger.Int("profitable_trades", ledgerStats.ProfitableTrades),
			logger.Float64("win_rate", ledgerStats.WinRate),
			logger.Float64("average_profit", ledgerStats.AverageProfit),
			logger.Float64("max_profit", ledgerStats.MaxProfit),
			logger.Float64("max_loss", ledgerStats.MaxLoss))
	} else {
		logger.Error("读取账本统计失败", logger.FieldErr(err))
	}

	logger.Info("💼 " + app.engine.WalletStatus())
	logger.Info("✨ 模拟交易服务已成功关闭")
}

// Start 启动应用的便捷方法
func (app *Application) Start(configPath string) error {
	if err := app.Initialize(configPath); err != nil {
		logger.Error("❌ 模拟交易服务初始化失败", logger.FieldErr(err))
		return err
	}

	if err := app.Run(); err != nil {
		logger.Error("❌ 模拟交易服务运行失败", logger.FieldErr(err))
		return err
	}

	return nil
}

// GetPipeline 获取数据处理管道（用于调试和监控）
func (app *Application) GetPipeline() *pipeline.Pipeline {
	return app.pipeline
}

// GetConfigManager 获取配置管理器
func (app *Application) GetConfigManager() *config.Manager {
	return app.configManager
}
