package config

import (
	"fmt"

	"github.com/ninja0404/token-pilot/internal/source/stream"
	"github.com/ninja0404/token-pilot/internal/strategy"
	"github.com/ninja0404/token-pilot/pkg/config"
	"github.com/ninja0404/token-pilot/pkg/config/source"
	"github.com/ninja0404/token-pilot/pkg/config/source/file"
	"github.com/ninja0404/token-pilot/pkg/logger"
	"github.com/ninja0404/token-pilot/pkg/utils"
)

// AppConfig 应用配置结构
type AppConfig struct {
	Logger    LoggerConfig    `yaml:"logger" json:"logger"`
	Stream    stream.Config   `yaml:"stream" json:"stream"`
	Replay    ReplayConfig    `yaml:"replay" json:"replay"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Strategy  StrategyConfig  `yaml:"strategy" json:"strategy"`
	Ledger    LedgerConfig    `yaml:"ledger" json:"ledger"`
	Publisher PublisherConfig `yaml:"publisher" json:"publisher"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Output     string `yaml:"output" json:"output"`
	Debug      bool   `yaml:"debug" json:"debug"`
	Level      string `yaml:"level" json:"level"`
	AddCaller  bool   `yaml:"add_caller" json:"add_caller"`
	CallerSkip int    `yaml:"caller_skip" json:"caller_skip"`
}

// ReplayConfig Kafka回放数据源配置，开启后替代流式订阅
type ReplayConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Topic   string   `yaml:"topic" json:"topic"`
	Brokers []string `yaml:"brokers" json:"brokers"`
	GroupId string   `yaml:"group_id" json:"group_id"`
}

// MetricsConfig 指标聚合配置
type MetricsConfig struct {
	SolPriceUSD float64 `yaml:"sol_price_usd" json:"sol_price_usd"`
	TotalSupply int64   `yaml:"total_supply" json:"total_supply"`
}

// StrategyConfig 策略配置，preset选基础参数组，overrides按字段覆盖
type StrategyConfig struct {
	Preset    string          `yaml:"preset" json:"preset"`
	Overrides strategy.Config `yaml:"overrides" json:"overrides"`
}

// LedgerConfig 交易账本配置
type LedgerConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// PublisherConfig 发布器配置
type PublisherConfig struct {
	Console bool                 `yaml:"console" json:"console"`
	Feishu  FeishuConfig         `yaml:"feishu" json:"feishu"`
	Kafka   KafkaPublisherConfig `yaml:"kafka" json:"kafka"`
}

// FeishuConfig 飞书发布器配置
type FeishuConfig struct {
	WebhookURL string `yaml:"webhook_url" json:"webhook_url"`
}

// KafkaPublisherConfig Kafka发布器配置
type KafkaPublisherConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Brokers []string `yaml:"brokers" json:"brokers"`
	Topic   string   `yaml:"topic" json:"topic"`
}

// Manager 配置管理器
type Manager struct {
	config *AppConfig
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	return &Manager{}
}

// Load 加载配置文件并应用环境变量覆盖
func (m *Manager) Load(configPath string) error {
	err := config.Load(file.NewSource(
		file.WithPath(configPath),
		source.WithFormat("yaml"),
	))
	if err != nil {
		return err
	}

	var appConfig AppConfig
	err = config.Scan(&appConfig)
	if err != nil {
		return err
	}

	// 环境变量里的端点优先于配置文件
	if endpoint := utils.GetEndpoint(); endpoint != "" {
		appConfig.Stream.Endpoint = endpoint
	}

	if err := appConfig.validate(); err != nil {
		return err
	}

	m.config = &appConfig
	return nil
}

func (c *AppConfig) validate() error {
	if c.Replay.Enabled {
		if c.Replay.Topic == "" || len(c.Replay.Brokers) == 0 {
			return fmt.Errorf("回放模式缺少topic或brokers配置")
		}
	} else if c.Stream.Endpoint == "" {
		return fmt.Errorf("缺少流式订阅端点配置")
	}

	if c.Stream.Mint == "" {
		return fmt.Errorf("缺少跟踪代币地址配置")
	}

	return nil
}

// GetAppConfig 获取应用配置
func (m *Manager) GetAppConfig() *AppConfig {
	return m.config
}

// GetLoggerConfig 获取日志配置
func (m *Manager) GetLoggerConfig() LoggerConfig {
	return m.config.Logger
}

// GetStreamConfig 获取流式数据源配置
func (m *Manager) GetStreamConfig() stream.Config {
	return m.config.Stream
}

// GetStrategyConfig 按preset加overrides合成策略配置
func (m *Manager) GetStrategyConfig() (strategy.Config, error) {
	base, err := strategy.Preset(m.config.Strategy.Preset)
	if err != nil {
		return strategy.Config{}, err
	}
	return base.Merge(m.config.Strategy.Overrides), nil
}

// GetPublisherConfig 获取发布器配置
func (m *Manager) GetPublisherConfig() PublisherConfig {
	return m.config.Publisher
}

// InitLogger 初始化日志系统
func (m *Manager) InitLogger() error {
	loggerConfig := logger.FromConfig("logger")
	loggerInstance := loggerConfig.Build()
	logger.SetDefault(loggerInstance)
	logger.SetDefaultL1(loggerInstance)
	return nil
}
