package publisher

import (
	"context"
	"encoding/json"

	"github.com/ninja0404/token-pilot/internal/common"
	"github.com/ninja0404/token-pilot/pkg/logger"
)

// Publisher 成交发布器接口
type Publisher interface {
	// Publish 发布一笔成交
	Publish(fill *common.FillEvent) error

	// GetType 获取发布器类型
	GetType() string

	// Close 关闭发布器
	Close() error
}

// Manager 成交发布管理器，把每笔成交广播给所有发布器
type Manager struct {
	publishers []Publisher
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewManager 创建发布管理器
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		publishers: make([]Publisher, 0),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// AddPublisher 添加发布器
func (m *Manager) AddPublisher(publisher Publisher) {
	m.publishers = append(m.publishers, publisher)
}

// Start 启动发布管理器
func (m *Manager) Start() error {
	for _, publisher := range m.publishers {
		logger.Info("✅ 已加载成交发布器", logger.String("type", publisher.GetType()))
	}

	logger.Info("📡 成交发布管理器已启动")
	return nil
}

// PublishFill 发布成交到所有发布器，单个发布器失败不影响其他发布器
func (m *Manager) PublishFill(fill *common.FillEvent) {
	for _, publisher := range m.publishers {
		if err := publisher.Publish(fill); err != nil {
			logger.Error("发布成交失败",
				logger.String("publisher", publisher.GetType()),
				logger.FieldMint(fill.Mint),
				logger.String("action", fill.Action.String()),
				logger.FieldErr(err))
		}
	}
}

// Stop 停止发布管理器
func (m *Manager) Stop() error {
	m.cancel()

	for _, publisher := range m.publishers {
		if err := publisher.Close(); err != nil {
			logger.Error("关闭发布器失败",
				logger.String("type", publisher.GetType()),
				logger.FieldErr(err))
		}
	}

	logger.Info("成交发布管理器已停止")
	return nil
}

// LogPublisher 日志发布器 - 将成交输出到日志
type LogPublisher struct{}

func (p *LogPublisher) GetType() string {
	return "log"
}

func (p *LogPublisher) Publish(fill *common.FillEvent) error {
	fields := []logger.Field{
		logger.FieldMint(fill.Mint),
		logger.String("action", fill.Action.String()),
		logger.String("price_usd", fill.PriceUSD.String()),
		logger.String("amount", fill.Amount.String()),
		logger.String("total_usd", fill.TotalUSD.String()),
		logger.String("reason", fill.Reason),
	}
	if fill.ProfitLoss != nil {
		fields = append(fields, logger.String("profit_loss_pct", fill.ProfitLoss.Truncate(2).String()))
	}
	if fill.HoldTimeSec != nil {
		fields = append(fields, logger.Int64("hold_seconds", *fill.HoldTimeSec))
	}

	logger.Info("📊 模拟成交", fields...)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// ConsolePublisher 控制台发布器 - 格式化输出完整成交详情
type ConsolePublisher struct{}

func (p *ConsolePublisher) GetType() string {
	return "console"
}

func (p *ConsolePublisher) Publish(fill *common.FillEvent) error {
	fillJSON, err := json.MarshalIndent(fill, "", "  ")
	if err != nil {
		return err
	}

	logger.Info("📊 成交详情", logger.String("fill", string(fillJSON)))
	return nil
}

func (p *ConsolePublisher) Close() error {
	return nil
}
