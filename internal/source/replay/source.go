package replay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ninja0404/token-pilot/internal/model"
	"github.com/ninja0404/token-pilot/pkg/logger"
	"github.com/ninja0404/token-pilot/pkg/mq/kafka"
)

// Source Kafka回放数据源，消费录制好的交易信封流
//
// 信封以JSON形式写入topic，消费顺序即回放顺序，
// 用于离线复现线上行情并验证策略输出是否一致。
type Source struct {
	envChan      chan *model.RawEnvelope
	errChan      chan error
	ctx          context.Context
	cancel       context.CancelFunc
	config       SourceConfig
	consumerName string
}

// SourceConfig Kafka回放数据源配置
type SourceConfig struct {
	Topic       string
	Brokers     []string
	KafkaConfig kafka.KafkaConsumerConfig // 直接使用完整配置
}

// NewSource 创建Kafka回放数据源
func NewSource(config SourceConfig) *Source {
	ctx, cancel := context.WithCancel(context.Background())

	return &Source{
		envChan:      make(chan *model.RawEnvelope, 1000),
		errChan:      make(chan error, 100),
		ctx:          ctx,
		cancel:       cancel,
		config:       config,
		consumerName: fmt.Sprintf("token-pilot-%s", config.KafkaConfig.GroupId),
	}
}

// Start 启动回放数据源
func (s *Source) Start(ctx context.Context) error {
	// 使用完整的Kafka配置，只覆盖Topic
	kafkaConfig := s.config.KafkaConfig
	kafkaConfig.Topics = []string{s.config.Topic}

	// 设置命名的Kafka消费者
	if err := kafka.SetupNamedKafkaConsumer(s.consumerName, s.config.Brokers, kafkaConfig); err != nil {
		return fmt.Errorf("设置Kafka消费者失败: %w", err)
	}

	// 注册消息处理器
	if err := kafka.RegisterTopicHandlerForConsumer(s.consumerName, s.config.Topic, s.handleMessage); err != nil {
		return fmt.Errorf("注册消息处理器失败: %w", err)
	}

	// 启动消费者
	if err := kafka.StartNamedConsumer(s.consumerName); err != nil {
		return fmt.Errorf("启动Kafka消费者失败: %w", err)
	}

	logger.Info("✅ Kafka回放数据源已启动",
		logger.String("topic", s.config.Topic),
		logger.String("group_id", s.config.KafkaConfig.GroupId),
		logger.String("consumer_name", s.consumerName))

	return nil
}

// Stop 停止回放数据源
//
// 通道保持打开：消费者协程可能还停留在handleMessage的发送分支，
// 关闭通道会让它panic。下游靠自身的ctx退出，残留消息留在缓冲里即可。
func (s *Source) Stop() error {
	logger.Info("🛑 停止Kafka回放数据源")
	s.cancel()

	// 关闭命名的Kafka消费者
	if err := kafka.CloseNamedConsumer(s.consumerName); err != nil {
		logger.Error("关闭Kafka消费者失败", logger.FieldErr(err))
	}

	return nil
}

// Subscribe 获取信封通道
func (s *Source) Subscribe() <-chan *model.RawEnvelope {
	return s.envChan
}

// Errors 获取错误通道
func (s *Source) Errors() <-chan error {
	return s.errChan
}

// handleMessage 处理Kafka消息，一条消息一个信封
func (s *Source) handleMessage(data []byte) error {
	select {
	case <-s.ctx.Done():
		return fmt.Errorf("上下文已取消")
	default:
	}

	envelope := new(model.RawEnvelope)
	if err := json.Unmarshal(data, envelope); err != nil {
		err = fmt.Errorf("解析信封数据失败: %w", err)
		select {
		case s.errChan <- err:
		case <-s.ctx.Done():
		}
		return err
	}

	select {
	case s.envChan <- envelope:
		logger.Debug("📨 回放信封", logger.FieldSlot(envelope.Slot))
	case <-s.ctx.Done():
		return fmt.Errorf("上下文已取消")
	}

	return nil
}

// String 数据源名称
func (s *Source) String() string {
	return fmt.Sprintf("replay(%s)", s.config.Topic)
}

// GetStats 获取数据源统计信息
func (s *Source) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"topic":            s.config.Topic,
		"group_id":         s.config.KafkaConfig.GroupId,
		"consumer_name":    s.consumerName,
		"env_channel_size": len(s.envChan),
		"err_channel_size": len(s.errChan),
	}
}
