package publisher

import (
	"fmt"

	"github.com/ninja0404/token-pilot/internal/common"
	"github.com/ninja0404/token-pilot/pkg/mq/kafka"
)

// KafkaPublisher Kafka发布器，成交以二进制事件写入topic供下游消费
type KafkaPublisher struct {
	topic string
}

// NewKafkaPublisher 创建Kafka发布器，调用前需要先初始化producer
func NewKafkaPublisher(brokers []string, topic string, cfg kafka.KafkaProducerConfig) (*KafkaPublisher, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka发布器topic为空")
	}

	if err := kafka.SetupKafkaProducer(brokers, cfg); err != nil {
		return nil, fmt.Errorf("设置Kafka生产者失败: %w", err)
	}

	return &KafkaPublisher{topic: topic}, nil
}

func (p *KafkaPublisher) GetType() string {
	return "kafka"
}

func (p *KafkaPublisher) Publish(fill *common.FillEvent) error {
	data, err := common.EncodeEvent(&common.Event{
		Type:       common.FillEventType,
		InnerEvent: fill,
	})
	if err != nil {
		return fmt.Errorf("编码成交事件失败: %w", err)
	}

	// 以mint作为分区键，同一代币的成交保持有序
	return kafka.SendMessageWithKey(p.topic, fill.Mint, data)
}

func (p *KafkaPublisher) Close() error {
	return kafka.CloseProducer()
}
