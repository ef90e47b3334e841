package stream

import "time"

// Config 流式订阅数据源配置
type Config struct {
	// Endpoint RPC订阅端点（ws://或wss://）
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// Mint 跟踪的代币地址，作为账户过滤条件
	Mint string `yaml:"mint" json:"mint"`
	// Commitment 确认级别，默认processed
	Commitment string `yaml:"commitment" json:"commitment"`

	// 重连策略
	ReconnectBase time.Duration `yaml:"reconnect_base" json:"reconnect_base"`
	ReconnectMax  time.Duration `yaml:"reconnect_max" json:"reconnect_max"`
	// MaxAttempts 连续失败次数上限，超过后上报不可恢复错误
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// 传输超时
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout" json:"write_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval" json:"ping_interval"`
}

func (c Config) withDefaults() Config {
	if c.Commitment == "" {
		c.Commitment = "processed"
	}
	if c.ReconnectBase <= 0 {
		c.ReconnectBase = time.Second
	}
	if c.ReconnectMax <= 0 {
		c.ReconnectMax = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	return c
}
