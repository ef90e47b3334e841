package strategy

import (
	"fmt"
	"time"
)

// Config 策略阈值，比例均为小数（0.05 = 5%）
type Config struct {
	// 量能
	VolumeSpikeThreshold float64 `yaml:"volume_spike_threshold" json:"volume_spike_threshold"`
	MinVolumeUSD         float64 `yaml:"min_volume_usd" json:"min_volume_usd"`

	// 价格动量
	PriceChangeThreshold float64 `yaml:"price_change_threshold" json:"price_change_threshold"`
	ReversalThreshold    float64 `yaml:"reversal_threshold" json:"reversal_threshold"`

	// 风控
	ProfitTarget          float64       `yaml:"profit_target" json:"profit_target"`
	StopLoss              float64       `yaml:"stop_loss" json:"stop_loss"`
	SecondaryProfitTarget float64       `yaml:"secondary_profit_target" json:"secondary_profit_target"`
	MaxHoldTime           time.Duration `yaml:"max_hold_time" json:"max_hold_time"`

	// 执行
	TradeCooldown    time.Duration `yaml:"trade_cooldown" json:"trade_cooldown"`
	FixedTokenAmount float64       `yaml:"fixed_token_amount" json:"fixed_token_amount"`
	TrendWindow      int           `yaml:"trend_window" json:"trend_window"`
	MinBuyPressure   float64       `yaml:"min_buy_pressure" json:"min_buy_pressure"`

	// ProportionalSizing 开启后按MaxPositionSize/价格定仓位，默认固定token数量
	ProportionalSizing bool    `yaml:"proportional_sizing" json:"proportional_sizing"`
	MaxPositionSize    float64 `yaml:"max_position_size" json:"max_position_size"`

	// 样本窗口与钱包
	PriceDataWindow   time.Duration `yaml:"price_data_window" json:"price_data_window"`
	InitialBalanceUSD float64       `yaml:"initial_balance_usd" json:"initial_balance_usd"`
}

// DefaultConfig 快进快出的默认参数
func DefaultConfig() Config {
	return Config{
		VolumeSpikeThreshold:  1.5,
		MinVolumeUSD:          500,
		PriceChangeThreshold:  0.01,
		ReversalThreshold:     0.008,
		ProfitTarget:          0.05,
		StopLoss:              0.02,
		SecondaryProfitTarget: 0.02,
		MaxHoldTime:           30 * time.Second,
		TradeCooldown:         15 * time.Second,
		FixedTokenAmount:      1000,
		TrendWindow:           3,
		MinBuyPressure:        0.65,
		ProportionalSizing:    false,
		MaxPositionSize:       1000,
		PriceDataWindow:       300 * time.Second,
		InitialBalanceUSD:     10000,
	}
}

// Preset 按名称取一份历史参数组合
func Preset(name string) (Config, error) {
	switch name {
	case "", "default":
		return DefaultConfig(), nil
	case "proportional":
		// 早期版本按资金比例定仓位
		cfg := DefaultConfig()
		cfg.ProportionalSizing = true
		return cfg, nil
	case "patient":
		// 放宽持仓时间与止盈，适合波动慢的池子
		cfg := DefaultConfig()
		cfg.ProfitTarget = 0.10
		cfg.MaxHoldTime = 5 * time.Minute
		cfg.TradeCooldown = time.Minute
		return cfg, nil
	default:
		return Config{}, fmt.Errorf("unknown strategy preset: %s", name)
	}
}

// Merge 用另一份配置里填写过的字段覆盖当前配置
func (c Config) Merge(o Config) Config {
	if o.VolumeSpikeThreshold > 0 {
		c.VolumeSpikeThreshold = o.VolumeSpikeThreshold
	}
	if o.MinVolumeUSD > 0 {
		c.MinVolumeUSD = o.MinVolumeUSD
	}
	if o.PriceChangeThreshold > 0 {
		c.PriceChangeThreshold = o.PriceChangeThreshold
	}
	if o.ReversalThreshold > 0 {
		c.ReversalThreshold = o.ReversalThreshold
	}
	if o.ProfitTarget > 0 {
		c.ProfitTarget = o.ProfitTarget
	}
	if o.StopLoss > 0 {
		c.StopLoss = o.StopLoss
	}
	if o.SecondaryProfitTarget > 0 {
		c.SecondaryProfitTarget = o.SecondaryProfitTarget
	}
	if o.MaxHoldTime > 0 {
		c.MaxHoldTime = o.MaxHoldTime
	}
	if o.TradeCooldown > 0 {
		c.TradeCooldown = o.TradeCooldown
	}
	if o.FixedTokenAmount > 0 {
		c.FixedTokenAmount = o.FixedTokenAmount
	}
	if o.TrendWindow > 0 {
		c.TrendWindow = o.TrendWindow
	}
	if o.MinBuyPressure > 0 {
		c.MinBuyPressure = o.MinBuyPressure
	}
	if o.ProportionalSizing {
		c.ProportionalSizing = true
	}
	if o.MaxPositionSize > 0 {
		c.MaxPositionSize = o.MaxPositionSize
	}
	if o.PriceDataWindow > 0 {
		c.PriceDataWindow = o.PriceDataWindow
	}
	if o.InitialBalanceUSD > 0 {
		c.InitialBalanceUSD = o.InitialBalanceUSD
	}
	return c
}

// withDefaults 把未填写的字段补成默认值
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.VolumeSpikeThreshold <= 0 {
		c.VolumeSpikeThreshold = def.VolumeSpikeThreshold
	}
	if c.MinVolumeUSD <= 0 {
		c.MinVolumeUSD = def.MinVolumeUSD
	}
	if c.PriceChangeThreshold <= 0 {
		c.PriceChangeThreshold = def.PriceChangeThreshold
	}
	if c.ReversalThreshold <= 0 {
		c.ReversalThreshold = def.ReversalThreshold
	}
	if c.ProfitTarget <= 0 {
		c.ProfitTarget = def.ProfitTarget
	}
	if c.StopLoss <= 0 {
		c.StopLoss = def.StopLoss
	}
	if c.SecondaryProfitTarget <= 0 {
		c.SecondaryProfitTarget = def.SecondaryProfitTarget
	}
	if c.MaxHoldTime <= 0 {
		c.MaxHoldTime = def.MaxHoldTime
	}
	if c.TradeCooldown <= 0 {
		c.TradeCooldown = def.TradeCooldown
	}
	if c.FixedTokenAmount <= 0 {
		c.FixedTokenAmount = def.FixedTokenAmount
	}
	if c.TrendWindow <= 0 {
		c.TrendWindow = def.TrendWindow
	}
	if c.MinBuyPressure <= 0 {
		c.MinBuyPressure = def.MinBuyPressure
	}
	if c.MaxPositionSize <= 0 {
		c.MaxPositionSize = def.MaxPositionSize
	}
	if c.PriceDataWindow <= 0 {
		c.PriceDataWindow = def.PriceDataWindow
	}
	if c.InitialBalanceUSD <= 0 {
		c.InitialBalanceUSD = def.InitialBalanceUSD
	}
	return c
}
