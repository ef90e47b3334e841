package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VolumeStats 单个滚动窗口的成交统计
type VolumeStats struct {
	Buy     decimal.Decimal `json:"buy"`
	Sell    decimal.Decimal `json:"sell"`
	TxCount int             `json:"tx_count"`
}

// Total 买卖合计成交额
func (v VolumeStats) Total() decimal.Decimal {
	return v.Buy.Add(v.Sell)
}

// Snapshot 每笔观察到的成交之后的市场快照
type Snapshot struct {
	Mint string `json:"mint"`

	PriceUSD     decimal.Decimal `json:"price_usd"`
	MarketCapUSD decimal.Decimal `json:"market_cap_usd"`

	Volume1m VolumeStats `json:"volume_1m"`
	Volume5m VolumeStats `json:"volume_5m"`
	Volume1h VolumeStats `json:"volume_1h"`

	// 最后一笔成交方向与金额
	LastAction    string          `json:"last_action"`
	LastAmountUSD decimal.Decimal `json:"last_amount_usd"`

	// 成交事件时间，窗口以它为基准
	Time time.Time `json:"time"`
}
