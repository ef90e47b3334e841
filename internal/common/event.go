package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EventType int32

const (
	TradeEventType EventType = iota + 1
	LiquidityEventType
	FillEventType
)

type Action int32

const (
	UnknownAction Action = 0
	BuyAction     Action = 1
	SellAction    Action = 2
)

func (a Action) Enum() int32 {
	return int32(a)
}

func (a Action) String() string {
	switch a {
	case BuyAction:
		return "buy"
	case SellAction:
		return "sell"
	default:
		return "unknown"
	}
}

func (e EventType) Enum() int32 {
	return int32(e)
}

type Event struct {
	Type       EventType  `json:"type"`
	InnerEvent InnerEvent `json:"inner_event"`
}

type InnerEvent interface {
	GetKey() string
	GetInstIdxInTx() string
}

// TradeEvent 解码器从交易中提取的单笔兑换
type TradeEvent struct {
	Signature   string    `json:"signature"`
	Fee         uint64    `json:"fee"`
	Slot        uint64    `json:"slot"`
	BlockTime   time.Time `json:"block_time"`
	InstIdxInTx string    `json:"inst_idx_in_tx"`

	UserWallet    string `json:"user_wallet"`
	MarketAddress string `json:"market_address"`

	// 输入/输出按用户视角：input是用户付出的token
	TokenInAddress   string `json:"token_in_address"`
	TokenOutAddress  string `json:"token_out_address"`
	TokenInDecimals  int32  `json:"token_in_decimals"`
	TokenOutDecimals int32  `json:"token_out_decimals"`

	// 原始最小单位数量，未按decimals缩放
	TokenInAmount  decimal.Decimal `json:"token_in_amount"`
	TokenOutAmount decimal.Decimal `json:"token_out_amount"`

	Dex string `json:"dex"`
}

func (t *TradeEvent) GetInstIdxInTx() string {
	return t.InstIdxInTx
}

func (t *TradeEvent) GetKey() string {
	return fmt.Sprintf("%s-%s", t.Signature, t.InstIdxInTx)
}

type LiquidityDirection int32

const (
	LiquidityAdd    LiquidityDirection = 1
	LiquidityRemove LiquidityDirection = 2
)

// LiquidityEvent 池子流动性变更
type LiquidityEvent struct {
	Signature   string    `json:"signature"`
	Slot        uint64    `json:"slot"`
	BlockTime   time.Time `json:"block_time"`
	InstIdxInTx string    `json:"inst_idx_in_tx"`

	Direction     LiquidityDirection `json:"direction"`
	UserWallet    string             `json:"user_wallet"`
	MarketAddress string             `json:"market_address"`

	TokenXAddress  string          `json:"token_x_address"`
	TokenYAddress  string          `json:"token_y_address"`
	TokenXAmount   decimal.Decimal `json:"token_x_amount"`
	TokenYAmount   decimal.Decimal `json:"token_y_amount"`
	TokenXDecimals int32           `json:"token_x_decimals"`
	TokenYDecimals int32           `json:"token_y_decimals"`

	Dex string `json:"dex"`
}

func (t *LiquidityEvent) GetInstIdxInTx() string {
	return t.InstIdxInTx
}

func (t *LiquidityEvent) GetKey() string {
	return fmt.Sprintf("%s-%s", t.Signature, t.InstIdxInTx)
}

// FillEvent 策略引擎的一次模拟成交
type FillEvent struct {
	Mint      string          `json:"mint"`
	Action    Action          `json:"action"`
	PriceUSD  decimal.Decimal `json:"price_usd"`
	Amount    decimal.Decimal `json:"amount"`
	TotalUSD  decimal.Decimal `json:"total_usd"`
	Timestamp time.Time       `json:"timestamp"`

	// 仅卖出时有值
	ProfitLoss  *decimal.Decimal `json:"profit_loss,omitempty"`
	HoldTimeSec *int64           `json:"hold_time_sec,omitempty"`

	Reason string `json:"reason"`
}

func (f *FillEvent) GetInstIdxInTx() string {
	return ""
}

func (f *FillEvent) GetKey() string {
	return fmt.Sprintf("%s-%s-%d", f.Mint, f.Action, f.Timestamp.UnixNano())
}
