package metrics

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ninja0404/token-pilot/internal/common"
	"github.com/ninja0404/token-pilot/internal/model"
)

const (
	// DefaultSolPriceUSD 固定SOL/USD汇率
	DefaultSolPriceUSD = 130.0
	// DefaultTotalSupply meme币惯例的固定总供应量
	DefaultTotalSupply = 1_000_000_000
)

// minTokenAmount 成交的token数量低于该值时不更新价格，避免除零放大
var minTokenAmount = decimal.New(1, -8)

type Config struct {
	Mint        string  `yaml:"mint" json:"mint"`
	SolPriceUSD float64 `yaml:"sol_price_usd" json:"sol_price_usd"`
	TotalSupply int64   `yaml:"total_supply" json:"total_supply"`
}

// Aggregator 单一代币的滚动行情统计
type Aggregator struct {
	mint        string
	solPriceUSD decimal.Decimal
	totalSupply decimal.Decimal

	win1m *rollingWindow
	win5m *rollingWindow
	win1h *rollingWindow

	lastPrice decimal.Decimal
	lastTrade time.Time

	mu sync.Mutex
}

func NewAggregator(cfg Config) *Aggregator {
	if cfg.SolPriceUSD <= 0 {
		cfg.SolPriceUSD = DefaultSolPriceUSD
	}
	if cfg.TotalSupply <= 0 {
		cfg.TotalSupply = DefaultTotalSupply
	}
	return &Aggregator{
		mint:        cfg.Mint,
		solPriceUSD: decimal.NewFromFloat(cfg.SolPriceUSD),
		totalSupply: decimal.NewFromInt(cfg.TotalSupply),
		win1m:       newRollingWindow(time.Minute),
		win5m:       newRollingWindow(5 * time.Minute),
		win1h:       newRollingWindow(time.Hour),
		lastPrice:   decimal.Zero,
	}
}

// Observe 处理一笔成交并返回最新快照。与追踪代币无关的成交返回nil。
// 窗口成员按成交事件时间判定，剔除基准是调用方给的now。
func (a *Aggregator) Observe(trade *common.TradeEvent, now time.Time) *model.Snapshot {
	if trade == nil {
		return nil
	}

	var action common.Action
	var tokenRaw, quoteRaw decimal.Decimal
	var tokenDecimals, quoteDecimals int32

	switch a.mint {
	case trade.TokenInAddress:
		// 用户付出追踪代币 → 卖出
		action = common.SellAction
		tokenRaw, tokenDecimals = trade.TokenInAmount, trade.TokenInDecimals
		quoteRaw, quoteDecimals = trade.TokenOutAmount, trade.TokenOutDecimals
	case trade.TokenOutAddress:
		action = common.BuyAction
		tokenRaw, tokenDecimals = trade.TokenOutAmount, trade.TokenOutDecimals
		quoteRaw, quoteDecimals = trade.TokenInAmount, trade.TokenInDecimals
	default:
		return nil
	}

	tokenAmount := tokenRaw.Shift(-tokenDecimals)
	quoteAmount := quoteRaw.Shift(-quoteDecimals)
	amountUSD := quoteAmount.Mul(a.solPriceUSD)

	a.mu.Lock()
	defer a.mu.Unlock()

	if tokenAmount.GreaterThan(minTokenAmount) {
		a.lastPrice = quoteAmount.Div(tokenAmount).Mul(a.solPriceUSD)
	}
	a.lastTrade = trade.BlockTime

	s := sample{time: trade.BlockTime, action: action, amountUSD: amountUSD}
	a.win1m.Add(s, now)
	a.win5m.Add(s, now)
	a.win1h.Add(s, now)

	return &model.Snapshot{
		Mint:          a.mint,
		PriceUSD:      a.lastPrice,
		MarketCapUSD:  a.lastPrice.Mul(a.totalSupply),
		Volume1m:      a.win1m.Stats(),
		Volume5m:      a.win5m.Stats(),
		Volume1h:      a.win1h.Stats(),
		LastAction:    action.String(),
		LastAmountUSD: amountUSD,
		Time:          trade.BlockTime,
	}
}

// LastPrice 最近一次有效成交价
func (a *Aggregator) LastPrice() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastPrice
}

// LastTrade 最近一笔成交的事件时间
func (a *Aggregator) LastTrade() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastTrade
}
