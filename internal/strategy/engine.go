package strategy

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ninja0404/token-pilot/internal/common"
	"github.com/ninja0404/token-pilot/internal/model"
	"github.com/ninja0404/token-pilot/pkg/logger"
)

// State 持仓状态
type State int32

const (
	StateFlat State = iota
	StateLong
)

func (s State) String() string {
	if s == StateLong {
		return "LONG"
	}
	return "FLAT"
}

// Position 当前持仓
type Position struct {
	EntryPrice decimal.Decimal
	Amount     decimal.Decimal
	Time       time.Time
}

// Wallet 模拟钱包
type Wallet struct {
	USD    decimal.Decimal
	Tokens decimal.Decimal
}

// FillLog 成交落盘，账本实现它
type FillLog interface {
	LogFill(*common.FillEvent) error
}

type marketSample struct {
	time     time.Time
	price    decimal.Decimal
	volume1m decimal.Decimal
	action   common.Action
}

// Engine FLAT/LONG两态策略引擎，同一时刻至多一个持仓
type Engine struct {
	mint string
	cfg  Config

	// 预转换的decimal阈值
	volumeSpike     decimal.Decimal
	minVolume       decimal.Decimal
	priceChange     decimal.Decimal
	reversal        decimal.Decimal
	profitTarget    decimal.Decimal
	stopLoss        decimal.Decimal
	secondaryProfit decimal.Decimal
	minBuyPressure  decimal.Decimal
	fixedAmount     decimal.Decimal
	maxPosition     decimal.Decimal

	samples     []marketSample
	state       State
	position    *Position
	wallet      Wallet
	lastTradeAt time.Time

	fillLog FillLog

	mu sync.Mutex
}

// NewEngine fillLog可以为nil（只回测不落盘）
func NewEngine(mint string, cfg Config, fillLog FillLog) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		mint:            mint,
		cfg:             cfg,
		volumeSpike:     decimal.NewFromFloat(cfg.VolumeSpikeThreshold),
		minVolume:       decimal.NewFromFloat(cfg.MinVolumeUSD),
		priceChange:     decimal.NewFromFloat(cfg.PriceChangeThreshold),
		reversal:        decimal.NewFromFloat(cfg.ReversalThreshold),
		profitTarget:    decimal.NewFromFloat(cfg.ProfitTarget),
		stopLoss:        decimal.NewFromFloat(cfg.StopLoss),
		secondaryProfit: decimal.NewFromFloat(cfg.SecondaryProfitTarget),
		minBuyPressure:  decimal.NewFromFloat(cfg.MinBuyPressure),
		fixedAmount:     decimal.NewFromFloat(cfg.FixedTokenAmount),
		maxPosition:     decimal.NewFromFloat(cfg.MaxPositionSize),
		samples:         make([]marketSample, 0, 64),
		state:           StateFlat,
		wallet: Wallet{
			USD:    decimal.NewFromFloat(cfg.InitialBalanceUSD),
			Tokens: decimal.Zero,
		},
		fillLog: fillLog,
	}
}

// OnSnapshot 接收一份行情快照并决策，产生成交时返回fill，否则返回nil
func (e *Engine) OnSnapshot(snap *model.Snapshot) *common.FillEvent {
	if snap == nil || snap.PriceUSD.IsZero() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := marketSample{
		time:     snap.Time,
		price:    snap.PriceUSD,
		volume1m: snap.Volume1m.Total(),
		action:   actionFromString(snap.LastAction),
	}

	e.appendSample(s)

	if e.state == StateLong {
		if reason, ok := e.shouldSell(s); ok {
			return e.executeSell(s, reason)
		}
		return nil
	}

	if e.shouldBuy(s) {
		return e.executeBuy(s)
	}
	return nil
}

// appendSample 追加并裁剪样本窗口（按事件时间）
func (e *Engine) appendSample(s marketSample) {
	e.samples = append(e.samples, s)

	cutoff := s.time.Add(-e.cfg.PriceDataWindow)
	expired := 0
	for expired < len(e.samples) && e.samples[expired].time.Before(cutoff) {
		expired++
	}
	if expired > 0 {
		copy(e.samples, e.samples[expired:])
		e.samples = e.samples[:len(e.samples)-expired]
	}
}

func (e *Engine) shouldBuy(s marketSample) bool {
	if len(e.samples) < 2 {
		return false
	}

	// 冷却期
	if !e.lastTradeAt.IsZero() && s.time.Sub(e.lastTradeAt) < e.cfg.TradeCooldown {
		return false
	}

	// 流动性下限
	if s.volume1m.LessThan(e.minVolume) {
		return false
	}

	volumeSpike := e.detectVolumeSpike(s)
	priceMovement := e.detectPriceMovement(s)
	buyPressure := e.calculateBuyPressure()
	momentum := e.calculateMomentum()
	uptrend := e.isUptrend()

	return (uptrend || buyPressure.GreaterThan(e.minBuyPressure)) &&
		volumeSpike &&
		priceMovement.GreaterThanOrEqual(e.priceChange) &&
		momentum.IsPositive() &&
		!e.detectReversalPattern(s)
}

// shouldSell 返回卖出原因
func (e *Engine) shouldSell(s marketSample) (string, bool) {
	if e.position == nil {
		return "", false
	}

	profitLoss := s.price.Sub(e.position.EntryPrice).Div(e.position.EntryPrice)
	holdTime := s.time.Sub(e.position.Time)
	uptrend := e.isUptrend()

	switch {
	case profitLoss.LessThanOrEqual(e.stopLoss.Neg()):
		return "stop_loss", true
	case profitLoss.GreaterThanOrEqual(e.profitTarget):
		return "take_profit", true
	case holdTime >= e.cfg.MaxHoldTime:
		return "max_hold", true
	case !uptrend && e.detectReversalPattern(s):
		return "reversal", true
	case !uptrend && profitLoss.GreaterThan(e.secondaryProfit):
		return "trend_fade_profit", true
	}
	return "", false
}

func (e *Engine) executeBuy(s marketSample) *common.FillEvent {
	amount := e.fixedAmount
	if e.cfg.ProportionalSizing {
		amount = e.maxPosition.Div(s.price)
	}
	positionSize := amount.Mul(s.price)

	e.position = &Position{
		EntryPrice: s.price,
		Amount:     amount,
		Time:       s.time,
	}
	e.state = StateLong
	e.lastTradeAt = s.time

	e.wallet.USD = e.wallet.USD.Sub(positionSize)
	e.wallet.Tokens = e.wallet.Tokens.Add(amount)

	fill := &common.FillEvent{
		Mint:      e.mint,
		Action:    common.BuyAction,
		PriceUSD:  s.price,
		Amount:    amount,
		TotalUSD:  positionSize,
		Timestamp: s.time,
		Reason:    "entry",
	}
	e.logFill(fill)

	logger.Info("🚀 买入执行",
		logger.FieldMint(e.mint),
		logger.String("price", s.price.String()),
		logger.String("amount", amount.String()),
		logger.String("total", positionSize.String()))

	return fill
}

func (e *Engine) executeSell(s marketSample, reason string) *common.FillEvent {
	pos := e.position

	saleAmount := pos.Amount.Mul(s.price)
	profitLossPct := s.price.Sub(pos.EntryPrice).Div(pos.EntryPrice).Mul(decimal.NewFromInt(100))
	holdSec := int64(s.time.Sub(pos.Time) / time.Second)

	e.wallet.USD = e.wallet.USD.Add(saleAmount)
	e.wallet.Tokens = e.wallet.Tokens.Sub(pos.Amount)

	e.position = nil
	e.state = StateFlat
	e.lastTradeAt = s.time

	fill := &common.FillEvent{
		Mint:        e.mint,
		Action:      common.SellAction,
		PriceUSD:    s.price,
		Amount:      pos.Amount,
		TotalUSD:    saleAmount,
		Timestamp:   s.time,
		ProfitLoss:  &profitLossPct,
		HoldTimeSec: &holdSec,
		Reason:      reason,
	}
	e.logFill(fill)

	logger.Info("💰 卖出执行",
		logger.FieldMint(e.mint),
		logger.String("reason", reason),
		logger.String("entry_price", pos.EntryPrice.String()),
		logger.String("exit_price", s.price.String()),
		logger.String("profit_loss_pct", profitLossPct.Truncate(2).String()),
		logger.Int64("hold_seconds", holdSec))

	return fill
}

// logFill 账本写失败只记日志，内存中的钱包状态仍是权威
func (e *Engine) logFill(fill *common.FillEvent) {
	if e.fillLog == nil {
		return
	}
	if err := e.fillLog.LogFill(fill); err != nil {
		logger.Error("账本写入失败", logger.FieldErr(err), logger.FieldMint(e.mint))
	}
}

// State 当前状态
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Position 当前持仓快照，空仓返回nil
func (e *Engine) Position() *Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.position == nil {
		return nil
	}
	p := *e.position
	return &p
}

// Wallet 钱包快照
func (e *Engine) Wallet() Wallet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wallet
}

// WalletStatus 可读的钱包状态
func (e *Engine) WalletStatus() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	position := "no active position"
	if e.position != nil {
		position = fmt.Sprintf("%s tokens @ $%s", e.position.Amount.String(), e.position.EntryPrice.String())
	}
	return fmt.Sprintf("USD: $%s, Tokens: %s, Position: %s",
		e.wallet.USD.Truncate(2).String(), e.wallet.Tokens.String(), position)
}

func actionFromString(s string) common.Action {
	switch s {
	case "buy":
		return common.BuyAction
	case "sell":
		return common.SellAction
	default:
		return common.UnknownAction
	}
}
