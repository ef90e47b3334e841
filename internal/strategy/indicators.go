package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/ninja0404/token-pilot/internal/common"
)

var two = decimal.NewFromInt(2)

// detectVolumeSpike 当前1m成交量是否超过窗口均值的倍数阈值
func (e *Engine) detectVolumeSpike(s marketSample) bool {
	avg := e.averageVolume()
	if avg.IsZero() {
		return false
	}
	return s.volume1m.GreaterThan(avg.Mul(e.volumeSpike))
}

func (e *Engine) averageVolume() decimal.Decimal {
	if len(e.samples) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, s := range e.samples {
		sum = sum.Add(s.volume1m)
	}
	return sum.Div(decimal.NewFromInt(int64(len(e.samples))))
}

// detectPriceMovement 最近3个样本间的价格变化比例，样本不足返回0
func (e *Engine) detectPriceMovement(s marketSample) decimal.Decimal {
	if len(e.samples) < 3 {
		return decimal.Zero
	}
	base := e.samples[len(e.samples)-3].price
	if base.IsZero() {
		return decimal.Zero
	}
	return s.price.Sub(base).Div(base)
}

// calculateBuyPressure 最近10个样本中买单占比
func (e *Engine) calculateBuyPressure() decimal.Decimal {
	start := len(e.samples) - 10
	if start < 0 {
		start = 0
	}
	recent := e.samples[start:]
	if len(recent) == 0 {
		return decimal.Zero
	}

	buys := 0
	for _, s := range recent {
		if s.action == common.BuyAction {
			buys++
		}
	}
	return decimal.NewFromInt(int64(buys)).Div(decimal.NewFromInt(int64(len(recent))))
}

// calculateMomentum 窗口首尾价差
func (e *Engine) calculateMomentum() decimal.Decimal {
	if len(e.samples) < 2 {
		return decimal.Zero
	}
	return e.samples[len(e.samples)-1].price.Sub(e.samples[0].price)
}

// isUptrend 价格在短周期EMA上方且在抬高低点
func (e *Engine) isUptrend() bool {
	if len(e.samples) < e.cfg.TrendWindow {
		return false
	}
	recent := e.samples[len(e.samples)-e.cfg.TrendWindow:]

	prices := make([]decimal.Decimal, len(recent))
	for i, s := range recent {
		prices[i] = s.price
	}

	ema := calculateEMA(prices, 3)
	current := prices[len(prices)-1]

	makingHigherLows := true
	for i := 2; i < len(recent); i++ {
		if recent[i].price.LessThan(recent[i-1].price) {
			makingHigherLows = false
			break
		}
	}

	return current.GreaterThan(ema) && makingHigherLows
}

// detectReversalPattern 先涨后跌且量能衰减
func (e *Engine) detectReversalPattern(s marketSample) bool {
	if len(e.samples) < 3 {
		return false
	}
	recent := e.samples[len(e.samples)-3:]

	change1 := priceChangePct(recent[0].price, recent[1].price)
	change2 := priceChangePct(recent[1].price, recent[2].price)

	wasIncreasing := change1.GreaterThan(e.reversal)
	isDecreasing := change2.LessThan(e.reversal.Neg())
	volumeDecreasing := s.volume1m.LessThan(recent[1].volume1m)

	return wasIncreasing && isDecreasing && volumeDecreasing
}

func priceChangePct(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from)
}

// calculateEMA multiplier = 2/(period+1)
func calculateEMA(prices []decimal.Decimal, period int) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	multiplier := two.Div(decimal.NewFromInt(int64(period + 1)))
	ema := prices[0]
	for i := 1; i < len(prices); i++ {
		ema = prices[i].Sub(ema).Mul(multiplier).Add(ema)
	}
	return ema
}
