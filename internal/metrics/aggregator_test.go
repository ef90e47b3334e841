package metrics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-pilot/internal/common"
)

const (
	testMint = "TokenMint1111111111111111111111111111111111"
	solMint  = "So11111111111111111111111111111111111111112"
)

func newTestAggregator() *Aggregator {
	return NewAggregator(Config{
		Mint:        testMint,
		SolPriceUSD: 130,
		TotalSupply: 1_000_000_000,
	})
}

// buyTrade 用户付出1 SOL换得tokenOut个追踪代币
func buyTrade(at time.Time, solIn, tokenOut int64) *common.TradeEvent {
	return &common.TradeEvent{
		BlockTime:        at,
		TokenInAddress:   solMint,
		TokenOutAddress:  testMint,
		TokenInDecimals:  9,
		TokenOutDecimals: 6,
		TokenInAmount:    decimal.NewFromInt(solIn),
		TokenOutAmount:   decimal.NewFromInt(tokenOut),
	}
}

func sellTrade(at time.Time, tokenIn, solOut int64) *common.TradeEvent {
	return &common.TradeEvent{
		BlockTime:        at,
		TokenInAddress:   testMint,
		TokenOutAddress:  solMint,
		TokenInDecimals:  6,
		TokenOutDecimals: 9,
		TokenInAmount:    decimal.NewFromInt(tokenIn),
		TokenOutAmount:   decimal.NewFromInt(solOut),
	}
}

func TestObserveIgnoresUnrelatedTrade(t *testing.T) {
	agg := newTestAggregator()
	now := time.Now()

	snap := agg.Observe(&common.TradeEvent{
		BlockTime:       now,
		TokenInAddress:  solMint,
		TokenOutAddress: "OtherMint111111111111111111111111111111111",
		TokenInAmount:   decimal.NewFromInt(1_000_000_000),
		TokenOutAmount:  decimal.NewFromInt(1_000_000),
	}, now)

	assert.Nil(t, snap)
	assert.Nil(t, agg.Observe(nil, now))
}

func TestObserveSideAndPrice(t *testing.T) {
	agg := newTestAggregator()
	now := time.Now()

	// 1 SOL买入1000个token：价格 = (1/1000)*130 = 0.13
	snap := agg.Observe(buyTrade(now, 1_000_000_000, 1_000_000_000), now)
	require.NotNil(t, snap)

	assert.Equal(t, "buy", snap.LastAction)
	assert.True(t, snap.PriceUSD.Equal(decimal.RequireFromString("0.13")), "price = %s", snap.PriceUSD)
	assert.True(t, snap.LastAmountUSD.Equal(decimal.NewFromInt(130)), "amount = %s", snap.LastAmountUSD)

	// 市值 = 价格 × 固定10亿供应
	assert.True(t, snap.MarketCapUSD.Equal(decimal.RequireFromString("130000000")), "mcap = %s", snap.MarketCapUSD)

	snap = agg.Observe(sellTrade(now.Add(time.Second), 500_000_000, 100_000_000), now.Add(time.Second))
	require.NotNil(t, snap)
	assert.Equal(t, "sell", snap.LastAction)
	assert.Equal(t, 2, snap.Volume1m.TxCount)
	assert.True(t, snap.Volume1m.Buy.Equal(decimal.NewFromInt(130)))
	assert.True(t, snap.Volume1m.Sell.Equal(decimal.NewFromInt(13)))
	assert.True(t, snap.Volume1m.Total().Equal(decimal.NewFromInt(143)))
}

func TestObserveEpsilonKeepsLastPrice(t *testing.T) {
	agg := newTestAggregator()
	now := time.Now()

	snap := agg.Observe(buyTrade(now, 1_000_000_000, 1_000_000_000), now)
	require.NotNil(t, snap)
	last := snap.PriceUSD

	// token数量几乎为零，价格不更新但成交量仍计入
	dust := buyTrade(now.Add(time.Second), 1_000_000_000, 1)
	snap = agg.Observe(dust, now.Add(time.Second))
	require.NotNil(t, snap)
	assert.True(t, snap.PriceUSD.Equal(last))
	assert.Equal(t, 2, snap.Volume1m.TxCount)
}

func TestWindowPruning(t *testing.T) {
	agg := newTestAggregator()
	base := time.Now()

	agg.Observe(buyTrade(base, 1_000_000_000, 1_000_000_000), base)

	// 90秒后：1m窗口只剩新样本，5m/1h两条都在
	later := base.Add(90 * time.Second)
	snap := agg.Observe(buyTrade(later, 2_000_000_000, 1_000_000_000), later)
	require.NotNil(t, snap)

	assert.Equal(t, 1, snap.Volume1m.TxCount)
	assert.True(t, snap.Volume1m.Buy.Equal(decimal.NewFromInt(260)))
	assert.Equal(t, 2, snap.Volume5m.TxCount)
	assert.True(t, snap.Volume5m.Buy.Equal(decimal.NewFromInt(390)))
	assert.Equal(t, 2, snap.Volume1h.TxCount)
}

func TestWindowEventTimeMembership(t *testing.T) {
	agg := newTestAggregator()
	base := time.Now()

	// 迟到样本：事件时间在90秒前，现在才到达。
	// 1m窗口按事件时间已经过期，连它自己返回的快照都不能计入。
	late := buyTrade(base.Add(-90*time.Second), 1_000_000_000, 1_000_000_000)
	lateSnap := agg.Observe(late, base)
	require.NotNil(t, lateSnap)
	assert.Equal(t, 0, lateSnap.Volume1m.TxCount)
	assert.True(t, lateSnap.Volume1m.Buy.IsZero(), "expired-on-arrival trade credited 1m window")
	assert.Equal(t, 1, lateSnap.Volume5m.TxCount)

	snap := agg.Observe(buyTrade(base, 1_000_000_000, 1_000_000_000), base)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Volume1m.TxCount)
	assert.Equal(t, 2, snap.Volume5m.TxCount)
}

func TestWindowOutOfOrderPruning(t *testing.T) {
	w := newRollingWindow(time.Minute)
	base := time.Now()

	// 新样本先到，迟到样本事件时间更早但仍在窗口内
	w.Add(sample{time: base, action: common.BuyAction, amountUSD: decimal.NewFromInt(1)}, base)
	w.Add(sample{time: base.Add(-50 * time.Second), action: common.BuyAction, amountUSD: decimal.NewFromInt(2)}, base)
	assert.Equal(t, 2, w.Stats().TxCount)
	assert.True(t, w.Stats().Buy.Equal(decimal.NewFromInt(3)))

	// 30秒后迟到样本已过期，虽然它排在新样本后面也必须被剔除
	w.prune(base.Add(30 * time.Second))
	stats := w.Stats()
	assert.Equal(t, 1, stats.TxCount)
	assert.True(t, stats.Buy.Equal(decimal.NewFromInt(1)), "overstaying late sample, buy = %s", stats.Buy)
}

func TestWindowInvariantNoExpiredSamples(t *testing.T) {
	w := newRollingWindow(time.Minute)
	base := time.Now()

	for i := 0; i < 300; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		w.Add(sample{time: at, action: common.BuyAction, amountUSD: decimal.NewFromInt(1)}, at)

		cutoff := at.Add(-time.Minute)
		for _, s := range w.samples {
			assert.False(t, s.time.Before(cutoff), "expired sample left in window")
		}
	}

	stats := w.Stats()
	// 60秒窗口内最多61条间隔1秒的样本
	assert.LessOrEqual(t, stats.TxCount, 61)
	assert.True(t, stats.Buy.Equal(decimal.NewFromInt(int64(stats.TxCount))))
}
