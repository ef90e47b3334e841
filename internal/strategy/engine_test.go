package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-pilot/internal/common"
	"github.com/ninja0404/token-pilot/internal/model"
	"github.com/ninja0404/token-pilot/pkg/logger"
)

func TestMain(m *testing.M) {
	cfg := &logger.Config{
		Name:          "strategy-test",
		OUTPUT:        "stdout",
		Level:         "info",
		Discard:       true,
		DisableSentry: true,
	}
	l := cfg.Build()
	logger.SetDefault(l)
	logger.SetDefaultL1(l)
	m.Run()
}

const testMint = "TokenMint1111111111111111111111111111111111"

func snap(at time.Time, price string, vol int64, action string) *model.Snapshot {
	return &model.Snapshot{
		Mint:       testMint,
		PriceUSD:   decimal.RequireFromString(price),
		Volume1m:   model.VolumeStats{Buy: decimal.NewFromInt(vol)},
		LastAction: action,
		Time:       at,
	}
}

// rampToBuy 两笔铺底后第三笔放量上涨，触发买入
func rampToBuy(t *testing.T, e *Engine, base time.Time) *common.FillEvent {
	t.Helper()

	require.Nil(t, e.OnSnapshot(snap(base, "1.00", 100, "buy")))
	require.Nil(t, e.OnSnapshot(snap(base.Add(5*time.Second), "1.005", 100, "buy")))

	fill := e.OnSnapshot(snap(base.Add(10*time.Second), "1.02", 1000, "buy"))
	require.NotNil(t, fill, "expected entry fill")
	require.Equal(t, common.BuyAction, fill.Action)
	return fill
}

func TestBuyAtSpikeThenTakeProfit(t *testing.T) {
	e := NewEngine(testMint, DefaultConfig(), nil)
	base := time.Now()

	buy := rampToBuy(t, e, base)
	assert.True(t, buy.PriceUSD.Equal(decimal.RequireFromString("1.02")))
	assert.True(t, buy.Amount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, buy.TotalUSD.Equal(decimal.RequireFromString("1020")))
	assert.Equal(t, StateLong, e.State())

	// 持仓15秒后上涨16% → 止盈
	sell := e.OnSnapshot(snap(base.Add(25*time.Second), "1.1832", 800, "buy"))
	require.NotNil(t, sell)
	assert.Equal(t, common.SellAction, sell.Action)
	assert.Equal(t, "take_profit", sell.Reason)
	require.NotNil(t, sell.ProfitLoss)
	assert.True(t, sell.ProfitLoss.Equal(decimal.NewFromInt(16)), "pl = %s", sell.ProfitLoss)
	require.NotNil(t, sell.HoldTimeSec)
	assert.Equal(t, int64(15), *sell.HoldTimeSec)

	assert.Equal(t, StateFlat, e.State())
	assert.Nil(t, e.Position())

	// 10000 - 1020 + 1183.2
	w := e.Wallet()
	assert.True(t, w.USD.Equal(decimal.RequireFromString("10163.2")), "usd = %s", w.USD)
	assert.True(t, w.Tokens.IsZero())
}

func TestStopLossTriggersImmediately(t *testing.T) {
	e := NewEngine(testMint, DefaultConfig(), nil)
	base := time.Now()

	rampToBuy(t, e, base)

	// 下跌8%，远超2%止损线
	sell := e.OnSnapshot(snap(base.Add(13*time.Second), "0.9384", 900, "sell"))
	require.NotNil(t, sell)
	assert.Equal(t, "stop_loss", sell.Reason)
	require.NotNil(t, sell.ProfitLoss)
	assert.True(t, sell.ProfitLoss.Equal(decimal.NewFromInt(-8)), "pl = %s", sell.ProfitLoss)
	assert.Equal(t, StateFlat, e.State())
}

func TestMaxHoldTime(t *testing.T) {
	e := NewEngine(testMint, DefaultConfig(), nil)
	base := time.Now()

	rampToBuy(t, e, base)

	// 价格横盘，持仓到30秒强制离场
	sell := e.OnSnapshot(snap(base.Add(40*time.Second), "1.02", 600, "buy"))
	require.NotNil(t, sell)
	assert.Equal(t, "max_hold", sell.Reason)
	require.NotNil(t, sell.HoldTimeSec)
	assert.Equal(t, int64(30), *sell.HoldTimeSec)
}

func TestSinglePositionInvariant(t *testing.T) {
	e := NewEngine(testMint, DefaultConfig(), nil)
	base := time.Now()

	rampToBuy(t, e, base)
	pos := e.Position()
	require.NotNil(t, pos)

	// 持仓中再出现买入信号也不加仓
	fill := e.OnSnapshot(snap(base.Add(15*time.Second), "1.03", 1200, "buy"))
	assert.Nil(t, fill)

	after := e.Position()
	require.NotNil(t, after)
	assert.True(t, after.EntryPrice.Equal(pos.EntryPrice))
	assert.True(t, after.Amount.Equal(pos.Amount))
}

func TestCooldownBlocksReentry(t *testing.T) {
	e := NewEngine(testMint, DefaultConfig(), nil)
	base := time.Now()

	rampToBuy(t, e, base)
	sell := e.OnSnapshot(snap(base.Add(25*time.Second), "1.1832", 800, "buy"))
	require.NotNil(t, sell)

	// 卖出后15秒内即使条件满足也不买
	fill := e.OnSnapshot(snap(base.Add(30*time.Second), "1.30", 5000, "buy"))
	assert.Nil(t, fill)
	assert.Equal(t, StateFlat, e.State())
}

func TestNoBuyBelowVolumeFloor(t *testing.T) {
	e := NewEngine(testMint, DefaultConfig(), nil)
	base := time.Now()

	require.Nil(t, e.OnSnapshot(snap(base, "1.00", 50, "buy")))
	require.Nil(t, e.OnSnapshot(snap(base.Add(5*time.Second), "1.005", 50, "buy")))
	// 放量不足500美元
	fill := e.OnSnapshot(snap(base.Add(10*time.Second), "1.02", 400, "buy"))
	assert.Nil(t, fill)
	assert.Equal(t, StateFlat, e.State())
}

func TestDeterministicFills(t *testing.T) {
	run := func() []*common.FillEvent {
		e := NewEngine(testMint, DefaultConfig(), nil)
		base := time.Unix(1_750_000_000, 0)

		inputs := []*model.Snapshot{
			snap(base, "1.00", 100, "buy"),
			snap(base.Add(5*time.Second), "1.005", 100, "buy"),
			snap(base.Add(10*time.Second), "1.02", 1000, "buy"),
			snap(base.Add(20*time.Second), "1.05", 700, "buy"),
			snap(base.Add(25*time.Second), "1.1832", 800, "sell"),
			snap(base.Add(32*time.Second), "1.19", 900, "buy"),
		}

		var fills []*common.FillEvent
		for _, in := range inputs {
			if f := e.OnSnapshot(in); f != nil {
				fills = append(fills, f)
			}
		}
		return fills
	}

	a, b := run(), run()
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Action, b[i].Action)
		assert.True(t, a[i].PriceUSD.Equal(b[i].PriceUSD))
		assert.True(t, a[i].TotalUSD.Equal(b[i].TotalUSD))
		assert.Equal(t, a[i].Reason, b[i].Reason)
	}
}

func TestProportionalSizingPreset(t *testing.T) {
	cfg, err := Preset("proportional")
	require.NoError(t, err)
	assert.True(t, cfg.ProportionalSizing)

	e := NewEngine(testMint, cfg, nil)
	base := time.Now()

	buy := rampToBuy(t, e, base)
	// 1000美元仓位 ÷ 1.02
	expected := decimal.NewFromInt(1000).Div(decimal.RequireFromString("1.02"))
	assert.True(t, buy.Amount.Equal(expected), "amount = %s", buy.Amount)

	_, err = Preset("nope")
	assert.Error(t, err)
}

func TestPresetDefaultEquivalence(t *testing.T) {
	def, err := Preset("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), def)

	named, err := Preset("default")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), named)
}
