package ledger

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-pilot/internal/common"
)

func TestNewInitializesEmptyArray(t *testing.T) {
	dir := t.TempDir()

	l, err := New(dir, "MintAAAA")
	require.NoError(t, err)

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))

	entries, err := l.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "MintBBBB")
	require.NoError(t, err)

	buyAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, l.Append(Entry{
		Timestamp: buyAt.Unix(),
		Type:      "BUY",
		Price:     0.0001,
		Amount:    1000,
		Total:     0.1,
	}))

	pl := 16.0
	ht := int64(15)
	require.NoError(t, l.Append(Entry{
		Timestamp:  buyAt.Add(15 * time.Second).Unix(),
		Type:       "SELL",
		Price:      0.000116,
		Amount:     1000,
		Total:      0.116,
		ProfitLoss: &pl,
		HoldTime:   &ht,
	}))

	entries, err := l.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "BUY", entries[0].Type)
	assert.Nil(t, entries[0].ProfitLoss)
	assert.Equal(t, "2025-06-01T12:00:00.000Z", entries[0].DateTime)

	assert.Equal(t, "SELL", entries[1].Type)
	require.NotNil(t, entries[1].ProfitLoss)
	assert.InDelta(t, 16.0, *entries[1].ProfitLoss, 1e-9)
	require.NotNil(t, entries[1].HoldTime)
	assert.Equal(t, int64(15), *entries[1].HoldTime)
	assert.Equal(t, "2025-06-01T12:00:15.000Z", entries[1].DateTime)

	// 买入记录不包含卖出专有字段
	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	var generic []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &generic))
	_, hasPL := generic[0]["profitLoss"]
	assert.False(t, hasPL)
	_, hasHold := generic[0]["holdTime"]
	assert.False(t, hasHold)
}

func TestLogFill(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "MintCCCC")
	require.NoError(t, err)

	pl := decimal.RequireFromString("-8")
	ht := int64(3)
	fill := &common.FillEvent{
		Mint:        "MintCCCC",
		Action:      common.SellAction,
		PriceUSD:    decimal.RequireFromString("0.000092"),
		Amount:      decimal.NewFromInt(1000),
		TotalUSD:    decimal.RequireFromString("0.092"),
		Timestamp:   time.Unix(1735689600, 0),
		ProfitLoss:  &pl,
		HoldTimeSec: &ht,
	}
	require.NoError(t, l.LogFill(fill))

	entries, err := l.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SELL", entries[0].Type)
	require.NotNil(t, entries[0].ProfitLoss)
	assert.InDelta(t, -8.0, *entries[0].ProfitLoss, 1e-9)
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "MintDDDD")
	require.NoError(t, err)

	mk := func(pl float64) *float64 { return &pl }
	now := time.Now().Unix()

	require.NoError(t, l.Append(Entry{Timestamp: now, Type: "BUY", Price: 1, Amount: 1000, Total: 1000}))
	require.NoError(t, l.Append(Entry{Timestamp: now + 10, Type: "SELL", Price: 1.05, Amount: 1000, Total: 1050, ProfitLoss: mk(5)}))
	require.NoError(t, l.Append(Entry{Timestamp: now + 20, Type: "BUY", Price: 1, Amount: 1000, Total: 1000}))
	require.NoError(t, l.Append(Entry{Timestamp: now + 30, Type: "SELL", Price: 0.98, Amount: 1000, Total: 980, ProfitLoss: mk(-2)}))

	s, err := l.Stats()
	require.NoError(t, err)

	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 1, s.ProfitableTrades)
	assert.InDelta(t, 50.0, s.WinRate, 1e-9)
	assert.InDelta(t, 1.5, s.AverageProfit, 1e-9)
	assert.InDelta(t, 5.0, s.MaxProfit, 1e-9)
	assert.InDelta(t, -2.0, s.MaxLoss, 1e-9)
}
