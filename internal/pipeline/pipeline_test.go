package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-pilot/internal/common"
	"github.com/ninja0404/token-pilot/internal/decoder"
	"github.com/ninja0404/token-pilot/internal/metrics"
	"github.com/ninja0404/token-pilot/internal/model"
	"github.com/ninja0404/token-pilot/internal/publisher"
	"github.com/ninja0404/token-pilot/internal/source"
	"github.com/ninja0404/token-pilot/internal/strategy"
	"github.com/ninja0404/token-pilot/pkg/logger"
)

func TestMain(m *testing.M) {
	cfg := &logger.Config{
		Name:          "pipeline-test",
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

// fakeSource 手动推送信封的内存数据源
type fakeSource struct {
	envChan chan *model.RawEnvelope
	errChan chan error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		envChan: make(chan *model.RawEnvelope, 100),
		errChan: make(chan error, 10),
	}
}

func (f *fakeSource) Start(ctx context.Context) error      { return nil }
func (f *fakeSource) Stop() error                          { return nil }
func (f *fakeSource) Subscribe() <-chan *model.RawEnvelope { return f.envChan }
func (f *fakeSource) Errors() <-chan error                 { return f.errChan }
func (f *fakeSource) String() string                       { return "fake" }

func (f *fakeSource) push(slot uint64) { f.envChan <- &model.RawEnvelope{Slot: slot} }

// fakeDecoder 按slot映射预设的成交序列
type fakeDecoder struct {
	trades map[uint64][]*common.TradeEvent
}

func (d *fakeDecoder) DecodeTrades(tx *model.Transaction, opts decoder.Options) []*common.TradeEvent {
	return d.trades[tx.Slot]
}

func (d *fakeDecoder) DecodeLiquidity(tx *model.Transaction, opts decoder.Options) []*common.LiquidityEvent {
	return nil
}

// capturePublisher 把发布的成交收进通道
type capturePublisher struct {
	fills chan *common.FillEvent
}

func (c *capturePublisher) GetType() string { return "capture" }
func (c *capturePublisher) Close() error    { return nil }
func (c *capturePublisher) Publish(fill *common.FillEvent) error {
	c.fills <- fill
	return nil
}

// buyTrade 用户花quote个SOL买进token个追踪代币
func buyTrade(slot uint64, at time.Time, quote, token string) *common.TradeEvent {
	return &common.TradeEvent{
		Signature:        fmt.Sprintf("sig-%d", slot),
		Slot:             slot,
		BlockTime:        at,
		InstIdxInTx:      "0",
		TokenInAddress:   "So11111111111111111111111111111111111111112",
		TokenOutAddress:  testMint,
		TokenInDecimals:  0,
		TokenOutDecimals: 0,
		TokenInAmount:    decimal.RequireFromString(quote),
		TokenOutAmount:   decimal.RequireFromString(token),
		Dex:              "test",
	}
}

func TestPipelineEndToEndFill(t *testing.T) {
	base := time.Now().Add(-30 * time.Second)

	// 三笔买入：130/130/1300美元，价格1.0→1.3→1.3，第三笔放量触发买入
	dec := &fakeDecoder{trades: map[uint64][]*common.TradeEvent{
		1: {buyTrade(1, base, "1", "130")},
		2: {buyTrade(2, base.Add(5*time.Second), "1", "100")},
		3: {buyTrade(3, base.Add(10*time.Second), "10", "1000")},
	}}

	src := newFakeSource()
	manager := source.NewManager()
	manager.AddSource(src)

	capture := &capturePublisher{fills: make(chan *common.FillEvent, 10)}
	pubManager := publisher.NewManager()
	pubManager.AddPublisher(capture)

	agg := metrics.NewAggregator(metrics.Config{Mint: testMint})
	engine := strategy.NewEngine(testMint, strategy.DefaultConfig(), nil)

	p := NewPipeline(manager, dec, decoder.Options{}, agg, engine, pubManager)
	require.NoError(t, p.Start())
	defer p.Stop()

	src.push(1)
	src.push(2)
	src.push(3)

	select {
	case fill := <-capture.fills:
		assert.Equal(t, common.BuyAction, fill.Action)
		assert.Equal(t, testMint, fill.Mint)
		assert.True(t, fill.PriceUSD.Equal(decimal.RequireFromString("1.3")), "price = %s", fill.PriceUSD)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a buy fill")
	}

	stats := p.GetStats()
	assert.GreaterOrEqual(t, stats.EnvelopesProcessed, int64(3))
	assert.Equal(t, int64(3), stats.TradesDecoded)
	assert.Equal(t, int64(1), stats.FillsExecuted)
}

func TestPipelineSkipsUntrackedTrades(t *testing.T) {
	base := time.Now().Add(-10 * time.Second)

	other := buyTrade(1, base, "1", "130")
	other.TokenOutAddress = "OtherMint111111111111111111111111111111111"

	dec := &fakeDecoder{trades: map[uint64][]*common.TradeEvent{1: {other}}}

	src := newFakeSource()
	manager := source.NewManager()
	manager.AddSource(src)

	pubManager := publisher.NewManager()
	agg := metrics.NewAggregator(metrics.Config{Mint: testMint})
	engine := strategy.NewEngine(testMint, strategy.DefaultConfig(), nil)

	p := NewPipeline(manager, dec, decoder.Options{}, agg, engine, pubManager)
	require.NoError(t, p.Start())
	defer p.Stop()

	src.push(1)

	require.Eventually(t, func() bool {
		return p.GetStats().EnvelopesProcessed == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(0), p.GetStats().FillsExecuted)
	assert.Equal(t, strategy.StateFlat, engine.State())
}

func TestPipelineSurfacesFatalSourceError(t *testing.T) {
	src := newFakeSource()
	manager := source.NewManager()
	manager.AddSource(src)

	p := NewPipeline(manager, decoder.Nop{}, decoder.Options{},
		metrics.NewAggregator(metrics.Config{Mint: testMint}),
		strategy.NewEngine(testMint, strategy.DefaultConfig(), nil),
		publisher.NewManager())
	require.NoError(t, p.Start())
	defer p.Stop()

	src.errChan <- &source.FatalError{Source: "fake", Err: fmt.Errorf("boom")}

	select {
	case err := <-p.Fatal():
		assert.True(t, source.IsFatal(err))
	case <-time.After(2 * time.Second):
		t.Fatal("expected fatal error to surface")
	}
}
