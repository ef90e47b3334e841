package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ninja0404/token-pilot/internal/decoder"
	"github.com/ninja0404/token-pilot/internal/metrics"
	"github.com/ninja0404/token-pilot/internal/model"
	"github.com/ninja0404/token-pilot/internal/normalizer"
	"github.com/ninja0404/token-pilot/internal/publisher"
	"github.com/ninja0404/token-pilot/internal/source"
	"github.com/ninja0404/token-pilot/internal/strategy"
	"github.com/ninja0404/token-pilot/pkg/logger"
	"github.com/ninja0404/token-pilot/pkg/utils"
)

// Pipeline 数据处理管道
//
// 单协程顺序消费信封：规整→解码→聚合→策略→发布。
// 聚合器和策略引擎都持有按时间排序的可变状态，信封必须按到达顺序处理。
type Pipeline struct {
	sourceManager    *source.Manager
	dec              decoder.Decoder
	decoderOpts      decoder.Options
	aggregator       *metrics.Aggregator
	engine           *strategy.Engine
	publisherManager *publisher.Manager

	ctx       context.Context
	cancel    context.CancelFunc
	fatalChan chan error

	envelopesProcessed atomic.Int64
	tradesDecoded      atomic.Int64
	fillsExecuted      atomic.Int64
	errorsCount        atomic.Int64
}

// NewPipeline 创建数据处理管道
func NewPipeline(
	sourceManager *source.Manager,
	dec decoder.Decoder,
	decoderOpts decoder.Options,
	aggregator *metrics.Aggregator,
	engine *strategy.Engine,
	publisherManager *publisher.Manager,
) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		sourceManager:    sourceManager,
		dec:              dec,
		decoderOpts:      decoderOpts,
		aggregator:       aggregator,
		engine:           engine,
		publisherManager: publisherManager,
		ctx:              ctx,
		cancel:           cancel,
		fatalChan:        make(chan error, 1),
	}
}

// GetSourceManager 获取数据源管理器
func (p *Pipeline) GetSourceManager() *source.Manager {
	return p.sourceManager
}

// Fatal 数据源不可恢复错误的通知通道
func (p *Pipeline) Fatal() <-chan error {
	return p.fatalChan
}

// Start 启动数据处理管道
func (p *Pipeline) Start() error {
	logger.Info("启动数据处理管道")

	if err := p.publisherManager.Start(); err != nil {
		return err
	}

	if err := p.sourceManager.Start(); err != nil {
		return err
	}

	go p.processEnvelopes()
	go p.processErrors()

	logger.Info("数据处理管道已启动")
	return nil
}

// Stop 停止数据处理管道
func (p *Pipeline) Stop() error {
	logger.Info("停止数据处理管道")

	p.cancel()

	if err := p.sourceManager.Stop(); err != nil {
		logger.Error("停止数据源管理器失败", logger.FieldErr(err))
	}

	if err := p.publisherManager.Stop(); err != nil {
		logger.Error("停止发布管理器失败", logger.FieldErr(err))
	}

	logger.Info("数据处理管道已停止",
		logger.String("stats", utils.ConvertToJsonString(p.GetStats())))
	return nil
}

// processEnvelopes 唯一的消费循环，保证信封处理顺序
func (p *Pipeline) processEnvelopes() {
	envChan := p.sourceManager.Envelopes()

	for {
		select {
		case <-p.ctx.Done():
			return
		case env, ok := <-envChan:
			if !ok {
				return
			}
			p.handleEnvelope(env)
		}
	}
}

// processErrors 处理数据源错误
func (p *Pipeline) processErrors() {
	errorChan := p.sourceManager.Errors()

	for {
		select {
		case <-p.ctx.Done():
			return
		case err, ok := <-errorChan:
			if !ok {
				return
			}

			p.errorsCount.Add(1)

			if source.IsFatal(err) {
				logger.Error("🚨 数据源不可恢复错误", logger.FieldErr(err))
				select {
				case p.fatalChan <- err:
				default:
				}
				continue
			}

			logger.Error("数据源错误", logger.FieldErr(err))
		}
	}
}

// handleEnvelope 处理单个信封，任何一步失败只跳过这条信封
func (p *Pipeline) handleEnvelope(env *model.RawEnvelope) {
	p.envelopesProcessed.Add(1)

	tx := normalizer.Normalize(env)

	// 失败交易不产生余额变更，没有可解码的成交
	if tx.Failed() {
		logger.Debug("跳过失败交易",
			logger.FieldSignature(tx.Signature),
			logger.FieldSlot(tx.Slot))
		return
	}

	trades := p.dec.DecodeTrades(tx, p.decoderOpts)
	if len(trades) > 0 {
		p.tradesDecoded.Add(int64(len(trades)))
	}

	now := time.Now()
	for _, trade := range trades {
		snapshot := p.aggregator.Observe(trade, now)
		if snapshot == nil {
			continue
		}

		if fill := p.engine.OnSnapshot(snapshot); fill != nil {
			p.fillsExecuted.Add(1)
			p.publisherManager.PublishFill(fill)
		}
	}

	if liquidity := p.dec.DecodeLiquidity(tx, p.decoderOpts); len(liquidity) > 0 {
		logger.Debug("📊 流动性事件",
			logger.FieldSignature(tx.Signature),
			logger.Int("count", len(liquidity)))
	}
}

// Stats 管道统计信息
type Stats struct {
	EnvelopesProcessed int64 `json:"envelopes_processed"`
	TradesDecoded      int64 `json:"trades_decoded"`
	FillsExecuted      int64 `json:"fills_executed"`
	ErrorsCount        int64 `json:"errors_count"`
}

// GetStats 获取管道统计信息
func (p *Pipeline) GetStats() *Stats {
	return &Stats{
		EnvelopesProcessed: p.envelopesProcessed.Load(),
		TradesDecoded:      p.tradesDecoded.Load(),
		FillsExecuted:      p.fillsExecuted.Load(),
		ErrorsCount:        p.errorsCount.Load(),
	}
}
