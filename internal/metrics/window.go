package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ninja0404/token-pilot/internal/common"
	"github.com/ninja0404/token-pilot/internal/model"
)

// InitialCapacity 为窗口样本切片的预估初始容量
const InitialCapacity = 256

type sample struct {
	time      time.Time
	action    common.Action
	amountUSD decimal.Decimal
}

// rollingWindow 单个时长的滑动窗口（增量统计，样本按到达顺序存放，
// 事件时间允许乱序，成员资格只看事件时间与now的距离）
type rollingWindow struct {
	size time.Duration

	samples []sample

	buyVolume  decimal.Decimal
	sellVolume decimal.Decimal
}

func newRollingWindow(size time.Duration) *rollingWindow {
	return &rollingWindow{
		size:       size,
		samples:    make([]sample, 0, InitialCapacity),
		buyVolume:  decimal.Zero,
		sellVolume: decimal.Zero,
	}
}

// Add 先按now剔除过期样本，再追加新样本。
// 迟到样本若事件时间已在窗口外，直接丢弃，不计入统计。
func (w *rollingWindow) Add(s sample, now time.Time) {
	w.prune(now)
	if s.time.Before(now.Add(-w.size)) {
		return
	}
	w.samples = append(w.samples, s)
	switch s.action {
	case common.BuyAction:
		w.buyVolume = w.buyVolume.Add(s.amountUSD)
	case common.SellAction:
		w.sellVolume = w.sellVolume.Add(s.amountUSD)
	}
}

// prune 剔除窗口外样本并同步减去统计量。
// 迟到样本可能排在更新样本之后，必须整段过滤而不能只扫前缀。
func (w *rollingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.size)
	kept := w.samples[:0]
	for _, s := range w.samples {
		if s.time.Before(cutoff) {
			switch s.action {
			case common.BuyAction:
				w.buyVolume = w.buyVolume.Sub(s.amountUSD)
			case common.SellAction:
				w.sellVolume = w.sellVolume.Sub(s.amountUSD)
			}
			continue
		}
		kept = append(kept, s)
	}
	w.samples = kept
}

// Stats O(1) 读取窗口统计
func (w *rollingWindow) Stats() model.VolumeStats {
	return model.VolumeStats{
		Buy:     w.buyVolume,
		Sell:    w.sellVolume,
		TxCount: len(w.samples),
	}
}
