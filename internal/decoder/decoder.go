package decoder

import (
	"github.com/ninja0404/token-pilot/internal/common"
	"github.com/ninja0404/token-pilot/internal/model"
)

// Options 控制解码范围
type Options struct {
	// AllowedProgramIDs 只解码这些program的指令，空表示不限制
	AllowedProgramIDs []string
	// AllowUnknownVenue 未识别的DEX也尝试按通用swap解码
	AllowUnknownVenue bool
}

// Decoder 外部DEX解码器。实现方保证对不含swap的交易返回空切片而非错误。
type Decoder interface {
	DecodeTrades(tx *model.Transaction, opts Options) []*common.TradeEvent
	DecodeLiquidity(tx *model.Transaction, opts Options) []*common.LiquidityEvent
}
