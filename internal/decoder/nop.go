package decoder

import (
	"github.com/ninja0404/token-pilot/internal/common"
	"github.com/ninja0404/token-pilot/internal/model"
)

// Nop 占位解码器，在接入真实DEX解码器之前让管道可以空转
type Nop struct{}

func (Nop) DecodeTrades(tx *model.Transaction, opts Options) []*common.TradeEvent {
	return nil
}

func (Nop) DecodeLiquidity(tx *model.Transaction, opts Options) []*common.LiquidityEvent {
	return nil
}
