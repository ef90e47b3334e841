package ledger

// Stats 账本汇总，盈亏均为百分比
type Stats struct {
	TotalTrades      int     `json:"total_trades"`
	ProfitableTrades int     `json:"profitable_trades"`
	WinRate          float64 `json:"win_rate"`
	AverageProfit    float64 `json:"average_profit"`
	MaxProfit        float64 `json:"max_profit"`
	MaxLoss          float64 `json:"max_loss"`
}

// Stats 统计全部已平仓盈亏。胜率按完整回合(买+卖)计。
func (l *Ledger) Stats() (Stats, error) {
	entries, err := l.ReadAll()
	if err != nil {
		return Stats{}, err
	}

	var s Stats
	s.TotalTrades = len(entries)
	if len(entries) == 0 {
		return s, nil
	}

	var profits []float64
	for _, e := range entries {
		if e.Type == "SELL" && e.ProfitLoss != nil {
			profits = append(profits, *e.ProfitLoss)
		}
	}

	var sum float64
	for _, p := range profits {
		sum += p
		if p > 0 {
			s.ProfitableTrades++
		}
		if p > s.MaxProfit {
			s.MaxProfit = p
		}
		if p < s.MaxLoss {
			s.MaxLoss = p
		}
	}

	if len(profits) > 0 {
		s.AverageProfit = sum / float64(len(profits))
	}
	if rounds := float64(len(entries)) / 2; rounds > 0 {
		s.WinRate = float64(s.ProfitableTrades) / rounds * 100
	}

	return s, nil
}
