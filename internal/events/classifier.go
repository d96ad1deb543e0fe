package events

// Thresholds 이벤트 판정 임계값
// ⭐ 기본값: 종목 -3% 이하 하락 AND 시장 +2% 이상 상승
type Thresholds struct {
	SymbolDrop float64 `json:"symbol_drop" yaml:"symbol_drop"` // 종목 수익률 상한 (예: -0.03)
	MarketRise float64 `json:"market_rise" yaml:"market_rise"` // 시장 수익률 하한 (예: 0.02)
}

// DefaultThresholds returns {-0.03, +0.02}
func DefaultThresholds() Thresholds {
	return Thresholds{
		SymbolDrop: -0.03,
		MarketRise: 0.02,
	}
}

// Classify reports whether a (symbol, day) is an event.
// Both boundaries are inclusive; NaN returns never fire.
func (t Thresholds) Classify(symbolReturn, marketReturn float64) bool {
	return symbolReturn <= t.SymbolDrop && marketReturn >= t.MarketRise
}
