package events

import (
	"fmt"
	"time"

	"github.com/wonny/qstudy/internal/contracts"
)

// ReturnPair holds aligned daily returns for a symbol and the reference index.
// Element i belongs to calendar day i+1; the first day has no prior-day reference.
type ReturnPair struct {
	Symbol contracts.Symbol
	Index  contracts.Symbol
	Dates  []time.Time
	Stock  []float64
	Market []float64
}

// Len returns the number of return days
func (p *ReturnPair) Len() int {
	return len(p.Stock)
}

// DailyReturns computes price[t]/price[t-1] - 1 for t >= 1.
// Gaps (NaN) propagate as NaN.
func DailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	rets := make([]float64, len(prices)-1)
	for t := 1; t < len(prices); t++ {
		rets[t-1] = prices[t]/prices[t-1] - 1
	}
	return rets
}

// PairReturns computes day-over-day returns for symbol and index over their shared calendar
func PairReturns(symbol, index contracts.PriceSeries) (*ReturnPair, error) {
	if len(symbol.Dates) != len(index.Dates) {
		return nil, fmt.Errorf("%w: %s has %d dates, %s has %d",
			contracts.ErrMisalignedSeries, symbol.Symbol, len(symbol.Dates), index.Symbol, len(index.Dates))
	}
	for i := range symbol.Dates {
		if !symbol.Dates[i].Equal(index.Dates[i]) {
			return nil, fmt.Errorf("%w: %s and %s differ at position %d (%s vs %s)",
				contracts.ErrMisalignedSeries, symbol.Symbol, index.Symbol, i,
				symbol.Dates[i].Format("2006-01-02"), index.Dates[i].Format("2006-01-02"))
		}
	}
	if len(symbol.Prices) != len(symbol.Dates) || len(index.Prices) != len(index.Dates) {
		return nil, fmt.Errorf("%w: price count differs from date count", contracts.ErrMisalignedSeries)
	}
	if len(symbol.Dates) < 2 {
		return nil, fmt.Errorf("%w: got %d days", contracts.ErrInsufficientData, len(symbol.Dates))
	}

	return &ReturnPair{
		Symbol: symbol.Symbol,
		Index:  index.Symbol,
		Dates:  symbol.Dates[1:],
		Stock:  DailyReturns(symbol.Prices),
		Market: DailyReturns(index.Prices),
	}, nil
}
