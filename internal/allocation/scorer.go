package allocation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/qstudy/internal/contracts"
)

const (
	// TradingDaysPerYear 연환산 거래일 수
	TradingDaysPerYear = 252

	// variances at or below this are treated as zero
	minVariance = 1e-20
)

// Scorer computes the annualized Sharpe ratio of weighted portfolios
// over a fixed symbol list and date range.
type Scorer struct {
	symbols     []contracts.Symbol
	returns     [][]float64 // [symbol][day-1]
	tradingDays int
}

// ScorerOption configures a Scorer
type ScorerOption func(*Scorer)

// WithTradingDays overrides the annualization constant
func WithTradingDays(days int) ScorerOption {
	return func(s *Scorer) {
		if days > 0 {
			s.tradingDays = days
		}
	}
}

// NewScorer precomputes daily returns for symbols from panel
func NewScorer(panel *contracts.PricePanel, symbols []contracts.Symbol, opts ...ScorerOption) (*Scorer, error) {
	if panel == nil || panel.Len() < 2 {
		n := 0
		if panel != nil {
			n = panel.Len()
		}
		return nil, fmt.Errorf("%w: got %d days", contracts.ErrInsufficientData, n)
	}

	s := &Scorer{
		symbols:     symbols,
		returns:     make([][]float64, len(symbols)),
		tradingDays: TradingDaysPerYear,
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, sym := range symbols {
		prices, err := panel.Prices(sym)
		if err != nil {
			return nil, err
		}
		rets, err := simpleReturns(prices)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sym, err)
		}
		s.returns[i] = rets
	}

	return s, nil
}

// simpleReturns computes price[t]/price[t-1] - 1, rejecting gaps and non-positive prices
func simpleReturns(prices []float64) ([]float64, error) {
	for i, p := range prices {
		if math.IsNaN(p) || p <= 0 {
			return nil, fmt.Errorf("%w: %v at index %d", contracts.ErrInvalidPrice, p, i)
		}
	}

	rets := make([]float64, len(prices)-1)
	for t := 1; t < len(prices); t++ {
		rets[t-1] = prices[t]/prices[t-1] - 1
	}
	return rets, nil
}

// Symbols returns the scored symbol list
func (s *Scorer) Symbols() []contracts.Symbol {
	return s.symbols
}

// Days returns the number of daily returns per series
func (s *Scorer) Days() int {
	if len(s.returns) == 0 {
		return 0
	}
	return len(s.returns[0])
}

// PortfolioReturns returns the weighted daily return series Σ wᵢ·rᵢ(t)
func (s *Scorer) PortfolioReturns(alloc Allocation) ([]float64, error) {
	if len(alloc) != len(s.symbols) {
		return nil, fmt.Errorf("%w: %d weights for %d symbols",
			contracts.ErrAllocationLength, len(alloc), len(s.symbols))
	}

	days := s.Days()
	portfolio := make([]float64, days)
	for i, w := range alloc {
		if w == 0 {
			continue
		}
		for t, r := range s.returns[i] {
			portfolio[t] += w * r
		}
	}
	return portfolio, nil
}

// Score returns sqrt(tradingDays) * mean / stddev of the portfolio daily returns.
// Standard deviation is the population one (ddof=0).
// A zero-variance series yields ErrDegenerateReturns instead of ±Inf/NaN.
func (s *Scorer) Score(alloc Allocation) (float64, error) {
	portfolio, err := s.PortfolioReturns(alloc)
	if err != nil {
		return 0, err
	}
	if len(portfolio) == 0 {
		return 0, fmt.Errorf("%w: no daily returns", contracts.ErrInsufficientData)
	}

	mean, variance := stat.PopMeanVariance(portfolio, nil)
	if math.IsNaN(variance) || variance <= minVariance {
		return 0, fmt.Errorf("%w: allocation %s", contracts.ErrDegenerateReturns, alloc)
	}

	return math.Sqrt(float64(s.tradingDays)) * mean / math.Sqrt(variance), nil
}
