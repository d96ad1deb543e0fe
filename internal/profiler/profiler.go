package profiler

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/qstudy/internal/contracts"
	"github.com/wonny/qstudy/internal/events"
)

// Options 이벤트 스터디 윈도우 설정
type Options struct {
	Lookback      int              `json:"lookback" yaml:"lookback"`
	Lookforward   int              `json:"lookforward" yaml:"lookforward"`
	MarketNeutral bool             `json:"market_neutral" yaml:"market_neutral"`
	ErrorBars     bool             `json:"error_bars" yaml:"error_bars"`
	MarketSymbol  contracts.Symbol `json:"market_symbol" yaml:"market_symbol"`
}

// DefaultOptions returns the 20/20 market-relative study
func DefaultOptions(market contracts.Symbol) Options {
	return Options{
		Lookback:      20,
		Lookforward:   20,
		MarketNeutral: true,
		ErrorBars:     true,
		MarketSymbol:  market,
	}
}

// Width is the number of offsets in one event window
func (o Options) Width() int {
	return o.Lookback + o.Lookforward + 1
}

// Profile is the average cumulative return path around an event,
// normalised to 1.0 on the event day.
type Profile struct {
	Offsets   []int     `json:"offsets"` // -Lookback .. +Lookforward
	Mean      []float64 `json:"mean"`
	Std       []float64 `json:"std"`
	Events    int       `json:"events"`    // windows used
	Discarded int       `json:"discarded"` // events too close to the edges or crossing a gap
	Options   Options   `json:"options"`
}

// Build computes the event profile of matrix over panel.
// panel must share the matrix calendar; when MarketNeutral the market column is
// subtracted from every return and removed from the study.
func Build(matrix *events.EventMatrix, panel *contracts.PricePanel, opts Options) (*Profile, error) {
	if opts.Lookback < 0 || opts.Lookforward < 0 {
		return nil, fmt.Errorf("invalid window: lookback=%d lookforward=%d", opts.Lookback, opts.Lookforward)
	}
	if matrix == nil || panel == nil {
		return nil, fmt.Errorf("%w: nothing to profile", contracts.ErrNoEvents)
	}
	if err := sameCalendar(matrix, panel); err != nil {
		return nil, err
	}

	var marketRets []float64
	symbols := matrix.Symbols()
	if opts.MarketNeutral {
		prices, err := panel.Prices(opts.MarketSymbol)
		if err != nil {
			return nil, fmt.Errorf("market symbol: %w", err)
		}
		marketRets = returnsFromZero(prices)
		matrix = matrix.WithoutSymbol(opts.MarketSymbol)
		symbols = matrix.Symbols()
	}

	n := panel.Len()
	width := opts.Width()
	var windows [][]float64
	discarded := 0

	for _, sym := range symbols {
		prices, err := panel.Prices(sym)
		if err != nil {
			return nil, err
		}
		rets := returnsFromZero(prices)
		if marketRets != nil {
			floats.Sub(rets, marketRets)
		}

		for j := 0; j < n; j++ {
			cell, _ := matrix.At(j, sym)
			if !cell.Present {
				continue
			}
			if j < opts.Lookback || j >= n-opts.Lookforward {
				discarded++
				continue
			}

			window := make([]float64, width)
			for k := range window {
				window[k] = 1 + rets[j-opts.Lookback+k]
			}
			if floats.HasNaN(window) {
				discarded++
				continue
			}
			floats.CumProd(window, window)
			floats.Scale(1/window[opts.Lookback], window)
			windows = append(windows, window)
		}
	}

	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: %d events discarded, usable range [%d, %d)",
			contracts.ErrNoEvents, discarded, opts.Lookback, n-opts.Lookforward)
	}

	p := &Profile{
		Offsets:   make([]int, width),
		Mean:      make([]float64, width),
		Std:       make([]float64, width),
		Events:    len(windows),
		Discarded: discarded,
		Options:   opts,
	}

	column := make([]float64, len(windows))
	for k := 0; k < width; k++ {
		for e, w := range windows {
			column[e] = w[k]
		}
		mean, variance := stat.PopMeanVariance(column, nil)
		p.Offsets[k] = k - opts.Lookback
		p.Mean[k] = mean
		p.Std[k] = math.Sqrt(variance)
	}

	return p, nil
}

// returnsFromZero computes daily returns with the first day fixed at 0
func returnsFromZero(prices []float64) []float64 {
	rets := make([]float64, len(prices))
	for t := 1; t < len(prices); t++ {
		rets[t] = prices[t]/prices[t-1] - 1
	}
	return rets
}

func sameCalendar(matrix *events.EventMatrix, panel *contracts.PricePanel) error {
	dates := matrix.Dates()
	if len(dates) != panel.Len() {
		return fmt.Errorf("%w: matrix has %d dates, panel has %d",
			contracts.ErrMisalignedSeries, len(dates), panel.Len())
	}
	for i := range dates {
		if !dates[i].Equal(panel.Dates[i]) {
			return fmt.Errorf("%w: calendars differ at %s",
				contracts.ErrMisalignedSeries, dates[i].Format("2006-01-02"))
		}
	}
	return nil
}
