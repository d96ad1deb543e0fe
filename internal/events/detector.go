package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/qstudy/internal/contracts"
)

// Detector 시장 상승일 개별 종목 급락 이벤트 감지기
type Detector struct {
	thresholds Thresholds
	marker     float64
	log        zerolog.Logger
}

// NewDetector 기본 임계값으로 감지기 생성
func NewDetector(log zerolog.Logger) *Detector {
	return NewDetectorWithThresholds(DefaultThresholds(), DefaultMarker, log)
}

// NewDetectorWithThresholds 커스텀 임계값으로 감지기 생성
func NewDetectorWithThresholds(thresholds Thresholds, marker float64, log zerolog.Logger) *Detector {
	return &Detector{
		thresholds: thresholds,
		marker:     marker,
		log:        log.With().Str("component", "events.detector").Logger(),
	}
}

// Thresholds returns the configured thresholds
func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// FindEvents scans every symbol against the market series and builds the event matrix.
// market may also appear in symbols; it can never fire against itself.
func (d *Detector) FindEvents(ctx context.Context, panel *contracts.PricePanel, symbols []contracts.Symbol, market contracts.Symbol) (*EventMatrix, error) {
	if panel == nil || panel.Len() < 2 {
		return nil, fmt.Errorf("%w: event scan needs at least two trading days", contracts.ErrInsufficientData)
	}

	marketSeries, err := panel.SeriesFor(market)
	if err != nil {
		return nil, fmt.Errorf("market symbol: %w", err)
	}

	symbols = uniqueSymbols(symbols)
	matrix := NewEventMatrix(panel.Dates, symbols)

	for _, sym := range symbols {
		select {
		case <-ctx.Done():
			d.log.Warn().Msg("context cancelled during event detection")
			return nil, ctx.Err()
		default:
		}

		series, err := panel.SeriesFor(sym)
		if err != nil {
			return nil, err
		}
		pair, err := PairReturns(series, marketSeries)
		if err != nil {
			return nil, err
		}

		for i := 0; i < pair.Len(); i++ {
			if !d.thresholds.Classify(pair.Stock[i], pair.Market[i]) {
				continue
			}
			if err := matrix.Mark(i+1, sym, d.marker); err != nil {
				return nil, err
			}

			d.log.Debug().
				Str("symbol", string(sym)).
				Str("date", pair.Dates[i].Format("2006-01-02")).
				Float64("symbol_return", pair.Stock[i]).
				Float64("market_return", pair.Market[i]).
				Msg("event detected")
		}
	}

	d.log.Info().
		Int("symbols", len(symbols)).
		Int("days", panel.Len()).
		Str("market", string(market)).
		Float64("symbol_drop", d.thresholds.SymbolDrop).
		Float64("market_rise", d.thresholds.MarketRise).
		Int("detected_events", matrix.Count()).
		Msg("event detection completed")

	return matrix, nil
}

func uniqueSymbols(symbols []contracts.Symbol) []contracts.Symbol {
	seen := make(map[contracts.Symbol]bool, len(symbols))
	out := make([]contracts.Symbol, 0, len(symbols))
	for _, s := range symbols {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
