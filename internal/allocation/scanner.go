package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/qstudy/internal/contracts"
)

// ScanConfig 배분 스캔 설정
type ScanConfig struct {
	Step        float64 `json:"step"`         // 이산화 단위 (예: 0.1)
	SkipFirst   bool    `json:"skip_first"`   // 첫 번째 배분 제외 여부
	TradingDays int     `json:"trading_days"` // 연환산 거래일 (기본: 252)
}

// DefaultScanConfig returns the homework settings
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Step:        DefaultStep,
		SkipFirst:   true,
		TradingDays: TradingDaysPerYear,
	}
}

// ScanResult 스캔 결과
type ScanResult struct {
	Symbols  []contracts.Symbol   `json:"symbols"`
	Config   ScanConfig           `json:"config"`
	Min      ScoredAllocation     `json:"min"`
	Max      ScoredAllocation     `json:"max"`
	Total    int                  `json:"total"`   // 생성된 배분 수
	Scored   int                  `json:"scored"`  // min/max 비교 대상
	Skipped  int                  `json:"skipped"` // skip_first로 제외
	Excluded []ExcludedAllocation `json:"excluded"`
	Duration time.Duration        `json:"duration"`
}

// ProgressFunc is called after each allocation in emission order
type ProgressFunc func(done, total int, lo, hi ScoredAllocation)

// Scanner runs the brute-force Sharpe scan
// ⭐ SSOT: 배분 탐색 루프는 여기서만
type Scanner struct {
	config    ScanConfig
	generator *Generator
	log       zerolog.Logger
}

// NewScanner creates a scanner
func NewScanner(cfg ScanConfig, log zerolog.Logger) (*Scanner, error) {
	gen, err := NewGenerator(cfg.Step)
	if err != nil {
		return nil, err
	}
	if cfg.TradingDays <= 0 {
		cfg.TradingDays = TradingDaysPerYear
	}

	return &Scanner{
		config:    cfg,
		generator: gen,
		log:       log.With().Str("component", "allocation.scanner").Logger(),
	}, nil
}

// Scan scores every generated allocation over symbols and returns the min/max pair
func (s *Scanner) Scan(ctx context.Context, panel *contracts.PricePanel, symbols []contracts.Symbol, progress ProgressFunc) (*ScanResult, error) {
	start := time.Now()

	scorer, err := NewScorer(panel, symbols, WithTradingDays(s.config.TradingDays))
	if err != nil {
		return nil, fmt.Errorf("build scorer: %w", err)
	}

	tracker := NewTracker(s.config.SkipFirst)
	total := s.generator.Count(len(symbols))

	s.log.Info().
		Int("symbols", len(symbols)).
		Int("days", panel.Len()).
		Float64("step", s.config.Step).
		Int("allocations", total).
		Bool("skip_first", s.config.SkipFirst).
		Msg("sharpe scan started")

	index := 0
	for alloc := range s.generator.All(len(symbols)) {
		select {
		case <-ctx.Done():
			s.log.Warn().Int("done", index).Msg("context cancelled during sharpe scan")
			return nil, ctx.Err()
		default:
		}

		if tracker.Skip() {
			tracker.Observe(ScoredAllocation{Index: index, Allocation: alloc})
		} else {
			ratio, err := scorer.Score(alloc)
			switch {
			case err == nil:
				tracker.Observe(ScoredAllocation{Index: index, Allocation: alloc, Ratio: ratio})
			case errors.Is(err, contracts.ErrDegenerateReturns):
				s.log.Debug().Str("allocation", alloc.String()).Msg("degenerate allocation excluded")
				tracker.Exclude(index, alloc, err)
			default:
				return nil, fmt.Errorf("score allocation %s: %w", alloc, err)
			}
		}
		index++

		if progress != nil {
			lo, hi, _ := tracker.Result()
			progress(index, total, lo, hi)
		}
	}

	lo, hi, err := tracker.Result()
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		Symbols:  symbols,
		Config:   s.config,
		Min:      lo,
		Max:      hi,
		Total:    index,
		Scored:   tracker.Scored(),
		Skipped:  tracker.Skipped(),
		Excluded: tracker.Excluded(),
		Duration: time.Since(start),
	}

	s.log.Info().
		Float64("min_sharpe", lo.Ratio).
		Str("min_allocation", lo.Allocation.String()).
		Float64("max_sharpe", hi.Ratio).
		Str("max_allocation", hi.Allocation.String()).
		Int("scored", result.Scored).
		Int("excluded", len(result.Excluded)).
		Dur("duration", result.Duration).
		Msg("sharpe scan completed")

	if len(result.Excluded) > 0 {
		s.log.Warn().Int("excluded", len(result.Excluded)).Msg("allocations with undefined sharpe ratio excluded from min/max")
	}

	return result, nil
}
