package study

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qstudy/internal/allocation"
	"github.com/wonny/qstudy/internal/contracts"
	"github.com/wonny/qstudy/internal/events"
	"github.com/wonny/qstudy/internal/prices"
	"github.com/wonny/qstudy/internal/studyconfig"
	"github.com/wonny/qstudy/pkg/logger"
)

func tradingDays(n int) []time.Time {
	dates := make([]time.Time, n)
	start := time.Date(2008, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func sharpeProvider() *prices.MemoryProvider {
	return prices.NewMemoryProvider(prices.CloseRows(tradingDays(8), map[contracts.Symbol][]float64{
		"A": {10, 10.5, 10.2, 10.8, 11, 10.7, 11.3, 11.5},
		"B": {20, 19.5, 20.2, 20.1, 20.8, 21, 20.6, 21.2},
		"C": {5, 5.1, 5.3, 5.2, 5.4, 5.6, 5.5, 5.7},
		"D": {40, 41, 40.5, 41.5, 42, 41.8, 42.5, 43},
	}))
}

// 30 days; on day 15 SPY rises 2.5% while A drops 5%
func eventProvider() *prices.MemoryProvider {
	const n = 30
	spy := make([]float64, n)
	a := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		spy[i] = 100 + 0.1*float64(i)
		a[i] = 50
		b[i] = 20 + 0.01*float64(i)
	}
	for i := 15; i < n; i++ {
		spy[i] *= 1.025
		a[i] = 47.5
	}

	provider := prices.NewMemoryProvider(prices.CloseRows(tradingDays(n), map[contracts.Symbol][]float64{
		"A": a, "B": b, "SPY": spy,
	}))
	provider.AddList("mini", []contracts.Symbol{"A", "B"})
	return provider
}

func sharpeConfig() studyconfig.SharpeStudy {
	return studyconfig.SharpeStudy{
		Symbols:     []string{"A", "B", "C", "D"},
		Start:       studyconfig.NewDate(2008, time.January, 1),
		End:         studyconfig.NewDate(2008, time.December, 31),
		Field:       string(contracts.FieldClose),
		Step:        0.1,
		SkipFirst:   true,
		TradingDays: 252,
	}
}

func eventConfig() studyconfig.EventStudy {
	return studyconfig.EventStudy{
		Name:         "mini",
		SymbolList:   "mini",
		MarketSymbol: "SPY",
		Start:        studyconfig.NewDate(2008, time.January, 1),
		End:          studyconfig.NewDate(2008, time.December, 31),
		Field:        string(contracts.FieldActualClose),
		Thresholds:   events.DefaultThresholds(),
		Marker:       events.DefaultMarker,
		Report: studyconfig.Report{
			Lookback:      5,
			Lookforward:   5,
			MarketNeutral: true,
			ErrorBars:     true,
			Output:        "mini.png",
		},
	}
}

func TestRunSharpe(t *testing.T) {
	o := NewOrchestrator(sharpeProvider(), logger.Nop())

	calls := 0
	result, err := o.RunSharpe(context.Background(), sharpeConfig(), func(done, total int, _, _ allocation.ScoredAllocation) {
		calls++
	})
	require.NoError(t, err)

	scan := result.Scan
	assert.Regexp(t, "^run_[0-9a-f-]{36}$", result.RunID)
	assert.Equal(t, 8, result.Days)
	assert.Equal(t, []string{StagePrices, StageScan}, result.CompletedStages)
	assert.Equal(t, 286, scan.Total)
	assert.Equal(t, 1, scan.Skipped)
	assert.Equal(t, scan.Total, scan.Scored+scan.Skipped+len(scan.Excluded))
	assert.LessOrEqual(t, scan.Min.Ratio, scan.Max.Ratio)
	assert.Equal(t, scan.Total, calls)
}

func TestRunSharpe_UnknownSymbol(t *testing.T) {
	o := NewOrchestrator(sharpeProvider(), logger.Nop())
	cfg := sharpeConfig()
	cfg.Symbols = []string{"A", "ZZZ"}

	_, err := o.RunSharpe(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, contracts.ErrMisalignedSeries)
}

func TestRunEventStudy(t *testing.T) {
	o := NewOrchestrator(eventProvider(), logger.Nop())

	result, err := o.RunEventStudy(context.Background(), eventConfig())
	require.NoError(t, err)

	assert.Equal(t, []contracts.Symbol{"A", "B"}, result.Symbols)
	assert.Equal(t, map[contracts.Symbol]int{"A": 1}, result.Counts)
	assert.Equal(t, []string{StageSymbols, StagePrices, StageDetect, StageProfile}, result.CompletedStages)

	cell, ok := result.Matrix.At(15, "A")
	require.True(t, ok)
	assert.True(t, cell.Present)

	require.NotNil(t, result.Profile)
	assert.Equal(t, 1, result.Profile.Events)
	assert.Len(t, result.Profile.Offsets, 11)
	assert.Empty(t, result.ProfileError)
}

func TestRunEventStudy_NoEventsStillSucceeds(t *testing.T) {
	o := NewOrchestrator(eventProvider(), logger.Nop())
	cfg := eventConfig()
	cfg.SymbolList = ""
	cfg.Symbols = []string{"B"}

	result, err := o.RunEventStudy(context.Background(), cfg)
	require.NoError(t, err)

	assert.Empty(t, result.Counts)
	assert.Nil(t, result.Profile)
	assert.Contains(t, result.ProfileError, "no events")
	assert.NotContains(t, result.CompletedStages, StageProfile)
}

func TestRunEventStudy_UnknownList(t *testing.T) {
	o := NewOrchestrator(eventProvider(), logger.Nop())
	cfg := eventConfig()
	cfg.SymbolList = "sp5002012"

	_, err := o.RunEventStudy(context.Background(), cfg)
	assert.ErrorContains(t, err, StageSymbols)
}
