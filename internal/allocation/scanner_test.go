package allocation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qstudy/internal/contracts"
)

func TestScanner_MatchesBruteForce(t *testing.T) {
	symbols := []contracts.Symbol{"C", "GS", "IBM", "HNZ"}
	panel := newPanel(t, testPrices(), symbols...)

	cfg := ScanConfig{Step: 0.25, SkipFirst: true, TradingDays: 252}
	scanner, err := NewScanner(cfg, zerolog.Nop())
	require.NoError(t, err)

	var calls int
	result, err := scanner.Scan(context.Background(), panel, symbols, func(done, total int, _, _ ScoredAllocation) {
		calls++
		assert.Equal(t, calls, done)
	})
	require.NoError(t, err)

	// brute force over the same enumeration, skipping index 0
	gen, err := NewGenerator(0.25)
	require.NoError(t, err)
	scorer, err := NewScorer(panel, symbols)
	require.NoError(t, err)

	allocs := gen.Generate(len(symbols))
	ratios := make([]float64, 0, len(allocs))
	wantMin, wantMax := 0.0, 0.0
	for i, a := range allocs[1:] {
		r, err := scorer.Score(a)
		require.NoError(t, err)
		ratios = append(ratios, r)
		if i == 0 || r < wantMin {
			wantMin = r
		}
		if i == 0 || r > wantMax {
			wantMax = r
		}
	}

	assert.Equal(t, len(allocs), result.Total)
	assert.Equal(t, len(allocs), calls)
	assert.Equal(t, len(allocs)-1, result.Scored)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, wantMin, result.Min.Ratio)
	assert.Equal(t, wantMax, result.Max.Ratio)
	assert.LessOrEqual(t, result.Min.Ratio, result.Max.Ratio)
	assert.Contains(t, ratios, result.Min.Ratio)
	assert.Contains(t, ratios, result.Max.Ratio)
	assert.InDelta(t, 1.0, result.Max.Allocation.Sum(), 1e-9)
}

func TestScanner_ExcludesDegenerate(t *testing.T) {
	symbols := []contracts.Symbol{"FLAT", "IBM"}
	panel := newPanel(t, map[contracts.Symbol][]float64{
		"FLAT": {20, 20, 20, 20},
		"IBM":  {130, 131, 129, 133},
	}, symbols...)

	// [1 0] is the last allocation, so it reaches the scorer even with skip_first
	scanner, err := NewScanner(ScanConfig{Step: 0.5, SkipFirst: true}, zerolog.Nop())
	require.NoError(t, err)

	result, err := scanner.Scan(context.Background(), panel, symbols, nil)
	require.NoError(t, err)
	require.Len(t, result.Excluded, 1)
	assert.Equal(t, Allocation{1, 0}, result.Excluded[0].Allocation)
	assert.Equal(t, 1, result.Scored)
	assert.Equal(t, Allocation{0.5, 0.5}, result.Min.Allocation)
}

func TestScanner_OnlyDegenerate(t *testing.T) {
	symbols := []contracts.Symbol{"FLAT"}
	panel := newPanel(t, map[contracts.Symbol][]float64{"FLAT": {20, 20, 20}}, symbols...)

	scanner, err := NewScanner(ScanConfig{Step: 0.5, SkipFirst: false}, zerolog.Nop())
	require.NoError(t, err)

	_, err = scanner.Scan(context.Background(), panel, symbols, nil)
	assert.ErrorIs(t, err, contracts.ErrNoScoredAllocations)
}

func TestScanner_InsufficientData(t *testing.T) {
	symbols := []contracts.Symbol{"A"}
	panel := newPanel(t, map[contracts.Symbol][]float64{"A": {10}}, symbols...)

	scanner, err := NewScanner(DefaultScanConfig(), zerolog.Nop())
	require.NoError(t, err)

	_, err = scanner.Scan(context.Background(), panel, symbols, nil)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestScanner_Cancelled(t *testing.T) {
	symbols := []contracts.Symbol{"C", "GS", "IBM", "HNZ"}
	panel := newPanel(t, testPrices(), symbols...)

	scanner, err := NewScanner(DefaultScanConfig(), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = scanner.Scan(ctx, panel, symbols, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewScanner_InvalidStep(t *testing.T) {
	_, err := NewScanner(ScanConfig{Step: 0.3}, zerolog.Nop())
	assert.Error(t, err)
}
