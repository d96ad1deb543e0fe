package events

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qstudy/internal/contracts"
)

func calendar(n int) []time.Time {
	dates := make([]time.Time, n)
	start := time.Date(2008, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func newPanel(t *testing.T, series map[contracts.Symbol][]float64, symbols ...contracts.Symbol) *contracts.PricePanel {
	t.Helper()
	panel := contracts.NewPricePanel(calendar(len(series[symbols[0]])))
	for _, sym := range symbols {
		require.NoError(t, panel.Add(sym, series[sym]))
	}
	return panel
}

func TestThresholds_Classify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name   string
		symbol float64
		market float64
		want   bool
	}{
		{"boundary inclusive", -0.03, 0.02, true},
		{"deep drop strong market", -0.10, 0.05, true},
		{"symbol drop just short", -0.0299, 0.05, false},
		{"symbol drop just short huge market", -0.0299, 1.0, false},
		{"market rise just short", -0.05, 0.0199, false},
		{"both up", 0.01, 0.03, false},
		{"nan symbol", math.NaN(), 0.05, false},
		{"nan market", -0.05, math.NaN(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, th.Classify(tt.symbol, tt.market))
		})
	}
}

func TestDailyReturns(t *testing.T) {
	rets := DailyReturns([]float64{100, 110, 99})
	require.Len(t, rets, 2)
	assert.InDelta(t, 0.10, rets[0], 1e-12)
	assert.InDelta(t, -0.10, rets[1], 1e-12)

	assert.Empty(t, DailyReturns([]float64{100}))
	assert.Empty(t, DailyReturns(nil))

	withGap := DailyReturns([]float64{100, math.NaN(), 100})
	assert.True(t, math.IsNaN(withGap[0]))
	assert.True(t, math.IsNaN(withGap[1]))
}

func TestPairReturns(t *testing.T) {
	dates := calendar(3)
	stock := contracts.PriceSeries{Symbol: "A", Dates: dates, Prices: []float64{100, 97, 97}}
	index := contracts.PriceSeries{Symbol: "SPY", Dates: dates, Prices: []float64{100, 102, 99}}

	pair, err := PairReturns(stock, index)
	require.NoError(t, err)
	assert.Equal(t, 2, pair.Len())
	assert.Equal(t, dates[1:], pair.Dates)
	assert.InDelta(t, -0.03, pair.Stock[0], 1e-12)
	assert.InDelta(t, 0.02, pair.Market[0], 1e-12)

	t.Run("different dates", func(t *testing.T) {
		shifted := calendar(4)[1:]
		other := contracts.PriceSeries{Symbol: "SPY", Dates: shifted, Prices: []float64{1, 2, 3}}
		_, err := PairReturns(stock, other)
		assert.ErrorIs(t, err, contracts.ErrMisalignedSeries)
	})

	t.Run("different length", func(t *testing.T) {
		other := contracts.PriceSeries{Symbol: "SPY", Dates: calendar(2), Prices: []float64{1, 2}}
		_, err := PairReturns(stock, other)
		assert.ErrorIs(t, err, contracts.ErrMisalignedSeries)
	})

	t.Run("single day", func(t *testing.T) {
		one := calendar(1)
		_, err := PairReturns(
			contracts.PriceSeries{Symbol: "A", Dates: one, Prices: []float64{1}},
			contracts.PriceSeries{Symbol: "SPY", Dates: one, Prices: []float64{1}},
		)
		assert.ErrorIs(t, err, contracts.ErrInsufficientData)
	})
}

func TestEventMatrix(t *testing.T) {
	dates := calendar(3)
	m := NewEventMatrix(dates, []contracts.Symbol{"A", "B"})

	cell, ok := m.At(1, "A")
	require.True(t, ok)
	assert.False(t, cell.Present)

	require.NoError(t, m.Mark(1, "A", DefaultMarker))
	cell, _ = m.At(1, "A")
	assert.True(t, cell.Present)
	assert.Equal(t, 1.0, cell.Marker)

	// written at most once
	assert.ErrorIs(t, m.Mark(1, "A", DefaultMarker), contracts.ErrCellWritten)

	assert.Error(t, m.Mark(5, "A", DefaultMarker))
	assert.Error(t, m.Mark(0, "Z", DefaultMarker))

	_, ok = m.At(0, "Z")
	assert.False(t, ok)

	require.NoError(t, m.Mark(2, "B", 2.0))
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, []Event{
		{Date: dates[1], Symbol: "A", Marker: 1.0},
		{Date: dates[2], Symbol: "B", Marker: 2.0},
	}, m.Events())
	assert.Equal(t, map[contracts.Symbol]int{"A": 1, "B": 1}, m.CountBySymbol())

	trimmed := m.WithoutSymbol("A")
	assert.Equal(t, []contracts.Symbol{"B"}, trimmed.Symbols())
	assert.Equal(t, 1, trimmed.Count())
	assert.Equal(t, 2, m.Count())
}

func TestEventMatrix_WithoutSymbolKeepsOtherCells(t *testing.T) {
	dates := calendar(3)
	m := NewEventMatrix(dates, []contracts.Symbol{"A", "SPY", "B", "C"})
	require.NoError(t, m.Mark(0, "A", 1.5))
	require.NoError(t, m.Mark(1, "SPY", 1.0))
	require.NoError(t, m.Mark(1, "B", 2.0))
	require.NoError(t, m.Mark(2, "C", 3.0))
	require.NoError(t, m.Mark(2, "A", 4.0))

	trimmed := m.WithoutSymbol("SPY")
	assert.Equal(t, []contracts.Symbol{"A", "B", "C"}, trimmed.Symbols())
	assert.Equal(t, 4, trimmed.Count())
	assert.Equal(t, []Event{
		{Date: dates[0], Symbol: "A", Marker: 1.5},
		{Date: dates[1], Symbol: "B", Marker: 2.0},
		{Date: dates[2], Symbol: "A", Marker: 4.0},
		{Date: dates[2], Symbol: "C", Marker: 3.0},
	}, trimmed.Events())

	_, ok := trimmed.At(1, "SPY")
	assert.False(t, ok)

	// copied cells stay write-once
	assert.ErrorIs(t, trimmed.Mark(1, "B", DefaultMarker), contracts.ErrCellWritten)

	// unknown symbol yields an unchanged copy
	same := m.WithoutSymbol("QQQ")
	assert.Equal(t, m.Count(), same.Count())
	assert.Equal(t, m.Events(), same.Events())
}

func TestDetector_ThreeDayScenario(t *testing.T) {
	panel := newPanel(t, map[contracts.Symbol][]float64{
		"A":   {100, 97, 97},
		"SPY": {100, 102, 99},
	}, "A", "SPY")

	d := NewDetector(zerolog.Nop())
	matrix, err := d.FindEvents(context.Background(), panel, []contracts.Symbol{"A", "SPY"}, "SPY")
	require.NoError(t, err)

	// day 1 has no prior-day reference
	cell, _ := matrix.At(0, "A")
	assert.False(t, cell.Present)

	cell, _ = matrix.At(1, "A")
	assert.True(t, cell.Present, "A drops 3%% while SPY rises 2%% on day 2")

	cell, _ = matrix.At(2, "A")
	assert.False(t, cell.Present)

	for i := 0; i < 3; i++ {
		cell, _ = matrix.At(i, "SPY")
		assert.False(t, cell.Present, "market never fires against itself")
	}
	assert.Equal(t, 1, matrix.Count())
}

func TestDetector_EveryCellExactlyOnce(t *testing.T) {
	panel := newPanel(t, map[contracts.Symbol][]float64{
		"A":   {100, 90, 80, 81, 70},
		"B":   {50, 52, 45, 44, 40},
		"SPY": {100, 103, 106, 104, 108},
	}, "A", "B", "SPY")

	d := NewDetector(zerolog.Nop())
	matrix, err := d.FindEvents(context.Background(), panel, []contracts.Symbol{"A", "B", "A"}, "SPY")
	require.NoError(t, err)

	assert.Equal(t, []contracts.Symbol{"A", "B"}, matrix.Symbols())
	assert.Len(t, matrix.Dates(), 5)
	// A: d1 -10%/+3%, d2 -11%/+2.9%, d4 -13.6%/+3.8%; B: d2 -13.5%/+2.9%, d4 -9%/+3.8%
	assert.Equal(t, map[contracts.Symbol]int{"A": 3, "B": 2}, matrix.CountBySymbol())
}

func TestDetector_CustomThresholds(t *testing.T) {
	panel := newPanel(t, map[contracts.Symbol][]float64{
		"A":   {100, 98, 97},
		"SPY": {100, 101, 102},
	}, "A", "SPY")

	loose := Thresholds{SymbolDrop: -0.01, MarketRise: 0.005}
	d := NewDetectorWithThresholds(loose, 7, zerolog.Nop())
	matrix, err := d.FindEvents(context.Background(), panel, []contracts.Symbol{"A"}, "SPY")
	require.NoError(t, err)

	events := matrix.Events()
	require.Len(t, events, 2)
	assert.Equal(t, 7.0, events[0].Marker)
	assert.Equal(t, loose, d.Thresholds())
}

func TestDetector_GapsNeverFire(t *testing.T) {
	panel := newPanel(t, map[contracts.Symbol][]float64{
		"A":   {100, math.NaN(), 90},
		"SPY": {100, 103, 106},
	}, "A", "SPY")

	matrix, err := NewDetector(zerolog.Nop()).FindEvents(context.Background(), panel, []contracts.Symbol{"A"}, "SPY")
	require.NoError(t, err)
	assert.Zero(t, matrix.Count())
}

func TestDetector_Errors(t *testing.T) {
	d := NewDetector(zerolog.Nop())
	ctx := context.Background()

	short := newPanel(t, map[contracts.Symbol][]float64{"A": {1}, "SPY": {1}}, "A", "SPY")
	_, err := d.FindEvents(ctx, short, []contracts.Symbol{"A"}, "SPY")
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)

	panel := newPanel(t, map[contracts.Symbol][]float64{"A": {1, 2}, "SPY": {1, 2}}, "A", "SPY")
	_, err = d.FindEvents(ctx, panel, []contracts.Symbol{"A"}, "QQQ")
	assert.ErrorIs(t, err, contracts.ErrMisalignedSeries)

	_, err = d.FindEvents(ctx, panel, []contracts.Symbol{"MSFT"}, "SPY")
	assert.ErrorIs(t, err, contracts.ErrMisalignedSeries)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = d.FindEvents(cancelled, panel, []contracts.Symbol{"A"}, "SPY")
	assert.ErrorIs(t, err, context.Canceled)
}
