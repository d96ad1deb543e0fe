package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/qstudy/internal/contracts"
)

// MemoryProvider serves prices from in-process rows (fixtures, tests, offline runs)
type MemoryProvider struct {
	rows  []Row
	lists map[string][]contracts.Symbol
}

// NewMemoryProvider creates a provider over rows
func NewMemoryProvider(rows []Row) *MemoryProvider {
	return &MemoryProvider{
		rows:  rows,
		lists: make(map[string][]contracts.Symbol),
	}
}

// AddList registers a named symbol list
func (m *MemoryProvider) AddList(name string, symbols []contracts.Symbol) {
	m.lists[name] = symbols
}

// GetAlignedPrices implements contracts.PriceProvider
func (m *MemoryProvider) GetAlignedPrices(ctx context.Context, symbols []contracts.Symbol, start, end time.Time, fields []contracts.Field) (contracts.PriceData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range fields {
		if _, err := columnFor(f); err != nil {
			return nil, err
		}
	}

	var inRange []Row
	for _, r := range m.rows {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		inRange = append(inRange, r)
	}
	return AlignPanels(inRange, symbols, fields)
}

// SymbolsFromList implements contracts.PriceProvider
func (m *MemoryProvider) SymbolsFromList(ctx context.Context, listName string) ([]contracts.Symbol, error) {
	symbols, ok := m.lists[listName]
	if !ok || len(symbols) == 0 {
		return nil, fmt.Errorf("symbol list %q is empty or unknown", listName)
	}
	return symbols, nil
}

// CloseRows builds rows carrying the same value for close and actual_close,
// one per date, for each symbol's price slice.
func CloseRows(dates []time.Time, series map[contracts.Symbol][]float64) []Row {
	var rows []Row
	for sym, prices := range series {
		for i, p := range prices {
			if i >= len(dates) {
				break
			}
			rows = append(rows, Row{
				Symbol: sym,
				Date:   dates[i],
				Values: map[contracts.Field]float64{
					contracts.FieldClose:       p,
					contracts.FieldActualClose: p,
				},
			})
		}
	}
	return rows
}
