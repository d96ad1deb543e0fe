package events

import (
	"fmt"
	"time"

	"github.com/wonny/qstudy/internal/contracts"
)

// DefaultMarker 이벤트 발생 표시값
const DefaultMarker = 1.0

// Cell is one (date, symbol) slot: either absent or present with a marker.
type Cell struct {
	Present bool
	Marker  float64
}

// Event is a present cell in list form
type Event struct {
	Date   time.Time        `json:"date"`
	Symbol contracts.Symbol `json:"symbol"`
	Marker float64          `json:"marker"`
}

// EventMatrix is a dense date × symbol grid of cells, sparse in markers.
// Every cell starts absent and may be written at most once.
type EventMatrix struct {
	dates   []time.Time
	symbols []contracts.Symbol
	column  map[contracts.Symbol]int
	cells   [][]Cell // [date][symbol]
	count   int
}

// NewEventMatrix creates an all-absent matrix
func NewEventMatrix(dates []time.Time, symbols []contracts.Symbol) *EventMatrix {
	m := &EventMatrix{
		dates:   dates,
		symbols: symbols,
		column:  make(map[contracts.Symbol]int, len(symbols)),
		cells:   make([][]Cell, len(dates)),
	}
	for j, sym := range symbols {
		m.column[sym] = j
	}
	for i := range m.cells {
		m.cells[i] = make([]Cell, len(symbols))
	}
	return m
}

// Dates returns the row calendar
func (m *EventMatrix) Dates() []time.Time { return m.dates }

// Symbols returns the column symbols
func (m *EventMatrix) Symbols() []contracts.Symbol { return m.symbols }

// Count returns the number of present cells
func (m *EventMatrix) Count() int { return m.count }

// Mark writes marker into (dateIdx, sym)
func (m *EventMatrix) Mark(dateIdx int, sym contracts.Symbol, marker float64) error {
	j, ok := m.column[sym]
	if !ok {
		return fmt.Errorf("symbol %s not in event matrix", sym)
	}
	if dateIdx < 0 || dateIdx >= len(m.dates) {
		return fmt.Errorf("date index %d out of range [0, %d)", dateIdx, len(m.dates))
	}

	cell := &m.cells[dateIdx][j]
	if cell.Present {
		return fmt.Errorf("%w: %s on %s", contracts.ErrCellWritten, sym, m.dates[dateIdx].Format("2006-01-02"))
	}
	cell.Present = true
	cell.Marker = marker
	m.count++
	return nil
}

// At returns the cell at (dateIdx, sym); ok is false when out of range
func (m *EventMatrix) At(dateIdx int, sym contracts.Symbol) (Cell, bool) {
	j, ok := m.column[sym]
	if !ok || dateIdx < 0 || dateIdx >= len(m.dates) {
		return Cell{}, false
	}
	return m.cells[dateIdx][j], true
}

// Events lists present cells ordered by date, then by column order
func (m *EventMatrix) Events() []Event {
	out := make([]Event, 0, m.count)
	for i, row := range m.cells {
		for j, cell := range row {
			if cell.Present {
				out = append(out, Event{Date: m.dates[i], Symbol: m.symbols[j], Marker: cell.Marker})
			}
		}
	}
	return out
}

// CountBySymbol returns present cells per symbol (symbols without events are omitted)
func (m *EventMatrix) CountBySymbol() map[contracts.Symbol]int {
	counts := make(map[contracts.Symbol]int)
	for _, row := range m.cells {
		for j, cell := range row {
			if cell.Present {
				counts[m.symbols[j]]++
			}
		}
	}
	return counts
}

// WithoutSymbol returns a copy with sym's column removed
func (m *EventMatrix) WithoutSymbol(sym contracts.Symbol) *EventMatrix {
	symbols := make([]contracts.Symbol, 0, len(m.symbols))
	for _, s := range m.symbols {
		if s != sym {
			symbols = append(symbols, s)
		}
	}

	out := NewEventMatrix(m.dates, symbols)
	for i, row := range m.cells {
		for j, cell := range row {
			if !cell.Present || m.symbols[j] == sym {
				continue
			}
			out.cells[i][out.column[m.symbols[j]]] = cell
			out.count++
		}
	}
	return out
}
