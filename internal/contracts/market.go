package contracts

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Symbol is a ticker symbol (e.g. "IBM", "SPY")
type Symbol string

// Field is a price field delivered by the data source
type Field string

const (
	FieldOpen        Field = "open"
	FieldHigh        Field = "high"
	FieldLow         Field = "low"
	FieldClose       Field = "close"        // 수정주가 (adjusted close)
	FieldVolume      Field = "volume"
	FieldActualClose Field = "actual_close" // 실제 종가 (raw close)
)

// ParseField validates a field name
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume, FieldActualClose:
		return f, nil
	default:
		return "", fmt.Errorf("unknown price field %q", s)
	}
}

// SymbolsFromStrings converts plain strings to symbols
func SymbolsFromStrings(ss []string) []Symbol {
	out := make([]Symbol, len(ss))
	for i, s := range ss {
		out[i] = Symbol(s)
	}
	return out
}

// PriceSeries is one symbol's ordered (date, price) sequence
type PriceSeries struct {
	Symbol Symbol      `msgpack:"symbol" json:"symbol"`
	Dates  []time.Time `msgpack:"dates" json:"dates"`
	Prices []float64   `msgpack:"prices" json:"prices"`
}

// Len returns the number of observations
func (s PriceSeries) Len() int {
	return len(s.Prices)
}

// PricePanel holds aligned price series sharing one trading calendar
// ⭐ 모든 시리즈는 Dates와 같은 길이 (정렬은 데이터 레이어 책임)
// NaN marks a gap delivered by the data source.
type PricePanel struct {
	Dates   []time.Time          `msgpack:"dates"`
	Symbols []Symbol             `msgpack:"symbols"`
	Series  map[Symbol][]float64 `msgpack:"series"`
}

// NewPricePanel creates an empty panel over the given calendar
func NewPricePanel(dates []time.Time) *PricePanel {
	return &PricePanel{
		Dates:  dates,
		Series: make(map[Symbol][]float64),
	}
}

// Add registers an aligned series for sym
func (p *PricePanel) Add(sym Symbol, prices []float64) error {
	if len(prices) != len(p.Dates) {
		return fmt.Errorf("%w: %s has %d prices for %d dates",
			ErrMisalignedSeries, sym, len(prices), len(p.Dates))
	}
	if _, exists := p.Series[sym]; !exists {
		p.Symbols = append(p.Symbols, sym)
	}
	p.Series[sym] = prices
	return nil
}

// Len returns the number of trading days
func (p *PricePanel) Len() int {
	return len(p.Dates)
}

// Prices returns the aligned prices of sym
func (p *PricePanel) Prices(sym Symbol) ([]float64, error) {
	prices, ok := p.Series[sym]
	if !ok {
		return nil, fmt.Errorf("%w: no series for %s", ErrMisalignedSeries, sym)
	}
	if len(prices) != len(p.Dates) {
		return nil, fmt.Errorf("%w: %s has %d prices for %d dates",
			ErrMisalignedSeries, sym, len(prices), len(p.Dates))
	}
	return prices, nil
}

// SeriesFor returns sym as a standalone PriceSeries
func (p *PricePanel) SeriesFor(sym Symbol) (PriceSeries, error) {
	prices, err := p.Prices(sym)
	if err != nil {
		return PriceSeries{}, err
	}
	return PriceSeries{Symbol: sym, Dates: p.Dates, Prices: prices}, nil
}

// Validate checks calendar ordering and series lengths
func (p *PricePanel) Validate() error {
	for i := 1; i < len(p.Dates); i++ {
		if !p.Dates[i].After(p.Dates[i-1]) {
			return fmt.Errorf("%w: dates not strictly ascending at %s",
				ErrMisalignedSeries, p.Dates[i].Format("2006-01-02"))
		}
	}
	for _, sym := range p.Symbols {
		if _, err := p.Prices(sym); err != nil {
			return err
		}
	}
	return nil
}

// Gaps counts NaN observations for sym
func (p *PricePanel) Gaps(sym Symbol) int {
	n := 0
	for _, v := range p.Series[sym] {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// PriceData maps each requested field to its aligned panel
type PriceData map[Field]*PricePanel

// Panel returns the panel for f
func (d PriceData) Panel(f Field) (*PricePanel, error) {
	panel, ok := d[f]
	if !ok || panel == nil {
		return nil, fmt.Errorf("price field %q not loaded", f)
	}
	return panel, nil
}

// PriceProvider supplies already-aligned price data
// ⭐ 계산 코어는 데이터를 직접 가져오지 않음 (provider가 조립해서 전달)
type PriceProvider interface {
	GetAlignedPrices(ctx context.Context, symbols []Symbol, start, end time.Time, fields []Field) (PriceData, error)
	SymbolsFromList(ctx context.Context, listName string) ([]Symbol, error)
}
