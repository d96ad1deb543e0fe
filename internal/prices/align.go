package prices

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/qstudy/internal/contracts"
)

// Row is one (symbol, date) observation across the requested fields.
// A field missing from Values is a gap.
type Row struct {
	Symbol contracts.Symbol
	Date   time.Time
	Values map[contracts.Field]float64
}

// AlignPanels builds one panel per field over the union of trading dates.
// A symbol lacking a date gets NaN; a symbol without any row is an error.
func AlignPanels(rows []Row, symbols []contracts.Symbol, fields []contracts.Field) (contracts.PriceData, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols requested")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields requested")
	}

	wanted := make(map[contracts.Symbol]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}

	// 거래일 캘린더 = 요청 종목 row 날짜의 합집합
	dayIndex := make(map[int64]time.Time)
	seen := make(map[contracts.Symbol]bool, len(symbols))
	for _, r := range rows {
		if !wanted[r.Symbol] {
			continue
		}
		seen[r.Symbol] = true
		day := truncateDay(r.Date)
		dayIndex[day.Unix()] = day
	}

	for _, s := range symbols {
		if !seen[s] {
			return nil, fmt.Errorf("%w: no price rows for %s", contracts.ErrMisalignedSeries, s)
		}
	}

	dates := make([]time.Time, 0, len(dayIndex))
	for _, d := range dayIndex {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	position := make(map[int64]int, len(dates))
	for i, d := range dates {
		position[d.Unix()] = i
	}

	grids := make(map[contracts.Field]map[contracts.Symbol][]float64, len(fields))
	for _, f := range fields {
		grid := make(map[contracts.Symbol][]float64, len(symbols))
		for _, s := range symbols {
			if _, ok := grid[s]; ok {
				continue
			}
			grid[s] = nanSeries(len(dates))
		}
		grids[f] = grid
	}

	for _, r := range rows {
		if !wanted[r.Symbol] {
			continue
		}
		i := position[truncateDay(r.Date).Unix()]
		for _, f := range fields {
			if v, ok := r.Values[f]; ok {
				grids[f][r.Symbol][i] = v
			}
		}
	}

	data := make(contracts.PriceData, len(fields))
	for _, f := range fields {
		panel := contracts.NewPricePanel(dates)
		for _, s := range symbols {
			if _, dup := panel.Series[s]; dup {
				continue
			}
			if err := panel.Add(s, grids[f][s]); err != nil {
				return nil, err
			}
		}
		data[f] = panel
	}
	return data, nil
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
