package profiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vicanso/go-charts/v2"
)

const (
	chartWidth  = 1000
	chartHeight = 600
)

// Title describes the profile the way the chart header shows it
func (p *Profile) Title() string {
	if p.Options.MarketNeutral {
		return fmt.Sprintf("Market Relative mean return of %d events (market: %s)", p.Events, p.Options.MarketSymbol)
	}
	return fmt.Sprintf("Mean return of %d events", p.Events)
}

// RenderPNG draws the mean cumulative path (plus ±1σ bands when ErrorBars)
func RenderPNG(p *Profile) ([]byte, error) {
	labels := make([]string, len(p.Offsets))
	for i, off := range p.Offsets {
		labels[i] = strconv.Itoa(off)
	}

	series := [][]float64{p.Mean}
	names := []string{"mean"}
	if p.Options.ErrorBars {
		upper := make([]float64, len(p.Mean))
		lower := make([]float64, len(p.Mean))
		for i := range p.Mean {
			upper[i] = p.Mean[i] + p.Std[i]
			lower[i] = p.Mean[i] - p.Std[i]
		}
		series = append(series, upper, lower)
		names = append(names, "+1σ", "-1σ")
	}

	yMin, yMax := bounds(series)
	padding := (yMax - yMin) * 0.1
	if padding == 0 {
		padding = 0.05
	}
	yMin -= padding
	yMax += padding

	splitNum := len(labels) / 4
	if splitNum < 2 {
		splitNum = 2
	}

	painter, err := charts.LineRender(
		series,
		charts.TitleTextOptionFunc(p.Title()),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionBottom,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(chartWidth),
		charts.HeightOptionFunc(chartHeight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render profile chart: %w", err)
	}

	buf, err := painter.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

// Render writes the profile chart to path, creating parent directories
func Render(p *Profile, path string) error {
	buf, err := RenderPNG(p)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func bounds(series [][]float64) (lo, hi float64) {
	first := true
	for _, s := range series {
		for _, v := range s {
			if first {
				lo, hi = v, v
				first = false
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}
