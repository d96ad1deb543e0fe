package studyconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/qstudy/internal/allocation"
	"github.com/wonny/qstudy/internal/contracts"
	"github.com/wonny/qstudy/internal/events"
	"github.com/wonny/qstudy/internal/profiler"
)

// DateLayout is the only accepted date format
const DateLayout = "2006-01-02"

// ErrStudyNotFound no event study with the requested name
var ErrStudyNotFound = errors.New("event study not found")

// Config는 스터디 실행 전체 설정
// ⭐ SSOT: 심볼/기간/임계값은 코드 상수가 아니라 여기서만
type Config struct {
	Meta         Meta         `yaml:"meta" json:"meta"`
	Sharpe       SharpeStudy  `yaml:"sharpe" json:"sharpe"`
	EventStudies []EventStudy `yaml:"event_studies" json:"event_studies"`
}

// Meta 메타 정보
type Meta struct {
	StudyID     string `yaml:"study_id" json:"study_id"`
	Description string `yaml:"description" json:"description"`
}

// SharpeStudy 포트폴리오 배분 스캔 설정
type SharpeStudy struct {
	Symbols     []string `yaml:"symbols" json:"symbols"`
	Start       Date     `yaml:"start" json:"start"`
	End         Date     `yaml:"end" json:"end"`
	Field       string   `yaml:"field" json:"field"`
	Step        float64  `yaml:"step" json:"step"`
	SkipFirst   bool     `yaml:"skip_first" json:"skip_first"`
	TradingDays int      `yaml:"trading_days" json:"trading_days"`
}

// EventStudy 이벤트 스터디 1건
type EventStudy struct {
	Name         string            `yaml:"name" json:"name"`
	Symbols      []string          `yaml:"symbols,omitempty" json:"symbols,omitempty"`
	SymbolList   string            `yaml:"symbol_list,omitempty" json:"symbol_list,omitempty"`
	MarketSymbol string            `yaml:"market_symbol" json:"market_symbol"`
	Start        Date              `yaml:"start" json:"start"`
	End          Date              `yaml:"end" json:"end"`
	Field        string            `yaml:"field" json:"field"`
	Thresholds   events.Thresholds `yaml:"thresholds" json:"thresholds"`
	Marker       float64           `yaml:"marker" json:"marker"`
	Report       Report            `yaml:"report" json:"report"`
}

// Report 이벤트 프로파일 출력 설정 (output 비어있으면 생략)
type Report struct {
	Lookback      int    `yaml:"lookback" json:"lookback"`
	Lookforward   int    `yaml:"lookforward" json:"lookforward"`
	MarketNeutral bool   `yaml:"market_neutral" json:"market_neutral"`
	ErrorBars     bool   `yaml:"error_bars" json:"error_bars"`
	Output        string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Date is a calendar day written as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate returns the UTC midnight of y-m-d
func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want %s)", s, DateLayout)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDate(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ScanConfig converts to the scanner configuration
func (s SharpeStudy) ScanConfig() allocation.ScanConfig {
	return allocation.ScanConfig{
		Step:        s.Step,
		SkipFirst:   s.SkipFirst,
		TradingDays: s.TradingDays,
	}
}

// SymbolList returns the configured symbols
func (s SharpeStudy) SymbolList() []contracts.Symbol {
	return contracts.SymbolsFromStrings(s.Symbols)
}

// PriceField returns the validated price field
func (s SharpeStudy) PriceField() contracts.Field {
	return contracts.Field(s.Field)
}

// PriceField returns the validated price field
func (e EventStudy) PriceField() contracts.Field {
	return contracts.Field(e.Field)
}

// Market returns the market symbol
func (e EventStudy) Market() contracts.Symbol {
	return contracts.Symbol(e.MarketSymbol)
}

// HasReport reports whether a profile chart should be rendered
func (e EventStudy) HasReport() bool {
	return e.Report.Output != ""
}

// ProfileOptions converts the report section to profiler options
func (e EventStudy) ProfileOptions() profiler.Options {
	return profiler.Options{
		Lookback:      e.Report.Lookback,
		Lookforward:   e.Report.Lookforward,
		MarketNeutral: e.Report.MarketNeutral,
		ErrorBars:     e.Report.ErrorBars,
		MarketSymbol:  e.Market(),
	}
}

// EventStudy finds a study by name
func (c *Config) EventStudy(name string) (*EventStudy, error) {
	for i := range c.EventStudies {
		if c.EventStudies[i].Name == name {
			return &c.EventStudies[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrStudyNotFound, name)
}

// Default returns the course homework setup: the 2010 Sharpe scan over
// C/GS/IBM/HNZ and the two S&P 500 event studies over 2008-2009.
func Default() *Config {
	report := func(output string) Report {
		return Report{
			Lookback:      20,
			Lookforward:   20,
			MarketNeutral: true,
			ErrorBars:     true,
			Output:        output,
		}
	}
	study := func(name, output string) EventStudy {
		return EventStudy{
			Name:         name,
			SymbolList:   name,
			MarketSymbol: "SPY",
			Start:        NewDate(2008, time.January, 1),
			End:          NewDate(2009, time.December, 31),
			Field:        string(contracts.FieldActualClose),
			Thresholds:   events.DefaultThresholds(),
			Marker:       events.DefaultMarker,
			Report:       report(output),
		}
	}

	return &Config{
		Meta: Meta{
			StudyID:     "ci_homework",
			Description: "Sharpe allocation scan and market-relative drop event studies",
		},
		Sharpe: SharpeStudy{
			Symbols:     []string{"C", "GS", "IBM", "HNZ"},
			Start:       NewDate(2010, time.January, 1),
			End:         NewDate(2010, time.December, 31),
			Field:       string(contracts.FieldClose),
			Step:        allocation.DefaultStep,
			SkipFirst:   true,
			TradingDays: allocation.TradingDaysPerYear,
		},
		EventStudies: []EventStudy{
			study("sp5002008", "MyEventStudy1.png"),
			study("sp5002012", "MyEventStudy2.png"),
		},
	}
}
