package studyconfig

import (
	"fmt"

	"github.com/wonny/qstudy/internal/allocation"
	"github.com/wonny/qstudy/internal/contracts"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// large scans are allowed but flagged
const largeScanAllocations = 1_000_000

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StudyID == "" {
		return ValidationError{"meta.study_id", "required"}
	}

	// === Sharpe ===
	if err := validateSharpe(cfg.Sharpe); err != nil {
		return err
	}

	// === Event studies ===
	names := make(map[string]bool, len(cfg.EventStudies))
	for i, study := range cfg.EventStudies {
		prefix := fmt.Sprintf("event_studies[%d]", i)
		if err := validateEventStudy(prefix, study); err != nil {
			return err
		}
		if names[study.Name] {
			return ValidationError{prefix + ".name", fmt.Sprintf("duplicate study name %q", study.Name)}
		}
		names[study.Name] = true
	}

	return nil
}

func validateSharpe(s SharpeStudy) error {
	if len(s.Symbols) == 0 {
		return ValidationError{"sharpe.symbols", "at least one symbol required"}
	}
	if err := validateUnique(s.Symbols); err != nil {
		return ValidationError{"sharpe.symbols", err.Error()}
	}
	if err := validateRange(s.Start, s.End); err != nil {
		return ValidationError{"sharpe.start", err.Error()}
	}
	if _, err := contracts.ParseField(s.Field); err != nil {
		return ValidationError{"sharpe.field", err.Error()}
	}
	if _, err := allocation.NewGenerator(s.Step); err != nil {
		return ValidationError{"sharpe.step", err.Error()}
	}
	if s.TradingDays <= 0 {
		return ValidationError{"sharpe.trading_days", "must be > 0"}
	}
	return nil
}

func validateEventStudy(prefix string, e EventStudy) error {
	if e.Name == "" {
		return ValidationError{prefix + ".name", "required"}
	}
	// symbols XOR symbol_list
	if (len(e.Symbols) == 0) == (e.SymbolList == "") {
		return ValidationError{prefix, "exactly one of symbols or symbol_list is required"}
	}
	if err := validateUnique(e.Symbols); err != nil {
		return ValidationError{prefix + ".symbols", err.Error()}
	}
	if e.MarketSymbol == "" {
		return ValidationError{prefix + ".market_symbol", "required"}
	}
	if err := validateRange(e.Start, e.End); err != nil {
		return ValidationError{prefix + ".start", err.Error()}
	}
	if _, err := contracts.ParseField(e.Field); err != nil {
		return ValidationError{prefix + ".field", err.Error()}
	}
	if e.Thresholds.SymbolDrop >= 0 {
		return ValidationError{prefix + ".thresholds.symbol_drop", "must be < 0"}
	}
	if e.Thresholds.MarketRise <= 0 {
		return ValidationError{prefix + ".thresholds.market_rise", "must be > 0"}
	}
	if e.Marker == 0 {
		return ValidationError{prefix + ".marker", "must be non-zero"}
	}
	if e.Report.Lookback < 0 || e.Report.Lookforward < 0 {
		return ValidationError{prefix + ".report", "lookback and lookforward must be >= 0"}
	}
	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if gen, err := allocation.NewGenerator(cfg.Sharpe.Step); err == nil {
		if n := gen.Count(len(cfg.Sharpe.Symbols)); n > largeScanAllocations {
			warnings = append(warnings, Warning{
				Code:    "LARGE_SCAN",
				Message: fmt.Sprintf("sharpe scan enumerates %d allocations", n),
			})
		}
	}

	if !cfg.Sharpe.SkipFirst {
		warnings = append(warnings, Warning{
			Code:    "FIRST_ALLOCATION_INCLUDED",
			Message: "skip_first=false: results differ from the reference homework output",
		})
	}

	for _, e := range cfg.EventStudies {
		span := e.End.Sub(e.Start.Time).Hours() / 24
		if e.HasReport() && span < float64(2*(e.Report.Lookback+e.Report.Lookforward)) {
			warnings = append(warnings, Warning{
				Code:    "SHORT_EVENT_WINDOW",
				Message: fmt.Sprintf("%s: %.0f days is short for a %d/%d profile", e.Name, span, e.Report.Lookback, e.Report.Lookforward),
			})
		}
		if !e.Report.MarketNeutral && e.HasReport() {
			warnings = append(warnings, Warning{
				Code:    "RAW_PROFILE",
				Message: fmt.Sprintf("%s: profile is not market relative", e.Name),
			})
		}
	}

	return warnings
}

// === Helper Functions ===

func validateRange(start, end Date) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("start and end are required")
	}
	if !start.Before(end.Time) {
		return fmt.Errorf("start %s must be before end %s", start, end)
	}
	return nil
}

func validateUnique(symbols []string) error {
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if s == "" {
			return fmt.Errorf("empty symbol")
		}
		if seen[s] {
			return fmt.Errorf("duplicate symbol %q", s)
		}
		seen[s] = true
	}
	return nil
}
