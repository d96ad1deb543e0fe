package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/qstudy/internal/allocation"
	"github.com/wonny/qstudy/internal/contracts"
	"github.com/wonny/qstudy/internal/events"
	"github.com/wonny/qstudy/internal/profiler"
	"github.com/wonny/qstudy/internal/studyconfig"
	"github.com/wonny/qstudy/pkg/logger"
)

// Stage names recorded in CompletedStages
const (
	StageSymbols = "symbols"
	StagePrices  = "prices"
	StageScan    = "scan"
	StageDetect  = "detect"
	StageProfile = "profile"
)

// Orchestrator runs configured studies against a price provider
// ⭐ SSOT: 데이터 로드 → 계산 → 리포트 흐름은 여기서만
type Orchestrator struct {
	provider contracts.PriceProvider
	logger   *logger.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(provider contracts.PriceProvider, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		logger:   log,
	}
}

// SharpeResult holds a completed allocation scan
type SharpeResult struct {
	RunID           string                 `json:"run_id"`
	Scan            *allocation.ScanResult `json:"scan"`
	Days            int                    `json:"days"`
	CompletedStages []string               `json:"completed_stages"`
	Duration        time.Duration          `json:"duration"`
}

// EventResult holds a completed event study
type EventResult struct {
	RunID           string                   `json:"run_id"`
	Name            string                   `json:"name"`
	Symbols         []contracts.Symbol       `json:"symbols"`
	Market          contracts.Symbol         `json:"market"`
	Matrix          *events.EventMatrix      `json:"-"`
	Panel           *contracts.PricePanel    `json:"-"`
	Counts          map[contracts.Symbol]int `json:"counts"`
	Profile         *profiler.Profile        `json:"profile,omitempty"`
	ProfileError    string                   `json:"profile_error,omitempty"`
	CompletedStages []string                 `json:"completed_stages"`
	Duration        time.Duration            `json:"duration"`
}

// RunSharpe loads prices for the study and scans every allocation
func (o *Orchestrator) RunSharpe(ctx context.Context, cfg studyconfig.SharpeStudy, progress allocation.ProgressFunc) (*SharpeResult, error) {
	start := time.Now()
	result := &SharpeResult{
		RunID:           NewRunID(),
		CompletedStages: make([]string, 0, 2),
	}
	symbols := cfg.SymbolList()

	o.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"symbols": cfg.Symbols,
		"from":    cfg.Start.String(),
		"to":      cfg.End.String(),
		"field":   cfg.Field,
		"step":    cfg.Step,
	}).Info("Starting Sharpe scan")

	panel, err := o.loadPanel(ctx, symbols, cfg.Start, cfg.End, cfg.PriceField())
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", StagePrices, err)
	}
	result.Days = panel.Len()
	result.CompletedStages = append(result.CompletedStages, StagePrices)

	scanner, err := allocation.NewScanner(cfg.ScanConfig(), o.logger.Component("allocation.scanner"))
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", StageScan, err)
	}
	scan, err := scanner.Scan(ctx, panel, symbols, progress)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", StageScan, err)
	}
	result.Scan = scan
	result.CompletedStages = append(result.CompletedStages, StageScan)
	result.Duration = time.Since(start)

	return result, nil
}

// RunEventStudy resolves symbols, loads prices, detects events and builds the profile.
// A profile that cannot be built (no usable event) is reported, not fatal.
func (o *Orchestrator) RunEventStudy(ctx context.Context, cfg studyconfig.EventStudy) (*EventResult, error) {
	start := time.Now()
	result := &EventResult{
		RunID:           NewRunID(),
		Name:            cfg.Name,
		Market:          cfg.Market(),
		CompletedStages: make([]string, 0, 4),
	}
	log := o.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"study":  cfg.Name,
	})

	symbols, err := o.resolveSymbols(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", StageSymbols, err)
	}
	result.Symbols = symbols
	result.CompletedStages = append(result.CompletedStages, StageSymbols)

	// 시장 심볼은 가격 로드에 포함 (이벤트 판정 기준)
	load := withSymbol(symbols, cfg.Market())
	panel, err := o.loadPanel(ctx, load, cfg.Start, cfg.End, cfg.PriceField())
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", StagePrices, err)
	}
	result.Panel = panel
	result.CompletedStages = append(result.CompletedStages, StagePrices)

	detector := events.NewDetectorWithThresholds(cfg.Thresholds, cfg.Marker, o.logger.Component("events.detector"))
	matrix, err := detector.FindEvents(ctx, panel, load, cfg.Market())
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", StageDetect, err)
	}
	result.Matrix = matrix
	result.Counts = matrix.CountBySymbol()
	result.CompletedStages = append(result.CompletedStages, StageDetect)

	if cfg.HasReport() {
		profile, err := profiler.Build(matrix, panel, cfg.ProfileOptions())
		switch {
		case errors.Is(err, contracts.ErrNoEvents):
			result.ProfileError = err.Error()
			log.WithError(err).Warn("Event profile skipped")
		case err != nil:
			return nil, fmt.Errorf("%s failed: %w", StageProfile, err)
		default:
			result.Profile = profile
			result.CompletedStages = append(result.CompletedStages, StageProfile)
		}
	}

	result.Duration = time.Since(start)
	log.WithFields(map[string]interface{}{
		"symbols":  len(symbols),
		"days":     panel.Len(),
		"events":   matrix.Count(),
		"duration": result.Duration.Seconds(),
	}).Info("Event study completed")

	return result, nil
}

// NewRunID generates a unique run ID
func NewRunID() string {
	return "run_" + uuid.NewString()
}

func (o *Orchestrator) resolveSymbols(ctx context.Context, cfg studyconfig.EventStudy) ([]contracts.Symbol, error) {
	if len(cfg.Symbols) > 0 {
		return contracts.SymbolsFromStrings(cfg.Symbols), nil
	}
	return o.provider.SymbolsFromList(ctx, cfg.SymbolList)
}

func (o *Orchestrator) loadPanel(ctx context.Context, symbols []contracts.Symbol, from, to studyconfig.Date, field contracts.Field) (*contracts.PricePanel, error) {
	data, err := o.provider.GetAlignedPrices(ctx, symbols, from.Time, to.Time, []contracts.Field{field})
	if err != nil {
		return nil, err
	}
	panel, err := data.Panel(field)
	if err != nil {
		return nil, err
	}
	if err := panel.Validate(); err != nil {
		return nil, err
	}
	return panel, nil
}

func withSymbol(symbols []contracts.Symbol, extra contracts.Symbol) []contracts.Symbol {
	for _, s := range symbols {
		if s == extra {
			return symbols
		}
	}
	out := make([]contracts.Symbol, 0, len(symbols)+1)
	out = append(out, symbols...)
	return append(out, extra)
}
