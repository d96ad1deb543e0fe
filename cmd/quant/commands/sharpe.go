package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/qstudy/internal/allocation"
	"github.com/wonny/qstudy/internal/contracts"
	"github.com/wonny/qstudy/internal/studyconfig"
)

// sharpeCmd represents the sharpe command
var sharpeCmd = &cobra.Command{
	Use:   "sharpe",
	Short: "포트폴리오 배분 Sharpe 스캔",
	Long: `이산 배분을 전수 탐색해 최소/최대 Sharpe ratio 배분을 찾습니다.

Example:
  go run ./cmd/quant sharpe scan
  go run ./cmd/quant sharpe scan --symbols C,GS,IBM,HNZ --from 2010-01-01 --to 2010-12-31`,
}

var (
	sharpeScanCmd = &cobra.Command{
		Use:   "scan",
		Short: "배분 스캔 실행",
		Long: `스터디 YAML의 sharpe 섹션으로 스캔을 실행합니다.
플래그로 지정한 값이 YAML 값을 덮어씁니다.

Flags:
  --study-config   스터디 YAML (기본: STUDY_CONFIG)
  --symbols        쉼표 구분 종목
  --from, --to     기간 (YYYY-MM-DD)
  --step           배분 단위 (예: 0.1)
  --include-first  첫 번째 배분도 비교 대상에 포함`,
		RunE: runSharpeScan,
	}

	// Flags
	sharpeStudyConfig  string
	sharpeSymbols      string
	sharpeFrom         string
	sharpeTo           string
	sharpeStep         float64
	sharpeIncludeFirst bool
)

func init() {
	rootCmd.AddCommand(sharpeCmd)
	sharpeCmd.AddCommand(sharpeScanCmd)

	sharpeScanCmd.Flags().StringVar(&sharpeStudyConfig, "study-config", "", "study YAML path")
	sharpeScanCmd.Flags().StringVar(&sharpeSymbols, "symbols", "", "comma separated symbols")
	sharpeScanCmd.Flags().StringVar(&sharpeFrom, "from", "", "start date (YYYY-MM-DD)")
	sharpeScanCmd.Flags().StringVar(&sharpeTo, "to", "", "end date (YYYY-MM-DD)")
	sharpeScanCmd.Flags().Float64Var(&sharpeStep, "step", 0, "allocation step")
	sharpeScanCmd.Flags().BoolVar(&sharpeIncludeFirst, "include-first", false, "score the first allocation too")
}

func runSharpeScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	studies, err := loadStudies(d.cfg, sharpeStudyConfig, d.log)
	if err != nil {
		return err
	}

	cfg, err := applySharpeFlags(studies.Sharpe)
	if err != nil {
		return err
	}
	check := &studyconfig.Config{Meta: studies.Meta, Sharpe: cfg}
	if err := studyconfig.Validate(check); err != nil {
		return fmt.Errorf("invalid sharpe study: %w", err)
	}

	PrintStudyHeader(StudyHeader{
		Title:   "Sharpe Allocation Scan",
		StudyID: studies.Meta.StudyID,
		Period:  &Period{StartDate: cfg.Start.String(), EndDate: cfg.End.String()},
		Symbols: cfg.Symbols,
	})

	// 진행률은 10% 단위로만 출력
	lastDecile := -1
	progress := func(done, total int, lo, hi allocation.ScoredAllocation) {
		decile := done * 10 / total
		if decile == lastDecile {
			return
		}
		lastDecile = decile
		fmt.Printf("[Sharpe] %d/%d allocations  min=%.4f  max=%.4f\n", done, total, lo.Ratio, hi.Ratio)
	}

	result, err := d.orchestrator.RunSharpe(ctx, cfg, progress)
	if err != nil {
		return fmt.Errorf("sharpe scan: %w", err)
	}

	scan := result.Scan
	fmt.Println()
	PrintTableHeader([]string{"", "Allocation", "Sharpe"}, []int{6, 40, 10})
	PrintTableRow([]string{"Min", formatAllocation(scan.Symbols, scan.Min.Allocation), fmt.Sprintf("%.6f", scan.Min.Ratio)}, []int{6, 40, 10})
	PrintTableRow([]string{"Max", formatAllocation(scan.Symbols, scan.Max.Allocation), fmt.Sprintf("%.6f", scan.Max.Ratio)}, []int{6, 40, 10})
	fmt.Println()

	PrintKeyValue("Trading days", fmt.Sprintf("%d", result.Days), 14)
	PrintKeyValue("Allocations", fmt.Sprintf("%d", scan.Total), 14)
	PrintKeyValue("Scored", fmt.Sprintf("%d", scan.Scored), 14)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", scan.Skipped), 14)
	PrintKeyValue("Excluded", fmt.Sprintf("%d", len(scan.Excluded)), 14)

	if len(scan.Excluded) > 0 {
		PrintWarning(fmt.Sprintf("%d degenerate allocations were excluded (zero variance)", len(scan.Excluded)))
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Scan completed in %.2fs", result.Duration.Seconds()))
	return nil
}

func applySharpeFlags(cfg studyconfig.SharpeStudy) (studyconfig.SharpeStudy, error) {
	if sharpeSymbols != "" {
		cfg.Symbols = splitSymbols(sharpeSymbols)
	}
	if sharpeFrom != "" {
		d, err := studyconfig.ParseDate(sharpeFrom)
		if err != nil {
			return cfg, fmt.Errorf("--from: %w", err)
		}
		cfg.Start = d
	}
	if sharpeTo != "" {
		d, err := studyconfig.ParseDate(sharpeTo)
		if err != nil {
			return cfg, fmt.Errorf("--to: %w", err)
		}
		cfg.End = d
	}
	if sharpeStep > 0 {
		cfg.Step = sharpeStep
	}
	if sharpeIncludeFirst {
		cfg.SkipFirst = false
	}
	return cfg, nil
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

// formatAllocation renders "C:0.40 GS:0.00 ..."
func formatAllocation(symbols []contracts.Symbol, alloc allocation.Allocation) string {
	parts := make([]string, len(alloc))
	for i, w := range alloc {
		parts[i] = fmt.Sprintf("%s:%.2f", symbols[i], w)
	}
	return strings.Join(parts, " ")
}
