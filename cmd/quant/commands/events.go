package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/qstudy/internal/profiler"
	"github.com/wonny/qstudy/internal/study"
	"github.com/wonny/qstudy/internal/studyconfig"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "이벤트 스터디 (종목 하락 + 시장 상승)",
	Long: `종목 일수익률 <= -3% 이고 시장 일수익률 >= +2% 인 날을 이벤트로 탐지하고
이벤트 전후 평균 수익률 프로파일 차트를 생성합니다.

Example:
  go run ./cmd/quant events run
  go run ./cmd/quant events run --study sp5002012
  go run ./cmd/quant events run --no-report`,
}

var (
	eventsRunCmd = &cobra.Command{
		Use:   "run",
		Short: "이벤트 스터디 실행",
		Long: `스터디 YAML의 event_studies를 실행합니다.

Flags:
  --study-config  스터디 YAML (기본: STUDY_CONFIG)
  --study         실행할 스터디 이름 (기본: 전체)
  --no-report     프로파일 차트 생략
  --report-dir    차트 출력 디렉토리 (기본: REPORT_DIR)`,
		RunE: runEvents,
	}

	// Flags
	eventsStudyConfig string
	eventsStudy       string
	eventsNoReport    bool
	eventsReportDir   string
)

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsRunCmd)

	eventsRunCmd.Flags().StringVar(&eventsStudyConfig, "study-config", "", "study YAML path")
	eventsRunCmd.Flags().StringVar(&eventsStudy, "study", "", "event study name (default: all)")
	eventsRunCmd.Flags().BoolVar(&eventsNoReport, "no-report", false, "skip profile charts")
	eventsRunCmd.Flags().StringVar(&eventsReportDir, "report-dir", "", "chart output directory")
}

func runEvents(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	studies, err := loadStudies(d.cfg, eventsStudyConfig, d.log)
	if err != nil {
		return err
	}

	selected := studies.EventStudies
	if eventsStudy != "" {
		one, err := studies.EventStudy(eventsStudy)
		if err != nil {
			return err
		}
		selected = []studyconfig.EventStudy{*one}
	}

	reportDir := eventsReportDir
	if reportDir == "" {
		reportDir = d.cfg.Study.ReportDir
	}

	for _, cfg := range selected {
		if eventsNoReport {
			cfg.Report.Output = ""
		}

		PrintStudyHeader(StudyHeader{
			Title:   "Event Study: " + cfg.Name,
			StudyID: studies.Meta.StudyID,
			Period:  &Period{StartDate: cfg.Start.String(), EndDate: cfg.End.String()},
			Symbols: cfg.Symbols,
		})

		result, err := d.orchestrator.RunEventStudy(ctx, cfg)
		if err != nil {
			return fmt.Errorf("event study %s: %w", cfg.Name, err)
		}
		printEventResult(result)

		if result.Profile != nil {
			path := filepath.Join(reportDir, cfg.Report.Output)
			if err := profiler.Render(result.Profile, path); err != nil {
				return fmt.Errorf("render %s: %w", cfg.Name, err)
			}
			PrintSuccess(fmt.Sprintf("Profile written to %s (%d events, %d discarded)",
				path, result.Profile.Events, result.Profile.Discarded))
		}
		if result.ProfileError != "" {
			PrintWarning("Profile skipped: " + result.ProfileError)
		}
		PrintSuccess(fmt.Sprintf("%s completed in %.2fs", cfg.Name, result.Duration.Seconds()))
	}

	return nil
}

// printEventResult prints the event total and the most frequent symbols
func printEventResult(result *study.EventResult) {
	type row struct {
		symbol string
		count  int
	}
	rows := make([]row, 0, len(result.Counts))
	for sym, n := range result.Counts {
		rows = append(rows, row{string(sym), n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].symbol < rows[j].symbol
	})

	fmt.Println()
	PrintKeyValue("Symbols", fmt.Sprintf("%d", len(result.Symbols)), 14)
	PrintKeyValue("Market", string(result.Market), 14)
	PrintKeyValue("Trading days", fmt.Sprintf("%d", len(result.Matrix.Dates())), 14)
	PrintKeyValue("Events", fmt.Sprintf("%d", result.Matrix.Count()), 14)
	fmt.Println()

	if len(rows) == 0 {
		return
	}
	widths := []int{10, 8}
	PrintTableHeader([]string{"Symbol", "Events"}, widths)
	for i, r := range rows {
		if i == 10 {
			fmt.Printf("... %d more symbols\n", len(rows)-10)
			break
		}
		PrintTableRow([]string{r.symbol, fmt.Sprintf("%d", r.count)}, widths)
	}
	fmt.Println()
}
