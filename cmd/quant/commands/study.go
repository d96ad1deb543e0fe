package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/qstudy/internal/studyconfig"
)

// studyCmd represents the study command
var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "스터디 YAML 관리",
}

var (
	studyValidateCmd = &cobra.Command{
		Use:   "validate [path]",
		Short: "스터디 YAML 검증",
		Long: `스터디 YAML을 파싱/검증하고 해시와 경고를 출력합니다.
DB 연결 없이 실행됩니다.

Example:
  go run ./cmd/quant study validate
  go run ./cmd/quant study validate config/study/homework.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStudyValidate,
	}
)

func init() {
	rootCmd.AddCommand(studyCmd)
	studyCmd.AddCommand(studyValidateCmd)
}

func runStudyValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := cfg.Study.ConfigPath
	if len(args) == 1 {
		path = args[0]
	}

	studies, _, err := studyconfig.Load(path)
	if err != nil {
		return err
	}
	hash, err := studyconfig.Hash(studies)
	if err != nil {
		return err
	}

	PrintStudyHeader(StudyHeader{
		Title:   "Study Config",
		StudyID: studies.Meta.StudyID,
	})
	PrintKeyValue("Path", path, 14)
	PrintKeyValue("Hash", hash[:16], 14)
	PrintKeyValue("Sharpe", fmt.Sprintf("%d symbols, step %.2f", len(studies.Sharpe.Symbols), studies.Sharpe.Step), 14)
	for _, e := range studies.EventStudies {
		source := e.SymbolList
		if source == "" {
			source = fmt.Sprintf("%d symbols", len(e.Symbols))
		}
		PrintKeyValue("Event study", fmt.Sprintf("%s (%s, %s ~ %s)", e.Name, source, e.Start, e.End), 14)
	}

	for _, w := range studyconfig.Warn(studies) {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	fmt.Println()
	PrintSuccess("Study config is valid")
	return nil
}
