package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "qstudy - 포트폴리오 배분 스캔 & 이벤트 스터디",
	Long: `qstudy Unified CLI

일별 가격 데이터 위에서 두 가지 스터디를 실행합니다.
- Sharpe 스캔: 이산 배분 전수 탐색으로 최소/최대 Sharpe ratio 배분 찾기
- 이벤트 스터디: 종목 하락 + 시장 상승 이벤트 탐지와 프로파일 차트

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant sharpe scan
  go run ./cmd/quant events run --study sp5002012
  go run ./cmd/quant study validate
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
