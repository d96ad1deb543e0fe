package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/qstudy/internal/api"
	"github.com/wonny/qstudy/internal/api/handlers"
	"github.com/wonny/qstudy/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                        - Health check
  GET  /api/studies                   - 스터디 설정 조회
  POST /api/sharpe/scan               - Sharpe 배분 스캔
  POST /api/events/run                - 이벤트 스터디 실행
  GET  /api/events/{study}/profile.png - 이벤트 프로파일 차트

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort        string
	apiStudyConfig string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().StringVar(&apiStudyConfig, "study-config", "", "study YAML path")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if apiPort != "" {
		d.cfg.Port = apiPort
	}

	studies, err := loadStudies(d.cfg, apiStudyConfig, d.log)
	if err != nil {
		return err
	}

	studyHandler := handlers.NewStudyHandler(d.orchestrator, studies, d.log)
	// Redis가 꺼져 있으면 프로세스 내 토큰 버킷으로 대체
	var limiter api.Limiter = api.NewLocalLimiter()
	if d.redis.Enabled() {
		limiter = redis.NewRateLimiter(d.redis, cachePrefix)
	}
	router := api.NewRouter(studyHandler, limiter, d.log)
	server := api.New(d.cfg, d.log, router)

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", d.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	d.log.Info("Server stopped")
	return nil
}
