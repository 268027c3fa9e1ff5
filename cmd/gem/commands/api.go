package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/gem/internal/api"
	"github.com/wonny/gem/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health              - Health check
  GET  /api/signal          - 시그널 계산 (?date=YYYY-MM-DD, 기본: 오늘)
  GET  /api/signal/latest   - 스케줄러가 마지막으로 계산한 시그널 (--scheduler)

Example:
  go run ./cmd/gem api
  go run ./cmd/gem api --port 8080 --scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiScheduler, "scheduler", false, "스케줄러를 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	var latest handlers.LatestSource
	if apiScheduler {
		sched, signalJob, err := initScheduler(ctx, a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		printJobStats(sched)
		latest = signalJob
	}

	signalHandler := handlers.NewSignalHandler(a.decisionService(), latest, a.log.Component("signal_handler"))
	router := api.NewRouter(signalHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	fmt.Printf("🌐 Listening on %s (Ctrl+C to stop)\n", server.Addr())
	return server.Run(ctx)
}
