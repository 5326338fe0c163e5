package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fincal/internal/api"
	"github.com/wonny/fincal/internal/api/handlers"
	"github.com/wonny/fincal/internal/risk"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health               - Health check
  POST /api/returns          - 기간 수익률
  POST /api/rolling-returns  - 롤링 수익률
  POST /api/volatility       - 변동성
  POST /api/drawdown         - 최대낙폭
  POST /api/beta             - 베타
  POST /api/alpha            - 젠센 알파
  POST /api/correlation      - 상관계수
  POST /api/sharpe           - 샤프 비율
  POST /api/sortino          - 소르티노 비율
  POST /api/var              - Value at Risk

Example:
  go run ./cmd/fincal serve
  go run ./cmd/fincal serve --port 8080`,
	RunE: runServe,
}

var (
	servePort string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Load config + logger
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if servePort != "" {
		cfg.Port = servePort
	}

	// 2. Create handler
	statsHandler := handlers.NewStatsHandler(risk.NewEngine(log), log)

	// 3. Create router
	router := api.NewRouter(statsHandler, log)

	// 4. Create server
	server := api.New(cfg, log, router)

	log.Infof("Listening on %s (env=%s)", server.Addr(), cfg.Env)
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// 5. Serve until interrupted, then shut down gracefully
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, 30*time.Second); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
