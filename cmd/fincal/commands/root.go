package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fincal/pkg/config"
	"github.com/wonny/fincal/pkg/logger"
)

var (
	// Global flags
	optionsFile string
	verbose     bool
	jsonOutput  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fincal",
	Short: "fincal - 시계열 수익률/리스크 계산기",
	Long: `fincal Unified CLI

날짜 인덱스 시계열(NAV, 주가, 금리)을 읽어
수익률, 변동성, 최대낙폭, 베타/알파, 샤프/소르티노, VaR 를 계산합니다.

입력 소스:
  --file    CSV 파일
  --url     HTML 테이블 페이지
  --symbol  PostgreSQL 가격 테이블

Usage:
  go run ./cmd/fincal [command]

Examples:
  go run ./cmd/fincal info --file nav.csv
  go run ./cmd/fincal returns --file nav.csv --period 3 --period-unit years
  go run ./cmd/fincal stats beta --symbol 005930 --benchmark-symbol 069500
  go run ./cmd/fincal serve --port 8080`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&optionsFile, "options", "", "calculation options YAML (date_format, closest, traded_days, get_closest)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// bootstrap loads config, installs the calculation defaults and builds the logger
// ⭐ SSOT: 모든 커맨드는 이 함수로 config/logger 를 초기화
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	opts := cfg.Options
	if optionsFile != "" {
		fileOpts, err := config.LoadOptionsFile(optionsFile)
		if err != nil {
			return nil, nil, err
		}
		opts = fileOpts
	}
	if err := config.SetDefaults(opts); err != nil {
		return nil, nil, fmt.Errorf("apply options: %w", err)
	}

	log := logger.New(cfg)
	logger.SetDefault(log)
	return cfg, log, nil
}
