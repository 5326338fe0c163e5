package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/risk"
	"github.com/wonny/fincal/internal/timeseries"
	"github.com/wonny/fincal/pkg/config"
	"github.com/wonny/fincal/pkg/logger"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "리스크 지표",
	Long: `롤링 수익률 기반 리스크 지표를 계산합니다.

Subcommands:
  beta         벤치마크 대비 베타
  alpha        젠센 알파
  correlation  벤치마크와의 상관계수
  sharpe       샤프 비율
  sortino      소르티노 비율
  var          Value at Risk (historical, parametric)

Example:
  go run ./cmd/fincal stats beta --file fund.csv --benchmark-file index.csv
  go run ./cmd/fincal stats sharpe --file fund.csv --rf-rate 0.035
  go run ./cmd/fincal stats var --symbol 005930 --period 1 --period-unit days --confidence 0.99`,
}

// statFlags are the flags of one stats subcommand
type statFlags struct {
	input      inputFlags
	benchmark  inputFlags
	riskFree   inputFlags
	params     returnFlags
	rate       float64
	tradedDays int
	confidence float64
	method     string
}

// statInputs are the loaded series and parameters handed to a statistic
type statInputs struct {
	series    *timeseries.TimeSeries
	benchmark *timeseries.TimeSeries
	riskFree  risk.RiskFree
	params    risk.StatParams
}

type statRunner func(e *risk.Engine, in statInputs, f *statFlags) (interface{}, error)

func newStatCmd(use, short, long string, benchmark, riskFree bool, run statRunner) *cobra.Command {
	cmd, _ := buildStatCmd(use, short, long, benchmark, riskFree, run)
	return cmd
}

func buildStatCmd(use, short, long string, benchmark, riskFree bool, run statRunner) (*cobra.Command, *statFlags) {
	f := &statFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			in, err := f.load(cmd.Context(), cfg, log, benchmark, riskFree)
			if err != nil {
				return err
			}
			res, err := run(risk.NewEngine(log), in, f)
			if err != nil {
				return err
			}
			return printStat(use, res)
		},
	}

	f.input.bind(cmd, "", "입력")
	f.params.bind(cmd, calendar.Years)
	cmd.Flags().IntVar(&f.tradedDays, "traded-days", 0, "연간 거래일 수 (기본: options traded_days)")
	if benchmark {
		f.benchmark.bind(cmd, "benchmark-", "벤치마크")
	}
	if riskFree {
		cmd.Flags().Float64Var(&f.rate, "rf-rate", 0, "무위험 수익률 (연율)")
		f.riskFree.bind(cmd, "rf-", "무위험 수익률 시계열")
	}
	return cmd, f
}

func (f *statFlags) load(ctx context.Context, cfg *config.Config, log *logger.Logger, benchmark, riskFree bool) (statInputs, error) {
	var in statInputs
	var err error

	if in.params, err = f.params.statParams(f.tradedDays); err != nil {
		return in, err
	}
	if in.series, err = f.input.load(ctx, cfg, log); err != nil {
		return in, err
	}
	if benchmark {
		if in.benchmark, err = f.benchmark.load(ctx, cfg, log); err != nil {
			return in, fmt.Errorf("benchmark: %w", err)
		}
	}
	if riskFree {
		in.riskFree = risk.Rate(f.rate)
		if f.riskFree.given() {
			rates, err := f.riskFree.load(ctx, cfg, log)
			if err != nil {
				return in, fmt.Errorf("risk-free: %w", err)
			}
			in.riskFree = risk.RateSeries{TimeSeries: rates}
		}
	}
	return in, nil
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.AddCommand(
		newStatCmd("beta", "베타", `자산 롤링 수익률의 벤치마크 대비 베타 (cov/var).

Example:
  go run ./cmd/fincal stats beta --file fund.csv --benchmark-file index.csv`,
			true, false,
			func(e *risk.Engine, in statInputs, _ *statFlags) (interface{}, error) {
				return e.Beta(in.series, in.benchmark, in.params)
			}),

		newStatCmd("alpha", "젠센 알파", `실현 수익률 - (무위험 + 베타 × (시장 - 무위험)).

Example:
  go run ./cmd/fincal stats alpha --file fund.csv --benchmark-file index.csv --rf-rate 0.035`,
			true, true,
			func(e *risk.Engine, in statInputs, _ *statFlags) (interface{}, error) {
				return e.JensensAlpha(in.series, in.benchmark, in.riskFree, in.params)
			}),

		newStatCmd("correlation", "상관계수", `두 시계열 롤링 수익률의 피어슨 상관계수.

Example:
  go run ./cmd/fincal stats correlation --file a.csv --benchmark-file b.csv`,
			true, false,
			func(e *risk.Engine, in statInputs, _ *statFlags) (interface{}, error) {
				return e.Correlation(in.series, in.benchmark, in.params)
			}),

		newStatCmd("sharpe", "샤프 비율", `(평균 롤링 수익률 - 무위험) / 변동성.

Example:
  go run ./cmd/fincal stats sharpe --file fund.csv --rf-rate 0.035
  go run ./cmd/fincal stats sharpe --file fund.csv --rf-file cd91.csv`,
			false, true,
			func(e *risk.Engine, in statInputs, _ *statFlags) (interface{}, error) {
				return e.SharpeRatio(in.series, in.riskFree, in.params)
			}),

		newStatCmd("sortino", "소르티노 비율", `(평균 롤링 수익률 - 무위험) / 하방 편차.

Example:
  go run ./cmd/fincal stats sortino --file fund.csv --rf-rate 0.035`,
			false, true,
			func(e *risk.Engine, in statInputs, _ *statFlags) (interface{}, error) {
				return e.SortinoRatio(in.series, in.riskFree, in.params)
			}),

		varCmd(),
	)
}

func varCmd() *cobra.Command {
	cmd, f := buildStatCmd("var", "Value at Risk", `롤링 수익률 분포의 VaR / CVaR (손실 양수).

Methods:
  historical  경험적 분위수 (기본)
  parametric  정규분포 가정

Example:
  go run ./cmd/fincal stats var --file fund.csv --period 1 --period-unit days
  go run ./cmd/fincal stats var --file fund.csv --method parametric --confidence 0.99`,
		false, false,
		func(e *risk.Engine, in statInputs, f *statFlags) (interface{}, error) {
			switch f.method {
			case "historical":
				return e.ValueAtRisk(in.series, f.confidence, in.params)
			case "parametric":
				return e.ParametricVaR(in.series, f.confidence, in.params)
			default:
				return nil, fmt.Errorf("unknown --method %q: must be historical or parametric", f.method)
			}
		})
	cmd.Flags().Float64Var(&f.confidence, "confidence", 0.95, "신뢰수준 (0~1)")
	cmd.Flags().StringVar(&f.method, "method", "historical", "VaR 방식 (historical, parametric)")
	return cmd
}

// printStat renders a scalar statistic or a VaR result
func printStat(name string, res interface{}) error {
	switch v := res.(type) {
	case float64:
		if jsonOutput {
			return printJSON(map[string]interface{}{"statistic": name, "value": jsonNumber(v)})
		}
		PrintHeader("Statistic")
		PrintKeyValue(name, formatValue(v), 12)
	case risk.VaRResult:
		if jsonOutput {
			return printJSON(v)
		}
		PrintHeader("Value at Risk")
		PrintKeyValue("Confidence", formatPercent(v.Confidence), 10)
		PrintKeyValue("VaR", formatPercent(v.VaR), 10)
		PrintKeyValue("CVaR", formatPercent(v.CVaR), 10)
		PrintKeyValue("Samples", fmt.Sprintf("%d", v.Samples), 10)
	default:
		return fmt.Errorf("unexpected result type %T", res)
	}
	return nil
}
