package commands

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/simulate"
	"github.com/wonny/fincal/internal/timeseries"
)

// sampleCmd represents the sample command
var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "샘플 가격 시계열 생성",
	Long: `GBM 또는 과거 수익률 부트스트랩으로 샘플 가격 시계열을 생성합니다.
--monte-carlo 를 주면 여러 경로의 총수익률 분포(VaR/CVaR, 분위수)를 요약합니다.

Flags:
  --method      gbm | bootstrap (bootstrap 은 --file/--url/--symbol 필요)
  --start       시작일 (YYYY-MM-DD)
  --periods     관측치 수
  --seed        재현성용 시드 (0=랜덤)

Example:
  go run ./cmd/fincal sample --periods 252 --seed 42 > sample.csv
  go run ./cmd/fincal sample --method bootstrap --file nav.csv --monte-carlo --paths 5000`,
	RunE: runSample,
}

var (
	sampleInput      inputFlags
	sampleMethod     string
	sampleStart      string
	samplePeriods    int
	sampleFreq       string
	sampleSkip       bool
	sampleInitial    float64
	sampleDrift      float64
	sampleVol        float64
	sampleSeed       uint64
	sampleMonteCarlo bool
	samplePaths      int
	sampleConfidence float64
	sampleOut        string
)

func init() {
	rootCmd.AddCommand(sampleCmd)

	def := simulate.DefaultConfig()
	sampleInput.bind(sampleCmd, "", "부트스트랩 과거")
	sampleCmd.Flags().StringVar(&sampleMethod, "method", string(def.Method), "생성 방식 (gbm, bootstrap)")
	sampleCmd.Flags().StringVar(&sampleStart, "start", formatDate(def.Start), "시작일 (YYYY-MM-DD)")
	sampleCmd.Flags().IntVar(&samplePeriods, "periods", def.Periods, "관측치 수")
	sampleCmd.Flags().StringVar(&sampleFreq, "sample-freq", def.Frequency.Symbol, "생성 빈도 (D, W, M, Q, H, Y)")
	sampleCmd.Flags().BoolVar(&sampleSkip, "skip-weekends", def.SkipWeekends, "일별 생성 시 주말 제외")
	sampleCmd.Flags().Float64Var(&sampleInitial, "initial", def.Initial, "시작 가격")
	sampleCmd.Flags().Float64Var(&sampleDrift, "drift", def.Drift, "연간 기대수익률 (GBM)")
	sampleCmd.Flags().Float64Var(&sampleVol, "volatility", def.Volatility, "연간 변동성 (GBM)")
	sampleCmd.Flags().Uint64Var(&sampleSeed, "seed", 0, "랜덤 시드 (0=랜덤)")
	sampleCmd.Flags().BoolVar(&sampleMonteCarlo, "monte-carlo", false, "Monte Carlo 요약 출력")
	sampleCmd.Flags().IntVar(&samplePaths, "paths", def.Paths, "Monte Carlo 경로 수")
	sampleCmd.Flags().Float64Var(&sampleConfidence, "confidence", def.Confidence, "VaR 신뢰수준")
	sampleCmd.Flags().StringVar(&sampleOut, "out", "", "CSV 출력 파일 (기본: stdout)")
}

func sampleConfig() (simulate.Config, error) {
	cfg := simulate.DefaultConfig()
	start, err := calendar.Parse(sampleStart, "2006-01-02")
	if err != nil {
		return cfg, fmt.Errorf("--start: %w", err)
	}
	freq, err := calendar.FrequencyFor(sampleFreq)
	if err != nil {
		return cfg, err
	}

	cfg.Method = simulate.Method(sampleMethod)
	cfg.Start = start
	cfg.Periods = samplePeriods
	cfg.Frequency = freq
	cfg.SkipWeekends = sampleSkip
	cfg.Initial = sampleInitial
	cfg.Drift = sampleDrift
	cfg.Volatility = sampleVol
	cfg.Seed = sampleSeed
	cfg.Paths = samplePaths
	cfg.Confidence = sampleConfidence
	return cfg, cfg.Validate()
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	simCfg, err := sampleConfig()
	if err != nil {
		return err
	}

	var history *timeseries.TimeSeries
	if simCfg.Method == simulate.MethodBootstrap {
		if history, err = sampleInput.load(cmd.Context(), cfg, log); err != nil {
			return err
		}
	}

	sim, err := simulate.New(simCfg, log)
	if err != nil {
		return err
	}

	if sampleMonteCarlo {
		summary, err := sim.MonteCarlo(cmd.Context(), history)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(summary)
		}
		printSummary(summary)
		return nil
	}

	run, err := sim.Generate(cmd.Context(), history)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]interface{}{
			"id":     run.ID,
			"config": run.Config,
			"series": jsonPoints(run.Series.Pairs()),
		})
	}
	return writeSampleCSV(run.Series)
}

func writeSampleCSV(ts *timeseries.TimeSeries) error {
	out := os.Stdout
	if sampleOut != "" {
		f, err := os.Create(sampleOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"date", "value"}); err != nil {
		return err
	}
	for _, p := range ts.Pairs() {
		if err := w.Write([]string{formatDate(p.Date), strconv.FormatFloat(p.Value, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func printSummary(s *simulate.Summary) {
	PrintHeader("Monte Carlo Summary")
	PrintKeyValue("Run ID", s.RunID, 12)
	PrintKeyValue("Method", string(s.Config.Method), 12)
	PrintKeyValue("Paths", strconv.Itoa(s.Config.Paths), 12)
	PrintKeyValue("Periods", strconv.Itoa(s.Config.Periods), 12)
	PrintKeyValue("Mean return", formatPercent(s.MeanReturn), 12)
	PrintKeyValue("Std dev", formatPercent(s.StdDev), 12)
	PrintKeyValue("VaR", formatPercent(s.Risk.VaR), 12)
	PrintKeyValue("CVaR", formatPercent(s.Risk.CVaR), 12)
	PrintSeparator()

	widths := []int{10, 12}
	PrintTableHeader([]string{"level", "return"}, widths)
	for _, p := range s.Percentiles {
		PrintTableRow([]string{formatPercent(p.Level), formatPercent(p.Return)}, widths)
	}
}
