package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/timeseries"
)

// =============================================================================
// returns
// =============================================================================

var returnsCmd = &cobra.Command{
	Use:   "returns",
	Short: "기간 수익률",
	Long: `기준일(as-on)로 끝나는 한 기간의 수익률을 계산합니다.
1년보다 긴 기간은 기본적으로 연율화(복리)됩니다.

Example:
  go run ./cmd/fincal returns --file nav.csv
  go run ./cmd/fincal returns --file nav.csv --as-on 2023-12-29 --period 3
  go run ./cmd/fincal returns --file nav.csv --period 6 --period-unit months --compounding off`,
	RunE: runReturns,
}

var (
	returnsInput  inputFlags
	returnsParams returnFlags
	returnsAsOn   string
)

// =============================================================================
// rolling
// =============================================================================

var rollingCmd = &cobra.Command{
	Use:   "rolling",
	Short: "롤링 수익률",
	Long: `구간(--from ~ --to)의 각 기준일마다 수익률을 계산합니다.

Example:
  go run ./cmd/fincal rolling --file nav.csv --rolling-freq M
  go run ./cmd/fincal rolling --file nav.csv --from 2022-01-01 --to 2023-12-31`,
	RunE: runRolling,
}

var (
	rollingInput  inputFlags
	rollingParams returnFlags
)

// =============================================================================
// volatility
// =============================================================================

var volatilityCmd = &cobra.Command{
	Use:   "volatility",
	Short: "변동성",
	Long: `롤링 수익률의 표본 표준편차를 계산합니다. 기본적으로 연율화합니다.

Example:
  go run ./cmd/fincal volatility --file nav.csv --period 1 --period-unit days
  go run ./cmd/fincal volatility --file nav.csv --traded-days 252 --annualize=false`,
	RunE: runVolatility,
}

var (
	volatilityInput     inputFlags
	volatilityParams    returnFlags
	volatilityAnnualize bool
	volatilityTraded    int
)

// =============================================================================
// drawdown
// =============================================================================

var drawdownCmd = &cobra.Command{
	Use:   "drawdown",
	Short: "최대낙폭 (MDD)",
	Long: `고점 대비 최대 하락률과 고점/저점 날짜를 계산합니다.

Example:
  go run ./cmd/fincal drawdown --file nav.csv`,
	RunE: runDrawdown,
}

var drawdownInput inputFlags

func init() {
	rootCmd.AddCommand(returnsCmd, rollingCmd, volatilityCmd, drawdownCmd)

	returnsInput.bind(returnsCmd, "", "입력")
	returnsParams.bind(returnsCmd, calendar.Years)
	returnsCmd.Flags().StringVar(&returnsAsOn, "as-on", "", "기준일 (기본: 마지막 날짜)")

	rollingInput.bind(rollingCmd, "", "입력")
	rollingParams.bind(rollingCmd, calendar.Years)

	volatilityInput.bind(volatilityCmd, "", "입력")
	volatilityParams.bind(volatilityCmd, calendar.Days)
	volatilityCmd.Flags().BoolVar(&volatilityAnnualize, "annualize", true, "연율화")
	volatilityCmd.Flags().IntVar(&volatilityTraded, "traded-days", 0, "연간 거래일 수 (기본: options traded_days)")

	drawdownInput.bind(drawdownCmd, "", "입력")
}

func runReturns(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	p, err := returnsParams.returnParams()
	if err != nil {
		return err
	}
	asOn, err := parseDateFlag("as-on", returnsAsOn)
	if err != nil {
		return err
	}

	ts, err := returnsInput.load(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	if asOn.IsZero() {
		asOn = ts.EndDate()
	}

	res, err := ts.CalculateReturns(asOn, p)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(jsonPoint{Date: formatDate(res.Date), Value: jsonNumber(res.Value)})
	}
	PrintHeader("Returns")
	PrintKeyValue("Period", p.Period().String(), 8)
	PrintKeyValue("As on", formatDate(res.Date), 8)
	PrintKeyValue("Return", formatPercent(res.Value), 8)
	return nil
}

func runRolling(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	sp, err := rollingParams.statParams(0)
	if err != nil {
		return err
	}

	ts, err := rollingInput.load(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	from, to := sp.From, sp.To
	if from.IsZero() {
		from = sp.Period().Apply(ts.StartDate())
	}
	if to.IsZero() {
		to = ts.EndDate()
	}

	rolling, err := ts.RollingReturns(from, to, timeseries.RollingParams{ReturnParams: sp.ReturnParams, Frequency: sp.Frequency})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(jsonPoints(rolling.Pairs()))
	}
	PrintHeader("Rolling Returns (" + sp.Period().String() + ")")
	PrintPairs(rolling.Pairs(), "return")
	return nil
}

func runVolatility(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	rp, err := volatilityParams.returnParams()
	if err != nil {
		return err
	}
	freq, err := volatilityParams.frequency()
	if err != nil {
		return err
	}
	from, to, err := volatilityParams.window()
	if err != nil {
		return err
	}

	ts, err := volatilityInput.load(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	vol, err := ts.Volatility(timeseries.VolatilityParams{
		From:         from,
		To:           to,
		Annualize:    volatilityAnnualize,
		TradedDays:   volatilityTraded,
		Frequency:    freq,
		ReturnParams: rp,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{"volatility": jsonNumber(vol)})
	}
	PrintHeader("Volatility")
	PrintKeyValue("Period", rp.Period().String(), 10)
	PrintKeyValue("Annualized", formatBool(volatilityAnnualize), 10)
	PrintKeyValue("Volatility", formatPercent(vol), 10)
	return nil
}

func runDrawdown(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	ts, err := drawdownInput.load(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	dd, err := ts.MaxDrawdown()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{
			"start_date": formatDate(dd.StartDate),
			"end_date":   formatDate(dd.EndDate),
			"drawdown":   jsonNumber(dd.Drawdown),
		})
	}
	PrintHeader("Max Drawdown")
	PrintKeyValue("Peak", formatDate(dd.StartDate), 8)
	PrintKeyValue("Trough", formatDate(dd.EndDate), 8)
	PrintKeyValue("Drawdown", formatPercent(dd.Drawdown), 8)
	return nil
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
