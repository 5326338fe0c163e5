package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "시계열 요약",
	Long: `시계열을 읽어 기간, 관측치 수, 평균, 처음/마지막 값을 표시합니다.

Example:
  go run ./cmd/fincal info --file nav.csv
  go run ./cmd/fincal info --symbol 005930 --freq D --rows 10`,
	RunE: runInfo,
}

var (
	infoInput inputFlags
	infoRows  int
)

func init() {
	rootCmd.AddCommand(infoCmd)

	infoInput.bind(infoCmd, "", "입력")
	infoCmd.Flags().IntVar(&infoRows, "rows", 6, "처음/마지막 표시 행 수")
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	ts, err := infoInput.load(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{
			"frequency":  ts.Frequency().Symbol,
			"start_date": formatDate(ts.StartDate()),
			"end_date":   formatDate(ts.EndDate()),
			"rows":       ts.Len(),
			"mean":       jsonNumber(ts.Mean()),
			"head":       jsonPoints(ts.Head(infoRows).Pairs()),
			"tail":       jsonPoints(ts.Tail(infoRows).Pairs()),
		})
	}

	PrintHeader("Series Info")
	PrintKeyValue("Frequency", ts.Frequency().Name, 10)
	PrintKeyValue("First date", formatDate(ts.StartDate()), 10)
	PrintKeyValue("Last date", formatDate(ts.EndDate()), 10)
	PrintKeyValue("Rows", strconv.Itoa(ts.Len()), 10)
	PrintKeyValue("Mean", formatValue(ts.Mean()), 10)
	PrintSeparator()

	fmt.Println("Head")
	PrintPairs(ts.Head(infoRows).Pairs(), "value")
	fmt.Println()
	fmt.Println("Tail")
	PrintPairs(ts.Tail(infoRows).Pairs(), "value")
	return nil
}
