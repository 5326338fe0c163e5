package timeseries

import (
	"fmt"
	"strings"
)

// String renders a preview: every row for short containers, otherwise the
// first and last three rows around an ellipsis.
func (ts *TimeSeries) String() string {
	const half = DefaultPreview / 2

	rows := make([]string, 0, DefaultPreview+1)
	if ts.Len() > DefaultPreview {
		for i := 0; i < half; i++ {
			rows = append(rows, Pair{Date: ts.dates[i], Value: ts.values[i]}.String())
		}
		rows = append(rows, "...")
		for i := ts.Len() - half; i < ts.Len(); i++ {
			rows = append(rows, Pair{Date: ts.dates[i], Value: ts.values[i]}.String())
		}
	} else {
		for i := range ts.dates {
			rows = append(rows, Pair{Date: ts.dates[i], Value: ts.values[i]}.String())
		}
	}
	return fmt.Sprintf("TimeSeries([%s], frequency=%q)", strings.Join(rows, ",\n\t"), ts.freq.Symbol)
}
