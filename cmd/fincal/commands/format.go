package commands

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/wonny/fincal/internal/timeseries"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted command header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintPairs prints observations as a date/value table
func PrintPairs(pairs []timeseries.Pair, valueHeader string) {
	widths := []int{12, 16}
	PrintTableHeader([]string{"date", valueHeader}, widths)
	for _, p := range pairs {
		PrintTableRow([]string{formatDate(p.Date), formatValue(p.Value)}, widths)
	}
}

// printJSON writes v to stdout as indented JSON
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.6f", v)
}

func formatPercent(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

// jsonNumber maps NaN and ±Inf, which JSON cannot carry, to null
func jsonNumber(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type jsonPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

func jsonPoints(pairs []timeseries.Pair) []jsonPoint {
	out := make([]jsonPoint, len(pairs))
	for i, p := range pairs {
		out[i] = jsonPoint{Date: formatDate(p.Date), Value: jsonNumber(p.Value)}
	}
	return out
}
