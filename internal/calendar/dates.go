package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/pkg/config"
)

// =============================================================================
// Day-granularity dates
// =============================================================================

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a day-granularity date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// EndOfMonth returns the last calendar day of t's month.
func EndOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return Date(y, m, DaysIn(y, m))
}

// IsEndOfMonth reports whether t is the last day of its month.
func IsEndOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsEOMonthSeries reports whether more than threshold of dates are month
// ends. A threshold <= 0 uses 0.7.
func IsEOMonthSeries(dates []time.Time, threshold float64) bool {
	if len(dates) == 0 {
		return false
	}
	if threshold <= 0 {
		threshold = 0.7
	}
	n := 0
	for _, d := range dates {
		if IsEndOfMonth(d) {
			n++
		}
	}
	return float64(n)/float64(len(dates)) > threshold
}

// =============================================================================
// Offsets (relative-delta semantics)
// =============================================================================

// Offset is a calendar offset. Years and months are applied first with the
// day clamped to the end of the target month (Jan 31 + 1 month = Feb 28),
// then days.
type Offset struct {
	Years  int
	Months int
	Days   int
}

// OffsetFor builds an offset of value units.
func OffsetFor(unit Unit, value int) Offset {
	switch unit {
	case Years:
		return Offset{Years: value}
	case Months:
		return Offset{Months: value}
	default:
		return Offset{Days: value}
	}
}

// Neg returns the opposite offset.
func (o Offset) Neg() Offset {
	return Offset{Years: -o.Years, Months: -o.Months, Days: -o.Days}
}

// IsZero reports whether the offset moves nothing.
func (o Offset) IsZero() bool {
	return o.Years == 0 && o.Months == 0 && o.Days == 0
}

// Apply shifts t by the offset.
func (o Offset) Apply(t time.Time) time.Time {
	if months := o.Years*12 + o.Months; months != 0 {
		y, m, d := t.Date()
		total := int(m) - 1 + months
		ny := y + floorDiv(total, 12)
		nm := time.Month(total - floorDiv(total, 12)*12 + 1)
		if last := DaysIn(ny, nm); d > last {
			d = last
		}
		t = time.Date(ny, nm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	}
	if o.Days != 0 {
		t = t.AddDate(0, 0, o.Days)
	}
	return t
}

func (o Offset) String() string {
	var parts []string
	if o.Years != 0 {
		parts = append(parts, fmt.Sprintf("%dy", o.Years))
	}
	if o.Months != 0 {
		parts = append(parts, fmt.Sprintf("%dm", o.Months))
	}
	if o.Days != 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dd", o.Days))
	}
	return strings.Join(parts, "")
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// YearsEquivalent converts a period to fractional years
// (months ÷ 12, days ÷ 365).
func YearsEquivalent(unit Unit, value int) float64 {
	switch unit {
	case Years:
		return float64(value)
	case Months:
		return float64(value) / 12
	default:
		return float64(value) / 365
	}
}

// =============================================================================
// Parsing
// =============================================================================

// Parse parses s with a strftime-style format ("%Y-%m-%d") or, when the
// format has no '%', a Go layout. Month and day accept one or two digits.
// An empty format uses the process-wide default. Failures wrap ErrParse.
func Parse(s, format string) (time.Time, error) {
	if format == "" {
		format = config.Defaults().DateFormat
	}
	s = strings.TrimSpace(s)

	var t time.Time
	var err error
	if strings.Contains(format, "%") {
		t, err = strftime.Parse(format, s)
		if err != nil {
			t, err = parseUnpadded(format, s)
		}
	} else {
		t, err = time.Parse(format, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q does not match format %q", contracts.ErrParse, s, format)
	}
	return Day(t), nil
}

// parseUnpadded retries with the numeric month and day of the layout
// relaxed to "1" and "2", which read one or two digits.
func parseUnpadded(format, s string) (time.Time, error) {
	layout, err := strftime.Layout(format)
	if err != nil {
		return time.Time{}, err
	}
	if strings.Contains(layout, "002") {
		return time.Time{}, fmt.Errorf("day of year %q has no unpadded form", layout)
	}
	return time.Parse(strings.NewReplacer("01", "1", "02", "2").Replace(layout), s)
}

// Format renders t with a strftime-style format or a Go layout.
func Format(t time.Time, format string) string {
	if format == "" {
		format = config.Defaults().DateFormat
	}
	if !strings.Contains(format, "%") {
		return t.Format(format)
	}
	return strftime.Format(format, t)
}

// ToDate coerces a date-like value (string, time.Time, *time.Time) to a
// day-granularity date.
func ToDate(v any, format string) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return Day(d), nil
	case *time.Time:
		if d == nil {
			return time.Time{}, fmt.Errorf("%w: nil date", contracts.ErrParse)
		}
		return Day(*d), nil
	case string:
		return Parse(d, format)
	case fmt.Stringer:
		return Parse(d.String(), format)
	default:
		return time.Time{}, fmt.Errorf("%w: %T is not a date-like value", contracts.ErrParse, v)
	}
}

// ToDates coerces every element with ToDate.
func ToDates(values []any, format string) ([]time.Time, error) {
	out := make([]time.Time, len(values))
	for i, v := range values {
		d, err := ToDate(v, format)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
