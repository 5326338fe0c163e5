package calendar

import (
	"fmt"
	"time"

	"github.com/wonny/fincal/internal/contracts"
)

// GenerateOptions tune Generate.
type GenerateOptions struct {
	// EOMonth snaps every date to its month end (monthly or coarser only)
	EOMonth bool
	// SkipWeekends drops Saturdays and Sundays (daily only)
	SkipWeekends bool
	// EnsureCoverage moves a weekend end date to the following Monday
	// (daily with SkipWeekends only)
	EnsureCoverage bool
}

// Generate returns the ascending dates from start to end at freq.
//
// The number of candidate periods is floor(days/ApproxDays)+1 and date i is
// start shifted by i*Step units, so month-stepped series never drift after
// a clamped month end. Dates after end are dropped. Weekend dates of
// frequencies coarser than daily are kept as they are.
func Generate(start, end time.Time, freq Frequency, opts GenerateOptions) ([]time.Time, error) {
	if freq.IsZero() {
		return nil, fmt.Errorf("%w: frequency is required", contracts.ErrValidation)
	}
	if opts.EOMonth && freq.ApproxDays < Monthly.ApproxDays {
		return nil, fmt.Errorf("%w: eomonth cannot be used with a frequency higher than %s (got %s)",
			contracts.ErrValidation, Monthly.Name, freq.Name)
	}

	start, end = Day(start), Day(end)
	skipWeekends := opts.SkipWeekends && freq.Unit == Days && freq.Step == 1

	if opts.EnsureCoverage && skipWeekends {
		switch end.Weekday() {
		case time.Saturday:
			end = end.AddDate(0, 0, 2)
		case time.Sunday:
			end = end.AddDate(0, 0, 1)
		}
	}

	if start.After(end) {
		return []time.Time{}, nil
	}

	periods := DaysBetween(start, end)/freq.ApproxDays + 1
	dates := make([]time.Time, 0, periods)
	for i := 0; i < periods; i++ {
		d := freq.Offset(i).Apply(start)
		if opts.EOMonth {
			d = EndOfMonth(d)
		}
		if d.After(end) {
			continue
		}
		if skipWeekends && IsWeekend(d) {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}
