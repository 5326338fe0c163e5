package timeseries

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
)

// FillMethod picks the direction missing values are taken from.
type FillMethod string

const (
	FillForward  FillMethod = "ffill"
	FillBackward FillMethod = "bfill"
)

// ParseFillMethod validates a fill method string.
func ParseFillMethod(s string) (FillMethod, error) {
	switch m := FillMethod(s); m {
	case FillForward, FillBackward:
		return m, nil
	default:
		return "", fmt.Errorf("%w: invalid fill method %q: must be ffill or bfill", contracts.ErrValidation, s)
	}
}

func (m FillMethod) match() contracts.Match {
	if m == FillBackward {
		return contracts.MatchNext
	}
	return contracts.MatchPrevious
}

// DefaultFillLimit is the fill limit used when FillParams.Limit <= 0.
const DefaultFillLimit = 1000

// FillParams tune FFill and BFill.
type FillParams struct {
	// Limit is the longest run of consecutive missing periods filled
	Limit        int
	SkipWeekends bool
	EOMonth      bool
}

// FFill fills dates missing at the container's frequency with the last
// known value.
func (ts *TimeSeries) FFill(p FillParams) (*TimeSeries, error) {
	dates, err := ts.fillDates(p)
	if err != nil {
		return nil, err
	}
	return ts.fill(dates, p.limit()), nil
}

// BFill fills dates missing at the container's frequency with the next
// known value.
func (ts *TimeSeries) BFill(p FillParams) (*TimeSeries, error) {
	dates, err := ts.fillDates(p)
	if err != nil {
		return nil, err
	}
	if n := len(dates); n == 0 || !dates[n-1].Equal(ts.EndDate()) {
		dates = append(dates, ts.EndDate())
	}
	slices.Reverse(dates)
	out := ts.fill(dates, p.limit())
	slices.Reverse(out.dates)
	slices.Reverse(out.values)
	out.reindex()
	return out, nil
}

func (p FillParams) limit() int {
	if p.Limit <= 0 {
		return DefaultFillLimit
	}
	return p.Limit
}

func (ts *TimeSeries) fillDates(p FillParams) ([]time.Time, error) {
	if ts.Len() == 0 {
		return nil, nil
	}
	return calendar.Generate(ts.StartDate(), ts.EndDate(), ts.freq, calendar.GenerateOptions{
		EOMonth:      p.EOMonth,
		SkipWeekends: p.SkipWeekends,
	})
}

// fill walks dates in the given order carrying the last seen value for at
// most limit consecutive gaps.
func (ts *TimeSeries) fill(dates []time.Time, limit int) *TimeSeries {
	var (
		out     []time.Time
		values  []float64
		current float64
		seen    bool
		gap     int
	)
	for _, d := range dates {
		if v, ok := ts.Lookup(d); ok {
			current, seen, gap = v, true, 0
		} else {
			if !seen || gap >= limit {
				continue
			}
			gap++
		}
		out = append(out, d)
		values = append(values, current)
	}
	return ts.derive(out, values, ts.freq)
}

// =============================================================================
// Resampling
// =============================================================================

// ResampleParams tune Expand and Shrink.
type ResampleParams struct {
	Method       FillMethod
	SkipWeekends bool
	EOMonth      bool
}

// Expand resamples to a finer frequency, taking each new date's value from
// the previous (ffill) or next (bfill) observation.
func (ts *TimeSeries) Expand(to calendar.Frequency, p ResampleParams) (*TimeSeries, error) {
	if to.ApproxDays >= ts.freq.ApproxDays {
		return nil, fmt.Errorf("%w: can only expand to a higher frequency than %s (got %s)",
			contracts.ErrValidation, ts.freq.Name, to.Name)
	}
	return ts.resample(to, p)
}

// Shrink resamples to a coarser frequency.
func (ts *TimeSeries) Shrink(to calendar.Frequency, p ResampleParams) (*TimeSeries, error) {
	if to.ApproxDays <= ts.freq.ApproxDays {
		return nil, fmt.Errorf("%w: can only shrink to a lower frequency than %s (got %s)",
			contracts.ErrValidation, ts.freq.Name, to.Name)
	}
	return ts.resample(to, p)
}

// resample drops generated dates that fall outside what the fill
// direction can reach (e.g. a bfill date after the last observation).
func (ts *TimeSeries) resample(to calendar.Frequency, p ResampleParams) (*TimeSeries, error) {
	method := p.Method
	if method == "" {
		method = FillForward
	}
	if _, err := ParseFillMethod(string(method)); err != nil {
		return nil, err
	}
	if ts.Len() == 0 {
		return ts.derive(nil, nil, to), nil
	}

	dates, err := calendar.Generate(ts.StartDate(), ts.EndDate(), to, calendar.GenerateOptions{
		EOMonth:        p.EOMonth,
		SkipWeekends:   p.SkipWeekends,
		EnsureCoverage: true,
	})
	if err != nil {
		return nil, err
	}

	var (
		out    []time.Time
		values []float64
	)
	for _, d := range dates {
		pair, err := ts.resolve(d, -1, method.match(), contracts.FailRaise)
		if err != nil {
			if errors.Is(err, contracts.ErrOutOfRange) {
				continue
			}
			return nil, err
		}
		out = append(out, d)
		values = append(values, pair.Value)
	}
	return ts.derive(out, values, to), nil
}

// Sync returns other aligned to ts: other is first resampled to ts's
// frequency, then each date of ts takes other's value at that date or the
// closest one in the fill direction.
func (ts *TimeSeries) Sync(other *TimeSeries, method FillMethod) (*TimeSeries, error) {
	if other == nil {
		return nil, fmt.Errorf("%w: sync requires a time series", contracts.ErrType)
	}
	if method == "" {
		method = FillForward
	}
	if _, err := ParseFillMethod(string(method)); err != nil {
		return nil, err
	}

	var err error
	switch {
	case ts.freq.HigherThan(other.freq):
		other, err = other.Expand(ts.freq, ResampleParams{Method: method})
	case ts.freq.LowerThan(other.freq):
		other, err = other.Shrink(ts.freq, ResampleParams{Method: method})
	}
	if err != nil {
		return nil, err
	}

	values := make([]float64, ts.Len())
	for i, d := range ts.dates {
		p, err := other.resolve(d, -1, method.match(), contracts.FailRaise)
		if err != nil {
			return nil, fmt.Errorf("sync %s: %w", d.Format("2006-01-02"), err)
		}
		values[i] = p.Value
	}
	return ts.derive(slices.Clone(ts.dates), values, ts.freq), nil
}
