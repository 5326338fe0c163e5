package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
)

// Bounds are the first and last dates present in a Lookup.
type Bounds struct {
	Min time.Time
	Max time.Time
}

// ResolveClosest finds target in l, walking one day at a time in the
// direction of step (-1 previous, +1 next) until a present date is found or
// maxSteps days have been tried. maxSteps < 0 removes the limit; maxSteps 0
// or step 0 tries only the exact date.
//
// Searching backward from before b.Min (or forward from after b.Max) fails
// with a *DateOutOfRangeError. On exhaustion the result depends on
// onFailure: FailNaN returns (target, NaN), anything else a
// *DateNotFoundError naming target.
func ResolveClosest(l contracts.Lookup, b Bounds, target time.Time, maxSteps, step int, onFailure contracts.FailurePolicy) (Pair, error) {
	target = calendar.Day(target)
	if step < 0 {
		step = -1
	} else if step > 0 {
		step = 1
	}

	if l.Len() > 0 {
		if step < 0 && target.Before(b.Min) {
			return Pair{}, &contracts.DateOutOfRangeError{Date: target, Bound: contracts.BoundMin}
		}
		if step > 0 && target.After(b.Max) {
			return Pair{}, &contracts.DateOutOfRangeError{Date: target, Bound: contracts.BoundMax}
		}
	}

	d := target
	for remaining := maxSteps; ; remaining-- {
		if v, ok := l.Lookup(d); ok {
			return Pair{Date: d, Value: v}, nil
		}
		if step == 0 || remaining == 0 || l.Len() == 0 {
			break
		}
		d = d.AddDate(0, 0, step)
		// present bounds guarantee a hit before walking past them
		if (step < 0 && d.Before(b.Min)) || (step > 0 && d.After(b.Max)) {
			break
		}
	}

	if onFailure == contracts.FailNaN {
		return Pair{Date: target, Value: math.NaN()}, nil
	}
	return Pair{}, &contracts.DateNotFoundError{Date: target, Message: "no data within the allowed search window"}
}

// resolve is ResolveClosest over ts.
func (ts *TimeSeries) resolve(target time.Time, maxSteps int, m contracts.Match, onFailure contracts.FailurePolicy) (Pair, error) {
	p, err := ResolveClosest(ts, ts.bounds(), target, maxSteps, m.Step(), onFailure)
	if err == nil && !p.Date.Equal(calendar.Day(target)) {
		ts.logger().Debugf("resolved %s to %s (%s)", target.Format("2006-01-02"), p.Date.Format("2006-01-02"), m)
	}
	return p, err
}

// =============================================================================
// Get
// =============================================================================

func (ts *TimeSeries) getMatch(closest contracts.Match) (contracts.Match, error) {
	def, err := contracts.ParseMatch(ts.Options().GetClosest)
	if err != nil {
		return "", err
	}
	m := closest.Resolve(def)
	if _, err := contracts.ParseMatch(string(m)); err != nil {
		return "", err
	}
	if m == contracts.MatchClosest {
		return "", fmt.Errorf("%w: default get policy cannot be closest", contracts.ErrValidation)
	}
	return m, nil
}

// Get looks up date. closest selects exact, previous or next matching;
// "" or "closest" uses the configured GetClosest default. A miss returns
// ok == false. Searching past the data bounds is an error.
func (ts *TimeSeries) Get(date time.Time, closest contracts.Match) (Pair, bool, error) {
	m, err := ts.getMatch(closest)
	if err != nil {
		return Pair{}, false, err
	}
	p, err := ts.resolve(date, -1, m, contracts.FailRaise)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			return Pair{}, false, nil
		}
		return Pair{}, false, err
	}
	return p, true, nil
}

// GetOr is Get returning (date, def) on a miss.
func (ts *TimeSeries) GetOr(date time.Time, def float64, closest contracts.Match) (Pair, error) {
	p, ok, err := ts.Get(date, closest)
	if err != nil {
		return Pair{}, err
	}
	if !ok {
		return Pair{Date: calendar.Day(date), Value: def}, nil
	}
	return p, nil
}

// GetStrict is Get failing with ErrNotFound on a miss.
func (ts *TimeSeries) GetStrict(date time.Time, closest contracts.Match) (Pair, error) {
	p, ok, err := ts.Get(date, closest)
	if err != nil {
		return Pair{}, err
	}
	if !ok {
		return Pair{}, &contracts.DateNotFoundError{Date: calendar.Day(date)}
	}
	return p, nil
}
