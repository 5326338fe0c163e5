package series

import (
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
)

// Kind is the declared element type of a Series.
type Kind int

const (
	KindDate Kind = iota
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Series is an ordered, homogeneous sequence of dates, numbers or bools.
// Every operation returns a new Series.
type Series struct {
	kind  Kind
	dates []time.Time
	nums  []float64
	bools []bool
}

// =============================================================================
// Constructors
// =============================================================================

// Dates builds a date series. Times of day are discarded.
func Dates(values []time.Time) Series {
	out := make([]time.Time, len(values))
	for i, d := range values {
		out[i] = calendar.Day(d)
	}
	return Series{kind: KindDate, dates: out}
}

// Numbers builds a number series.
func Numbers(values []float64) Series {
	return Series{kind: KindNumber, nums: clone(values)}
}

// Bools builds a bool series.
func Bools(values []bool) Series {
	return Series{kind: KindBool, bools: clone(values)}
}

// ParseDates builds a date series from strings. An empty format uses the
// process-wide default.
func ParseDates(values []string, format string) (Series, error) {
	out := make([]time.Time, len(values))
	for i, s := range values {
		d, err := calendar.Parse(s, format)
		if err != nil {
			return Series{}, err
		}
		out[i] = d
	}
	return Series{kind: KindDate, dates: out}, nil
}

func clone[T any](values []T) []T {
	out := make([]T, len(values))
	copy(out, values)
	return out
}

// =============================================================================
// Access
// =============================================================================

// Kind returns the declared element type.
func (s Series) Kind() Kind {
	return s.kind
}

// Len returns the number of elements.
func (s Series) Len() int {
	switch s.kind {
	case KindDate:
		return len(s.dates)
	case KindNumber:
		return len(s.nums)
	default:
		return len(s.bools)
	}
}

func (s Series) position(i int) (int, error) {
	n := s.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: index %d out of range for series of length %d", contracts.ErrNotFound, i, n)
	}
	return i, nil
}

func (s Series) expect(k Kind) error {
	if s.kind != k {
		return fmt.Errorf("%w: %s series accessed as %s", contracts.ErrType, s.kind, k)
	}
	return nil
}

// DateAt returns element i of a date series. Negative i counts from the end.
func (s Series) DateAt(i int) (time.Time, error) {
	if err := s.expect(KindDate); err != nil {
		return time.Time{}, err
	}
	p, err := s.position(i)
	if err != nil {
		return time.Time{}, err
	}
	return s.dates[p], nil
}

// NumberAt returns element i of a number series.
func (s Series) NumberAt(i int) (float64, error) {
	if err := s.expect(KindNumber); err != nil {
		return 0, err
	}
	p, err := s.position(i)
	if err != nil {
		return 0, err
	}
	return s.nums[p], nil
}

// BoolAt returns element i of a bool series.
func (s Series) BoolAt(i int) (bool, error) {
	if err := s.expect(KindBool); err != nil {
		return false, err
	}
	p, err := s.position(i)
	if err != nil {
		return false, err
	}
	return s.bools[p], nil
}

// Slice returns elements [a, b) with slice-expression clamping: negative
// bounds count from the end, out-of-range bounds are clamped.
func (s Series) Slice(a, b int) Series {
	lo, hi := ClampRange(a, b, s.Len())
	switch s.kind {
	case KindDate:
		return Series{kind: KindDate, dates: clone(s.dates[lo:hi])}
	case KindNumber:
		return Series{kind: KindNumber, nums: clone(s.nums[lo:hi])}
	default:
		return Series{kind: KindBool, bools: clone(s.bools[lo:hi])}
	}
}

// ClampRange normalises [a, b) against length n the way slice expressions
// with negative indices do.
func ClampRange(a, b, n int) (int, int) {
	norm := func(i int) int {
		if i < 0 {
			i += n
		}
		return min(max(i, 0), n)
	}
	lo, hi := norm(a), norm(b)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// DateValues returns a copy of the elements of a date series (empty for
// other kinds).
func (s Series) DateValues() []time.Time {
	return clone(s.dates)
}

// NumberValues returns a copy of the elements of a number series.
func (s Series) NumberValues() []float64 {
	return clone(s.nums)
}

// BoolValues returns a copy of the elements of a bool series.
func (s Series) BoolValues() []bool {
	return clone(s.bools)
}

// Sum adds up a number series.
func (s Series) Sum() (float64, error) {
	if err := s.expect(KindNumber); err != nil {
		return 0, err
	}
	return floats.Sum(s.nums), nil
}

// Mean averages a number series. An empty series has a NaN mean.
func (s Series) Mean() (float64, error) {
	if err := s.expect(KindNumber); err != nil {
		return 0, err
	}
	return stat.Mean(s.nums, nil), nil
}

// CountTrue counts the true elements of a bool series (0 for other kinds).
func (s Series) CountTrue() int {
	n := 0
	for _, b := range s.bools {
		if b {
			n++
		}
	}
	return n
}

func (s Series) String() string {
	items := make([]string, s.Len())
	for i := range items {
		switch s.kind {
		case KindDate:
			items[i] = s.dates[i].Format("2006-01-02")
		case KindNumber:
			items[i] = fmt.Sprintf("%g", s.nums[i])
		default:
			items[i] = fmt.Sprintf("%t", s.bools[i])
		}
	}
	return fmt.Sprintf("Series([%s], kind=%s)", strings.Join(items, ", "), s.kind)
}
