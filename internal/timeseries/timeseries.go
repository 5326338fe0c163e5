package timeseries

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/series"
	"github.com/wonny/fincal/pkg/config"
	"github.com/wonny/fincal/pkg/logger"
)

// Pair is one (date, value) observation.
type Pair struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

func (p Pair) String() string {
	return fmt.Sprintf("(%s, %g)", p.Date.Format("2006-01-02"), p.Value)
}

// IsNaN reports whether the value is the NaN sentinel.
func (p Pair) IsNaN() bool {
	return math.IsNaN(p.Value)
}

// TimeSeries is an ordered date→value container with an attached frequency.
// Dates are unique, day-granular and kept in ascending order.
// ⭐ SSOT: 시계열 데이터는 항상 날짜 오름차순 + 중복 없음
type TimeSeries struct {
	dates  []time.Time
	values []float64
	pos    map[time.Time]int

	freq calendar.Frequency
	opts config.Options // explicit options; empty fields fall back to config.Defaults()
	log  *logger.Logger
}

var _ contracts.Lookup = (*TimeSeries)(nil)

// =============================================================================
// Construction
// =============================================================================

// Option configures New.
type Option func(*settings)

type settings struct {
	dateFormat string
	opts       config.Options
	log        *logger.Logger
}

// WithDateFormat sets the format used to parse string dates.
func WithDateFormat(format string) Option {
	return func(s *settings) { s.dateFormat = format }
}

// WithOptions attaches explicit options. Empty fields still fall back to
// the process-wide defaults.
func WithOptions(opts config.Options) Option {
	return func(s *settings) { s.opts = opts }
}

// WithLogger sets the logger used for construction warnings.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// New normalises input into a sorted, duplicate-free container.
// Duplicate dates keep the last occurrence and are reported as a warning.
func New(input Input, freq calendar.Frequency, opts ...Option) (*TimeSeries, error) {
	if freq.IsZero() {
		return nil, fmt.Errorf("%w: frequency is required", contracts.ErrValidation)
	}
	if input == nil {
		return nil, fmt.Errorf("%w: no input data", contracts.ErrParse)
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	format := s.dateFormat
	if format == "" {
		format = s.opts.Merge(config.Defaults()).DateFormat
	}

	pairs, err := input.normalize(format)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: input contains no observations", contracts.ErrParse)
	}

	ts := &TimeSeries{freq: freq, opts: s.opts, log: s.log}
	dupes := ts.load(pairs)
	if len(dupes) > 0 {
		names := make([]string, len(dupes))
		for i, d := range dupes {
			names[i] = d.Format("2006-01-02")
		}
		ts.logger().WithFields(map[string]interface{}{
			"duplicates": len(dupes),
			"dates":      names,
		}).Warn("input contains duplicate dates; the last value for each date was kept")
	}
	return ts, nil
}

// NewFromSymbol is New with the frequency given by symbol (D, W, M, Q, H, Y).
func NewFromSymbol(input Input, symbol string, opts ...Option) (*TimeSeries, error) {
	freq, err := calendar.FrequencyFor(symbol)
	if err != nil {
		return nil, err
	}
	return New(input, freq, opts...)
}

// load sorts pairs (stable, so later occurrences stay later), collapses
// duplicates keeping the last one and returns the duplicated dates.
func (ts *TimeSeries) load(pairs []Pair) []time.Time {
	sorted := make([]Pair, len(pairs))
	for i, p := range pairs {
		sorted[i] = Pair{Date: calendar.Day(p.Date), Value: p.Value}
	}
	slices.SortStableFunc(sorted, func(a, b Pair) int { return a.Date.Compare(b.Date) })

	var dupes []time.Time
	ts.dates = make([]time.Time, 0, len(sorted))
	ts.values = make([]float64, 0, len(sorted))
	for _, p := range sorted {
		if n := len(ts.dates); n > 0 && ts.dates[n-1].Equal(p.Date) {
			ts.values[n-1] = p.Value
			if len(dupes) == 0 || !dupes[len(dupes)-1].Equal(p.Date) {
				dupes = append(dupes, p.Date)
			}
			continue
		}
		ts.dates = append(ts.dates, p.Date)
		ts.values = append(ts.values, p.Value)
	}
	ts.reindex()
	return dupes
}

func (ts *TimeSeries) reindex() {
	ts.pos = make(map[time.Time]int, len(ts.dates))
	for i, d := range ts.dates {
		ts.pos[d] = i
	}
}

// derive builds a container sharing ts's frequency, options and logger from
// already sorted, unique pairs.
func (ts *TimeSeries) derive(dates []time.Time, values []float64, freq calendar.Frequency) *TimeSeries {
	out := &TimeSeries{
		dates:  dates,
		values: values,
		freq:   freq,
		opts:   ts.opts,
		log:    ts.log,
	}
	out.reindex()
	return out
}

// Clone returns an independent copy.
func (ts *TimeSeries) Clone() *TimeSeries {
	return ts.derive(slices.Clone(ts.dates), slices.Clone(ts.values), ts.freq)
}

func (ts *TimeSeries) logger() *logger.Logger {
	if ts.log != nil {
		return ts.log
	}
	return logger.Default()
}

// Options returns the effective options (explicit values over the
// process-wide defaults).
func (ts *TimeSeries) Options() config.Options {
	return ts.opts.Merge(config.Defaults())
}

// =============================================================================
// Read access
// =============================================================================

// Len returns the number of observations.
func (ts *TimeSeries) Len() int {
	return len(ts.dates)
}

// Frequency returns the attached frequency.
func (ts *TimeSeries) Frequency() calendar.Frequency {
	return ts.freq
}

// Dates returns the dates as a date Series.
func (ts *TimeSeries) Dates() series.Series {
	return series.Dates(ts.dates)
}

// Values returns the values as a number Series.
func (ts *TimeSeries) Values() series.Series {
	return series.Numbers(ts.values)
}

// StartDate returns the first date (zero time when empty).
func (ts *TimeSeries) StartDate() time.Time {
	if len(ts.dates) == 0 {
		return time.Time{}
	}
	return ts.dates[0]
}

// EndDate returns the last date (zero time when empty).
func (ts *TimeSeries) EndDate() time.Time {
	if len(ts.dates) == 0 {
		return time.Time{}
	}
	return ts.dates[len(ts.dates)-1]
}

// Pairs returns a copy of the observations in date order.
func (ts *TimeSeries) Pairs() []Pair {
	out := make([]Pair, len(ts.dates))
	for i := range ts.dates {
		out[i] = Pair{Date: ts.dates[i], Value: ts.values[i]}
	}
	return out
}

// Contains reports whether date is present (time of day ignored).
func (ts *TimeSeries) Contains(date time.Time) bool {
	_, ok := ts.pos[calendar.Day(date)]
	return ok
}

// Lookup returns the value stored for date.
func (ts *TimeSeries) Lookup(date time.Time) (float64, bool) {
	i, ok := ts.pos[calendar.Day(date)]
	if !ok {
		return 0, false
	}
	return ts.values[i], true
}

// All iterates in ascending date order. Each range statement starts over
// from the first observation.
func (ts *TimeSeries) All() iter.Seq2[time.Time, float64] {
	return func(yield func(time.Time, float64) bool) {
		for i := range ts.dates {
			if !yield(ts.dates[i], ts.values[i]) {
				return
			}
		}
	}
}

// Mean returns the mean value (NaN when empty).
func (ts *TimeSeries) Mean() float64 {
	return stat.Mean(ts.values, nil)
}

// Info summarises the container.
func (ts *TimeSeries) Info() string {
	return fmt.Sprintf("First date: %s\nLast date: %s\nNumber of rows: %d",
		ts.StartDate().Format("2006-01-02"), ts.EndDate().Format("2006-01-02"), ts.Len())
}

func (ts *TimeSeries) bounds() Bounds {
	return Bounds{Min: ts.StartDate(), Max: ts.EndDate()}
}

// =============================================================================
// Positional access
// =============================================================================

// DefaultPreview is the number of rows Head and Tail return for n < 0.
const DefaultPreview = 6

// ILoc returns the i-th observation. Negative i counts from the end.
func (ts *TimeSeries) ILoc(i int) (Pair, error) {
	n := len(ts.dates)
	j := i
	if j < 0 {
		j += n
	}
	if j < 0 || j >= n {
		return Pair{}, fmt.Errorf("%w: position %d out of range for series of length %d", contracts.ErrNotFound, i, n)
	}
	return Pair{Date: ts.dates[j], Value: ts.values[j]}, nil
}

// ILocRange returns observations [a, b) as a new container. Bounds follow
// slice-expression rules (negative from the end, clamped to the length).
func (ts *TimeSeries) ILocRange(a, b int) *TimeSeries {
	lo, hi := series.ClampRange(a, b, len(ts.dates))
	return ts.derive(slices.Clone(ts.dates[lo:hi]), slices.Clone(ts.values[lo:hi]), ts.freq)
}

// ILocSlice is ILocRange keeping every step-th observation.
func (ts *TimeSeries) ILocSlice(a, b, step int) (*TimeSeries, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: slice step must be positive, got %d", contracts.ErrValidation, step)
	}
	lo, hi := series.ClampRange(a, b, len(ts.dates))
	var dates []time.Time
	var values []float64
	for i := lo; i < hi; i += step {
		dates = append(dates, ts.dates[i])
		values = append(values, ts.values[i])
	}
	return ts.derive(dates, values, ts.freq), nil
}

// Head returns the first n observations (DefaultPreview when n < 0).
func (ts *TimeSeries) Head(n int) *TimeSeries {
	if n < 0 {
		n = DefaultPreview
	}
	return ts.ILocRange(0, n)
}

// Tail returns the last n observations (DefaultPreview when n < 0).
func (ts *TimeSeries) Tail(n int) *TimeSeries {
	if n < 0 {
		n = DefaultPreview
	}
	return ts.ILocRange(max(len(ts.dates)-n, 0), len(ts.dates))
}

// =============================================================================
// Mutation
// =============================================================================

// Set upserts a value. New dates are inserted in date order.
func (ts *TimeSeries) Set(date time.Time, value float64) {
	date = calendar.Day(date)
	if i, ok := ts.pos[date]; ok {
		ts.values[i] = value
		return
	}

	i, _ := slices.BinarySearchFunc(ts.dates, date, func(a, b time.Time) int { return a.Compare(b) })
	ts.dates = slices.Insert(ts.dates, i, date)
	ts.values = slices.Insert(ts.values, i, value)
	ts.reindex()
}

// Delete removes date. Absent dates fail with ErrNotFound.
func (ts *TimeSeries) Delete(date time.Time) error {
	date = calendar.Day(date)
	i, ok := ts.pos[date]
	if !ok {
		return &contracts.DateNotFoundError{Date: date, Message: "cannot delete a date that is not in the series"}
	}
	ts.dates = slices.Delete(ts.dates, i, i+1)
	ts.values = slices.Delete(ts.values, i, i+1)
	ts.reindex()
	return nil
}

// SetILoc always fails: values can only be inserted by date.
func (ts *TimeSeries) SetILoc(i int, value float64) error {
	return fmt.Errorf("%w: positional assignment is not supported, use Set(date, value)", contracts.ErrValidation)
}
