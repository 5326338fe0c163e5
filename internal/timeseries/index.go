package timeseries

import (
	"fmt"
	"time"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/series"
)

// Key is an Index argument: DateKey, StringKey, IntKey, MaskKey, SeriesKey
// or ListKey.
type Key interface {
	key()
}

// DateKey selects one exact date.
type DateKey time.Time

// StringKey selects one exact date given as a string, or the "dates" /
// "values" columns.
type StringKey string

// IntKey is rejected; positional access goes through ILoc.
type IntKey int

// MaskKey keeps the dates where Mask is true. Mask must be a bool series
// of the container's length.
type MaskKey struct {
	Mask series.Series
}

// SeriesKey selects exactly the dates of a date series.
type SeriesKey struct {
	Dates series.Series
}

// ListKey selects a list of date-like values (strings or time.Time).
type ListKey []any

func (DateKey) key()   {}
func (StringKey) key() {}
func (IntKey) key()    {}
func (MaskKey) key()   {}
func (SeriesKey) key() {}
func (ListKey) key()   {}

// SelectionKind tells which field of a Selection is set.
type SelectionKind int

const (
	SelectPair SelectionKind = iota
	SelectSeries
	SelectTimeSeries
)

// Selection is the result of Index.
type Selection struct {
	Kind       SelectionKind
	Pair       Pair
	Series     series.Series
	TimeSeries *TimeSeries
}

// Index dispatches on the key variant.
func (ts *TimeSeries) Index(k Key) (Selection, error) {
	switch key := k.(type) {
	case DateKey:
		p, err := ts.At(time.Time(key))
		return Selection{Kind: SelectPair, Pair: p}, err
	case StringKey:
		if key == "dates" || key == "values" {
			s, err := ts.Column(string(key))
			return Selection{Kind: SelectSeries, Series: s}, err
		}
		p, err := ts.AtString(string(key))
		return Selection{Kind: SelectPair, Pair: p}, err
	case IntKey:
		return Selection{}, fmt.Errorf("%w: %d is not a date; use ILoc(%d) for positional access",
			contracts.ErrNotFound, int(key), int(key))
	case MaskKey:
		out, err := ts.Filter(key.Mask)
		return Selection{Kind: SelectTimeSeries, TimeSeries: out}, err
	case SeriesKey:
		if key.Dates.Kind() != series.KindDate {
			return Selection{}, fmt.Errorf("%w: cannot select with a %s series", contracts.ErrType, key.Dates.Kind())
		}
		out, err := ts.Select(key.Dates.DateValues())
		return Selection{Kind: SelectTimeSeries, TimeSeries: out}, err
	case ListKey:
		dates, err := calendar.ToDates(key, ts.Options().DateFormat)
		if err != nil {
			return Selection{}, err
		}
		out, err := ts.Select(dates)
		return Selection{Kind: SelectTimeSeries, TimeSeries: out}, err
	default:
		return Selection{}, fmt.Errorf("%w: invalid key type %T", contracts.ErrType, k)
	}
}

// At returns the observation at exactly date.
func (ts *TimeSeries) At(date time.Time) (Pair, error) {
	date = calendar.Day(date)
	v, ok := ts.Lookup(date)
	if !ok {
		return Pair{}, &contracts.DateNotFoundError{Date: date}
	}
	return Pair{Date: date, Value: v}, nil
}

// AtString parses s with the container's date format and calls At.
func (ts *TimeSeries) AtString(s string) (Pair, error) {
	d, err := calendar.Parse(s, ts.Options().DateFormat)
	if err != nil {
		return Pair{}, err
	}
	return ts.At(d)
}

// Column returns the "dates" or "values" view.
func (ts *TimeSeries) Column(name string) (series.Series, error) {
	switch name {
	case "dates":
		return ts.Dates(), nil
	case "values":
		return ts.Values(), nil
	default:
		return series.Series{}, fmt.Errorf("%w: unknown column %q (expected dates or values)", contracts.ErrNotFound, name)
	}
}

// Filter keeps the observations where mask is true.
func (ts *TimeSeries) Filter(mask series.Series) (*TimeSeries, error) {
	if mask.Kind() != series.KindBool {
		return nil, fmt.Errorf("%w: mask must be a bool series, got %s", contracts.ErrType, mask.Kind())
	}
	if mask.Len() != ts.Len() {
		return nil, fmt.Errorf("%w: mask of length %d for series of length %d", contracts.ErrLengthMismatch, mask.Len(), ts.Len())
	}

	keep := mask.BoolValues()
	var dates []time.Time
	var values []float64
	for i, ok := range keep {
		if ok {
			dates = append(dates, ts.dates[i])
			values = append(values, ts.values[i])
		}
	}
	return ts.derive(dates, values, ts.freq), nil
}

// Select returns the observations at exactly the given dates. Every date
// must be present.
func (ts *TimeSeries) Select(dates []time.Time) (*TimeSeries, error) {
	pairs := make([]Pair, len(dates))
	for i, d := range dates {
		p, err := ts.At(d)
		if err != nil {
			return nil, err
		}
		pairs[i] = p
	}
	out := &TimeSeries{freq: ts.freq, opts: ts.opts, log: ts.log}
	out.load(pairs)
	return out, nil
}

// SelectStrings is Select for date strings.
func (ts *TimeSeries) SelectStrings(dates []string) (*TimeSeries, error) {
	parsed := make([]time.Time, len(dates))
	for i, s := range dates {
		d, err := calendar.Parse(s, ts.Options().DateFormat)
		if err != nil {
			return nil, err
		}
		parsed[i] = d
	}
	return ts.Select(parsed)
}
