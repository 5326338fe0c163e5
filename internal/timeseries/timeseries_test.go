package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/pkg/config"
	"github.com/wonny/fincal/pkg/logger"
)

func TestNew_InputShapes(t *testing.T) {
	want := []Pair{{d(2021, 1, 1), 1}, {d(2021, 2, 1), 2}}

	tests := []struct {
		name  string
		input Input
	}{
		{"pair list", PairList{{"2021-02-01", 2}, {"2021-01-01", "1"}}},
		{"pair list with times", PairList{{d(2021, 2, 1), 2.0}, {time.Date(2021, 1, 1, 9, 30, 0, 0, time.UTC), int64(1)}}},
		{"single key records", SingleKeyRecords{{"2021-02-01": 2}, {"2021-01-01": 1}}},
		{"double key records", DoubleKeyRecords{
			{{Key: "date", Value: "2021-01-01"}, {Key: "nav", Value: 1}},
			{{Key: "date", Value: "2021-02-01"}, {Key: "nav", Value: 2}},
		}},
		{"string map", StringMap{"2021-02-01": 2, "2021-01-01": 1}},
		{"time map", TimeMap{d(2021, 2, 1): 2, d(2021, 1, 1): 1}},
		{"pairs", Pairs{{d(2021, 2, 1), 2}, {d(2021, 1, 1), 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := New(tt.input, calendar.Monthly, WithLogger(logger.Nop()))
			require.NoError(t, err)
			assert.Equal(t, want, ts.Pairs())
			assert.Equal(t, calendar.Monthly, ts.Frequency())
		})
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		freq  calendar.Frequency
		want  error
	}{
		{"empty", PairList{}, calendar.Daily, contracts.ErrParse},
		{"nil input", nil, calendar.Daily, contracts.ErrParse},
		{"bad date", PairList{{"01/02/2021", 1}}, calendar.Daily, contracts.ErrParse},
		{"bad value", PairList{{"2021-01-01", "abc"}}, calendar.Daily, contracts.ErrParse},
		{"bool value", PairList{{"2021-01-01", true}}, calendar.Daily, contracts.ErrParse},
		{"two key single record", SingleKeyRecords{{"2021-01-01": 1, "2021-01-02": 2}}, calendar.Daily, contracts.ErrParse},
		{"three field record", DoubleKeyRecords{{{"a", "2021-01-01"}, {"b", 1}, {"c", 2}}}, calendar.Daily, contracts.ErrParse},
		{"no frequency", PairList{{"2021-01-01", 1}}, calendar.Frequency{}, contracts.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.input, tt.freq, WithLogger(logger.Nop()))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_DateFormat(t *testing.T) {
	ts, err := New(PairList{{"05/01/2021", 1}, {"06/01/2021", 2}}, calendar.Daily,
		WithDateFormat("%d/%m/%Y"), WithLogger(logger.Nop()))
	require.NoError(t, err)
	assert.Equal(t, d(2021, 1, 5), ts.StartDate())

	ts, err = New(PairList{{"05-01-2021", 1}}, calendar.Daily,
		WithOptions(config.Options{DateFormat: "%d-%m-%Y"}), WithLogger(logger.Nop()))
	require.NoError(t, err)
	assert.Equal(t, d(2021, 1, 5), ts.StartDate())
}

func TestNewFromSymbol(t *testing.T) {
	ts, err := NewFromSymbol(PairList{{"2021-01-01", 1}}, "W", WithLogger(logger.Nop()))
	require.NoError(t, err)
	assert.Equal(t, calendar.Weekly, ts.Frequency())

	_, err = NewFromSymbol(PairList{{"2021-01-01", 1}}, "w")
	assert.ErrorIs(t, err, contracts.ErrUnknownFrequency)
}

func TestSortedness(t *testing.T) {
	input := PairList{
		{"2021-03-01", 3}, {"2021-01-15", 1}, {"2020-12-31", 0},
		{"2021-02-28", 2}, {"2021-01-16", 1.5},
	}
	ts, err := New(input, calendar.Daily, WithLogger(logger.Nop()))
	require.NoError(t, err)

	var prev time.Time
	n := 0
	for date := range ts.All() {
		if n > 0 {
			assert.True(t, date.After(prev), "%v should be after %v", date, prev)
		}
		prev = date
		n++
	}
	assert.Equal(t, 5, n)

	// restartable
	again := 0
	for range ts.All() {
		again++
	}
	assert.Equal(t, n, again)
}

func TestDuplicateCollapse(t *testing.T) {
	log, buf := captureLogger()

	ts, err := New(PairList{{"2021-01-01", 1}, {"2021-01-01", 2}}, calendar.Daily, WithLogger(log))
	require.NoError(t, err)

	assert.Equal(t, 1, ts.Len())
	v, ok := ts.Lookup(d(2021, 1, 1))
	assert.True(t, ok)
	assert.Equal(t, 2.0, v, "last occurrence wins")

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "duplicate dates")
	assert.Contains(t, buf.String(), "2021-01-01")
}

func TestAccessors(t *testing.T) {
	ts := monthly(t, d(2021, 1, 1), 10, 20, 30)

	assert.Equal(t, 3, ts.Len())
	assert.Equal(t, d(2021, 1, 1), ts.StartDate())
	assert.Equal(t, d(2021, 3, 1), ts.EndDate())
	assert.Equal(t, 20.0, ts.Mean())
	assert.True(t, ts.Contains(time.Date(2021, 2, 1, 23, 59, 0, 0, time.UTC)))
	assert.False(t, ts.Contains(d(2021, 2, 2)))

	assert.Equal(t, []float64{10, 20, 30}, ts.Values().NumberValues())
	assert.Equal(t, "First date: 2021-01-01\nLast date: 2021-03-01\nNumber of rows: 3", ts.Info())

	empty := ts.ILocRange(0, 0)
	assert.True(t, empty.StartDate().IsZero())
	assert.True(t, math.IsNaN(empty.Mean()))
}

func TestILoc(t *testing.T) {
	ts := monthly(t, d(2021, 1, 1), 10, 20, 30, 40, 50, 60, 70, 80)

	p, err := ts.ILoc(0)
	require.NoError(t, err)
	assert.Equal(t, Pair{d(2021, 1, 1), 10}, p)

	p, err = ts.ILoc(-1)
	require.NoError(t, err)
	assert.Equal(t, Pair{d(2021, 8, 1), 80}, p)

	_, err = ts.ILoc(8)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	assert.Equal(t, 6, ts.Head(-1).Len())
	assert.Equal(t, 2, ts.Head(2).Len())
	assert.Equal(t, d(2021, 7, 1), ts.Tail(2).StartDate())
	assert.Equal(t, 8, ts.Tail(100).Len())

	every, err := ts.ILocSlice(0, 8, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 40, 70}, every.Values().NumberValues())

	_, err = ts.ILocSlice(0, 8, 0)
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestILocRange_RoundTrip(t *testing.T) {
	ts := monthly(t, d(2021, 1, 1), 1, 2, 3, 4, 5, 6, 7)

	for a := -8; a <= 8; a++ {
		for b := -8; b <= 9; b++ {
			got := ts.ILocRange(a, b)
			want := ts.Dates().Slice(a, b)
			require.Equal(t, want.Len(), got.Len(), "iloc[%d:%d]", a, b)
			assert.Equal(t, want.DateValues(), got.Dates().DateValues(), "iloc[%d:%d]", a, b)
		}
	}

	assert.Equal(t, 3, ts.ILocRange(2, 5).Len())
	assert.Equal(t, 2, ts.ILocRange(5, 100).Len())
}

func TestMutation(t *testing.T) {
	ts := monthly(t, d(2021, 1, 1), 10, 20, 30)

	ts.Set(d(2021, 2, 15), 25)
	assert.Equal(t, 4, ts.Len())
	p, err := ts.ILoc(2)
	require.NoError(t, err)
	assert.Equal(t, Pair{d(2021, 2, 15), 25}, p)

	ts.Set(d(2021, 1, 1), 11)
	assert.Equal(t, 4, ts.Len())
	v, _ := ts.Lookup(d(2021, 1, 1))
	assert.Equal(t, 11.0, v)

	ts.Set(d(2020, 12, 1), 5)
	assert.Equal(t, d(2020, 12, 1), ts.StartDate())

	require.NoError(t, ts.Delete(d(2021, 2, 15)))
	assert.False(t, ts.Contains(d(2021, 2, 15)))
	assert.Equal(t, 4, ts.Len())

	err = ts.Delete(d(2021, 2, 15))
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	err = ts.SetILoc(0, 1)
	assert.ErrorIs(t, err, contracts.ErrValidation)
	v, _ = ts.Lookup(d(2020, 12, 1))
	assert.Equal(t, 5.0, v, "failed positional assignment must not mutate")
}

func TestClone_IsIndependent(t *testing.T) {
	ts := monthly(t, d(2021, 1, 1), 10, 20)
	c := ts.Clone()
	c.Set(d(2021, 1, 1), 99)
	v, _ := ts.Lookup(d(2021, 1, 1))
	assert.Equal(t, 10.0, v)
}

func TestString(t *testing.T) {
	short := monthly(t, d(2021, 1, 1), 1, 2)
	assert.Equal(t, "TimeSeries([(2021-01-01, 1),\n\t(2021-02-01, 2)], frequency=\"M\")", short.String())

	long := monthly(t, d(2021, 1, 1), 1, 2, 3, 4, 5, 6, 7)
	s := long.String()
	assert.Contains(t, s, "(2021-03-01, 3),\n\t...,\n\t(2021-05-01, 5)")
	assert.NotContains(t, s, "2021-04-01")
}
