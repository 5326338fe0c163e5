package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/pkg/logger"
)

func gappy(t *testing.T) *TimeSeries {
	t.Helper()
	ts, err := New(Pairs{{d(2021, 1, 1), 1}, {d(2021, 1, 3), 3}, {d(2021, 1, 6), 6}}, calendar.Daily, WithLogger(logger.Nop()))
	require.NoError(t, err)
	return ts
}

func TestFFill(t *testing.T) {
	ts := gappy(t)

	out, err := ts.FFill(FillParams{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 3, 3, 3, 6}, out.Values().NumberValues())
	assert.Equal(t, d(2021, 1, 6), out.EndDate())

	limited, err := ts.FFill(FillParams{Limit: 1})
	require.NoError(t, err)
	assert.False(t, limited.Contains(d(2021, 1, 5)))
	assert.Equal(t, []float64{1, 1, 3, 3, 6}, limited.Values().NumberValues())

	assert.Equal(t, 3, ts.Len(), "original untouched")
}

func TestBFill(t *testing.T) {
	ts := gappy(t)

	out, err := ts.BFill(FillParams{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 3, 6, 6, 6}, out.Values().NumberValues())
	assert.Equal(t, d(2021, 1, 1), out.StartDate())

	limited, err := ts.BFill(FillParams{Limit: 1})
	require.NoError(t, err)
	assert.False(t, limited.Contains(d(2021, 1, 4)))
	assert.Equal(t, []float64{1, 3, 3, 6, 6}, limited.Values().NumberValues())
}

func TestFill_EOMonthRejectedForDaily(t *testing.T) {
	_, err := gappy(t).FFill(FillParams{EOMonth: true})
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestExpand(t *testing.T) {
	ts := monthly(t, d(2021, 1, 1), 1, 2, 3)

	ff, err := ts.Expand(calendar.Weekly, ResampleParams{Method: FillForward})
	require.NoError(t, err)
	assert.Equal(t, calendar.Weekly, ff.Frequency())
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 2, 2, 2, 2}, ff.Values().NumberValues())

	bf, err := ts.Expand(calendar.Weekly, ResampleParams{Method: FillBackward})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 2, 2, 2, 3, 3, 3, 3}, bf.Values().NumberValues())

	_, err = ts.Expand(calendar.Monthly, ResampleParams{})
	assert.ErrorIs(t, err, contracts.ErrValidation)
	_, err = ts.Expand(calendar.Weekly, ResampleParams{Method: "pad"})
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestShrink(t *testing.T) {
	values := make([]float64, 69)
	for i := range values {
		values[i] = float64(i)
	}
	ts := daily(t, d(2021, 1, 1), values...)

	out, err := ts.Shrink(calendar.Monthly, ResampleParams{})
	require.NoError(t, err)
	assert.Equal(t, calendar.Monthly, out.Frequency())
	assert.Equal(t, []float64{0, 31, 59}, out.Values().NumberValues())

	_, err = ts.Shrink(calendar.Daily, ResampleParams{})
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestSync(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	other := daily(t, d(2021, 1, 1), values...)
	ts := monthly(t, d(2021, 1, 1), 1, 2, 3, 4)

	out, err := ts.Sync(other, FillForward)
	require.NoError(t, err)
	assert.Equal(t, ts.Dates().DateValues(), out.Dates().DateValues())
	assert.Equal(t, []float64{0, 31, 59, 90}, out.Values().NumberValues())
	assert.Equal(t, calendar.Monthly, out.Frequency())

	_, err = ts.Sync(nil, FillForward)
	assert.ErrorIs(t, err, contracts.ErrType)
}
