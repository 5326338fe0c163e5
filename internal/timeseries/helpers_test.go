package timeseries

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/pkg/logger"
)

func d(y int, m time.Month, day int) time.Time {
	return calendar.Date(y, m, day)
}

// monthly builds a monthly container starting at start with one value per
// month.
func monthly(t *testing.T, start time.Time, values ...float64) *TimeSeries {
	t.Helper()
	pairs := make(Pairs, len(values))
	for i, v := range values {
		pairs[i] = Pair{Date: calendar.OffsetFor(calendar.Months, i).Apply(start), Value: v}
	}
	ts, err := New(pairs, calendar.Monthly, WithLogger(logger.Nop()))
	require.NoError(t, err)
	return ts
}

// daily builds a daily container of consecutive days.
func daily(t *testing.T, start time.Time, values ...float64) *TimeSeries {
	t.Helper()
	pairs := make(Pairs, len(values))
	for i, v := range values {
		pairs[i] = Pair{Date: start.AddDate(0, 0, i), Value: v}
	}
	ts, err := New(pairs, calendar.Daily, WithLogger(logger.Nop()))
	require.NoError(t, err)
	return ts
}

func captureLogger() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewWithWriter(&buf, "debug"), &buf
}
