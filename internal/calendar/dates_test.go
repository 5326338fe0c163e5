package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fincal/internal/contracts"
)

func TestOffset_Apply(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		offset Offset
		want   time.Time
	}{
		{"month end clamps", Date(2021, 1, 31), Offset{Months: 1}, Date(2021, 2, 28)},
		{"leap year clamp", Date(2020, 1, 31), Offset{Months: 1}, Date(2020, 2, 29)},
		{"backwards across year", Date(2021, 3, 31), Offset{Months: -4}, Date(2020, 11, 30)},
		{"leap day minus one year", Date(2020, 2, 29), Offset{Years: -1}, Date(2019, 2, 28)},
		{"days", Date(2021, 12, 30), Offset{Days: 3}, Date(2022, 1, 2)},
		{"months then days", Date(2021, 1, 31), Offset{Months: 1, Days: 1}, Date(2021, 3, 1)},
		{"zero", Date(2021, 5, 5), Offset{}, Date(2021, 5, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.offset.Apply(tt.start))
		})
	}
}

func TestOffset_NegAndString(t *testing.T) {
	o := Offset{Years: 1, Months: 2, Days: 3}
	assert.Equal(t, Offset{Years: -1, Months: -2, Days: -3}, o.Neg())
	assert.Equal(t, "1y2m3d", o.String())
	assert.Equal(t, "0d", Offset{}.String())
	assert.True(t, Offset{}.IsZero())
}

func TestYearsEquivalent(t *testing.T) {
	assert.Equal(t, 2.0, YearsEquivalent(Years, 2))
	assert.Equal(t, 0.5, YearsEquivalent(Months, 6))
	assert.InDelta(t, 1.0, YearsEquivalent(Days, 365), 1e-12)
}

func TestMonthHelpers(t *testing.T) {
	assert.Equal(t, Date(2024, 2, 29), EndOfMonth(Date(2024, 2, 3)))
	assert.Equal(t, Date(2021, 12, 31), EndOfMonth(Date(2021, 12, 1)))
	assert.True(t, IsEndOfMonth(Date(2021, 4, 30)))
	assert.False(t, IsEndOfMonth(Date(2021, 4, 29)))
	assert.True(t, IsWeekend(Date(2021, 1, 2)))
	assert.False(t, IsWeekend(Date(2021, 1, 4)))
	assert.Equal(t, 365, DaysBetween(Date(2021, 1, 1), Date(2022, 1, 1)))
}

func TestIsEOMonthSeries(t *testing.T) {
	eom := []time.Time{Date(2021, 1, 31), Date(2021, 2, 28), Date(2021, 3, 31), Date(2021, 4, 30)}
	assert.True(t, IsEOMonthSeries(eom, 0))

	mixed := []time.Time{Date(2021, 1, 31), Date(2021, 2, 15), Date(2021, 3, 31), Date(2021, 4, 30)}
	assert.True(t, IsEOMonthSeries(mixed, 0))
	assert.False(t, IsEOMonthSeries(mixed, 0.8))
	assert.False(t, IsEOMonthSeries(nil, 0))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format string
		want   time.Time
	}{
		{"default format", "2021-01-05", "", Date(2021, 1, 5)},
		{"unpadded", "2021-1-5", "%Y-%m-%d", Date(2021, 1, 5)},
		{"unpadded day first", "5/1/2021", "%d/%m/%Y", Date(2021, 1, 5)},
		{"day first", "05/01/2021", "%d/%m/%Y", Date(2021, 1, 5)},
		{"compact", "20210105", "%Y%m%d", Date(2021, 1, 5)},
		{"month name", "05-Jan-2021", "%d-%b-%Y", Date(2021, 1, 5)},
		{"with time", "2021-01-05 13:45:00", "%Y-%m-%d %H:%M:%S", Date(2021, 1, 5)},
		{"go layout", "Jan 5, 2021", "Jan 2, 2006", Date(2021, 1, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"2021-13-01", "not a date", "", "01-05-2021"} {
		_, err := Parse(input, "%Y-%m-%d")
		assert.ErrorIs(t, err, contracts.ErrParse, input)
	}
}

func TestFormat(t *testing.T) {
	day := Date(2021, 1, 5)

	tests := []struct {
		format string
		want   string
	}{
		{"%d-%m-%Y", "05-01-2021"},
		{"%Y%m%d", "20210105"},
		{"%d %b %y", "05 Jan 21"},
		{"%A, %B %d", "Tuesday, January 05"},
		{"2006/01/02", "2021/01/05"},
		{"", "2021-01-05"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(day, tt.format))
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	day := Date(2024, 2, 29)
	for _, format := range []string{"%Y-%m-%d", "%d/%m/%Y", "%Y%m%d", "%d-%b-%Y", "Jan 2, 2006"} {
		got, err := Parse(Format(day, format), format)
		require.NoError(t, err, format)
		assert.Equal(t, day, got, format)
	}
}

func TestToDate(t *testing.T) {
	want := Date(2021, 3, 1)
	withClock := time.Date(2021, 3, 1, 17, 30, 0, 0, time.UTC)

	got, err := ToDate("2021-03-01", "")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ToDate(withClock, "")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ToDate(&withClock, "")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ToDate(20210301, "")
	assert.ErrorIs(t, err, contracts.ErrParse)

	var nilTime *time.Time
	_, err = ToDate(nilTime, "")
	assert.ErrorIs(t, err, contracts.ErrParse)

	dates, err := ToDates([]any{"2021-03-01", want}, "")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{want, want}, dates)
}
