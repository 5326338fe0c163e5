package series

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
)

func monthStarts() Series {
	return Dates([]time.Time{
		calendar.Date(2021, 1, 1),
		calendar.Date(2021, 2, 1),
		calendar.Date(2021, 3, 1),
		calendar.Date(2021, 4, 1),
	})
}

func TestConstructors(t *testing.T) {
	withClock := time.Date(2021, 1, 1, 15, 0, 0, 0, time.UTC)
	d := Dates([]time.Time{withClock})
	got, err := d.DateAt(0)
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2021, 1, 1), got)

	parsed, err := ParseDates([]string{"2021-01-01", "2021-02-01"}, "")
	require.NoError(t, err)
	assert.Equal(t, KindDate, parsed.Kind())
	assert.Equal(t, 2, parsed.Len())

	_, err = ParseDates([]string{"2021-01-01", "garbage"}, "")
	assert.ErrorIs(t, err, contracts.ErrParse)

	src := []float64{1, 2}
	n := Numbers(src)
	src[0] = 99
	v, _ := n.NumberAt(0)
	assert.Equal(t, 1.0, v, "constructor must copy")
}

func TestIndexing(t *testing.T) {
	s := Numbers([]float64{10, 20, 30})

	v, err := s.NumberAt(-1)
	require.NoError(t, err)
	assert.Equal(t, 30.0, v)

	_, err = s.NumberAt(3)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
	_, err = s.NumberAt(-4)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	_, err = s.DateAt(0)
	assert.ErrorIs(t, err, contracts.ErrType)
	_, err = s.BoolAt(0)
	assert.ErrorIs(t, err, contracts.ErrType)
}

func TestSlice(t *testing.T) {
	s := monthStarts()

	tests := []struct {
		name    string
		a, b    int
		wantLen int
	}{
		{"middle", 1, 3, 2},
		{"negative start", -2, 4, 2},
		{"clamped end", 2, 100, 2},
		{"inverted", 3, 1, 0},
		{"all", 0, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Slice(tt.a, tt.b)
			assert.Equal(t, KindDate, got.Kind())
			assert.Equal(t, tt.wantLen, got.Len())
		})
	}

	first, _ := s.Slice(1, 3).DateAt(0)
	assert.Equal(t, calendar.Date(2021, 2, 1), first)
}

func TestCompare_Numbers(t *testing.T) {
	s := Numbers([]float64{1, 2, 3, math.NaN()})

	gt, err := s.Gt(Num(2))
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true, false}, gt.BoolValues())

	le, err := s.Le(Numbers([]float64{1, 1, 5, 0}))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false}, le.BoolValues())

	ne, err := s.Ne(Num(2))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, true}, ne.BoolValues())

	_, err = s.Gt(DateString("2021-01-01"))
	assert.ErrorIs(t, err, contracts.ErrType)

	_, err = s.Eq(Numbers([]float64{1}))
	assert.ErrorIs(t, err, contracts.ErrLengthMismatch)
}

func TestCompare_Dates(t *testing.T) {
	s := monthStarts()

	ge, err := s.Ge(DateString("2021-02-01"))
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, true}, ge.BoolValues())

	lt, err := s.Lt(At(calendar.Date(2021, 3, 1)))
	require.NoError(t, err)
	assert.Equal(t, 2, lt.CountTrue())

	eq, err := s.Eq(monthStarts())
	require.NoError(t, err)
	assert.Equal(t, 4, eq.CountTrue())

	_, err = s.Gt(Num(1))
	assert.ErrorIs(t, err, contracts.ErrType)

	_, err = s.Gt(DateString("01/02/2021"))
	assert.ErrorIs(t, err, contracts.ErrParse)
}

func TestCompare_Bools(t *testing.T) {
	s := Bools([]bool{true, false})

	_, err := s.Gt(Bool(true))
	assert.ErrorIs(t, err, contracts.ErrType)
	_, err = s.Le(Bools([]bool{true, true}))
	assert.ErrorIs(t, err, contracts.ErrType)

	eq, err := s.Eq(Bool(true))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, eq.BoolValues())

	ne, err := s.Ne(Bools([]bool{true, true}))
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, ne.BoolValues())
}

func TestLogical(t *testing.T) {
	a := Bools([]bool{true, true, false})
	b := Bools([]bool{true, false, false})

	and, err := a.And(b)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, and.BoolValues())

	or, err := a.Or(b)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, or.BoolValues())

	not, err := a.Not()
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true}, not.BoolValues())

	_, err = a.And(Bools([]bool{true}))
	assert.ErrorIs(t, err, contracts.ErrLengthMismatch)
	_, err = Numbers([]float64{1}).And(Bool(true))
	assert.ErrorIs(t, err, contracts.ErrType)
	_, err = a.Or(Num(1))
	assert.ErrorIs(t, err, contracts.ErrType)
}

func TestAdd(t *testing.T) {
	n := Numbers([]float64{1, 2})

	got, err := n.Add(Num(0.5))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, got.NumberValues())

	got, err = n.Add(Numbers([]float64{10, 20}))
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 22}, got.NumberValues())

	_, err = n.Add(Numbers([]float64{1, 2, 3}))
	assert.ErrorIs(t, err, contracts.ErrLengthMismatch)
	_, err = n.Add(Shift(calendar.Offset{Days: 1}))
	assert.ErrorIs(t, err, contracts.ErrType)

	d := Dates([]time.Time{calendar.Date(2021, 1, 31)})
	shifted, err := d.Add(Shift(calendar.Offset{Months: 1}))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{calendar.Date(2021, 2, 28)}, shifted.DateValues())

	_, err = d.Add(Num(1))
	assert.ErrorIs(t, err, contracts.ErrType)

	_, err = Bools([]bool{true}).Add(Num(1))
	assert.ErrorIs(t, err, contracts.ErrType)
}

func TestAggregates(t *testing.T) {
	n := Numbers([]float64{1, 2, 3, 6})

	sum, err := n.Sum()
	require.NoError(t, err)
	assert.Equal(t, 12.0, sum)

	mean, err := n.Mean()
	require.NoError(t, err)
	assert.Equal(t, 3.0, mean)

	_, err = monthStarts().Mean()
	assert.ErrorIs(t, err, contracts.ErrType)
}

func TestString(t *testing.T) {
	assert.Equal(t, "Series([1, 2.5], kind=number)", Numbers([]float64{1, 2.5}).String())
	assert.Equal(t, "Series([2021-01-01], kind=date)", monthStarts().Slice(0, 1).String())
	assert.Equal(t, "Series([true], kind=bool)", Bools([]bool{true}).String())
}
