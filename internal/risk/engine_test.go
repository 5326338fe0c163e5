package risk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/timeseries"
	"github.com/wonny/fincal/pkg/logger"
)

func d(y int, m time.Month, day int) time.Time {
	return calendar.Date(y, m, day)
}

// pricesFrom builds a monthly price series starting at 100 on 2021-01-01
// whose one-month returns are rets.
func pricesFrom(t *testing.T, rets ...float64) *timeseries.TimeSeries {
	t.Helper()
	pairs := timeseries.Pairs{{Date: d(2021, 1, 1), Value: 100}}
	price := 100.0
	for i, r := range rets {
		price *= 1 + r
		pairs = append(pairs, timeseries.Pair{Date: d(2021, time.Month(i+2), 1), Value: price})
	}
	ts, err := timeseries.New(pairs, calendar.Monthly, timeseries.WithLogger(logger.Nop()))
	require.NoError(t, err)
	return ts
}

func rates(t *testing.T, rate float64, n int) *timeseries.TimeSeries {
	t.Helper()
	pairs := make(timeseries.Pairs, n)
	for i := range pairs {
		pairs[i] = timeseries.Pair{Date: d(2021, time.Month(i+1), 1), Value: rate}
	}
	ts, err := timeseries.New(pairs, calendar.Monthly, timeseries.WithLogger(logger.Nop()))
	require.NoError(t, err)
	return ts
}

func monthlyParams() StatParams {
	p := DefaultStatParams()
	p.PeriodUnit = calendar.Months
	p.Compounding = timeseries.CompoundOff
	return p
}

var marketReturns = []float64{0.1, -0.05, 0.02, 0.03, -0.01}

func scaled(k float64) []float64 {
	out := make([]float64, len(marketReturns))
	for i, r := range marketReturns {
		out[i] = k * r
	}
	return out
}

func TestBeta(t *testing.T) {
	e := NewEngine(logger.Nop())
	market := pricesFrom(t, marketReturns...)

	tests := []struct {
		name string
		k    float64
	}{
		{"double", 2},
		{"same", 1},
		{"inverse half", -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset := pricesFrom(t, scaled(tt.k)...)
			beta, err := e.Beta(asset, market, monthlyParams())
			require.NoError(t, err)
			assert.InDelta(t, tt.k, beta, 1e-9)
		})
	}
}

func TestBeta_TooFewReturns(t *testing.T) {
	e := NewEngine(logger.Nop())
	a := pricesFrom(t, 0.1)
	_, err := e.Beta(a, a, monthlyParams())
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestCorrelation(t *testing.T) {
	e := NewEngine(logger.Nop())
	market := pricesFrom(t, marketReturns...)

	c, err := e.Correlation(pricesFrom(t, scaled(3)...), market, monthlyParams())
	require.NoError(t, err)
	assert.InDelta(t, 1, c, 1e-9)

	c, err = e.Correlation(pricesFrom(t, scaled(-1)...), market, monthlyParams())
	require.NoError(t, err)
	assert.InDelta(t, -1, c, 1e-9)
}

func TestCorrelation_Validation(t *testing.T) {
	e := NewEngine(logger.Nop())
	market := pricesFrom(t, marketReturns...)

	weekly, err := timeseries.New(timeseries.Pairs{{Date: d(2021, 1, 1), Value: 1}, {Date: d(2021, 1, 8), Value: 2}},
		calendar.Weekly, timeseries.WithLogger(logger.Nop()))
	require.NoError(t, err)
	_, err = e.Correlation(market, weekly, monthlyParams())
	assert.ErrorIs(t, err, contracts.ErrValidation, "frequency mismatch")

	short := pricesFrom(t, 0.1, 0.2, 0.1)
	p := monthlyParams()
	p.From, p.To = d(2021, 2, 1), d(2021, 6, 1)
	_, err = e.Correlation(market, short, p)
	assert.ErrorIs(t, err, contracts.ErrValidation, "coverage")
}

func TestJensensAlpha(t *testing.T) {
	e := NewEngine(logger.Nop())
	market := pricesFrom(t, marketReturns...)
	asset := pricesFrom(t, scaled(2)...)

	realised := func(ts *timeseries.TimeSeries) float64 {
		first, err := ts.ILoc(0)
		require.NoError(t, err)
		last, err := ts.ILoc(-1)
		require.NoError(t, err)
		return last.Value/first.Value - 1
	}
	a, m := realised(asset), realised(market)

	tests := []struct {
		name string
		rf   RiskFree
		rate float64
	}{
		{"flat rate", Rate(0.02), 0.02},
		{"zero rate", Rate(0), 0},
		{"rate series", RateSeries{rates(t, 0.03, 6)}, 0.03},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alpha, err := e.JensensAlpha(asset, market, tt.rf, monthlyParams())
			require.NoError(t, err)
			assert.InDelta(t, a-tt.rate+2*(m-tt.rate), alpha, 1e-9)
		})
	}

	_, err := e.JensensAlpha(asset, market, nil, monthlyParams())
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

// alternating has one-month returns of +10%, -10%, ... over six months.
func alternating(t *testing.T) *timeseries.TimeSeries {
	return pricesFrom(t, 0.1, -0.1, 0.1, -0.1, 0.1, -0.1)
}

func TestAlternating_Window(t *testing.T) {
	ts := alternating(t)
	p := monthlyParams()

	from, to, err := p.window(ts)
	require.NoError(t, err)
	assert.Equal(t, d(2021, 2, 1), from)
	assert.Equal(t, d(2021, 7, 1), to)

	rolling, err := ts.RollingReturns(from, to, p.rolling())
	require.NoError(t, err)
	assert.Equal(t, 6, rolling.Len())
	assert.InDelta(t, 0, rolling.Mean(), 1e-12)
}

func TestSharpeRatio(t *testing.T) {
	e := NewEngine(logger.Nop())
	ts := alternating(t)

	// mean 0, annualised volatility sqrt(0.06/5) * sqrt(12)
	want := -0.02 / math.Sqrt(0.144)

	sr, err := e.SharpeRatio(ts, Rate(0.02), monthlyParams())
	require.NoError(t, err)
	assert.InDelta(t, want, sr, 1e-9)

	sr, err = e.SharpeRatio(ts, RateSeries{rates(t, 0.02, 7)}, monthlyParams())
	require.NoError(t, err)
	assert.InDelta(t, want, sr, 1e-9)

	_, err = e.SharpeRatio(ts, nil, monthlyParams())
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestSortinoRatio(t *testing.T) {
	e := NewEngine(logger.Nop())
	ts := alternating(t)

	sr, err := e.SortinoRatio(ts, Rate(0.02), monthlyParams())
	require.NoError(t, err)
	// downside deviation sqrt(0.03/5) * sqrt(12)
	assert.InDelta(t, -0.02/math.Sqrt(0.072), sr, 1e-9)
}

func TestRateSeries_EmptyWindow(t *testing.T) {
	_, err := RateSeries{rates(t, 0.02, 3)}.over(d(2022, 1, 1), d(2022, 6, 1))
	assert.ErrorIs(t, err, contracts.ErrValidation)

	_, err = RateSeries{}.over(d(2021, 1, 1), d(2021, 6, 1))
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestStatParams_Window(t *testing.T) {
	a := pricesFrom(t, 0.1, 0.1, 0.1, 0.1)
	b := pricesFrom(t, 0.1, 0.1)

	from, to, err := monthlyParams().window(a, b)
	require.NoError(t, err)
	assert.Equal(t, d(2021, 2, 1), from)
	assert.Equal(t, d(2021, 3, 1), to)

	_, _, err = DefaultStatParams().window(a, b)
	assert.ErrorIs(t, err, contracts.ErrValidation, "one year period leaves no window")

	_, _, err = monthlyParams().window(a, nil)
	assert.ErrorIs(t, err, contracts.ErrValidation)
}
