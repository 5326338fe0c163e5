package risk

import (
	"fmt"
	"time"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/timeseries"
)

// =============================================================================
// Parameters
// =============================================================================

// StatParams configure the multi-series statistics. Zero From/To take the
// widest window every input covers.
type StatParams struct {
	From time.Time
	To   time.Time
	// Frequency of the rolling as-on dates; zero uses the first series'
	Frequency calendar.Frequency
	// TradedDays per year for day-denominated volatility; 0 uses the
	// configured default
	TradedDays int

	timeseries.ReturnParams
}

// DefaultStatParams returns one-year rolling returns at each series'
// native frequency.
func DefaultStatParams() StatParams {
	return StatParams{ReturnParams: timeseries.DefaultReturnParams()}
}

func (p StatParams) period() calendar.Offset {
	rp := p.ReturnParams
	if rp.PeriodUnit == "" {
		rp.PeriodUnit = calendar.Years
	}
	if rp.PeriodValue == 0 {
		rp.PeriodValue = 1
	}
	return rp.Period()
}

// window resolves From/To against the inputs: From defaults to the latest
// start plus one return period, To to the earliest end.
func (p StatParams) window(series ...*timeseries.TimeSeries) (time.Time, time.Time, error) {
	from, to := p.From, p.To
	var latestStart, earliestEnd time.Time
	for i, ts := range series {
		if ts == nil || ts.Len() == 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: series %d is empty", contracts.ErrValidation, i)
		}
		if i == 0 || ts.StartDate().After(latestStart) {
			latestStart = ts.StartDate()
		}
		if i == 0 || ts.EndDate().Before(earliestEnd) {
			earliestEnd = ts.EndDate()
		}
	}
	if from.IsZero() {
		from = p.period().Apply(latestStart)
	}
	if to.IsZero() {
		to = earliestEnd
	}
	from, to = calendar.Day(from), calendar.Day(to)
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: empty window %s..%s", contracts.ErrValidation,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return from, to, nil
}

func (p StatParams) rolling() timeseries.RollingParams {
	return timeseries.RollingParams{ReturnParams: p.ReturnParams, Frequency: p.Frequency}
}

// =============================================================================
// Risk-free input
// =============================================================================

// RiskFree is the risk-free return used by excess-return statistics: a flat
// Rate or a RateSeries reduced to its mean over the window.
type RiskFree interface {
	over(from, to time.Time) (float64, error)
}

// Rate is a flat annual risk-free rate (0.06 = 6%).
type Rate float64

func (r Rate) over(time.Time, time.Time) (float64, error) {
	return float64(r), nil
}

// RateSeries is a time series of risk-free rates.
type RateSeries struct {
	*timeseries.TimeSeries
}

func (r RateSeries) over(from, to time.Time) (float64, error) {
	if r.TimeSeries == nil {
		return 0, fmt.Errorf("%w: risk-free series is nil", contracts.ErrValidation)
	}
	var (
		sum float64
		n   int
	)
	for d, v := range r.All() {
		if d.Before(from) || d.After(to) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no risk-free rates between %s and %s", contracts.ErrValidation,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return sum / float64(n), nil
}

// =============================================================================
// VaR/CVaR Types
// =============================================================================

// VaRConvention VaR 부호 규약
// ⭐ SSOT: Loss를 양수로 표현 (VaR=0.05 → 5% 손실 가능)
const VaRConvention = "loss_positive"

// VaRResult VaR 계산 결과
// - VaR=0.05 → 95% 신뢰수준에서 최대 5% 손실 가능
// - CVaR=0.07 → 5% tail에서 평균 7% 손실 예상
type VaRResult struct {
	Confidence float64 `json:"confidence"` // 신뢰수준 (예: 0.95, 0.99)
	VaR        float64 `json:"var"`        // Value at Risk (손실, 양수)
	CVaR       float64 `json:"cvar"`       // Conditional VaR (Expected Shortfall, 양수)
	Samples    int     `json:"samples"`
}
