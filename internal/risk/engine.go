package risk

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/timeseries"
	"github.com/wonny/fincal/pkg/logger"
)

// =============================================================================
// Engine - 순수 계산기
// =============================================================================

// Engine computes statistics over one or more time series.
// ⭐ SSOT: 데이터 수집은 상위 레이어(source, api, cmd)에서 조립
// internal/risk는 순수 계산만 담당
type Engine struct {
	log *logger.Logger
}

// NewEngine 새 리스크 엔진 생성. A nil logger uses logger.Default().
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{log: log}
}

func (e *Engine) logger() *logger.Logger {
	if e == nil || e.log == nil {
		return logger.Default()
	}
	return e.log
}

// =============================================================================
// Beta / Correlation
// =============================================================================

// Beta is cov(asset, market) / var(market) over the rolling returns of both
// series, using sample moments.
func (e *Engine) Beta(asset, market *timeseries.TimeSeries, p StatParams) (float64, error) {
	a, m, err := e.alignedReturns(asset, market, p)
	if err != nil {
		return 0, err
	}
	return stat.Covariance(a, m, nil) / stat.Variance(m, nil), nil
}

// Correlation is the Pearson correlation of the rolling returns of a and b.
// Both series must share a frequency and cover the whole window.
func (e *Engine) Correlation(a, b *timeseries.TimeSeries, p StatParams) (float64, error) {
	if a == nil || b == nil {
		return 0, fmt.Errorf("%w: correlation requires two time series", contracts.ErrValidation)
	}
	if a.Frequency() != b.Frequency() {
		return 0, fmt.Errorf("%w: correlation requires the same frequency, got %s and %s",
			contracts.ErrValidation, a.Frequency().Name, b.Frequency().Name)
	}

	from, to, err := p.window(a, b)
	if err != nil {
		return 0, err
	}
	first := p.period().Neg().Apply(from)
	for i, ts := range []*timeseries.TimeSeries{a, b} {
		if ts.StartDate().After(first) || ts.EndDate().Before(to) {
			return 0, fmt.Errorf("%w: series %d (%s..%s) does not cover %s..%s", contracts.ErrValidation, i,
				ts.StartDate().Format("2006-01-02"), ts.EndDate().Format("2006-01-02"),
				first.Format("2006-01-02"), to.Format("2006-01-02"))
		}
	}

	p.From, p.To = from, to
	x, y, err := e.alignedReturns(a, b, p)
	if err != nil {
		return 0, err
	}
	return stat.Correlation(x, y, nil), nil
}

// alignedReturns computes rolling returns for both series on the requested
// as-on dates and keeps the dates present in both.
func (e *Engine) alignedReturns(a, b *timeseries.TimeSeries, p StatParams) ([]float64, []float64, error) {
	from, to, err := p.window(a, b)
	if err != nil {
		return nil, nil, err
	}
	if p.Frequency.IsZero() {
		p.Frequency = a.Frequency()
	}

	rp := p.rolling()
	rp.ReturnActualDate = false

	ra, err := a.RollingReturns(from, to, rp)
	if err != nil {
		return nil, nil, fmt.Errorf("rolling returns of first series: %w", err)
	}
	rb, err := b.RollingReturns(from, to, rp)
	if err != nil {
		return nil, nil, fmt.Errorf("rolling returns of second series: %w", err)
	}

	x := make([]float64, 0, ra.Len())
	y := make([]float64, 0, ra.Len())
	for d, v := range ra.All() {
		if w, ok := rb.Lookup(d); ok {
			x = append(x, v)
			y = append(y, w)
		}
	}
	if len(x) < 2 {
		return nil, nil, fmt.Errorf("%w: need at least two common return dates between %s and %s, got %d",
			contracts.ErrValidation, from.Format("2006-01-02"), to.Format("2006-01-02"), len(x))
	}
	if len(x) < ra.Len() || len(x) < rb.Len() {
		e.logger().Debugf("aligned %d of %d/%d return dates", len(x), ra.Len(), rb.Len())
	}
	return x, y, nil
}

// =============================================================================
// Jensen's alpha
// =============================================================================

// JensensAlpha combines the realised returns of asset and market over the
// whole window as asset - rf + beta*(market - rf). The realised returns are
// compounded when the window is longer than a year. Beta uses p with its
// window starting one return period after the realised window.
func (e *Engine) JensensAlpha(asset, market *timeseries.TimeSeries, rf RiskFree, p StatParams) (float64, error) {
	if rf == nil {
		return 0, fmt.Errorf("%w: risk-free input is required", contracts.ErrValidation)
	}

	window := p
	if window.From.IsZero() {
		// realised returns span the whole common range
		window.From = latestStart(asset, market)
	}
	from, to, err := window.window(asset, market)
	if err != nil {
		return 0, err
	}

	days := calendar.DaysBetween(from, to)
	if days <= 0 {
		return 0, fmt.Errorf("%w: Jensen's alpha needs a window longer than a day", contracts.ErrValidation)
	}
	realised := p.ReturnParams
	realised.PeriodUnit = calendar.Days
	realised.PeriodValue = days
	realised.Compounding = timeseries.CompoundOff
	if days > 365 {
		realised.Compounding = timeseries.CompoundOn
	}

	assetRet, err := asset.CalculateReturns(to, realised)
	if err != nil {
		return 0, fmt.Errorf("asset return: %w", err)
	}
	marketRet, err := market.CalculateReturns(to, realised)
	if err != nil {
		return 0, fmt.Errorf("market return: %w", err)
	}
	rate, err := rf.over(from, to)
	if err != nil {
		return 0, err
	}

	bp := p
	bp.From = p.period().Apply(from)
	bp.To = to
	beta, err := e.Beta(asset, market, bp)
	if err != nil {
		return 0, err
	}

	e.logger().WithFields(map[string]interface{}{
		"asset_return":  assetRet.Value,
		"market_return": marketRet.Value,
		"risk_free":     rate,
		"beta":          beta,
	}).Debug("jensen's alpha inputs")

	return assetRet.Value - rate + beta*(marketRet.Value-rate), nil
}

// latestStart returns the latest first date; zero when any series is
// missing so window reports the error.
func latestStart(series ...*timeseries.TimeSeries) time.Time {
	var latest time.Time
	for _, ts := range series {
		if ts == nil || ts.Len() == 0 {
			return time.Time{}
		}
		if ts.StartDate().After(latest) {
			latest = ts.StartDate()
		}
	}
	return latest
}

// =============================================================================
// Sharpe / Sortino
// =============================================================================

// SharpeRatio is (mean rolling return - rf) / annualised volatility. The
// rolling returns use p as given; volatility uses the same period with its
// own compounding default.
func (e *Engine) SharpeRatio(ts *timeseries.TimeSeries, rf RiskFree, p StatParams) (float64, error) {
	excess, err := e.excessReturn(ts, rf, p)
	if err != nil {
		return 0, err
	}
	vol, err := ts.Volatility(p.volatility(ts))
	if err != nil {
		return 0, err
	}
	return excess / vol, nil
}

// SortinoRatio replaces the Sharpe denominator with the annualised downside
// deviation: the root mean square of negative returns (n-1 denominator).
func (e *Engine) SortinoRatio(ts *timeseries.TimeSeries, rf RiskFree, p StatParams) (float64, error) {
	excess, err := e.excessReturn(ts, rf, p)
	if err != nil {
		return 0, err
	}

	vp := p.volatility(ts)
	returns, rp, err := ts.VolatilityReturns(vp)
	if err != nil {
		return 0, err
	}
	n := returns.Len()
	if n < 2 {
		return 0, fmt.Errorf("%w: downside deviation needs at least two returns, got %d", contracts.ErrValidation, n)
	}

	var sumSq float64
	for _, r := range returns.Values().NumberValues() {
		if r < 0 {
			sumSq += r * r
		}
	}
	tradedDays := vp.TradedDays
	if tradedDays <= 0 {
		tradedDays = ts.Options().TradedDays
	}
	downside := math.Sqrt(sumSq/float64(n-1)) * timeseries.AnnualizationFactor(rp, tradedDays)
	return excess / downside, nil
}

// excessReturn is the mean rolling return over the window minus rf.
func (e *Engine) excessReturn(ts *timeseries.TimeSeries, rf RiskFree, p StatParams) (float64, error) {
	if rf == nil {
		return 0, fmt.Errorf("%w: risk-free input is required", contracts.ErrValidation)
	}
	from, to, err := p.window(ts)
	if err != nil {
		return 0, err
	}
	rolling, err := ts.RollingReturns(from, to, p.rolling())
	if err != nil {
		return 0, err
	}
	if rolling.Len() == 0 {
		return 0, fmt.Errorf("%w: no rolling returns between %s and %s", contracts.ErrValidation,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	rate, err := rf.over(from, to)
	if err != nil {
		return 0, err
	}
	return rolling.Mean() - rate, nil
}

func (p StatParams) volatility(ts *timeseries.TimeSeries) timeseries.VolatilityParams {
	from, to, err := p.window(ts)
	if err != nil {
		from, to = p.From, p.To
	}
	rp := p.ReturnParams
	if rp.PeriodUnit == "" {
		rp.PeriodUnit = calendar.Years
	}
	return timeseries.VolatilityParams{
		From:         from,
		To:           to,
		Annualize:    true,
		TradedDays:   p.TradedDays,
		Frequency:    p.Frequency,
		ReturnParams: rp,
	}
}
