package risk

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/timeseries"
)

// =============================================================================
// VaR (Value at Risk)
// =============================================================================

// ValueAtRisk is the historical VaR/CVaR of the rolling returns of ts.
// Returns are not annualised unless p asks for compounding explicitly.
func (e *Engine) ValueAtRisk(ts *timeseries.TimeSeries, confidence float64, p StatParams) (VaRResult, error) {
	returns, err := e.periodReturns(ts, confidence, p)
	if err != nil {
		return VaRResult{}, err
	}
	return CalculateVaR(returns, confidence), nil
}

// ParametricVaR assumes normally distributed rolling returns with the
// sample mean and standard deviation of ts.
func (e *Engine) ParametricVaR(ts *timeseries.TimeSeries, confidence float64, p StatParams) (VaRResult, error) {
	returns, err := e.periodReturns(ts, confidence, p)
	if err != nil {
		return VaRResult{}, err
	}
	if len(returns) < 2 {
		return VaRResult{}, fmt.Errorf("%w: parametric VaR needs at least two returns, got %d", contracts.ErrValidation, len(returns))
	}
	mean, sd := stat.MeanStdDev(returns, nil)
	res := CalculateParametricVaR(mean, sd, confidence)
	res.Samples = len(returns)
	return res, nil
}

func (e *Engine) periodReturns(ts *timeseries.TimeSeries, confidence float64, p StatParams) ([]float64, error) {
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("%w: confidence must be between 0 and 1, got %g", contracts.ErrValidation, confidence)
	}
	from, to, err := p.window(ts)
	if err != nil {
		return nil, err
	}
	if p.Compounding == timeseries.CompoundAuto {
		p.Compounding = timeseries.CompoundOff
	}
	rolling, err := ts.RollingReturns(from, to, p.rolling())
	if err != nil {
		return nil, err
	}
	returns := make([]float64, 0, rolling.Len())
	for _, v := range rolling.All() {
		if !math.IsNaN(v) {
			returns = append(returns, v)
		}
	}
	if len(returns) == 0 {
		return nil, fmt.Errorf("%w: no returns between %s and %s", contracts.ErrValidation,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return returns, nil
}

// CalculateVaR 과거 수익률 기반 VaR 계산 (Historical Simulation)
// returns: 수익률 배열 (양수=이익, 음수=손실)
// 반환값: VaR는 손실을 양수로 표현 (예: 0.05 = 5% 손실 가능)
func CalculateVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	// 오름차순: 손실이 앞에
	sorted := slices.Clone(returns)
	slices.Sort(sorted)

	// 95% VaR = 하위 5% 백분위수
	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        lossPositive(sorted[idx]),
		CVaR:       CalculateCVaR(sorted, idx),
		Samples:    len(sorted),
	}
}

// CalculateCVaR Conditional VaR (Expected Shortfall) 계산
// sorted: 오름차순 정렬된 수익률, varIdx 이하가 tail
func CalculateCVaR(sorted []float64, varIdx int) float64 {
	if len(sorted) == 0 || varIdx < 0 {
		return 0
	}
	if varIdx >= len(sorted) {
		varIdx = len(sorted) - 1
	}
	return lossPositive(stat.Mean(sorted[:varIdx+1], nil))
}

// =============================================================================
// Parametric VaR (정규분포 가정)
// =============================================================================

// CalculateParametricVaR 정규분포 가정 VaR/CVaR
// VaR = z*σ - μ, CVaR = σ*φ(z)/(1-c) - μ
func CalculateParametricVaR(mean, stdDev, confidence float64) VaRResult {
	z := distuv.UnitNormal.Quantile(confidence)
	phi := distuv.UnitNormal.Prob(z)

	return VaRResult{
		Confidence: confidence,
		VaR:        math.Max(z*stdDev-mean, 0),
		CVaR:       math.Max(stdDev*phi/(1-confidence)-mean, 0),
	}
}

// lossPositive flips a return into a loss; gains report no loss.
func lossPositive(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}
