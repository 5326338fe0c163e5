package timeseries

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
)

// =============================================================================
// Parameters
// =============================================================================

// Compounding controls whether a return is annualised with a fractional
// year exponent.
type Compounding int

const (
	// CompoundAuto compounds in CalculateReturns and RollingReturns; in
	// Volatility it compounds only for periods longer than a year
	CompoundAuto Compounding = iota
	CompoundOn
	CompoundOff
)

func (c Compounding) enabled(auto bool) bool {
	switch c {
	case CompoundOn:
		return true
	case CompoundOff:
		return false
	default:
		return auto
	}
}

// ReturnParams configure a single return calculation.
type ReturnParams struct {
	// AsOnMatch and PriorMatch pick how each end of the period is matched;
	// "closest" (or empty) uses Closest
	AsOnMatch  contracts.Match
	PriorMatch contracts.Match
	// Closest is previous, next or exact; empty uses the configured default
	Closest contracts.Match
	// ClosestMaxDays bounds the closest-date walk; -1 means no limit
	ClosestMaxDays int
	OnFailure      contracts.FailurePolicy

	Compounding Compounding
	PeriodUnit  calendar.Unit
	PeriodValue int

	// ReturnActualDate reports the matched date instead of the requested one
	ReturnActualDate bool
}

// DefaultReturnParams returns one-year compounded returns with closest
// matching and no search limit.
func DefaultReturnParams() ReturnParams {
	return ReturnParams{
		AsOnMatch:        contracts.MatchClosest,
		PriorMatch:       contracts.MatchClosest,
		ClosestMaxDays:   -1,
		OnFailure:        contracts.FailRaise,
		Compounding:      CompoundAuto,
		PeriodUnit:       calendar.Years,
		PeriodValue:      1,
		ReturnActualDate: true,
	}
}

// Period returns the return period as a calendar offset.
func (p ReturnParams) Period() calendar.Offset {
	return calendar.OffsetFor(p.PeriodUnit, p.PeriodValue)
}

// Years returns the return period in years.
func (p ReturnParams) Years() float64 {
	return calendar.YearsEquivalent(p.PeriodUnit, p.PeriodValue)
}

// resolvedParams are ReturnParams after validation and defaulting.
type resolvedParams struct {
	ReturnParams
	asOn  contracts.Match
	prior contracts.Match
}

// resolveParams validates p, filling empty fields from defaults. Invalid policy
// strings fail with ErrValidation.
func (ts *TimeSeries) resolveParams(p ReturnParams) (resolvedParams, error) {
	if p.Closest == "" {
		p.Closest = contracts.Match(ts.Options().Closest)
	}
	closest, err := contracts.ParseMatch(string(p.Closest))
	if err != nil {
		return resolvedParams{}, err
	}
	if closest == contracts.MatchClosest {
		return resolvedParams{}, fmt.Errorf("%w: closest must be previous, next or exact", contracts.ErrValidation)
	}

	asOn, err := parseSide(p.AsOnMatch, closest, "as_on_match")
	if err != nil {
		return resolvedParams{}, err
	}
	prior, err := parseSide(p.PriorMatch, closest, "prior_match")
	if err != nil {
		return resolvedParams{}, err
	}

	if p.OnFailure == "" {
		p.OnFailure = contracts.FailRaise
	}
	if _, err := contracts.ParseFailurePolicy(string(p.OnFailure)); err != nil {
		return resolvedParams{}, err
	}

	if p.PeriodUnit == "" {
		p.PeriodUnit = calendar.Years
	}
	if _, err := calendar.ParseUnit(string(p.PeriodUnit)); err != nil {
		return resolvedParams{}, err
	}
	if p.PeriodValue == 0 {
		p.PeriodValue = 1
	}
	if p.PeriodValue < 0 {
		return resolvedParams{}, fmt.Errorf("%w: return period must be positive, got %d", contracts.ErrValidation, p.PeriodValue)
	}

	return resolvedParams{ReturnParams: p, asOn: asOn, prior: prior}, nil
}

func parseSide(m, closest contracts.Match, name string) (contracts.Match, error) {
	if _, err := contracts.ParseMatch(string(m.Resolve(closest))); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return m.Resolve(closest), nil
}

// =============================================================================
// Returns
// =============================================================================

// CalculateReturns computes the return over one period ending at asOn:
// current/previous - 1, raised to 1/years first when compounding. When
// either side cannot be found and OnFailure is nan, (asOn, NaN) is
// returned without error.
func (ts *TimeSeries) CalculateReturns(asOn time.Time, p ReturnParams) (Pair, error) {
	rp, err := ts.resolveParams(p)
	if err != nil {
		return Pair{}, err
	}
	return ts.calculateReturns(calendar.Day(asOn), rp)
}

func (ts *TimeSeries) calculateReturns(asOn time.Time, rp resolvedParams) (Pair, error) {
	priorDate := rp.Period().Neg().Apply(asOn)

	current, err := ts.resolve(asOn, rp.ClosestMaxDays, rp.asOn, rp.OnFailure)
	if err != nil {
		return Pair{}, err
	}
	if current.IsNaN() {
		return Pair{Date: asOn, Value: math.NaN()}, nil
	}

	previous, err := ts.resolve(priorDate, rp.ClosestMaxDays, rp.prior, rp.OnFailure)
	if err != nil {
		return Pair{}, err
	}
	if previous.IsNaN() {
		return Pair{Date: asOn, Value: math.NaN()}, nil
	}

	ratio := current.Value / previous.Value
	if rp.Compounding.enabled(true) {
		ratio = math.Pow(ratio, 1/rp.Years())
	}

	date := asOn
	if rp.ReturnActualDate {
		date = current.Date
	}
	return Pair{Date: date, Value: ratio - 1}, nil
}

// RollingParams configure RollingReturns.
type RollingParams struct {
	ReturnParams
	// Frequency of the as-on dates; zero uses the container's frequency
	Frequency calendar.Frequency
}

// DefaultRollingParams returns DefaultReturnParams at the container's
// frequency.
func DefaultRollingParams() RollingParams {
	return RollingParams{ReturnParams: DefaultReturnParams()}
}

// RollingReturns computes CalculateReturns at every date from..to at the
// requested frequency. Daily rolling returns are computed only on dates
// present in the container. The result is sorted by date.
func (ts *TimeSeries) RollingReturns(from, to time.Time, p RollingParams) (*TimeSeries, error) {
	rp, err := ts.resolveParams(p.ReturnParams)
	if err != nil {
		return nil, err
	}
	freq := p.Frequency
	if freq.IsZero() {
		freq = ts.freq
	}

	dates, err := calendar.Generate(from, to, freq, calendar.GenerateOptions{})
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, len(dates))
	for _, d := range dates {
		if freq == calendar.Daily && !ts.Contains(d) {
			continue
		}
		r, err := ts.calculateReturns(d, rp)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, r)
	}

	out := &TimeSeries{freq: freq, opts: ts.opts, log: ts.log}
	if dupes := out.load(pairs); len(dupes) > 0 {
		ts.logger().Debugf("rolling returns: %d as-on dates matched an already used date", len(dupes))
	}
	return out, nil
}

// =============================================================================
// Volatility
// =============================================================================

// VolatilityParams configure Volatility.
type VolatilityParams struct {
	// From defaults to the first date plus one return period, To to the
	// last date
	From time.Time
	To   time.Time

	Annualize bool
	// TradedDays per year for day-denominated periods; 0 uses the
	// configured default
	TradedDays int
	Frequency  calendar.Frequency

	ReturnParams
}

// DefaultVolatilityParams returns annualised volatility of one-day returns.
func DefaultVolatilityParams() VolatilityParams {
	rp := DefaultReturnParams()
	rp.PeriodUnit = calendar.Days
	rp.PeriodValue = 1
	return VolatilityParams{Annualize: true, ReturnParams: rp}
}

// Volatility is the sample standard deviation of rolling returns,
// multiplied by sqrt(12/value) for monthly periods or
// sqrt(tradedDays/value) for daily periods when annualised.
func (ts *TimeSeries) Volatility(p VolatilityParams) (float64, error) {
	rolling, rp, err := ts.VolatilityReturns(p)
	if err != nil {
		return 0, err
	}
	if rolling.Len() < 2 {
		return 0, fmt.Errorf("%w: volatility needs at least two returns, got %d", contracts.ErrValidation, rolling.Len())
	}

	sd := stat.StdDev(rolling.values, nil)
	if p.Annualize {
		sd *= AnnualizationFactor(rp, ts.tradedDays(p.TradedDays))
	}
	return sd, nil
}

// VolatilityReturns returns the rolling returns Volatility is computed
// from, together with the return parameters after defaulting.
func (ts *TimeSeries) VolatilityReturns(p VolatilityParams) (*TimeSeries, ReturnParams, error) {
	rp := p.ReturnParams
	if rp.PeriodUnit == "" {
		rp.PeriodUnit = calendar.Days
	}
	if rp.PeriodValue == 0 {
		rp.PeriodValue = 1
	}
	if rp.Compounding == CompoundAuto {
		rp.Compounding = CompoundOff
		if rp.Years() > 1 {
			rp.Compounding = CompoundOn
		}
	}

	from, to := p.From, p.To
	if from.IsZero() {
		from = rp.Period().Apply(ts.StartDate())
	}
	if to.IsZero() {
		to = ts.EndDate()
	}

	rolling, err := ts.RollingReturns(from, to, RollingParams{ReturnParams: rp, Frequency: p.Frequency})
	if err != nil {
		return nil, rp, err
	}
	return rolling, rp, nil
}

// AnnualizationFactor scales a standard deviation of rp-period returns to a
// yearly figure. Year-denominated periods are not scaled.
func AnnualizationFactor(rp ReturnParams, tradedDays int) float64 {
	value := rp.PeriodValue
	if value <= 0 {
		value = 1
	}
	switch rp.PeriodUnit {
	case calendar.Months:
		return math.Sqrt(12 / float64(value))
	case calendar.Days:
		return math.Sqrt(float64(tradedDays) / float64(value))
	default:
		return 1
	}
}

func (ts *TimeSeries) tradedDays(n int) int {
	if n > 0 {
		return n
	}
	return ts.Options().TradedDays
}

// =============================================================================
// Average rolling return
// =============================================================================

// AverageParams configure AverageRollingReturn. An empty PeriodUnit uses
// the unit of the container's frequency.
type AverageParams struct {
	From time.Time
	To   time.Time
	RollingParams
}

// DefaultAverageParams returns one-period returns at the container's
// frequency unit.
func DefaultAverageParams() AverageParams {
	rp := DefaultReturnParams()
	rp.PeriodUnit = ""
	rp.PeriodValue = 1
	return AverageParams{RollingParams: RollingParams{ReturnParams: rp}}
}

// AverageRollingReturn is the mean of rolling returns. Periods of a year or
// more are compounded; shorter periods are averaged uncompounded and the
// mean is annualised as (1+mean)^(1/years)-1. CompoundOff disables both.
func (ts *TimeSeries) AverageRollingReturn(p AverageParams) (float64, error) {
	rp := p.ReturnParams
	if rp.PeriodUnit == "" {
		rp.PeriodUnit = ts.freq.Unit
	}
	if rp.PeriodValue == 0 {
		rp.PeriodValue = 1
	}

	years := rp.Years()
	annualise := false
	if rp.Compounding != CompoundOff {
		if years >= 1 {
			rp.Compounding = CompoundOn
		} else {
			rp.Compounding = CompoundOff
			annualise = true
		}
	}

	from, to := p.From, p.To
	if from.IsZero() {
		from = rp.Period().Apply(ts.StartDate())
	}
	if to.IsZero() {
		to = ts.EndDate()
	}

	rolling, err := ts.RollingReturns(from, to, RollingParams{ReturnParams: rp, Frequency: p.Frequency})
	if err != nil {
		return 0, err
	}
	if rolling.Len() == 0 {
		return 0, fmt.Errorf("%w: no rolling returns between %s and %s", contracts.ErrValidation,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	mean := rolling.Mean()
	if annualise {
		mean = math.Pow(1+mean, 1/years) - 1
	}
	return mean, nil
}

// =============================================================================
// Drawdown
// =============================================================================

// Drawdown is the largest peak-to-trough decline.
type Drawdown struct {
	StartDate time.Time `json:"start_date"` // peak
	EndDate   time.Time `json:"end_date"`   // trough
	Drawdown  float64   `json:"drawdown"`   // trough/peak - 1, <= 0
}

// MaxDrawdown makes one forward pass tracking the running peak. Ties keep
// the earliest trough.
func (ts *TimeSeries) MaxDrawdown() (Drawdown, error) {
	if ts.Len() == 0 {
		return Drawdown{}, fmt.Errorf("%w: max drawdown of an empty series", contracts.ErrValidation)
	}

	var (
		peakDate  = ts.dates[0]
		peakValue float64
		best      Drawdown
		found     bool
	)
	for i, d := range ts.dates {
		v := ts.values[i]
		dd := 0.0
		if v > peakValue {
			peakDate, peakValue = d, v
		} else {
			dd = v/peakValue - 1
		}
		if !found || dd < best.Drawdown {
			best = Drawdown{StartDate: peakDate, EndDate: d, Drawdown: dd}
			found = true
		}
	}
	return best, nil
}
