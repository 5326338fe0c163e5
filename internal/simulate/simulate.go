package simulate

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/risk"
	"github.com/wonny/fincal/internal/timeseries"
	"github.com/wonny/fincal/pkg/logger"
)

// Simulator generates sample price series.
type Simulator struct {
	config Config
	rng    *rand.Rand
	log    *logger.Logger
}

// New 새 시뮬레이터 생성
func New(config Config, log *logger.Logger) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Default()
	}

	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Simulator{
		config: config,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:    log,
	}, nil
}

// Dates returns Periods dates from Start at the configured frequency.
func (s *Simulator) Dates() []time.Time {
	c := s.config
	skip := c.SkipWeekends && c.Frequency.Unit == calendar.Days && c.Frequency.Step == 1
	dates := make([]time.Time, 0, c.Periods)
	start := calendar.Day(c.Start)
	for i := 0; len(dates) < c.Periods; i++ {
		d := c.Frequency.Offset(i).Apply(start)
		if skip && calendar.IsWeekend(d) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// stepYears is the length of one period in years.
func (s *Simulator) stepYears() float64 {
	if s.config.SkipWeekends && s.config.Frequency.Unit == calendar.Days {
		return 1.0 / 252
	}
	return float64(s.config.Frequency.ApproxDays) / 365
}

// =============================================================================
// Price paths
// =============================================================================

// Generate produces one price path using the configured method. history is
// required for bootstrap and ignored by GBM.
func (s *Simulator) Generate(ctx context.Context, history *timeseries.TimeSeries) (*Run, error) {
	var (
		returns []float64
		err     error
	)
	if s.config.Method == MethodBootstrap {
		if returns, err = periodReturns(history); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dates := s.Dates()
	values := s.path(len(dates), returns)

	pairs := make(timeseries.Pairs, len(dates))
	for i := range dates {
		pairs[i] = timeseries.Pair{Date: dates[i], Value: values[i]}
	}
	ts, err := timeseries.New(pairs, s.config.Frequency, timeseries.WithLogger(s.log))
	if err != nil {
		return nil, err
	}

	run := &Run{ID: uuid.New().String(), Config: s.config, Series: ts}
	s.log.WithFields(map[string]interface{}{
		"run_id":  run.ID,
		"method":  string(s.config.Method),
		"periods": len(dates),
	}).Debug("generated price path")
	return run, nil
}

// path returns n prices starting at Initial. With returns it resamples
// them, otherwise it takes GBM steps.
func (s *Simulator) path(n int, returns []float64) []float64 {
	values := make([]float64, n)
	price := s.config.Initial
	for i := range values {
		if i > 0 {
			price *= 1 + s.step(returns)
		}
		values[i] = price
	}
	return values
}

// step draws one period return.
func (s *Simulator) step(returns []float64) float64 {
	if len(returns) > 0 {
		return returns[s.rng.IntN(len(returns))]
	}
	dt := s.stepYears()
	mu, sigma := s.config.Drift, s.config.Volatility
	z := s.rng.NormFloat64()
	return math.Exp((mu-sigma*sigma/2)*dt+sigma*math.Sqrt(dt)*z) - 1
}

// =============================================================================
// Monte Carlo
// =============================================================================

// MonteCarlo simulates Paths paths of Periods-1 steps and summarises the
// distribution of their total returns.
func (s *Simulator) MonteCarlo(ctx context.Context, history *timeseries.TimeSeries) (*Summary, error) {
	var (
		returns []float64
		err     error
	)
	if s.config.Method == MethodBootstrap {
		if returns, err = periodReturns(history); err != nil {
			return nil, err
		}
	}
	if s.config.Paths <= 0 {
		return nil, fmt.Errorf("%w: Paths must be > 0", ErrInvalidConfig)
	}

	totals := make([]float64, s.config.Paths)
	for i := range totals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cum := 1.0
		for range s.config.Periods - 1 {
			cum *= 1 + s.step(returns)
		}
		totals[i] = cum - 1
	}

	sorted := slices.Clone(totals)
	slices.Sort(sorted)
	percentiles := make([]Percentile, 0, len(s.config.Percentiles))
	for _, p := range s.config.Percentiles {
		percentiles = append(percentiles, Percentile{Level: p, Return: stat.Quantile(p, stat.LinInterp, sorted, nil)})
	}

	mean, sd := stat.MeanStdDev(totals, nil)
	summary := &Summary{
		RunID:       uuid.New().String(),
		RunDate:     time.Now(),
		Config:      s.config,
		InputCount:  len(returns),
		MeanReturn:  mean,
		StdDev:      sd,
		Risk:        risk.CalculateVaR(totals, s.config.Confidence),
		Percentiles: percentiles,
	}
	s.log.WithFields(map[string]interface{}{
		"run_id": summary.RunID,
		"paths":  s.config.Paths,
		"var":    summary.Risk.VaR,
	}).Info("monte carlo finished")
	return summary, nil
}

// periodReturns are the one-period simple returns between consecutive
// observations of history.
func periodReturns(history *timeseries.TimeSeries) ([]float64, error) {
	if history == nil || history.Len() < 2 {
		return nil, fmt.Errorf("%w: bootstrap needs a history of at least two observations", ErrInsufficientData)
	}
	values := history.Values().NumberValues()
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 || math.IsNaN(values[i]) || math.IsNaN(values[i-1]) {
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	if len(returns) == 0 {
		return nil, fmt.Errorf("%w: history has no usable returns", ErrInsufficientData)
	}
	return returns, nil
}
