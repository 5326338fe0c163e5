package simulate

import (
	"errors"
	"fmt"
	"time"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/risk"
	"github.com/wonny/fincal/internal/timeseries"
)

var (
	ErrInsufficientData = errors.New("insufficient data for simulation")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Method 시뮬레이션 방법
type Method string

const (
	MethodGBM       Method = "gbm"       // geometric Brownian motion
	MethodBootstrap Method = "bootstrap" // 과거 수익률 재샘플링
)

// Config 시뮬레이션 설정
// ⭐ SSOT: 재현성을 위해 모든 설정을 명시적으로 기록
type Config struct {
	Method       Method             `json:"method"`
	Start        time.Time          `json:"start"`
	Periods      int                `json:"periods"` // 생성할 관측치 수
	Frequency    calendar.Frequency `json:"-"`
	SkipWeekends bool               `json:"skip_weekends"`
	Initial      float64            `json:"initial"`    // 시작 가격
	Drift        float64            `json:"drift"`      // 연간 기대수익률 (GBM)
	Volatility   float64            `json:"volatility"` // 연간 변동성 (GBM)
	Seed         uint64             `json:"seed"`       // 재현성용 시드 (0=랜덤)

	// Monte Carlo summary
	Paths       int       `json:"paths"`
	Confidence  float64   `json:"confidence"`
	Percentiles []float64 `json:"percentiles"`
}

// DefaultConfig 기본 설정: 2년치 일별 GBM 가격
func DefaultConfig() Config {
	return Config{
		Method:       MethodGBM,
		Start:        calendar.Date(2020, time.January, 1),
		Periods:      504,
		Frequency:    calendar.Daily,
		SkipWeekends: true,
		Initial:      100,
		Drift:        0.08,
		Volatility:   0.2,
		Paths:        1000,
		Confidence:   0.95,
		Percentiles:  []float64{0.01, 0.05, 0.25, 0.5, 0.75, 0.95, 0.99},
	}
}

// Validate 설정 유효성 검사
func (c Config) Validate() error {
	if c.Method != MethodGBM && c.Method != MethodBootstrap {
		return fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, c.Method)
	}
	if c.Periods <= 0 {
		return fmt.Errorf("%w: Periods must be > 0", ErrInvalidConfig)
	}
	if c.Frequency.IsZero() {
		return fmt.Errorf("%w: Frequency is required", ErrInvalidConfig)
	}
	if c.Initial <= 0 {
		return fmt.Errorf("%w: Initial must be > 0", ErrInvalidConfig)
	}
	if c.Volatility < 0 {
		return fmt.Errorf("%w: Volatility must be >= 0", ErrInvalidConfig)
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("%w: Confidence must be between 0 and 1", ErrInvalidConfig)
	}
	for _, p := range c.Percentiles {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: percentile %g must be between 0 and 1", ErrInvalidConfig, p)
		}
	}
	return nil
}

// Run is one generated price path.
type Run struct {
	ID     string                 `json:"id"`
	Config Config                 `json:"config"`
	Series *timeseries.TimeSeries `json:"-"`
}

// Summary Monte Carlo 결과: 기간 전체 수익률 분포
type Summary struct {
	RunID       string         `json:"run_id"`
	RunDate     time.Time      `json:"run_date"`
	Config      Config         `json:"config"`
	InputCount  int            `json:"input_count"`
	MeanReturn  float64        `json:"mean_return"`
	StdDev      float64        `json:"std_dev"`
	Risk        risk.VaRResult `json:"risk"` // 손실 양수
	Percentiles []Percentile   `json:"percentiles"`
}

// Percentile is one point of the simulated total-return distribution.
type Percentile struct {
	Level  float64 `json:"level"`
	Return float64 `json:"return"`
}
