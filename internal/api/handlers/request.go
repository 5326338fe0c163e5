package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/risk"
	"github.com/wonny/fincal/internal/timeseries"
	"github.com/wonny/fincal/pkg/logger"
)

// StatRequest is the body accepted by every statistics endpoint. Series
// (and Other for two-series statistics) accept any construction shape:
// [[date, value]], [{date: value}], [{"date": d, "value": v}] or {date: value}.
type StatRequest struct {
	Series     json.RawMessage `json:"series"`
	Other      json.RawMessage `json:"other,omitempty"`
	Frequency  string          `json:"frequency"` // D, W, M, Q, H, Y
	DateFormat string          `json:"date_format,omitempty"`

	AsOn string `json:"as_on,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	PeriodUnit       string `json:"period_unit,omitempty"` // days, months, years
	PeriodValue      int    `json:"period_value,omitempty"`
	Compounding      *bool  `json:"compounding,omitempty"`
	Closest          string `json:"closest,omitempty"`
	AsOnMatch        string `json:"as_on_match,omitempty"`
	PriorMatch       string `json:"prior_match,omitempty"`
	ClosestMaxDays   *int   `json:"closest_max_days,omitempty"`
	OnFailure        string `json:"if_not_found,omitempty"` // fail, nan
	ReturnActualDate *bool  `json:"return_actual_date,omitempty"`
	RollingFrequency string `json:"rolling_frequency,omitempty"`

	Annualize  *bool `json:"annualize,omitempty"`
	TradedDays int   `json:"traded_days,omitempty"`

	RiskFreeRate   *float64        `json:"risk_free_rate,omitempty"`
	RiskFreeSeries json.RawMessage `json:"risk_free_series,omitempty"`

	Confidence float64 `json:"confidence,omitempty"`
	Method     string  `json:"method,omitempty"` // historical, parametric
}

// series builds the primary series.
func (req *StatRequest) series(log *logger.Logger) (*timeseries.TimeSeries, error) {
	return req.build(req.Series, "series", log)
}

// other builds the second series of a two-series statistic.
func (req *StatRequest) other(log *logger.Logger) (*timeseries.TimeSeries, error) {
	return req.build(req.Other, "other", log)
}

func (req *StatRequest) build(raw json.RawMessage, field string, log *logger.Logger) (*timeseries.TimeSeries, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: %q is required", contracts.ErrValidation, field)
	}
	if req.Frequency == "" {
		return nil, fmt.Errorf("%w: \"frequency\" is required", contracts.ErrValidation)
	}
	freq, err := calendar.FrequencyFor(req.Frequency)
	if err != nil {
		return nil, err
	}
	input, err := timeseries.DecodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	opts := []timeseries.Option{timeseries.WithLogger(log)}
	if req.DateFormat != "" {
		opts = append(opts, timeseries.WithDateFormat(req.DateFormat))
	}
	ts, err := timeseries.New(input, freq, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return ts, nil
}

func (req *StatRequest) date(s, field string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := calendar.Parse(s, req.DateFormat)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func (req *StatRequest) window() (time.Time, time.Time, error) {
	from, err := req.date(req.From, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := req.date(req.To, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// returnParams maps the request onto ReturnParams starting from def.
func (req *StatRequest) returnParams(def timeseries.ReturnParams) (timeseries.ReturnParams, error) {
	p := def
	if req.PeriodUnit != "" {
		unit, err := calendar.ParseUnit(req.PeriodUnit)
		if err != nil {
			return p, err
		}
		p.PeriodUnit = unit
	}
	if req.PeriodValue != 0 {
		p.PeriodValue = req.PeriodValue
	}
	if req.Compounding != nil {
		p.Compounding = timeseries.CompoundOff
		if *req.Compounding {
			p.Compounding = timeseries.CompoundOn
		}
	}
	for _, m := range []struct {
		raw string
		dst *contracts.Match
	}{
		{req.Closest, &p.Closest},
		{req.AsOnMatch, &p.AsOnMatch},
		{req.PriorMatch, &p.PriorMatch},
	} {
		if m.raw == "" {
			continue
		}
		match, err := contracts.ParseMatch(m.raw)
		if err != nil {
			return p, err
		}
		*m.dst = match
	}
	if req.ClosestMaxDays != nil {
		p.ClosestMaxDays = *req.ClosestMaxDays
	}
	if req.OnFailure != "" {
		policy, err := contracts.ParseFailurePolicy(req.OnFailure)
		if err != nil {
			return p, err
		}
		p.OnFailure = policy
	}
	if req.ReturnActualDate != nil {
		p.ReturnActualDate = *req.ReturnActualDate
	}
	return p, nil
}

func (req *StatRequest) rollingFrequency() (calendar.Frequency, error) {
	if req.RollingFrequency == "" {
		return calendar.Frequency{}, nil
	}
	return calendar.FrequencyFor(req.RollingFrequency)
}

func (req *StatRequest) statParams() (risk.StatParams, error) {
	rp, err := req.returnParams(timeseries.DefaultReturnParams())
	if err != nil {
		return risk.StatParams{}, err
	}
	from, to, err := req.window()
	if err != nil {
		return risk.StatParams{}, err
	}
	freq, err := req.rollingFrequency()
	if err != nil {
		return risk.StatParams{}, err
	}
	return risk.StatParams{From: from, To: to, Frequency: freq, TradedDays: req.TradedDays, ReturnParams: rp}, nil
}

func (req *StatRequest) riskFree(log *logger.Logger) (risk.RiskFree, error) {
	switch {
	case len(req.RiskFreeSeries) > 0 && string(req.RiskFreeSeries) != "null":
		ts, err := req.build(req.RiskFreeSeries, "risk_free_series", log)
		if err != nil {
			return nil, err
		}
		return risk.RateSeries{TimeSeries: ts}, nil
	case req.RiskFreeRate != nil:
		return risk.Rate(*req.RiskFreeRate), nil
	default:
		return nil, fmt.Errorf("%w: one of \"risk_free_rate\" or \"risk_free_series\" is required", contracts.ErrValidation)
	}
}

// =============================================================================
// Responses
// =============================================================================

// Point is a (date, value) pair in responses. NaN is rendered as null.
type Point struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

func point(p timeseries.Pair) Point {
	return Point{Date: p.Date.Format("2006-01-02"), Value: number(p.Value)}
}

// number maps NaN and ±Inf, which JSON cannot carry, to null.
func number(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ValueResponse carries a scalar statistic.
type ValueResponse struct {
	Statistic string   `json:"statistic"`
	Value     *float64 `json:"value"`
}

// SeriesResponse carries a derived time series.
type SeriesResponse struct {
	Frequency string  `json:"frequency"`
	Points    []Point `json:"points"`
}

// DrawdownResponse carries MaxDrawdown.
type DrawdownResponse struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Drawdown  *float64 `json:"drawdown"`
}
