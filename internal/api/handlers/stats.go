package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/risk"
	"github.com/wonny/fincal/internal/timeseries"
	"github.com/wonny/fincal/pkg/logger"
)

// StatsHandler exposes the return and risk calculations over HTTP
// ⭐ SSOT: 통계 API 핸들러는 이 구조체에서만
type StatsHandler struct {
	engine *risk.Engine
	logger *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(engine *risk.Engine, log *logger.Logger) *StatsHandler {
	return &StatsHandler{engine: engine, logger: log}
}

// decode reads the request body and builds the primary series
func (h *StatsHandler) decode(w http.ResponseWriter, r *http.Request) (*StatRequest, *timeseries.TimeSeries, bool) {
	var req StatRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return nil, nil, false
	}
	ts, err := req.series(h.logger)
	if err != nil {
		h.fail(w, err)
		return nil, nil, false
	}
	return &req, ts, true
}

// Returns computes a single-period return
// POST /api/returns
func (h *StatsHandler) Returns(w http.ResponseWriter, r *http.Request) {
	req, ts, ok := h.decode(w, r)
	if !ok {
		return
	}
	asOn, err := req.date(req.AsOn, "as_on")
	if err != nil {
		h.fail(w, err)
		return
	}
	if asOn.IsZero() {
		asOn = ts.EndDate()
	}
	p, err := req.returnParams(timeseries.DefaultReturnParams())
	if err != nil {
		h.fail(w, err)
		return
	}

	res, err := ts.CalculateReturns(asOn, p)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, point(res))
}

// RollingReturns computes returns at every date of a window
// POST /api/rolling-returns
func (h *StatsHandler) RollingReturns(w http.ResponseWriter, r *http.Request) {
	req, ts, ok := h.decode(w, r)
	if !ok {
		return
	}
	sp, err := req.statParams()
	if err != nil {
		h.fail(w, err)
		return
	}
	from, to := sp.From, sp.To
	if from.IsZero() {
		from = sp.Period().Apply(ts.StartDate())
	}
	if to.IsZero() {
		to = ts.EndDate()
	}

	rolling, err := ts.RollingReturns(from, to, timeseries.RollingParams{ReturnParams: sp.ReturnParams, Frequency: sp.Frequency})
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := SeriesResponse{Frequency: rolling.Frequency().Symbol, Points: make([]Point, 0, rolling.Len())}
	for _, p := range rolling.Pairs() {
		resp.Points = append(resp.Points, point(p))
	}
	respondJSON(w, http.StatusOK, resp)
}

// Volatility computes (annualised) volatility
// POST /api/volatility
func (h *StatsHandler) Volatility(w http.ResponseWriter, r *http.Request) {
	req, ts, ok := h.decode(w, r)
	if !ok {
		return
	}
	def := timeseries.DefaultVolatilityParams()
	rp, err := req.returnParams(def.ReturnParams)
	if err != nil {
		h.fail(w, err)
		return
	}
	from, to, err := req.window()
	if err != nil {
		h.fail(w, err)
		return
	}
	freq, err := req.rollingFrequency()
	if err != nil {
		h.fail(w, err)
		return
	}
	vp := timeseries.VolatilityParams{
		From:         from,
		To:           to,
		Annualize:    req.Annualize == nil || *req.Annualize,
		TradedDays:   req.TradedDays,
		Frequency:    freq,
		ReturnParams: rp,
	}
	vol, err := ts.Volatility(vp)
	h.scalar(w, "volatility", vol, err)
}

// Drawdown computes the maximum drawdown
// POST /api/drawdown
func (h *StatsHandler) Drawdown(w http.ResponseWriter, r *http.Request) {
	_, ts, ok := h.decode(w, r)
	if !ok {
		return
	}
	dd, err := ts.MaxDrawdown()
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DrawdownResponse{
		StartDate: dd.StartDate.Format("2006-01-02"),
		EndDate:   dd.EndDate.Format("2006-01-02"),
		Drawdown:  number(dd.Drawdown),
	})
}

// Beta computes beta of series against other
// POST /api/beta
func (h *StatsHandler) Beta(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "beta", func(req *StatRequest, a, b *timeseries.TimeSeries, p risk.StatParams) (float64, error) {
		return h.engine.Beta(a, b, p)
	})
}

// Alpha computes Jensen's alpha of series against other
// POST /api/alpha
func (h *StatsHandler) Alpha(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "jensens_alpha", func(req *StatRequest, a, b *timeseries.TimeSeries, p risk.StatParams) (float64, error) {
		rf, err := req.riskFree(h.logger)
		if err != nil {
			return 0, err
		}
		return h.engine.JensensAlpha(a, b, rf, p)
	})
}

// Correlation computes the correlation of series and other
// POST /api/correlation
func (h *StatsHandler) Correlation(w http.ResponseWriter, r *http.Request) {
	h.pair(w, r, "correlation", func(_ *StatRequest, a, b *timeseries.TimeSeries, p risk.StatParams) (float64, error) {
		return h.engine.Correlation(a, b, p)
	})
}

// Sharpe computes the Sharpe ratio
// POST /api/sharpe
func (h *StatsHandler) Sharpe(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, "sharpe_ratio", func(req *StatRequest, ts *timeseries.TimeSeries, p risk.StatParams) (float64, error) {
		rf, err := req.riskFree(h.logger)
		if err != nil {
			return 0, err
		}
		return h.engine.SharpeRatio(ts, rf, p)
	})
}

// Sortino computes the Sortino ratio
// POST /api/sortino
func (h *StatsHandler) Sortino(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, "sortino_ratio", func(req *StatRequest, ts *timeseries.TimeSeries, p risk.StatParams) (float64, error) {
		rf, err := req.riskFree(h.logger)
		if err != nil {
			return 0, err
		}
		return h.engine.SortinoRatio(ts, rf, p)
	})
}

// VaR computes historical or parametric value at risk
// POST /api/var
func (h *StatsHandler) VaR(w http.ResponseWriter, r *http.Request) {
	req, ts, ok := h.decode(w, r)
	if !ok {
		return
	}
	p, err := req.statParams()
	if err != nil {
		h.fail(w, err)
		return
	}
	confidence := req.Confidence
	if confidence == 0 {
		confidence = 0.95
	}

	var res risk.VaRResult
	switch req.Method {
	case "", "historical":
		res, err = h.engine.ValueAtRisk(ts, confidence, p)
	case "parametric":
		res, err = h.engine.ParametricVaR(ts, confidence, p)
	default:
		err = fmt.Errorf("%w: unknown VaR method %q", contracts.ErrValidation, req.Method)
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type singleFunc func(req *StatRequest, ts *timeseries.TimeSeries, p risk.StatParams) (float64, error)

type pairFunc func(req *StatRequest, a, b *timeseries.TimeSeries, p risk.StatParams) (float64, error)

func (h *StatsHandler) single(w http.ResponseWriter, r *http.Request, name string, fn singleFunc) {
	req, ts, ok := h.decode(w, r)
	if !ok {
		return
	}
	p, err := req.statParams()
	if err != nil {
		h.fail(w, err)
		return
	}
	v, err := fn(req, ts, p)
	h.scalar(w, name, v, err)
}

func (h *StatsHandler) pair(w http.ResponseWriter, r *http.Request, name string, fn pairFunc) {
	req, a, ok := h.decode(w, r)
	if !ok {
		return
	}
	b, err := req.other(h.logger)
	if err != nil {
		h.fail(w, err)
		return
	}
	p, err := req.statParams()
	if err != nil {
		h.fail(w, err)
		return
	}
	v, err := fn(req, a, b, p)
	h.scalar(w, name, v, err)
}

func (h *StatsHandler) scalar(w http.ResponseWriter, name string, v float64, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ValueResponse{Statistic: name, Value: number(v)})
}

// fail maps calculation errors onto HTTP statuses
func (h *StatsHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("Statistic calculation failed")
		respondError(w, status, "Internal server error")
		return
	}
	h.logger.WithError(err).Debug("Rejected statistics request")
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrParse),
		errors.Is(err, contracts.ErrValidation),
		errors.Is(err, contracts.ErrUnknownFrequency):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrOutOfRange):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
