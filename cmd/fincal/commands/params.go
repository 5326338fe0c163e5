package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/risk"
	"github.com/wonny/fincal/internal/timeseries"
)

// returnFlags hold the return-calculation parameters shared by every
// statistic command
type returnFlags struct {
	periodUnit  string
	period      int
	compounding string
	closest     string
	asOnMatch   string
	priorMatch  string
	maxDays     int
	ifNotFound  string
	actualDate  bool
	rollingFreq string

	from string
	to   string
}

// bind registers the flags on cmd; unit is the default period unit
func (rf *returnFlags) bind(cmd *cobra.Command, unit calendar.Unit) {
	f := cmd.Flags()
	f.StringVar(&rf.periodUnit, "period-unit", string(unit), "수익률 기간 단위 (days, months, years)")
	f.IntVar(&rf.period, "period", 1, "수익률 기간 길이")
	f.StringVar(&rf.compounding, "compounding", "auto", "연율화 복리 (auto, on, off)")
	f.StringVar(&rf.closest, "closest", "", "날짜 매칭 (previous, next, exact; 기본: options closest)")
	f.StringVar(&rf.asOnMatch, "as-on-match", "closest", "기준일 매칭 (closest, previous, next, exact)")
	f.StringVar(&rf.priorMatch, "prior-match", "closest", "이전 시점 매칭 (closest, previous, next, exact)")
	f.IntVar(&rf.maxDays, "closest-max-days", -1, "근접 날짜 탐색 최대 일수 (-1=무제한)")
	f.StringVar(&rf.ifNotFound, "if-not-found", "fail", "날짜 없음 처리 (fail, nan)")
	f.BoolVar(&rf.actualDate, "actual-date", true, "매칭된 실제 날짜로 결과 표시")
	f.StringVar(&rf.rollingFreq, "rolling-freq", "", "롤링 기준일 빈도 (기본: 시계열 빈도)")
	f.StringVar(&rf.from, "from", "", "계산 구간 시작일 (YYYY-MM-DD)")
	f.StringVar(&rf.to, "to", "", "계산 구간 종료일 (YYYY-MM-DD)")
}

func parseCompounding(s string) (timeseries.Compounding, error) {
	switch s {
	case "", "auto":
		return timeseries.CompoundAuto, nil
	case "on", "true":
		return timeseries.CompoundOn, nil
	case "off", "false":
		return timeseries.CompoundOff, nil
	default:
		return 0, fmt.Errorf("%w: invalid compounding %q: must be auto, on or off", contracts.ErrValidation, s)
	}
}

func (rf *returnFlags) returnParams() (timeseries.ReturnParams, error) {
	p := timeseries.DefaultReturnParams()

	unit, err := calendar.ParseUnit(rf.periodUnit)
	if err != nil {
		return p, err
	}
	p.PeriodUnit, p.PeriodValue = unit, rf.period

	if p.Compounding, err = parseCompounding(rf.compounding); err != nil {
		return p, err
	}
	if rf.closest != "" {
		if p.Closest, err = contracts.ParseMatch(rf.closest); err != nil {
			return p, err
		}
	}
	if p.AsOnMatch, err = contracts.ParseMatch(rf.asOnMatch); err != nil {
		return p, err
	}
	if p.PriorMatch, err = contracts.ParseMatch(rf.priorMatch); err != nil {
		return p, err
	}
	if p.OnFailure, err = contracts.ParseFailurePolicy(rf.ifNotFound); err != nil {
		return p, err
	}
	p.ClosestMaxDays = rf.maxDays
	p.ReturnActualDate = rf.actualDate
	return p, nil
}

func (rf *returnFlags) frequency() (calendar.Frequency, error) {
	if rf.rollingFreq == "" {
		return calendar.Frequency{}, nil
	}
	return calendar.FrequencyFor(rf.rollingFreq)
}

func (rf *returnFlags) window() (time.Time, time.Time, error) {
	from, err := parseDateFlag("from", rf.from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDateFlag("to", rf.to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (rf *returnFlags) statParams(tradedDays int) (risk.StatParams, error) {
	rp, err := rf.returnParams()
	if err != nil {
		return risk.StatParams{}, err
	}
	freq, err := rf.frequency()
	if err != nil {
		return risk.StatParams{}, err
	}
	from, to, err := rf.window()
	if err != nil {
		return risk.StatParams{}, err
	}
	return risk.StatParams{From: from, To: to, Frequency: freq, TradedDays: tradedDays, ReturnParams: rp}, nil
}

// parseDateFlag parses a date flag with the configured date format; empty
// means unset
func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := calendar.Parse(value, "")
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}
