package calendar

import (
	"fmt"

	"github.com/wonny/fincal/internal/contracts"
)

// Unit is the calendar unit a frequency (or a return period) steps in.
type Unit string

const (
	Days   Unit = "days"
	Months Unit = "months"
	Years  Unit = "years"
)

// ParseUnit validates a period unit string.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(s); u {
	case Days, Months, Years:
		return u, nil
	default:
		return "", fmt.Errorf("%w: invalid period unit %q: must be days, months or years", contracts.ErrValidation, s)
	}
}

// Frequency describes one of the six supported sampling intervals.
// ApproxDays is only used to order frequencies by coarseness.
type Frequency struct {
	Name       string
	Unit       Unit
	Step       int
	ApproxDays int
	Symbol     string
}

// ⭐ SSOT: 지원 주기는 아래 6개뿐 (사용자 정의 불가)
var (
	Daily      = Frequency{Name: "daily", Unit: Days, Step: 1, ApproxDays: 1, Symbol: "D"}
	Weekly     = Frequency{Name: "weekly", Unit: Days, Step: 7, ApproxDays: 7, Symbol: "W"}
	Monthly    = Frequency{Name: "monthly", Unit: Months, Step: 1, ApproxDays: 30, Symbol: "M"}
	Quarterly  = Frequency{Name: "quarterly", Unit: Months, Step: 3, ApproxDays: 91, Symbol: "Q"}
	HalfYearly = Frequency{Name: "half-yearly", Unit: Months, Step: 6, ApproxDays: 182, Symbol: "H"}
	Annual     = Frequency{Name: "annual", Unit: Years, Step: 1, ApproxDays: 365, Symbol: "Y"}
)

// Frequencies returns all supported frequencies, finest first.
func Frequencies() []Frequency {
	return []Frequency{Daily, Weekly, Monthly, Quarterly, HalfYearly, Annual}
}

// FrequencyFor returns the frequency for a symbol (D, W, M, Q, H, Y).
// Matching is exact and case-sensitive.
func FrequencyFor(symbol string) (Frequency, error) {
	for _, f := range Frequencies() {
		if f.Symbol == symbol {
			return f, nil
		}
	}
	return Frequency{}, fmt.Errorf("%w: %q (expected one of D, W, M, Q, H, Y)", contracts.ErrUnknownFrequency, symbol)
}

// IsZero reports whether f is the zero value (no frequency chosen).
func (f Frequency) IsZero() bool {
	return f.Symbol == ""
}

// IsMonthStepped reports whether the frequency steps in months or years.
func (f Frequency) IsMonthStepped() bool {
	return f.Unit == Months || f.Unit == Years
}

// HigherThan reports whether f samples more often than other.
func (f Frequency) HigherThan(other Frequency) bool {
	return f.ApproxDays < other.ApproxDays
}

// LowerThan reports whether f samples less often than other.
func (f Frequency) LowerThan(other Frequency) bool {
	return f.ApproxDays > other.ApproxDays
}

// Compare orders frequencies by coarseness: -1 if a is finer than b.
func Compare(a, b Frequency) int {
	switch {
	case a.ApproxDays < b.ApproxDays:
		return -1
	case a.ApproxDays > b.ApproxDays:
		return 1
	default:
		return 0
	}
}

// Offset returns the calendar offset of n periods.
func (f Frequency) Offset(n int) Offset {
	return OffsetFor(f.Unit, f.Step*n)
}

func (f Frequency) String() string {
	return f.Name
}
