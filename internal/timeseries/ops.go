package timeseries

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/series"
)

// Operand is the right-hand side of a container comparison or arithmetic
// operation: Scalar, Vector or *TimeSeries.
type Operand interface {
	tsOperand()
}

// Scalar broadcasts one number to every observation.
type Scalar float64

// Vector is a number series with one element per observation.
type Vector struct {
	series.Series
}

func (Scalar) tsOperand()      {}
func (Vector) tsOperand()      {}
func (*TimeSeries) tsOperand() {}

// operandValues validates o against ts and returns one right-hand value per
// observation. Nothing is computed until the shape is known to match.
func (ts *TimeSeries) operandValues(op string, o Operand) ([]float64, error) {
	switch v := o.(type) {
	case Scalar:
		out := make([]float64, ts.Len())
		for i := range out {
			out[i] = float64(v)
		}
		return out, nil
	case Vector:
		if v.Kind() != series.KindNumber {
			return nil, fmt.Errorf("%w: %s with a %s series", contracts.ErrType, op, v.Kind())
		}
		if v.Len() != ts.Len() {
			return nil, fmt.Errorf("%w: %s between series of length %d and %d", contracts.ErrLengthMismatch, op, ts.Len(), v.Len())
		}
		return v.NumberValues(), nil
	case *TimeSeries:
		if v == nil {
			return nil, fmt.Errorf("%w: %s with a nil time series", contracts.ErrType, op)
		}
		if !slices.EqualFunc(ts.dates, v.dates, func(a, b time.Time) bool { return a.Equal(b) }) {
			return nil, fmt.Errorf("%w: %s requires identical dates (%d vs %d observations)",
				contracts.ErrLengthMismatch, op, ts.Len(), v.Len())
		}
		return slices.Clone(v.values), nil
	case nil:
		return nil, fmt.Errorf("%w: %s with nil operand", contracts.ErrType, op)
	default:
		return nil, fmt.Errorf("%w: unsupported operand %T for %s", contracts.ErrType, o, op)
	}
}

// =============================================================================
// Comparisons
// =============================================================================

// Mask holds the boolean outcome of a comparison for each date.
type Mask struct {
	dates  []time.Time
	values []bool
	freq   calendar.Frequency
}

// Len returns the number of dates.
func (m *Mask) Len() int { return len(m.dates) }

// Frequency returns the frequency of the compared container.
func (m *Mask) Frequency() calendar.Frequency { return m.freq }

// Dates returns the dates as a date Series.
func (m *Mask) Dates() series.Series { return series.Dates(m.dates) }

// Values returns the outcomes as a bool Series, usable as a MaskKey.
func (m *Mask) Values() series.Series { return series.Bools(m.values) }

// Key returns the mask as an Index key.
func (m *Mask) Key() MaskKey { return MaskKey{Mask: m.Values()} }

// Get returns the outcome for date.
func (m *Mask) Get(date time.Time) (bool, bool) {
	date = calendar.Day(date)
	i, ok := slices.BinarySearchFunc(m.dates, date, func(a, b time.Time) int { return a.Compare(b) })
	if !ok {
		return false, false
	}
	return m.values[i], true
}

func (ts *TimeSeries) compare(op string, o Operand, fn func(a, b float64) bool) (*Mask, error) {
	rhs, err := ts.operandValues(op, o)
	if err != nil {
		return nil, err
	}
	out := make([]bool, ts.Len())
	for i, v := range ts.values {
		out[i] = fn(v, rhs[i])
	}
	return &Mask{dates: slices.Clone(ts.dates), values: out, freq: ts.freq}, nil
}

// Gt compares each value with >.
func (ts *TimeSeries) Gt(o Operand) (*Mask, error) {
	return ts.compare(">", o, func(a, b float64) bool { return a > b })
}

// Ge compares each value with >=.
func (ts *TimeSeries) Ge(o Operand) (*Mask, error) {
	return ts.compare(">=", o, func(a, b float64) bool { return a >= b })
}

// Lt compares each value with <.
func (ts *TimeSeries) Lt(o Operand) (*Mask, error) {
	return ts.compare("<", o, func(a, b float64) bool { return a < b })
}

// Le compares each value with <=.
func (ts *TimeSeries) Le(o Operand) (*Mask, error) {
	return ts.compare("<=", o, func(a, b float64) bool { return a <= b })
}

// Eq compares each value with ==.
func (ts *TimeSeries) Eq(o Operand) (*Mask, error) {
	return ts.compare("==", o, func(a, b float64) bool { return a == b })
}

// Ne compares each value with !=.
func (ts *TimeSeries) Ne(o Operand) (*Mask, error) {
	return ts.compare("!=", o, func(a, b float64) bool { return a != b })
}

// =============================================================================
// Arithmetic
// =============================================================================

// Division by zero follows IEEE 754 (±Inf or NaN); it is not an error.

func (ts *TimeSeries) arith(op string, o Operand, reversed bool, fn func(a, b float64) float64) (*TimeSeries, error) {
	rhs, err := ts.operandValues(op, o)
	if err != nil {
		return nil, err
	}
	out := make([]float64, ts.Len())
	for i, v := range ts.values {
		if reversed {
			out[i] = fn(rhs[i], v)
		} else {
			out[i] = fn(v, rhs[i])
		}
	}
	return ts.derive(slices.Clone(ts.dates), out, ts.freq), nil
}

func add(a, b float64) float64 { return a + b }
func sub(a, b float64) float64 { return a - b }
func mul(a, b float64) float64 { return a * b }
func div(a, b float64) float64 { return a / b }

// floorDiv rounds the quotient toward negative infinity.
func floorDiv(a, b float64) float64 { return math.Floor(a / b) }

// floorMod takes the sign of the divisor.
func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// Add returns ts + o.
func (ts *TimeSeries) Add(o Operand) (*TimeSeries, error) { return ts.arith("+", o, false, add) }

// Sub returns ts - o.
func (ts *TimeSeries) Sub(o Operand) (*TimeSeries, error) { return ts.arith("-", o, false, sub) }

// Mul returns ts * o.
func (ts *TimeSeries) Mul(o Operand) (*TimeSeries, error) { return ts.arith("*", o, false, mul) }

// Div returns ts / o.
func (ts *TimeSeries) Div(o Operand) (*TimeSeries, error) { return ts.arith("/", o, false, div) }

// FloorDiv returns floor(ts / o).
func (ts *TimeSeries) FloorDiv(o Operand) (*TimeSeries, error) {
	return ts.arith("//", o, false, floorDiv)
}

// Mod returns ts mod o with the sign of o.
func (ts *TimeSeries) Mod(o Operand) (*TimeSeries, error) { return ts.arith("%", o, false, floorMod) }

// Pow returns ts ** o.
func (ts *TimeSeries) Pow(o Operand) (*TimeSeries, error) { return ts.arith("**", o, false, math.Pow) }

// RSub returns o - ts.
func (ts *TimeSeries) RSub(o Operand) (*TimeSeries, error) { return ts.arith("-", o, true, sub) }

// RDiv returns o / ts.
func (ts *TimeSeries) RDiv(o Operand) (*TimeSeries, error) { return ts.arith("/", o, true, div) }

// RFloorDiv returns floor(o / ts).
func (ts *TimeSeries) RFloorDiv(o Operand) (*TimeSeries, error) {
	return ts.arith("//", o, true, floorDiv)
}

// RMod returns o mod ts.
func (ts *TimeSeries) RMod(o Operand) (*TimeSeries, error) { return ts.arith("%", o, true, floorMod) }

// RPow returns o ** ts.
func (ts *TimeSeries) RPow(o Operand) (*TimeSeries, error) { return ts.arith("**", o, true, math.Pow) }
