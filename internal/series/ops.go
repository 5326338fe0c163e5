package series

import (
	"fmt"
	"time"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
)

// =============================================================================
// Operands
// =============================================================================

// Operand is the right-hand side of a comparison or arithmetic operation.
// It is one of Num, Bool, At, DateString, Shift or Series.
type Operand interface {
	operand()
}

// Num is a numeric scalar.
type Num float64

// Bool is a boolean scalar.
type Bool bool

// At is a date scalar.
type At time.Time

// DateString is a date scalar parsed with the process-wide date format.
type DateString string

// Shift is a calendar offset, the only thing a date series can be added to.
type Shift calendar.Offset

func (Num) operand()        {}
func (Bool) operand()       {}
func (At) operand()         {}
func (DateString) operand() {}
func (Shift) operand()      {}
func (Series) operand()     {}

// resolved is an operand normalised once per call. other is set for
// series operands, the scalar fields otherwise.
type resolved struct {
	kind  Kind
	num   float64
	date  time.Time
	flag  bool
	other *Series
}

func (s Series) resolve(op string, o Operand) (resolved, error) {
	switch v := o.(type) {
	case Num:
		return resolved{kind: KindNumber, num: float64(v)}, nil
	case Bool:
		return resolved{kind: KindBool, flag: bool(v)}, nil
	case At:
		return resolved{kind: KindDate, date: calendar.Day(time.Time(v))}, nil
	case DateString:
		d, err := calendar.Parse(string(v), "")
		if err != nil {
			return resolved{}, err
		}
		return resolved{kind: KindDate, date: d}, nil
	case Series:
		if v.Len() != s.Len() {
			return resolved{}, fmt.Errorf("%w: %s between series of length %d and %d",
				contracts.ErrLengthMismatch, op, s.Len(), v.Len())
		}
		return resolved{kind: v.kind, other: &v}, nil
	case nil:
		return resolved{}, fmt.Errorf("%w: %s with nil operand", contracts.ErrType, op)
	default:
		return resolved{}, fmt.Errorf("%w: unsupported operand %T for %s", contracts.ErrType, o, op)
	}
}

// =============================================================================
// Comparisons
// =============================================================================

type cmpOp int

const (
	opGt cmpOp = iota
	opGe
	opLt
	opLe
	opEq
	opNe
)

var cmpNames = [...]string{">", ">=", "<", "<=", "==", "!="}

func (c cmpOp) ordering() bool {
	return c != opEq && c != opNe
}

// Gt compares element-wise with >.
func (s Series) Gt(o Operand) (Series, error) { return s.compare(opGt, o) }

// Ge compares element-wise with >=.
func (s Series) Ge(o Operand) (Series, error) { return s.compare(opGe, o) }

// Lt compares element-wise with <.
func (s Series) Lt(o Operand) (Series, error) { return s.compare(opLt, o) }

// Le compares element-wise with <=.
func (s Series) Le(o Operand) (Series, error) { return s.compare(opLe, o) }

// Eq compares element-wise with ==. Bool series support Eq and Ne only.
func (s Series) Eq(o Operand) (Series, error) { return s.compare(opEq, o) }

// Ne compares element-wise with !=.
func (s Series) Ne(o Operand) (Series, error) { return s.compare(opNe, o) }

func (s Series) compare(op cmpOp, o Operand) (Series, error) {
	name := cmpNames[op]
	if s.kind == KindBool && op.ordering() {
		return Series{}, fmt.Errorf("%w: %s not supported for bool series", contracts.ErrType, name)
	}

	r, err := s.resolve(name, o)
	if err != nil {
		return Series{}, err
	}
	if r.kind != s.kind {
		return Series{}, fmt.Errorf("%w: cannot compare %s series to %s", contracts.ErrType, s.kind, r.kind)
	}

	n := s.Len()
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		var c int
		switch s.kind {
		case KindNumber:
			rhs := r.num
			if r.other != nil {
				rhs = r.other.nums[i]
			}
			c = compareFloat(s.nums[i], rhs)
			if c == 2 { // NaN is unordered
				out[i] = op == opNe
				continue
			}
		case KindDate:
			rhs := r.date
			if r.other != nil {
				rhs = r.other.dates[i]
			}
			c = s.dates[i].Compare(rhs)
		default:
			rhs := r.flag
			if r.other != nil {
				rhs = r.other.bools[i]
			}
			if s.bools[i] != rhs {
				c = 1
			}
		}
		out[i] = holds(op, c)
	}
	return Series{kind: KindBool, bools: out}, nil
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case a == b:
		return 0
	default:
		return 2
	}
}

func holds(op cmpOp, c int) bool {
	switch op {
	case opGt:
		return c > 0
	case opGe:
		return c >= 0
	case opLt:
		return c < 0
	case opLe:
		return c <= 0
	case opEq:
		return c == 0
	default:
		return c != 0
	}
}

// =============================================================================
// Boolean algebra
// =============================================================================

// And combines two bool series (or a bool series and a Bool) element-wise.
func (s Series) And(o Operand) (Series, error) {
	return s.logical("and", o, func(a, b bool) bool { return a && b })
}

// Or combines element-wise with a logical or.
func (s Series) Or(o Operand) (Series, error) {
	return s.logical("or", o, func(a, b bool) bool { return a || b })
}

// Not negates a bool series.
func (s Series) Not() (Series, error) {
	if err := s.expect(KindBool); err != nil {
		return Series{}, err
	}
	out := make([]bool, len(s.bools))
	for i, b := range s.bools {
		out[i] = !b
	}
	return Series{kind: KindBool, bools: out}, nil
}

func (s Series) logical(name string, o Operand, fn func(a, b bool) bool) (Series, error) {
	if s.kind != KindBool {
		return Series{}, fmt.Errorf("%w: %s requires a bool series, got %s", contracts.ErrType, name, s.kind)
	}
	r, err := s.resolve(name, o)
	if err != nil {
		return Series{}, err
	}
	if r.kind != KindBool {
		return Series{}, fmt.Errorf("%w: %s requires bool operands, got %s", contracts.ErrType, name, r.kind)
	}

	out := make([]bool, len(s.bools))
	for i, b := range s.bools {
		rhs := r.flag
		if r.other != nil {
			rhs = r.other.bools[i]
		}
		out[i] = fn(b, rhs)
	}
	return Series{kind: KindBool, bools: out}, nil
}

// =============================================================================
// Arithmetic
// =============================================================================

// Add adds element-wise. Number series accept Num or a number series; date
// series accept only a Shift. Bool series reject arithmetic.
func (s Series) Add(o Operand) (Series, error) {
	switch s.kind {
	case KindNumber:
		if _, ok := o.(Shift); ok {
			return Series{}, fmt.Errorf("%w: cannot add a calendar offset to a number series", contracts.ErrType)
		}
		r, err := s.resolve("+", o)
		if err != nil {
			return Series{}, err
		}
		if r.kind != KindNumber {
			return Series{}, fmt.Errorf("%w: cannot add %s to a number series", contracts.ErrType, r.kind)
		}
		out := make([]float64, len(s.nums))
		for i, v := range s.nums {
			rhs := r.num
			if r.other != nil {
				rhs = r.other.nums[i]
			}
			out[i] = v + rhs
		}
		return Series{kind: KindNumber, nums: out}, nil

	case KindDate:
		shift, ok := o.(Shift)
		if !ok {
			return Series{}, fmt.Errorf("%w: only calendar offsets can be added to a date series, got %T", contracts.ErrType, o)
		}
		offset := calendar.Offset(shift)
		out := make([]time.Time, len(s.dates))
		for i, d := range s.dates {
			out[i] = offset.Apply(d)
		}
		return Series{kind: KindDate, dates: out}, nil

	default:
		return Series{}, fmt.Errorf("%w: arithmetic not supported for bool series", contracts.ErrType)
	}
}
