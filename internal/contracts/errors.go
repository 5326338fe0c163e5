package contracts

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Error taxonomy
// =============================================================================

// ⭐ SSOT: 모든 패키지는 이 sentinel 에러를 wrap 해서 반환 (errors.Is 로 판별)
var (
	// ErrParse bad date string or unparseable input shape
	ErrParse = errors.New("parse error")

	// ErrNotFound exact date absent, or positional index out of range
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange closest-date search would walk past the data bounds
	ErrOutOfRange = errors.New("date out of range")

	// ErrValidation invalid policy, frequency mismatch, unsupported mutation
	ErrValidation = errors.New("validation error")

	// ErrLengthMismatch operands of different length or different date sets
	ErrLengthMismatch = fmt.Errorf("%w: length mismatch", ErrValidation)

	// ErrType operand of an incompatible element type
	ErrType = fmt.Errorf("%w: incompatible type", ErrValidation)

	// ErrUnknownFrequency unknown frequency symbol
	ErrUnknownFrequency = errors.New("unknown frequency")
)

const dateLayout = "2006-01-02"

// DateNotFoundError names the date that could not be resolved.
type DateNotFoundError struct {
	Date    time.Time
	Message string
}

func (e *DateNotFoundError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("date %s not found", e.Date.Format(dateLayout))
	}
	return fmt.Sprintf("date %s not found: %s", e.Date.Format(dateLayout), e.Message)
}

func (e *DateNotFoundError) Unwrap() error {
	return ErrNotFound
}

// Bound identifies which end of the data a search ran into.
type Bound string

const (
	BoundMin Bound = "min"
	BoundMax Bound = "max"
)

// DateOutOfRangeError is returned when a directional search starts beyond
// the earliest (BoundMin) or latest (BoundMax) date present.
type DateOutOfRangeError struct {
	Date  time.Time
	Bound Bound
}

func (e *DateOutOfRangeError) Error() string {
	if e.Bound == BoundMin {
		return fmt.Sprintf("date %s is before the first date in the series", e.Date.Format(dateLayout))
	}
	return fmt.Sprintf("date %s is after the last date in the series", e.Date.Format(dateLayout))
}

func (e *DateOutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}
