package contracts

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelHierarchy(t *testing.T) {
	assert.ErrorIs(t, ErrLengthMismatch, ErrValidation)
	assert.ErrorIs(t, ErrType, ErrValidation)
	assert.NotErrorIs(t, ErrNotFound, ErrValidation)
	assert.NotErrorIs(t, ErrOutOfRange, ErrNotFound)
}

func TestDateNotFoundError(t *testing.T) {
	d := time.Date(2021, 2, 15, 0, 0, 0, 0, time.UTC)
	err := fmt.Errorf("lookup: %w", &DateNotFoundError{Date: d, Message: "use closest=previous"})

	assert.ErrorIs(t, err, ErrNotFound)

	var nf *DateNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, d, nf.Date)
	assert.Contains(t, err.Error(), "2021-02-15")
	assert.Contains(t, err.Error(), "use closest=previous")

	assert.Equal(t, "date 2021-02-15 not found", (&DateNotFoundError{Date: d}).Error())
}

func TestDateOutOfRangeError(t *testing.T) {
	d := time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC)

	before := &DateOutOfRangeError{Date: d, Bound: BoundMin}
	after := &DateOutOfRangeError{Date: d, Bound: BoundMax}

	assert.ErrorIs(t, before, ErrOutOfRange)
	assert.Contains(t, before.Error(), "before")
	assert.Contains(t, after.Error(), "after")
}
