package contracts

import (
	"iter"
	"time"
)

// Lookup is the read-only date→value mapping the resolver and the
// statistics work against.
// ⭐ SSOT: 시계열 조회 인터페이스
type Lookup interface {
	Lookup(date time.Time) (float64, bool)
	Contains(date time.Time) bool
	Len() int
	// All yields pairs in ascending date order; every call starts over
	All() iter.Seq2[time.Time, float64]
}
