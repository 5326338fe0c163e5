package contracts

import "fmt"

// Match is the closest-match policy used when a requested date is absent.
type Match string

const (
	MatchExact    Match = "exact"
	MatchPrevious Match = "previous"
	MatchNext     Match = "next"
	// MatchClosest defers to the caller's configured default policy
	MatchClosest Match = "closest"
)

// ParseMatch validates a policy string. Matching is case-sensitive.
func ParseMatch(s string) (Match, error) {
	switch m := Match(s); m {
	case MatchExact, MatchPrevious, MatchNext, MatchClosest:
		return m, nil
	default:
		return "", fmt.Errorf("%w: invalid match policy %q: must be exact, previous, next or closest", ErrValidation, s)
	}
}

// Resolve replaces "closest" (or the zero value) with def.
func (m Match) Resolve(def Match) Match {
	if m == "" || m == MatchClosest {
		return def
	}
	return m
}

// Step returns the search direction in days: -1, +1 or 0 for exact.
// An unresolved "closest" has no direction.
func (m Match) Step() int {
	switch m {
	case MatchPrevious:
		return -1
	case MatchNext:
		return 1
	default:
		return 0
	}
}

func (m Match) String() string {
	return string(m)
}

// FailurePolicy decides what happens when a date cannot be resolved.
type FailurePolicy string

const (
	FailRaise FailurePolicy = "fail"
	FailNaN   FailurePolicy = "nan"
)

// ParseFailurePolicy validates an on-failure policy string.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(s); p {
	case FailRaise, FailNaN:
		return p, nil
	default:
		return "", fmt.Errorf("%w: invalid failure policy %q: must be fail or nan", ErrValidation, s)
	}
}
