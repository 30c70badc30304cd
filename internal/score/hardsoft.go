// Package score evaluates route solutions with a hard/soft penalty score,
// either in full (Evaluate) or incrementally as a route.Listener (Director).
package score

import (
	"errors"
	"fmt"
)

// ErrScoreCorrupted is returned when the incremental score drifts from a full
// recomputation.
var ErrScoreCorrupted = errors.New("score corrupted")

// HardSoft is a two-level score. Penalties are negative; a feasible solution
// has Hard == 0.
type HardSoft struct {
	Hard int64 `json:"hard"`
	Soft int64 `json:"soft"`
}

// Compare orders lexicographically, hard first. It returns -1, 0 or +1.
func (s HardSoft) Compare(o HardSoft) int {
	switch {
	case s.Hard < o.Hard:
		return -1
	case s.Hard > o.Hard:
		return 1
	case s.Soft < o.Soft:
		return -1
	case s.Soft > o.Soft:
		return 1
	}
	return 0
}

func (s HardSoft) Add(o HardSoft) HardSoft { return HardSoft{s.Hard + o.Hard, s.Soft + o.Soft} }
func (s HardSoft) Sub(o HardSoft) HardSoft { return HardSoft{s.Hard - o.Hard, s.Soft - o.Soft} }
func (s HardSoft) Negate() HardSoft        { return HardSoft{-s.Hard, -s.Soft} }

// IsFeasible reports whether no hard constraint is broken.
func (s HardSoft) IsFeasible() bool { return s.Hard >= 0 }

func (s HardSoft) String() string { return fmt.Sprintf("%dhard/%dsoft", s.Hard, s.Soft) }
