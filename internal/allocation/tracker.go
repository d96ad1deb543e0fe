package allocation

import (
	"github.com/wonny/qstudy/internal/contracts"
)

// ScoredAllocation pairs an allocation with its Sharpe ratio
type ScoredAllocation struct {
	Index      int        `json:"index"` // emission order from the generator
	Allocation Allocation `json:"allocation"`
	Ratio      float64    `json:"sharpe_ratio"`
}

// ExcludedAllocation is an allocation that could not be scored
type ExcludedAllocation struct {
	Index      int        `json:"index"`
	Allocation Allocation `json:"allocation"`
	Reason     string     `json:"reason"`
}

// Tracker keeps the running minimum and maximum Sharpe ratio.
//
// skipFirst drops the first observed allocation before any comparison;
// the homework scan started at index 1 and the switch keeps that choice explicit.
type Tracker struct {
	skipFirst bool

	seen     int
	scored   int
	skipped  int
	min, max ScoredAllocation
	excluded []ExcludedAllocation
}

// NewTracker creates a tracker
func NewTracker(skipFirst bool) *Tracker {
	return &Tracker{skipFirst: skipFirst}
}

// Skip reports whether the next allocation will be skipped.
// Lets callers avoid scoring allocations the tracker would drop anyway.
func (t *Tracker) Skip() bool {
	return t.skipFirst && t.seen == 0
}

// Observe records a scored allocation. Ties keep the earliest one.
func (t *Tracker) Observe(s ScoredAllocation) {
	if t.Skip() {
		t.seen++
		t.skipped++
		return
	}
	t.seen++

	if t.scored == 0 {
		t.min, t.max = s, s
	} else {
		if s.Ratio < t.min.Ratio {
			t.min = s
		}
		if s.Ratio > t.max.Ratio {
			t.max = s
		}
	}
	t.scored++
}

// Exclude records an allocation whose ratio is undefined.
// It never participates in min/max.
func (t *Tracker) Exclude(index int, alloc Allocation, err error) {
	if t.Skip() {
		t.seen++
		t.skipped++
		return
	}
	t.seen++
	t.excluded = append(t.excluded, ExcludedAllocation{
		Index:      index,
		Allocation: alloc,
		Reason:     err.Error(),
	})
}

// Result returns the (min, max) pair
func (t *Tracker) Result() (ScoredAllocation, ScoredAllocation, error) {
	if t.scored == 0 {
		return ScoredAllocation{}, ScoredAllocation{}, contracts.ErrNoScoredAllocations
	}
	return t.min, t.max, nil
}

// Scored returns the number of allocations that took part in min/max
func (t *Tracker) Scored() int { return t.scored }

// Skipped returns the number of allocations dropped by skipFirst
func (t *Tracker) Skipped() int { return t.skipped }

// Excluded returns allocations left out because their ratio is undefined
func (t *Tracker) Excluded() []ExcludedAllocation { return t.excluded }
