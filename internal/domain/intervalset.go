package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// IntervalSet is a coalesced, sorted collection of disjoint, non-adjacent
// Intervals: its canonical form. Every constructor and mutator re-coalesces
// so that two IntervalSets covering the same instants always compare equal
// field-by-field.
type IntervalSet struct {
	intervals []Interval
}

// NewIntervalSet builds an empty IntervalSet.
func NewIntervalSet() IntervalSet {
	return IntervalSet{}
}

// IntervalSetFrom builds a coalesced IntervalSet from a single interval.
func IntervalSetFrom(i Interval) IntervalSet {
	return IntervalSetFromSlice([]Interval{i})
}

// IntervalSetFromSlice builds a coalesced IntervalSet from a slice of
// intervals in any order, dropping empty intervals and merging contiguous
// ones.
func IntervalSetFromSlice(is []Interval) IntervalSet {
	return IntervalSet{intervals: coalesce(is)}
}

// Intervals returns the canonical, sorted, coalesced member intervals.
// Callers must not mutate the returned slice.
func (s IntervalSet) Intervals() []Interval {
	return s.intervals
}

func coalesce(is []Interval) []Interval {
	filtered := make([]Interval, 0, len(is))
	for _, i := range is {
		if !i.IsEmpty() {
			filtered = append(filtered, i)
		}
	}
	sort.Slice(filtered, func(a, b int) bool {
		if filtered[a].Start.Equal(filtered[b].Start) {
			return filtered[a].End.Before(filtered[b].End)
		}
		return filtered[a].Start.Before(filtered[b].Start)
	})

	out := make([]Interval, 0, len(filtered))
	for _, i := range filtered {
		n := len(out)
		if n > 0 && out[n-1].IsContiguous(i) {
			if i.End.After(out[n-1].End) {
				out[n-1].End = i.End
			}
			continue
		}
		out = append(out, i)
	}
	return out
}

// IsEmpty reports whether the set has no members.
func (s IntervalSet) IsEmpty() bool {
	return len(s.intervals) == 0
}

// Start returns the earliest Start across all members, or MaxTime if empty.
func (s IntervalSet) Start() time.Time {
	if s.IsEmpty() {
		return MaxTime
	}
	return s.intervals[0].Start
}

// End returns the latest End across all members, or MinTime if empty.
func (s IntervalSet) End() time.Time {
	if s.IsEmpty() {
		return MinTime
	}
	return s.intervals[len(s.intervals)-1].End
}

// Contains reports whether t is covered by any member interval.
func (s IntervalSet) Contains(t time.Time) bool {
	for _, i := range s.intervals {
		if i.Contains(t) {
			return true
		}
	}
	return false
}

// HasSubset reports whether other is fully covered by s.
func (s IntervalSet) HasSubset(other Interval) bool {
	if other.IsEmpty() {
		return true
	}
	remaining := IntervalSetFrom(other)
	return remaining.Difference(s).IsEmpty()
}

// IsDisjoint reports whether s and other share no instants. O(n*m), which
// is acceptable given real-world schedules produce small interval counts.
func (s IntervalSet) IsDisjoint(other IntervalSet) bool {
	for _, a := range s.intervals {
		for _, b := range other.intervals {
			if !a.IsDisjoint(b) {
				return false
			}
		}
	}
	return true
}

// Intersection returns the instants covered by both s and other.
func (s IntervalSet) Intersection(other IntervalSet) IntervalSet {
	var out []Interval
	for _, a := range s.intervals {
		for _, b := range other.intervals {
			x := a.Intersection(b)
			if !x.IsEmpty() {
				out = append(out, x)
			}
		}
	}
	return IntervalSetFromSlice(out)
}

// Complement returns every instant in (MinTime, MaxTime] not covered by s.
func (s IntervalSet) Complement() IntervalSet {
	if s.IsEmpty() {
		return IntervalSetFrom(Interval{Start: MinTime, End: MaxTime})
	}

	var out []Interval
	prev := MinTime
	for _, i := range s.intervals {
		if i.Start.After(prev) {
			out = append(out, Interval{Start: prev, End: i.Start})
		}
		prev = i.End
	}
	if prev.Before(MaxTime) {
		out = append(out, Interval{Start: prev, End: MaxTime})
	}
	return IntervalSetFromSlice(out)
}

// Insert adds a single interval to the set, re-coalescing.
func (s IntervalSet) Insert(i Interval) IntervalSet {
	return IntervalSetFromSlice(append(append([]Interval{}, s.intervals...), i))
}

// Merge (union) combines s and other into their coalesced union.
func (s IntervalSet) Merge(other IntervalSet) IntervalSet {
	return s.Union(other)
}

// Union returns every instant covered by either s or other.
func (s IntervalSet) Union(other IntervalSet) IntervalSet {
	combined := append(append([]Interval{}, s.intervals...), other.intervals...)
	return IntervalSetFromSlice(combined)
}

// Difference returns the instants in s not covered by other.
func (s IntervalSet) Difference(other IntervalSet) IntervalSet {
	return s.Intersection(other.Complement())
}

// Subtract is the mutating form of Difference, returning the updated set
// (IntervalSet is immutable-by-value, so this simply returns a new value;
// kept as a distinct name to mirror original_source's in-place `subtract`
// call sites, which read more naturally as a verb than `difference`).
func (s IntervalSet) Subtract(other IntervalSet) IntervalSet {
	return s.Difference(other)
}

// Equal reports whether s and other cover exactly the same instants.
func (s IntervalSet) Equal(other IntervalSet) bool {
	if len(s.intervals) != len(other.intervals) {
		return false
	}
	for idx, i := range s.intervals {
		if !i.Equal(other.intervals[idx]) {
			return false
		}
	}
	return true
}

// MarshalJSON renders the set as its member intervals, the shape storage
// persists and the management HTTP API returns.
func (s IntervalSet) MarshalJSON() ([]byte, error) {
	if s.intervals == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.intervals)
}

// UnmarshalJSON rebuilds a coalesced IntervalSet from a list of intervals,
// the inverse of MarshalJSON.
func (s *IntervalSet) UnmarshalJSON(data []byte) error {
	var is []Interval
	if err := json.Unmarshal(data, &is); err != nil {
		return err
	}
	*s = IntervalSetFromSlice(is)
	return nil
}
