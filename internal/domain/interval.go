// Package domain implements the core algebraic and scheduling types:
// half-open time intervals, calendars, schedules, requirements, tasks and
// the runner's action/attempt records. Grounded on original_source's
// interval.rs, interval_set.rs, calendar.rs, schedule.rs, task.rs,
// task_set.rs, requirement.rs, resource_interval.rs and varmap.rs.
package domain

import "time"

// MinTime and MaxTime stand in for the original's DateTime::MIN_UTC /
// MAX_UTC sentinels: a fixed "beginning/end of time" pair wide enough that
// no real schedule ever reaches them. time.Time's zero value is not usable
// here since the domain's intervals are frequently compared and subtracted
// against it, and chrono's MIN_UTC/MAX_UTC are themselves arbitrary
// sentinels rather than the language's true time zero.
var (
	MinTime = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

// Interval is a half-open (start, end] span of time: start is excluded,
// end is included. This lines up with "a task run that completes at its
// end timestamp" being unambiguously part of the interval.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval builds an Interval, swapping start/end if given reversed so
// that Start <= End always holds.
func NewInterval(start, end time.Time) Interval {
	if start.After(end) {
		start, end = end, start
	}
	return Interval{Start: start, End: end}
}

// IsEmpty reports whether the interval contains no instants, i.e. Start
// equals End (a half-open interval of zero width contains nothing).
func (i Interval) IsEmpty() bool {
	return !i.Start.Before(i.End)
}

// Len returns the duration covered by the interval.
func (i Interval) Len() time.Duration {
	if i.IsEmpty() {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Contains reports whether t falls within (Start, End].
func (i Interval) Contains(t time.Time) bool {
	return t.After(i.Start) && !t.After(i.End)
}

// HasSubset reports whether other is entirely contained within i.
func (i Interval) HasSubset(other Interval) bool {
	if other.IsEmpty() {
		return true
	}
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// IsContiguous reports whether i and other touch or overlap, i.e. they can
// be coalesced into a single interval without leaving a gap.
func (i Interval) IsContiguous(other Interval) bool {
	return !(i.End.Before(other.Start) || other.End.Before(i.Start))
}

// IsDisjoint reports whether i and other share no instants.
func (i Interval) IsDisjoint(other Interval) bool {
	return i.Intersection(other).IsEmpty()
}

// Intersection returns the overlap of i and other, or the empty interval
// if they are disjoint.
func (i Interval) Intersection(other Interval) Interval {
	start := i.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := i.End
	if other.End.Before(end) {
		end = other.End
	}
	if start.After(end) || start.Equal(end) {
		return Interval{}
	}
	return Interval{Start: start, End: end}
}

// Equal reports whether i and other denote the same (possibly empty) span.
func (i Interval) Equal(other Interval) bool {
	if i.IsEmpty() && other.IsEmpty() {
		return true
	}
	return i.Start.Equal(other.Start) && i.End.Equal(other.End)
}
