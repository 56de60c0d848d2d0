package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskDetails is an opaque, executor-specific payload (e.g. a local
// process's command/environment/timeout, or an agent's resource request).
// The domain layer never interprets it; only the configured Executor does.
type TaskDetails = json.RawMessage

// Task is one node of the dependency graph: a schedule of when it should
// run, what it provides, what it requires, and the executor-specific
// commands for checking/starting/stopping it. Grounded on
// original_source/src/task.rs.
type Task struct {
	Name     string
	Up       TaskDetails
	Down     TaskDetails // optional; nil if the task has no teardown step
	Check    TaskDetails // optional; nil if the task has no idempotent check
	Provides []string
	Requires Requirement // optional; nil if the task has no dependencies
	Schedule Schedule
	// ValidOver is the half-open interval over which this task's schedule
	// applies, from validFrom to validTo, each snapped back to a scheduled
	// firing instant.
	ValidOver IntervalSet
	TimeZone  *time.Location

	// AlertDelay is how long an action may remain non-Completed before an
	// alert is raised for it; zero disables alerting for this task. Not
	// present in the distilled spec; carried over from
	// original_source/src/task.rs's alert_delay_seconds field.
	AlertDelay time.Duration
}

// RequiresResources returns the set of resource names this task's Requires
// tree depends on via Offset.
func (t Task) RequiresResources() map[string]bool {
	if t.Requires == nil {
		return map[string]bool{}
	}
	return t.Requires.Resources()
}

// CanBeSatisfied reports whether t's Requires tree could ever hold for the
// schedule interval around time, given available resource coverage.
func (t Task) CanBeSatisfied(time time.Time, available ResourceInterval) bool {
	if t.Requires == nil {
		return true
	}
	return t.Requires.CanBeSatisfied(time, t.Schedule, available)
}

// CanRun reports whether every dependency of an action over interval is
// currently satisfied, evaluated at interval.End.
func (t Task) CanRun(interval Interval, available ResourceInterval) bool {
	if t.Requires == nil {
		return true
	}
	return t.Requires.IsSatisfied(interval.End, t.Schedule, available)
}

// Validity returns the portion of t.ValidOver up to and including maxTime.
func (t Task) Validity(maxTime time.Time) IntervalSet {
	return t.ValidOver.Intersection(IntervalSetFrom(Interval{Start: MinTime, End: maxTime}))
}

// GenerateIntervals computes the schedule intervals this task must run
// over, given the newly-required coverage (per resource) from the runner's
// target state. Every resource t provides must require the identical
// interval set (clipped to ValidOver) — if they diverge, the world
// definition is inconsistent and an error is returned. Grounded on
// original_source/src/task.rs's Task::generate_intervals.
func (t Task) GenerateIntervals(required ResourceInterval) ([]Interval, error) {
	if len(t.Provides) == 0 {
		return nil, nil
	}

	var want IntervalSet
	haveWant := false
	for _, r := range t.Provides {
		iset := required[r].Intersection(t.ValidOver)
		if !haveWant {
			want = iset
			haveWant = true
			continue
		}
		if !want.Equal(iset) {
			return nil, fmt.Errorf(
				"task %q: resources %v must share one required interval set, but %q diverges",
				t.Name, t.Provides, r,
			)
		}
	}

	if want.IsEmpty() {
		return nil, nil
	}

	var out []Interval
	for _, member := range want.Intervals() {
		clipped := member
		if clipped.Start.Before(t.ValidOver.Start()) {
			clipped.Start = t.ValidOver.Start()
		}
		if clipped.End.After(t.ValidOver.End()) {
			clipped.End = t.ValidOver.End()
		}
		out = append(out, t.Schedule.Generate(clipped)...)
	}
	return out, nil
}
