package domain

import (
	"sort"
	"time"
)

// TimeOfDay is a timezone-naive wall-clock time, used as one of a
// Schedule's daily firing times.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// Before reports whether t occurs earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	if t.Hour != other.Hour {
		return t.Hour < other.Hour
	}
	if t.Minute != other.Minute {
		return t.Minute < other.Minute
	}
	return t.Second < other.Second
}

// Equal reports whether t and other denote the same wall-clock time.
func (t TimeOfDay) Equal(other TimeOfDay) bool {
	return t == other
}

func (t TimeOfDay) onDate(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, t.Second, 0, loc)
}

// Schedule combines a Calendar (which dates) with an ordered set of daily
// times (when on those dates) and a timezone, producing a canonical
// partition of any UTC interval into the Intervals between consecutive
// firings. Grounded on original_source/src/schedule.rs.
type Schedule struct {
	Calendar Calendar
	Times    []TimeOfDay
	TZ       *time.Location
}

// NewSchedule builds a Schedule, deduplicating and sorting times.
func NewSchedule(calendar Calendar, times []TimeOfDay, tz *time.Location) Schedule {
	uniq := make(map[TimeOfDay]bool, len(times))
	var out []TimeOfDay
	for _, t := range times {
		if !uniq[t] {
			uniq[t] = true
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return Schedule{Calendar: calendar, Times: out, TZ: tz}
}

// Generate returns one schedule interval for each firing instant in
// (interval.Start, interval.End], each running from the preceding firing
// to that instant. The spans are not clipped: the first one may start
// before interval.Start.
func (s Schedule) Generate(interval Interval) []Interval {
	if len(s.Times) == 0 {
		return nil
	}

	st := interval.Start.In(s.TZ)
	et := interval.End.In(s.TZ)

	date := s.Calendar.Prev(truncateToDate(st))
	endDate := s.Calendar.Next(truncateToDate(et).AddDate(0, 0, 1))

	var out []Interval
	prev := s.localInstant(date, s.Times[0])

	for date.Before(endDate) {
		for _, tod := range s.Times {
			dt := s.localInstant(date, tod)
			if dt.After(interval.Start) && !dt.After(interval.End) {
				out = append(out, NewInterval(prev, dt))
			} else if interval.End.Before(dt) {
				goto done
			}
			prev = dt
		}
		date = s.Calendar.Next(date)
	}
done:
	return out
}

// localInstant resolves the earliest valid UTC instant for the given
// calendar date and time-of-day, in the schedule's timezone. On a DST
// spring-forward gap or an ambiguous fall-back fold, Go's time.Date already
// picks a single, deterministic UTC instant; we take it as-is, which
// resolves the ambiguity toward the earliest offset transition candidate
// Go considers (matching the documented "earliest valid UTC instant" rule
// for ambiguous local times).
func (s Schedule) localInstant(date time.Time, tod TimeOfDay) time.Time {
	return tod.onDate(date, s.TZ).UTC()
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IntervalAt returns the schedule interval containing dt (in UTC), offset
// by offset firings (0 = current/containing interval, positive = later,
// negative = earlier).
func (s Schedule) IntervalAt(dt time.Time, offset int) Interval {
	at := dt.In(s.TZ)
	rt := at
	if !s.hasExactTime(at) {
		rt = s.PrevTime(at)
	}
	start := s.Offset(rt, offset)
	return NewInterval(start.UTC(), s.NextTime(start).UTC())
}

func (s Schedule) hasExactTime(at time.Time) bool {
	tod := TimeOfDay{Hour: at.Hour(), Minute: at.Minute(), Second: at.Second()}
	for _, t := range s.Times {
		if t.Equal(tod) {
			return true
		}
	}
	return false
}

// NextTime returns the next scheduled firing instant strictly after dt.
func (s Schedule) NextTime(dt time.Time) time.Time {
	st := dt.In(s.TZ)
	date := truncateToDate(st)
	tod := TimeOfDay{Hour: st.Hour(), Minute: st.Minute(), Second: st.Second()}

	if !s.Calendar.Includes(date) {
		date = s.Calendar.Next(date)
		tod = TimeOfDay{Hour: -1}
	}

	for _, t := range s.Times {
		if t.Before(tod) || t.Equal(tod) {
			continue
		}
		return s.localInstant(date, t)
	}
	return s.localInstant(s.Calendar.Next(date), s.Times[0])
}

// PrevTime returns the nearest scheduled firing instant strictly before dt.
func (s Schedule) PrevTime(dt time.Time) time.Time {
	st := dt.In(s.TZ)
	date := truncateToDate(st)
	tod := TimeOfDay{Hour: st.Hour(), Minute: st.Minute(), Second: st.Second()}

	if !s.Calendar.Includes(date) {
		date = s.Calendar.Prev(date)
		tod = TimeOfDay{Hour: 99}
	}

	for i := len(s.Times) - 1; i >= 0; i-- {
		t := s.Times[i]
		if tod.Before(t) || t.Equal(tod) {
			continue
		}
		return s.localInstant(date, t)
	}
	last := s.Times[len(s.Times)-1]
	return s.localInstant(s.Calendar.Prev(date), last)
}

// Offset walks n scheduled firing instants forward (n > 0) or backward
// (n < 0) from dt. n == 0 is a no-op.
func (s Schedule) Offset(dt time.Time, n int) time.Time {
	out := dt
	for ; n > 0; n-- {
		out = s.NextTime(out)
	}
	for ; n < 0; n++ {
		out = s.PrevTime(out)
	}
	return out
}

// AlignInterval snaps t to the Start of the schedule interval containing
// it, used to align a Task's valid_from/valid_to boundary onto a real
// firing instant.
func (s Schedule) AlignInterval(t time.Time) time.Time {
	return s.IntervalAt(t, 0).Start
}

// AlignSpan returns the smallest schedule interval that fully contains i,
// per spec.md §4.2's alignInterval(I): MinTime/MaxTime endpoints are
// preserved as infinities rather than snapped to a real firing instant.
// Used by the Runner to align a ForceUp/ForceDown request's interval onto
// the schedule before merging it into current state.
func (s Schedule) AlignSpan(i Interval) Interval {
	start := i.Start
	if start.After(MinTime) {
		start = s.IntervalAt(start, 0).Start
	}
	end := i.End
	if end.Before(MaxTime) {
		end = s.NextTime(s.PrevTime(end))
	}
	return NewInterval(start, end)
}
