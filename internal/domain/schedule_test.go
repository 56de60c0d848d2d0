package domain_test

import (
	"testing"
	"time"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

func weekdaySchedule(t *testing.T, times ...string) domain.Schedule {
	t.Helper()
	cal := domain.NewCalendar()
	cal.Mask[time.Monday] = true
	cal.Mask[time.Tuesday] = true
	cal.Mask[time.Wednesday] = true
	cal.Mask[time.Thursday] = true
	cal.Mask[time.Friday] = true

	var tods []domain.TimeOfDay
	for _, s := range times {
		parsed, err := time.Parse("15:04:05", s)
		if err != nil {
			t.Fatalf("parse time %q: %v", s, err)
		}
		tods = append(tods, domain.TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute(), Second: parsed.Second()})
	}
	return domain.NewSchedule(cal, tods, time.UTC)
}

func TestScheduleGeneratePartitionsInterval(t *testing.T) {
	s := weekdaySchedule(t, "09:00:00")

	// (Mon 00:00, Wed 00:00] contains exactly two firings, Mon 09:00 and
	// Tue 09:00, producing two generated intervals.
	start := mustTime(t, "2022-01-03T00:00:00Z") // Monday
	end := mustTime(t, "2022-01-05T00:00:00Z")   // Wednesday
	intervals := s.Generate(domain.NewInterval(start, end))

	if len(intervals) != 2 {
		t.Fatalf("got %d intervals, want 2: %+v", len(intervals), intervals)
	}
	if !intervals[0].End.Equal(mustTime(t, "2022-01-03T09:00:00Z")) {
		t.Errorf("first interval end = %v", intervals[0].End)
	}
	if !intervals[1].End.Equal(mustTime(t, "2022-01-04T09:00:00Z")) {
		t.Errorf("second interval end = %v", intervals[1].End)
	}
}

func TestScheduleGenerateSkipsWeekend(t *testing.T) {
	s := weekdaySchedule(t, "09:00:00")

	// Friday through Monday: only Friday's and Monday's firings count;
	// Saturday/Sunday contribute nothing.
	start := mustTime(t, "2022-01-07T00:00:00Z") // Friday
	end := mustTime(t, "2022-01-10T12:00:00Z")   // Monday afternoon
	intervals := s.Generate(domain.NewInterval(start, end))

	if len(intervals) != 2 {
		t.Fatalf("got %d intervals, want 2 (weekend skipped): %+v", len(intervals), intervals)
	}
	if !intervals[1].End.Equal(mustTime(t, "2022-01-10T09:00:00Z")) {
		t.Errorf("second interval end = %v, want Monday 09:00", intervals[1].End)
	}
}

func TestScheduleNextPrevTime(t *testing.T) {
	s := weekdaySchedule(t, "09:00:00", "17:00:00")

	monday0900 := mustTime(t, "2022-01-03T09:00:00Z")
	next := s.NextTime(monday0900)
	if !next.Equal(mustTime(t, "2022-01-03T17:00:00Z")) {
		t.Errorf("NextTime(Mon 09:00) = %v, want Mon 17:00", next)
	}

	// From Friday 17:00, the next firing skips the weekend to Monday 09:00.
	friday1700 := mustTime(t, "2022-01-07T17:00:00Z")
	next = s.NextTime(friday1700)
	if !next.Equal(mustTime(t, "2022-01-10T09:00:00Z")) {
		t.Errorf("NextTime(Fri 17:00) = %v, want Mon 09:00", next)
	}

	prev := s.PrevTime(mustTime(t, "2022-01-10T09:00:00Z"))
	if !prev.Equal(friday1700) {
		t.Errorf("PrevTime(Mon 09:00) = %v, want Fri 17:00", prev)
	}
}

func TestScheduleOffset(t *testing.T) {
	s := weekdaySchedule(t, "09:00:00")
	monday := mustTime(t, "2022-01-03T09:00:00Z")

	forward := s.Offset(monday, 2)
	if !forward.Equal(mustTime(t, "2022-01-05T09:00:00Z")) {
		t.Errorf("Offset(+2) = %v, want Wed 09:00", forward)
	}

	back := s.Offset(forward, -2)
	if !back.Equal(monday) {
		t.Errorf("Offset(-2) did not return to start: %v", back)
	}
}

func TestScheduleIntervalAt(t *testing.T) {
	s := weekdaySchedule(t, "09:00:00")

	mid := mustTime(t, "2022-01-03T12:00:00Z")
	iv := s.IntervalAt(mid, 0)
	if !iv.Start.Equal(mustTime(t, "2022-01-03T09:00:00Z")) {
		t.Errorf("IntervalAt start = %v", iv.Start)
	}
	if !iv.End.Equal(mustTime(t, "2022-01-04T09:00:00Z")) {
		t.Errorf("IntervalAt end = %v", iv.End)
	}
}

func TestScheduleAlignSpanPreservesInfinities(t *testing.T) {
	s := weekdaySchedule(t, "09:00:00")

	span := domain.NewInterval(domain.MinTime, domain.MaxTime)
	aligned := s.AlignSpan(span)
	if !aligned.Start.Equal(domain.MinTime) {
		t.Errorf("MinTime start should be preserved, got %v", aligned.Start)
	}
	if !aligned.End.Equal(domain.MaxTime) {
		t.Errorf("MaxTime end should be preserved, got %v", aligned.End)
	}

	bounded := domain.NewInterval(mustTime(t, "2022-01-03T12:00:00Z"), mustTime(t, "2022-01-04T12:00:00Z"))
	got := s.AlignSpan(bounded)
	if !got.Start.Equal(mustTime(t, "2022-01-03T09:00:00Z")) {
		t.Errorf("bounded start = %v", got.Start)
	}
	if !got.End.Equal(mustTime(t, "2022-01-05T09:00:00Z")) {
		t.Errorf("bounded end = %v", got.End)
	}
}
