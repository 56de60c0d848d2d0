package domain_test

import (
	"testing"
	"time"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

func TestTaskGenerateIntervalsClipsToValidOver(t *testing.T) {
	validFrom := mustTime(t, "2022-01-03T09:00:00Z")
	validTo := mustTime(t, "2022-01-05T09:00:00Z")
	task := domain.Task{
		Name:      "a",
		Provides:  []string{"a"},
		Schedule:  dailySchedule(t),
		ValidOver: domain.IntervalSetFrom(domain.NewInterval(validFrom, validTo)),
		TimeZone:  time.UTC,
	}

	required := domain.ResourceInterval{
		"a": domain.IntervalSetFrom(domain.NewInterval(domain.MinTime, domain.MaxTime)),
	}

	intervals, err := task.GenerateIntervals(required)
	if err != nil {
		t.Fatalf("GenerateIntervals: %v", err)
	}
	if len(intervals) != 2 {
		t.Fatalf("got %d intervals, want 2 (clipped to ValidOver): %+v", len(intervals), intervals)
	}
	if !intervals[0].Start.Equal(validFrom) {
		t.Errorf("first interval should start at ValidOver.Start, got %v", intervals[0].Start)
	}
	if !intervals[len(intervals)-1].End.Equal(validTo) {
		t.Errorf("last interval should end at ValidOver.End, got %v", intervals[len(intervals)-1].End)
	}
}

func TestTaskGenerateIntervalsDivergingProvidersErrors(t *testing.T) {
	validFrom := mustTime(t, "2022-01-03T09:00:00Z")
	task := domain.Task{
		Name:      "a",
		Provides:  []string{"a", "b"},
		Schedule:  dailySchedule(t),
		ValidOver: domain.IntervalSetFrom(domain.NewInterval(validFrom, domain.MaxTime)),
		TimeZone:  time.UTC,
	}

	required := domain.ResourceInterval{
		"a": domain.IntervalSetFrom(domain.NewInterval(validFrom, mustTime(t, "2022-01-04T09:00:00Z"))),
		"b": domain.IntervalSetFrom(domain.NewInterval(validFrom, mustTime(t, "2022-01-05T09:00:00Z"))),
	}

	if _, err := task.GenerateIntervals(required); err == nil {
		t.Error("expected an error when co-provided resources require diverging intervals")
	}
}

func TestTaskCanRunHonorsRequires(t *testing.T) {
	validFrom := mustTime(t, "2022-01-01T09:00:00Z")
	task := domain.Task{
		Name:      "downstream",
		Provides:  []string{"downstream"},
		Requires:  domain.OffsetRequirement{Resource: "upstream", Offset: -1},
		Schedule:  dailySchedule(t),
		ValidOver: domain.IntervalSetFrom(domain.NewInterval(validFrom, domain.MaxTime)),
		TimeZone:  time.UTC,
	}

	interval := domain.NewInterval(mustTime(t, "2022-01-03T09:00:00Z"), mustTime(t, "2022-01-04T09:00:00Z"))

	if task.CanRun(interval, domain.NewResourceInterval()) {
		t.Error("should not be able to run without upstream coverage")
	}

	satisfied := domain.ResourceInterval{"upstream": domain.IntervalSetFrom(interval)}
	if !task.CanRun(interval, satisfied) {
		t.Error("should be able to run once upstream covers the interval")
	}
}
