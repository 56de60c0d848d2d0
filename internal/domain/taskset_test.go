package domain_test

import (
	"testing"
	"time"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

func taskProviding(t *testing.T, name string, provides []string, requires domain.Requirement, validFrom time.Time) domain.Task {
	t.Helper()
	return domain.Task{
		Name:      name,
		Up:        domain.TaskDetails(`{"command":["/bin/true"]}`),
		Provides:  provides,
		Requires:  requires,
		Schedule:  dailySchedule(t),
		ValidOver: domain.IntervalSetFrom(domain.NewInterval(validFrom, domain.MaxTime)),
		TimeZone:  time.UTC,
	}
}

func TestTaskSetGetStateAggregatesNonOverlappingTasks(t *testing.T) {
	validFrom := mustTime(t, "2022-01-01T09:00:00Z")
	a := taskProviding(t, "a", []string{"a"}, nil, validFrom)
	b := taskProviding(t, "b", []string{"b"}, nil, validFrom)

	ts, err := domain.NewTaskSet([]domain.Task{a, b})
	if err != nil {
		t.Fatalf("NewTaskSet: %v", err)
	}

	asOf := mustTime(t, "2022-01-03T09:00:00Z")
	state, err := ts.GetState(asOf)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if _, ok := state["a"]; !ok {
		t.Error("missing coverage for resource a")
	}
	if _, ok := state["b"]; !ok {
		t.Error("missing coverage for resource b")
	}
}

func TestTaskSetValidateRejectsOverlappingProviders(t *testing.T) {
	validFrom := mustTime(t, "2022-01-01T09:00:00Z")
	a := taskProviding(t, "a", []string{"shared"}, nil, validFrom)
	b := taskProviding(t, "b", []string{"shared"}, nil, validFrom)

	ts, err := domain.NewTaskSet([]domain.Task{a, b})
	if err != nil {
		t.Fatalf("NewTaskSet: %v", err)
	}

	if err := ts.Validate(); err == nil {
		t.Error("expected Validate to reject two tasks providing the same resource over overlapping intervals")
	}
}

func TestTaskSetDuplicateNameRejected(t *testing.T) {
	validFrom := mustTime(t, "2022-01-01T09:00:00Z")
	a := taskProviding(t, "dup", []string{"a"}, nil, validFrom)
	b := taskProviding(t, "dup", []string{"b"}, nil, validFrom)

	if _, err := domain.NewTaskSet([]domain.Task{a, b}); err == nil {
		t.Error("expected an error for duplicate task names")
	}
}

func TestTaskSetByNameAndAt(t *testing.T) {
	validFrom := mustTime(t, "2022-01-01T09:00:00Z")
	a := taskProviding(t, "a", []string{"a"}, nil, validFrom)
	ts, err := domain.NewTaskSet([]domain.Task{a})
	if err != nil {
		t.Fatalf("NewTaskSet: %v", err)
	}

	got, idx, ok := ts.ByName("a")
	if !ok || idx != 0 || got.Name != "a" {
		t.Errorf("ByName(a) = %+v, %d, %v", got, idx, ok)
	}
	if ts.At(0).Name != "a" {
		t.Error("At(0) should return task a")
	}
	if _, _, ok := ts.ByName("missing"); ok {
		t.Error("ByName(missing) should report not found")
	}
}
