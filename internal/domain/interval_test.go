package domain_test

import (
	"testing"
	"time"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tt, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return tt
}

func TestIntervalContains(t *testing.T) {
	start := mustTime(t, "2022-01-01T00:00:00Z")
	end := mustTime(t, "2022-01-02T00:00:00Z")
	iv := domain.NewInterval(start, end)

	if iv.Contains(start) {
		t.Error("start should not be contained (half-open)")
	}
	if !iv.Contains(end) {
		t.Error("end should be contained (half-open)")
	}
	if !iv.Contains(start.Add(time.Hour)) {
		t.Error("midpoint should be contained")
	}
	if iv.Contains(end.Add(time.Second)) {
		t.Error("instant after end should not be contained")
	}
}

func TestIntervalOrdering(t *testing.T) {
	a := mustTime(t, "2022-01-02T00:00:00Z")
	b := mustTime(t, "2022-01-01T00:00:00Z")
	iv := domain.NewInterval(a, b)
	if !iv.Start.Equal(b) || !iv.End.Equal(a) {
		t.Error("NewInterval should swap reversed start/end")
	}
}

func TestIsDisjoint(t *testing.T) {
	a := domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-02T00:00:00Z"))
	b := domain.NewInterval(mustTime(t, "2022-01-02T00:00:00Z"), mustTime(t, "2022-01-03T00:00:00Z"))
	c := domain.NewInterval(mustTime(t, "2022-01-01T12:00:00Z"), mustTime(t, "2022-01-01T18:00:00Z"))

	if !a.IsDisjoint(b) {
		t.Error("touching half-open intervals share no instant, so they are disjoint")
	}
	if a.IsDisjoint(c) {
		t.Error("c overlaps a, not disjoint")
	}
}

func TestIsContiguous(t *testing.T) {
	a := domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-02T00:00:00Z"))
	b := domain.NewInterval(mustTime(t, "2022-01-02T00:00:00Z"), mustTime(t, "2022-01-03T00:00:00Z"))
	gap := domain.NewInterval(mustTime(t, "2022-01-03T00:00:01Z"), mustTime(t, "2022-01-04T00:00:00Z"))

	if !a.IsContiguous(b) {
		t.Error("touching intervals are contiguous")
	}
	if b.IsContiguous(gap) {
		t.Error("intervals separated by a gap are not contiguous")
	}
}

func TestHasSubset(t *testing.T) {
	outer := domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-10T00:00:00Z"))
	inner := domain.NewInterval(mustTime(t, "2022-01-02T00:00:00Z"), mustTime(t, "2022-01-03T00:00:00Z"))

	if !outer.HasSubset(inner) {
		t.Error("inner should be a subset of outer")
	}
	if inner.HasSubset(outer) {
		t.Error("outer should not be a subset of inner")
	}
}

func TestIntersection(t *testing.T) {
	a := domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-05T00:00:00Z"))
	b := domain.NewInterval(mustTime(t, "2022-01-03T00:00:00Z"), mustTime(t, "2022-01-07T00:00:00Z"))

	got := a.Intersection(b)
	want := domain.NewInterval(mustTime(t, "2022-01-03T00:00:00Z"), mustTime(t, "2022-01-05T00:00:00Z"))
	if !got.Equal(want) {
		t.Errorf("intersection = %+v, want %+v", got, want)
	}

	disjointA := domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-02T00:00:00Z"))
	disjointB := domain.NewInterval(mustTime(t, "2022-01-03T00:00:00Z"), mustTime(t, "2022-01-04T00:00:00Z"))
	if !disjointA.Intersection(disjointB).IsEmpty() {
		t.Error("disjoint intervals should intersect to empty")
	}
}
