package domain_test

import (
	"testing"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

func TestIntervalSetDifference(t *testing.T) {
	a := domain.IntervalSetFrom(domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-10T00:00:00Z")))
	b := domain.IntervalSetFrom(domain.NewInterval(mustTime(t, "2022-01-03T00:00:00Z"), mustTime(t, "2022-01-05T00:00:00Z")))

	got := a.Difference(b)
	want := domain.IntervalSetFromSlice([]domain.Interval{
		domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-03T00:00:00Z")),
		domain.NewInterval(mustTime(t, "2022-01-05T00:00:00Z"), mustTime(t, "2022-01-10T00:00:00Z")),
	})

	if !got.Equal(want) {
		t.Errorf("difference = %+v, want %+v", got.Intervals(), want.Intervals())
	}
}

func TestIntervalSetComplement(t *testing.T) {
	s := domain.IntervalSetFrom(domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-10T00:00:00Z")))

	complement := s.Complement()
	roundTrip := complement.Complement()

	if !roundTrip.Equal(s) {
		t.Errorf("complement(complement(s)) = %+v, want %+v", roundTrip.Intervals(), s.Intervals())
	}

	// Complement of an empty set is the whole universe.
	empty := domain.NewIntervalSet()
	full := empty.Complement()
	if len(full.Intervals()) != 1 {
		t.Fatalf("complement of empty set should have one member, got %d", len(full.Intervals()))
	}
	if !full.Intervals()[0].Start.Equal(domain.MinTime) || !full.Intervals()[0].End.Equal(domain.MaxTime) {
		t.Errorf("complement of empty set should span MinTime..MaxTime, got %+v", full.Intervals()[0])
	}

	// An interval anchored at MinTime.
	anchored := domain.IntervalSetFrom(domain.NewInterval(domain.MinTime, mustTime(t, "2022-01-01T00:00:00Z")))
	anchoredRoundTrip := anchored.Complement().Complement()
	if !anchoredRoundTrip.Equal(anchored) {
		t.Errorf("MinTime-anchored round trip mismatch: got %+v, want %+v", anchoredRoundTrip.Intervals(), anchored.Intervals())
	}
}

func TestIntervalSetCoalesce(t *testing.T) {
	got := domain.IntervalSetFromSlice([]domain.Interval{
		domain.NewInterval(mustTime(t, "2022-01-03T00:00:00Z"), mustTime(t, "2022-01-04T00:00:00Z")),
		domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-02T00:00:00Z")),
		domain.NewInterval(mustTime(t, "2022-01-02T00:00:00Z"), mustTime(t, "2022-01-03T00:00:00Z")),
	})

	want := domain.IntervalSetFrom(domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-04T00:00:00Z")))
	if !got.Equal(want) {
		t.Errorf("coalesce = %+v, want %+v", got.Intervals(), want.Intervals())
	}
}

func TestIntervalSetUnionIntersection(t *testing.T) {
	a := domain.IntervalSetFrom(domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-05T00:00:00Z")))
	b := domain.IntervalSetFrom(domain.NewInterval(mustTime(t, "2022-01-03T00:00:00Z"), mustTime(t, "2022-01-07T00:00:00Z")))

	union := a.Union(b)
	wantUnion := domain.IntervalSetFrom(domain.NewInterval(mustTime(t, "2022-01-01T00:00:00Z"), mustTime(t, "2022-01-07T00:00:00Z")))
	if !union.Equal(wantUnion) {
		t.Errorf("union = %+v, want %+v", union.Intervals(), wantUnion.Intervals())
	}

	intersection := a.Intersection(b)
	wantIntersection := domain.IntervalSetFrom(domain.NewInterval(mustTime(t, "2022-01-03T00:00:00Z"), mustTime(t, "2022-01-05T00:00:00Z")))
	if !intersection.Equal(wantIntersection) {
		t.Errorf("intersection = %+v, want %+v", intersection.Intervals(), wantIntersection.Intervals())
	}
}
