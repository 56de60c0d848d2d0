package domain_test

import (
	"testing"
	"time"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

func TestVarMapMergeOverlaysOther(t *testing.T) {
	base := domain.VarMap{"a": "1", "b": "2"}
	other := domain.VarMap{"b": "3", "c": "4"}

	merged := base.Merge(other)

	if merged["a"] != "1" {
		t.Errorf("a = %q, want 1 (only in base)", merged["a"])
	}
	if merged["b"] != "3" {
		t.Errorf("b = %q, want 3 (other overlays base)", merged["b"])
	}
	if merged["c"] != "4" {
		t.Errorf("c = %q, want 4 (only in other)", merged["c"])
	}
	if len(base) != 2 {
		t.Error("Merge mutated the receiver")
	}
}

func TestVarMapApplyToLiteralSubstitution(t *testing.T) {
	v := domain.VarMap{"name": "waterfall"}
	got := v.ApplyTo("hello ${name}, unknown ${missing} stays")
	want := "hello waterfall, unknown ${missing} stays"
	if got != want {
		t.Errorf("ApplyTo = %q, want %q", got, want)
	}
}

func TestVarMapFromInterval(t *testing.T) {
	start := mustTime(t, "2022-03-04T00:00:00Z")
	end := mustTime(t, "2022-03-05T00:00:00Z")
	interval := domain.NewInterval(start, end)

	v := domain.VarMapFromInterval(interval, time.UTC)

	if v["PERIOD_START"] != start.Format(time.RFC3339) {
		t.Errorf("PERIOD_START = %q", v["PERIOD_START"])
	}
	if v["PERIOD_END"] != end.Format(time.RFC3339) {
		t.Errorf("PERIOD_END = %q", v["PERIOD_END"])
	}
	if v["yyyy"] != "2022" || v["mm"] != "03" || v["dd"] != "05" {
		t.Errorf("date parts derived from wrong instant: yyyy=%s mm=%s dd=%s", v["yyyy"], v["mm"], v["dd"])
	}
	if v["yyyymmdd"] != "20220305" {
		t.Errorf("yyyymmdd = %q", v["yyyymmdd"])
	}
}
