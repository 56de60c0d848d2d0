package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

func TestCivilDateTimeUnmarshalJSONAcceptsBothLayouts(t *testing.T) {
	var withSeconds, withoutSeconds domain.CivilDateTime
	if err := json.Unmarshal([]byte(`"2022-01-05T12:30:00"`), &withSeconds); err != nil {
		t.Fatalf("unmarshal with seconds: %v", err)
	}
	if err := json.Unmarshal([]byte(`"2022-01-05T12:30"`), &withoutSeconds); err != nil {
		t.Fatalf("unmarshal without seconds: %v", err)
	}
}

func TestCivilDateTimeUnmarshalJSONRejectsZoneOffsets(t *testing.T) {
	var c domain.CivilDateTime
	if err := json.Unmarshal([]byte(`"2022-01-05T12:30:00Z"`), &c); err == nil {
		t.Error("expected a zone-qualified string to be rejected: valid_from/valid_to are naive local date-times")
	}
}

func TestCivilDateTimeInLocalizesAgainstTheGivenZone(t *testing.T) {
	halifax, err := time.LoadLocation("America/Halifax")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	var c domain.CivilDateTime
	if err := json.Unmarshal([]byte(`"2022-01-05T12:30:00"`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, err := c.In(halifax)
	if err != nil {
		t.Fatalf("In: %v", err)
	}
	want := time.Date(2022, 1, 5, 12, 30, 0, 0, halifax)
	if !got.Equal(want) {
		t.Errorf("In(Halifax) = %v, want %v", got, want)
	}
}

// TestTaskDefinitionToTaskLocalizesValidFromInTaskTimezone mirrors
// original_source/src/task.rs's to_task test: valid_from "2022-01-05T12:30:00"
// in America/Halifax must align to Halifax's own 09:00 firing on
// 2022-01-05, not a UTC-literal interpretation of the same digits.
func TestTaskDefinitionToTaskLocalizesValidFromInTaskTimezone(t *testing.T) {
	halifax, err := time.LoadLocation("America/Halifax")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	cal := domain.NewCalendar()
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		cal.Mask[wd] = true
	}

	var validFrom domain.CivilDateTime
	if err := json.Unmarshal([]byte(`"2022-01-05T12:30:00"`), &validFrom); err != nil {
		t.Fatalf("unmarshal valid_from: %v", err)
	}

	def := domain.TaskDefinition{
		Up:           json.RawMessage(`{"command":["/bin/true"]}`),
		Provides:     []string{"a"},
		CalendarName: "std",
		Times:        []string{"09:00:00"},
		Timezone:     "America/Halifax",
		ValidFrom:    validFrom,
	}

	task, err := def.ToTask("a", cal)
	if err != nil {
		t.Fatalf("ToTask: %v", err)
	}

	want := time.Date(2022, 1, 5, 9, 0, 0, 0, halifax)
	if !task.ValidOver.Start().Equal(want) {
		t.Errorf("ValidOver.Start() = %v, want %v (Halifax 09:00, not a UTC-literal parse)", task.ValidOver.Start(), want)
	}
}
