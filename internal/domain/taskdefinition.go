package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// civilDateTimeLayouts are the accepted valid_from/valid_to layouts: a
// naive, zone-less local date-time (with or without seconds), matching
// original_source/src/task.rs's use of chrono::NaiveDateTime for these
// fields (task.rs:95-98). Unlike time.Time's RFC3339 parsing,
// encoding/json never infers or requires a zone offset here — the value
// is only ever meaningful once localized against the owning Task's own
// timezone (see CivilDateTime.In).
var civilDateTimeLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// CivilDateTime is a naive, zone-less local date-time as it appears in a
// World JSON document's valid_from/valid_to fields, e.g. "2022-01-03T00:00"
// or "2022-01-05T12:30:00". It carries no timezone of its own; In
// localizes it against a *time.Location supplied by the caller (the
// Task's own Timezone), matching original_source's
// `timezone.from_local_datetime(&naive)` (task.rs:110,122).
type CivilDateTime struct {
	raw string
}

// UnmarshalJSON accepts a JSON string in one of civilDateTimeLayouts.
func (c *CivilDateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("civil date-time must be a JSON string: %w", err)
	}
	var lastErr error
	for _, layout := range civilDateTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			c.raw = s
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("invalid civil date-time %q: %w", s, lastErr)
}

// MarshalJSON renders the date-time back to its original string form.
func (c CivilDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.raw)
}

// CivilDateTimeFromTime formats t's own wall-clock fields into a
// CivilDateTime, ignoring t's Location — callers are responsible for
// ensuring t's wall-clock fields already match the owning Task's
// Timezone, since a CivilDateTime carries no zone of its own.
func CivilDateTimeFromTime(t time.Time) CivilDateTime {
	return CivilDateTime{raw: t.Format(civilDateTimeLayouts[0])}
}

// In interprets the naive date-time as wall-clock time in tz, returning
// the instant it denotes in that zone.
func (c CivilDateTime) In(tz *time.Location) (time.Time, error) {
	var lastErr error
	for _, layout := range civilDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, c.raw, tz); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

// TaskDefinition is the on-disk (World JSON) shape of a Task, before it is
// resolved against a named Calendar into a runnable Task. Grounded on
// original_source/src/task.rs's TaskDefinition (deny_unknown_fields).
type TaskDefinition struct {
	Up                TaskDetails     `json:"up"`
	Down              TaskDetails     `json:"down,omitempty"`
	Check             TaskDetails     `json:"check,omitempty"`
	AlertDelaySeconds int64           `json:"alert_delay_seconds,omitempty"`
	Provides          []string        `json:"provides,omitempty"`
	Requires          json.RawMessage `json:"requires,omitempty"`
	CalendarName      string          `json:"calendar_name"`
	Times             []string        `json:"times"`
	Timezone          string          `json:"timezone"`
	ValidFrom         CivilDateTime   `json:"valid_from"`
	ValidTo           *CivilDateTime  `json:"valid_to,omitempty"`
}

// ToTask resolves a TaskDefinition into a runnable Task, given its name
// and the Calendar its calendar_name refers to.
func (d TaskDefinition) ToTask(name string, calendar Calendar) (Task, error) {
	tz, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return Task{}, fmt.Errorf("task %q: invalid timezone %q: %w", name, d.Timezone, err)
	}

	times := make([]TimeOfDay, 0, len(d.Times))
	for _, s := range d.Times {
		tod, err := parseTimeOfDay(s)
		if err != nil {
			return Task{}, fmt.Errorf("task %q: invalid time %q: %w", name, s, err)
		}
		times = append(times, tod)
	}

	schedule := NewSchedule(calendar, times, tz)

	validFrom, err := d.ValidFrom.In(tz)
	if err != nil {
		return Task{}, fmt.Errorf("task %q: invalid valid_from: %w", name, err)
	}
	start := schedule.AlignInterval(validFrom)

	end := MaxTime
	if d.ValidTo != nil {
		validTo, err := d.ValidTo.In(tz)
		if err != nil {
			return Task{}, fmt.Errorf("task %q: invalid valid_to: %w", name, err)
		}
		end = schedule.AlignInterval(validTo)
	}

	var requires Requirement
	if len(d.Requires) > 0 {
		requires, err = UnmarshalRequirementJSON(d.Requires)
		if err != nil {
			return Task{}, fmt.Errorf("task %q: invalid requires: %w", name, err)
		}
	}

	provides := d.Provides
	if len(provides) == 0 {
		provides = []string{name}
	}

	return Task{
		Name:       name,
		Up:         d.Up,
		Down:       d.Down,
		Check:      d.Check,
		Provides:   provides,
		Requires:   requires,
		Schedule:   schedule,
		ValidOver:  IntervalSetFrom(NewInterval(start, end)),
		TimeZone:   tz,
		AlertDelay: time.Duration(d.AlertDelaySeconds) * time.Second,
	}, nil
}

func parseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return TimeOfDay{}, err
		}
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}
