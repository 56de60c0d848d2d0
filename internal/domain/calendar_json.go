package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

const civilDateLayout = "2006-01-02"

// calendarJSON's Mask is a pointer so UnmarshalJSON can tell an omitted
// field (nil: default to Monday-Friday, per original_source/src/
// calendar.rs's #[serde(default = "default_dow_set")]) apart from an
// explicit empty list (matches no weekday at all).
type calendarJSON struct {
	Mask    *[]string `json:"mask,omitempty"`
	Include []string  `json:"include,omitempty"`
	Exclude []string  `json:"exclude,omitempty"`
}

// MarshalJSON renders the calendar as a world-file mask/include/exclude
// document.
func (c Calendar) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(c.Mask))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if c.Mask[wd] {
			for name, w := range weekdayNames {
				if w == wd {
					names = append(names, name)
				}
			}
		}
	}
	doc := calendarJSON{Mask: &names}
	for d := range c.Include {
		doc.Include = append(doc.Include, d.toTime().Format(civilDateLayout))
	}
	for d := range c.Exclude {
		doc.Exclude = append(doc.Exclude, d.toTime().Format(civilDateLayout))
	}
	return json.Marshal(doc)
}

// UnmarshalJSON parses a world-file mask/include/exclude document. A
// document that omits mask entirely defaults to Monday-Friday.
func (c *Calendar) UnmarshalJSON(data []byte) error {
	var doc calendarJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	*c = Calendar{
		Mask:    map[time.Weekday]bool{},
		Exclude: map[civilDate]bool{},
		Include: map[civilDate]bool{},
	}
	if doc.Mask == nil {
		c.Mask = defaultWeekdayMask()
	} else {
		for _, name := range *doc.Mask {
			wd, ok := weekdayNames[name]
			if !ok {
				return fmt.Errorf("unknown weekday %q", name)
			}
			c.Mask[wd] = true
		}
	}
	for _, s := range doc.Include {
		t, err := time.Parse(civilDateLayout, s)
		if err != nil {
			return fmt.Errorf("invalid include date %q: %w", s, err)
		}
		c.Include[toCivilDate(t)] = true
	}
	for _, s := range doc.Exclude {
		t, err := time.Parse(civilDateLayout, s)
		if err != nil {
			return fmt.Errorf("invalid exclude date %q: %w", s, err)
		}
		c.Exclude[toCivilDate(t)] = true
	}
	return nil
}
