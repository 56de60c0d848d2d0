package domain

import "time"

// Calendar decides which calendar dates a Schedule fires on: a weekday
// mask plus explicit include/exclude date overrides. Grounded on
// original_source/src/calendar.rs.
type Calendar struct {
	// Mask lists the weekdays on which the calendar is active by default.
	Mask map[time.Weekday]bool `json:"-"`
	// Exclude lists dates (truncated to midnight) that are never included,
	// even if their weekday is in Mask or they appear in Include.
	Exclude map[civilDate]bool `json:"-"`
	// Include lists dates that are always included, even if their weekday
	// is not in Mask.
	Include map[civilDate]bool `json:"-"`
}

// civilDate is a timezone-naive calendar date, used as a map key.
type civilDate struct {
	Year  int
	Month time.Month
	Day   int
}

func toCivilDate(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{Year: y, Month: m, Day: d}
}

func (d civilDate) toTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// defaultWeekdayMask is the weekday set a Calendar falls back to when
// none is given, matching original_source/src/calendar.rs's
// default_dow_set (#[serde(default = "default_dow_set")]): Monday
// through Friday.
func defaultWeekdayMask() map[time.Weekday]bool {
	return map[time.Weekday]bool{
		time.Monday:    true,
		time.Tuesday:   true,
		time.Wednesday: true,
		time.Thursday:  true,
		time.Friday:    true,
	}
}

// NewCalendar returns a calendar defaulting to weekdays (Monday-Friday),
// with no date overrides.
func NewCalendar() Calendar {
	return Calendar{
		Mask:    defaultWeekdayMask(),
		Exclude: map[civilDate]bool{},
		Include: map[civilDate]bool{},
	}
}

// IncludeDate always activates date, regardless of weekday mask.
func (c Calendar) IncludeDate(date time.Time) {
	c.Include[toCivilDate(date)] = true
}

// ExcludeDate always deactivates date, regardless of weekday mask or
// IncludeDate.
func (c Calendar) ExcludeDate(date time.Time) {
	c.Exclude[toCivilDate(date)] = true
}

// Includes reports whether date is active on the calendar. Exclude always
// wins, then Include, then the weekday Mask.
func (c Calendar) Includes(date time.Time) bool {
	cd := toCivilDate(date)
	if c.Exclude[cd] {
		return false
	}
	if c.Include[cd] {
		return true
	}
	return c.Mask[date.Weekday()]
}

// Next returns the next calendar date strictly after date that Includes
// reports true for.
func (c Calendar) Next(date time.Time) time.Time {
	d := date.AddDate(0, 0, 1)
	for !c.Includes(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// Prev returns the nearest calendar date strictly before date that
// Includes reports true for.
func (c Calendar) Prev(date time.Time) time.Time {
	d := date.AddDate(0, 0, -1)
	for !c.Includes(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// Offset steps n calendar dates forward (n > 0) or backward (n < 0) from
// date, stepping through Includes-true dates only. n == 0 is a no-op.
func (c Calendar) Offset(date time.Time, n int) time.Time {
	d := date
	for n > 0 {
		d = c.Next(d)
		n--
	}
	for n < 0 {
		d = c.Prev(d)
		n++
	}
	return d
}
