package domain

import (
	"strings"
	"time"
)

// VarMap is a flat string->string substitution table applied to task
// command templates. Grounded on original_source/src/varmap.rs.
type VarMap map[string]string

// NewVarMap returns an empty VarMap.
func NewVarMap() VarMap {
	return VarMap{}
}

// Merge returns a copy of v with other's entries overlaid on top.
func (v VarMap) Merge(other VarMap) VarMap {
	out := make(VarMap, len(v)+len(other))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range other {
		out[k] = val
	}
	return out
}

// VarMapFromInterval derives the standard PERIOD_START/PERIOD_END/yyyy/mm/
// dd/yyyymmdd/hhmmss variables for a scheduled Interval, in tz. All fields
// but PERIOD_START/PERIOD_END are derived from the interval's End instant,
// matching original_source/src/varmap.rs's from_interval.
func VarMapFromInterval(interval Interval, tz *time.Location) VarMap {
	start := interval.Start.In(tz)
	end := interval.End.In(tz)
	return VarMap{
		"PERIOD_START": start.Format(time.RFC3339),
		"PERIOD_END":   end.Format(time.RFC3339),
		"yyyy":         end.Format("2006"),
		"mm":           end.Format("01"),
		"dd":           end.Format("02"),
		"yyyymmdd":     end.Format("20060102"),
		"hhmmss":       end.Format("150405"),
	}
}

// ApplyTo performs literal ${name} substitution over s. Unknown
// placeholders are left untouched.
func (v VarMap) ApplyTo(s string) string {
	out := s
	for name, val := range v {
		out = strings.ReplaceAll(out, "${"+name+"}", val)
	}
	return out
}
