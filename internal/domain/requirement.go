package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Requirement is a node in a recursive satisfiability tree: either a
// predicate over resource availability (Offset, File) or a boolean
// combinator over child Requirements (All, Any, None). Grounded on
// original_source/src/requirement.rs's Satisfiable trait and the
// untagged One/Group, AggregateRequirement and SingleRequirement enums.
type Requirement interface {
	// IsSatisfied reports whether the requirement holds at t, given
	// schedule (used to resolve Offset's relative interval) and the
	// currently available resource coverage.
	IsSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool

	// CanBeSatisfied reports whether the requirement could ever hold for
	// the interval around t. For Offset this is the same check as
	// IsSatisfied: a dependency on a resource interval that simply
	// hasn't been produced yet can never retroactively be produced for
	// that exact interval, so "can be satisfied" and "is satisfied"
	// coincide. Only File is unconditionally satisfiable here, since
	// file existence is a run-time check performed by the executor, not
	// a planning-time one.
	CanBeSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool

	// Resources returns the set of resource names this requirement (and
	// its descendants) refer to via Offset.
	Resources() map[string]bool
}

// OffsetRequirement is satisfied when resource has been produced over the
// schedule interval offset firings away from the evaluation time.
type OffsetRequirement struct {
	Resource string `json:"resource"`
	Offset   int    `json:"offset"`
}

func (o OffsetRequirement) interval(t time.Time, schedule Schedule) Interval {
	return schedule.IntervalAt(t, o.Offset)
}

func (o OffsetRequirement) IsSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool {
	iset, ok := available[o.Resource]
	if !ok {
		return false
	}
	return iset.HasSubset(o.interval(t, schedule))
}

func (o OffsetRequirement) CanBeSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool {
	return o.IsSatisfied(t, schedule, available)
}

func (o OffsetRequirement) Resources() map[string]bool {
	return map[string]bool{o.Resource: true}
}

// FileRequirement is satisfied when a file exists at Path at run time.
// This package performs no filesystem access itself; IsSatisfied always
// reports true here because the actual existence check happens on the
// executor host at dispatch time, not during planning.
type FileRequirement struct {
	Path string `json:"path"`
}

func (f FileRequirement) IsSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool {
	return true
}

func (f FileRequirement) CanBeSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool {
	return true
}

func (f FileRequirement) Resources() map[string]bool { return map[string]bool{} }

// AllRequirement is satisfied when every child is satisfied.
type AllRequirement struct {
	Children []Requirement `json:"all"`
}

func (a AllRequirement) IsSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool {
	for _, c := range a.Children {
		if !c.IsSatisfied(t, schedule, available) {
			return false
		}
	}
	return true
}

func (a AllRequirement) CanBeSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool {
	for _, c := range a.Children {
		if !c.CanBeSatisfied(t, schedule, available) {
			return false
		}
	}
	return true
}

func (a AllRequirement) Resources() map[string]bool { return unionResources(a.Children) }

// AnyRequirement is satisfied when at least one child is satisfied.
type AnyRequirement struct {
	Children []Requirement `json:"any"`
}

func (a AnyRequirement) IsSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool {
	for _, c := range a.Children {
		if c.IsSatisfied(t, schedule, available) {
			return true
		}
	}
	return false
}

func (a AnyRequirement) CanBeSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool {
	for _, c := range a.Children {
		if c.CanBeSatisfied(t, schedule, available) {
			return true
		}
	}
	return false
}

func (a AnyRequirement) Resources() map[string]bool { return unionResources(a.Children) }

// NoneRequirement is satisfied when no child is satisfied.
type NoneRequirement struct {
	Children []Requirement `json:"none"`
}

func (n NoneRequirement) IsSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool {
	for _, c := range n.Children {
		if c.IsSatisfied(t, schedule, available) {
			return false
		}
	}
	return true
}

func (n NoneRequirement) CanBeSatisfied(t time.Time, schedule Schedule, available ResourceInterval) bool {
	for _, c := range n.Children {
		if c.IsSatisfied(t, schedule, available) {
			return false
		}
	}
	return true
}

func (n NoneRequirement) Resources() map[string]bool { return unionResources(n.Children) }

func unionResources(children []Requirement) map[string]bool {
	out := map[string]bool{}
	for _, c := range children {
		for r := range c.Resources() {
			out[r] = true
		}
	}
	return out
}

// UnmarshalRequirementJSON decodes one untagged requirement node, matching
// original_source's serde(untagged) One/Group shapes: {"all":[...]},
// {"any":[...]}, {"none":[...]}, {"resource":...,"offset":...}, or
// {"type":"file","path":...}.
func UnmarshalRequirementJSON(data []byte) (Requirement, error) {
	var probe struct {
		All      json.RawMessage `json:"all"`
		Any      json.RawMessage `json:"any"`
		None     json.RawMessage `json:"none"`
		Resource *string         `json:"resource"`
		Offset   *int            `json:"offset"`
		Type     *string         `json:"type"`
		Path     *string         `json:"path"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode requirement: %w", err)
	}

	switch {
	case probe.All != nil:
		children, err := unmarshalRequirementList(probe.All)
		return AllRequirement{Children: children}, err
	case probe.Any != nil:
		children, err := unmarshalRequirementList(probe.Any)
		return AnyRequirement{Children: children}, err
	case probe.None != nil:
		children, err := unmarshalRequirementList(probe.None)
		return NoneRequirement{Children: children}, err
	case probe.Type != nil && *probe.Type == "file":
		if probe.Path == nil {
			return nil, fmt.Errorf("file requirement missing path")
		}
		return FileRequirement{Path: *probe.Path}, nil
	case probe.Resource != nil:
		offset := 0
		if probe.Offset != nil {
			offset = *probe.Offset
		}
		return OffsetRequirement{Resource: *probe.Resource, Offset: offset}, nil
	default:
		return nil, fmt.Errorf("unrecognized requirement shape")
	}
}

func unmarshalRequirementList(data json.RawMessage) ([]Requirement, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	out := make([]Requirement, 0, len(raws))
	for _, raw := range raws {
		r, err := UnmarshalRequirementJSON(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// MarshalRequirementJSON serializes a requirement tree back to its
// untagged JSON shape, the inverse of UnmarshalRequirementJSON.
func MarshalRequirementJSON(r Requirement) ([]byte, error) {
	switch v := r.(type) {
	case AllRequirement:
		return marshalGroup("all", v.Children)
	case AnyRequirement:
		return marshalGroup("any", v.Children)
	case NoneRequirement:
		return marshalGroup("none", v.Children)
	case FileRequirement:
		return json.Marshal(struct {
			Type string `json:"type"`
			Path string `json:"path"`
		}{Type: "file", Path: v.Path})
	case OffsetRequirement:
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("unknown requirement type %T", r)
	}
}

func marshalGroup(key string, children []Requirement) ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(children))
	for _, c := range children {
		b, err := MarshalRequirementJSON(c)
		if err != nil {
			return nil, err
		}
		raws = append(raws, b)
	}
	return json.Marshal(map[string]json.RawMessage{key: mustMarshal(raws)})
}

func mustMarshal(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
