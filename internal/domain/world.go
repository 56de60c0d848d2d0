package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// TaskOutputOptions controls how much of a task's stdout/stderr is kept.
// Grounded on original_source/src/executors/mod.rs's TaskOutputOptions.
type TaskOutputOptions struct {
	DiscardSuccessful bool `json:"discard_successful"`
	Truncate          bool `json:"truncate"`
	HeadBytes         int  `json:"head_bytes"`
	TailBytes         int  `json:"tail_bytes"`
}

const defaultTruncateBytes = 20480

// DefaultTaskOutputOptions matches original_source's Default impl: discard
// successful output, truncate the rest to 20KB head and tail.
func DefaultTaskOutputOptions() TaskOutputOptions {
	return TaskOutputOptions{
		DiscardSuccessful: true,
		Truncate:          true,
		HeadBytes:         defaultTruncateBytes,
		TailBytes:         defaultTruncateBytes,
	}
}

// WorldDefinition is the --world JSON document: every task, every named
// calendar, global template variables, and output-handling defaults.
// Grounded on original_source/src/world.rs.
type WorldDefinition struct {
	Tasks         map[string]TaskDefinition `json:"tasks"`
	Calendars     map[string]Calendar       `json:"calendars"`
	Variables     VarMap                    `json:"variables,omitempty"`
	OutputOptions TaskOutputOptions         `json:"output_options,omitempty"`
}

// UnmarshalJSON applies field defaults (empty VarMap, default output
// options) the way original_source's #[serde(default)] annotations do.
func (w *WorldDefinition) UnmarshalJSON(data []byte) error {
	type alias WorldDefinition
	aux := alias{
		Variables:     NewVarMap(),
		OutputOptions: DefaultTaskOutputOptions(),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*w = WorldDefinition(aux)
	return nil
}

// TaskSet resolves every TaskDefinition against its named Calendar and
// validates the resulting world-wide invariants. Grounded on
// original_source/src/world.rs's WorldDefinition::taskset.
func (w WorldDefinition) TaskSet() (TaskSet, error) {
	tasks := make([]Task, 0, len(w.Tasks))
	// Iterate in a stable order (sorted by name) so TaskSet indices are
	// deterministic across re-loads of the same world file.
	names := make([]string, 0, len(w.Tasks))
	for name := range w.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := w.Tasks[name]
		cal, ok := w.Calendars[def.CalendarName]
		if !ok {
			return TaskSet{}, fmt.Errorf("task %q: unknown calendar %q", name, def.CalendarName)
		}
		task, err := def.ToTask(name, cal)
		if err != nil {
			return TaskSet{}, err
		}
		tasks = append(tasks, task)
	}

	ts, err := NewTaskSet(tasks)
	if err != nil {
		return TaskSet{}, err
	}
	if err := ts.Validate(); err != nil {
		return TaskSet{}, err
	}
	return ts, nil
}
