package domain

import "time"

// ActionState tracks an Action through the runner's check/up/check
// protocol.
type ActionState string

const (
	ActionQueued   ActionState = "queued"
	ActionRunning  ActionState = "running"
	ActionErrored  ActionState = "errored"
	ActionComplete ActionState = "completed"
)

// Action is one scheduled run of a Task over a specific Interval. Task is
// an index into the owning TaskSet rather than a name, so renaming a task
// in the world definition never silently re-targets unrelated history.
type Action struct {
	ID       string      `json:"id"`
	Task     int         `json:"task"`
	Interval Interval    `json:"interval"`
	State    ActionState `json:"state"`
}

// TaskAttempt records the outcome of one execution attempt of a Task's
// up/check/down commands. Grounded on
// original_source/src/executors/mod.rs's TaskAttempt.
type TaskAttempt struct {
	TaskName      string    `json:"taskName"`
	ScheduledTime time.Time `json:"scheduledTime"`
	StartTime     time.Time `json:"startTime"`
	StopTime      time.Time `json:"stopTime"`
	Succeeded     bool      `json:"succeeded"`
	Killed        bool      `json:"killed"`
	InfraFailure  bool      `json:"infraFailure"`
	Output        string    `json:"output"`
	Error         string    `json:"error"`
	Executor      []string  `json:"executor"`
	ExitCode      int       `json:"exitCode"`
	MaxCPU        float64   `json:"maxCpu"`
	AvgCPU        float64   `json:"avgCpu"`
	MaxRSS        uint64    `json:"maxRss"`
	AvgRSS        float64   `json:"avgRss"`
}

// NewTaskAttempt returns a zero-value attempt with its timestamps set to
// now, matching original_source's TaskAttempt::new default.
func NewTaskAttempt() TaskAttempt {
	now := time.Now().UTC()
	return TaskAttempt{
		ScheduledTime: now,
		StartTime:     now,
		StopTime:      now,
	}
}
