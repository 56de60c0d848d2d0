package domain

import "fmt"

// TaskResources is a named bundle of integer resource quantities (e.g. CPU
// shares, memory MB, GPU count) a task needs to run, or an agent target
// has available. Grounded on original_source/src/task.rs's TaskResources.
type TaskResources map[string]int64

// CanSatisfy reports whether t has enough of every resource other needs.
func (t TaskResources) CanSatisfy(other TaskResources) bool {
	for k, v := range other {
		if t[k] < v {
			return false
		}
	}
	return true
}

// Sub returns t with other's quantities deducted, erroring if the result
// would be negative for any resource.
func (t TaskResources) Sub(other TaskResources) (TaskResources, error) {
	out := make(TaskResources, len(t))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] -= v
		if out[k] < 0 {
			return nil, fmt.Errorf("insufficient resource %q: have %d, need %d", k, t[k], v)
		}
	}
	return out, nil
}

// Add returns t with other's quantities added.
func (t TaskResources) Add(other TaskResources) TaskResources {
	out := make(TaskResources, len(t))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] += v
	}
	return out
}
