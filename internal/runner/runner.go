// Package runner implements the Runner convergence loop (spec component
// C10): it drives a TaskSet's desired state forward by diffing the
// theoretical target against what is currently up, dispatching Actions
// through the Executor protocol, and persisting progress through the
// Storage protocol. Grounded on original_source/src/runner.rs.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
	"github.com/kinesin-ca/waterfall-go/internal/executor"
	"github.com/kinesin-ca/waterfall-go/internal/storage"
)

const (
	tickInterval  = 250 * time.Millisecond
	retryBackoff  = 30 * time.Second
	targetHorizon = 24 * time.Hour
)

// Message is the closed set of events the Runner's loop accepts.
type Message interface {
	isRunnerMessage()
}

type tickMsg struct{}

func (tickMsg) isRunnerMessage() {}

type actionCompletedMsg struct {
	ActionID  int
	Succeeded bool
}

func (actionCompletedMsg) isRunnerMessage() {}

type retryActionMsg struct{ ActionID int }

func (retryActionMsg) isRunnerMessage() {}

// ForceUp marks resources available over interval, per spec.md §4.8: for
// every task whose Provides is a subset of resources, interval is aligned
// to that task's schedule, added to current for each provided resource,
// and any matching Actions are marked Completed.
type ForceUp struct {
	Resources map[string]bool
	Interval  domain.Interval
}

func (ForceUp) isRunnerMessage() {}

// ForceDown is ForceUp's symmetric opposite: it subtracts from current and
// re-queues matching Actions.
type ForceDown struct {
	Resources map[string]bool
	Interval  domain.Interval
}

func (ForceDown) isRunnerMessage() {}

// Stop breaks the run loop.
type Stop struct{}

func (Stop) isRunnerMessage() {}

// GetState reports the current and theoretical-coverage ResourceIntervals.
type GetState struct {
	Reply chan<- StateSnapshot
}

func (GetState) isRunnerMessage() {}

// StateSnapshot is GetState's reply payload.
type StateSnapshot struct {
	Current  domain.ResourceInterval `json:"current"`
	Coverage domain.ResourceInterval `json:"coverage"`
}

// GetResourceStateDetails requests the Actions touching interval, grouped
// resource -> task name -> Actions. When the per-group Action count
// exceeds MaxIntervals (if positive), adjacent Actions sharing the same
// (task, state) are coalesced via IntervalSet before replying.
type GetResourceStateDetails struct {
	Interval     domain.Interval
	MaxIntervals int
	Reply        chan<- map[string]map[string][]domain.Action
}

func (GetResourceStateDetails) isRunnerMessage() {}

// Runner converges a TaskSet's current ResourceInterval state toward its
// theoretical coverage, one scheduled Action at a time. It owns all of its
// mutable state exclusively — actions, current and target are only ever
// touched from the goroutine running Run — matching spec.md §5's
// single-threaded-cooperative-at-the-Runner model.
type Runner struct {
	tasks         domain.TaskSet
	vars          domain.VarMap
	outputOptions domain.TaskOutputOptions
	stayUp        bool

	endState domain.ResourceInterval
	target   domain.ResourceInterval
	current  domain.ResourceInterval

	actions []domain.Action

	logger   *slog.Logger
	executor *executor.Client
	storage  *storage.Client

	messages chan Message
}

// NewRunner validates tasks and every task command against executor,
// loads (or discards) prior state from storage, and computes the initial
// target and Action backlog. Grounded on original_source/src/runner.rs's
// Runner::new.
func NewRunner(
	tasks domain.TaskSet,
	vars domain.VarMap,
	outputOptions domain.TaskOutputOptions,
	stayUp, forceRecheck bool,
	exec *executor.Client,
	store *storage.Client,
	logger *slog.Logger,
) (*Runner, error) {
	if err := tasks.Validate(); err != nil {
		return nil, fmt.Errorf("validate task set: %w", err)
	}

	for i := 0; i < tasks.Len(); i++ {
		t := tasks.At(i)
		if err := exec.Validate(t.Up); err != nil {
			return nil, fmt.Errorf("task %q: up command rejected by executor: %w", t.Name, err)
		}
		if len(t.Down) > 0 {
			if err := exec.Validate(t.Down); err != nil {
				return nil, fmt.Errorf("task %q: down command rejected by executor: %w", t.Name, err)
			}
		}
		if len(t.Check) > 0 {
			if err := exec.Validate(t.Check); err != nil {
				return nil, fmt.Errorf("task %q: check command rejected by executor: %w", t.Name, err)
			}
		}
	}

	var current domain.ResourceInterval
	if forceRecheck {
		logger.Info("force re-check set, starting with empty current state")
		current = domain.NewResourceInterval()
	} else {
		logger.Info("pulling last state from storage")
		current = store.LoadState()
	}

	endState, err := tasks.Coverage()
	if err != nil {
		return nil, fmt.Errorf("compute coverage: %w", err)
	}

	r := &Runner{
		tasks:         tasks,
		vars:          vars,
		outputOptions: outputOptions,
		stayUp:        stayUp,
		endState:      endState,
		target:        current.Clone(),
		current:       current,
		logger:        logger.With("component", "runner"),
		executor:      exec,
		storage:       store,
		messages:      make(chan Message, 4096),
	}

	r.tick()
	r.queueActions()

	return r, nil
}

// Client returns a handle other goroutines (HTTP handlers, tests) can use
// to send Runner messages.
func (r *Runner) Client() *Client {
	return &Client{messages: r.messages}
}

// Run drains Runner messages, ticking every 250ms on a time.Ticker, until a
// Stop is received or (in batch mode, stayUp == false) current converges
// to endState. Grounded on original_source/src/runner.rs's Runner::run,
// adapted from its FuturesUnordered poll loop to Go's native select —
// a Go channel receive already blocks until a message is ready, so the
// original's 10ms try_recv poll cadence (an artifact of the Rust actor's
// cooperative-scheduling model) has no Go analogue and is not carried
// over; select delivers messages at least as promptly with none of the
// busy-wait overhead.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		if !r.stayUp && r.isDone() {
			r.logger.Info("current state converged to coverage, exiting")
			return
		}

		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			r.tick()
			r.queueActions()

		case msg := <-r.messages:
			switch m := msg.(type) {
			case tickMsg:
				r.tick()
				r.queueActions()
			case actionCompletedMsg:
				r.completeAction(m.ActionID, m.Succeeded)
			case retryActionMsg:
				r.retryAction(m.ActionID)
			case ForceUp:
				r.forceUp(m.Resources, m.Interval)
			case ForceDown:
				r.forceDown(m.Resources, m.Interval)
			case GetState:
				// current is cloned before handing it to the reply channel:
				// the handler goroutine reading it races against this loop's
				// own ongoing writes (completeAction, forceUp, forceDown)
				// otherwise, per spec.md §5's sole-ownership rule.
				m.Reply <- StateSnapshot{Current: r.current.Clone(), Coverage: r.endState}
			case GetResourceStateDetails:
				m.Reply <- r.resourceStateDetails(m.Interval, m.MaxIntervals)
			case Stop:
				r.logger.Info("stopping")
				return
			}
		}
	}
}

// tick (also known as updateTarget) recomputes the theoretical target
// state one day into the future, diffs it against the prior target to
// find newly-required coverage, and generates Queued/Completed Actions
// for it. Grounded on original_source/src/runner.rs's Runner::tick, fixed
// to actually reassign r.target to the freshly computed value — the
// original recomputes new_target every tick but never assigns it back to
// self.target, so newRequired would be recomputed against a stale
// baseline on every subsequent tick and the same Actions would be
// generated repeatedly.
func (r *Runner) tick() {
	newTarget, err := r.tasks.GetState(time.Now().Add(targetHorizon))
	if err != nil {
		r.logger.Error("compute target state", "error", err)
		return
	}
	newRequired := newTarget.Sub(r.target)
	r.target = newTarget

	var newActions []domain.Action
	for i := 0; i < r.tasks.Len(); i++ {
		t := r.tasks.At(i)
		intervals, err := t.GenerateIntervals(newRequired)
		if err != nil {
			r.logger.Error("generate intervals", "task", t.Name, "error", err)
			continue
		}
		for _, interval := range intervals {
			state := domain.ActionQueued
			if r.isCovered(t, interval) {
				state = domain.ActionComplete
			}
			newActions = append(newActions, domain.Action{Task: i, Interval: interval, State: state})
		}
	}
	sort.SliceStable(newActions, func(a, b int) bool {
		return newActions[a].Interval.End.Before(newActions[b].Interval.End)
	})

	start := len(r.actions)
	for i := range newActions {
		newActions[i].ID = strconv.Itoa(start + i)
	}
	r.actions = append(r.actions, newActions...)

	if len(newActions) > 0 {
		r.logger.Info("tick: generated new actions", "count", len(newActions))
	}
}

func (r *Runner) isCovered(t domain.Task, interval domain.Interval) bool {
	for _, res := range t.Provides {
		if !r.current[res].HasSubset(interval) {
			return false
		}
	}
	return true
}

// queueActions scans every Queued action whose interval has elapsed and,
// for each whose dependencies canRun against current, dispatches it.
// Grounded on original_source/src/runner.rs's Runner::queue_actions.
func (r *Runner) queueActions() {
	now := time.Now()
	for idx := range r.actions {
		action := &r.actions[idx]
		if action.State != domain.ActionQueued || action.Interval.End.After(now) {
			continue
		}
		t := r.tasks.At(action.Task)
		if !t.CanRun(action.Interval, r.current) {
			continue
		}
		action.State = domain.ActionRunning
		r.dispatch(idx, t, action.Interval)
	}
}

// dispatch spawns the check/up/check protocol for one Action in its own
// goroutine, reporting the outcome back as an actionCompletedMsg. The
// kill channel is never closed here: spec.md §5 only wires a kill signal
// per ExecuteTask for the executor's own timeout/cancellation handling;
// the Runner itself exposes no "kill a running action" control message.
func (r *Runner) dispatch(actionID int, t domain.Task, interval domain.Interval) {
	kill := make(chan struct{})
	vm := domain.VarMapFromInterval(interval, t.TimeZone).Merge(r.vars)
	up, check, name := t.Up, t.Check, t.Name

	go func() {
		succeeded := r.upTask(name, interval, kill, vm, up, check)
		r.messages <- actionCompletedMsg{ActionID: actionID, Succeeded: succeeded}
	}()
}

// upTask implements the check/up/check protocol: if check is present and
// passes, short-circuit to success; otherwise run up, and if check is
// present, re-run it to decide the final result. Grounded on
// original_source/src/runner.rs's up_task.
func (r *Runner) upTask(taskName string, interval domain.Interval, kill chan struct{}, vm domain.VarMap, up, check domain.TaskDetails) bool {
	if len(check) > 0 && r.runTask(taskName, interval, check, kill, vm) {
		return true
	}
	if !r.runTask(taskName, interval, up, kill, vm) {
		return false
	}
	if len(check) > 0 {
		return r.runTask(taskName, interval, check, kill, vm)
	}
	return true
}

func (r *Runner) runTask(taskName string, interval domain.Interval, details domain.TaskDetails, kill chan struct{}, vm domain.VarMap) bool {
	r.logger.Info("running task", "task", taskName, "interval", interval)
	reply := make(chan domain.TaskAttempt, 1)
	r.executor.Send(executor.ExecuteTask{
		TaskName:      taskName,
		Interval:      interval,
		Details:       details,
		VarMap:        vm,
		OutputOptions: r.outputOptions,
		Reply:         reply,
		Kill:          kill,
	})
	attempt := <-reply
	r.storage.StoreAttempt(taskName, interval, attempt)
	return attempt.Succeeded
}

// completeAction applies an Action's outcome: on success, mark it
// Completed, union its interval into current for every resource its task
// provides, persist state, and let newly-unblocked actions proceed; on
// failure, mark it Errored and schedule a retry after retryBackoff.
// Grounded on original_source/src/runner.rs's Runner::complete_task.
func (r *Runner) completeAction(actionID int, succeeded bool) {
	r.logger.Info("completing action", "action", actionID, "succeeded", succeeded)
	action := &r.actions[actionID]
	if succeeded {
		action.State = domain.ActionComplete
		t := r.tasks.At(action.Task)
		covered := domain.IntervalSetFrom(action.Interval)
		for _, res := range t.Provides {
			r.current[res] = r.current[res].Union(covered)
		}
		r.storeState()
		r.queueActions()
		return
	}

	action.State = domain.ActionErrored
	go func() {
		time.Sleep(retryBackoff)
		r.messages <- retryActionMsg{ActionID: actionID}
	}()
}

func (r *Runner) retryAction(actionID int) {
	r.logger.Info("retrying action", "action", actionID)
	r.actions[actionID].State = domain.ActionQueued
}

func (r *Runner) storeState() {
	r.storage.StoreState(r.current)
}

// forceUp implements spec.md §4.8's ForceUp control message: every task
// whose Provides is a subset of resources has interval aligned to its own
// schedule and merged into current for each resource it provides, and any
// matching Actions are marked Completed. Fixed per spec.md §9's documented
// open question: the original assumes resources are pre-keyed in current
// and panics on a missing entry (`current.get_mut(resource).unwrap()`); a
// missing entry is created on demand here instead.
func (r *Runner) forceUp(resources map[string]bool, interval domain.Interval) {
	if r.current == nil {
		r.current = domain.NewResourceInterval()
	}
	for i := 0; i < r.tasks.Len(); i++ {
		t := r.tasks.At(i)
		if !providesSubsetOf(t.Provides, resources) {
			continue
		}
		aligned := domain.IntervalSetFrom(t.Schedule.AlignSpan(interval))
		for _, res := range t.Provides {
			r.current[res] = r.current[res].Union(aligned)
		}
		for idx := range r.actions {
			a := &r.actions[idx]
			if a.Task == i && aligned.HasSubset(a.Interval) {
				a.State = domain.ActionComplete
			}
		}
	}
	r.storeState()
}

// forceDown is forceUp's symmetric opposite: subtract from current and
// re-queue matching Actions.
func (r *Runner) forceDown(resources map[string]bool, interval domain.Interval) {
	if r.current == nil {
		r.current = domain.NewResourceInterval()
	}
	for i := 0; i < r.tasks.Len(); i++ {
		t := r.tasks.At(i)
		if !providesSubsetOf(t.Provides, resources) {
			continue
		}
		aligned := domain.IntervalSetFrom(t.Schedule.AlignSpan(interval))
		for _, res := range t.Provides {
			r.current[res] = r.current[res].Difference(aligned)
		}
		for idx := range r.actions {
			a := &r.actions[idx]
			if a.Task == i && aligned.HasSubset(a.Interval) {
				a.State = domain.ActionQueued
			}
		}
	}
	r.storeState()
}

func providesSubsetOf(provides []string, resources map[string]bool) bool {
	if len(provides) == 0 {
		return false
	}
	for _, p := range provides {
		if !resources[p] {
			return false
		}
	}
	return true
}

// resourceStateDetails builds the resource -> task -> Actions grouping for
// GetResourceStateDetails, filtered to Actions overlapping interval, with
// adjacent same-(task,state) Actions coalesced when a group exceeds
// maxIntervals. Grounded on spec.md §4.8's GetResourceStateDetails.
func (r *Runner) resourceStateDetails(interval domain.Interval, maxIntervals int) map[string]map[string][]domain.Action {
	out := make(map[string]map[string][]domain.Action)
	for _, action := range r.actions {
		if action.Interval.IsDisjoint(interval) {
			continue
		}
		t := r.tasks.At(action.Task)
		for _, res := range t.Provides {
			byTask, ok := out[res]
			if !ok {
				byTask = make(map[string][]domain.Action)
				out[res] = byTask
			}
			byTask[t.Name] = append(byTask[t.Name], action)
		}
	}

	if maxIntervals <= 0 {
		return out
	}
	for _, byTask := range out {
		for task, actions := range byTask {
			if len(actions) > maxIntervals {
				byTask[task] = coalesceActions(actions)
			}
		}
	}
	return out
}

// coalesceActions merges adjacent Actions sharing the same (task, state)
// into the fewest Actions that cover identical intervals, via IntervalSet.
func coalesceActions(actions []domain.Action) []domain.Action {
	byState := make(map[domain.ActionState][]domain.Interval)
	taskIdx := make(map[domain.ActionState]int)
	var order []domain.ActionState
	for _, a := range actions {
		if _, ok := byState[a.State]; !ok {
			order = append(order, a.State)
		}
		byState[a.State] = append(byState[a.State], a.Interval)
		taskIdx[a.State] = a.Task
	}

	var out []domain.Action
	for _, state := range order {
		iset := domain.IntervalSetFromSlice(byState[state])
		for _, member := range iset.Intervals() {
			out = append(out, domain.Action{
				Task:     taskIdx[state],
				Interval: member,
				State:    state,
			})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Interval.End.Before(out[b].Interval.End) })
	return out
}

func (r *Runner) isDone() bool {
	return r.current.Equal(r.endState)
}

// Client is the handle other goroutines use to talk to a running Runner.
type Client struct {
	messages chan Message
}

// Send enqueues msg.
func (c *Client) Send(msg Message) {
	c.messages <- msg
}

// Stop tells the Runner to terminate.
func (c *Client) Stop() {
	c.Send(Stop{})
}

// ForceUp is a convenience wrapper around the ForceUp message.
func (c *Client) ForceUp(resources map[string]bool, interval domain.Interval) {
	c.Send(ForceUp{Resources: resources, Interval: interval})
}

// ForceDown is a convenience wrapper around the ForceDown message.
func (c *Client) ForceDown(resources map[string]bool, interval domain.Interval) {
	c.Send(ForceDown{Resources: resources, Interval: interval})
}

// GetState is a synchronous convenience wrapper around the GetState
// message.
func (c *Client) GetState() StateSnapshot {
	reply := make(chan StateSnapshot, 1)
	c.Send(GetState{Reply: reply})
	return <-reply
}

// GetResourceStateDetails is a synchronous convenience wrapper around the
// GetResourceStateDetails message.
func (c *Client) GetResourceStateDetails(interval domain.Interval, maxIntervals int) map[string]map[string][]domain.Action {
	reply := make(chan map[string]map[string][]domain.Action, 1)
	c.Send(GetResourceStateDetails{Interval: interval, MaxIntervals: maxIntervals, Reply: reply})
	return <-reply
}
