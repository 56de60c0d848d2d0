package executor

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

// AgentTarget is one remote waterfall-agent worker the fan-out executor
// may dispatch to: its declared total resources and what remains
// reserved against in-flight submissions. Grounded on
// original_source/src/executors/agent_executor.rs's AgentTarget.
type AgentTarget struct {
	mu               sync.Mutex
	BaseURL          string
	Resources        domain.TaskResources
	CurrentResources domain.TaskResources
	Enabled          bool
}

// NewAgentTarget returns a target with no resources known yet, marked
// disabled until the first successful refresh.
func NewAgentTarget(baseURL string) *AgentTarget {
	return &AgentTarget{BaseURL: baseURL, Enabled: false}
}

func (t *AgentTarget) refresh(ctx context.Context, client *http.Client) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.BaseURL+"/resources", nil)
	if err != nil {
		t.setEnabled(false)
		return
	}
	resp, err := client.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		if resp != nil {
			_ = resp.Body.Close()
		}
		t.setEnabled(false)
		return
	}
	defer resp.Body.Close()

	var res domain.TaskResources
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.setEnabled(false)
		return
	}

	t.mu.Lock()
	t.Resources = res
	t.CurrentResources = res
	t.Enabled = true
	t.mu.Unlock()
}

func (t *AgentTarget) setEnabled(v bool) {
	t.mu.Lock()
	t.Enabled = v
	t.mu.Unlock()
}

// reserve deducts required from the target's current resources if it can
// satisfy them, reporting whether the reservation succeeded.
func (t *AgentTarget) reserve(required domain.TaskResources) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.Enabled || !t.CurrentResources.CanSatisfy(required) {
		return false
	}
	next, err := t.CurrentResources.Sub(required)
	if err != nil {
		return false
	}
	t.CurrentResources = next
	return true
}

// release returns a reservation's resources, optionally disabling the
// target when the submission that held them failed infrastructurally.
func (t *AgentTarget) release(resources domain.TaskResources, submissionOK bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.CurrentResources = t.CurrentResources.Add(resources)
	if !submissionOK {
		t.Enabled = false
	}
}

func (t *AgentTarget) isEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Enabled
}

// agentTaskDetail is an agent task body's JSON shape: command, environment
// and timeout exactly like a local task, plus the resources it reserves on
// whichever target runs it. Grounded on agent_executor.rs's
// AgentTaskDetail.
type agentTaskDetail struct {
	Command     Cmd                  `json:"command"`
	Environment map[string]string    `json:"environment,omitempty"`
	Timeout     int64                `json:"timeout,omitempty"`
	Resources   domain.TaskResources `json:"resources"`
}

func parseAgentTaskDetail(details domain.TaskDetails) (agentTaskDetail, error) {
	var d agentTaskDetail
	if err := json.Unmarshal(details, &d); err != nil {
		return agentTaskDetail{}, fmt.Errorf("invalid agent task details: %w", err)
	}
	if len(d.Command) == 0 {
		return agentTaskDetail{}, fmt.Errorf("agent task details: command is required")
	}
	return d, nil
}

// TaskSubmission is the body POSTed to a target's /run endpoint.
// Grounded on agent_executor.rs's TaskSubmission.
type TaskSubmission struct {
	Details       domain.TaskDetails      `json:"details"`
	VarMap        domain.VarMap           `json:"varmap"`
	OutputOptions domain.TaskOutputOptions `json:"output_options"`
}

// Agent is the fan-out Executor backend: it forwards each ExecuteTask to
// whichever enabled AgentTarget first has enough currentResources
// (first-fit), falling back to a co-hosted Local executor for task
// validation so clients see identical parse errors. Grounded on
// original_source/src/executors/agent_executor.rs.
type Agent struct {
	messages chan Message
	targets  []*AgentTarget
	client   *http.Client
	local    *Client
	logger   *slog.Logger
}

// NewAgent starts an Agent executor backend fanning out to targets and
// returns a Client bound to it.
func NewAgent(targets []*AgentTarget, local *Client, logger *slog.Logger) (*Client, *Agent) {
	a := &Agent{
		messages: make(chan Message, 4096),
		targets:  targets,
		client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
		local:  local,
		logger: logger.With("component", "agent_executor"),
	}
	return NewClient(a.messages), a
}

// Run drains messages until Stop is received. Refreshes every target's
// resources once before serving traffic.
func (a *Agent) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range a.targets {
		t.refresh(ctx, a.client)
	}

	for msg := range a.messages {
		switch m := msg.(type) {
		case ValidateTask:
			wg.Add(1)
			go func() {
				defer wg.Done()
				a.validate(m)
			}()
		case ExecuteTask:
			wg.Add(1)
			go func() {
				defer wg.Done()
				a.dispatch(ctx, m)
			}()
		case Stop:
			wg.Wait()
			return
		}
	}
}

func (a *Agent) validate(m ValidateTask) {
	parsed, err := parseAgentTaskDetail(m.Details)
	if err != nil {
		m.Reply <- err
		return
	}
	if !a.anyTargetCouldEverSatisfy(parsed.Resources) {
		m.Reply <- fmt.Errorf("no agent target satisfies the required resources")
		return
	}
	m.Reply <- a.local.Validate(m.Details)
}

func (a *Agent) anyTargetCouldEverSatisfy(required domain.TaskResources) bool {
	if len(a.targets) == 0 {
		return true
	}
	allZero := true
	for _, t := range a.targets {
		for _, v := range t.Resources {
			if v != 0 {
				allZero = false
			}
		}
	}
	if allZero {
		return true
	}
	for _, t := range a.targets {
		if t.Resources.CanSatisfy(required) {
			return true
		}
	}
	return false
}

// dispatch implements the first-fit retry loop: find an enabled target
// with enough current capacity, reserve, submit, release on completion;
// if none qualifies, wait briefly, refresh disabled targets, and retry.
func (a *Agent) dispatch(ctx context.Context, m ExecuteTask) {
	parsed, err := parseAgentTaskDetail(m.Details)
	if err != nil {
		attempt := domain.NewTaskAttempt()
		attempt.TaskName = m.TaskName
		attempt.InfraFailure = true
		attempt.Executor = append(attempt.Executor, err.Error())
		m.Reply <- attempt
		return
	}

	for {
		select {
		case <-m.Kill:
			attempt := domain.NewTaskAttempt()
			attempt.TaskName = m.TaskName
			attempt.Killed = true
			m.Reply <- attempt
			return
		default:
		}

		target := a.firstFit(parsed.Resources)
		if target != nil {
			a.logger.Info("dispatching to agent", "target", target.BaseURL, "task", m.TaskName)
			attempt, ok := a.submit(ctx, target.BaseURL, m)
			target.release(parsed.Resources, ok)
			m.Reply <- attempt
			return
		}

		select {
		case <-time.After(5 * time.Millisecond):
		case <-ctx.Done():
			attempt := domain.NewTaskAttempt()
			attempt.TaskName = m.TaskName
			attempt.InfraFailure = true
			m.Reply <- attempt
			return
		}
		a.refreshDisabled(ctx)
	}
}

func (a *Agent) firstFit(required domain.TaskResources) *AgentTarget {
	for _, t := range a.targets {
		if t.reserve(required) {
			return t
		}
	}
	return nil
}

func (a *Agent) refreshDisabled(ctx context.Context) {
	for _, t := range a.targets {
		if t.isEnabled() {
			continue
		}
		t.refresh(ctx, a.client)
		if t.isEnabled() {
			a.logger.Info("agent target recovered", "target", t.BaseURL)
		}
	}
}

func (a *Agent) submit(ctx context.Context, baseURL string, m ExecuteTask) (domain.TaskAttempt, bool) {
	submission := TaskSubmission{Details: m.Details, VarMap: m.VarMap, OutputOptions: m.OutputOptions}
	body, err := json.Marshal(submission)
	if err != nil {
		return a.infraFailure(m.TaskName, fmt.Sprintf("encode submission: %v", err)), false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/run", bytes.NewReader(body))
	if err != nil {
		return a.infraFailure(m.TaskName, fmt.Sprintf("build request: %v", err)), false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return a.infraFailure(m.TaskName, fmt.Sprintf("unable to dispatch to agent at %s: %v", baseURL, err)), false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return a.infraFailure(m.TaskName, fmt.Sprintf("agent at %s rejected submission: %d", baseURL, resp.StatusCode)), false
	}

	var attempt domain.TaskAttempt
	if err := json.NewDecoder(resp.Body).Decode(&attempt); err != nil {
		return a.infraFailure(m.TaskName, fmt.Sprintf("decode attempt from %s: %v", baseURL, err)), false
	}
	attempt.Executor = append(attempt.Executor, fmt.Sprintf("executed on agent at %s", baseURL))
	return attempt, true
}

func (a *Agent) infraFailure(taskName, msg string) domain.TaskAttempt {
	attempt := domain.NewTaskAttempt()
	attempt.TaskName = taskName
	attempt.InfraFailure = true
	attempt.Executor = append(attempt.Executor, msg)
	return attempt
}
