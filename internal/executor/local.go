package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
	"github.com/shirou/gopsutil/v3/process"
)

// localTaskDetail is a local task body's JSON shape: the command to run,
// environment overrides, and an optional wall-clock timeout. Grounded on
// original_source/src/executors/local_executor.rs's LocalTaskDetail.
type localTaskDetail struct {
	Command     Cmd               `json:"command"`
	Environment map[string]string `json:"environment,omitempty"`
	Timeout     int64             `json:"timeout,omitempty"`
}

func parseLocalTaskDetail(details domain.TaskDetails) (localTaskDetail, error) {
	var d localTaskDetail
	if err := json.Unmarshal(details, &d); err != nil {
		return localTaskDetail{}, fmt.Errorf("invalid local task details: %w", err)
	}
	if len(d.Command) == 0 {
		return localTaskDetail{}, fmt.Errorf("local task details: command is required")
	}
	return d, nil
}

// inheritedEnvVars is the fixed allow-list of ambient environment
// variables a local task inherits, re-injected after the child's
// environment is cleared. Grounded on local_executor.rs's default_vars.
var inheritedEnvVars = []string{
	"LANG", "HOSTNAME", "LOGNAME", "USER", "PATH", "HOME",
	"XDG_CONFIG_HOME", "ALL_PROXY", "FTP_PROXY", "HTTPS_PROXY",
	"HTTP_PROXY", "NO_PROXY",
}

const cpuSampleInterval = 100 * time.Millisecond

// Local is the local subprocess Executor backend: it runs each task's
// up/down/check body as a child process, capped at MaxParallel concurrent
// children. Grounded on original_source/src/executors/local_executor.rs.
type Local struct {
	messages    chan Message
	maxParallel int
	logger      *slog.Logger
	inherited   map[string]string
}

// NewLocal starts a Local executor backend with the given parallelism cap
// and returns a Client bound to it. The backend runs until a Stop message
// is processed.
func NewLocal(maxParallel int, logger *slog.Logger) (*Client, *Local) {
	l := &Local{
		messages:    make(chan Message, 4096),
		maxParallel: maxParallel,
		logger:      logger.With("component", "local_executor"),
		inherited:   captureInheritedEnv(),
	}
	return NewClient(l.messages), l
}

func captureInheritedEnv() map[string]string {
	out := make(map[string]string, len(inheritedEnvVars))
	for _, name := range inheritedEnvVars {
		if v, ok := os.LookupEnv(name); ok {
			out[name] = v
		}
	}
	return out
}

// Run drains messages until Stop is received. Call it in its own
// goroutine; ExecuteTask requests beyond MaxParallel block in-flight
// (accepted, queued by the semaphore) rather than being rejected.
func (l *Local) Run(ctx context.Context) {
	sem := make(chan struct{}, l.maxParallel)
	var wg sync.WaitGroup

	for msg := range l.messages {
		switch m := msg.(type) {
		case ValidateTask:
			go func() {
				_, err := parseLocalTaskDetail(m.Details)
				m.Reply <- err
			}()
		case ExecuteTask:
			wg.Add(1)
			go func() {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				attempt := l.runTask(ctx, m)
				m.Reply <- attempt
			}()
		case Stop:
			wg.Wait()
			return
		}
	}
}

func (l *Local) runTask(ctx context.Context, m ExecuteTask) domain.TaskAttempt {
	attempt := domain.NewTaskAttempt()
	attempt.TaskName = m.TaskName
	attempt.ScheduledTime = m.Interval.End

	detail, err := parseLocalTaskDetail(m.Details)
	if err != nil {
		attempt.InfraFailure = true
		attempt.Executor = append(attempt.Executor, fmt.Sprintf("failed to launch command: %v", err))
		return attempt
	}

	argv := detail.Command.Expand(m.VarMap)
	attempt.Executor = append(attempt.Executor, fmt.Sprintf("%v", argv))

	runCtx := ctx
	var cancel context.CancelFunc
	if detail.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(detail.Timeout)*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Env = l.buildEnv(detail.Environment, m.VarMap)

	var stdout, stderr bytes.Buffer
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		attempt.InfraFailure = true
		attempt.Executor = append(attempt.Executor, fmt.Sprintf("failed to open stdout: %v", err))
		return attempt
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		attempt.InfraFailure = true
		attempt.Executor = append(attempt.Executor, fmt.Sprintf("failed to open stderr: %v", err))
		return attempt
	}

	attempt.StartTime = time.Now().UTC()
	if err := cmd.Start(); err != nil {
		attempt.InfraFailure = true
		attempt.Executor = append(attempt.Executor, fmt.Sprintf("failed to start command: %v", err))
		attempt.StopTime = time.Now().UTC()
		return attempt
	}

	var drainWG sync.WaitGroup
	drainWG.Add(2)
	go func() { defer drainWG.Done(); _, _ = io.Copy(&stdout, stdoutPipe) }()
	go func() { defer drainWG.Done(); _, _ = io.Copy(&stderr, stderrPipe) }()

	statsDone := make(chan childStats, 1)
	go func() { statsDone <- sampleChildStats(runCtx, cmd) }()

	killed := make(chan struct{})
	go func() {
		select {
		case <-m.Kill:
			close(killed)
			_ = cmd.Process.Kill()
		case <-runCtx.Done():
		}
	}()

	waitErr := cmd.Wait()
	drainWG.Wait()
	stats := <-statsDone

	select {
	case <-killed:
		attempt.Killed = true
		attempt.Executor = append(attempt.Executor, "task was killed by request")
	default:
		if runCtx.Err() == context.DeadlineExceeded {
			attempt.Killed = true
			attempt.Executor = append(attempt.Executor, "task exceeded the timeout interval and was killed")
		}
	}

	attempt.ExitCode = -1
	if cmd.ProcessState != nil {
		attempt.ExitCode = cmd.ProcessState.ExitCode()
		attempt.Succeeded = cmd.ProcessState.Success()
	}
	if waitErr != nil && cmd.ProcessState == nil {
		attempt.InfraFailure = true
		attempt.Executor = append(attempt.Executor, fmt.Sprintf("command failed to run: %v", waitErr))
	}

	applyOutputOptions(&attempt, stdout.String(), stderr.String(), m.OutputOptions)

	attempt.MaxCPU = stats.maxCPU
	attempt.AvgCPU = stats.avgCPU
	attempt.MaxRSS = stats.maxRSS
	attempt.AvgRSS = stats.avgRSS

	attempt.StopTime = time.Now().UTC()
	return attempt
}

// buildEnv clears the environment and re-injects the fixed inherited
// allow-list overlaid with the task's own environment entries, each
// varmap-expanded. Grounded on local_executor.rs's env_clear()+envs(...).
func (l *Local) buildEnv(taskEnv map[string]string, vm domain.VarMap) []string {
	merged := make(map[string]string, len(l.inherited)+len(taskEnv))
	for k, v := range l.inherited {
		merged[k] = v
	}
	for k, v := range taskEnv {
		merged[k] = vm.ApplyTo(v)
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}

type childStats struct {
	maxCPU, avgCPU float64
	maxRSS         uint64
	avgRSS         float64
}

// sampleChildStats polls the child's CPU percentage and RSS every 100ms
// until it exits, aggregating max and average of both. Grounded on
// local_executor.rs's gather_child_stats, using gopsutil/v3/process as
// the Go analogue of the Rust psutil crate the original depends on.
func sampleChildStats(ctx context.Context, cmd *exec.Cmd) childStats {
	var stats childStats
	if cmd.Process == nil {
		return stats
	}
	proc, err := process.NewProcess(int32(cmd.Process.Pid))
	if err != nil {
		return stats
	}

	var periods float64
	ticker := time.NewTicker(cpuSampleInterval)
	defer ticker.Stop()
	for {
		pct, cpuErr := proc.CPUPercent()
		mem, memErr := proc.MemoryInfo()
		if cpuErr != nil || memErr != nil {
			break
		}
		if pct > stats.maxCPU {
			stats.maxCPU = pct
		}
		stats.avgCPU += pct
		if mem.RSS > stats.maxRSS {
			stats.maxRSS = mem.RSS
		}
		stats.avgRSS += float64(mem.RSS)
		periods++

		select {
		case <-ctx.Done():
			if periods > 0 {
				stats.avgCPU /= periods
				stats.avgRSS /= periods
			}
			return stats
		case <-ticker.C:
		}
	}
	if periods > 0 {
		stats.avgCPU /= periods
		stats.avgRSS /= periods
	}
	return stats
}
