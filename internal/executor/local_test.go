package executor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

func newTestLocalClient(t *testing.T) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, backend := NewLocal(4, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		backend.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		client.Stop()
		<-done
		cancel()
	})
	return client
}

func mustDetails(t *testing.T, argv ...string) domain.TaskDetails {
	t.Helper()
	b, err := json.Marshal(map[string]any{"command": argv})
	if err != nil {
		t.Fatalf("marshal details: %v", err)
	}
	return domain.TaskDetails(b)
}

func TestLocalValidateTaskAcceptsWellFormedCommand(t *testing.T) {
	client := newTestLocalClient(t)
	if err := client.Validate(mustDetails(t, "/bin/true")); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLocalValidateTaskRejectsMissingCommand(t *testing.T) {
	client := newTestLocalClient(t)
	if err := client.Validate(domain.TaskDetails(`{}`)); err == nil {
		t.Error("expected Validate to reject a body with no command")
	}
}

func TestLocalExecuteTaskRunsSuccessfully(t *testing.T) {
	client := newTestLocalClient(t)
	reply := make(chan domain.TaskAttempt, 1)
	client.Send(ExecuteTask{
		TaskName:      "ok",
		Details:       mustDetails(t, "/bin/sh", "-c", "echo hi; exit 0"),
		VarMap:        domain.NewVarMap(),
		OutputOptions: domain.TaskOutputOptions{},
		Reply:         reply,
		Kill:          make(chan struct{}),
	})

	attempt := <-reply
	if !attempt.Succeeded {
		t.Errorf("expected success, got %+v", attempt)
	}
	if attempt.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", attempt.ExitCode)
	}
	if attempt.Output != "hi\n" {
		t.Errorf("Output = %q, want %q", attempt.Output, "hi\n")
	}
}

func TestLocalExecuteTaskCapturesNonZeroExit(t *testing.T) {
	client := newTestLocalClient(t)
	reply := make(chan domain.TaskAttempt, 1)
	client.Send(ExecuteTask{
		TaskName:      "fail",
		Details:       mustDetails(t, "/bin/sh", "-c", "exit 7"),
		VarMap:        domain.NewVarMap(),
		OutputOptions: domain.TaskOutputOptions{},
		Reply:         reply,
		Kill:          make(chan struct{}),
	})

	attempt := <-reply
	if attempt.Succeeded {
		t.Error("expected failure")
	}
	if attempt.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", attempt.ExitCode)
	}
}

func TestLocalExecuteTaskHonorsKill(t *testing.T) {
	client := newTestLocalClient(t)
	reply := make(chan domain.TaskAttempt, 1)
	kill := make(chan struct{})
	client.Send(ExecuteTask{
		TaskName:      "killed",
		Details:       mustDetails(t, "/bin/sh", "-c", "sleep 30"),
		VarMap:        domain.NewVarMap(),
		OutputOptions: domain.TaskOutputOptions{},
		Reply:         reply,
		Kill:          kill,
	})

	time.Sleep(50 * time.Millisecond)
	close(kill)

	select {
	case attempt := <-reply:
		if !attempt.Killed {
			t.Errorf("expected Killed=true, got %+v", attempt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for killed task to report back")
	}
}

func TestLocalExecuteTaskReportsInfraFailureForUnknownCommand(t *testing.T) {
	client := newTestLocalClient(t)
	reply := make(chan domain.TaskAttempt, 1)
	client.Send(ExecuteTask{
		TaskName:      "missing",
		Details:       mustDetails(t, "/no/such/binary-xyz"),
		VarMap:        domain.NewVarMap(),
		OutputOptions: domain.TaskOutputOptions{},
		Reply:         reply,
		Kill:          make(chan struct{}),
	})

	attempt := <-reply
	if !attempt.InfraFailure {
		t.Errorf("expected InfraFailure for an unresolvable binary, got %+v", attempt)
	}
}
