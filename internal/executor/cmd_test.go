package executor

import (
	"encoding/json"
	"testing"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

func TestCmdUnmarshalJSONSplitsShellString(t *testing.T) {
	var c Cmd
	if err := json.Unmarshal([]byte(`"echo 'hello world' --flag=1"`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"echo", "hello world", "--flag=1"}
	if len(c) != len(want) {
		t.Fatalf("got %v, want %v", c, want)
	}
	for i := range want {
		if c[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, c[i], want[i])
		}
	}
}

func TestCmdUnmarshalJSONAcceptsArray(t *testing.T) {
	var c Cmd
	if err := json.Unmarshal([]byte(`["cp","-r","src","dst"]`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(c) != 4 || c[3] != "dst" {
		t.Fatalf("got %v", c)
	}
}

func TestCmdUnmarshalJSONRejectsOtherShapes(t *testing.T) {
	var c Cmd
	if err := json.Unmarshal([]byte(`42`), &c); err == nil {
		t.Error("expected an error unmarshaling a bare number")
	}
}

func TestCmdExpandAppliesVarMap(t *testing.T) {
	c := Cmd{"run", "--date=${yyyymmdd}", "${missing}"}
	vm := domain.VarMap{"yyyymmdd": "20220105"}
	got := c.Expand(vm)
	want := []string{"run", "--date=20220105", "${missing}"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHeadTailLeavesShortStringsUntouched(t *testing.T) {
	s := "short"
	if got := headTail(s, 100, 100); got != s {
		t.Errorf("headTail should not truncate: got %q", got)
	}
}

func TestHeadTailTruncatesLongStrings(t *testing.T) {
	s := "0123456789abcdefghij"
	got := headTail(s, 4, 4)
	want := "0123\n...\nghij"
	if got != want {
		t.Errorf("headTail = %q, want %q", got, want)
	}
}

func TestHeadTailTruncatesEachStreamIndependently(t *testing.T) {
	attempt := domain.NewTaskAttempt()
	attempt.Succeeded = true
	stdout := "0123456789abcdefghij"
	stderr := "short"
	applyOutputOptions(&attempt, stdout, stderr, domain.TaskOutputOptions{Truncate: true, HeadBytes: 4, TailBytes: 4})

	if attempt.Output != "0123\n...\nghij" {
		t.Errorf("Output = %q", attempt.Output)
	}
	if attempt.Error != stderr {
		t.Errorf("Error = %q, want untouched %q (too short to truncate)", attempt.Error, stderr)
	}
}

func TestApplyOutputOptionsDiscardsSuccessfulOutput(t *testing.T) {
	attempt := domain.NewTaskAttempt()
	attempt.Succeeded = true
	applyOutputOptions(&attempt, "stdout text", "stderr text", domain.TaskOutputOptions{DiscardSuccessful: true})

	if attempt.Output != "" || attempt.Error != "" {
		t.Errorf("expected discarded output, got Output=%q Error=%q", attempt.Output, attempt.Error)
	}
}

func TestApplyOutputOptionsKeepsFailedOutputEvenWithDiscardSuccessful(t *testing.T) {
	attempt := domain.NewTaskAttempt()
	attempt.Succeeded = false
	applyOutputOptions(&attempt, "stdout text", "stderr text", domain.TaskOutputOptions{DiscardSuccessful: true})

	if attempt.Output != "stdout text" || attempt.Error != "stderr text" {
		t.Errorf("failed attempt output should survive DiscardSuccessful, got Output=%q Error=%q", attempt.Output, attempt.Error)
	}
}
