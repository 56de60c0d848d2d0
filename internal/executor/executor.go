// Package executor implements the Executor protocol (spec C8): a
// message-driven contract for validating and running a Task's up/down/
// check bodies, with two backends — a local subprocess executor and a
// remote agent fan-out executor. Grounded on
// original_source/src/executors/mod.rs's ExecutorMessage enum, expressed
// here as a closed Go interface of typed structs sent over a channel, per
// spec.md §9's "tagged variants with a common message contract" note.
package executor

import (
	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

// Message is the closed set of requests an Executor backend accepts.
// Concrete types implement the unexported marker method so the set
// cannot be extended outside this package.
type Message interface {
	isExecutorMessage()
}

// ValidateTask asks the executor to parse details as a valid task body
// without running it, replying on Reply once done.
type ValidateTask struct {
	Details domain.TaskDetails
	Reply   chan<- error
}

func (ValidateTask) isExecutorMessage() {}

// ExecuteTask runs one task invocation to completion (or until Kill
// fires), replying with the resulting TaskAttempt on Reply.
type ExecuteTask struct {
	TaskName      string
	Interval      domain.Interval
	Details       domain.TaskDetails
	VarMap        domain.VarMap
	OutputOptions domain.TaskOutputOptions
	Reply         chan<- domain.TaskAttempt
	Kill          <-chan struct{}
}

func (ExecuteTask) isExecutorMessage() {}

// Stop terminates the executor; every message sent afterward is a no-op.
type Stop struct{}

func (Stop) isExecutorMessage() {}

// Client is the handle Runner and HTTP handlers use to talk to a running
// executor backend: an unbounded (generously buffered) channel plus the
// goroutine(s) that drain it, matching spec.md §5's "unbounded,
// multi-producer/single-consumer message channel" model.
type Client struct {
	messages chan Message
}

// NewClient wraps msgs (already being drained by a backend's Run loop).
func NewClient(msgs chan Message) *Client {
	return &Client{messages: msgs}
}

// Send enqueues msg. A backend that has already stopped drops it; sends
// never block indefinitely because channel capacity is sized generously
// (see local.NewLocal's and agent.NewAgent's buffer sizes).
func (c *Client) Send(msg Message) {
	c.messages <- msg
}

// Validate is a synchronous convenience wrapper around ValidateTask.
func (c *Client) Validate(details domain.TaskDetails) error {
	reply := make(chan error, 1)
	c.Send(ValidateTask{Details: details, Reply: reply})
	return <-reply
}

// Stop tells the backend to terminate.
func (c *Client) Stop() {
	c.Send(Stop{})
}

// headTail keeps the first head and last tail bytes of data, joined by a
// marker, when data is long enough to warrant truncating; otherwise data
// is returned unchanged. UTF-8-safe: it slices on rune boundaries so
// multi-byte characters are never split. Grounded on
// original_source/src/executors/mod.rs's head_tail, fixed per spec.md §9's
// documented open question to operate independently per stream (the
// original reuses stdout's trimmed value for stderr too).
func headTail(data string, head, tail int) string {
	if len(data) < head+tail {
		return data
	}
	runes := []rune(data)
	n := len(runes)
	charSize := float64(len(data)) / float64(n)
	headChars := int(float64(head) / charSize)
	tailChars := int(float64(tail) / charSize)
	if headChars > n {
		headChars = n
	}
	if tailChars > n {
		tailChars = n
	}
	return string(runes[:headChars]) + "\n...\n" + string(runes[n-tailChars:])
}

// applyOutputOptions mutates attempt's Output/Error fields per opts: a
// successful attempt's output is discarded outright when
// DiscardSuccessful is set; otherwise each stream is independently
// head/tail-truncated when Truncate is set.
func applyOutputOptions(attempt *domain.TaskAttempt, stdout, stderr string, opts domain.TaskOutputOptions) {
	if attempt.Succeeded && opts.DiscardSuccessful {
		return
	}
	if opts.Truncate {
		stdout = headTail(stdout, opts.HeadBytes, opts.TailBytes)
		stderr = headTail(stderr, opts.HeadBytes, opts.TailBytes)
	}
	attempt.Output = stdout
	attempt.Error = stderr
}
