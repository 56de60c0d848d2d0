// Package storage implements the Storage protocol (spec C9): persisting
// per-attempt records and the current ResourceInterval snapshot, and
// loading that snapshot back on startup. Grounded on
// original_source/src/storage/mod.rs's StorageMessage enum, with two
// backends: an in-memory map (storage/memory.rs) and a Redis key/value
// store (storage/redis.rs).
package storage

import (
	"context"
	"fmt"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

// Message is the closed set of requests a Storage backend accepts.
type Message interface {
	isStorageMessage()
}

// StoreAttempt appends attempt to the append-only log keyed by
// (taskName, interval.end).
type StoreAttempt struct {
	TaskName string
	Interval domain.Interval
	Attempt  domain.TaskAttempt
}

func (StoreAttempt) isStorageMessage() {}

// StoreState overwrites the single current-state snapshot.
type StoreState struct {
	State domain.ResourceInterval
}

func (StoreState) isStorageMessage() {}

// LoadState requests the last-persisted snapshot (or an empty
// ResourceInterval if none has ever been stored).
type LoadState struct {
	Reply chan<- domain.ResourceInterval
}

func (LoadState) isStorageMessage() {}

// Clear discards every persisted record.
type Clear struct{}

func (Clear) isStorageMessage() {}

// Stop terminates the backend; every message sent afterward is a no-op.
type Stop struct{}

func (Stop) isStorageMessage() {}

// Client is the handle the Runner and HTTP handlers use to talk to a
// running storage backend.
type Client struct {
	messages chan Message
}

// NewClient wraps msgs (already being drained by a backend's Run loop).
func NewClient(msgs chan Message) *Client {
	return &Client{messages: msgs}
}

// Send enqueues msg.
func (c *Client) Send(msg Message) {
	c.messages <- msg
}

// LoadState is a synchronous convenience wrapper around the LoadState
// message.
func (c *Client) LoadState() domain.ResourceInterval {
	reply := make(chan domain.ResourceInterval, 1)
	c.Send(LoadState{Reply: reply})
	return <-reply
}

// StoreState enqueues a StoreState message; per spec.md §4.7, failures
// here are logged by the backend and otherwise non-fatal, so this call
// never blocks on acknowledgement.
func (c *Client) StoreState(state domain.ResourceInterval) {
	c.Send(StoreState{State: state})
}

// StoreAttempt enqueues a StoreAttempt message.
func (c *Client) StoreAttempt(taskName string, interval domain.Interval, attempt domain.TaskAttempt) {
	c.Send(StoreAttempt{TaskName: taskName, Interval: interval, Attempt: attempt})
}

// Stop tells the backend to terminate.
func (c *Client) Stop() {
	c.Send(Stop{})
}

// Ping satisfies health.Pinger: a LoadState round trip that must complete
// before ctx is done, used by the readiness probe to confirm the storage
// backend's goroutine (and, for the Redis backend, the connection to
// Redis) is alive.
func (c *Client) Ping(ctx context.Context) error {
	reply := make(chan domain.ResourceInterval, 1)
	select {
	case c.messages <- LoadState{Reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("storage ping timed out: %w", ctx.Err())
	}
}
