package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

// Memory is the in-memory Storage backend: a mutex-guarded map of
// JSON-encoded values, matching original_source/src/storage/memory.rs.
// Suitable for tests and single-process batch runs where durability
// across restarts is not required.
type Memory struct {
	messages chan Message
	logger   *slog.Logger

	mu    sync.Mutex
	state map[string]string
}

// NewMemory starts a Memory storage backend and returns a Client bound to
// it.
func NewMemory(logger *slog.Logger) (*Client, *Memory) {
	m := &Memory{
		messages: make(chan Message, 4096),
		logger:   logger.With("component", "memory_storage"),
		state:    make(map[string]string),
	}
	return NewClient(m.messages), m
}

// Run drains messages until Stop is received.
func (m *Memory) Run(ctx context.Context) {
	for msg := range m.messages {
		switch v := msg.(type) {
		case Clear:
			m.mu.Lock()
			m.state = make(map[string]string)
			m.mu.Unlock()
		case StoreAttempt:
			payload, err := json.Marshal(v.Attempt)
			if err != nil {
				m.logger.Error("encode attempt", "task", v.TaskName, "error", err)
				continue
			}
			key := fmt.Sprintf("%s_%s", v.TaskName, v.Interval.End.Format("20060102T150405Z"))
			m.mu.Lock()
			m.state[key] = string(payload)
			m.mu.Unlock()
		case StoreState:
			payload, err := json.Marshal(v.State)
			if err != nil {
				m.logger.Error("encode state", "error", err)
				continue
			}
			m.mu.Lock()
			m.state["state"] = string(payload)
			m.mu.Unlock()
		case LoadState:
			m.mu.Lock()
			payload, ok := m.state["state"]
			m.mu.Unlock()
			out := domain.NewResourceInterval()
			if ok {
				if err := json.Unmarshal([]byte(payload), &out); err != nil {
					m.logger.Error("decode state", "error", err)
					out = domain.NewResourceInterval()
				}
			}
			v.Reply <- out
		case Stop:
			return
		}
	}
}
