package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Redis is the remote key/value Storage backend: `SET prefix:state` for
// the current snapshot and `RPUSH prefix:attempts:{task}_{end}` for the attempt
// log, matching original_source/src/storage/redis.rs's command usage
// mapped onto github.com/redis/go-redis/v9 — the idiomatic modern Go
// Redis client (see SPEC_FULL.md's DOMAIN STACK section; the teacher
// itself has no storage dependency to draw from, so this is new).
type Redis struct {
	messages chan Message
	logger   *slog.Logger
	client   *redis.Client
	prefix   string
}

// NewRedis starts a Redis storage backend against url, namespacing every
// key under prefix, and returns a Client bound to it.
func NewRedis(url, prefix string, logger *slog.Logger) (*Client, *Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	r := &Redis{
		messages: make(chan Message, 4096),
		logger:   logger.With("component", "redis_storage"),
		client:   redis.NewClient(opts),
		prefix:   prefix,
	}
	return NewClient(r.messages), r, nil
}

func (r *Redis) stateKey() string {
	return fmt.Sprintf("%s:state", r.prefix)
}

func (r *Redis) attemptKey(taskName string, interval domain.Interval) string {
	return fmt.Sprintf("%s:attempts:%s_%s", r.prefix, taskName, interval.End.Format("20060102T150405Z"))
}

// Run drains messages until Stop is received. Every command failure is
// logged and otherwise ignored, per spec.md §4.7/§7 ("failures on store
// are logged but non-fatal").
func (r *Redis) Run(ctx context.Context) {
	for msg := range r.messages {
		switch v := msg.(type) {
		case Clear:
			r.clear(ctx)
		case StoreAttempt:
			payload, err := json.Marshal(v.Attempt)
			if err != nil {
				r.logger.Error("encode attempt", "task", v.TaskName, "error", err)
				continue
			}
			if err := r.client.RPush(ctx, r.attemptKey(v.TaskName, v.Interval), payload).Err(); err != nil {
				r.logger.Error("store attempt", "task", v.TaskName, "error", err)
			}
		case StoreState:
			payload, err := json.Marshal(v.State)
			if err != nil {
				r.logger.Error("encode state", "error", err)
				continue
			}
			if err := r.client.Set(ctx, r.stateKey(), payload, 0).Err(); err != nil {
				r.logger.Error("store state", "error", err)
			}
		case LoadState:
			out := domain.NewResourceInterval()
			payload, err := r.client.Get(ctx, r.stateKey()).Result()
			switch {
			case err == redis.Nil:
				// no prior state; reply with empty.
			case err != nil:
				r.logger.Error("load state", "error", err)
			default:
				if err := json.Unmarshal([]byte(payload), &out); err != nil {
					r.logger.Error("decode state", "error", err)
					out = domain.NewResourceInterval()
				}
			}
			v.Reply <- out
		case Stop:
			_ = r.client.Close()
			return
		}
	}
}

func (r *Redis) clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Error("scan keys to clear", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("clear keys", "error", err)
	}
}
