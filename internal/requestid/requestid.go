// Package requestid carries correlation identifiers through context.Context,
// for both inbound HTTP requests (request_id) and runner-originated work
// (action_id, for a single queued-to-completed Action lifecycle).
package requestid

import (
	"context"

	"github.com/google/uuid"
)

type requestKey struct{}
type actionKey struct{}

// New generates a random UUID v4 identifier, used for HTTP request IDs.
func New() string {
	return uuid.NewString()
}

// WithRequestID returns a copy of ctx with the HTTP request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestKey{}, id)
}

// FromContext extracts the HTTP request ID from ctx. Returns "" if absent.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestKey{}).(string)
	return id
}

// WithActionID returns a copy of ctx with a runner action ID attached, so
// logs emitted while executing a single Action can be correlated.
func WithActionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actionKey{}, id)
}

// ActionFromContext extracts the action ID from ctx. Returns "" if absent.
func ActionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(actionKey{}).(string)
	return id
}
