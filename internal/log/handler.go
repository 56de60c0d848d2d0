// Package log adapts log/slog so records carry the request_id and
// action_id found in their context. Only the HTTP middleware attaches a
// request_id; the runner attaches no action_id to its contexts.
package log

import (
	"context"
	"log/slog"

	"github.com/kinesin-ca/waterfall-go/internal/requestid"
)

// ContextHandler wraps an slog.Handler and enriches every record with
// correlation IDs pulled from the record's context, before delegating.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler returns a handler that decorates records with context
// values before handing them to inner.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := requestid.FromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id := requestid.ActionFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("action_id", id))
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
