package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// ContextProvider is a function that returns dynamic context attributes.
type ContextProvider func() []slog.Attr

// ContextHandler wraps another handler and injects dynamic context attributes.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

// NewContextHandler creates a handler that adds dynamic context to each record.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{
		inner:    inner,
		provider: provider,
	}
}

// Enabled delegates to the inner handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds dynamic context attributes and delegates to the inner handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler with the given attributes.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{
		inner:    h.inner.WithAttrs(attrs),
		provider: h.provider,
	}
}

// WithGroup returns a new ContextHandler with the given group.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{
		inner:    h.inner.WithGroup(name),
		provider: h.provider,
	}
}

// SimContext holds the live session attributes stamped onto log records.
// It is written by the tick goroutine and read by any logging goroutine.
type SimContext struct {
	sessionID atomic.Value // string
	virtual   atomic.Uint64
}

// SetSession records the current session identifier.
func (c *SimContext) SetSession(id string) {
	c.sessionID.Store(id)
}

// SetVirtualSeconds records the current simulated time, truncated to whole seconds.
func (c *SimContext) SetVirtualSeconds(s float64) {
	if s < 0 {
		s = 0
	}
	c.virtual.Store(uint64(s))
}

// Provider returns a ContextProvider reading the current values.
func (c *SimContext) Provider() ContextProvider {
	return func() []slog.Attr {
		attrs := []slog.Attr{slog.Uint64("virtualSeconds", c.virtual.Load())}
		if id, ok := c.sessionID.Load().(string); ok && id != "" {
			attrs = append(attrs, slog.String("session", id))
		}
		return attrs
	}
}
