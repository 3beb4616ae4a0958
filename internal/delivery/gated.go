package delivery

import (
	"context"
	"log/slog"
)

// EnabledFunc reports whether a sink should run for this dispatch. It is
// evaluated per delivery so operator toggles take effect immediately.
type EnabledFunc func(ctx context.Context) bool

type gatedSink struct {
	inner   Sink
	enabled EnabledFunc
}

// Gated wraps a sink behind a runtime toggle. A disabled sink is skipped
// without recording a failed attempt.
func Gated(inner Sink, enabled EnabledFunc) Sink {
	return &gatedSink{inner: inner, enabled: enabled}
}

func (g *gatedSink) Name() string { return g.inner.Name() }

func (g *gatedSink) Deliver(ctx context.Context, s Summary) error {
	if g.enabled != nil && !g.enabled(ctx) {
		slog.Info("Sink disabled, skipping delivery", "sink", g.inner.Name(), "session_id", s.SessionID)
		return nil
	}
	return g.inner.Deliver(ctx, s)
}
