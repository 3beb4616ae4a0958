package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// FeedHandler streams bus events to operator dashboards over WebSocket.
type FeedHandler struct {
	bus   *Bus
	isDev bool
}

// NewFeedHandler creates a feed handler for the given bus.
func NewFeedHandler(bus *Bus, isDev bool) *FeedHandler {
	return &FeedHandler{bus: bus, isDev: isDev}
}

// ServeHTTP upgrades the connection and writes one JSON event per message
// until the client disconnects.
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if h.isDev {
		opts.InsecureSkipVerify = true
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Warn("Feed websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "feed closed")

	events, cancel := h.bus.Subscribe()
	defer cancel()

	slog.Info("Operator feed connected", "remote", r.RemoteAddr)

	// The feed only writes. CloseRead keeps pumping the client's control
	// frames and cancels the context when the peer closes, so an idle
	// feed does not strand the subscriber after a disconnect.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				slog.Warn("Feed event marshal failed", "error", err)
				continue
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
			err = conn.Write(writeCtx, websocket.MessageText, payload)
			cancelWrite()
			if err != nil {
				slog.Info("Operator feed disconnected", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	}
}
