// Package delivery persists completed intake summaries to external sinks:
// cloud file storage and email. Sinks are best-effort from the visitor's
// point of view; failures are logged and archived for operator follow-up,
// never surfaced to the chat.
package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
)

// Summary is a rendered intake handed to the sinks.
type Summary struct {
	SessionID   string
	Fields      map[string]string
	Transcript  []domain.Message
	Document    []byte // rendered PDF
	PhotoCount  int
	CompletedAt time.Time
}

// Sink delivers a completed intake summary somewhere external.
type Sink interface {
	// Name identifies the sink in logs and delivery records.
	Name() string

	// Deliver persists the summary. It must be safe to call from a
	// background goroutine.
	Deliver(ctx context.Context, s Summary) error
}

// AttemptRecorder archives the outcome of each sink attempt so operators
// can follow up on failures.
type AttemptRecorder interface {
	RecordDeliveryAttempt(ctx context.Context, sessionID, sink string, deliveryErr error) error
}

// FailureListener is notified when a sink attempt fails.
type FailureListener func(sessionID, sink string, err error)

// Dispatcher fans a summary out to all configured sinks in the background
// so the user-facing reply never blocks on delivery.
type Dispatcher struct {
	sinks     []Sink
	recorder  AttemptRecorder
	onFailure FailureListener
	timeout   time.Duration
}

// NewDispatcher creates a dispatcher. recorder and onFailure may be nil.
func NewDispatcher(sinks []Sink, recorder AttemptRecorder, onFailure FailureListener) *Dispatcher {
	return &Dispatcher{
		sinks:     sinks,
		recorder:  recorder,
		onFailure: onFailure,
		timeout:   2 * time.Minute,
	}
}

// Dispatch hands the summary to every sink on a background goroutine and
// returns immediately.
func (d *Dispatcher) Dispatch(s Summary) {
	go d.run(s)
}

func (d *Dispatcher) run(s Summary) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	for _, sink := range d.sinks {
		err := sink.Deliver(ctx, s)
		if err != nil {
			slog.Error("Summary delivery failed",
				"session_id", s.SessionID, "sink", sink.Name(), "error", err)
			if d.onFailure != nil {
				d.onFailure(s.SessionID, sink.Name(), err)
			}
		} else {
			slog.Info("Summary delivered",
				"session_id", s.SessionID, "sink", sink.Name(), "photos", s.PhotoCount)
		}
		if d.recorder != nil {
			if recErr := d.recorder.RecordDeliveryAttempt(ctx, s.SessionID, sink.Name(), err); recErr != nil {
				slog.Error("Failed to record delivery attempt",
					"session_id", s.SessionID, "sink", sink.Name(), "error", recErr)
			}
		}
	}
}
