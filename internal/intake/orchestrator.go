package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Elevated-Garage/contact-solomon/internal/delivery"
	"github.com/Elevated-Garage/contact-solomon/internal/domain"
	"github.com/Elevated-Garage/contact-solomon/internal/live"
	"github.com/Elevated-Garage/contact-solomon/internal/session"
)

// FieldExtractor derives intake fields from a transcript. Implementations
// are best-effort and must never fail the turn.
type FieldExtractor interface {
	Extract(ctx context.Context, transcript []domain.Message) map[string]string
}

// ReplyGenerator produces the next assistant message.
type ReplyGenerator interface {
	Reply(ctx context.Context, transcript []domain.Message, missing []string) string
}

// SummaryRenderer renders a completed session into the summary document.
type SummaryRenderer interface {
	Render(s *domain.Session) ([]byte, error)
}

// SummaryDispatcher hands a rendered summary to the delivery sinks
// without blocking the caller.
type SummaryDispatcher interface {
	Dispatch(s delivery.Summary)
}

// IntakeArchiver persists a durable record of a completed intake for
// operator follow-up.
type IntakeArchiver interface {
	SaveIntake(ctx context.Context, s *domain.Session) error
}

// TranscriptLogger receives every transcript message as it is appended.
type TranscriptLogger interface {
	LogMessage(sessionID string, m domain.Message)
}

// ErrUnknownField is returned by OverrideField for names outside the ten
// recognized intake fields.
var ErrUnknownField = errors.New("unknown intake field")

// IncompleteError reports which required fields are still missing.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("intake incomplete: missing %s", strings.Join(e.Missing, ", "))
}

// TurnResult is the orchestrator's answer to one inbound request.
type TurnResult struct {
	SessionID     string
	Reply         string
	Done          bool
	TriggerUpload bool
	ShowSummary   bool
}

// Orchestrator drives the intake state machine: extract fields from each
// turn, merge them into session state, decide what is still missing, gate
// on the photo step, and emit the final summary exactly once.
//
// Every operation runs under the per-session lock provided by the session
// store, so concurrent requests for the same session key cannot interleave
// a read-merge-write or fire the summary twice.
type Orchestrator struct {
	sessions  session.Store
	extractor FieldExtractor
	responder ReplyGenerator
	renderer  SummaryRenderer
	sink      SummaryDispatcher
	archive   IntakeArchiver
	bus       *live.Bus
	chatlog   TranscriptLogger
}

// Options carries the optional orchestrator collaborators.
type Options struct {
	Archive IntakeArchiver
	Bus     *live.Bus
	Chatlog TranscriptLogger
}

// NewOrchestrator wires the intake workflow. sink may be nil in tests;
// everything in opts is optional.
func NewOrchestrator(sessions session.Store, extractor FieldExtractor, responder ReplyGenerator,
	renderer SummaryRenderer, sink SummaryDispatcher, opts Options) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		extractor: extractor,
		responder: responder,
		renderer:  renderer,
		sink:      sink,
		archive:   opts.Archive,
		bus:       opts.Bus,
		chatlog:   opts.Chatlog,
	}
}

// HandleMessage processes one inbound chat message and returns the reply
// plus the side-effect flags for the caller's UI.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, text string) (TurnResult, error) {
	res := TurnResult{SessionID: sessionID}

	err := o.sessions.Mutate(ctx, sessionID, func(s *domain.Session) error {
		firstContact := len(s.Transcript) == 0
		o.append(s, domain.RoleUser, text)
		if firstContact {
			o.publish(live.EventSessionStarted, sessionID, nil)
		}

		if s.State == domain.StateComplete {
			// Terminal: never re-derive the summary from later chatter.
			res.Reply = completionReply
			res.Done = true
			res.ShowSummary = true
			o.append(s, domain.RoleAssistant, res.Reply)
			return nil
		}

		extracted := o.extractor.Extract(ctx, s.Transcript)
		if written := o.merge(s, extracted); written > 0 {
			o.publish(live.EventFieldsUpdated, sessionID, map[string]any{
				"updated": written,
			})
		}

		comp := CheckCompletion(s.Fields)
		res.Done = comp.Done

		switch {
		case !comp.Done:
			s.State = domain.StateCollecting
			if IsSmallTalk(text) {
				// Let Solomon chat; listing missing fields at "hi" is jarring.
				res.Reply = o.responder.Reply(ctx, s.Transcript, nil)
			} else {
				res.Reply = o.responder.Reply(ctx, s.Transcript, comp.Missing)
			}
		case !s.PhotoResolved():
			s.State = domain.StateAwaitingPhoto
			res.Reply = photoPrompt
			res.TriggerUpload = true
		default:
			o.complete(ctx, s)
			res.Reply = completionReply
			res.ShowSummary = true
		}

		o.append(s, domain.RoleAssistant, res.Reply)
		return nil
	})
	return res, err
}

// AddPhotos records uploaded photos and resolves the photo step. If the
// text fields are already complete this finishes the intake.
func (o *Orchestrator) AddPhotos(ctx context.Context, sessionID string, photos []domain.Photo) (TurnResult, error) {
	res := TurnResult{SessionID: sessionID}

	err := o.sessions.Mutate(ctx, sessionID, func(s *domain.Session) error {
		if s.State == domain.StateComplete {
			res.Done = true
			res.ShowSummary = true
			return nil
		}

		s.Photos = append(s.Photos, photos...)
		s.Fields[domain.FieldGaragePhotoUpload] = domain.PhotoUploaded
		s.UpdatedAt = time.Now()
		o.publish(live.EventPhotoReceived, sessionID, map[string]any{"count": len(photos)})

		return o.settlePhotoStep(ctx, s, &res)
	})
	return res, err
}

// SkipPhoto resolves the photo step with the skip marker.
func (o *Orchestrator) SkipPhoto(ctx context.Context, sessionID string) (TurnResult, error) {
	res := TurnResult{SessionID: sessionID}

	err := o.sessions.Mutate(ctx, sessionID, func(s *domain.Session) error {
		if s.State == domain.StateComplete {
			res.Done = true
			res.ShowSummary = true
			return nil
		}

		s.Fields[domain.FieldGaragePhotoUpload] = domain.PhotoSkipped
		s.UpdatedAt = time.Now()

		return o.settlePhotoStep(ctx, s, &res)
	})
	return res, err
}

// settlePhotoStep completes the intake if the photo resolution was the
// last thing standing; otherwise the session keeps collecting.
func (o *Orchestrator) settlePhotoStep(ctx context.Context, s *domain.Session, res *TurnResult) error {
	comp := CheckCompletion(s.Fields)
	res.Done = comp.Done
	if comp.Done {
		o.complete(ctx, s)
		res.ShowSummary = true
	} else {
		s.State = domain.StateCollecting
	}
	return nil
}

// SubmitFinal re-confirms a finished intake. It returns IncompleteError
// while text fields are missing, asks for the photo step if unresolved,
// and otherwise guarantees the summary has been emitted (exactly once).
func (o *Orchestrator) SubmitFinal(ctx context.Context, sessionID string) (TurnResult, error) {
	res := TurnResult{SessionID: sessionID}

	err := o.sessions.Mutate(ctx, sessionID, func(s *domain.Session) error {
		comp := CheckCompletion(s.Fields)
		if !comp.Done {
			return &IncompleteError{Missing: comp.Missing}
		}
		if !s.PhotoResolved() {
			s.State = domain.StateAwaitingPhoto
			res.TriggerUpload = true
			return nil
		}

		o.complete(ctx, s)
		res.Done = true
		res.ShowSummary = true
		return nil
	})
	return res, err
}

// OverrideField sets a single field directly, bypassing extraction. This
// is the only path allowed to replace a populated value with an empty one.
func (o *Orchestrator) OverrideField(ctx context.Context, sessionID, field, value string) error {
	if !domain.KnownField(field) {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	return o.sessions.Mutate(ctx, sessionID, func(s *domain.Session) error {
		s.Fields[field] = strings.TrimSpace(value)
		s.UpdatedAt = time.Now()
		o.publish(live.EventFieldsUpdated, sessionID, map[string]any{
			"updated": 1, "override": field,
		})
		return nil
	})
}

// merge folds extracted values into the session mapping and returns the
// number of fields actually written. Extraction never clears a populated
// field: a filler value only lands in an empty slot, while a non-filler
// value wins over whatever was there before.
func (o *Orchestrator) merge(s *domain.Session, extracted map[string]string) int {
	written := 0
	for field, value := range extracted {
		if domain.IsFiller(field, value) && s.Fields[field] != "" {
			continue
		}
		if s.Fields[field] != value {
			s.Fields[field] = value
			written++
		}
	}
	if written > 0 {
		s.UpdatedAt = time.Now()
	}
	return written
}

// complete transitions the session to its terminal state and emits the
// summary. The SummarySent guard plus the per-session lock make the sink
// fire at most once no matter how the completion was reached.
func (o *Orchestrator) complete(ctx context.Context, s *domain.Session) {
	if s.SummarySent {
		return
	}
	s.SummarySent = true
	s.State = domain.StateComplete
	s.UpdatedAt = time.Now()

	slog.Info("Intake complete", "session_id", s.ID, "photos", len(s.Photos))
	o.publish(live.EventIntakeCompleted, s.ID, map[string]any{"photos": len(s.Photos)})

	if o.archive != nil {
		if err := o.archive.SaveIntake(ctx, s); err != nil {
			slog.Error("Failed to archive completed intake", "session_id", s.ID, "error", err)
		}
	}

	if o.renderer == nil || o.sink == nil {
		return
	}
	doc, err := o.renderer.Render(s)
	if err != nil {
		slog.Error("Summary render failed", "session_id", s.ID, "error", err)
		o.publish(live.EventDeliveryFailed, s.ID, map[string]any{"stage": "render"})
		return
	}

	fields := make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = v
	}
	o.sink.Dispatch(delivery.Summary{
		SessionID:   s.ID,
		Fields:      fields,
		Transcript:  append([]domain.Message(nil), s.Transcript...),
		Document:    doc,
		PhotoCount:  len(s.Photos),
		CompletedAt: time.Now(),
	})
}

func (o *Orchestrator) append(s *domain.Session, role domain.Role, content string) {
	s.Append(role, content)
	if o.chatlog != nil {
		o.chatlog.LogMessage(s.ID, domain.Message{Role: role, Content: content})
	}
}

func (o *Orchestrator) publish(eventType, sessionID string, data map[string]any) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(live.Event{Type: eventType, SessionID: sessionID, Data: data})
}
