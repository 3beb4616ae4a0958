// Package domain contains core domain types for the Contact Solomon intake service.
package domain

import (
	"time"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry. The transcript is append-only and
// chronological; messages are never reordered.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Photo is an uploaded attachment kept in session memory until delivery.
type Photo struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// State tracks where a session is in the intake workflow.
type State string

const (
	// StateCollecting means one or more text fields are still missing.
	StateCollecting State = "collecting"
	// StateAwaitingPhoto means all text fields are answered but the photo
	// step has not been resolved by an upload or an explicit skip.
	StateAwaitingPhoto State = "awaiting_photo"
	// StateComplete is terminal: the summary has been generated and handed
	// to the delivery sink exactly once.
	StateComplete State = "complete"
)

// Session is one visitor's intake conversation, keyed by an opaque token.
// All session state lives in process memory and is lost on restart.
type Session struct {
	ID         string            `json:"id"`
	Transcript []Message         `json:"transcript"`
	Fields     map[string]string `json:"fields"`
	Photos     []Photo           `json:"photos"`
	State      State             `json:"state"`

	// SummarySent guards at-most-once delivery. Once set it is never
	// cleared; re-sending the final turn or re-calling the submit endpoint
	// must not produce a second sink invocation.
	SummarySent bool      `json:"summary_sent"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Append adds a message to the transcript.
func (s *Session) Append(role Role, content string) {
	s.Transcript = append(s.Transcript, Message{Role: role, Content: content})
	s.UpdatedAt = time.Now()
}

// LastUserMessage returns the most recent user-authored message, or the
// empty string if the user has not spoken yet.
func (s *Session) LastUserMessage() string {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Role == RoleUser {
			return s.Transcript[i].Content
		}
	}
	return ""
}

// PhotoResolved reports whether the photo step has been settled, either by
// an actual upload or by the skip marker in the field mapping.
func (s *Session) PhotoResolved() bool {
	if len(s.Photos) > 0 {
		return true
	}
	return s.Fields[FieldGaragePhotoUpload] != ""
}
