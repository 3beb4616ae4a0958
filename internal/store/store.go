// Package store provides the durable operator-facing archive: completed
// intakes, delivery attempt outcomes, and admin settings. Live session
// state is intentionally not persisted here; it stays in process memory
// for the lifetime of the conversation.
package store

import (
	"context"
	"time"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
)

// IntakeRecord is the archived form of a completed intake.
type IntakeRecord struct {
	SessionID   string            `json:"session_id"`
	Fields      map[string]string `json:"fields"`
	Transcript  []domain.Message  `json:"transcript"`
	PhotoCount  int               `json:"photo_count"`
	CompletedAt time.Time         `json:"completed_at"`
}

// DeliveryAttempt records one sink attempt for operator follow-up.
type DeliveryAttempt struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Sink        string    `json:"sink"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// Setting is one admin-configurable knob, shaped for the settings UI.
type Setting struct {
	Type    string `json:"type"` // "toggle" or "textarea"
	Label   string `json:"label"`
	Enabled bool   `json:"enabled,omitempty"`
	Value   string `json:"value,omitempty"`
}

// Archive defines the persistence interface for the operator archive.
type Archive interface {
	// SaveIntake archives a completed session.
	SaveIntake(ctx context.Context, s *domain.Session) error

	// ListIntakes returns the most recently completed intakes, newest first.
	ListIntakes(ctx context.Context, limit int) ([]IntakeRecord, error)

	// RecordDeliveryAttempt stores the outcome of one sink attempt.
	// deliveryErr is nil for successes.
	RecordDeliveryAttempt(ctx context.Context, sessionID, sink string, deliveryErr error) error

	// FailedDeliveries returns attempts that failed, newest first.
	FailedDeliveries(ctx context.Context, limit int) ([]DeliveryAttempt, error)

	// GetSettings returns the stored admin settings merged over defaults.
	GetSettings(ctx context.Context) (map[string]Setting, error)

	// SaveSettings replaces the stored admin settings.
	SaveSettings(ctx context.Context, settings map[string]Setting) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// Setting keys understood by the rest of the service.
const (
	SettingPersonaPrompt = "persona_prompt"
	SettingDriveEnabled  = "drive_delivery"
	SettingEmailEnabled  = "email_delivery"
)

// DefaultSettings returns the settings shown before an operator saves
// anything.
func DefaultSettings() map[string]Setting {
	return map[string]Setting{
		SettingPersonaPrompt: {
			Type:  "textarea",
			Label: "Solomon persona prompt (blank = built-in)",
		},
		SettingDriveEnabled: {
			Type:    "toggle",
			Label:   "Upload summaries to Google Drive",
			Enabled: true,
		},
		SettingEmailEnabled: {
			Type:    "toggle",
			Label:   "Email summaries to the team",
			Enabled: true,
		},
	}
}
