package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteArchive implements Archive using SQLite.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed archive.
func NewSQLite(dbPath string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	archive := &SQLiteArchive{db: db}
	if err := archive.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return archive, nil
}

func (a *SQLiteArchive) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS intakes (
		session_id TEXT PRIMARY KEY,
		fields_json TEXT NOT NULL,
		transcript_json TEXT NOT NULL,
		photo_count INTEGER NOT NULL,
		completed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_intakes_completed ON intakes(completed_at);

	CREATE TABLE IF NOT EXISTS delivery_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		sink TEXT NOT NULL,
		success INTEGER NOT NULL,
		error TEXT,
		attempted_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_attempts_failed ON delivery_attempts(attempted_at) WHERE success = 0;

	CREATE TABLE IF NOT EXISTS admin_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		settings_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveIntake archives a completed session. Re-saving the same session
// replaces the record.
func (a *SQLiteArchive) SaveIntake(ctx context.Context, s *domain.Session) error {
	fieldsJSON, err := json.Marshal(s.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	transcriptJSON, err := json.Marshal(s.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO intakes (session_id, fields_json, transcript_json, photo_count, completed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			fields_json = excluded.fields_json,
			transcript_json = excluded.transcript_json,
			photo_count = excluded.photo_count,
			completed_at = excluded.completed_at`,
		s.ID, string(fieldsJSON), string(transcriptJSON), len(s.Photos), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert intake: %w", err)
	}
	return nil
}

// ListIntakes returns the most recent completed intakes, newest first.
func (a *SQLiteArchive) ListIntakes(ctx context.Context, limit int) ([]IntakeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT session_id, fields_json, transcript_json, photo_count, completed_at
		FROM intakes ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query intakes: %w", err)
	}
	defer rows.Close()

	var records []IntakeRecord
	for rows.Next() {
		var rec IntakeRecord
		var fieldsJSON, transcriptJSON string
		var completedAt int64
		if err := rows.Scan(&rec.SessionID, &fieldsJSON, &transcriptJSON, &rec.PhotoCount, &completedAt); err != nil {
			return nil, fmt.Errorf("scan intake row: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields for %s: %w", rec.SessionID, err)
		}
		if err := json.Unmarshal([]byte(transcriptJSON), &rec.Transcript); err != nil {
			return nil, fmt.Errorf("unmarshal transcript for %s: %w", rec.SessionID, err)
		}
		rec.CompletedAt = time.Unix(completedAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecordDeliveryAttempt stores one sink outcome.
func (a *SQLiteArchive) RecordDeliveryAttempt(ctx context.Context, sessionID, sink string, deliveryErr error) error {
	success := 1
	errText := ""
	if deliveryErr != nil {
		success = 0
		errText = deliveryErr.Error()
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO delivery_attempts (session_id, sink, success, error, attempted_at)
		VALUES (?, ?, ?, ?, ?)`,
		sessionID, sink, success, errText, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert delivery attempt: %w", err)
	}
	return nil
}

// FailedDeliveries returns failed attempts, newest first.
func (a *SQLiteArchive) FailedDeliveries(ctx context.Context, limit int) ([]DeliveryAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, session_id, sink, success, error, attempted_at
		FROM delivery_attempts WHERE success = 0
		ORDER BY attempted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query delivery attempts: %w", err)
	}
	defer rows.Close()

	var attempts []DeliveryAttempt
	for rows.Next() {
		var at DeliveryAttempt
		var success int
		var attemptedAt int64
		if err := rows.Scan(&at.ID, &at.SessionID, &at.Sink, &success, &at.Error, &attemptedAt); err != nil {
			return nil, fmt.Errorf("scan delivery attempt: %w", err)
		}
		at.Success = success == 1
		at.AttemptedAt = time.Unix(attemptedAt, 0)
		attempts = append(attempts, at)
	}
	return attempts, rows.Err()
}

// GetSettings returns stored settings merged over the defaults, so new
// setting keys appear for operators without a migration.
func (a *SQLiteArchive) GetSettings(ctx context.Context) (map[string]Setting, error) {
	settings := DefaultSettings()

	var stored string
	err := a.db.QueryRowContext(ctx,
		`SELECT settings_json FROM admin_settings WHERE id = 1`).Scan(&stored)
	if err == sql.ErrNoRows {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}

	var overrides map[string]Setting
	if err := json.Unmarshal([]byte(stored), &overrides); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	for key, setting := range overrides {
		settings[key] = setting
	}
	return settings, nil
}

// SaveSettings replaces the stored settings.
func (a *SQLiteArchive) SaveSettings(ctx context.Context, settings map[string]Setting) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO admin_settings (id, settings_json, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			settings_json = excluded.settings_json,
			updated_at = excluded.updated_at`,
		string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (a *SQLiteArchive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close closes the database connection.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
