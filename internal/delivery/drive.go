package delivery

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveSink uploads the summary PDF to a Google Drive folder using a
// service account.
type DriveSink struct {
	svc      *drive.Service
	folderID string
}

// NewDriveSink builds a Drive sink from service-account credentials JSON.
// folderID may be empty, in which case files land in the Drive root.
func NewDriveSink(ctx context.Context, credentialsJSON []byte, folderID string) (*DriveSink, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}
	svc, err := drive.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveSink{svc: svc, folderID: folderID}, nil
}

// Name identifies the sink in logs and delivery records.
func (d *DriveSink) Name() string { return "google_drive" }

// Deliver uploads the PDF as "Garage Intake Summary - <timestamp>.pdf".
func (d *DriveSink) Deliver(ctx context.Context, s Summary) error {
	meta := &drive.File{
		Name:     fmt.Sprintf("Garage Intake Summary - %s.pdf", s.CompletedAt.Format(time.RFC3339)),
		MimeType: "application/pdf",
	}
	if d.folderID != "" {
		meta.Parents = []string{d.folderID}
	}

	file, err := d.svc.Files.Create(meta).
		Media(bytes.NewReader(s.Document)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("upload summary to drive: %w", err)
	}

	slog.Info("Summary uploaded to Drive", "session_id", s.SessionID, "file_id", file.Id)
	return nil
}
