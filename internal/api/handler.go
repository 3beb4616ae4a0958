// Package api provides HTTP handlers for the intake API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
	"github.com/Elevated-Garage/contact-solomon/internal/identity"
	"github.com/Elevated-Garage/contact-solomon/internal/intake"
)

const (
	maxMessageBytes   = 64 << 10
	maxUploadBytes    = 32 << 20
	maxPhotoBytes     = 10 << 20
	maxPhotosPerBatch = 12
)

// Handler handles the conversational intake endpoints.
type Handler struct {
	flow *intake.Orchestrator
}

// NewHandler creates a new Handler.
func NewHandler(flow *intake.Orchestrator) *Handler {
	return &Handler{flow: flow}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RegisterRoutes registers the intake routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/message", h.Message)
	r.Post("/upload-photos", h.UploadPhotos)
	r.Post("/skip-photo-upload", h.SkipPhotoUpload)
	r.Post("/submit-final-intake", h.SubmitFinalIntake)
	r.Post("/update-intake", h.UpdateIntake)
}

type messageRequest struct {
	Message string `json:"message"`
}

type turnResponse struct {
	Reply         string `json:"reply,omitempty"`
	SessionID     string `json:"sessionId"`
	Done          bool   `json:"done,omitempty"`
	TriggerUpload bool   `json:"triggerUpload,omitempty"`
	ShowSummary   bool   `json:"show_summary,omitempty"`
}

func turnJSON(w http.ResponseWriter, res intake.TurnResult) {
	JSON(w, http.StatusOK, turnResponse{
		Reply:         res.Reply,
		SessionID:     res.SessionID,
		Done:          res.Done,
		TriggerUpload: res.TriggerUpload,
		ShowSummary:   res.ShowSummary,
	})
}

// Message processes one user chat turn.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	var req messageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMessageBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	res, err := h.flow.HandleMessage(r.Context(), sessionID, req.Message)
	if err != nil {
		slog.Error("Failed to process message", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	turnJSON(w, res)
}

// UploadPhotos accepts multipart garage photos and resolves the photo step.
func (h *Handler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		Error(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		Error(w, http.StatusBadRequest, "no photos provided")
		return
	}
	if len(files) > maxPhotosPerBatch {
		Error(w, http.StatusBadRequest, "too many photos in one upload")
		return
	}

	photos := make([]domain.Photo, 0, len(files))
	for _, fh := range files {
		photo, err := readPhoto(fh)
		if err != nil {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		photos = append(photos, photo)
	}

	res, err := h.flow.AddPhotos(r.Context(), sessionID, photos)
	if err != nil {
		slog.Error("Failed to store photos", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to store photos")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"sessionId":    res.SessionID,
		"done":         res.Done,
		"show_summary": res.ShowSummary,
	})
}

func readPhoto(fh *multipart.FileHeader) (domain.Photo, error) {
	if fh.Size > maxPhotoBytes {
		return domain.Photo{}, errors.New("photo exceeds the size limit")
	}
	f, err := fh.Open()
	if err != nil {
		return domain.Photo{}, errors.New("failed to read uploaded photo")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
	if err != nil || len(data) > maxPhotoBytes {
		return domain.Photo{}, errors.New("failed to read uploaded photo")
	}
	return domain.Photo{
		Name:     fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

// SkipPhotoUpload records the user's choice to skip the photo step.
func (h *Handler) SkipPhotoUpload(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	res, err := h.flow.SkipPhoto(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to skip photo upload", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to skip photo upload")
		return
	}
	turnJSON(w, res)
}

// SubmitFinalIntake re-confirms completion of the intake.
func (h *Handler) SubmitFinalIntake(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	res, err := h.flow.SubmitFinal(r.Context(), sessionID)
	if err != nil {
		var incomplete *intake.IncompleteError
		if errors.As(err, &incomplete) {
			JSON(w, http.StatusOK, map[string]interface{}{
				"success": false,
				"missing": incomplete.Missing,
			})
			return
		}
		slog.Error("Failed to submit intake", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to submit intake")
		return
	}
	turnJSON(w, res)
}

type updateIntakeRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// UpdateIntake overrides a single field value, bypassing extraction.
func (h *Handler) UpdateIntake(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	var req updateIntakeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMessageBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Field) == "" {
		Error(w, http.StatusBadRequest, "field is required")
		return
	}

	if err := h.flow.OverrideField(r.Context(), sessionID, req.Field, req.Value); err != nil {
		if errors.Is(err, intake.ErrUnknownField) {
			Error(w, http.StatusBadRequest, "unknown intake field")
			return
		}
		slog.Error("Failed to update intake field", "error", err, "session_id", sessionID, "field", req.Field)
		Error(w, http.StatusInternalServerError, "failed to update intake field")
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}
