package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Elevated-Garage/contact-solomon/internal/store"
)

const maxSettingsBytes = 256 << 10

// AdminHandler serves the operator settings and archive views.
type AdminHandler struct {
	archive store.Archive
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(archive store.Archive) *AdminHandler {
	return &AdminHandler{archive: archive}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/settings", h.GetSettings)
		r.Post("/save-settings", h.SaveSettings)
		r.Get("/intakes", h.ListIntakes)
		r.Get("/failed-deliveries", h.FailedDeliveries)
	})
}

// GetSettings returns the persisted operator settings merged over defaults.
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.archive.GetSettings(r.Context())
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		Error(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	JSON(w, http.StatusOK, settings)
}

// SaveSettings persists operator settings. Unknown keys are dropped so a
// stale admin page cannot grow the settings table.
func (h *AdminHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var incoming map[string]store.Setting
	if err := json.NewDecoder(io.LimitReader(r.Body, maxSettingsBytes)).Decode(&incoming); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings := store.DefaultSettings()
	for key := range settings {
		if s, ok := incoming[key]; ok {
			settings[key] = s
		}
	}

	if err := h.archive.SaveSettings(r.Context(), settings); err != nil {
		slog.Error("Failed to save settings", "error", err)
		Error(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListIntakes returns recent completed intakes from the archive.
func (h *AdminHandler) ListIntakes(w http.ResponseWriter, r *http.Request) {
	records, err := h.archive.ListIntakes(r.Context(), 50)
	if err != nil {
		slog.Error("Failed to list intakes", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list intakes")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"intakes": records})
}

// FailedDeliveries returns recent failed delivery attempts for follow-up.
func (h *AdminHandler) FailedDeliveries(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.archive.FailedDeliveries(r.Context(), 50)
	if err != nil {
		slog.Error("Failed to list delivery attempts", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list delivery attempts")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"failed": attempts})
}
