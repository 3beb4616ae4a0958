package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Elevated-Garage/contact-solomon/internal/store"
)

func newAdminServer(t *testing.T) *httptest.Server {
	t.Helper()
	archive, err := store.NewSQLite(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = archive.Close() })

	r := chi.NewRouter()
	NewAdminHandler(archive).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestAdminSettingsRoundTrip(t *testing.T) {
	srv := newAdminServer(t)

	resp, err := srv.Client().Get(srv.URL + "/admin/settings")
	if err != nil {
		t.Fatalf("GET settings failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var settings map[string]store.Setting
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		t.Fatalf("failed to decode settings: %v", err)
	}
	if _, ok := settings[store.SettingPersonaPrompt]; !ok {
		t.Fatal("expected default persona prompt setting")
	}

	persona := settings[store.SettingPersonaPrompt]
	persona.Value = "You are extremely brief."
	settings[store.SettingPersonaPrompt] = persona
	settings["made_up_key"] = store.Setting{Type: "toggle", Enabled: true}

	payload, _ := json.Marshal(settings)
	resp, err = srv.Client().Post(srv.URL+"/admin/save-settings", "application/json", strings.NewReader(string(payload)))
	if err != nil {
		t.Fatalf("POST save-settings failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = srv.Client().Get(srv.URL + "/admin/settings")
	if err != nil {
		t.Fatalf("second GET settings failed: %v", err)
	}
	defer resp.Body.Close()
	var got map[string]store.Setting
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode settings: %v", err)
	}
	if got[store.SettingPersonaPrompt].Value != "You are extremely brief." {
		t.Errorf("expected persona override to persist, got %q", got[store.SettingPersonaPrompt].Value)
	}
	if _, ok := got["made_up_key"]; ok {
		t.Error("expected unknown settings keys to be dropped")
	}
}

func TestAdminSaveSettingsRejectsMalformedBody(t *testing.T) {
	srv := newAdminServer(t)

	resp, err := srv.Client().Post(srv.URL+"/admin/save-settings", "application/json", strings.NewReader("{nope"))
	if err != nil {
		t.Fatalf("POST save-settings failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAdminListEndpointsEmpty(t *testing.T) {
	srv := newAdminServer(t)

	for _, path := range []string{"/admin/intakes", "/admin/failed-deliveries"} {
		resp, err := srv.Client().Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s returned %d", path, resp.StatusCode)
		}
		_ = resp.Body.Close()
	}
}
