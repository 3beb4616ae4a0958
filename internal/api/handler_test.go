package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
	"github.com/Elevated-Garage/contact-solomon/internal/identity"
	"github.com/Elevated-Garage/contact-solomon/internal/intake"
	"github.com/Elevated-Garage/contact-solomon/internal/session"
)

type stubExtractor struct {
	fields map[string]string
}

func (s stubExtractor) Extract(ctx context.Context, transcript []domain.Message) map[string]string {
	out := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

type stubResponder struct{}

func (stubResponder) Reply(ctx context.Context, transcript []domain.Message, missing []string) string {
	return "Tell me more about your garage."
}

type stubRenderer struct{}

func (stubRenderer) Render(s *domain.Session) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}

func newTestServer(t *testing.T, extractor intake.FieldExtractor) *httptest.Server {
	t.Helper()
	flow := intake.NewOrchestrator(
		session.NewMemoryStore(),
		extractor,
		stubResponder{},
		stubRenderer{},
		nil,
		intake.Options{},
	)

	r := chi.NewRouter()
	r.Use(identity.Middleware)
	NewHandler(flow).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path, sessionID, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(identity.SessionHeaderName, sessionID)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, decoded
}

func fillTextFields(t *testing.T, srv *httptest.Server, sessionID string) {
	t.Helper()
	for i, field := range domain.RequiredTextFields {
		body := fmt.Sprintf(`{"field":%q,"value":"answer %d"}`, field, i)
		resp, _ := postJSON(t, srv, "/update-intake", sessionID, body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("update-intake for %s returned %d", field, resp.StatusCode)
		}
	}
}

func TestMessageReturnsReplyAndSessionID(t *testing.T) {
	srv := newTestServer(t, stubExtractor{})

	resp, body := postJSON(t, srv, "/message", "sess-1", `{"message":"I want a home gym"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["reply"] != "Tell me more about your garage." {
		t.Errorf("unexpected reply: %v", body["reply"])
	}
	if body["sessionId"] != "sess-1" {
		t.Errorf("expected sessionId sess-1, got %v", body["sessionId"])
	}
	if resp.Header.Get(identity.SessionHeaderName) != "sess-1" {
		t.Error("expected session header echoed back")
	}
}

func TestMessageGeneratesSessionIDWhenAbsent(t *testing.T) {
	srv := newTestServer(t, stubExtractor{})

	resp, body := postJSON(t, srv, "/message", "", `{"message":"hello there"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	sid, _ := body["sessionId"].(string)
	if sid == "" {
		t.Fatal("expected a generated session ID in the response")
	}
	if resp.Header.Get(identity.SessionHeaderName) != sid {
		t.Error("expected generated session ID in response header")
	}
}

func TestMessageRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, stubExtractor{})

	resp, body := postJSON(t, srv, "/message", "sess-1", `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["error"] == "" {
		t.Error("expected a JSON error message")
	}
}

func TestMessageRejectsBlankMessage(t *testing.T) {
	srv := newTestServer(t, stubExtractor{})

	resp, _ := postJSON(t, srv, "/message", "sess-1", `{"message":"   "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateIntakeUnknownFieldRejected(t *testing.T) {
	srv := newTestServer(t, stubExtractor{})

	resp, _ := postJSON(t, srv, "/update-intake", "sess-1", `{"field":"favorite_color","value":"red"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", resp.StatusCode)
	}
}

func TestSubmitFinalIntakeReportsMissingFields(t *testing.T) {
	srv := newTestServer(t, stubExtractor{})

	resp, body := postJSON(t, srv, "/submit-final-intake", "sess-1", ``)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["success"] != false {
		t.Fatalf("expected success false, got %v", body["success"])
	}
	missing, ok := body["missing"].([]interface{})
	if !ok || len(missing) != len(domain.RequiredTextFields) {
		t.Fatalf("expected all %d text fields missing, got %v", len(domain.RequiredTextFields), body["missing"])
	}
	if missing[0] != domain.FieldFullName {
		t.Errorf("expected canonical order starting with full_name, got %v", missing[0])
	}
}

func TestSubmitFinalIntakeTriggersUploadWhenPhotoUnresolved(t *testing.T) {
	srv := newTestServer(t, stubExtractor{})
	fillTextFields(t, srv, "sess-1")

	resp, body := postJSON(t, srv, "/submit-final-intake", "sess-1", ``)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["triggerUpload"] != true {
		t.Fatalf("expected triggerUpload true, got %v", body)
	}
}

func TestSkipPhotoUploadCompletesIntake(t *testing.T) {
	srv := newTestServer(t, stubExtractor{})
	fillTextFields(t, srv, "sess-1")

	resp, body := postJSON(t, srv, "/skip-photo-upload", "sess-1", ``)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["done"] != true || body["show_summary"] != true {
		t.Fatalf("expected done and show_summary, got %v", body)
	}
}

func TestUploadPhotosCompletesIntake(t *testing.T) {
	srv := newTestServer(t, stubExtractor{})
	fillTextFields(t, srv, "sess-1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photos", "garage.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake image bytes")); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	_ = mw.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/upload-photos", &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(identity.SessionHeaderName, "sess-1")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["success"] != true || body["done"] != true {
		t.Fatalf("expected successful completing upload, got %v", body)
	}
}

func TestUploadPhotosRejectsEmptyBatch(t *testing.T) {
	srv := newTestServer(t, stubExtractor{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("note", "no files here")
	_ = mw.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/upload-photos", &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(identity.SessionHeaderName, "sess-1")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", resp.StatusCode)
	}
}

func TestExtractionDrivenCompletionShowsSummary(t *testing.T) {
	fields := make(map[string]string)
	for i, f := range domain.RequiredTextFields {
		fields[f] = fmt.Sprintf("answer %d", i)
	}
	srv := newTestServer(t, stubExtractor{fields: fields})

	resp, body := postJSON(t, srv, "/message", "sess-1", `{"message":"here is everything you asked for"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["triggerUpload"] != true {
		t.Fatalf("expected photo prompt after all text fields answered, got %v", body)
	}

	resp, body = postJSON(t, srv, "/skip-photo-upload", "sess-1", ``)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["show_summary"] != true {
		t.Fatalf("expected show_summary after skip, got %v", body)
	}
}
