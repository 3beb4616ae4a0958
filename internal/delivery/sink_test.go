package delivery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
)

type fakeSink struct {
	name string
	err  error

	mu    sync.Mutex
	calls int
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Deliver(_ context.Context, _ Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeSink) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecorder struct {
	mu       sync.Mutex
	attempts []string
}

func (f *fakeRecorder) RecordDeliveryAttempt(_ context.Context, sessionID, sink string, deliveryErr error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := "ok"
	if deliveryErr != nil {
		status = "failed"
	}
	f.attempts = append(f.attempts, sessionID+"/"+sink+"/"+status)
	return nil
}

func (f *fakeRecorder) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.attempts...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for condition")
}

func TestDispatcherDeliversToAllSinks(t *testing.T) {
	drive := &fakeSink{name: "google_drive"}
	email := &fakeSink{name: "email"}
	recorder := &fakeRecorder{}

	d := NewDispatcher([]Sink{drive, email}, recorder, nil)
	d.Dispatch(Summary{SessionID: "sess-1", CompletedAt: time.Now()})

	waitFor(t, func() bool { return len(recorder.snapshot()) == 2 })

	if drive.callCount() != 1 || email.callCount() != 1 {
		t.Errorf("Expected one delivery per sink, got drive=%d email=%d",
			drive.callCount(), email.callCount())
	}
	for _, attempt := range recorder.snapshot() {
		if !strings.HasSuffix(attempt, "/ok") {
			t.Errorf("Expected successful attempt record, got %q", attempt)
		}
	}
}

func TestDispatcherFailureContinuesAndNotifies(t *testing.T) {
	failing := &fakeSink{name: "google_drive", err: errors.New("quota exceeded")}
	working := &fakeSink{name: "email"}
	recorder := &fakeRecorder{}

	var mu sync.Mutex
	var failures []string
	onFailure := func(sessionID, sink string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, sink)
	}

	d := NewDispatcher([]Sink{failing, working}, recorder, onFailure)
	d.Dispatch(Summary{SessionID: "sess-1", CompletedAt: time.Now()})

	waitFor(t, func() bool { return len(recorder.snapshot()) == 2 })

	if working.callCount() != 1 {
		t.Error("A failing sink must not prevent later sinks from running")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(failures) != 1 || failures[0] != "google_drive" {
		t.Errorf("Expected one failure notification for google_drive, got %v", failures)
	}

	attempts := recorder.snapshot()
	if attempts[0] != "sess-1/google_drive/failed" {
		t.Errorf("Expected failed attempt record first, got %q", attempts[0])
	}
}

func TestNewEmailSinkWithoutCredentials(t *testing.T) {
	// An unauthenticated relay must build a client with no SMTP auth
	// configured; PLAIN auth with empty credentials fails at dial time.
	sink, err := NewEmailSink(EmailConfig{
		Host: "relay.internal",
		Port: 25,
		From: "solomon@elevatedgarage.com",
		To:   "team@elevatedgarage.com",
	})
	if err != nil {
		t.Fatalf("NewEmailSink without credentials failed: %v", err)
	}
	if sink.Name() != "email" {
		t.Errorf("Unexpected sink name %q", sink.Name())
	}
}

func TestNewEmailSinkWithCredentials(t *testing.T) {
	sink, err := NewEmailSink(EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "solomon",
		Password: "secret",
		From:     "solomon@elevatedgarage.com",
		To:       "team@elevatedgarage.com",
	})
	if err != nil {
		t.Fatalf("NewEmailSink with credentials failed: %v", err)
	}
	if sink.client == nil {
		t.Fatal("Expected a configured mail client")
	}
}

func TestDigestUsesCanonicalOrderAndNA(t *testing.T) {
	s := Summary{
		SessionID: "sess-1",
		Fields: map[string]string{
			domain.FieldFullName: "Jane Doe",
			domain.FieldBudget:   "$25k",
		},
		CompletedAt: time.Now(),
	}

	body := digest(s)
	nameIdx := strings.Index(body, "full name: Jane Doe")
	budgetIdx := strings.Index(body, "budget: $25k")
	if nameIdx == -1 || budgetIdx == -1 {
		t.Fatalf("Digest missing expected fields:\n%s", body)
	}
	if nameIdx > budgetIdx {
		t.Error("Digest fields out of canonical order")
	}
	if !strings.Contains(body, "email: N/A") {
		t.Errorf("Expected N/A for missing email:\n%s", body)
	}
}
