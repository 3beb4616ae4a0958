package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.OpenAI.ChatModel == "" || cfg.OpenAI.ExtractModel == "" {
		t.Error("expected default oracle models")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origin default, got %v", cfg.AllowedOrigins)
	}
	if !cfg.TranscriptLog.Enabled {
		t.Error("expected transcript logging enabled by default")
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is empty")
	}
}

func TestLoadDriveRequiresCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DRIVE_ENABLED", "true")
	t.Setenv("DRIVE_CREDENTIALS_FILE", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when Drive is enabled without credentials")
	}
}

func TestLoadEmailRequiresAddresses(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EMAIL_ENABLED", "1")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("EMAIL_FROM", "")
	t.Setenv("EMAIL_TO", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when email is enabled without addresses")
	}
}

func TestAllowedOriginsList(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.AllowedOrigins)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL", tt.value)
		if got := getEnvBool("TEST_BOOL", false); got != tt.want {
			t.Errorf("getEnvBool(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
