// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	AllowedOrigins []string
	DBPath         string
	AssetDir       string

	OpenAI        OpenAIConfig
	Drive         DriveConfig
	Email         EmailConfig
	TranscriptLog TranscriptLogConfig
}

// OpenAIConfig holds the oracle API settings.
type OpenAIConfig struct {
	APIKey       string
	ChatModel    string
	ExtractModel string
}

// DriveConfig holds the Google Drive delivery settings.
type DriveConfig struct {
	Enabled         bool
	CredentialsFile string
	FolderID        string
}

// EmailConfig holds the SMTP delivery settings.
type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// TranscriptLogConfig controls NDJSON transcript logging.
type TranscriptLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("TRANSCRIPT_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		DBPath:         getEnv("DB_PATH", "./data/intake.db"),
		AssetDir:       getEnv("ASSET_DIR", "./assets"),
		OpenAI: OpenAIConfig{
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			ChatModel:    getEnv("OPENAI_MODEL_CHAT", "gpt-4o"),
			ExtractModel: getEnv("OPENAI_MODEL_EXTRACT", "gpt-4o-mini"),
		},
		Drive: DriveConfig{
			Enabled:         getEnvBool("DRIVE_ENABLED", false),
			CredentialsFile: getEnv("DRIVE_CREDENTIALS_FILE", ""),
			FolderID:        getEnv("DRIVE_FOLDER_ID", ""),
		},
		Email: EmailConfig{
			Enabled:  getEnvBool("EMAIL_ENABLED", false),
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", ""),
			To:       getEnv("EMAIL_TO", ""),
		},
		TranscriptLog: TranscriptLogConfig{
			Enabled:       getEnvBool("TRANSCRIPT_LOG_ENABLED", true),
			Dir:           getEnv("TRANSCRIPT_LOG_DIR", "./data/logs/transcripts"),
			GlobalEnabled: getEnvBool("TRANSCRIPT_LOG_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("TRANSCRIPT_LOG_GLOBAL_PATH", "./data/logs/transcripts/all.ndjson"),
			QueueSize:     queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY cannot be empty")
	}
	if c.Drive.Enabled && c.Drive.CredentialsFile == "" {
		return fmt.Errorf("DRIVE_CREDENTIALS_FILE is required when DRIVE_ENABLED is set")
	}
	if c.Email.Enabled {
		if c.Email.Host == "" {
			return fmt.Errorf("SMTP_HOST is required when EMAIL_ENABLED is set")
		}
		if c.Email.From == "" || c.Email.To == "" {
			return fmt.Errorf("EMAIL_FROM and EMAIL_TO are required when EMAIL_ENABLED is set")
		}
	}
	if c.TranscriptLog.Dir == "" {
		return fmt.Errorf("TRANSCRIPT_LOG_DIR cannot be empty")
	}
	if c.TranscriptLog.GlobalPath == "" {
		return fmt.Errorf("TRANSCRIPT_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.TranscriptLog.QueueSize <= 0 {
		return fmt.Errorf("TRANSCRIPT_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env == "development"
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.Contains(o, "localhost") || strings.Contains(o, "127.0.0.1") {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
