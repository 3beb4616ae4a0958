// Contact Solomon - Elevated Garage conversational intake server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/Elevated-Garage/contact-solomon/internal/api"
	"github.com/Elevated-Garage/contact-solomon/internal/chatlog"
	"github.com/Elevated-Garage/contact-solomon/internal/config"
	"github.com/Elevated-Garage/contact-solomon/internal/delivery"
	"github.com/Elevated-Garage/contact-solomon/internal/identity"
	"github.com/Elevated-Garage/contact-solomon/internal/intake"
	"github.com/Elevated-Garage/contact-solomon/internal/live"
	"github.com/Elevated-Garage/contact-solomon/internal/llm"
	"github.com/Elevated-Garage/contact-solomon/internal/middleware"
	"github.com/Elevated-Garage/contact-solomon/internal/session"
	"github.com/Elevated-Garage/contact-solomon/internal/store"
	"github.com/Elevated-Garage/contact-solomon/internal/summary"
	"github.com/Elevated-Garage/contact-solomon/web"
)

// settingsPersona serves the persona prompt from the admin settings,
// falling back to the built-in Solomon prompt.
type settingsPersona struct {
	archive store.Archive
}

func (p settingsPersona) Persona() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	settings, err := p.archive.GetSettings(ctx)
	if err != nil {
		slog.Warn("Failed to load persona setting, using built-in prompt", "error", err)
		return intake.PersonaPrompt
	}
	if override := strings.TrimSpace(settings[store.SettingPersonaPrompt].Value); override != "" {
		return override
	}
	return intake.PersonaPrompt
}

// settingToggle reads a boolean admin setting at dispatch time so operator
// changes apply without a restart.
func settingToggle(archive store.Archive, key string) delivery.EnabledFunc {
	return func(ctx context.Context) bool {
		settings, err := archive.GetSettings(ctx)
		if err != nil {
			slog.Warn("Failed to load sink toggle, delivering anyway", "setting", key, "error", err)
			return true
		}
		return settings[key].Enabled
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	archive, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := archive.Close(); closeErr != nil {
			slog.Error("Failed to close archive", "error", closeErr)
		}
	}()

	if err := archive.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	transcriptLog, err := chatlog.New(chatlog.Config{
		Enabled:       cfg.TranscriptLog.Enabled,
		Dir:           cfg.TranscriptLog.Dir,
		GlobalEnabled: cfg.TranscriptLog.GlobalEnabled,
		GlobalPath:    cfg.TranscriptLog.GlobalPath,
		QueueSize:     cfg.TranscriptLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize transcript logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := transcriptLog.Close(); closeErr != nil {
			slog.Error("Failed to close transcript logger", "error", closeErr)
		}
	}()

	oracle := llm.NewOpenAIClient(cfg.OpenAI.APIKey, 30*time.Second)
	extractor := intake.NewExtractor(oracle, cfg.OpenAI.ExtractModel)
	responder := intake.NewResponder(oracle, cfg.OpenAI.ChatModel, settingsPersona{archive: archive})
	renderer := summary.NewRenderer(cfg.AssetDir)

	bus := live.NewBus()

	sinks := buildSinks(cfg, archive)
	dispatcher := delivery.NewDispatcher(sinks, archive, func(sessionID, sink string, err error) {
		bus.Publish(live.Event{
			Type:      live.EventDeliveryFailed,
			SessionID: sessionID,
			Data:      map[string]any{"sink": sink, "error": err.Error()},
		})
	})

	flow := intake.NewOrchestrator(
		session.NewMemoryStore(),
		extractor,
		responder,
		renderer,
		dispatcher,
		intake.Options{
			Archive: archive,
			Bus:     bus,
			Chatlog: transcriptLog,
		},
	)

	// Initialize handlers.
	intakeHandler := api.NewHandler(flow)
	adminHandler := api.NewAdminHandler(archive)
	feedHandler := live.NewFeedHandler(bus, cfg.IsDevelopment())

	// Set up router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware)

	intakeHandler.RegisterRoutes(r)
	adminHandler.RegisterRoutes(r)

	// WebSocket endpoint for the operator live feed.
	r.Get("/ws/feed", feedHandler.ServeHTTP)

	// Serve embedded chat page (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // photo uploads and the websocket feed need long writes
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func buildSinks(cfg *config.Config, archive store.Archive) []delivery.Sink {
	var sinks []delivery.Sink

	if cfg.Drive.Enabled {
		creds, err := os.ReadFile(cfg.Drive.CredentialsFile)
		if err != nil {
			slog.Error("Failed to read Drive credentials, Drive delivery disabled", "error", err)
		} else {
			drive, err := delivery.NewDriveSink(context.Background(), creds, cfg.Drive.FolderID)
			if err != nil {
				slog.Error("Failed to initialize Drive sink, Drive delivery disabled", "error", err)
			} else {
				sinks = append(sinks, delivery.Gated(drive, settingToggle(archive, store.SettingDriveEnabled)))
				slog.Info("Drive delivery enabled", "folder_id", cfg.Drive.FolderID)
			}
		}
	}

	if cfg.Email.Enabled {
		email, err := delivery.NewEmailSink(delivery.EmailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
		})
		if err != nil {
			slog.Error("Failed to initialize email sink, email delivery disabled", "error", err)
		} else {
			sinks = append(sinks, delivery.Gated(email, settingToggle(archive, store.SettingEmailEnabled)))
			slog.Info("Email delivery enabled", "to", cfg.Email.To)
		}
	}

	if len(sinks) == 0 {
		slog.Warn("No delivery sinks configured, summaries will only be archived")
	}
	return sinks
}
