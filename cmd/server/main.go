package main

import (
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"splittab/internal/auth"
	"splittab/internal/chat"
	"splittab/internal/config"
	"splittab/internal/reminder"
	"splittab/internal/service"
	"splittab/internal/storage/sqlite"
	"splittab/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup()

	if cfg.JWTSecret == "dev-secret-change-in-production" {
		slog.Warn("Using default JWT secret, set JWT_SECRET in production")
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	authenticator := auth.NewPasswordAuthenticator(store)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	assistant := chat.NewAssistant(store, cfg.GeminiAPIKey, cfg.GeminiModel)
	if cfg.GeminiAPIKey == "" {
		slog.Info("AI chat disabled, set GEMINI_API_KEY to enable")
	} else {
		slog.Info("AI chat enabled", "model", cfg.GeminiModel)
	}

	if cfg.ReminderEnabled() {
		mailer := reminder.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPass)
		scheduler, err := reminder.NewJob(store, mailer).Start(cfg.ReminderCron)
		if err != nil {
			slog.Error("Failed to start reminder job", "error", err)
			os.Exit(1)
		}
		defer scheduler.Stop()
	} else {
		slog.Info("Reminder emails disabled, set SMTP_HOST and SMTP_EMAIL to enable")
	}

	router := service.NewRouter(store, authenticator, jwtManager, assistant, cfg.AllowedOrigins)

	// Wrap with h2c so gRPC-style clients can use HTTP/2 without TLS
	handler := h2c.NewHandler(router, &http2.Server{})

	slog.Info("Server starting", "address", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
