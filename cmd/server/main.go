// Package main is the entry point for the KUVote server.
//
// main stays minimal: read configuration from the environment, create the
// logger, hand both to internal/server. All actual logic lives in the
// imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sakif/kuvote/internal/server"
)

func main() {
	// A local .env overrides nothing already exported — godotenv.Load only
	// fills in variables that are unset. Missing .env is fine in production.
	_ = godotenv.Load(".env")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := server.Config{
		Port:         envInt(logger, "PORT", 8080),
		DBPath:       envStr("DB_PATH", "data/kuvote.db"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		EmailDomain:  envStr("EMAIL_DOMAIN", "@ku.th"),
		FrontendURL:  envStr("FRONTEND_URL", "http://localhost:3000"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     envInt(logger, "SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
	}

	// The token service refuses weak secrets, but catching it here gives a
	// clearer startup error than a wiring failure. Generate one with:
	//   JWT_SECRET=$(openssl rand -hex 32)
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(logger *slog.Logger, key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logger.Error("invalid integer environment variable",
			slog.String("key", key),
			slog.String("value", raw),
		)
		os.Exit(1)
	}
	return n
}
