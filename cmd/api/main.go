// Command api runs the docsign HTTP API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/firmaria/docsign/internal/api"
	"github.com/firmaria/docsign/internal/auth"
	"github.com/firmaria/docsign/internal/events"
	"github.com/firmaria/docsign/internal/signing"
	"github.com/firmaria/docsign/internal/store/postgres"
	"github.com/firmaria/docsign/pkg/config"
	"github.com/firmaria/docsign/pkg/logger"
)

func main() {
	log := logger.New(logLevel(), os.Getenv("LOG_FORMAT") != "text")
	slog.SetDefault(log.Logger)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	st, err := postgres.NewPostgresStore(postgres.DefaultConfig(cfg.DatabaseDSN), log.Logger)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	authService := auth.NewService(&auth.Config{
		JWTSecret:   []byte(cfg.JWTSecret),
		TokenExpiry: cfg.JWTExpiry,
	}, st, log.Logger)

	broker := events.NewBroker(log.Logger)
	issuer := signing.NewIssuer([]byte(cfg.TokenHashKey))
	signingService := signing.NewService(st, issuer, broker, log.Logger)
	signingService.SetDefaultTTL(cfg.EnvelopeTTL)

	server := api.NewServer(cfg, st, signingService, authService, broker, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
