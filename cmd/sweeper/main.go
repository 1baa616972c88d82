// Command sweeper performs one expiration sweep and exits. It is intended to
// be scheduled externally (cron, systemd timer); running it concurrently with
// the API or with itself is safe.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/firmaria/docsign/internal/signing"
	"github.com/firmaria/docsign/internal/store/postgres"
	"github.com/firmaria/docsign/pkg/config"
	"github.com/firmaria/docsign/pkg/logger"
)

func main() {
	log := logger.New(slog.LevelInfo, os.Getenv("LOG_FORMAT") != "text")
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

	issuer := signing.NewIssuer([]byte(cfg.TokenHashKey))
	service := signing.NewService(st, issuer, nil, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	processed, err := service.Sweep(ctx, time.Now())
	if err != nil {
		log.Error("sweep failed", "error", err)
		os.Exit(1)
	}

	log.Info("sweep finished", "expired", processed)
}
