// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command worker processes the background task queue: admin notifications
// for new signups and the periodic session purge.
//
// It shares the api configuration. Only REDIS_URL, DATABASE_URL and the mail
// settings are used here.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taibuivan/portal/internal/notify"
	"github.com/taibuivan/portal/internal/platform/config"
	"github.com/taibuivan/portal/internal/platform/constants"
	"github.com/taibuivan/portal/internal/platform/mail"
	"github.com/taibuivan/portal/internal/platform/metrics"
	pgstore "github.com/taibuivan/portal/internal/platform/postgres"
	redisstore "github.com/taibuivan/portal/internal/platform/redis"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/users/identity"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("app", "portal-worker"))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		fatal(log, err, "load configuration")
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	if err != nil {
		fatal(log, err, "connect to postgres")
	}
	defer pool.Close()

	redisOptions, err := redisstore.ParseOptions(cfg.RedisURL)
	if err != nil {
		fatal(log, err, "parse redis url")
	}

	var mailer mail.Sender = mail.Disabled{}
	if cfg.MailEnabled() {
		mailer = mail.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		log.Warn("mail_delivery_disabled")
	}

	if len(cfg.AdminNotifyEmails) == 0 {
		log.Warn("admin_notify_emails_empty")
	}

	// The purge only touches session rows, so token signing is never used.
	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	if err != nil {
		fatal(log, err, "initialize jwt service")
	}
	identityService := identity.NewService(
		identity.NewIdentityRepository(pool),
		identity.NewSessionRepository(pool),
		tokens,
	)

	worker, err := notify.NewWorker(notify.WorkerConfig{
		Redis:         notify.QueueConnection(redisOptions),
		Concurrency:   cfg.WorkerConcurrency,
		NewUser:       notify.NewNewUserHandler(mailer, cfg.AdminNotifyEmails, metrics.New(prometheus.DefaultRegisterer), log),
		PurgeSessions: notify.NewPurgeSessionsHandler(identityService, log),
		Logger:        log,
	})
	if err != nil {
		fatal(log, err, "configure worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("worker_started",
		slog.Int("concurrency", cfg.WorkerConcurrency),
		slog.Int("recipients", len(cfg.AdminNotifyEmails)),
	)

	if err := worker.Run(ctx); err != nil {
		fatal(log, err, "run worker")
	}

	log.Info("worker stopped cleanly")
}

func fatal(log *slog.Logger, err error, context string) {
	log.Error("startup failure", slog.String("context", context), slog.Any("error", err))
	os.Exit(1)
}
