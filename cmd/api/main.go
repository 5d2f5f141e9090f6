// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the portal HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and Redis.
//  4. Run database migrations and seed missing area permissions (idempotent).
//  5. Wire collaborators, policy services and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/activity"
	"github.com/taibuivan/portal/internal/admin"
	"github.com/taibuivan/portal/internal/api"
	"github.com/taibuivan/portal/internal/notify"
	"github.com/taibuivan/portal/internal/platform/config"
	"github.com/taibuivan/portal/internal/platform/constants"
	"github.com/taibuivan/portal/internal/platform/mail"
	"github.com/taibuivan/portal/internal/platform/metrics"
	"github.com/taibuivan/portal/internal/platform/migration"
	pgstore "github.com/taibuivan/portal/internal/platform/postgres"
	redisstore "github.com/taibuivan/portal/internal/platform/redis"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/reports"
	"github.com/taibuivan/portal/internal/users/account"
	"github.com/taibuivan/portal/internal/users/identity"
	"github.com/taibuivan/portal/internal/visits"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("[Portal] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("mail_enabled", cfg.MailEnabled()),
	)

	// Root context for startup. A 30s deadline catches misconfiguration
	// quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	redisOptions, err := redisstore.ParseOptions(cfg.RedisURL)
	must(log, err, "parse redis url")

	queue := asynq.NewClient(notify.QueueConnection(redisOptions))
	defer func() {
		if cerr := queue.Close(); cerr != nil {
			log.Error("queue close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Collaborators ──────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	var mailer mail.Sender = mail.Disabled{}
	if cfg.MailEnabled() {
		mailer = mail.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		log.Warn("mail_delivery_disabled")
	}

	portalMetrics := metrics.New(prometheus.DefaultRegisterer)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	identityService := identity.NewService(
		identity.NewIdentityRepository(pool),
		identity.NewSessionRepository(pool),
		tokens,
	)

	profileRepository := account.NewProfileRepository(pool)
	roleRepository := account.NewRoleRepository(pool)
	permissionRepository := access.NewPermissionRepository(pool)

	engine := access.NewEngine(permissionRepository)

	reportService := reports.NewService(reports.NewRepository(pool), engine, log)
	accessService := access.NewService(permissionRepository, reportService, log)

	seed, err := access.LoadSeed(cfg.AreaSeedPath)
	must(log, err, "load area seed")
	_, err = accessService.EnsureDefaults(startupCtx, seed)
	must(log, err, "seed area permissions")

	activityService := activity.NewService(
		activity.NewLogRepository(pool),
		activity.NewPresenceStore(rdb, cfg.PresenceTTL),
		profileRepository,
		log,
	)

	accountService := account.NewService(profileRepository, roleRepository, identityService, mailer, log).
		WithNotifier(notify.NewEnqueuer(queue, log)).
		WithActivity(activityService).
		WithMetrics(portalMetrics)
	gate := account.NewGate(accountService)

	gateway := admin.NewGateway(admin.Dependencies{
		Authenticator:    identityService,
		Profiles:         profileRepository,
		Roles:            roleRepository,
		Credentials:      identityService,
		Statuses:         accountService,
		Mailer:           mailer,
		Activity:         activityService,
		FallbackPassword: cfg.RecoveryFallbackPassword,
		Metrics:          portalMetrics,
		Logger:           log,
	})

	visitService := visits.NewService(visits.NewRepository(pool), log)

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, identityService, portalMetrics, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Gate:      gate,
		Account:   account.NewHandler(accountService, gate),
		Access:    access.NewHandler(engine, accessService),
		Admin:     admin.NewHandler(gateway),
		Reports:   reports.NewHandler(reportService),
		Activity:  activity.NewHandler(activityService),
		Visits:    visits.NewHandler(visitService),
	})

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
