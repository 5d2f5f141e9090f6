// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command portalctl runs operator tasks against the portal database.
//
// Usage:
//
//	portalctl bootstrap-admin --code TT000001 --name "..." --email ... --company ... --phone ... --password ...
//	portalctl seed-permissions [--file data/areas.yaml]
//	portalctl migrate up
//	portalctl migrate down [--steps 1]
//
// Configuration comes from the same environment variables as the api binary.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/config"
	"github.com/taibuivan/portal/internal/platform/constants"
	"github.com/taibuivan/portal/internal/platform/migration"
	pgstore "github.com/taibuivan/portal/internal/platform/postgres"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/reports"
	"github.com/taibuivan/portal/internal/users/account"
	"github.com/taibuivan/portal/internal/users/identity"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var appErr *apperr.AppError
		if errors.As(err, &appErr) {
			for _, detail := range appErr.Details {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", detail.Field, detail.Message)
			}
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage()
		return nil
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "bootstrap-admin":
		return bootstrapAdmin(ctx, cfg, logger, args[1:])
	case "seed-permissions":
		return seedPermissions(ctx, cfg, logger, args[1:])
	case "migrate":
		return migrate(cfg, logger, args[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

// # Commands

func bootstrapAdmin(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	var input account.BootstrapAdminInput

	flagSet := pflag.NewFlagSet("bootstrap-admin", pflag.ContinueOnError)
	flagSet.StringVar(&input.RegistrationCode, "code", "", "registration code (TT + 6 digits)")
	flagSet.StringVar(&input.Name, "name", "", "full name")
	flagSet.StringVar(&input.Title, "title", "", "job title")
	flagSet.StringVar(&input.Email, "email", "", "contact email")
	flagSet.StringVar(&input.Company, "company", "", "company")
	flagSet.StringVar(&input.Phone, "phone", "", "phone with area code (11 digits)")
	flagSet.StringVar(&input.Area, "area", string(access.AreaManagement), "area")
	flagSet.StringVar(&input.Password, "password", "", "initial password, must be changed on first login")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	if err != nil {
		return err
	}
	identities := identity.NewService(identity.NewIdentityRepository(pool), identity.NewSessionRepository(pool), tokens)

	bootstrapper := account.NewBootstrapper(
		account.NewProfileRepository(pool),
		account.NewRoleRepository(pool),
		identities,
		logger,
	)

	profile, err := bootstrapper.BootstrapAdmin(ctx, input)
	if err != nil {
		return err
	}

	fmt.Printf("admin %s ready (user %s); the password must be changed on first login\n",
		profile.RegistrationCode, profile.UserID)
	return nil
}

func seedPermissions(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	flagSet := pflag.NewFlagSet("seed-permissions", pflag.ContinueOnError)
	file := flagSet.String("file", cfg.AreaSeedPath, "YAML file with the default area permissions")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	seed, err := access.LoadSeed(*file)
	if err != nil {
		return err
	}

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	service := newAccessService(pool, logger)
	inserted, err := service.EnsureDefaults(ctx, seed)
	if err != nil {
		return err
	}

	fmt.Printf("%d area permission rows inserted\n", inserted)
	return nil
}

func migrate(cfg *config.Config, logger *slog.Logger, args []string) error {
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	steps := flagSet.Int("steps", 1, "number of migrations to roll back (down only)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	switch flagSet.Arg(0) {
	case "up":
		return migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger)
	case "down":
		if *steps <= 0 {
			return fmt.Errorf("--steps must be positive")
		}
		return migration.RunDown(cfg.DatabaseURL, cfg.MigrationPath, *steps, logger)
	default:
		return fmt.Errorf("migrate needs up or down: %w", errUsage)
	}
}

func newAccessService(pool *pgxpool.Pool, logger *slog.Logger) *access.Service {
	permissions := access.NewPermissionRepository(pool)
	catalog := reports.NewService(reports.NewRepository(pool), access.NewEngine(permissions), logger)
	return access.NewService(permissions, catalog, logger)
}

func printUsage() {
	fmt.Fprint(os.Stderr, `portalctl: operator tasks for the corporate portal.

Usage:
  portalctl bootstrap-admin --code --name --email --company --phone --password [--title] [--area]
      Deletes any account under --code and creates an active administrator.
  portalctl seed-permissions [--file path]
      Inserts the default permission row of every area that has none.
  portalctl migrate up
  portalctl migrate down [--steps n]
`)
}
