// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, mail) via constructors.
  - Fail fast: [Config.Validate] rejects settings that would break a policy at runtime.

The api, worker and portalctl binaries all load the same struct.
*/
package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/portal/internal/platform/sec"
)

// # Configuration Schema

// Config holds all runtime configuration for the portal binaries.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// AreaSeedPath is the YAML file with the built-in area permissions.
	AreaSeedPath string `env:"AREA_SEED_PATH" envDefault:"./data/areas.yaml"`

	// Key-Value store (Redis): presence records and the notification queue
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Cryptographic keys for access token signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required,notEmpty"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required,notEmpty"`

	// Email delivery (Resend). An empty key disables delivery.
	ResendAPIKey      string   `env:"RESEND_API_KEY"`
	MailFrom          string   `env:"MAIL_FROM" envDefault:"Portal Corporativo <onboarding@resend.dev>"`
	AdminNotifyEmails []string `env:"ADMIN_NOTIFY_EMAILS" envSeparator:","`

	// RecoveryFallbackPassword is set by an admin reset when the target has no
	// email on file. It must satisfy the password policy.
	RecoveryFallbackPassword string `env:"RECOVERY_FALLBACK_PASSWORD" envDefault:"Mudar@123"`

	// PresenceTTL is how long a heartbeat keeps a user listed as online.
	PresenceTTL time.Duration `env:"PRESENCE_TTL" envDefault:"2m"`

	// WorkerConcurrency is the number of notification tasks processed in parallel.
	WorkerConcurrency int `env:"WORKER_CONCURRENCY" envDefault:"5"`

	// Cross-Origin Resource Sharing: origins ending with this suffix are allowed in production.
	CORSOriginSuffix string `env:"CORS_ORIGIN_SUFFIX" envDefault:"empresa.com.br"`

	// TrustedProxies lists the addresses or CIDR ranges of the reverse proxies
	// whose X-Forwarded-For and X-Real-IP headers are believed. Empty means the
	// socket peer is always the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	trustedProxyPrefixes []netip.Prefix
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field rules that struct tags cannot express.
func (c *Config) Validate() error {
	if err := sec.CheckPasswordPolicy(c.RecoveryFallbackPassword); err != nil {
		return fmt.Errorf("config: RECOVERY_FALLBACK_PASSWORD %w", err)
	}
	if c.PresenceTTL <= 0 {
		return fmt.Errorf("config: PRESENCE_TTL must be positive")
	}
	if c.WorkerConcurrency <= 0 {
		return fmt.Errorf("config: WORKER_CONCURRENCY must be positive")
	}
	for i, address := range c.AdminNotifyEmails {
		c.AdminNotifyEmails[i] = strings.TrimSpace(address)
	}

	prefixes, err := parsePrefixes(c.TrustedProxies)
	if err != nil {
		return fmt.Errorf("config: TRUSTED_PROXIES %w", err)
	}
	c.trustedProxyPrefixes = prefixes
	return nil
}

// parsePrefixes accepts CIDR ranges and bare addresses, which become
// single-host prefixes.
func parsePrefixes(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if strings.Contains(value, "/") {
			prefix, err := netip.ParsePrefix(value)
			if err != nil {
				return nil, fmt.Errorf("invalid range %q: %w", value, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		address, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", value, err)
		}
		address = address.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(address, address.BitLen()))
	}
	return prefixes, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MailEnabled reports whether an email provider key is configured.
func (c *Config) MailEnabled() bool {
	return c.ResendAPIKey != ""
}

// TrustedProxyPrefixes returns the parsed TRUSTED_PROXIES, set by [Config.Validate].
func (c *Config) TrustedProxyPrefixes() []netip.Prefix {
	return c.trustedProxyPrefixes
}

// AllowedOriginSuffix returns the origin suffix accepted by CORS outside development.
func (c *Config) AllowedOriginSuffix() string {
	return c.CORSOriginSuffix
}
