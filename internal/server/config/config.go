// Package config handles configuration for the gophauth server: defaults,
// an optional JSON file, environment variables and command-line flags, applied
// in that order. The result is validated once and treated as immutable.
package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds runtime settings for the gophauth server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP API.
//   - Storage: user store backend, StoragePostgres or StorageMemory.
//   - DatabaseDSN / DatabaseName: PostgreSQL connection string (pgx) and the
//     database to use on that server.
//   - SecretKey: HMAC secret for access tokens. Reset and verification tokens
//     use ResetPasswordSecret / VerificationSecret when set, SecretKey otherwise.
//   - *TokenValidityDuration: lifetimes of the three token kinds.
//   - RequireVerification: /users endpoints and login demand a verified email.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrHTTP            string
	Storage                     string
	DatabaseDSN                 string
	DatabaseName                string
	SecretKey                   string
	ResetPasswordSecret         string
	VerificationSecret          string
	AccessTokenValidityDuration time.Duration
	ResetTokenValidityDuration  time.Duration
	VerifyTokenValidityDuration time.Duration
	RequireVerification         bool
	LogLevel                    string
}

// LoadDefaults populates the optional settings. Connection and secret values
// have no defaults: they must come from the operator.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.Storage = StoragePostgres
	c.AccessTokenValidityDuration = 60 * time.Minute
	c.ResetTokenValidityDuration = 60 * time.Minute
	c.VerifyTokenValidityDuration = 60 * time.Minute
	c.RequireVerification = false
	c.LogLevel = "info"
}

// ResetSecret returns the secret used for reset-password tokens.
func (c *Config) ResetSecret() string {
	if c.ResetPasswordSecret != "" {
		return c.ResetPasswordSecret
	}
	return c.SecretKey
}

// VerifySecret returns the secret used for verify-email tokens.
func (c *Config) VerifySecret() string {
	if c.VerificationSecret != "" {
		return c.VerificationSecret
	}
	return c.SecretKey
}

// Validate reports every missing or invalid required value at once.
func (c *Config) Validate() error {
	var errs []error

	if c.EndpointAddrHTTP == "" {
		errs = append(errs, errors.New("http address is required"))
	}

	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("database DSN is required"))
		}
		if c.DatabaseName == "" {
			errs = append(errs, errors.New("database name is required"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token lifetime must be positive"))
	}
	if c.ResetTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("reset token lifetime must be positive"))
	}
	if c.VerifyTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("verify token lifetime must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
// A missing required value is returned as an error; callers treat it as fatal.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	parseFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
