package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig lists the environment variables the server understands. Pointer
// fields stay nil when the variable is unset, so only present variables
// override earlier layers.
type EnvConfig struct {
	EndpointAddrHTTP    *string `env:"HTTP_ADDRESS"`
	Storage             *string `env:"STORAGE"`
	DatabaseDSN         *string `env:"DATABASE_URL"`
	DatabaseName        *string `env:"DB_NAME"`
	SecretKey           *string `env:"SECRET_KEY"`
	ResetPasswordSecret *string `env:"RESET_PASSWORD_SECRET"`
	VerificationSecret  *string `env:"VERIFICATION_SECRET"`
	AccessTokenMinutes  *int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	ResetTokenMinutes   *int    `env:"RESET_TOKEN_EXPIRE_MINUTES"`
	VerifyTokenMinutes  *int    `env:"VERIFY_TOKEN_EXPIRE_MINUTES"`
	RequireVerification *bool   `env:"REQUIRE_VERIFICATION"`
	LogLevel            *string `env:"LOG_LEVEL"`
}

func parseEnv(config *Config) error {
	var e EnvConfig
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	e.applyTo(config)
	return nil
}

func (e *EnvConfig) applyTo(config *Config) {
	overrideString(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	overrideString(&config.Storage, e.Storage)
	overrideString(&config.DatabaseDSN, e.DatabaseDSN)
	overrideString(&config.DatabaseName, e.DatabaseName)
	overrideString(&config.SecretKey, e.SecretKey)
	overrideString(&config.ResetPasswordSecret, e.ResetPasswordSecret)
	overrideString(&config.VerificationSecret, e.VerificationSecret)
	overrideString(&config.LogLevel, e.LogLevel)

	overrideMinutes(&config.AccessTokenValidityDuration, e.AccessTokenMinutes)
	overrideMinutes(&config.ResetTokenValidityDuration, e.ResetTokenMinutes)
	overrideMinutes(&config.VerifyTokenValidityDuration, e.VerifyTokenMinutes)

	if e.RequireVerification != nil {
		config.RequireVerification = *e.RequireVerification
	}
}

func overrideString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func overrideMinutes(dst *time.Duration, v *int) {
	if v != nil {
		*dst = time.Duration(*v) * time.Minute
	}
}
