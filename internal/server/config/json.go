package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// "90m"-style strings or a number of minutes.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	Storage                     string         `json:"storage"`
	DatabaseDSN                 string         `json:"database_dsn"`
	DatabaseName                string         `json:"database_name"`
	SecretKey                   string         `json:"secret_key"`
	ResetPasswordSecret         string         `json:"reset_password_secret"`
	VerificationSecret          string         `json:"verification_secret"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	ResetTokenValidityDuration  timex.Duration `json:"reset_token_validity_duration"`
	VerifyTokenValidityDuration timex.Duration `json:"verify_token_validity_duration"`
	RequireVerification         *bool          `json:"require_verification"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c / -config. Fields
// absent from the file keep their current value. An unreadable or invalid
// file panics: a config file the operator asked for must not be skipped.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.applyTo(config)
}

func (c *JsonConfig) applyTo(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.Storage, c.Storage)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DatabaseName, c.DatabaseName)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.ResetPasswordSecret, c.ResetPasswordSecret)
	setString(&config.VerificationSecret, c.VerificationSecret)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.ResetTokenValidityDuration.Duration > 0 {
		config.ResetTokenValidityDuration = c.ResetTokenValidityDuration.Duration
	}
	if c.VerifyTokenValidityDuration.Duration > 0 {
		config.VerifyTokenValidityDuration = c.VerifyTokenValidityDuration.Duration
	}
	if c.RequireVerification != nil {
		config.RequireVerification = *c.RequireVerification
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
