package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverridesOnlyPresentVariables(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9999")
	t.Setenv("RESET_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("REQUIRE_VERIFICATION", "true")
	t.Setenv("VERIFICATION_SECRET", "vs")

	c := validConfig()
	require.NoError(t, parseEnv(c))

	assert.Equal(t, ":9999", c.EndpointAddrHTTP)
	assert.Equal(t, 5*time.Minute, c.ResetTokenValidityDuration)
	assert.True(t, c.RequireVerification)
	assert.Equal(t, "vs", c.VerificationSecret)

	assert.Equal(t, "gophauth", c.DatabaseName)
	assert.Equal(t, 60*time.Minute, c.VerifyTokenValidityDuration)
}

func TestParseEnv_InvalidNumber(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "sixty")

	err := parseEnv(validConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}
