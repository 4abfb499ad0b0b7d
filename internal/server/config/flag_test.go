package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-m", "memory", "-d", "db", "-n", "auth", "-s", "secret",
				"-t", "1", "-r", "3", "-v", "5", "-q", "-l", "debug",
			},
			expected: &Config{
				EndpointAddrHTTP:            "127.0.0.1:9090",
				Storage:                     "memory",
				DatabaseDSN:                 "db",
				DatabaseName:                "auth",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 1 * time.Minute,
				ResetTokenValidityDuration:  3 * time.Minute,
				VerifyTokenValidityDuration: 5 * time.Minute,
				RequireVerification:         true,
				LogLevel:                    "debug",
			},
		},
		{
			name: "foreign flags are ignored",
			args: []string{"cmd", "-email", "root@example.com", "-s", "secret"},
			expected: &Config{
				SecretKey: "secret",
			},
		},
		{
			name:        "bad integer panics",
			args:        []string{"cmd", "-t", "ten"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
