package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-m string   storage backend: postgres | memory
//	-d string   PostgreSQL DSN
//	-n string   database name
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      reset-password token validity, minutes
//	-v int      verify-email token validity, minutes
//	-q bool     require a verified email for login and /users
//	-l string   log level
//
// Only the flags above are taken from os.Args; other components (for example
// the createsuperuser command) parse their own flags from the same line.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-m", "-d", "-n", "-s", "-t", "-r", "-v", "-l"},
		"-q")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.Storage, "m", config.Storage, "storage backend (postgres|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseName, "n", config.DatabaseName, "database name")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	resetTokenValidity := fs.Int("r", int(config.ResetTokenValidityDuration.Minutes()), "reset-password token validity (in minutes)")
	verifyTokenValidity := fs.Int("v", int(config.VerifyTokenValidityDuration.Minutes()), "verify-email token validity (in minutes)")

	fs.BoolVar(&config.RequireVerification, "q", config.RequireVerification, "require verified users")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.ResetTokenValidityDuration = time.Duration(*resetTokenValidity) * time.Minute
	config.VerifyTokenValidityDuration = time.Duration(*verifyTokenValidity) * time.Minute
}
