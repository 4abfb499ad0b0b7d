// Command createsuperuser creates or promotes a verified superuser account.
// It reads the same configuration as the server plus -email, and prompts for
// the password on the terminal.
//
//	createsuperuser -d postgres://... -n gophauth -s secret -email root@example.com
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server"
	"github.com/dmitrijs2005/gophauth/internal/server/admin"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"golang.org/x/term"
)

func main() {

	ctx := context.Background()

	email, err := admin.ParseEmailFlag(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg.Storage == config.StorageMemory {
		log.Fatalf("createsuperuser needs persistent storage, got %q", cfg.Storage)
	}

	repo, closeStore, err := server.Store(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closeStore()

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	us, _, err := server.NewServices(repo, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if _, err := admin.CreateSuperuser(ctx, us, email, readPassword, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}

}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
