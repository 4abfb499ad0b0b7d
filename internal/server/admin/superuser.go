// Package admin holds operator tasks that run outside the HTTP API.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

var (
	ErrEmailRequired    = errors.New("-email is required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrEmptyPassword    = errors.New("password must not be empty")
)

// PasswordReader reads a secret after showing prompt, without echo.
type PasswordReader func(prompt string) (string, error)

// SuperuserCreator is the part of services.UserService this package needs.
type SuperuserCreator interface {
	CreateSuperuser(ctx context.Context, in services.RegisterInput) (*models.User, error)
}

// ParseEmailFlag picks -email out of args, ignoring the server's own flags.
func ParseEmailFlag(args []string) (string, error) {
	var email string

	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&email, "email", "", "superuser email")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "--email"})); err != nil {
		return "", err
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmailRequired
	}
	return email, nil
}

// CreateSuperuser asks for the password twice and creates (or promotes) the
// superuser account for email.
func CreateSuperuser(ctx context.Context, us SuperuserCreator, email string, read PasswordReader, out io.Writer) (*models.User, error) {
	password, err := read("Password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	confirm, err := read("Password (again): ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	user, err := us.CreateSuperuser(ctx, services.RegisterInput{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Superuser %s ready (id %s)\n", user.Email, user.ID)
	return user, nil
}
