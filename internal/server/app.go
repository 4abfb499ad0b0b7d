// Package server wires the gophauth service together: it loads the user
// store, builds the credential primitives and services, and runs the HTTP
// API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/rest"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	access      *services.AccessController
}

// openDB seams dbx.Open for tests.
var openDB = dbx.Open

// NewApp opens the configured store, runs migrations when it is PostgreSQL
// and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	repo, db, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	us, ac, err := NewServices(repo, c, logger)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	us.Observe(services.NewLogObserver(logger.With("module", "events")))

	return &App{config: c, logger: logger, db: db, userService: us, access: ac}, nil
}

// NewServices builds the token codec, hasher and the two services on top of repo.
func NewServices(repo users.Repository, c *config.Config, logger logging.Logger) (*services.UserService, *services.AccessController, error) {
	codec, err := auth.NewTokenCodec(auth.Secrets{
		Access:        c.SecretKey,
		ResetPassword: c.ResetSecret(),
		VerifyEmail:   c.VerifySecret(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("token codec: %w", err)
	}

	us, err := services.NewUserService(repo, codec, auth.NewArgon2Hasher(auth.DefaultHashParams), c, logger)
	if err != nil {
		return nil, nil, err
	}

	return us, services.NewAccessController(repo, codec), nil
}

// openStore returns the user repository for c.Storage. For PostgreSQL it also
// returns the connection, which the caller closes.
func openStore(ctx context.Context, c *config.Config) (users.Repository, *sql.DB, error) {
	if c.Storage == config.StorageMemory {
		return users.NewMemoryRepository(), nil, nil
	}

	db, err := openDB(ctx, c.DatabaseDSN, c.DatabaseName)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}

	return rm.Users(db), db, nil
}

// Store opens the configured store for tools that run next to the server.
func Store(ctx context.Context, c *config.Config) (users.Repository, func(), error) {
	repo, db, err := openStore(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	return repo, func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.userService, app.access, app.config.RequireVerification)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	closeDB(app.db)
	app.logger.Info(ctx, "App stopped")
}
