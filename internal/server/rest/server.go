// Package rest exposes the account service over HTTP with fiber.
package rest

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	address string
	app     *fiber.App
	logger  logging.Logger
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, ac *services.AccessController, requireVerification bool) *HTTPServer {
	logger := l.With("module", "http_server")

	app := fiber.New(fiber.Config{
		AppName:               "gophauth",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(requestid.New())
	app.Use(accessLog(logger))
	app.Use(fiberrecover.New())

	h := &handlers{
		users:               us,
		access:              ac,
		logger:              logger,
		requireVerification: requireVerification,
	}
	h.register(app)

	return &HTTPServer{address: a, app: app, logger: logger}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.app.Listen(s.address); err != nil {
		return err
	}

	return nil
}
