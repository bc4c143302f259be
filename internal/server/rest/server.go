// Package rest exposes the onboarding services over HTTP/JSON.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/onboardkit/internal/logging"
	"github.com/dmitrijs2005/onboardkit/internal/server/services"
)

const shutdownTimeout = 30 * time.Second

// Options configures the HTTP surface.
type Options struct {
	Address     string
	CORSOrigins []string
	DevMode     bool
}

type Server struct {
	opts      Options
	users     *services.UserService
	progress  *services.ProgressService
	resources *services.ResourceService
	auth      *Authenticator
	metrics   *Metrics
	logger    logging.Logger
	resp      responder
	handler   http.Handler
}

func NewServer(opts Options, l logging.Logger, us *services.UserService, ps *services.ProgressService,
	rs *services.ResourceService, a *Authenticator, m *Metrics) *Server {
	logger := l.With("module", "rest_server")
	s := &Server{
		opts:      opts,
		users:     us,
		progress:  ps,
		resources: rs,
		auth:      a,
		metrics:   m,
		logger:    logger,
		resp:      responder{logger: logger, devMode: opts.DevMode},
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
