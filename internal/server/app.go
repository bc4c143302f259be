// Package server assembles the onboarding backend: configuration, storage,
// services and the HTTP server, and runs it until a shutdown signal.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/onboardkit/internal/logging"
	"github.com/dmitrijs2005/onboardkit/internal/server/auth"
	"github.com/dmitrijs2005/onboardkit/internal/server/config"
	"github.com/dmitrijs2005/onboardkit/internal/server/objectstore"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/onboardkit/internal/server/rest"
	"github.com/dmitrijs2005/onboardkit/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	server      *rest.Server
	admins      auth.AdminList
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	m, err := repomanager.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	if c.SecretKey == "" {
		logger.Error(ctx, "JWT secret is not configured; login and authenticated routes will fail")
	}

	tokens := auth.NewTokenIssuer(c.SecretKey, c.TokenTTL)
	hasher := auth.NewHasher(auth.DefaultHashCost)
	metrics := rest.NewMetrics()
	admins := auth.NewAdminList(c.AdminEmails)

	us := services.NewUserService(m, hasher, tokens, admins, logger)
	ps := services.NewProgressService(m, logger)
	rs := services.NewResourceService(m, objectstore.NewS3Presigner(c), logger)
	a := rest.NewAuthenticator(tokens, m.Users(), admins, logger, metrics, c.DevMode)

	srv := rest.NewServer(rest.Options{
		Address:     c.HTTPAddr,
		CORSOrigins: c.CORSOrigins,
		DevMode:     c.DevMode,
	}, logger, us, ps, rs, a, metrics)

	return &App{config: c, logger: logger, repomanager: m, server: srv, admins: admins}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a signal arrives or the server fails, then releases the
// storage connection.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageType, "admins", app.admins.Emails())

	app.initSignalHandler(cancelFunc)

	runErr := app.server.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "http server failed", "error", runErr)
	}

	if err := app.repomanager.Close(context.Background()); err != nil {
		app.logger.Error(ctx, "closing storage", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
	return runErr
}
