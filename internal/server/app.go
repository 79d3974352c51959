// Package server wires configuration, storage, services and the HTTP API
// together and runs them until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/afocalor/rair-dapp/internal/logging"
	"github.com/afocalor/rair-dapp/internal/server/config"
	"github.com/afocalor/rair-dapp/internal/server/httpapi"
	"github.com/afocalor/rair-dapp/internal/server/repositories/repomanager"
	"github.com/afocalor/rair-dapp/internal/server/services"
)

const challengePurgeInterval = time.Minute

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}

	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	authService  *services.AuthService
	userService  *services.UserService
	fileService  *services.FileService
	resolver     *services.Resolver
	mediaService *services.MediaService
}

// NewApp opens the database, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	resolver := services.NewResolver(db, rm)

	return &App{
		config:       c,
		logger:       logger,
		db:           db,
		authService:  services.NewAuthService(db, rm, c),
		userService:  services.NewUserService(db, rm),
		fileService:  services.NewFileService(db, rm),
		resolver:     resolver,
		mediaService: services.NewMediaService(db, rm, resolver, c),
	}, nil
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

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, httpapi.Services{
		Files:    app.fileService,
		Resolver: app.resolver,
		Auth:     app.authService,
		Users:    app.userService,
		Media:    app.mediaService,
		Health:   app.db.PingContext,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// purgeChallenges periodically drops challenges that expired unanswered.
func (app *App) purgeChallenges(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.authService.PurgeExpiredChallenges(ctx)
			if err != nil {
				app.logger.Warn(ctx, "challenge purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "expired challenges purged", "count", n)
			}
		}
	}
}

// Run blocks until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeChallenges(ctx, challengePurgeInterval)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
