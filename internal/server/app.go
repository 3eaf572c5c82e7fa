// Package server wires the userkeeper server together: it opens the database,
// applies migrations, builds the services and runs the HTTP API until an OS
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/auth"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
	"github.com/dmitrijs2005/userkeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/userkeeper/internal/server/password"
	"github.com/dmitrijs2005/userkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userkeeper/internal/server/services"
	"github.com/dmitrijs2005/userkeeper/internal/telemetry"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	userService *services.UserService
}

// NewApp builds every component from cfg. Configuration problems surface
// here, before anything listens.
func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	tokens, err := auth.NewTokenServiceFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	hasher, err := password.New(cfg)
	if err != nil {
		return nil, err
	}

	db, rm, err := openStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us, err := services.NewUserService(db, rm, hasher, tokens, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{config: cfg, logger: logger, db: db, repomanager: rm, userService: us}, nil
}

// openStorage returns the database handle and repositories for cfg.Storage.
// The memory store keeps users in process; an in-memory SQLite handle backs
// its transactions.
func openStorage(cfg *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	if cfg.Storage == config.StorageMemory {
		db, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(1)
		return db, repomanager.NewInMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return db, repomanager.NewPostgresRepositoryManager(), nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := httpserver.NewHTTPServer(app.config.EndpointAddrHTTP, app.config.PathPrefix, app.logger, app.userService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Run applies migrations and serves until ctx is cancelled or a termination
// signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	shutdownTracing, err := telemetry.Setup(ctx, app.config.OTelEndpoint, "userkeeper")
	if err != nil {
		return fmt.Errorf("tracing setup error: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			app.logger.Warn(context.Background(), "tracing shutdown failed", "error", err)
		}
	}()

	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var (
		wg        sync.WaitGroup
		serverErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		serverErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return serverErr
}
