// Package server initializes and runs the account service: it opens the
// database, runs migrations, wires repositories, the media uploader and the
// session service, and starts the HTTP server with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/server/config"
	"github.com/clipstream/backend/internal/server/httpapi"
	"github.com/clipstream/backend/internal/server/media"
	"github.com/clipstream/backend/internal/server/repositories/repomanager"
	"github.com/clipstream/backend/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *services.SessionService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	uploader, err := media.NewS3Uploader(cfg)
	if err != nil {
		return nil, fmt.Errorf("media init error: %w", err)
	}

	sessions := services.NewSessionService(db, rm, cfg, uploader)

	return &App{config: cfg, logger: logger, db: db, sessions: sessions}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.sessions, app.config.UploadTempDir)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing db", "err", err)
	}
}
