// Package server wires the development backend: it opens PostgreSQL,
// applies migrations, builds the services and serves the REST API until
// the context is cancelled or a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/logging"
	"github.com/dmitrijs2005/spendwise/internal/server/config"
	"github.com/dmitrijs2005/spendwise/internal/server/httpapi"
	"github.com/dmitrijs2005/spendwise/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/spendwise/internal/server/services"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

// NewApp connects to the database and brings the schema up to date.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return newApp(cfg, logger, db, rm), nil
}

func newApp(cfg *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	if logger == nil {
		logger = logging.Nop()
	}
	us := services.NewUserService(db, rm, cfg)
	rs := services.NewRecordService(db, rm)
	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		handler: httpapi.NewRouter(us, rs, cfg.AnonKey, logger),
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

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to ShutdownTimeout and closes the database.
func (app *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.config.EndpointAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.config.EndpointAddr, err)
	}
	return app.serve(ctx, ln)
}

func (app *App) serve(ctx context.Context, ln net.Listener) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	app.logger.Info(ctx, "Starting server...", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	if app.db != nil {
		if cerr := app.db.Close(); cerr != nil {
			app.logger.Error(ctx, "db close error", "err", cerr)
		}
	}

	app.logger.Info(ctx, "Server stopped")
	return err
}
