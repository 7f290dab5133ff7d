package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/client/client"
	"github.com/dmitrijs2005/spendwise/internal/client/cloudmirror"
	"github.com/dmitrijs2005/spendwise/internal/client/config"
	"github.com/dmitrijs2005/spendwise/internal/client/currency"
	"github.com/dmitrijs2005/spendwise/internal/client/identity"
	"github.com/dmitrijs2005/spendwise/internal/client/localstore"
	"github.com/dmitrijs2005/spendwise/internal/client/recommend"
	"github.com/dmitrijs2005/spendwise/internal/client/security"
	"github.com/dmitrijs2005/spendwise/internal/client/session"
	"github.com/dmitrijs2005/spendwise/internal/filex"
	"github.com/dmitrijs2005/spendwise/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	store   *localstore.Store
	remote  client.Client
	session *session.Controller
	gate    *security.Gate
	conv    *currency.Converter
	engine  *recommend.Engine
	mirror  *cloudmirror.Mirror
	logger  logging.Logger

	reader *bufio.Reader
	out    io.Writer

	modeMu sync.Mutex
	Mode   Mode

	db *sql.DB
}

// NewApp opens the local database and builds the service graph.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	path, err := filex.EnsureParentDir(c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("prepare database dir: %w", err)
	}
	db, err := localstore.OpenDatabase(ctx, path)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", path, "err", err)
		return nil, err
	}

	remote, err := client.NewRESTClient(c.RemoteURL, c.AnonKey,
		client.WithTimeout(c.RequestTimeout),
		client.WithSoftDelete(c.SoftDelete),
		client.WithLogger(logger),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := localstore.NewStore(localstore.NewSQLiteSlots(db), logger)
	a := newApp(c, store, remote, logger)
	a.db = db

	if c.Mirror.Enabled {
		m, err := cloudmirror.New(ctx, cloudmirror.Config{
			Bucket:    c.Mirror.Bucket,
			Prefix:    c.Mirror.Prefix,
			Region:    c.Mirror.Region,
			Endpoint:  c.Mirror.Endpoint,
			AccessKey: c.Mirror.AccessKey,
			SecretKey: c.Mirror.SecretKey,
		}, store, logger)
		if err != nil {
			logger.Warn(ctx, "cloud mirror disabled", "err", err)
		} else {
			a.mirror = m
		}
	}
	return a, nil
}

func newApp(c *config.Config, store *localstore.Store, remote client.Client, logger logging.Logger) *App {
	if logger == nil {
		logger = logging.Nop()
	}
	gate := security.NewGate(store.Preferences(), security.NoBiometric{}, logger)
	ctrl := session.New(store, identity.NewService(store, logger), remote, gate,
		session.WithGuestTTL(c.GuestDataTTL),
		session.WithRemoteTimeout(c.RequestTimeout),
		session.WithLogger(logger),
	)
	return &App{
		config:  c,
		store:   store,
		remote:  remote,
		session: ctrl,
		gate:    gate,
		conv:    currency.NewConverter(nil),
		engine:  recommend.NewEngine(logger),
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
}

// Close stops background work and releases the database.
func (a *App) Close() {
	a.session.Close()
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) setMode(ctx context.Context, mode Mode) (changed bool) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.Mode == mode {
		return false
	}
	a.Mode = mode
	a.logger.Info(ctx, "connectivity changed", "mode", mode)
	return true
}

func (a *App) mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.Mode
}

// Run launches the session and blocks in the REPL until the user exits or
// ctx ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.loadRates(ctx)
	launched := a.session.Launch(ctx)
	go a.logOutcome(ctx, "initial refresh", launched)

	if !a.gate.IsSatisfied(ctx) {
		if err := a.Unlock(ctx, nil); err != nil {
			a.printf("Data stays locked until you type 'unlock'.\n")
		}
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.printf("Welcome to SpendWise (type 'help' for commands)\n")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))

	// leaving the REPL is the CLI's equivalent of losing the foreground; an
	// interrupt has already cancelled ctx, and the purge must still be written
	a.session.EnterBackground(context.WithoutCancel(ctx))
	return nil
}

func (a *App) loadRates(ctx context.Context) {
	var src currency.Source
	switch {
	case a.config.RatesFile != "":
		src = currency.FileSource{Path: a.config.RatesFile}
	case a.config.RatesURL != "":
		src = currency.HTTPSource{URL: a.config.RatesURL, Client: &http.Client{Timeout: a.config.RequestTimeout}}
	default:
		return
	}

	rates, err := src.Rates(ctx)
	if err != nil {
		a.logger.Warn(ctx, "exchange rates unavailable, converting 1:1", "err", err)
		return
	}
	a.conv.SetRates(rates)
}

func (a *App) logOutcome(ctx context.Context, what string, p *session.Pending) {
	if err := p.Wait(ctx); err != nil {
		a.logger.Warn(ctx, what+" failed", "err", err)
	}
}

// StartOnlineStatusWatcher pings the backend every interval. Coming back
// online triggers a refresh for signed-in users.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.remote.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}

	wasOffline := a.mode() == ModeOffline
	if a.setMode(ctx, ModeOnline) && wasOffline && !a.session.CurrentUser().IsGuest {
		a.logOutcome(ctx, "refresh after reconnect", a.session.Refresh(ctx))
	}
}

func (a *App) isSignedIn() bool {
	return !a.session.CurrentUser().IsGuest
}

func (a *App) getStatus() string {
	u := a.session.CurrentUser()
	s := "guest"
	if !u.IsGuest {
		s = u.Email
	}
	if m := a.mode(); m != "" {
		s += " " + string(m)
	}
	if !a.gate.IsSatisfied(context.Background()) {
		s += " locked"
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
