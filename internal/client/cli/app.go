package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/afocalor/rair-dapp/internal/client/client"
	"github.com/afocalor/rair-dapp/internal/client/config"
	"github.com/afocalor/rair-dapp/internal/client/services"
	"github.com/afocalor/rair-dapp/internal/client/wallet"
	"github.com/afocalor/rair-dapp/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	onlineCheckInterval = 15 * time.Second
	downloadDir         = "downloads"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	api     client.Client
	session *services.SessionService
	reader  *bufio.Reader
	out     io.Writer

	mu            sync.Mutex
	mode          Mode
	wallet        *wallet.KeyProvider
	interactive   bool
	stopRefresher context.CancelFunc
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.CacheFile)
	if err != nil {
		return nil, fmt.Errorf("error initializing cache %s: %w", c.CacheFile, err)
	}

	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	return newApp(c, logger, db, api, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, api client.Client, in io.Reader, out io.Writer) *App {
	return &App{
		config:  c,
		logger:  logger.With("module", "cli"),
		db:      db,
		api:     api,
		session: services.NewSessionService(api, nil, db, logger, c.RefreshSkew),
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.logger.Info(context.Background(), "connection mode changed", "mode", mode)
	}
}

// Run blocks in the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close()

	a.printf("rair wallet client (type 'help' for commands)\n")

	go a.StartOnlineStatusWatcher(ctx, onlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close() {
	a.haltRefresher()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "closing cache", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.LoginDone()
}

func (a *App) getStatus() string {
	s := ""
	if sess := a.session.Session(); sess != nil && a.isLoggedIn() {
		s = sess.Address + " "
	}
	s += string(a.Mode())
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	check := func() {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := a.api.Ping(ctx); err != nil {
			a.setMode(ModeOffline)
			return
		}
		a.setMode(ModeOnline)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}
