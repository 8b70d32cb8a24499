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

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/guard"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const defaultOnlineCheckInterval = 3 * time.Second

type App struct {
	config      *config.Config
	authService services.AuthService
	store       *session.Store
	router      *Router
	guestGuard  *guard.Guard
	authGuard   *guard.Guard
	logger      logging.Logger
	reader      *bufio.Reader
	out         io.Writer
	db          *sql.DB

	mu   sync.RWMutex
	mode Mode
}

// NewApp opens the local session database, dials the server and builds the
// session store. Diagnostics go to stderr as text at the configured level.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewTextLogger(os.Stderr, level)

	db, err := client.InitDatabase(ctx, c.LocalDatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewGophAuthClient(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, db)

	a := newApp(c, as, logger, os.Stdin, os.Stdout)
	a.db = db
	return a, nil
}

func newApp(c *config.Config, as services.AuthService, l logging.Logger, in io.Reader, out io.Writer) *App {
	router := NewRouter(guard.SignInPath)
	return &App{
		config:      c,
		authService: as,
		store:       session.NewStore(session.State{}),
		router:      router,
		guestGuard:  guard.NewGuestGuard(router, l),
		authGuard:   guard.NewAuthGuard(router, l),
		logger:      l.With("module", "cli"),
		reader:      bufio.NewReader(in),
		out:         out,
	}
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(ctx, fmt.Sprintf("Switched to %s mode", mode))
	}
}

// Run restores the saved session, starts the connectivity watcher and serves
// the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		a.store.Close()
		if err := a.authService.Close(ctx); err != nil {
			a.logger.Error(ctx, "closing client", "error", err)
		}
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	fmt.Fprintln(a.out, "Welcome to GophAuth CLI (type 'help' for commands)")

	a.Restore(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

// Restore loads the saved session user and moves to the route the guards
// would pick for it.
func (a *App) Restore(ctx context.Context) {
	if err := session.RunRestore(ctx, a.store, a.authService.Restore); err != nil {
		a.logger.Warn(ctx, "session restore failed", "error", err)
		return
	}
	if a.isLoggedIn() {
		a.router.Replace(guard.DashboardPath)
	}
}

func (a *App) isLoggedIn() bool {
	return a.store.State().IsAuthenticated
}

func (a *App) getStatus() string {
	s := a.router.Current()
	if u := a.store.State().User; u != nil {
		s += " " + u.Email
	}
	if m := a.Mode(); m != "" {
		s += " (" + string(m) + ")"
	}
	return s
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// mode between online and offline. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	if interval <= 0 {
		interval = defaultOnlineCheckInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.authService.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ctx, ModeOffline)
			} else {
				a.setMode(ctx, ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
