package cli

import (
	"bufio"
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/client/api"
	"github.com/dmitrijs2005/userkeeper/internal/client/config"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// pingTimeout bounds a single connectivity probe.
const pingTimeout = 3 * time.Second

// Session is what the CLI needs from services.SessionService.
type Session interface {
	Restore(ctx context.Context) error
	IsLoggedIn() bool
	Email() string
	Ping(ctx context.Context) error
	Signup(ctx context.Context, req api.SignupRequest) error
	Login(ctx context.Context, email, password string) error
	ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error
	UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*api.Profile, error)
	ListUsers(ctx context.Context) ([]api.User, error)
	Logout(ctx context.Context) error
}

type App struct {
	config  *config.Config
	session Session
	reader  *bufio.Reader
	out     io.Writer

	mu   sync.RWMutex
	mode Mode
}

func NewApp(c *config.Config, s Session, in io.Reader, out io.Writer) *App {
	return &App{config: c, session: s, reader: bufio.NewReader(in), out: out}
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) CurrentMode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	return a.session.IsLoggedIn()
}

func (a *App) getStatus() string {
	s := ""
	if a.session.IsLoggedIn() {
		s = a.session.Email() + " "
	}
	s += string(a.CurrentMode())
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

// Run restores the saved session and serves the REPL until exit or ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.session.Restore(ctx); err != nil {
		return err
	}

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	log.Println("Welcome to userkeeper CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := a.session.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
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
