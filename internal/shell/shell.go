// Package shell is the main application shell: navigation between the login,
// main, folio and change-password screens, and session teardown.
package shell

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/grupomess/erp/internal/auth"
	"github.com/grupomess/erp/internal/capture"
	"github.com/grupomess/erp/internal/models"
	"github.com/grupomess/erp/internal/notify"
)

// ErrNotLoggedIn is returned for actions that need the main shell
var ErrNotLoggedIn = errors.New("not logged in")

// Preference keys written on login
const (
	PrefUser       = "user"
	PrefLoggedInAt = "logged_in_at"
)

// Preferences is the session's key-value store
type Preferences interface {
	Set(key, value string) error
	Clear() error
}

// Options wires the shell
type Options struct {
	Gate     *auth.Gate
	Prefs    Preferences
	CacheDir string
	Notifier notify.Notifier
	// NewFolio builds a fresh folio screen each time it is entered
	NewFolio func() *capture.Controller
}

// App owns the navigation state. It is driven from the event loop only.
type App struct {
	gate     *auth.Gate
	prefs    Preferences
	cacheDir string
	notifier notify.Notifier
	newFolio func() *capture.Controller

	nav   *Navigator
	folio *capture.Controller
	now   func() time.Time
}

// New starts the shell on the login screen
func New(opts Options) *App {
	gate := opts.Gate
	if gate == nil {
		gate = auth.NewGate()
	}
	return &App{
		gate:     gate,
		prefs:    opts.Prefs,
		cacheDir: opts.CacheDir,
		notifier: opts.Notifier,
		newFolio: opts.NewFolio,
		nav:      NewNavigator(models.ScreenLogin),
		now:      time.Now,
	}
}

func (a *App) Screen() models.Screen { return a.nav.Current() }

func (a *App) Stack() []models.Screen { return a.nav.Stack() }

// LoggedIn reports whether the main shell is showing
func (a *App) LoggedIn() bool {
	return a.nav.Contains(models.ScreenMain)
}

// Login checks the credentials and, on success, replaces the login screen with the main shell
func (a *App) Login(identifier, secret string) error {
	if err := a.gate.AttemptLogin(identifier, secret); err != nil {
		slog.Info("Login rejected", "identifier", identifier)
		a.notifier.Toast("Invalid credentials")
		return err
	}

	if a.prefs != nil {
		if err := a.prefs.Set(PrefUser, identifier); err != nil {
			slog.Warn("Failed to store session preference", "key", PrefUser, "err", err)
		}
		if err := a.prefs.Set(PrefLoggedInAt, a.now().UTC().Format(time.RFC3339)); err != nil {
			slog.Warn("Failed to store session preference", "key", PrefLoggedInAt, "err", err)
		}
	}

	a.dropFolio()
	a.nav.ResetTo(models.ScreenMain)
	a.notifier.Toast("Login successful")
	slog.Info("Login successful", "identifier", identifier)
	return nil
}

// ChangePassword submits the change-password form. The screen is closed on success.
func (a *App) ChangePassword(current, newSecret, confirm string) error {
	if !a.LoggedIn() {
		return ErrNotLoggedIn
	}
	if a.nav.Current() != models.ScreenChangePassword {
		a.nav.Push(models.ScreenChangePassword)
	}

	err := auth.SubmitPasswordChange(current, newSecret, confirm)
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		a.notifier.Toast("Please fill in all fields")
		return err
	case errors.Is(err, auth.ErrPasswordMismatch):
		a.notifier.Toast("Passwords do not match")
		return err
	case err != nil:
		return err
	}

	a.notifier.Toast("Password changed")
	a.nav.Pop()
	return nil
}

// OpenFolio enters the folio screen, keeping the current one if it is already open
func (a *App) OpenFolio() (*capture.Controller, error) {
	if !a.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	if a.folio != nil {
		return a.folio, nil
	}
	a.folio = a.newFolio()
	a.nav.Push(models.ScreenFolio)
	slog.Info("Folio screen opened", "session_id", a.folio.Session().ID())
	return a.folio, nil
}

// Folio returns the open folio screen
func (a *App) Folio() (*capture.Controller, bool) {
	return a.folio, a.folio != nil
}

// CloseFolio leaves the folio screen and discards its session
func (a *App) CloseFolio() {
	if a.folio == nil {
		return
	}
	slog.Info("Folio screen closed", "session_id", a.folio.Session().ID())
	a.folio.Close()
	a.folio = nil
	if a.nav.Current() == models.ScreenFolio {
		a.nav.Pop()
	}
}

// Logout wipes the preferences and the cache directory, then returns to the
// login screen. When the preferences cannot be cleared the cache step is
// skipped, but the redirect always happens.
func (a *App) Logout() {
	a.dropFolio()

	if err := a.clearSession(); err != nil {
		slog.Error("Error closing session", "err", err)
	} else {
		a.clearCache()
	}

	a.nav.ResetTo(models.ScreenLogin)
	slog.Info("Logged out")
}

// dropFolio discards the folio screen without touching navigation
func (a *App) dropFolio() {
	if a.folio == nil {
		return
	}
	slog.Info("Folio screen discarded", "session_id", a.folio.Session().ID())
	a.folio.Close()
	a.folio = nil
}

func (a *App) clearSession() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("panic while clearing preferences")
			slog.Error("Recovered panic while clearing preferences", "panic", r)
		}
	}()
	if a.prefs == nil {
		return nil
	}
	return a.prefs.Clear()
}

// clearCache is best effort; failures are logged and ignored
func (a *App) clearCache() {
	if a.cacheDir == "" {
		return
	}
	entries, err := os.ReadDir(a.cacheDir)
	if err != nil {
		slog.Debug("Cache directory not cleared", "dir", a.cacheDir, "err", err)
		return
	}
	for _, entry := range entries {
		path := filepath.Join(a.cacheDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			slog.Debug("Failed to remove cache entry", "path", path, "err", err)
		}
	}
}
