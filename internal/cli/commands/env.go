package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/clickreserve/click/internal/agent"
	"github.com/clickreserve/click/internal/api"
	"github.com/clickreserve/click/internal/auth"
	"github.com/clickreserve/click/internal/cli/bookingselect"
	"github.com/clickreserve/click/internal/config"
	"github.com/clickreserve/click/internal/domain"
	"github.com/clickreserve/click/internal/i18n"
	"github.com/clickreserve/click/internal/session"
	"github.com/clickreserve/click/internal/validation"
)

// Env is everything a command needs. The API clients, the auth manager and
// the agent dashboard are built on first use so that a --lang flag can still
// change the request language.
type Env struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Out       io.Writer
	Err       io.Writer
	Catalog   *i18n.Catalog
	Validator *validation.Validator
	Prefs     Preferences
	Clock     clockwork.Clock

	// ReadPassword prompts for a secret. Nil means non-interactive.
	ReadPassword func(prompt string) (string, error)
	// SelectBooking lets an agent pick from pending bookings. Nil means
	// non-interactive.
	SelectBooking func(bookings []domain.Booking) (domain.ID, error)

	UserStore  session.Store
	AgentStore session.Store

	lang      i18n.Lang
	userAPI   *api.Client
	agentAPI  *api.Client
	manager   *auth.Manager
	dashboard *agent.Dashboard
}

// NewEnv opens the session stores named by cfg and wires the terminal
func NewEnv(cfg *config.Config, logger zerolog.Logger) (*Env, error) {
	userStore, err := session.Open(cfg.Session.Backend, cfg.Session.Path, session.NamespaceUser)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	agentStore, err := session.Open(cfg.Session.Backend, cfg.Session.Path, session.NamespaceAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to open agent session store: %w", err)
	}

	catalog, err := i18n.Load()
	if err != nil {
		return nil, err
	}

	env := &Env{
		Config:     cfg,
		Logger:     logger,
		Out:        os.Stdout,
		Err:        os.Stderr,
		Catalog:    catalog,
		Validator:  validation.New(catalog),
		Prefs:      defaultPreferences{},
		Clock:      clockwork.NewRealClock(),
		UserStore:  userStore,
		AgentStore: agentStore,
	}
	if term.IsTerminal(int(syscall.Stdin)) {
		env.ReadPassword = readPasswordFromTerminal
		env.SelectBooking = bookingselect.Prompt
	}
	env.lang = env.resolveLanguage()

	return env, nil
}

// Lang returns the active language
func (e *Env) Lang() i18n.Lang {
	return e.lang
}

// SetLang overrides the active language for this run. It must be called
// before the first API call.
func (e *Env) SetLang(l i18n.Lang) {
	e.lang = l
}

// T translates key in the active language
func (e *Env) T(key string) string {
	return e.Catalog.T(e.lang, key)
}

// Tf translates and formats key in the active language
func (e *Env) Tf(key string, args ...interface{}) string {
	return e.Catalog.Tf(e.lang, key, args...)
}

// Printf writes to the command output
func (e *Env) Printf(format string, args ...interface{}) {
	fmt.Fprintf(e.Out, format, args...)
}

// Println writes a line to the command output
func (e *Env) Println(args ...interface{}) {
	fmt.Fprintln(e.Out, args...)
}

// UserAPI is the API client bound to the user session
func (e *Env) UserAPI() *api.Client {
	if e.userAPI == nil {
		e.userAPI = e.newClient(e.UserStore, "click login")
	}
	return e.userAPI
}

// AgentAPI is the API client bound to the agent session
func (e *Env) AgentAPI() *api.Client {
	if e.agentAPI == nil {
		e.agentAPI = e.newClient(e.AgentStore, "click agent login")
	}
	return e.agentAPI
}

// Auth returns the auth manager for the user session
func (e *Env) Auth() *auth.Manager {
	if e.manager == nil {
		e.manager = auth.NewManager(e.UserAPI(), e.UserStore, auth.WithLogger(e.Logger))
	}
	return e.manager
}

// Dashboard returns the agent dashboard
func (e *Env) Dashboard() *agent.Dashboard {
	if e.dashboard == nil {
		e.dashboard = agent.New(e.AgentAPI(), e.AgentStore, e.Logger)
	}
	return e.dashboard
}

// Close releases the auth manager
func (e *Env) Close() {
	if e.manager != nil {
		e.manager.Close()
	}
}

// newClient binds a client to store. loginCmd is where the user is sent when
// the store's token is rejected.
func (e *Env) newClient(store session.Store, loginCmd string) *api.Client {
	return api.New(e.Config.API.URL, store,
		api.WithTimeout(e.Config.API.Timeout),
		api.WithLogger(e.Logger),
		api.WithLanguage(string(e.lang)),
		api.WithUnauthorizedHandler(func() {
			fmt.Fprintln(e.Err, e.Tf("session.expired", loginCmd))
		}),
	)
}

// resolveLanguage picks the configured language, then the saved preference,
// then the OS locale.
func (e *Env) resolveLanguage() i18n.Lang {
	if l, ok := i18n.Parse(e.Config.Language); ok {
		return l
	}
	if saved, err := e.Prefs.Language(); err == nil {
		if l, ok := i18n.Parse(saved); ok {
			return l
		}
	} else {
		e.Logger.Warn().Err(err).Msg("failed to read preferences")
	}
	return i18n.DetectEnv(os.Getenv)
}

// password returns value or prompts for it
func (e *Env) password(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	if e.ReadPassword == nil {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or CLICK_PASSWORD env var)")
	}
	return e.ReadPassword(prompt)
}

func readPasswordFromTerminal(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt+": ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(string(bytePassword), "\r\n"), nil
}
