// Package app wires configuration, storage, the authenticated request
// pipeline, and the domain services into one object the CLI commands
// share.
package app

import (
	"fmt"
	"log/slog"

	"focusbuddy/internal/api"
	authsvc "focusbuddy/internal/auth"
	challengesvc "focusbuddy/internal/challenge/service"
	"focusbuddy/internal/config"
	"focusbuddy/internal/credential"
	"focusbuddy/internal/db"
	"focusbuddy/internal/db/migrate"
	"focusbuddy/internal/logging"
	"focusbuddy/internal/metrics"
	milestonesvc "focusbuddy/internal/milestone/service"
	sessionsvc "focusbuddy/internal/session/service"
	shopsvc "focusbuddy/internal/shop/service"
	"focusbuddy/internal/state"
	usersvc "focusbuddy/internal/user/service"
)

// Navigator receives the sign-in-required signal from the pipeline. The
// CLI prints a hint; a UI shell would route to its login screen.
type Navigator struct {
	log *slog.Logger
}

// SignInRequired is invoked at most once per credential loss.
func (n *Navigator) SignInRequired() {
	n.log.Warn("credentials expired, run 'focusbuddy login' to sign in again")
}

// App holds the wired services for one CLI invocation.
type App struct {
	Config  *config.Config
	Log     *slog.Logger
	Metrics *metrics.Metrics
	State   *state.Store

	Auth       *authsvc.Service
	Users      *usersvc.Service
	Sessions   *sessionsvc.Controller
	SessionLog *sessionsvc.Remote
	Shop       *shopsvc.Service
	Challenges *challengesvc.Service
	Milestones *milestonesvc.Service

	closers []func() error
}

// New loads config, opens and migrates the local state database, and
// wires every service over one authenticated client.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel)

	statePath, err := cfg.StatePath()
	if err != nil {
		return nil, fmt.Errorf("resolve state path: %w", err)
	}
	sqlDB, err := db.Open(statePath)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := migrate.Run(sqlDB, "up"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	transport, err := api.NewHTTPTransport(cfg.APIBaseURL, cfg.Timeout())
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	m := metrics.New()
	creds := credential.NewSQLiteStore(sqlDB)
	st := state.New()
	nav := &Navigator{log: log}
	client := api.NewClient(transport, creds, log, m, nav.SignInRequired)

	users := usersvc.NewService(client, st, log)
	remote := sessionsvc.NewRemote(client)
	app := &App{
		Config:     cfg,
		Log:        log,
		Metrics:    m,
		State:      st,
		Auth:       authsvc.NewService(client, creds, st, nav, log),
		Users:      users,
		Sessions:   sessionsvc.NewController(remote, st, users, cfg.Heartbeat(), log, m),
		SessionLog: remote,
		Shop:       shopsvc.NewService(client),
		Challenges: challengesvc.NewService(client),
		Milestones: milestonesvc.NewService(client),
	}
	app.closers = append(app.closers, sqlDB.Close)
	return app, nil
}

// Close releases the app's resources, stopping any heartbeat loop first.
func (a *App) Close() error {
	a.Sessions.Close()
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
