// Package app wires the session store, the task cache and their backend into
// one owned object with an explicit lifecycle.
package app

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"tasktrack/internal/backend/httpapi"
	"tasktrack/internal/config"
	"tasktrack/internal/credential"
	"tasktrack/internal/logging"
	"tasktrack/internal/service"
	"tasktrack/internal/session"
	"tasktrack/internal/tasks"
)

// App holds the client state for one process.
type App struct {
	Session     *session.Store
	Tasks       *tasks.Cache
	Credentials credential.Store

	closer io.Closer
}

// New builds an App talking to the API configured in cfg, with the
// credential persisted in the configured store.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	creds, closer, err := OpenCredentials(cfg)
	if err != nil {
		return nil, err
	}
	client := httpapi.New(cfg, log)
	a := build(client, func(ts oauth2.TokenSource) service.TaskService {
		return client.WithTokenSource(ts)
	}, creds, cfg, log)
	a.closer = closer
	return a, nil
}

// NewWithService builds an App over svc (for testing).
func NewWithService(svc service.Service, creds credential.Store, cfg *config.Config, log *zap.Logger) *App {
	return build(svc, func(oauth2.TokenSource) service.TaskService { return svc }, creds, cfg, log)
}

// build resolves the cycle between the stores: the cache authorizes its
// requests with the session's credential, and the session drives the cache.
func build(auth service.AuthService, taskAPI func(oauth2.TokenSource) service.TaskService, creds credential.Store, cfg *config.Config, log *zap.Logger) *App {
	log = logging.OrNop(log)
	sess := session.New(auth, creds, session.Options{Log: log.Named("session")})
	cache := tasks.New(taskAPI(sess), sess, tasks.Options{
		Limits: tasks.Limits{Title: cfg.TitleMaxLen, Description: cfg.DescriptionMaxLen},
		Log:    log.Named("tasks"),
	})
	sess.Attach(cache)
	return &App{Session: sess, Tasks: cache, Credentials: creds}
}

// OpenCredentials opens the credential store selected by cfg. The returned
// closer is nil when the store holds no resources.
func OpenCredentials(cfg *config.Config) (credential.Store, io.Closer, error) {
	switch cfg.CredentialStore {
	case config.StoreSQLite:
		if err := cfg.EnsureDir(); err != nil {
			return nil, nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		db, err := credential.OpenSQLite(cfg.DatabasePath())
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case config.StoreFile, "":
		return credential.NewFile(cfg.TokenPath()), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown credential store: %s", cfg.CredentialStore)
	}
}

// Close releases the credential store.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
