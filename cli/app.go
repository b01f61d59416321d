// ABOUTME: Wires configuration, store, gateway and importer into one App for all commands
// ABOUTME: Picks SQLite or Badger from config and builds contact sources by name
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/harperreed/contactshq/config"
	"github.com/harperreed/contactshq/contacts"
	"github.com/harperreed/contactshq/contacts/google"
	"github.com/harperreed/contactshq/contacts/vcard"
	"github.com/harperreed/contactshq/db"
	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/kv"
	"github.com/harperreed/contactshq/models"
)

// StatusStore is the import-status surface both stores provide.
type StatusStore interface {
	contacts.StatusStore
	AllSyncStates(ctx context.Context) ([]models.SyncState, error)
}

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Gateway  *gateway.Gateway
	Importer *contacts.Importer
	Status   StatusStore
	In       io.Reader
	Out      io.Writer

	closer func() error
}

// NewApp assembles an App over an already opened store.
func NewApp(cfg *config.Config, logger *zap.Logger, repo gateway.Repository, status StatusStore, transient func(error) bool) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	gw := gateway.New(repo,
		gateway.WithLogger(logger),
		gateway.WithRetry(cfg.RetryAttempts, cfg.RetryBackoff(), transient),
	)
	return &App{
		Config:   cfg,
		Logger:   logger,
		Gateway:  gw,
		Importer: contacts.NewImporter(gw, contacts.WithStatusStore(status), contacts.WithLogger(logger)),
		Status:   status,
		In:       os.Stdin,
		Out:      os.Stdout,
	}
}

// Open opens the configured store and returns a ready App. Close releases the store.
func Open(cfg *config.Config, logger *zap.Logger) (*App, error) {
	switch cfg.Store {
	case config.StoreBadger:
		store, err := kv.Open(cfg.BadgerDir, logger)
		if err != nil {
			return nil, err
		}
		app := NewApp(cfg, logger, store, store, kv.IsTransient)
		app.closer = store.Close
		return app, nil

	case config.StoreSQLite:
		database, err := db.OpenDatabase(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		app := NewApp(cfg, logger, db.NewPeopleRepository(database), db.NewSyncStateRepository(database), db.IsTransient)
		app.closer = database.Close
		return app, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownStore, cfg.Store)
}

// Close flushes pending writes and closes the store.
func (a *App) Close() error {
	if err := a.Gateway.Save(context.Background()); err != nil {
		a.Logger.Warn("final flush failed", zap.Error(err))
	}
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// Source builds the named contact source. file overrides the configured vCard path.
func (a *App) Source(name, file string) (contacts.Source, error) {
	switch name {
	case "", "vcard":
		path := file
		if path == "" {
			path = a.Config.VCardPath
		}
		if path == "" {
			return nil, fmt.Errorf("--file is required for vcard import (or set CONTACTSHQ_VCARD)")
		}
		return vcard.NewSource(path), nil

	case "google":
		creds := google.Credentials{
			ClientID:     a.Config.GoogleClientID,
			ClientSecret: a.Config.GoogleClientSecret,
		}
		return google.NewSource(
			google.NewOAuthConfig(creds),
			google.NewTokenStore(a.Config.GoogleTokenPath),
			google.BrowserAuthorizer(a.Out),
		), nil
	}
	return nil, fmt.Errorf("unknown source %q (want vcard or google)", name)
}
