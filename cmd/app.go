package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"timeboard/config"
	"timeboard/internal/logging"
	"timeboard/provider"
	"timeboard/storage"
	"timeboard/tempo"
	"timeboard/toggl"
)

// app is what most commands need after config is loaded.
type app struct {
	cfg      *config.Config
	location *time.Location
	logger   *slog.Logger
	store    *storage.SQLiteStore
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// loadApp validates config and opens the database. dbOverride wins over database.path.
func loadApp(dbOverride string) (*app, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, err
	}

	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Database.Path
	if strings.TrimSpace(dbOverride) != "" {
		dbPath = dbOverride
	}
	store, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		location: location,
		logger:   logging.New(os.Stderr, cfg.Log.Level),
		store:    store,
	}, nil
}

// buildRegistry registers toggl and tempo. A provider without a token is registered
// unconfigured so status can still report it.
func buildRegistry(cfg *config.Config, store provider.Store, logger *slog.Logger) (*provider.Registry, error) {
	options := provider.Options{
		Store:    store,
		Logger:   logger,
		CacheDir: cfg.Cache.Dir,
		CacheTTL: cfg.Cache.TTL,
	}

	var togglClient toggl.Client
	if cfg.Toggl.APIToken != "" {
		client, err := toggl.NewClient(toggl.ClientConfig{
			BaseURL:  cfg.Toggl.BaseURL,
			APIToken: cfg.Toggl.APIToken,
			Timeout:  cfg.Sync.RequestTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create toggl client: %w", err)
		}
		togglClient = client
	}

	var tempoClient tempo.Client
	if cfg.Tempo.APIToken != "" {
		client, err := tempo.NewClient(tempo.ClientConfig{
			BaseURL:      cfg.Tempo.BaseURL,
			APIToken:     cfg.Tempo.APIToken,
			JiraBaseURL:  cfg.Tempo.JiraBaseURL,
			JiraEmail:    cfg.Tempo.JiraEmail,
			JiraAPIToken: cfg.Tempo.JiraAPIToken,
			Timeout:      cfg.Sync.RequestTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create tempo client: %w", err)
		}
		tempoClient = client
	}

	return provider.NewRegistry(
		provider.NewToggl(togglClient, options),
		provider.NewTempo(tempoClient, options),
	)
}
