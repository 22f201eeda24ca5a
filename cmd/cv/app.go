package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alfredjeanlab/confvault/internal/config"
	"github.com/alfredjeanlab/confvault/internal/events"
	"github.com/alfredjeanlab/confvault/internal/manager"
	"github.com/alfredjeanlab/confvault/internal/seed"
	"github.com/alfredjeanlab/confvault/internal/store"
	"github.com/alfredjeanlab/confvault/internal/store/filestore"
	"github.com/alfredjeanlab/confvault/internal/store/postgres"
	cvsync "github.com/alfredjeanlab/confvault/internal/sync"
)

// App bundles the components a command works with.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     store.Store
	Publisher events.Publisher
	Manager   *manager.Manager
	Actor     string
}

// openApp loads the configuration and opens the configured store and event
// publisher.
func openApp(actorFlag string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			st.Close()
			return nil, err
		}
		publisher = pub
		logger.Debug("events enabled", "nats_url", cfg.NATSURL)
	} else {
		publisher = &events.NoopPublisher{}
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Publisher: publisher,
		Manager:   manager.New(st, manager.WithPublisher(publisher), manager.WithLogger(logger)),
		Actor:     cfg.Actor,
	}
	if actorFlag != "" {
		a.Actor = actorFlag
	}
	return a, nil
}

// Bootstrap seeds the defaults into an empty store when the configuration
// allows it.
func (a *App) Bootstrap(ctx context.Context) error {
	if !a.Config.Bootstrap {
		return nil
	}
	_, err := seed.Bootstrap(a.Context(ctx), a.Manager)
	return err
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return logger
}

func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		s, err := postgres.New(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendFile:
		s, err := filestore.New(cfg.DataDir, filestore.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Context attaches the acting user to ctx.
func (a *App) Context(ctx context.Context) context.Context {
	return manager.WithActor(ctx, a.Actor)
}

// Destinations builds every configured sync destination.
func (a *App) Destinations(ctx context.Context) ([]cvsync.Destination, error) {
	cfg := a.Config
	var dests []cvsync.Destination
	if cfg.SyncS3Bucket != "" {
		d, err := cvsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			return nil, err
		}
		dests = append(dests, d)
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, cvsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
	}
	if cfg.SyncFile != "" {
		dests = append(dests, cvsync.NewFileDestination(cfg.SyncFile))
	}
	return dests, nil
}

// Close releases the publisher and the store.
func (a *App) Close() {
	if err := a.Publisher.Close(); err != nil {
		a.Logger.Error("error closing publisher", "err", err)
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("error closing store", "err", err)
	}
}
