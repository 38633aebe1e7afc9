package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/config"
	"github.com/sagarc03/photoblog/database"
	"github.com/sagarc03/photoblog/objectstore"
)

// app holds the components wired from a loaded configuration.
type app struct {
	db          database.Database
	backend     *objectstore.Backend
	keys        photoblog.KeyScheme
	grants      *photoblog.GrantIssuer
	coordinator *photoblog.Coordinator
	facade      *photoblog.QueryFacade
}

type openOptions struct {
	// migrate creates missing tables before the schema is validated.
	migrate bool
}

func openApp(ctx context.Context, cfg *config.Config, opts openOptions) (*app, error) {
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	a := &app{db: db}
	if err := a.init(ctx, cfg, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context, cfg *config.Config, opts openOptions) error {
	if err := a.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if opts.migrate {
		if err := a.db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		slog.Info("database migration complete")
	}

	if err := a.db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}
	slog.Info("connected to database", "type", cfg.Database.Type)

	backend, err := objectstore.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open object store: %w", err)
	}
	a.backend = backend
	slog.Info("opened object store", "type", cfg.Storage.Type)

	keys, err := photoblog.NewKeyScheme(cfg.Grants.KeyPrefix)
	if err != nil {
		return fmt.Errorf("create key scheme: %w", err)
	}
	a.keys = keys

	grants, err := photoblog.NewGrantIssuer(backend, photoblog.GrantConfig{
		UploadTTL:   cfg.Grants.UploadTTL,
		DownloadTTL: cfg.Grants.DownloadTTL,
	})
	if err != nil {
		return fmt.Errorf("create grant issuer: %w", err)
	}
	a.grants = grants

	repo := a.db.GetRepo()

	coordinatorCfg := photoblog.CoordinatorConfig{
		Keys:           keys,
		CleanupTimeout: time.Duration(cfg.Service.CleanupTimeout) * time.Second,
	}
	if cfg.Service.VerifyUploads {
		coordinatorCfg.Verifier = backend
	}
	coordinator, err := photoblog.NewCoordinator(repo, backend, grants, coordinatorCfg)
	if err != nil {
		return fmt.Errorf("create coordinator: %w", err)
	}
	a.coordinator = coordinator

	facade, err := photoblog.NewQueryFacade(repo, grants, photoblog.QueryConfig{
		DefaultPageSize: cfg.Server.DefaultPageSize,
		MaxPageSize:     cfg.Server.MaxPageSize,
	})
	if err != nil {
		return fmt.Errorf("create query facade: %w", err)
	}
	a.facade = facade

	return nil
}

// Close releases the object store and the database connection.
func (a *app) Close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			slog.Warn("failed to close object store", "err", err)
		}
	}
	if err := a.db.Close(); err != nil {
		slog.Warn("failed to close database", "err", err)
	}
}
