package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/database/postgres"
	"github.com/sagarc03/photoblog/database/sqlite"
)

// Database is a connected catalog backend.
type Database interface {
	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error
	// Migrate creates the catalog tables and indexes if they do not exist.
	Migrate(ctx context.Context) error
	// Validate checks that the existing tables have the expected columns.
	Validate(ctx context.Context) error
	// GetRepo returns the PhotoRepo backed by this database.
	GetRepo() photoblog.PhotoRepo
	// Close releases the connection.
	Close() error
}

// Config holds the configuration for connecting to a catalog backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
	// Tables holds the catalog table names
	Tables photoblog.Tables `mapstructure:"tables"`
}

// Connect opens a connection to the configured backend. It does not migrate;
// call Migrate and Validate on the returned Database as needed.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	var db Database
	var err error

	switch cfg.Type {
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	if err != nil {
		return nil, err
	}

	return db, nil
}

// Open connects, migrates and validates the schema in one step.
func Open(ctx context.Context, cfg Config) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	return db, nil
}
