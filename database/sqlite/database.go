package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/photoblog"

	_ "modernc.org/sqlite" // SQLite driver
)

const busyTimeoutMillis = 5000

var connectionPragmas = []string{
	fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis),
	"PRAGMA journal_mode = WAL",
}

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables photoblog.Tables
}

// Connect establishes a connection to SQLite.
// Tables should be validated before calling Connect.
//
// The pool is limited to a single connection: writers serialize instead of
// failing with SQLITE_BUSY, and ":memory:" databases stay a single database.
// Other processes sharing the file (the CLI next to a running server) are
// waited for up to busyTimeoutMillis.
func Connect(ctx context.Context, dsn string, tables photoblog.Tables) (*database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(0)

	for _, pragma := range connectionPragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect sqlite: %s: %w", pragma, err)
		}
	}

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.db, d.tables)
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the PhotoRepo for catalog operations.
func (d *database) GetRepo() photoblog.PhotoRepo {
	return &repo{db: d.db, tableName: d.tables.Photos}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}

// NewRepo returns a PhotoRepo over an existing handle. The table must already be migrated.
func NewRepo(db *sql.DB, tables photoblog.Tables) (photoblog.PhotoRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &repo{db: db, tableName: tables.Photos}, nil
}
