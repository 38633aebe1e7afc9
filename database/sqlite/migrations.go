package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/photoblog"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns all table migrations for the catalog
func getTableMigrations(tables photoblog.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.Photos,
			Up:        createPhotoTable(tables.Photos),
			Down:      dropTable(tables.Photos),
		},
	}
}

func Migrate(ctx context.Context, db *sql.DB, tables photoblog.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables photoblog.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createPhotoTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexNewest := quoteIdentifier(fmt.Sprintf("idx_%s_newest", tableName))

		// Tags are a JSON array of strings, queried with json_each
		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL,
				object_key TEXT NOT NULL UNIQUE,
				tags TEXT NOT NULL DEFAULT '[]',
				location TEXT,
				camera TEXT,
				likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (created_at DESC, id DESC)
		`, indexNewest, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index newest: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
