package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/photoblog"
)

// Migrate creates the catalog tables and their indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables photoblog.Tables) error {
	if err := createPhotoTable(ctx, pool, tables.Photos); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// DropTables removes the catalog tables.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables photoblog.Tables) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tables.Photos}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

func createPhotoTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexNewest := pgx.Identifier{fmt.Sprintf("idx_%s_newest", tableName)}.Sanitize()
	indexTags := pgx.Identifier{fmt.Sprintf("idx_%s_tags", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			object_key TEXT NOT NULL UNIQUE,
			tags TEXT[] NOT NULL DEFAULT '{}',
			location TEXT,
			camera TEXT,
			likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at DESC, id DESC);

		CREATE INDEX IF NOT EXISTS %s
		ON %s USING GIN (tags);
	`,
		quotedTable,
		indexNewest, quotedTable,
		indexTags, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create photo table: %w", err)
	}
	return nil
}
