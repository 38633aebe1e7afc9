package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/database/internal"
)

// photoColumnsSchema is the photo table as information_schema reports it.
var photoColumnsSchema = internal.Columns{
	"id":          {Type: "uuid"},
	"title":       {Type: "text"},
	"description": {Type: "text"},
	"object_key":  {Type: "text"},
	"tags":        {Type: "array"},
	"location":    {Type: "text", Nullable: true},
	"camera":      {Type: "text", Nullable: true},
	"likes":       {Type: "integer"},
	"created_at":  {Type: "timestamp with time zone"},
	"updated_at":  {Type: "timestamp with time zone"},
}

// ValidateSchema checks every catalog table in the current schema against its expected columns.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables photoblog.Tables) error {
	name := tables.Photos
	if !photoblog.IsValidTableName(name) {
		return fmt.Errorf("validate schema: invalid table name: %s", name)
	}

	columns, err := readColumns(ctx, pool, name)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", name, err)
	}
	if len(columns) == 0 {
		return fmt.Errorf("validate schema %s: table does not exist", name)
	}

	if err := internal.CheckColumns(name, photoColumnsSchema, columns); err != nil {
		return fmt.Errorf("validate schema %s: %w", name, err)
	}
	return nil
}

// readColumns lists the columns of table in the current schema. A missing table has no columns.
func readColumns(ctx context.Context, pool *pgxpool.Pool, table string) (internal.Columns, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := internal.Columns{}
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = internal.Column{Type: dataType, Nullable: nullable == "YES"}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return columns, nil
}
