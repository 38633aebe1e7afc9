package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/database/internal"
)

// photoColumnsSchema is the photo table as PRAGMA table_info reports it.
var photoColumnsSchema = internal.Columns{
	"id":          {Type: "text"},
	"title":       {Type: "text"},
	"description": {Type: "text"},
	"object_key":  {Type: "text"},
	"tags":        {Type: "text"},
	"location":    {Type: "text", Nullable: true},
	"camera":      {Type: "text", Nullable: true},
	"likes":       {Type: "integer"},
	"created_at":  {Type: "text"},
	"updated_at":  {Type: "text"},
}

// ValidateSchema checks every catalog table against its expected columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables photoblog.Tables) error {
	name := tables.Photos
	if !photoblog.IsValidTableName(name) {
		return fmt.Errorf("validate schema: invalid table name: %s", name)
	}

	columns, err := readColumns(ctx, db, name)
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

// readColumns lists the columns of table. A missing table has no columns.
func readColumns(ctx context.Context, db *sql.DB, table string) (internal.Columns, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := internal.Columns{}
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = internal.Column{Type: dataType, Nullable: notNull == 0}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return columns, nil
}
