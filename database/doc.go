// Package database provides a unified interface for connecting to catalog backends.
//
// # Supported Backends
//
//   - PostgreSQL: Production backend using a pgx connection pool, TEXT[] tags with a GIN index
//   - SQLite: Lightweight backend for development and single-node deployments, JSON tags
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "photoblog.db",
//	    Tables: photoblog.Tables{Photos: "photos"},
//	}
//
//	db, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	repo := db.GetRepo()
//
// Open connects, runs migrations and validates the schema. Connect only
// connects, leaving Migrate and Validate to the caller.
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
//   - database/catalogtest: Behaviour suite every PhotoRepo implementation must pass
package database
