package sqlite_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/database/sqlite"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// getTestDatabase opens a private in-memory database limited to one connection.
func getTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "failed to open sqlite database")
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// setupTestRepo creates a migrated repo with a unique table name.
func setupTestRepo(t *testing.T) photoblog.PhotoRepo {
	t.Helper()
	ctx := context.Background()

	tables := photoblog.Tables{Photos: "photos_" + getRandomString(t)}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.GetRepo()
}
