package postgres_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/database/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testPool      *pgxpool.Pool
	testPoolOnce  sync.Once
	testPoolErr   error
	testContainer *pgcontainer.PostgresContainer
)

func TestMain(m *testing.M) {
	code := m.Run()

	if testPool != nil {
		testPool.Close()
	}
	if testContainer != nil {
		_ = testcontainers.TerminateContainer(testContainer)
	}

	os.Exit(code)
}

// getSharedTestDatabase returns a pool on a container shared by every test in the package.
func getSharedTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testPoolOnce.Do(func() {
		ctx := context.Background()

		testContainer, testPoolErr = pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if testPoolErr != nil {
			return
		}

		connectionStr, err := testContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			testPoolErr = err
			return
		}

		testPool, testPoolErr = pgxpool.New(ctx, connectionStr)
	})

	if testPoolErr != nil {
		t.Fatalf("failed to start postgres: %v", testPoolErr)
	}

	return testPool
}

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// getDSN extracts the DSN from the pool config.
func getDSN(pool *pgxpool.Pool) string {
	return pool.Config().ConnString()
}

// dropTable drops the specified table for test cleanup.
func dropTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tableName}.Sanitize())
	_, err := pool.Exec(ctx, sql)
	return err
}

// randomTables returns a unique table set and drops it when the test ends.
func randomTables(t *testing.T, pool *pgxpool.Pool) photoblog.Tables {
	t.Helper()

	tables := photoblog.Tables{Photos: "photos_" + getRandomString(t)}
	t.Cleanup(func() { _ = dropTable(context.Background(), pool, tables.Photos) })

	return tables
}

// setupTestRepo creates a migrated repo with a unique table name.
func setupTestRepo(t *testing.T) photoblog.PhotoRepo {
	t.Helper()

	pool := getSharedTestDatabase(t)
	ctx := context.Background()
	tables := randomTables(t, pool)

	require.NoError(t, postgres.Migrate(ctx, pool, tables), "failed to migrate")

	repo, err := postgres.NewRepo(pool, tables)
	require.NoError(t, err)

	return repo
}
