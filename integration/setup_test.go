package integration_test

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"recogym/internal/db"
)

// setupTestDB connects to TEST_DATABASE_URL, migrates it and empties every
// table. Tests are skipped with -short or when the variable is unset.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	conn, err := db.Connect(dsn, db.Options{MaxOpenConns: 10})
	if err != nil {
		t.Skipf("cannot connect to test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.RunMigrations(conn, "../migrations"))
	cleanDatabase(t, conn)
	return conn
}

func cleanDatabase(t *testing.T, conn *sqlx.DB) {
	_, err := conn.Exec(`
		TRUNCATE ledger_entries, enrollments, sale_items, sales, products,
		         classes, subscriptions, members, trainers, users
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err, "failed to clean tables")
}

func insertMember(t *testing.T, conn *sqlx.DB, code, memberType string) int {
	var id int
	err := conn.QueryRow(`
		INSERT INTO members (code, first_name, last_name, type)
		VALUES ($1, 'Test', $1, $2)
		RETURNING id
	`, code, memberType).Scan(&id)
	require.NoError(t, err)
	return id
}

func insertClass(t *testing.T, conn *sqlx.DB, code string, maxParticipants int, price string) int {
	var id int
	err := conn.QueryRow(`
		INSERT INTO classes (code, name, starts_at, max_participants, price)
		VALUES ($1, $1, NOW() + INTERVAL '1 day', $2, $3)
		RETURNING id
	`, code, maxParticipants, price).Scan(&id)
	require.NoError(t, err)
	return id
}

func countRows(t *testing.T, conn *sqlx.DB, query string, args ...interface{}) int {
	var n int
	require.NoError(t, conn.Get(&n, query, args...))
	return n
}
