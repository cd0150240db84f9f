package migrations_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/stepout/internal/database"
	"github.com/playperu/stepout/internal/migrations"
)

func migrated(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(context.Background(), db, slog.Default()))
	return db
}

func TestMigrations(t *testing.T) {
	db := migrated(t)

	for _, table := range []string{"journal", "goose_db_version"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %q", table)
	}
}

func TestJournalColumns(t *testing.T) {
	db := migrated(t)

	_, err := db.Exec(`INSERT INTO journal (session_id, kind, level, status, occurred_at, lat, lng)
		VALUES ('s', 'panic', 1, 'panic', '2026-01-01T00:00:00Z', 37.5, 126.9)`)
	require.NoError(t, err)
}

func TestMigrationsIdempotent(t *testing.T) {
	db := migrated(t)

	require.NoError(t, migrations.Run(context.Background(), db, slog.Default()), "second run should be a no-op")
}
