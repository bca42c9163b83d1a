//go:build integration

package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("insight_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.PingContext(ctx))
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var exists bool
	err := db.QueryRow(`SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1)`, name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestMigrator_UpDown(t *testing.T) {
	db := startPostgres(t)
	dir, err := filepath.Abs(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)

	files, err := ListMigrations(dir)
	require.NoError(t, err)
	latest := files[len(files)-1].Version

	m, err := New(db, dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	status, err := m.Status()
	require.NoError(t, err)
	assert.False(t, status.Applied())

	require.NoError(t, m.Up())
	require.NoError(t, m.Up(), "second up is a no-op")

	status, err = m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(latest), status.Version)
	assert.False(t, status.Dirty)

	for _, table := range []string{"integrations", "integration_logs", "project_integrations"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	// Logs cascade with their integration
	_, err = db.Exec(`INSERT INTO integrations (id, user_id, type, name)
		VALUES ('8f0b3c1e-0000-4000-8000-000000000001', '8f0b3c1e-0000-4000-8000-0000000000aa', 'CUSTOM', 'c')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO integration_logs (id, integration_id, type, message)
		VALUES ('8f0b3c1e-0000-4000-8000-000000000002', '8f0b3c1e-0000-4000-8000-000000000001', 'sync_complete', 'ok')`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM integrations WHERE id = '8f0b3c1e-0000-4000-8000-000000000001'`)
	require.NoError(t, err)
	var logs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM integration_logs`).Scan(&logs))
	assert.Zero(t, logs)

	_, err = db.Exec(`INSERT INTO integrations (id, user_id, type, name)
		VALUES ('8f0b3c1e-0000-4000-8000-000000000003', '8f0b3c1e-0000-4000-8000-0000000000aa', 'SLACK', 'bad')`)
	assert.Error(t, err, "unknown provider types are rejected")

	require.NoError(t, m.Steps(-1))
	assert.False(t, tableExists(t, db, "project_integrations"))

	require.NoError(t, m.Down())
	assert.False(t, tableExists(t, db, "integrations"))

	require.NoError(t, m.Close())
}
