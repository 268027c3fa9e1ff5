package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/pkg/config"
)

func testConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	return config.DatabaseConfig{URL: url, MaxConns: 4, MaxConnLifetime: time.Hour, MaxConnIdleTime: time.Minute}
}

func TestNew_Disabled(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{})
	assert.Error(t, err)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{URL: "invalid://url"})
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	cfg := testConfig(t)

	db, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, int32(4), status.MaxConns)

	// double close must not panic
	db.Close()
	db.Close()
}

func TestMigrate(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	db, err := New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Pool.Exec(ctx, `DROP TABLE IF EXISTS gem_migrate_test; DELETE FROM gem_schema_migrations WHERE version >= 9000`)
	if err != nil {
		// first run: migrations table does not exist yet
		_, err = db.Pool.Exec(ctx, `DROP TABLE IF EXISTS gem_migrate_test`)
		require.NoError(t, err)
	}

	migrations := []Migration{
		{Version: 9001, Name: "add column", SQL: `ALTER TABLE gem_migrate_test ADD COLUMN note TEXT`},
		{Version: 9000, Name: "create table", SQL: `CREATE TABLE gem_migrate_test (id INT PRIMARY KEY)`},
	}

	applied, err := db.Migrate(ctx, migrations)
	require.NoError(t, err)
	assert.Equal(t, 2, applied, "applied in version order")

	applied, err = db.Migrate(ctx, migrations)
	require.NoError(t, err)
	assert.Zero(t, applied)

	_, err = db.Migrate(ctx, []Migration{{Version: 9002, Name: "broken", SQL: `SELECT * FROM missing_table`}})
	assert.ErrorContains(t, err, "migration 9002 (broken)")

	_, err = db.Pool.Exec(ctx, `DROP TABLE gem_migrate_test; DELETE FROM gem_schema_migrations WHERE version >= 9000`)
	require.NoError(t, err)
}
