//go:build integration

package internal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgresContainer stands up a disposable Postgres instance the way
// forma's e2e harness does, scoped to this one test file rather than a
// shared package since nothing else in this module needs a live database.
func startPostgresContainer(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:password@%s:%s/postgres?sslmode=disable", host, mapped.Port())

	var pool *pgxpool.Pool
	deadline := time.Now().Add(20 * time.Second)
	for {
		pool, err = pgxpool.New(ctx, dsn)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("postgres did not become ready: %v", err)
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestLoadPostgresSnapshot_AgainstRealPostgres(t *testing.T) {
	pool := startPostgresContainer(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
CREATE TABLE `+schemaFieldsTable+` (
  table_root TEXT, ordinal INT, name TEXT, arrow_type TEXT, nullable BOOLEAN, is_partition BOOLEAN
);
CREATE TABLE `+fileActionsTable+` (
  table_root TEXT, path TEXT, size_bytes BIGINT, modification_time TIMESTAMPTZ,
  partition_values JSONB, num_rows BIGINT, column_stats JSONB, deletion_vector JSONB
);`)
	require.NoError(t, err)

	_, err = pool.Exec(ctx,
		`INSERT INTO `+schemaFieldsTable+` VALUES
		 ($1, 0, 'amount', 'int64', true, false),
		 ($1, 1, 'region', 'string', false, true)`, "s3://bucket/table")
	require.NoError(t, err)

	_, err = pool.Exec(ctx,
		`INSERT INTO `+fileActionsTable+`
		 (table_root, path, size_bytes, modification_time, partition_values, num_rows, column_stats, deletion_vector)
		 VALUES ($1, 'region=us/1.parquet', 100, now(), '{"region": "us"}', 10,
		         '{"amount": {"min": "0", "max": "5", "nullCount": 0}}', NULL)`,
		"s3://bucket/table")
	require.NoError(t, err)

	snap, err := LoadPostgresSnapshot(ctx, pool, "s3://bucket/table")
	require.NoError(t, err)
	assert.Equal(t, []string{"region"}, snap.PartitionColumns())
	require.Len(t, snap.FileActions(), 1)
	assert.Equal(t, "region=us/1.parquet", snap.FileActions()[0].Path)
}
