// Package factory is the entry point external callers use to build a
// Snapshot from a running Postgres catalog, mirroring the teacher
// codebase's factory-package convention of wrapping pool construction and
// discovery behind a small exported constructor.
package factory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/tablebridge"
	"github.com/lychee-technology/tablebridge/internal"
	"go.uber.org/zap"
)

// queryPool is a minimal interface used for querying table names.
// It matches *pgxpool.Pool and pgxmock pools used in tests.
type queryPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// tableCollector is a test hook for catalog-table discovery.
var tableCollector = collectTablesFromPool

// collectTablesFromPool queries information_schema for table/view names
// and returns the list, used to fail fast with a clear error when the
// catalog tables this package depends on have not been provisioned.
func collectTablesFromPool(pool queryPool) ([]string, error) {
	rows, err := pool.Query(context.Background(), `SELECT table_name FROM information_schema.tables t
WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
union SELECT table_name FROM information_schema.views v WHERE table_schema = 'public';`)
	if err != nil {
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tables, nil
}

func hasTable(tables []string, name string) bool {
	for _, t := range tables {
		if t == name {
			return true
		}
	}
	return false
}

// NewPostgresSnapshot discovers the catalog tables under pool, verifies
// the two this package depends on are present, and loads tableRoot's
// Snapshot from them.
//
// Usage:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	snap, err := factory.NewPostgresSnapshot(ctx, pool, "s3://bucket/table")
func NewPostgresSnapshot(ctx context.Context, pool *pgxpool.Pool, tableRoot string) (tablebridge.Snapshot, error) {
	tables, err := tableCollector(pool)
	if err != nil {
		return nil, err
	}
	if !hasTable(tables, "tablebridge_schema_fields") || !hasTable(tables, "tablebridge_file_actions") {
		return nil, fmt.Errorf("required catalog tables are missing in the database")
	}

	zap.S().Infow("building postgres snapshot", "tableRoot", tableRoot)
	return internal.LoadPostgresSnapshot(ctx, pool, tableRoot)
}
