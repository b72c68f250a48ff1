package tablebridge

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// ColumnarReader is the consumed contract for the columnar file reader
// (§6): given a fully-built scan descriptor it streams record batches that
// honor PushdownFilters — when false the predicate is advisory (row-group
// filter) only, never used to drop whole rows.
type ColumnarReader interface {
	Scan(ctx context.Context, plan *ScanPlan) (RecordBatchStream, error)
}

// RecordBatchStream is a pull-based iterator over arrow.Record batches.
// Next returns (nil, nil) once exhausted.
type RecordBatchStream interface {
	Next(ctx context.Context) (arrow.Record, error)
	Close() error
}

// SQLEngine is the consumed contract (§6) used by the Data Checker and by
// Find-Files' non-partition-only path: an expression parser/simplifier,
// in-memory table registration, and SQL execution returning batches.
type SQLEngine interface {
	// RegisterBatch makes a record batch queryable under name until
	// Deregister is called. name must be unique for the lifetime of the
	// registration.
	RegisterBatch(ctx context.Context, name string, batch arrow.Record) error

	// Deregister drops a previously registered relation. Safe to call
	// even if RegisterBatch failed partway, mirroring the Data Checker's
	// scoped-acquisition cleanup contract (§5).
	Deregister(ctx context.Context, name string) error

	// Query executes a SQL statement and returns every resulting batch.
	Query(ctx context.Context, sql string) ([]arrow.Record, error)

	// Simplify rewrites an expression against schema, bounded to at most
	// maxCycles rewrite passes (§4.5 step 4).
	Simplify(ctx context.Context, expr Expr, schema *arrow.Schema, maxCycles int) (Expr, error)
}
