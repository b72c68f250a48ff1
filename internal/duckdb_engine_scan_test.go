package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	tb "github.com/lychee-technology/tablebridge"
	"github.com/stretchr/testify/require"
)

// writeParquetFixture materializes a one-row parquet file at path via
// DuckDB's own COPY ... TO ... (FORMAT PARQUET), letting the engine under
// test read back exactly what it wrote without a separate parquet writer
// dependency.
func writeParquetFixture(t *testing.T, engine *DuckDBEngine, path, selectSQL string) {
	t.Helper()
	_, err := engine.client.DB.Exec(fmt.Sprintf("COPY (%s) TO '%s' (FORMAT PARQUET);", selectSQL, path))
	require.NoError(t, err)
}

// TestDuckDBEngine_Scan_FillsNullForColumnMissingFromOneFile exercises
// scenario S7: file A's physical schema is {c1}, file B's is {c1, c2},
// and the logical schema is {c1, c2}. Scanning both must fill c2 = NULL
// for file A's row rather than failing with a binder error.
func TestDuckDBEngine_Scan_FillsNullForColumnMissingFromOneFile(t *testing.T) {
	ctx := context.Background()
	engine := newInMemoryDuckDBEngine(t)
	dir := t.TempDir()

	writeParquetFixture(t, engine, filepath.Join(dir, "a.parquet"), "SELECT 'a' AS c1")
	writeParquetFixture(t, engine, filepath.Join(dir, "b.parquet"), "SELECT 'b' AS c1, 'x' AS c2")

	logicalSchema := arrow.NewSchema([]arrow.Field{
		{Name: "c1", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "c2", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	plan := &tb.ScanPlan{
		TableURI:       dir,
		Config:         tb.ScanConfig{},
		LogicalSchema:  logicalSchema,
		PhysicalSchema: logicalSchema,
		FileGroups: []tb.FileGroup{
			{Files: []tb.FileAction{{Path: "a.parquet"}, {Path: "b.parquet"}}},
		},
	}

	stream, err := engine.Scan(ctx, plan)
	require.NoError(t, err)

	rec, err := stream.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.EqualValues(t, 2, rec.NumRows())

	c1 := rec.Column(0).(*array.String)
	c2 := rec.Column(1).(*array.String)

	for row := 0; row < int(rec.NumRows()); row++ {
		switch c1.Value(row) {
		case "a":
			require.True(t, c2.IsNull(row), "file A has no c2 column; it must read back as NULL")
		case "b":
			require.False(t, c2.IsNull(row))
			require.Equal(t, "x", c2.Value(row))
		default:
			t.Fatalf("unexpected c1 value %q", c1.Value(row))
		}
	}
}
