package internal

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "github.com/lychee-technology/tablebridge"
)

func TestFindFiles_NilPredicateReturnsEverything(t *testing.T) {
	snap := loadFixture(t)
	files, partitionScan, err := FindFiles(context.Background(), "s3://bucket/table", snap, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, partitionScan)
	assert.Len(t, files, 3)
}

func TestFindFiles_PartitionOnlyPredicateSkipsScan(t *testing.T) {
	snap := loadFixture(t)
	predicate := tb.BinaryExpr{Left: tb.Column{Name: "region"}, Op: tb.OpEq, Right: strLit("eu")}
	files, partitionScan, err := FindFiles(context.Background(), "s3://bucket/table", snap, predicate, nil, nil)
	require.NoError(t, err)
	assert.True(t, partitionScan)
	require.Len(t, files, 1)
	assert.Equal(t, "region=eu/1.parquet", files[0].Path)
}

func TestFindFiles_DataColumnPredicateFallsBackToScan(t *testing.T) {
	snap := loadFixture(t)
	predicate := tb.BinaryExpr{Left: tb.Column{Name: "amount"}, Op: tb.OpGt, Right: intLit(50)}

	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: findFilesPathColumn, Type: arrow.BinaryTypes.String},
		{Name: "amount", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues([]string{
		"region=us/1.parquet", "region=us/2.parquet", "region=us/2.parquet", "region=eu/1.parquet",
	}, nil)
	b.Field(1).(*array.Int64Builder).AppendValues([]int64{3, 100, 150, 4}, nil)
	batch := b.NewRecord()
	defer batch.Release()

	engine := newFakeScanEngine()
	reader := &fakeColumnarReader{batches: []arrow.Record{batch}}

	files, partitionScan, err := FindFiles(context.Background(), "s3://bucket/table", snap, predicate, engine, reader)
	require.NoError(t, err)
	assert.False(t, partitionScan)
	require.Len(t, files, 1, "only region=us/2.parquet produced a row with amount > 50")
	assert.Equal(t, "region=us/2.parquet", files[0].Path)
}

func TestFindFiles_ScanRequiresEngineAndReader(t *testing.T) {
	snap := loadFixture(t)
	predicate := tb.BinaryExpr{Left: tb.Column{Name: "amount"}, Op: tb.OpGt, Right: intLit(50)}
	_, _, err := FindFiles(context.Background(), "s3://bucket/table", snap, predicate, nil, nil)
	require.Error(t, err)
	assert.True(t, tb.IsKind(err, tb.ErrUnsupported))
}

// fakeColumnarReader hands back a fixed sequence of record batches, then
// signals end-of-stream the way RecordBatchStream.Next documents: (nil, nil).
type fakeColumnarReader struct {
	batches []arrow.Record
}

func (r *fakeColumnarReader) Scan(ctx context.Context, plan *tb.ScanPlan) (tb.RecordBatchStream, error) {
	return &fakeRecordStream{batches: r.batches}, nil
}

type fakeRecordStream struct {
	batches []arrow.Record
	pos     int
}

func (s *fakeRecordStream) Next(ctx context.Context) (arrow.Record, error) {
	if s.pos >= len(s.batches) {
		return nil, nil
	}
	rec := s.batches[s.pos]
	s.pos++
	rec.Retain()
	return rec, nil
}

func (s *fakeRecordStream) Close() error { return nil }

// fakeScanEngine is a minimal stand-in for SQLEngine that evaluates the one
// shape of query find-files issues against it: a "> N" filter over the
// 'amount' column, returning the distinct find-files path column for rows
// that satisfy it. It does not parse SQL; it just knows what collectMatchingPaths
// asks for in this package.
type fakeScanEngine struct {
	registered map[string]arrow.Record
}

func newFakeScanEngine() *fakeScanEngine {
	return &fakeScanEngine{registered: make(map[string]arrow.Record)}
}

func (e *fakeScanEngine) RegisterBatch(ctx context.Context, name string, batch arrow.Record) error {
	batch.Retain()
	e.registered[name] = batch
	return nil
}

func (e *fakeScanEngine) Deregister(ctx context.Context, name string) error {
	if rec, ok := e.registered[name]; ok {
		rec.Release()
		delete(e.registered, name)
	}
	return nil
}

func (e *fakeScanEngine) Simplify(ctx context.Context, expr tb.Expr, schema *arrow.Schema, maxCycles int) (tb.Expr, error) {
	return expr, nil
}

func (e *fakeScanEngine) Query(ctx context.Context, sql string) ([]arrow.Record, error) {
	var rec arrow.Record
	for _, r := range e.registered {
		rec = r
		break
	}
	if rec == nil {
		return nil, nil
	}

	pathIdx, _ := fieldIndexByName(rec.Schema(), findFilesPathColumn)
	amountIdx, _ := fieldIndexByName(rec.Schema(), "amount")
	pathArr := rec.Column(pathIdx).(*array.String)
	amountArr := rec.Column(amountIdx).(*array.Int64)

	mem := memory.NewGoAllocator()
	outSchema := arrow.NewSchema([]arrow.Field{{Name: findFilesPathColumn, Type: arrow.BinaryTypes.String}}, nil)
	b := array.NewRecordBuilder(mem, outSchema)
	defer b.Release()
	seen := make(map[string]bool)
	for row := 0; row < int(rec.NumRows()); row++ {
		if amountArr.Value(row) <= 50 {
			continue
		}
		path := pathArr.Value(row)
		if seen[path] {
			continue
		}
		seen[path] = true
		b.Field(0).(*array.StringBuilder).Append(path)
	}
	return []arrow.Record{b.NewRecord()}, nil
}
