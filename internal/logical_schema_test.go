package internal

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "github.com/lychee-technology/tablebridge"
)

type fakeSnapshot struct {
	schema           *arrow.Schema
	partitionColumns []string
	files            []tb.FileAction
}

func (s *fakeSnapshot) Schema() *arrow.Schema          { return s.schema }
func (s *fakeSnapshot) PartitionColumns() []string     { return s.partitionColumns }
func (s *fakeSnapshot) FileActions() []tb.FileAction   { return s.files }
func (s *fakeSnapshot) NumContainers() int             { return len(s.files) }
func (s *fakeSnapshot) Statistics() tb.AggregateStatistics {
	return aggregateStatistics([]tb.FileGroup{{Files: s.files}}, s.schema)
}
func (s *fakeSnapshot) AddActionsTable(flattenPartitions bool) (arrow.Record, error) {
	return nil, tb.NewUnsupportedError("fakeSnapshot does not implement AddActionsTable")
}

func newFakeSnapshot() *fakeSnapshot {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "amount", Type: arrow.PrimitiveTypes.Float64},
		{Name: "region", Type: arrow.BinaryTypes.String},
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	return &fakeSnapshot{schema: schema, partitionColumns: []string{"region"}}
}

func TestAssembleLogicalSchema_DataFieldsThenPartitionFields(t *testing.T) {
	snap := newFakeSnapshot()
	schema, err := AssembleLogicalSchema(snap, tb.DefaultScanConfig())
	require.NoError(t, err)

	var names []string
	for i := 0; i < schema.NumFields(); i++ {
		names = append(names, schema.Field(i).Name)
	}
	assert.Equal(t, []string{"amount", "id", "region"}, names)
}

func TestAssembleLogicalSchema_AppendsSyntheticPathColumn(t *testing.T) {
	snap := newFakeSnapshot()
	cfg := tb.DefaultScanConfig()
	cfg.IncludeFilePathColumn = true
	schema, err := AssembleLogicalSchema(snap, cfg)
	require.NoError(t, err)

	last := schema.Field(schema.NumFields() - 1)
	assert.Equal(t, "__delta_rs_path", last.Name)
}

func TestAssembleLogicalSchema_ExplicitPathNameCollisionFails(t *testing.T) {
	snap := newFakeSnapshot()
	cfg := tb.DefaultScanConfig()
	cfg.IncludeFilePathColumn = true
	cfg.FilePathColumnName = "amount"
	_, err := AssembleLogicalSchema(snap, cfg)
	require.Error(t, err)
	assert.True(t, tb.IsKind(err, tb.ErrConflict))
}

func TestAssembleLogicalSchema_DefaultPathNameDisambiguatedOnCollision(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "__delta_rs_path", Type: arrow.BinaryTypes.String},
	}, nil)
	snap := &fakeSnapshot{schema: schema}
	cfg := tb.DefaultScanConfig()
	cfg.IncludeFilePathColumn = true

	result, err := AssembleLogicalSchema(snap, cfg)
	require.NoError(t, err)
	last := result.Field(result.NumFields() - 1)
	assert.Equal(t, "__delta_rs_path_1", last.Name)
}

func TestWrapPartitionType_WrapsStringAsDictionary(t *testing.T) {
	wrapped := WrapPartitionType(arrow.BinaryTypes.String, true)
	dict, ok := wrapped.(*arrow.DictionaryType)
	require.True(t, ok)
	assert.Equal(t, arrow.BinaryTypes.String, dict.ValueType)
}

func TestWrapPartitionType_LeavesNonTextTypesAlone(t *testing.T) {
	wrapped := WrapPartitionType(arrow.PrimitiveTypes.Int64, true)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, wrapped)
}

func TestWrapPartitionType_NoopWhenDisabled(t *testing.T) {
	wrapped := WrapPartitionType(arrow.BinaryTypes.String, false)
	assert.Equal(t, arrow.BinaryTypes.String, wrapped)
}
