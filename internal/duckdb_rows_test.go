package internal

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "github.com/lychee-technology/tablebridge"
)

func TestRowsToRecord_InfersTypesAndNulls(t *testing.T) {
	ctx := context.Background()
	client, err := NewDuckDBClient(tb.EngineConfig{DBPath: ":memory:"}, tb.ObjectStoreConfig{})
	require.NoError(t, err)
	defer client.DB.Close()

	rows, err := client.DB.QueryContext(ctx, `
		SELECT * FROM (VALUES
			(1::BIGINT, 'alice', 1.5::DOUBLE),
			(2::BIGINT, NULL, 2.5::DOUBLE)
		) AS t(id, name, score);`)
	require.NoError(t, err)

	rec, err := RowsToRecord(rows)
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(2), rec.NumRows())
	idIdx, ok := fieldIndexByName(rec.Schema(), "id")
	require.True(t, ok)
	assert.Equal(t, arrow.INT64, rec.Schema().Field(idIdx).Type.ID())

	nameIdx, ok := fieldIndexByName(rec.Schema(), "name")
	require.True(t, ok)
	assert.True(t, rec.Column(nameIdx).IsNull(1))
	assert.False(t, rec.Column(nameIdx).IsNull(0))
}

func TestRowsToRecord_EmptyResultProducesZeroRowRecord(t *testing.T) {
	ctx := context.Background()
	client, err := NewDuckDBClient(tb.EngineConfig{DBPath: ":memory:"}, tb.ObjectStoreConfig{})
	require.NoError(t, err)
	defer client.DB.Close()

	rows, err := client.DB.QueryContext(ctx, `SELECT 1::BIGINT AS n WHERE false;`)
	require.NoError(t, err)

	rec, err := RowsToRecord(rows)
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, int64(0), rec.NumRows())
}
