package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFixture_FileWithoutNumRowsHasNilStats(t *testing.T) {
	snap, err := DecodeFixture([]byte(`{
		"schemaFields": [{"name": "amount", "arrowType": "int64"}],
		"fileActions": [{"path": "1.parquet", "sizeBytes": 10}]
	}`))
	require.NoError(t, err)
	require.Len(t, snap.FileActions(), 1)
	assert.Nil(t, snap.FileActions()[0].Stats)
}

func TestDecodeFixture_UnknownArrowTypeFails(t *testing.T) {
	_, err := DecodeFixture([]byte(`{
		"schemaFields": [{"name": "amount", "arrowType": "not_a_type"}],
		"fileActions": []
	}`))
	require.Error(t, err)
}

func TestDecodeFixture_InvalidJSONFailsValidationFirst(t *testing.T) {
	_, err := DecodeFixture([]byte(`not json`))
	require.Error(t, err)
}

func TestDecodeFixture_PartitionColumnsPreserveDeclarationOrder(t *testing.T) {
	snap := loadFixture(t)
	assert.Equal(t, []string{"region"}, snap.PartitionColumns())
}
