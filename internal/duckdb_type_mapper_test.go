package internal

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "github.com/lychee-technology/tablebridge"
)

func TestDuckDBTypeFor_PrimitiveTypes(t *testing.T) {
	cases := []struct {
		in   arrow.DataType
		want string
	}{
		{arrow.FixedWidthTypes.Boolean, "BOOLEAN"},
		{arrow.PrimitiveTypes.Int64, "BIGINT"},
		{arrow.PrimitiveTypes.Float64, "DOUBLE"},
		{arrow.BinaryTypes.String, "VARCHAR"},
		{arrow.BinaryTypes.Binary, "BLOB"},
		{arrow.FixedWidthTypes.Date32, "DATE"},
	}
	for _, c := range cases {
		got, err := DuckDBTypeFor(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestDuckDBTypeFor_TimestampWithAndWithoutZone(t *testing.T) {
	withZone := &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	got, err := DuckDBTypeFor(withZone)
	require.NoError(t, err)
	assert.Equal(t, "TIMESTAMPTZ", got)

	withoutZone := &arrow.TimestampType{Unit: arrow.Microsecond}
	got, err = DuckDBTypeFor(withoutZone)
	require.NoError(t, err)
	assert.Equal(t, "TIMESTAMP", got)
}

func TestDuckDBTypeFor_DecimalIncludesPrecisionAndScale(t *testing.T) {
	got, err := DuckDBTypeFor(&arrow.Decimal128Type{Precision: 10, Scale: 2})
	require.NoError(t, err)
	assert.Equal(t, "DECIMAL(10,2)", got)
}

func TestDuckDBTypeFor_DictionaryDelegatesToValueType(t *testing.T) {
	dict := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	got, err := DuckDBTypeFor(dict)
	require.NoError(t, err)
	assert.Equal(t, "VARCHAR", got)
}

func TestDuckDBTypeFor_UnsupportedTypeFails(t *testing.T) {
	_, err := DuckDBTypeFor(arrow.ListOf(arrow.PrimitiveTypes.Int64))
	require.Error(t, err)
	assert.True(t, tb.IsKind(err, tb.ErrUnsupported))
}
