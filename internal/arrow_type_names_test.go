package internal

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "github.com/lychee-technology/tablebridge"
)

func TestArrowTypeFromName_KnownAliases(t *testing.T) {
	cases := map[string]arrow.DataType{
		"bool":         arrow.FixedWidthTypes.Boolean,
		"boolean":      arrow.FixedWidthTypes.Boolean,
		"int64":        arrow.PrimitiveTypes.Int64,
		"long":         arrow.PrimitiveTypes.Int64,
		"float64":      arrow.PrimitiveTypes.Float64,
		"double":       arrow.PrimitiveTypes.Float64,
		"string":       arrow.BinaryTypes.String,
		"utf8":         arrow.BinaryTypes.String,
		"timestamp":    arrow.FixedWidthTypes.Timestamp_us,
		"timestamp_us": arrow.FixedWidthTypes.Timestamp_us,
		"timestamp_ns": arrow.FixedWidthTypes.Timestamp_ns,
	}
	for name, want := range cases {
		got, err := ArrowTypeFromName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestArrowTypeFromName_UnknownNameFails(t *testing.T) {
	_, err := ArrowTypeFromName("not_a_type")
	require.Error(t, err)
	assert.True(t, tb.IsKind(err, tb.ErrUnsupported))
}
