package tablebridge

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
)

func TestScalar_IsZeroOnlyForUnassignedScalar(t *testing.T) {
	var zero Scalar
	assert.True(t, zero.IsZero())

	assert.False(t, NewNullScalar(arrow.PrimitiveTypes.Int64).IsZero())
	assert.False(t, NewScalar(arrow.PrimitiveTypes.Int64, int64(5)).IsZero())
}

func TestScalar_StringRendersNullAndValue(t *testing.T) {
	assert.Equal(t, "", Scalar{}.String())
	assert.Equal(t, "NULL", NewNullScalar(arrow.PrimitiveTypes.Int64).String())
	assert.Equal(t, "5", NewScalar(arrow.PrimitiveTypes.Int64, int64(5)).String())
	assert.Equal(t, "us", NewScalar(arrow.BinaryTypes.String, "us").String())
}
