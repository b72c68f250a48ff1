package internal

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	tb "github.com/lychee-technology/tablebridge"
)

// ArrowTypeFromName parses the small set of type names this module's
// fixtures and catalog tables use to describe a column, the mirror of
// the names JSON schema fixtures declare (see fixture_validate.go).
func ArrowTypeFromName(name string) (arrow.DataType, error) {
	switch name {
	case "bool", "boolean":
		return arrow.FixedWidthTypes.Boolean, nil
	case "int8":
		return arrow.PrimitiveTypes.Int8, nil
	case "int16":
		return arrow.PrimitiveTypes.Int16, nil
	case "int32":
		return arrow.PrimitiveTypes.Int32, nil
	case "int64", "long":
		return arrow.PrimitiveTypes.Int64, nil
	case "uint8":
		return arrow.PrimitiveTypes.Uint8, nil
	case "uint16":
		return arrow.PrimitiveTypes.Uint16, nil
	case "uint32":
		return arrow.PrimitiveTypes.Uint32, nil
	case "uint64":
		return arrow.PrimitiveTypes.Uint64, nil
	case "float32", "float":
		return arrow.PrimitiveTypes.Float32, nil
	case "float64", "double":
		return arrow.PrimitiveTypes.Float64, nil
	case "string", "utf8":
		return arrow.BinaryTypes.String, nil
	case "large_string":
		return arrow.BinaryTypes.LargeString, nil
	case "binary":
		return arrow.BinaryTypes.Binary, nil
	case "date32", "date":
		return arrow.FixedWidthTypes.Date32, nil
	case "date64":
		return arrow.FixedWidthTypes.Date64, nil
	case "timestamp_s":
		return arrow.FixedWidthTypes.Timestamp_s, nil
	case "timestamp_ms":
		return arrow.FixedWidthTypes.Timestamp_ms, nil
	case "timestamp", "timestamp_us":
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case "timestamp_ns":
		return arrow.FixedWidthTypes.Timestamp_ns, nil
	default:
		return nil, tb.NewUnsupportedError(fmt.Sprintf("unknown arrow type name '%s'", name))
	}
}
