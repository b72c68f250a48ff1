package internal

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	tb "github.com/lychee-technology/tablebridge"
)

// DuckDBTypeFor renders t as the DuckDB SQL type name used in CREATE
// TABLE/CAST statements when bridging an Arrow schema into the embedded
// engine.
func DuckDBTypeFor(t arrow.DataType) (string, error) {
	switch dt := t.(type) {
	case *arrow.BooleanType:
		return "BOOLEAN", nil
	case *arrow.Int8Type:
		return "TINYINT", nil
	case *arrow.Int16Type:
		return "SMALLINT", nil
	case *arrow.Int32Type:
		return "INTEGER", nil
	case *arrow.Int64Type:
		return "BIGINT", nil
	case *arrow.Uint8Type:
		return "UTINYINT", nil
	case *arrow.Uint16Type:
		return "USMALLINT", nil
	case *arrow.Uint32Type:
		return "UINTEGER", nil
	case *arrow.Uint64Type:
		return "UBIGINT", nil
	case *arrow.Float32Type:
		return "FLOAT", nil
	case *arrow.Float64Type:
		return "DOUBLE", nil
	case *arrow.StringType, *arrow.LargeStringType:
		return "VARCHAR", nil
	case *arrow.BinaryType, *arrow.LargeBinaryType, *arrow.FixedSizeBinaryType:
		return "BLOB", nil
	case *arrow.Date32Type, *arrow.Date64Type:
		return "DATE", nil
	case *arrow.Decimal128Type:
		return fmt.Sprintf("DECIMAL(%d,%d)", dt.Precision, dt.Scale), nil
	case *arrow.TimestampType:
		if dt.TimeZone != "" {
			return "TIMESTAMPTZ", nil
		}
		return "TIMESTAMP", nil
	case *arrow.DictionaryType:
		return DuckDBTypeFor(dt.ValueType)
	default:
		return "", tb.NewUnsupportedError(fmt.Sprintf("duckdb type mapping unsupported for %s", t))
	}
}
