package internal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	tb "github.com/lychee-technology/tablebridge"
)

// RowsToRecord drains rows into a single in-memory arrow.Record, inferring
// each column's Arrow type from DuckDB's reported column type name. Used
// to turn a SQLEngine.Query result, and a Scan's underlying read_parquet
// query, into the Arrow batches the rest of this module works in.
func RowsToRecord(rows *sql.Rows) (arrow.Record, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, tb.NewInternalError("reading duckdb result columns", err)
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, tb.NewInternalError("reading duckdb result column types", err)
	}

	fields := make([]arrow.Field, len(cols))
	arrowTypes := make([]arrow.DataType, len(cols))
	for i, ct := range colTypes {
		arrowTypes[i] = duckdbColumnArrowType(ct)
		fields[i] = arrow.Field{Name: cols[i], Type: arrowTypes[i], Nullable: true}
	}

	mem := memory.NewGoAllocator()
	builders := make([]array.Builder, len(cols))
	for i, t := range arrowTypes {
		builders[i] = array.NewBuilder(mem, t)
		defer builders[i].Release()
	}

	scanDest := make([]any, len(cols))
	scanBuf := make([]any, len(cols))
	for i := range scanDest {
		scanDest[i] = &scanBuf[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return nil, tb.NewInternalError("scanning duckdb result row", err)
		}
		for i, v := range scanBuf {
			if err := appendValue(builders[i], v); err != nil {
				return nil, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, tb.NewInternalError("iterating duckdb result rows", err)
	}

	arrays := make([]arrow.Array, len(cols))
	for i, b := range builders {
		arrays[i] = b.NewArray()
		defer arrays[i].Release()
	}

	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, arrays, -1), nil
}

func duckdbColumnArrowType(ct *sql.ColumnType) arrow.DataType {
	return arrowTypeFromDuckDBTypeName(ct.DatabaseTypeName())
}

// arrowTypeFromDuckDBTypeName maps a DuckDB type name, as reported either
// by database/sql's ColumnType or by a DESCRIBE query's column_type
// column, to the Arrow type used to represent it. Unrecognized names
// (e.g. nested STRUCT/LIST types DESCRIBE renders as a parenthesized
// expression) fall back to string, matching the "unknown statistics force
// could" conservatism used elsewhere rather than failing outright.
func arrowTypeFromDuckDBTypeName(name string) arrow.DataType {
	switch name {
	case "BOOLEAN":
		return arrow.FixedWidthTypes.Boolean
	case "TINYINT":
		return arrow.PrimitiveTypes.Int8
	case "SMALLINT":
		return arrow.PrimitiveTypes.Int16
	case "INTEGER":
		return arrow.PrimitiveTypes.Int32
	case "BIGINT":
		return arrow.PrimitiveTypes.Int64
	case "UTINYINT":
		return arrow.PrimitiveTypes.Uint8
	case "USMALLINT":
		return arrow.PrimitiveTypes.Uint16
	case "UINTEGER":
		return arrow.PrimitiveTypes.Uint32
	case "UBIGINT":
		return arrow.PrimitiveTypes.Uint64
	case "FLOAT":
		return arrow.PrimitiveTypes.Float32
	case "DOUBLE":
		return arrow.PrimitiveTypes.Float64
	case "BLOB":
		return arrow.BinaryTypes.Binary
	case "DATE":
		return arrow.FixedWidthTypes.Date32
	case "TIMESTAMP", "TIMESTAMPTZ":
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

func appendValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch builder := b.(type) {
	case *array.BooleanBuilder:
		val, ok := v.(bool)
		if !ok {
			return tb.NewInternalError(fmt.Sprintf("expected bool, got %T", v), nil)
		}
		builder.Append(val)
	case *array.Int8Builder:
		builder.Append(int8(mustInt64(v)))
	case *array.Int16Builder:
		builder.Append(int16(mustInt64(v)))
	case *array.Int32Builder:
		builder.Append(int32(mustInt64(v)))
	case *array.Int64Builder:
		builder.Append(mustInt64(v))
	case *array.Uint8Builder:
		builder.Append(uint8(mustInt64(v)))
	case *array.Uint16Builder:
		builder.Append(uint16(mustInt64(v)))
	case *array.Uint32Builder:
		builder.Append(uint32(mustInt64(v)))
	case *array.Uint64Builder:
		builder.Append(uint64(mustInt64(v)))
	case *array.Float32Builder:
		builder.Append(float32(mustFloat64(v)))
	case *array.Float64Builder:
		builder.Append(mustFloat64(v))
	case *array.StringBuilder:
		builder.Append(stringify(v))
	case *array.BinaryBuilder:
		bs, ok := v.([]byte)
		if !ok {
			bs = []byte(stringify(v))
		}
		builder.Append(bs)
	case *array.Date32Builder:
		t, ok := v.(time.Time)
		if !ok {
			return tb.NewInternalError(fmt.Sprintf("expected time.Time for DATE, got %T", v), nil)
		}
		builder.Append(arrow.Date32(t.Unix() / 86400))
	case *array.TimestampBuilder:
		t, ok := v.(time.Time)
		if !ok {
			return tb.NewInternalError(fmt.Sprintf("expected time.Time for TIMESTAMP, got %T", v), nil)
		}
		builder.Append(arrow.Timestamp(t.UnixMicro()))
	default:
		return tb.NewUnsupportedError(fmt.Sprintf("duckdb result builder unsupported: %T", b))
	}
	return nil
}

func mustInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func mustFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// arrowValueAt reads column's value at row as a database/sql-compatible
// parameter, used when materializing a registered batch into DuckDB via
// INSERT.
func arrowValueAt(col arrow.Array, row int) (any, error) {
	if col.IsNull(row) {
		return nil, nil
	}
	switch a := col.(type) {
	case *array.Boolean:
		return a.Value(row), nil
	case *array.Int8:
		return int64(a.Value(row)), nil
	case *array.Int16:
		return int64(a.Value(row)), nil
	case *array.Int32:
		return int64(a.Value(row)), nil
	case *array.Int64:
		return a.Value(row), nil
	case *array.Uint8:
		return int64(a.Value(row)), nil
	case *array.Uint16:
		return int64(a.Value(row)), nil
	case *array.Uint32:
		return int64(a.Value(row)), nil
	case *array.Uint64:
		return int64(a.Value(row)), nil
	case *array.Float32:
		return float64(a.Value(row)), nil
	case *array.Float64:
		return a.Value(row), nil
	case *array.String:
		return a.Value(row), nil
	case *array.LargeString:
		return a.Value(row), nil
	case *array.Binary:
		return a.Value(row), nil
	case *array.Date32:
		return time.Unix(int64(a.Value(row))*86400, 0).UTC(), nil
	case *array.Timestamp:
		return time.UnixMicro(int64(a.Value(row))).UTC(), nil
	default:
		return nil, tb.NewUnsupportedError(fmt.Sprintf("duckdb insert unsupported for column type %T", col))
	}
}
