package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	tb "github.com/lychee-technology/tablebridge"
)

// NullOfType returns the typed null Scalar for t, grounded on delta-rs's
// get_null_of_arrow_type: it enumerates every supported primitive/nested
// flavor explicitly rather than falling through a default case, so adding
// an unsupported Arrow type fails loudly instead of silently.
func NullOfType(t arrow.DataType) (tb.Scalar, error) {
	switch t.ID() {
	case arrow.NULL,
		arrow.BOOL,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64,
		arrow.DATE32, arrow.DATE64,
		arrow.BINARY, arrow.LARGE_BINARY,
		arrow.FIXED_SIZE_BINARY,
		arrow.STRING, arrow.LARGE_STRING,
		arrow.DECIMAL128,
		arrow.TIMESTAMP:
		return tb.NewNullScalar(t), nil
	case arrow.DICTIONARY:
		dt := t.(*arrow.DictionaryType)
		inner, err := NullOfType(dt.ValueType)
		if err != nil {
			return tb.Scalar{}, err
		}
		_ = inner
		return tb.NewNullScalar(t), nil
	default:
		return tb.Scalar{}, tb.NewUnsupportedError(
			fmt.Sprintf("null-of-type: unsupported arrow type %s", t))
	}
}

// ScalarFromToken converts a string token (or already-decoded JSON value) to
// a typed Scalar of t, grounded on delta-rs's to_correct_scalar_value.
// Arrays and objects yield (Scalar{}, false, nil): "no scalar". JSON null
// and the literal token "null" yield the typed null.
func ScalarFromToken(token string, t arrow.DataType) (tb.Scalar, bool, error) {
	var decoded any
	if err := json.Unmarshal([]byte(token), &decoded); err != nil {
		decoded = token
	}
	return scalarFromValue(decoded, token, t)
}

func scalarFromValue(decoded any, raw string, t arrow.DataType) (tb.Scalar, bool, error) {
	switch decoded.(type) {
	case []any, map[string]any:
		return tb.Scalar{}, false, nil
	}
	if decoded == nil {
		s, err := NullOfType(t)
		return s, true, err
	}

	switch t.ID() {
	case arrow.TIMESTAMP:
		tt := t.(*arrow.TimestampType)
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02 15:04:05", raw)
			if err != nil {
				return tb.Scalar{}, false, tb.NewInvalidDataError(
					"invalid timestamp literal: "+raw, nil)
			}
		}
		return castTimestamp(parsed, tt)
	case arrow.DATE32:
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return tb.Scalar{}, false, tb.NewInvalidDataError("invalid date literal: "+raw, nil)
		}
		days := int32(parsed.Unix() / 86400)
		return tb.NewScalar(t, days), true, nil
	case arrow.DATE64:
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return tb.Scalar{}, false, tb.NewInvalidDataError("invalid date literal: "+raw, nil)
		}
		return tb.NewScalar(t, parsed.UnixMilli()), true, nil
	case arrow.BOOL:
		v, ok := decoded.(bool)
		if !ok {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				return tb.Scalar{}, false, tb.NewInvalidDataError("invalid bool literal: "+raw, nil)
			}
			v = parsed
		}
		return tb.NewScalar(t, v), true, nil
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return tb.Scalar{}, false, tb.NewInvalidDataError("invalid integer literal: "+raw, nil)
		}
		return tb.NewScalar(t, i), true, nil
	case arrow.FLOAT32, arrow.FLOAT64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return tb.Scalar{}, false, tb.NewInvalidDataError("invalid float literal: "+raw, nil)
		}
		return tb.NewScalar(t, f), true, nil
	case arrow.STRING, arrow.LARGE_STRING:
		if s, ok := decoded.(string); ok {
			return tb.NewScalar(t, s), true, nil
		}
		return tb.NewScalar(t, raw), true, nil
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.FIXED_SIZE_BINARY:
		return tb.NewScalar(t, []byte(raw)), true, nil
	case arrow.DECIMAL128:
		return tb.NewScalar(t, raw), true, nil
	case arrow.DICTIONARY:
		dt := t.(*arrow.DictionaryType)
		return scalarFromValue(decoded, raw, dt.ValueType)
	default:
		return tb.Scalar{}, false, tb.NewUnsupportedError(
			fmt.Sprintf("string-to-scalar: unsupported arrow type %s", t))
	}
}

// castTimestamp casts a parsed instant into tt's unit. A cast that would
// drop sub-unit precision (an "unsafe cast", e.g. fractional seconds into
// a seconds unit) fails with InvalidData instead of truncating.
func castTimestamp(instant time.Time, tt *arrow.TimestampType) (tb.Scalar, bool, error) {
	var v int64
	var lost int
	switch tt.Unit {
	case arrow.Second:
		v, lost = instant.Unix(), instant.Nanosecond()
	case arrow.Millisecond:
		v, lost = instant.UnixMilli(), instant.Nanosecond()%int(time.Millisecond)
	case arrow.Microsecond:
		v, lost = instant.UnixMicro(), instant.Nanosecond()%int(time.Microsecond)
	case arrow.Nanosecond:
		v = instant.UnixNano()
	default:
		return tb.Scalar{}, false, tb.NewInternalError("unknown timestamp unit", nil)
	}
	if lost != 0 {
		return tb.Scalar{}, false, tb.NewInvalidDataError(
			"timestamp literal loses precision when cast to "+tt.String(), nil)
	}
	return tb.NewScalar(tt, v), true, nil
}

// CompareScalars orders two non-null scalars of the same underlying type,
// returning -1/0/1. Used by the Pruner's min/max comparisons. Types
// without a well-defined ordering (handled upstream by NullOfType's
// rejection list) never reach here.
func CompareScalars(a, b tb.Scalar) (int, error) {
	if a.Null || b.Null {
		return 0, tb.NewInternalError("cannot order null scalars", nil)
	}
	switch av := a.Value.(type) {
	case int64:
		bv, ok := b.Value.(int64)
		if !ok {
			return 0, tb.NewInternalError("scalar type mismatch in comparison", nil)
		}
		return cmpOrdered(av, bv), nil
	case float64:
		bv, ok := b.Value.(float64)
		if !ok {
			return 0, tb.NewInternalError("scalar type mismatch in comparison", nil)
		}
		return cmpOrdered(av, bv), nil
	case string:
		bv, ok := b.Value.(string)
		if !ok {
			return 0, tb.NewInternalError("scalar type mismatch in comparison", nil)
		}
		return strings.Compare(av, bv), nil
	case bool:
		bv, ok := b.Value.(bool)
		if !ok {
			return 0, tb.NewInternalError("scalar type mismatch in comparison", nil)
		}
		return cmpOrdered(boolToInt(av), boolToInt(bv)), nil
	default:
		return 0, tb.NewUnsupportedError(fmt.Sprintf("comparison unsupported for %T", a.Value))
	}
}

func cmpOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
