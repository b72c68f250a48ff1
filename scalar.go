package tablebridge

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Scalar is a single typed value (or typed null) used for partition values,
// column statistics bounds, and literal predicate operands. It is a small
// tagged union rather than an `any` so callers can compare and order values
// without type-switching on Go's native types.
type Scalar struct {
	Type  arrow.DataType
	Null  bool
	Value any // concrete Go representation matching Type; nil iff Null
}

// IsZero reports whether this Scalar was never assigned (distinct from a
// typed null, which carries a concrete Type).
func (s Scalar) IsZero() bool {
	return s.Type == nil
}

// String renders the scalar for diagnostics and for violation reporting in
// the Data Checker.
func (s Scalar) String() string {
	if s.IsZero() {
		return ""
	}
	if s.Null {
		return "NULL"
	}
	return fmt.Sprintf("%v", s.Value)
}

// NewScalar builds a non-null Scalar of the given type and value. Callers
// are responsible for ensuring Value's Go type matches what internal/scalar.go
// produces for Type (e.g. int64 for Int64Type, string for StringType).
func NewScalar(t arrow.DataType, value any) Scalar {
	return Scalar{Type: t, Value: value}
}

// NewNullScalar builds a typed null Scalar.
func NewNullScalar(t arrow.DataType) Scalar {
	return Scalar{Type: t, Null: true}
}
