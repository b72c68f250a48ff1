package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"
	tb "github.com/lychee-technology/tablebridge"
)

// valueStringer is satisfied by every concrete arrow array type this
// module encounters; used only to render a violating row for diagnostics.
type valueStringer interface {
	ValueStr(i int) string
}

// CheckBatch is the Data Checker (§4.6): it first verifies schema-declared
// non-nullability directly against batch, then evaluates every check
// (invariant, constraint, generated column) via engine, registering batch
// under a throwaway name for the duration of the call. Every check runs
// even after an earlier one fails, so the returned violations are
// complete, not first-match. The temporary registration is always torn
// down, success or failure.
func CheckBatch(ctx context.Context, engine tb.SQLEngine, schema *arrow.Schema, batch arrow.Record, checks []tb.Check) ([]tb.Violation, error) {
	violations := checkNullability(schema, batch)

	if len(checks) == 0 {
		return violations, nil
	}

	tmpName := "tablebridge_check_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := engine.RegisterBatch(ctx, tmpName, batch); err != nil {
		_ = engine.Deregister(ctx, tmpName)
		return nil, tb.NewInternalError("registering batch for data checks", err)
	}
	defer func() { _ = engine.Deregister(ctx, tmpName) }()

	for _, check := range checks {
		if strings.Contains(check.Name, ".") {
			return nil, tb.NewUnsupportedError("nested-column check names are unsupported: " + check.Name)
		}

		sql := fmt.Sprintf("SELECT %s FROM %s WHERE NOT (%s) LIMIT 1",
			check.projectionTarget(), tmpName, check.Expression)
		records, err := engine.Query(ctx, sql)
		if err != nil {
			return nil, tb.NewInternalError(
				fmt.Sprintf("evaluating %s '%s'", check.Kind, check.Name), err)
		}

		if v, ok := firstViolatingRow(check, records); ok {
			violations = append(violations, v)
		}
	}

	return violations, nil
}

// checkNullability matches by column name, not position: a batch built
// with a different column order, or one missing a column entirely (the
// declared-non-nullable-but-absent case in §4.6 step 1), must still
// produce a Violation rather than a positional index error.
func checkNullability(schema *arrow.Schema, batch arrow.Record) []tb.Violation {
	var violations []tb.Violation
	batchSchema := batch.Schema()
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		if f.Nullable {
			continue
		}
		idx, ok := fieldIndexByName(batchSchema, f.Name)
		if !ok {
			violations = append(violations, tb.Violation{
				Message: "non-nullable column '" + f.Name + "' is absent from the batch",
			})
			continue
		}
		if batch.Column(idx).NullN() > 0 {
			violations = append(violations, tb.Violation{
				Message: "non-nullable column '" + f.Name + "' contains null values",
			})
		}
	}
	return violations
}

func firstViolatingRow(check tb.Check, records []arrow.Record) (tb.Violation, bool) {
	for _, rec := range records {
		if rec.NumRows() == 0 {
			continue
		}
		return tb.Violation{
			Message: fmt.Sprintf("%s '%s' violated", check.Kind, check.Name),
			Row:     renderRow(rec, 0),
		}, true
	}
	return tb.Violation{}, false
}

func renderRow(rec arrow.Record, row int) string {
	var b strings.Builder
	for i := 0; i < int(rec.NumCols()); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(rec.ColumnName(i))
		b.WriteString("=")
		if vs, ok := rec.Column(i).(valueStringer); ok {
			b.WriteString(vs.ValueStr(row))
		} else {
			b.WriteString("?")
		}
	}
	return b.String()
}
