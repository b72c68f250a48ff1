package internal

import (
	"github.com/apache/arrow-go/v18/arrow"
	tb "github.com/lychee-technology/tablebridge"
)

// ColumnSource describes where one logical-schema column's data comes from
// when reconciling a single file's physical schema to the requested
// logical schema (§4.1 "File-to-logical adaptation").
type ColumnSource struct {
	Field     arrow.Field
	FromFile  bool
	FileIndex int      // valid iff FromFile
	Nested    *FilePlan // valid iff Field.Type is a struct matched recursively
}

// FilePlan is the full per-file adaptation plan: one ColumnSource per
// logical-schema field, in logical-schema order.
type FilePlan struct {
	Columns []ColumnSource
}

// AdaptFileSchema matches fileSchema's fields to logicalSchema's fields by
// name (case-sensitive), producing a plan that fills typed nulls for
// logical fields absent from the file and silently drops physical columns
// the logical schema does not name. A missing non-nullable logical column
// fails the scan with NotFound, matching the source's hard-failure
// behavior (§9 Open Question, preserved per DESIGN.md).
func AdaptFileSchema(fileSchema, logicalSchema *arrow.Schema) (*FilePlan, error) {
	plan := &FilePlan{Columns: make([]ColumnSource, 0, logicalSchema.NumFields())}
	for i := 0; i < logicalSchema.NumFields(); i++ {
		lf := logicalSchema.Field(i)
		idx, ok := fieldIndexByName(fileSchema, lf.Name)
		if !ok {
			if !lf.Nullable {
				return nil, tb.NewNotFoundError(
					"non-nullable column '" + lf.Name + "' missing from file schema")
			}
			plan.Columns = append(plan.Columns, ColumnSource{Field: lf, FromFile: false})
			continue
		}

		pf := fileSchema.Field(idx)
		if lf.Type.ID() == arrow.STRUCT && pf.Type.ID() == arrow.STRUCT {
			nested, err := AdaptFileSchema(
				arrow.NewSchema(pf.Type.(*arrow.StructType).Fields(), nil),
				arrow.NewSchema(lf.Type.(*arrow.StructType).Fields(), nil),
			)
			if err != nil {
				return nil, err
			}
			plan.Columns = append(plan.Columns, ColumnSource{Field: lf, FromFile: true, FileIndex: idx, Nested: nested})
			continue
		}

		plan.Columns = append(plan.Columns, ColumnSource{Field: lf, FromFile: true, FileIndex: idx})
	}
	return plan, nil
}

func fieldIndexByName(schema *arrow.Schema, name string) (int, bool) {
	for i := 0; i < schema.NumFields(); i++ {
		if schema.Field(i).Name == name {
			return i, true
		}
	}
	return -1, false
}
