package internal

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	tb "github.com/lychee-technology/tablebridge"
)

const defaultPathColumnName = "__delta_rs_path"

// AssembleLogicalSchema implements §4.2: non-partition fields in snapshot
// order, then partition fields in the snapshot's partition-column order,
// then the optional synthetic path field.
func AssembleLogicalSchema(snapshot tb.Snapshot, cfg tb.ScanConfig) (*arrow.Schema, error) {
	base := cfg.OverrideSchema
	if base == nil {
		base = snapshot.Schema()
	}

	partitionSet := make(map[string]bool, len(snapshot.PartitionColumns()))
	for _, p := range snapshot.PartitionColumns() {
		partitionSet[p] = true
	}

	var fields []arrow.Field
	for i := 0; i < base.NumFields(); i++ {
		f := base.Field(i)
		if !partitionSet[f.Name] {
			fields = append(fields, f)
		}
	}
	for _, name := range snapshot.PartitionColumns() {
		idx, ok := fieldIndexByName(base, name)
		if !ok {
			return nil, tb.NewNotFoundError("partition column '" + name + "' not present in schema")
		}
		fields = append(fields, base.Field(idx))
	}

	if cfg.IncludeFilePathColumn {
		name, err := resolveSyntheticPathName(fields, cfg.FilePathColumnName)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true})
	}

	return arrow.NewSchema(fields, nil), nil
}

// resolveSyntheticPathName implements §3/§6: an explicit requested name
// that collides with an existing field fails the whole config (Conflict);
// the default name, if it collides, is suffixed with the smallest k >= 1
// that makes it unique.
func resolveSyntheticPathName(fields []arrow.Field, requested string) (string, error) {
	if requested != "" {
		if collides(fields, requested) {
			return "", tb.NewConflictError(
				"requested path column name '" + requested + "' collides with a schema field")
		}
		return requested, nil
	}

	if !collides(fields, defaultPathColumnName) {
		return defaultPathColumnName, nil
	}
	for k := 1; ; k++ {
		candidate := fmt.Sprintf("%s_%d", defaultPathColumnName, k)
		if !collides(fields, candidate) {
			return candidate, nil
		}
	}
}

func collides(fields []arrow.Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// WrapPartitionType implements the dictionary-wrapping variant of §3: text
// and binary physical types used as partition fields are wrapped as a
// dictionary from a uint16 key to the physical type; everything else
// passes through unchanged.
func WrapPartitionType(t arrow.DataType, wrap bool) arrow.DataType {
	if !wrap {
		return t
	}
	switch t.ID() {
	case arrow.STRING, arrow.LARGE_STRING, arrow.BINARY, arrow.LARGE_BINARY:
		return &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Uint16, ValueType: t}
	default:
		return t
	}
}
