package tablebridge

import "strings"

// TableMetadata is the minimal slice of a snapshot's metadata this module
// mutates: a free-form configuration map keyed the way Delta stores table
// properties (`<namespace>.<property>`), here `table.constraints.<name>`
// for CHECK constraints (§6, §4.11).
type TableMetadata struct {
	Configuration map[string]string
}

// MetadataAction is the single action DropConstraint appends for the
// (external) log writer to commit; this module never writes it itself.
type MetadataAction struct {
	Configuration map[string]string
}

func constraintConfigKey(name string) string {
	return "table.constraints." + name
}

// DropConstraint removes the named CHECK constraint from metadata and
// returns the resulting metadata plus a single MetadataAction to commit.
// If the constraint is absent: raiseIfMissing=true fails with NotFound;
// otherwise metadata is returned unchanged and action is nil, matching
// the original's "return the original snapshot" no-op (§6, grounded on
// drop_constraints.rs).
func DropConstraint(metadata TableMetadata, name string, raiseIfMissing bool) (TableMetadata, *MetadataAction, error) {
	if strings.Contains(name, ".") {
		return metadata, nil, NewUnsupportedError("nested-column constraint names are unsupported: " + name)
	}

	key := constraintConfigKey(name)
	if _, ok := metadata.Configuration[key]; !ok {
		if raiseIfMissing {
			return metadata, nil, NewNotFoundError("constraint with name '" + name + "' does not exist")
		}
		return metadata, nil, nil
	}

	next := make(map[string]string, len(metadata.Configuration))
	for k, v := range metadata.Configuration {
		if k == key {
			continue
		}
		next[k] = v
	}

	updated := TableMetadata{Configuration: next}
	return updated, &MetadataAction{Configuration: next}, nil
}
