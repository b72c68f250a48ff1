package internal

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	tb "github.com/lychee-technology/tablebridge"
)

// fixtureSchemaJSON describes the on-disk shape of a snapshot fixture:
// the ordered schema fields (with their Arrow type name and partition
// flag) plus the file actions tracked against them. Fixtures (the inline
// JSON constants in the tests, and files given to cmd/planfixture) are
// validated against this before being loaded as a Snapshot, catching a malformed fixture before it produces a confusing
// downstream failure.
const fixtureSchemaJSON = `{
  "type": "object",
  "required": ["schemaFields", "fileActions"],
  "properties": {
    "schemaFields": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "arrowType"],
        "properties": {
          "name": {"type": "string"},
          "arrowType": {"type": "string"},
          "nullable": {"type": "boolean"},
          "isPartition": {"type": "boolean"}
        }
      }
    },
    "fileActions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["path", "sizeBytes"],
        "properties": {
          "path": {"type": "string"},
          "sizeBytes": {"type": "integer"},
          "modificationTime": {"type": "string"},
          "partitionValues": {"type": "object"},
          "stats": {"type": "object"}
        }
      }
    }
  }
}`

// ValidateFixture checks data against fixtureSchemaJSON before the caller
// attempts to decode it into schema fields and file actions.
func ValidateFixture(data []byte) error {
	var schema jsonschema.Schema
	if err := json.Unmarshal([]byte(fixtureSchemaJSON), &schema); err != nil {
		return tb.NewInternalError("parsing fixture json schema", err)
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return tb.NewInternalError("resolving fixture json schema", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return tb.NewInvalidDataError("fixture is not valid json", nil)
	}
	if err := resolved.Validate(instance); err != nil {
		return tb.NewInvalidDataError("fixture failed schema validation: "+err.Error(), nil)
	}
	return nil
}
