package internal

import (
	"github.com/apache/arrow-go/v18/arrow"
	tb "github.com/lychee-technology/tablebridge"
)

// Encode reduces a ScanPlan to the triple a query engine's plan-node
// serializer actually needs to round-trip it: the table location, the
// scan configuration that produced it, and the logical schema it exposes.
// File groups, statistics, and metrics are execution-time state the codec
// deliberately does not carry — they're rebuilt by re-running the Scan
// Builder, not replayed from a serialized plan (§4.8).
func Encode(plan *tb.ScanPlan) (tableURI string, config tb.ScanConfig, schema *arrow.Schema, err error) {
	if plan == nil {
		return "", tb.ScanConfig{}, nil, tb.NewInternalError("cannot encode a nil scan plan", nil)
	}
	return plan.TableURI, plan.Config, plan.LogicalSchema, nil
}

// Decode reconstructs a bare ScanPlan from an encoded triple plus the
// query engine's deserialized child node(s). A scan node takes at most
// one child (the physical file-read node it wraps); more than one is an
// internal inconsistency in the caller's plan tree, not a data problem.
// schemaAny arrives as the engine's generic node payload and must
// downcast to *arrow.Schema.
func Decode(tableURI string, config tb.ScanConfig, schemaAny any, children []tb.RecordBatchStream) (*tb.ScanPlan, error) {
	if len(children) > 1 {
		return nil, tb.NewInternalError("scan plan codec: expected at most one child execution node", nil)
	}
	schema, ok := schemaAny.(*arrow.Schema)
	if !ok {
		return nil, tb.NewInternalError("scan plan codec: schema payload did not downcast to *arrow.Schema", nil)
	}

	plan := &tb.ScanPlan{
		TableURI:      tableURI,
		Config:        config,
		LogicalSchema: schema,
		Metrics:       tb.NewMetrics(),
	}
	if len(children) == 1 {
		plan.Child = children[0]
	}
	return plan, nil
}
