package internal

import (
	"context"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	tb "github.com/lychee-technology/tablebridge"
)

// defaultSimplifyCycles bounds Simplify's rewrite passes when a caller does
// not specify one explicitly (§4.5 step 4).
const defaultSimplifyCycles = 4

// BuildScanPlan is the Scan Builder (§4.5): it assembles the logical
// schema (restricted to projection, with filter columns re-added), groups
// file actions by partition value, simplifies and classifies the
// predicate, prunes file groups against partition values and per-file
// statistics (unless filesOverride asserts the file set directly),
// applies limit pushdown, and aggregates statistics over the surviving
// files. engine may be nil, in which case the predicate is used
// unsimplified (no SQL engine available yet is a valid degenerate case
// for partition-only scans).
func BuildScanPlan(
	ctx context.Context,
	tableURI string,
	snapshot tb.Snapshot,
	cfg tb.ScanConfig,
	projection []int,
	predicate tb.Expr,
	limit *int64,
	filesOverride []tb.FileAction,
	engine tb.SQLEngine,
) (*tb.ScanPlan, error) {
	fullLogicalSchema, err := AssembleLogicalSchema(snapshot, cfg)
	if err != nil {
		return nil, err
	}
	logicalSchema := restrictLogicalSchema(fullLogicalSchema, projection, predicate)

	partitionColumns := snapshot.PartitionColumns()
	partitionSet := make(map[string]bool, len(partitionColumns))
	for _, p := range partitionColumns {
		partitionSet[p] = true
	}

	files := snapshot.FileActions()
	if filesOverride != nil {
		files = filesOverride
	}

	// buildFileGroups decodes each file's partition-value tokens against
	// fullLogicalSchema, not the (possibly projection-restricted)
	// logicalSchema: grouping must still resolve a partition column's type
	// even when that column was projected out of the plan's exposed schema.
	groups, err := buildFileGroups(files, partitionColumns, fullLogicalSchema)
	if err != nil {
		return nil, err
	}

	totalFiles := int64(0)
	for _, g := range groups {
		totalFiles += int64(len(g.Files))
	}

	simplified := predicate
	if predicate != nil && engine != nil {
		simplified, err = engine.Simplify(ctx, predicate, logicalSchema, defaultSimplifyCycles)
		if err != nil {
			return nil, err
		}
	}

	var inexactConjuncts []tb.Expr
	if simplified != nil {
		_, inexactConjuncts = ClassifyAll(simplified, partitionSet)
	}

	var pushdownPredicate tb.Expr
	if cfg.PushdownFilters {
		pushdownPredicate = tb.And(inexactConjuncts...)
	}

	var finalGroups []tb.FileGroup
	if filesOverride != nil {
		// The caller asserts the file set; pruning (including limit
		// pushdown) is skipped entirely.
		finalGroups = groups
	} else {
		prunedGroups, _ := PruneFileGroups(groups, simplified)

		// Limit pushdown may only treat a group's rows as definitely
		// satisfying the predicate, and so count toward the budget, when
		// no inexact (row-level) filter remains to be applied downstream.
		limitPredicate := pushdownPredicate
		finalGroups = ApplyLimitPushdown(prunedGroups, limitPredicate, limit)
	}

	physicalSchema := physicalSchemaOf(logicalSchema, partitionSet, resolvedPathColumnName(cfg, logicalSchema))
	partitionSchema := partitionSchemaOf(logicalSchema, partitionColumns, cfg.WrapPartitionValues)

	stats := aggregateStatistics(finalGroups, physicalSchema)

	// files_scanned counts the files left in the plan; files_pruned counts
	// every file dropped by pruning or limit pushdown (0 with an override).
	filesScanned := int64(0)
	for _, g := range finalGroups {
		filesScanned += int64(len(g.Files))
	}
	filesPruned := int64(0)
	if filesOverride == nil {
		filesPruned = totalFiles - filesScanned
	}

	metrics := tb.NewMetrics()
	metrics.Set("files_scanned", filesScanned)
	metrics.Set("files_pruned", filesPruned)

	plan := &tb.ScanPlan{
		TableURI:        tableURI,
		Config:          cfg,
		LogicalSchema:   logicalSchema,
		PhysicalSchema:  physicalSchema,
		PartitionSchema: partitionSchema,
		FileGroups:      finalGroups,
		Projection:      projection,
		Limit:           limit,
		Predicate:       pushdownPredicate,
		Statistics:      stats,
		Metrics:         metrics,
	}
	return plan, nil
}

// restrictLogicalSchema implements step 3 of the Scan Builder contract:
// when a projection is supplied, the logical schema exposed downstream is
// cut to just the projected fields, then any column the filter still
// references but projection dropped is re-added, so pruning keeps working
// against it.
func restrictLogicalSchema(schema *arrow.Schema, projection []int, predicate tb.Expr) *arrow.Schema {
	if len(projection) == 0 {
		return schema
	}
	keep := make(map[string]bool, len(projection))
	for _, idx := range projection {
		keep[schema.Field(idx).Name] = true
	}
	for name := range referencedColumns(predicate) {
		keep[name] = true
	}
	var fields []arrow.Field
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		if keep[f.Name] {
			fields = append(fields, f)
		}
	}
	return arrow.NewSchema(fields, nil)
}

// referencedColumns walks a predicate's AST and collects every Column name
// it touches.
func referencedColumns(e tb.Expr) map[string]bool {
	out := make(map[string]bool)
	collectReferencedColumns(e, out)
	return out
}

func collectReferencedColumns(e tb.Expr, out map[string]bool) {
	switch n := e.(type) {
	case tb.Column:
		out[n.Name] = true
	case tb.BinaryExpr:
		collectReferencedColumns(n.Left, out)
		collectReferencedColumns(n.Right, out)
	case tb.Not:
		collectReferencedColumns(n.Expr, out)
	case tb.IsNull:
		collectReferencedColumns(n.Expr, out)
	case tb.IsNotNull:
		collectReferencedColumns(n.Expr, out)
	case tb.Between:
		collectReferencedColumns(n.Expr, out)
		collectReferencedColumns(n.Low, out)
		collectReferencedColumns(n.High, out)
	case tb.InList:
		collectReferencedColumns(n.Expr, out)
		for _, item := range n.List {
			collectReferencedColumns(item, out)
		}
	case tb.Case:
		if n.Operand != nil {
			collectReferencedColumns(*n.Operand, out)
		}
		for _, w := range n.Whens {
			collectReferencedColumns(w.When, out)
			collectReferencedColumns(w.Then, out)
		}
		collectReferencedColumns(n.Else, out)
	case tb.Cast:
		collectReferencedColumns(n.Expr, out)
	case tb.ScalarFunc:
		for _, a := range n.Args {
			collectReferencedColumns(a, out)
		}
	}
}

func resolvedPathColumnName(cfg tb.ScanConfig, logicalSchema *arrow.Schema) string {
	if !cfg.IncludeFilePathColumn {
		return ""
	}
	return logicalSchema.Field(logicalSchema.NumFields() - 1).Name
}

func physicalSchemaOf(logicalSchema *arrow.Schema, partitionSet map[string]bool, pathColumn string) *arrow.Schema {
	var fields []arrow.Field
	for i := 0; i < logicalSchema.NumFields(); i++ {
		f := logicalSchema.Field(i)
		if partitionSet[f.Name] || f.Name == pathColumn {
			continue
		}
		fields = append(fields, f)
	}
	return arrow.NewSchema(fields, nil)
}

func partitionSchemaOf(logicalSchema *arrow.Schema, partitionColumns []string, wrap bool) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(partitionColumns))
	for _, name := range partitionColumns {
		idx, ok := fieldIndexByName(logicalSchema, name)
		if !ok {
			continue
		}
		f := logicalSchema.Field(idx)
		f.Type = WrapPartitionType(f.Type, wrap)
		fields = append(fields, f)
	}
	return arrow.NewSchema(fields, nil)
}

// buildFileGroups partitions files by their partition-value tuple,
// decoding each raw token against the logical schema's field type, and
// returns groups in first-seen order for deterministic output.
func buildFileGroups(files []tb.FileAction, partitionColumns []string, logicalSchema *arrow.Schema) ([]tb.FileGroup, error) {
	keyIndex := make(map[string]int)
	var groups []tb.FileGroup

	for _, f := range files {
		values := make(map[string]tb.Scalar, len(partitionColumns))
		keyParts := make([]string, 0, len(partitionColumns))

		for _, col := range partitionColumns {
			idx, ok := fieldIndexByName(logicalSchema, col)
			if !ok {
				return nil, tb.NewNotFoundError("partition column '" + col + "' not present in logical schema")
			}
			fieldType := logicalSchema.Field(idx).Type

			raw := f.PartitionValues[col]
			if raw == nil {
				sc, err := NullOfType(fieldType)
				if err != nil {
					return nil, err
				}
				values[col] = sc
				keyParts = append(keyParts, col+"=\x00")
				continue
			}

			sc, matched, err := ScalarFromToken(*raw, fieldType)
			if err != nil {
				return nil, err
			}
			if !matched {
				return nil, tb.NewInvalidDataError("partition value for '"+col+"' is not a scalar", nil)
			}
			values[col] = sc
			keyParts = append(keyParts, col+"="+*raw)
		}

		key := strings.Join(keyParts, "\x1f")
		if gi, ok := keyIndex[key]; ok {
			groups[gi].Files = append(groups[gi].Files, f)
			continue
		}
		keyIndex[key] = len(groups)
		groups = append(groups, tb.FileGroup{PartitionValues: values, Files: []tb.FileAction{f}})
	}
	return groups, nil
}

// aggregateStatistics composes per-column min/max/null-count across every
// surviving file's FileStats. A column's aggregate is left nil whenever
// any contributing file lacks stats for it, rather than guessing.
func aggregateStatistics(groups []tb.FileGroup, physicalSchema *arrow.Schema) tb.AggregateStatistics {
	var numRows int64
	rowsKnown := true
	anyFile := false

	columns := make(map[string]*tb.AggregateColumnStat, physicalSchema.NumFields())
	columnOK := make(map[string]bool, physicalSchema.NumFields())
	for i := 0; i < physicalSchema.NumFields(); i++ {
		columnOK[physicalSchema.Field(i).Name] = true
	}

	for _, g := range groups {
		for _, f := range g.Files {
			anyFile = true
			if f.Stats == nil {
				rowsKnown = false
				for name := range columnOK {
					columnOK[name] = false
				}
				continue
			}
			numRows += f.Stats.NumRows

			for name := range columnOK {
				if !columnOK[name] {
					continue
				}
				cs, ok := f.Stats.Columns[name]
				if !ok {
					columnOK[name] = false
					continue
				}
				agg, exists := columns[name]
				if !exists {
					nc := cs.NullCount
					columns[name] = &tb.AggregateColumnStat{Min: cs.Min, Max: cs.Max, NullCount: nc}
					continue
				}
				mergeColumnStat(agg, cs)
			}
		}
	}

	var stats tb.AggregateStatistics
	if anyFile && rowsKnown {
		stats.NumRows = &numRows
	}
	finalColumns := make(map[string]*tb.AggregateColumnStat, len(columns))
	for name, agg := range columns {
		if columnOK[name] {
			finalColumns[name] = agg
		}
	}
	if len(finalColumns) > 0 {
		stats.Columns = finalColumns
	}
	return stats
}

func mergeColumnStat(agg *tb.AggregateColumnStat, cs tb.ColumnStats) {
	if !cs.Min.Null && !agg.Min.Null {
		if cmp, err := CompareScalars(cs.Min, agg.Min); err == nil && cmp < 0 {
			agg.Min = cs.Min
		}
	}
	if !cs.Max.Null && !agg.Max.Null {
		if cmp, err := CompareScalars(cs.Max, agg.Max); err == nil && cmp > 0 {
			agg.Max = cs.Max
		}
	}
	if agg.NullCount != nil && cs.NullCount != nil {
		sum := *agg.NullCount + *cs.NullCount
		agg.NullCount = &sum
	} else {
		agg.NullCount = nil
	}
}
