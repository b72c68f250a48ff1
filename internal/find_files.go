package internal

import (
	"context"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/google/uuid"
	tb "github.com/lychee-technology/tablebridge"
)

const findFilesPathColumn = "__find_files_path"

// FindFiles is the Find-Files operation (§4.7). It takes the cheapest path
// the predicate allows: no predicate returns every file with
// partitionScan=true; a predicate touching only partition columns is
// decided straight from the snapshot's actions table, still
// partitionScan=true; anything else falls back to an actual scan with a
// synthetic path column, deciding file membership from which paths
// produced at least one matching row.
func FindFiles(ctx context.Context, tableURI string, snapshot tb.Snapshot, predicate tb.Expr, engine tb.SQLEngine, reader tb.ColumnarReader) ([]tb.FileAction, bool, error) {
	if predicate == nil {
		return snapshot.FileActions(), true, nil
	}

	partitionColumns := snapshot.PartitionColumns()
	partitionSet := make(map[string]bool, len(partitionColumns))
	for _, p := range partitionColumns {
		partitionSet[p] = true
	}

	if ClassifyConjunct(predicate, partitionSet) {
		files, err := findFilesPartitionOnly(snapshot, predicate, partitionColumns)
		if err != nil {
			return nil, false, err
		}
		return files, true, nil
	}

	files, err := findFilesByScan(ctx, tableURI, snapshot, predicate, engine, reader)
	return files, false, err
}

func findFilesPartitionOnly(snapshot tb.Snapshot, predicate tb.Expr, partitionColumns []string) ([]tb.FileAction, error) {
	rec, err := snapshot.AddActionsTable(true)
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	pathIdx, ok := fieldIndexByName(rec.Schema(), "path")
	if !ok {
		return nil, tb.NewInternalError("actions table missing 'path' column", nil)
	}
	pathArr, ok := rec.Column(pathIdx).(*array.String)
	if !ok {
		return nil, tb.NewInternalError("actions table 'path' column has unexpected type", nil)
	}

	colIdx := make(map[string]int, len(partitionColumns))
	for _, name := range partitionColumns {
		idx, ok := fieldIndexByName(rec.Schema(), name)
		if !ok {
			return nil, tb.NewNotFoundError("partition column '" + name + "' not present in actions table")
		}
		colIdx[name] = idx
	}

	byPath := make(map[string]tb.FileAction, len(snapshot.FileActions()))
	for _, f := range snapshot.FileActions() {
		byPath[f.Path] = f
	}

	var matched []tb.FileAction
	for row := 0; row < int(rec.NumRows()); row++ {
		values := make(map[string]tb.Scalar, len(partitionColumns))
		for _, name := range partitionColumns {
			idx := colIdx[name]
			field := rec.Schema().Field(idx)
			sc, err := scalarFromArray(rec.Column(idx), field.Type, row)
			if err != nil {
				return nil, err
			}
			values[name] = sc
		}
		// A partition value holds for every row of its file; a non-zero row
		// count lets the pruner decide from that value alone.
		if evalPredicateStats(predicate, values, &tb.FileStats{NumRows: 1}) != triTrue {
			continue
		}
		path := pathArr.Value(row)
		f, ok := byPath[path]
		if !ok {
			return nil, tb.NewInternalError("find-files: matched path not present in snapshot file actions: "+path, nil)
		}
		matched = append(matched, f)
	}
	return matched, nil
}

func findFilesByScan(ctx context.Context, tableURI string, snapshot tb.Snapshot, predicate tb.Expr, engine tb.SQLEngine, reader tb.ColumnarReader) ([]tb.FileAction, error) {
	if engine == nil || reader == nil {
		return nil, tb.NewUnsupportedError("find-files: predicate requires an engine and a reader")
	}

	cfg := tb.DefaultScanConfig()
	cfg.IncludeFilePathColumn = true
	cfg.FilePathColumnName = findFilesPathColumn
	cfg.PushdownFilters = true

	plan, err := BuildScanPlan(ctx, tableURI, snapshot, cfg, nil, predicate, nil, nil, engine)
	if err != nil {
		return nil, err
	}

	predicateSQL, err := RenderExpr(predicate)
	if err != nil {
		return nil, err
	}

	stream, err := reader.Scan(ctx, plan)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	distinctPaths := make(map[string]bool)
	for {
		batch, err := stream.Next(ctx)
		if err != nil {
			return nil, err
		}
		if batch == nil {
			break
		}
		if err := collectMatchingPaths(ctx, engine, batch, predicateSQL, distinctPaths); err != nil {
			batch.Release()
			return nil, err
		}
		batch.Release()
	}

	byPath := make(map[string]tb.FileAction, len(snapshot.FileActions()))
	for _, f := range snapshot.FileActions() {
		byPath[f.Path] = f
	}

	var matched []tb.FileAction
	for path := range distinctPaths {
		f, ok := byPath[path]
		if !ok {
			return nil, tb.NewInternalError("find-files: matched path not present in snapshot file actions: "+path, nil)
		}
		matched = append(matched, f)
	}
	return matched, nil
}

func collectMatchingPaths(ctx context.Context, engine tb.SQLEngine, batch arrow.Record, predicateSQL string, distinctPaths map[string]bool) error {
	tmpName := "tablebridge_find_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := engine.RegisterBatch(ctx, tmpName, batch); err != nil {
		return tb.NewInternalError("registering batch for find-files", err)
	}
	defer func() { _ = engine.Deregister(ctx, tmpName) }()

	sql := "SELECT DISTINCT " + quoteIdent(findFilesPathColumn) + " FROM " + tmpName + " WHERE " + predicateSQL
	records, err := engine.Query(ctx, sql)
	if err != nil {
		return tb.NewInternalError("evaluating find-files predicate", err)
	}
	for _, rec := range records {
		pathIdx, ok := fieldIndexByName(rec.Schema(), findFilesPathColumn)
		if !ok {
			continue
		}
		arr, ok := rec.Column(pathIdx).(*array.String)
		if !ok {
			continue
		}
		for row := 0; row < int(rec.NumRows()); row++ {
			if !arr.IsNull(row) {
				distinctPaths[arr.Value(row)] = true
			}
		}
	}
	return nil
}

// scalarFromArray reads a single value out of arr at row i as a Scalar,
// covering the primitive types partition columns realistically take.
func scalarFromArray(arr arrow.Array, fieldType arrow.DataType, i int) (tb.Scalar, error) {
	if arr.IsNull(i) {
		return tb.NewNullScalar(fieldType), nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return tb.NewScalar(fieldType, a.Value(i)), nil
	case *array.Int8:
		return tb.NewScalar(fieldType, int64(a.Value(i))), nil
	case *array.Int16:
		return tb.NewScalar(fieldType, int64(a.Value(i))), nil
	case *array.Int32:
		return tb.NewScalar(fieldType, int64(a.Value(i))), nil
	case *array.Int64:
		return tb.NewScalar(fieldType, a.Value(i)), nil
	case *array.Uint8:
		return tb.NewScalar(fieldType, int64(a.Value(i))), nil
	case *array.Uint16:
		return tb.NewScalar(fieldType, int64(a.Value(i))), nil
	case *array.Uint32:
		return tb.NewScalar(fieldType, int64(a.Value(i))), nil
	case *array.Uint64:
		return tb.NewScalar(fieldType, int64(a.Value(i))), nil
	case *array.Float32:
		return tb.NewScalar(fieldType, float64(a.Value(i))), nil
	case *array.Float64:
		return tb.NewScalar(fieldType, a.Value(i)), nil
	case *array.String:
		return tb.NewScalar(fieldType, a.Value(i)), nil
	case *array.LargeString:
		return tb.NewScalar(fieldType, a.Value(i)), nil
	case *array.Binary:
		return tb.NewScalar(fieldType, a.Value(i)), nil
	case *array.Date32:
		return tb.NewScalar(fieldType, int64(a.Value(i))), nil
	case *array.Date64:
		return tb.NewScalar(fieldType, int64(a.Value(i))), nil
	case *array.Timestamp:
		return tb.NewScalar(fieldType, int64(a.Value(i))), nil
	default:
		return tb.Scalar{}, tb.NewUnsupportedError("find-files: unsupported partition array type")
	}
}
