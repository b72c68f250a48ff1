package internal

import tb "github.com/lychee-technology/tablebridge"

// tri is Kleene three-valued logic: a file's stats bound a range of
// possible values, not a single value, so a comparison against them can
// come out definitely true, definitely false, or unknown — and unknown
// must never be treated as false (§4.4: the Pruner is conservative, it
// only ever discards a file it can prove contains no matching row).
type tri int

const (
	triUnknown tri = iota
	triTrue
	triFalse
)

func triNot(t tri) tri {
	switch t {
	case triTrue:
		return triFalse
	case triFalse:
		return triTrue
	default:
		return triUnknown
	}
}

func triAnd(a, b tri) tri {
	if a == triFalse || b == triFalse {
		return triFalse
	}
	if a == triTrue && b == triTrue {
		return triTrue
	}
	return triUnknown
}

func triOr(a, b tri) tri {
	if a == triTrue || b == triTrue {
		return triTrue
	}
	if a == triFalse && b == triFalse {
		return triFalse
	}
	return triUnknown
}

// PruneFileGroup evaluates predicate against every file in group using its
// partition values (exact, shared by every row in the file) and its
// per-column FileStats (a range, not an exact value), keeping a file
// unless the predicate is provably triFalse for every row it could
// contain. It returns the surviving files and a count of files discarded.
func PruneFileGroup(group tb.FileGroup, predicate tb.Expr) ([]tb.FileAction, int64) {
	if predicate == nil {
		return group.Files, 0
	}
	var kept []tb.FileAction
	var pruned int64
	for _, f := range group.Files {
		if evalPredicateStats(predicate, group.PartitionValues, f.Stats) == triFalse {
			pruned++
			continue
		}
		kept = append(kept, f)
	}
	return kept, pruned
}

// PruneFileGroups applies PruneFileGroup across every group, dropping
// groups left with zero files, and returns the total files pruned.
func PruneFileGroups(groups []tb.FileGroup, predicate tb.Expr) ([]tb.FileGroup, int64) {
	var out []tb.FileGroup
	var totalPruned int64
	for _, g := range groups {
		kept, pruned := PruneFileGroup(g, predicate)
		totalPruned += pruned
		if len(kept) > 0 {
			out = append(out, tb.FileGroup{PartitionValues: g.PartitionValues, Files: kept})
		}
	}
	return out, totalPruned
}

func evalPredicateStats(e tb.Expr, partitionValues map[string]tb.Scalar, stats *tb.FileStats) tri {
	switch n := e.(type) {
	case tb.BinaryExpr:
		switch n.Op {
		case tb.OpAnd:
			return triAnd(evalPredicateStats(n.Left, partitionValues, stats), evalPredicateStats(n.Right, partitionValues, stats))
		case tb.OpOr:
			return triOr(evalPredicateStats(n.Left, partitionValues, stats), evalPredicateStats(n.Right, partitionValues, stats))
		default:
			return evalComparison(n.Op, n.Left, n.Right, partitionValues, stats)
		}
	case tb.Not:
		return triNot(evalPredicateStats(n.Expr, partitionValues, stats))
	case tb.IsNull:
		return evalNullTest(n.Expr, partitionValues, stats, true)
	case tb.IsNotNull:
		return evalNullTest(n.Expr, partitionValues, stats, false)
	case tb.Between:
		lower := evalComparison(tb.OpGtEq, n.Expr, n.Low, partitionValues, stats)
		upper := evalComparison(tb.OpLtEq, n.Expr, n.High, partitionValues, stats)
		return triAnd(lower, upper)
	case tb.InList:
		result := triFalse
		for _, item := range n.List {
			result = triOr(result, evalComparison(tb.OpEq, n.Expr, item, partitionValues, stats))
		}
		if n.Negated {
			return triNot(result)
		}
		return result
	default:
		// Case, Cast, ScalarFunc, bare Column/Literal as a standalone
		// predicate: no statistical basis to prove falsity.
		return triUnknown
	}
}

func evalNullTest(operand tb.Expr, partitionValues map[string]tb.Scalar, stats *tb.FileStats, wantNull bool) tri {
	col, ok := operand.(tb.Column)
	if !ok {
		return triUnknown
	}
	cs, numRows, ok := effectiveColumnStats(col.Name, partitionValues, stats)
	if !ok || cs.NullCount == nil || numRows == 0 {
		return triUnknown
	}
	allNull := *cs.NullCount == numRows
	noneNull := *cs.NullCount == 0
	switch {
	case wantNull && allNull:
		return triTrue
	case wantNull && noneNull:
		return triFalse
	case !wantNull && noneNull:
		return triTrue
	case !wantNull && allNull:
		return triFalse
	default:
		return triUnknown
	}
}

// evalComparison handles `column OP literal` and its mirror `literal OP
// column`, resolving the column to its [min, max] range and deciding
// whether the comparison holds for every possible value in that range
// (triTrue), no possible value (triFalse), or neither (triUnknown).
func evalComparison(op tb.Operator, left, right tb.Expr, partitionValues map[string]tb.Scalar, stats *tb.FileStats) tri {
	if col, lit, ok := asColumnLiteral(left, right); ok {
		return compareRangeToLiteral(op, col, lit, partitionValues, stats)
	}
	if col, lit, ok := asColumnLiteral(right, left); ok {
		return compareRangeToLiteral(flipOperator(op), col, lit, partitionValues, stats)
	}
	return triUnknown
}

func asColumnLiteral(a, b tb.Expr) (tb.Column, tb.Literal, bool) {
	col, colOk := a.(tb.Column)
	lit, litOk := b.(tb.Literal)
	return col, lit, colOk && litOk
}

func flipOperator(op tb.Operator) tb.Operator {
	switch op {
	case tb.OpLt:
		return tb.OpGt
	case tb.OpLtEq:
		return tb.OpGtEq
	case tb.OpGt:
		return tb.OpLt
	case tb.OpGtEq:
		return tb.OpLtEq
	default:
		return op
	}
}

func compareRangeToLiteral(op tb.Operator, col tb.Column, lit tb.Literal, partitionValues map[string]tb.Scalar, stats *tb.FileStats) tri {
	if lit.Value.Null {
		// comparisons against NULL are never satisfied, but a column that
		// might itself be null makes this uncertain rather than provably
		// false; only nullability stats could settle it, and the only
		// place that's asked explicitly is IsNull/IsNotNull.
		return triUnknown
	}
	cs, numRows, ok := effectiveColumnStats(col.Name, partitionValues, stats)
	if !ok || cs.Min.Null || cs.Max.Null || numRows == 0 {
		return triUnknown
	}
	minCmp, err := CompareScalars(cs.Min, lit.Value)
	if err != nil {
		return triUnknown
	}
	maxCmp, err := CompareScalars(cs.Max, lit.Value)
	if err != nil {
		return triUnknown
	}
	switch op {
	case tb.OpEq:
		if minCmp == 0 && maxCmp == 0 {
			return triTrue
		}
		if minCmp > 0 || maxCmp < 0 {
			return triFalse
		}
		return triUnknown
	case tb.OpNotEq:
		if minCmp > 0 || maxCmp < 0 {
			return triTrue
		}
		if minCmp == 0 && maxCmp == 0 {
			return triFalse
		}
		return triUnknown
	case tb.OpLt:
		if maxCmp < 0 {
			return triTrue
		}
		if minCmp >= 0 {
			return triFalse
		}
		return triUnknown
	case tb.OpLtEq:
		if maxCmp <= 0 {
			return triTrue
		}
		if minCmp > 0 {
			return triFalse
		}
		return triUnknown
	case tb.OpGt:
		if minCmp > 0 {
			return triTrue
		}
		if maxCmp <= 0 {
			return triFalse
		}
		return triUnknown
	case tb.OpGtEq:
		if minCmp >= 0 {
			return triTrue
		}
		if maxCmp < 0 {
			return triFalse
		}
		return triUnknown
	default:
		return triUnknown
	}
}

// effectiveColumnStats resolves name to a [min, max, nullCount] view and
// the file's row count, whether name is a partition column (exact value,
// shared across every row) or a data column (range from FileStats).
func effectiveColumnStats(name string, partitionValues map[string]tb.Scalar, stats *tb.FileStats) (tb.ColumnStats, int64, bool) {
	numRows := int64(0)
	if stats != nil {
		numRows = stats.NumRows
	}
	if v, ok := partitionValues[name]; ok {
		if v.Null {
			nc := numRows
			return tb.ColumnStats{NullCount: &nc}, numRows, true
		}
		zero := int64(0)
		return tb.ColumnStats{Min: v, Max: v, NullCount: &zero}, numRows, true
	}
	if stats == nil {
		return tb.ColumnStats{}, 0, false
	}
	cs, ok := stats.Columns[name]
	return cs, numRows, ok
}

// ApplyLimitPushdown truncates file groups once enough rows are definitely
// available to satisfy limit. A file's row count only counts toward the
// remaining budget when predicate is nil (every row in the file
// definitely passes) and the file carries stats; every other file walked
// before the budget is met — missing stats, or an inexact predicate still
// to apply downstream — is deferred to a side list rather than counted or
// immediately kept. The side list is appended back only if the walk never
// satisfied the limit using stat'd files alone; once a stat'd file alone
// reaches the limit, the walk stops and every deferred file seen so far,
// plus every file after the stopping point, is dropped.
func ApplyLimitPushdown(groups []tb.FileGroup, predicate tb.Expr, limit *int64) []tb.FileGroup {
	if limit == nil {
		return groups
	}

	type located struct {
		group int
		file  tb.FileAction
	}
	var walk []located
	for gi, g := range groups {
		for _, f := range g.Files {
			walk = append(walk, located{gi, f})
		}
	}

	kept := make([]bool, len(walk))
	var deferred []int
	remaining := *limit
	for i, lf := range walk {
		if remaining <= 0 {
			break
		}
		if predicate == nil && lf.file.Stats != nil {
			kept[i] = true
			remaining -= lf.file.Stats.NumRows
			continue
		}
		deferred = append(deferred, i)
	}
	if remaining > 0 {
		for _, i := range deferred {
			kept[i] = true
		}
	}

	idx := 0
	var out []tb.FileGroup
	for _, g := range groups {
		var files []tb.FileAction
		for _, f := range g.Files {
			if kept[idx] {
				files = append(files, f)
			}
			idx++
		}
		if len(files) > 0 {
			out = append(out, tb.FileGroup{PartitionValues: g.PartitionValues, Files: files})
		}
	}
	return out
}
