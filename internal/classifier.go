package internal

import tb "github.com/lychee-technology/tablebridge"

var allowedClassifierOps = map[tb.Operator]bool{
	tb.OpAnd: true, tb.OpOr: true,
	tb.OpEq: true, tb.OpNotEq: true,
	tb.OpLt: true, tb.OpLtEq: true,
	tb.OpGt: true, tb.OpGtEq: true,
}

// ClassifyConjunct implements §4.3: a conjunct is exact iff every column
// reference names a partition column, every binary operator is a boolean
// connective or comparison, every node is from the allowed leaf/combinator
// set, and it references at least one column. Anything else downgrades to
// inexact — the classifier never rejects an expression outright.
func ClassifyConjunct(e tb.Expr, partitionColumns map[string]bool) bool {
	hasColumn, ok := classifyWalk(e, partitionColumns)
	return ok && hasColumn
}

func classifyWalk(e tb.Expr, partitionColumns map[string]bool) (hasColumn bool, ok bool) {
	switch n := e.(type) {
	case tb.Column:
		return true, partitionColumns[n.Name]
	case tb.Literal:
		return false, true
	case tb.BinaryExpr:
		if !allowedClassifierOps[n.Op] {
			return false, false
		}
		lHas, lOk := classifyWalk(n.Left, partitionColumns)
		rHas, rOk := classifyWalk(n.Right, partitionColumns)
		return lHas || rHas, lOk && rOk
	case tb.Not:
		return classifyWalk(n.Expr, partitionColumns)
	case tb.IsNull:
		return classifyWalk(n.Expr, partitionColumns)
	case tb.IsNotNull:
		return classifyWalk(n.Expr, partitionColumns)
	case tb.Between:
		eHas, eOk := classifyWalk(n.Expr, partitionColumns)
		lHas, lOk := classifyWalk(n.Low, partitionColumns)
		hHas, hOk := classifyWalk(n.High, partitionColumns)
		return eHas || lHas || hHas, eOk && lOk && hOk
	case tb.InList:
		eHas, eOk := classifyWalk(n.Expr, partitionColumns)
		ok = eOk
		hasColumn = eHas
		for _, item := range n.List {
			h, o := classifyWalk(item, partitionColumns)
			hasColumn = hasColumn || h
			ok = ok && o
		}
		return hasColumn, ok
	default:
		// Case, Cast, ScalarFunc, and anything else not in the allowed
		// leaf set: downgrade to inexact rather than reject.
		return false, false
	}
}

// ClassifyAll splits a predicate into its conjuncts and classifies each,
// returning the exact and inexact conjuncts separately (§4.5 step 5: the
// pushdown filter is the conjunction of inexact conjuncts only).
func ClassifyAll(predicate tb.Expr, partitionColumns map[string]bool) (exact, inexact []tb.Expr) {
	for _, conjunct := range tb.SplitConjunction(predicate) {
		if ClassifyConjunct(conjunct, partitionColumns) {
			exact = append(exact, conjunct)
		} else {
			inexact = append(inexact, conjunct)
		}
	}
	return exact, inexact
}
