package internal

import (
	"fmt"
	"strconv"
	"strings"

	tb "github.com/lychee-technology/tablebridge"
)

// RenderExpr compiles an Expr tree to a SQL boolean expression the
// registered SQLEngine can evaluate directly. Operator's string values
// (AND, OR, =, !=, <, <=, >, >=) are already valid SQL tokens, so
// BinaryExpr needs no operator translation table.
func RenderExpr(e tb.Expr) (string, error) {
	switch n := e.(type) {
	case tb.Column:
		return quoteIdent(n.Name), nil
	case tb.Literal:
		return renderLiteral(n.Value)
	case tb.BinaryExpr:
		left, err := RenderExpr(n.Left)
		if err != nil {
			return "", err
		}
		right, err := RenderExpr(n.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, string(n.Op), right), nil
	case tb.Not:
		inner, err := RenderExpr(n.Expr)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(NOT %s)", inner), nil
	case tb.IsNull:
		inner, err := RenderExpr(n.Expr)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s IS NULL)", inner), nil
	case tb.IsNotNull:
		inner, err := RenderExpr(n.Expr)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s IS NOT NULL)", inner), nil
	case tb.Between:
		expr, err := RenderExpr(n.Expr)
		if err != nil {
			return "", err
		}
		low, err := RenderExpr(n.Low)
		if err != nil {
			return "", err
		}
		high, err := RenderExpr(n.High)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s BETWEEN %s AND %s)", expr, low, high), nil
	case tb.InList:
		expr, err := RenderExpr(n.Expr)
		if err != nil {
			return "", err
		}
		items := make([]string, 0, len(n.List))
		for _, item := range n.List {
			rendered, err := RenderExpr(item)
			if err != nil {
				return "", err
			}
			items = append(items, rendered)
		}
		verb := "IN"
		if n.Negated {
			verb = "NOT IN"
		}
		return fmt.Sprintf("(%s %s (%s))", expr, verb, strings.Join(items, ", ")), nil
	case tb.Case:
		var b strings.Builder
		b.WriteString("CASE")
		if n.Operand != nil {
			operand, err := RenderExpr(*n.Operand)
			if err != nil {
				return "", err
			}
			b.WriteString(" " + operand)
		}
		for _, w := range n.Whens {
			when, err := RenderExpr(w.When)
			if err != nil {
				return "", err
			}
			then, err := RenderExpr(w.Then)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, " WHEN %s THEN %s", when, then)
		}
		if n.Else != nil {
			elseExpr, err := RenderExpr(n.Else)
			if err != nil {
				return "", err
			}
			b.WriteString(" ELSE " + elseExpr)
		}
		b.WriteString(" END")
		return b.String(), nil
	case tb.Cast:
		inner, err := RenderExpr(n.Expr)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("CAST(%s AS %s)", inner, n.TargetType), nil
	case tb.ScalarFunc:
		args := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			rendered, err := RenderExpr(a)
			if err != nil {
				return "", err
			}
			args = append(args, rendered)
		}
		return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ", ")), nil
	default:
		return "", tb.NewUnsupportedError(fmt.Sprintf("sql rendering unsupported for %T", e))
	}
}

func renderLiteral(v tb.Scalar) (string, error) {
	if v.Null {
		return "NULL", nil
	}
	switch val := v.Value.(type) {
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'", nil
	case []byte:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'", nil
	default:
		return "", tb.NewUnsupportedError(fmt.Sprintf("sql literal rendering unsupported for %T", v.Value))
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
