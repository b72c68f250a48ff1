package tablebridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnd_FoldsLeftAssociative(t *testing.T) {
	a := Column{Name: "a"}
	b := Column{Name: "b"}
	c := Column{Name: "c"}

	got := And(a, b, c)
	want := BinaryExpr{Left: BinaryExpr{Left: a, Op: OpAnd, Right: b}, Op: OpAnd, Right: c}
	assert.Equal(t, want, got)
}

func TestAnd_SingleExprReturnedUnchanged(t *testing.T) {
	a := Column{Name: "a"}
	assert.Equal(t, a, And(a))
}

func TestAnd_NilExprsAreSkipped(t *testing.T) {
	a := Column{Name: "a"}
	assert.Equal(t, a, And(nil, a, nil))
}

func TestAnd_AllNilYieldsNil(t *testing.T) {
	assert.Nil(t, And(nil, nil))
}

func TestOr_FoldsLeftAssociative(t *testing.T) {
	a := Column{Name: "a"}
	b := Column{Name: "b"}
	got := Or(a, b)
	want := BinaryExpr{Left: a, Op: OpOr, Right: b}
	assert.Equal(t, want, got)
}

func TestSplitConjunction_FlattensNestedAnds(t *testing.T) {
	a := Column{Name: "a"}
	b := Column{Name: "b"}
	c := Column{Name: "c"}
	tree := And(a, b, c)

	assert.Equal(t, []Expr{a, b, c}, SplitConjunction(tree))
}

func TestSplitConjunction_OrIsNotSplit(t *testing.T) {
	a := Column{Name: "a"}
	b := Column{Name: "b"}
	disjunction := Or(a, b)
	assert.Equal(t, []Expr{disjunction}, SplitConjunction(disjunction))
}

func TestSplitConjunction_NilYieldsNil(t *testing.T) {
	assert.Nil(t, SplitConjunction(nil))
}
