package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/pkg/types"
)

func col(parts ...string) *ColumnRef { return &ColumnRef{Parts: parts} }

func TestWalk_VisitsNestedQueries(t *testing.T) {
	inner := &Select{
		Items: []*SelectItem{{Expr: col("e2")}},
		From:  []TableRef{&TableName{Parts: []string{"pm1", "g2"}}},
		Where: &BinaryExpr{Left: col("g2", "e1"), Right: col("g1", "e1")},
	}
	outer := &Select{
		Items: []*SelectItem{{Expr: col("e1")}, {Star: true, Expanded: []*ColumnRef{col("g1", "e3")}}},
		From:  []TableRef{&TableName{Parts: []string{"pm1", "g1"}}},
		Where: &InExpr{Expr: col("e2"), Query: inner},
	}

	refs := ColumnRefs(outer)
	var names []string
	for _, r := range refs {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"e1", "e3", "e2", "e2", "e1", "e1"}, names)
}

func TestWalk_SkipChildren(t *testing.T) {
	sub := &SubqueryExpr{Query: &Select{Items: []*SelectItem{{Expr: col("x")}}}}
	root := &BinaryExpr{Left: col("a"), Right: sub}

	var seen int
	Walk(root, func(n Node) bool {
		if _, ok := n.(*ColumnRef); ok {
			seen++
		}
		_, isSub := n.(*SubqueryExpr)
		return !isSub
	})
	assert.Equal(t, 1, seen)
}

func TestWalk_NilChildren(t *testing.T) {
	var nilSelect *Select
	Walk(nilSelect, func(Node) bool {
		t.Fatal("visited typed nil")
		return true
	})

	stmt := &If{Cond: col("b"), Then: &Block{}}
	var count int
	Walk(stmt, func(Node) bool { count++; return true })
	assert.Equal(t, 3, count)
}

func TestImplicitCast(t *testing.T) {
	lit := &Literal{Kind: LiteralNumber, Value: "1"}
	lit.SetType(types.Integer)

	c := NewImplicitCast(lit, types.String)
	assert.True(t, c.Implicit)
	assert.Equal(t, types.String, c.Type())
	assert.Same(t, lit, StripImplicit(c))

	explicit := &CastExpr{Expr: c, Target: types.Long}
	assert.Same(t, explicit, StripImplicit(explicit))
}

func TestSetQuery_Branches(t *testing.T) {
	a, b, c := &Select{}, &Select{}, &Select{Paren: true}
	q := &SetQuery{Op: SetOpUnion, Left: &SetQuery{Op: SetOpUnion, Left: a, Right: b}, Right: c}

	branches := q.Branches()
	require.Len(t, branches, 3)
	assert.Same(t, a, branches[0])
	assert.Same(t, c, branches[2])
}

func TestGroupSymbol_Column(t *testing.T) {
	g := &GroupSymbol{Name: "pm1.g1", Definition: "pm1.g1"}
	e := g.AddColumn("E1", types.String)

	assert.Same(t, e, g.Column("e1"))
	assert.Nil(t, g.Column("e2"))
	assert.Equal(t, "pm1.g1.E1", e.QualifiedName())
	assert.False(t, e.IsVariable())

	g.Alias = "x"
	assert.Equal(t, "pm1.g1 AS x", g.String())
}
