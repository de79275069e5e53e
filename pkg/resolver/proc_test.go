package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/internal/testutil"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/format"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

func mustResolveBlock(t *testing.T, r *Resolver, sql string) *core.Block {
	t.Helper()
	b, ok := mustResolve(t, r, sql).(*core.Block)
	require.True(t, ok)
	return b
}

func TestResolve_NestedDeclarationShadows(t *testing.T) {
	const sql = `BEGIN
  DECLARE integer var1 = 1;
  IF (var1 > 0)
  BEGIN
    DECLARE boolean var1 = TRUE;
    var1 = FALSE;
  END
  var1 = 2;
END`
	b := mustResolveBlock(t, newTestResolver(t), sql)
	require.Len(t, b.Stmts, 3)

	outer := b.Stmts[0].(*core.Declare)
	require.NotNil(t, outer.Name.Element)
	assert.Equal(t, types.Integer, outer.Name.Element.Type)
	assert.True(t, outer.Name.Element.IsVariable())

	ifStmt := b.Stmts[1].(*core.If)
	cond := ifStmt.Cond.(*core.BinaryExpr)
	assert.Same(t, outer.Name.Element, cond.Left.(*core.ColumnRef).Element)

	inner := ifStmt.Then.Stmts[0].(*core.Declare)
	assert.Equal(t, types.Boolean, inner.Name.Element.Type)
	assert.NotSame(t, outer.Name.Element, inner.Name.Element)

	innerAssign := ifStmt.Then.Stmts[1].(*core.Assign)
	assert.Same(t, inner.Name.Element, innerAssign.Target.Element)
	assert.IsType(t, &core.Literal{}, innerAssign.Value)

	after := b.Stmts[2].(*core.Assign)
	assert.Same(t, outer.Name.Element, after.Target.Element)
	assert.Equal(t, types.Integer, after.Value.Type())
}

func TestResolve_BlockIsIdempotent(t *testing.T) {
	r := newTestResolver(t)
	stmt, err := resolveSQL(t, r, `BEGIN
  DECLARE long total = 0;
  LOOP ON (SELECT e2 FROM pm1.g1) AS c
  BEGIN
    total = total + c.e2;
  END
  DECLARE string label = total;
END`, nil)
	require.NoError(t, err)
	first := format.String(stmt)

	require.NoError(t, r.Resolve(stmt, nil))
	assert.Equal(t, first, format.String(stmt))
}

func TestResolve_BlockMetadata(t *testing.T) {
	b := mustResolveBlock(t, newTestResolver(t), "BEGIN DECLARE integer x = 1; DECLARE string y; END")

	vars := b.Temp[catalog.Fold(VariablesGroup)]
	require.NotNil(t, vars)
	assert.Equal(t, core.GroupVariables, vars.Kind)
	// The outermost block also declares ROWCOUNT.
	require.NotNil(t, vars.Column(RowCountVariable))
	assert.Equal(t, types.Integer, vars.Column(RowCountVariable).Type)
	assert.Equal(t, types.String, vars.Column("y").Type)
}

func TestResolve_DeclarationConversions(t *testing.T) {
	r := newTestResolver(t)

	b := mustResolveBlock(t, r, "BEGIN DECLARE short s = 5; DECLARE double d = 1; DECLARE integer VARIABLES.n = ROWCOUNT; END")
	short := b.Stmts[0].(*core.Declare).Init.(*core.CastExpr)
	assert.Equal(t, types.Short, short.Target)
	assert.True(t, short.Implicit)
	assert.Equal(t, types.Double, b.Stmts[1].(*core.Declare).Init.Type())
	assert.IsType(t, &core.ColumnRef{}, b.Stmts[2].(*core.Declare).Init)

	// The initializer sees the enclosing variable, not the one being declared.
	b = mustResolveBlock(t, r, "BEGIN DECLARE integer x = 1; IF (TRUE) BEGIN DECLARE string x = x; END END")
	outer := b.Stmts[0].(*core.Declare)
	inner := b.Stmts[1].(*core.If).Then.Stmts[0].(*core.Declare)
	cast := inner.Init.(*core.CastExpr)
	assert.Same(t, outer.Name.Element, cast.Expr.(*core.ColumnRef).Element)
}

func TestResolve_ProcedureErrors(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		reason Reason
	}{
		{name: "redeclared in the same block", sql: "BEGIN DECLARE integer x; DECLARE string x; END", reason: ReasonVariableRedeclared},
		{name: "redeclared case-insensitively", sql: "BEGIN DECLARE integer x; DECLARE integer X; END", reason: ReasonVariableRedeclared},
		{name: "rowcount is implicit", sql: "BEGIN DECLARE integer ROWCOUNT; END", reason: ReasonVariableRedeclared},
		{name: "qualified declaration", sql: "BEGIN DECLARE integer pm1.x; END", reason: ReasonNotAssignable},
		{name: "undeclared assignment", sql: "BEGIN x = 1; END", reason: ReasonNotAssignable},
		{name: "assignment type", sql: "BEGIN DECLARE integer x; x = 'a'; END", reason: ReasonNoConversion},
		{name: "declaration type", sql: "BEGIN DECLARE date d = TRUE; END", reason: ReasonNoConversion},
		{name: "constant outside integer range", sql: "BEGIN DECLARE integer x = 3000000000; END", reason: ReasonNotRepresentable},
		{name: "constant outside short range", sql: "BEGIN DECLARE short s = 70000; END", reason: ReasonNotRepresentable},
		{name: "variable out of scope", sql: "BEGIN IF (TRUE) BEGIN DECLARE integer x; END x = 1; END", reason: ReasonNotAssignable},
		{name: "break outside loop", sql: "BEGIN BREAK; END", reason: ReasonLoopControl},
		{name: "continue outside loop", sql: "BEGIN IF (TRUE) BEGIN CONTINUE; END END", reason: ReasonLoopControl},
		{name: "non-boolean condition", sql: "BEGIN WHILE (1) BEGIN BREAK; END END", reason: ReasonCriteria},
		{name: "nested cursor reuse", sql: `BEGIN
  LOOP ON (SELECT e1 FROM pm1.g1) AS c
  BEGIN
    LOOP ON (SELECT e2 FROM pm1.g2) AS C BEGIN BREAK; END
  END
END`, reason: ReasonCursorReused},
		{name: "cursor is read-only", sql: "BEGIN LOOP ON (SELECT e2 FROM pm1.g1) AS c BEGIN c.e2 = 1; END END", reason: ReasonNotAssignable},
		{name: "cursor out of scope", sql: "BEGIN LOOP ON (SELECT e2 FROM pm1.g1) AS c BEGIN BREAK; END DECLARE integer y = c.e2; END", reason: ReasonElementNotFound},
		{name: "error expression", sql: "BEGIN ERROR nope; END", reason: ReasonElementNotFound},
		{name: "dynamic sql into without columns", sql: "BEGIN EXECUTE STRING 'SELECT 1' INTO #t; END", reason: ReasonInvalidDefinition},
		{name: "dynamic sql duplicate using", sql: "BEGIN EXECUTE STRING 'SELECT 1' USING a = 1, A = 2; END", reason: ReasonParameter},
		{name: "dynamic sql duplicate columns", sql: "BEGIN EXECUTE STRING 'SELECT 1, 2' AS a integer, a integer; END", reason: ReasonDuplicateColumn},
	}
	r := newTestResolver(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveSQL(t, r, tt.sql, nil)
			requireReason(t, err, tt.reason)
		})
	}
}

func TestResolve_PseudoGroupsAreReadOnly(t *testing.T) {
	r := newTestResolver(t)
	env := &Environment{UpdateTarget: []string{"pm1", "g1"}}

	_, err := resolveSQL(t, r, "BEGIN INPUT.e1 = 'x'; END", env)
	re := requireReason(t, err, ReasonNotAssignable)
	assert.Contains(t, re.Message, "read-only")

	_, err = resolveSQL(t, r, "BEGIN DECLARE boolean b = CHANGING.e1; DECLARE string s = INPUT.e1; END", env)
	require.NoError(t, err)
}

func TestResolve_Loops(t *testing.T) {
	r := newTestResolver(t)
	b := mustResolveBlock(t, r, `BEGIN
  DECLARE integer total = 0;
  LOOP ON (SELECT e1, e2 AS n FROM pm1.g1) AS c
  BEGIN
    IF (c.n IS NULL)
    BEGIN
      CONTINUE;
    END
    total = total + n;
  END
  WHILE (total > 0)
  BEGIN
    total = total - 1;
    BREAK;
  END
END`)

	loop := b.Stmts[1].(*core.Loop)
	require.NotNil(t, loop.Group)
	assert.Equal(t, core.GroupCursor, loop.Group.Kind)
	assert.True(t, loop.Group.ReadOnly)
	assert.Same(t, loop.Group, loop.Temp[catalog.Fold("c")])
	require.Len(t, loop.Group.Columns, 2)
	assert.Equal(t, "n", loop.Group.Columns[1].Name)
	assert.Equal(t, types.Integer, loop.Group.Columns[1].Type)

	sum := loop.Body.Stmts[1].(*core.Assign).Value.(*core.BinaryExpr)
	assert.Same(t, loop.Group, sum.Right.(*core.ColumnRef).Element.Group)

	// Sibling loops may reuse a cursor name.
	mustResolveBlock(t, r, `BEGIN
  LOOP ON (SELECT e1 FROM pm1.g1) AS c BEGIN BREAK; END
  LOOP ON (SELECT e2 FROM pm1.g2) AS c BEGIN BREAK; END
END`)
}

func TestResolve_DynamicSQL(t *testing.T) {
	r := newTestResolver(t)
	b := mustResolveBlock(t, r, `BEGIN
  DECLARE string q = 'SELECT e1, e2 FROM pm1.g1';
  EXECUTE STRING q AS a string, b integer INTO #dyn USING x = 1;
  SELECT a, b FROM #dyn;
END`)

	x := b.Stmts[1].(*core.ExecString)
	require.Len(t, x.Columns, 2)
	assert.Equal(t, types.Integer, x.Columns[1].Type)
	require.NotNil(t, x.Into.Group)
	assert.Equal(t, core.GroupTemp, x.Into.Group.Kind)

	sel := b.Stmts[2].(*core.Select)
	from := sel.From[0].(*core.TableName).Group
	assert.Equal(t, core.GroupTemp, from.Kind)
	assert.Same(t, x, from.Source)
	assert.Equal(t, types.Integer, sel.Columns[1].Type)

	// An existing target must match the declared shape.
	_, err := resolveSQL(t, r, "BEGIN EXECUTE STRING 'SELECT 1' AS a integer INTO pm1.g1; END", nil)
	requireReason(t, err, ReasonArity)
}

func TestResolveProcedure(t *testing.T) {
	r := newTestResolver(t)
	body, err := r.ResolveProcedure([]string{"vm1", "proc"})
	require.NoError(t, err)
	require.Len(t, body.Stmts, 3)

	decl := body.Stmts[0].(*core.Declare)
	param := decl.Init.(*core.ColumnRef)
	require.NotNil(t, param.Element)
	assert.Equal(t, core.GroupProcedure, param.Element.Group.Kind)
	assert.Equal(t, "vm1.proc.in1", param.Element.QualifiedName())

	assign := body.Stmts[1].(*core.Assign)
	assert.Equal(t, "out1", assign.Target.Element.Name)

	sel := body.Stmts[2].(*core.Select)
	cmp := sel.Where.(*core.BinaryExpr)
	x := cmp.Right.(*core.ColumnRef)
	assert.Same(t, decl.Name.Element, x.Element)
	assert.False(t, x.Correlated, "variables are not correlated references")
}

func TestResolveProcedure_Errors(t *testing.T) {
	m := testutil.NewCatalog(t)
	require.NoError(t, m.AddProcedure(&catalog.Procedure{
		Name:    []string{"vm1", "setsIn"},
		Params:  []*catalog.Parameter{{Name: "in1", Type: types.Integer}},
		Virtual: true,
		Body:    "BEGIN in1 = 1; END",
	}))
	require.NoError(t, m.AddProcedure(&catalog.Procedure{
		Name:    []string{"vm1", "broken"},
		Virtual: true,
		Body:    "BEGIN SELECT FROM; END",
	}))
	require.NoError(t, m.AddProcedure(&catalog.Procedure{Name: []string{"vm1", "empty"}, Virtual: true}))
	r := New(m, Options{Logger: testutil.NewTestLogger(t)})

	tests := []struct {
		name   string
		path   []string
		reason Reason
	}{
		{name: "input parameter is not assignable", path: []string{"vm1", "setsIn"}, reason: ReasonNotAssignable},
		{name: "body does not parse", path: []string{"vm1", "broken"}, reason: ReasonInvalidDefinition},
		{name: "no body", path: []string{"vm1", "empty"}, reason: ReasonInvalidDefinition},
		{name: "unknown procedure", path: []string{"vm1", "nope"}, reason: ReasonProcedureNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ResolveProcedure(tt.path)
			requireReason(t, err, tt.reason)
		})
	}
}
