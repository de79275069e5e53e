package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/internal/testutil"
	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/format"
	"github.com/leapstack-labs/fedsql/pkg/parser"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	return New(testutil.NewCatalog(t), Options{Logger: testutil.NewTestLogger(t)})
}

// resolveSQL parses sql and resolves it, returning the statement and the
// resolution error.
func resolveSQL(t *testing.T, r *Resolver, sql string, env *Environment) (core.Stmt, error) {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	return stmt, r.Resolve(stmt, env)
}

func mustResolve(t *testing.T, r *Resolver, sql string) core.Stmt {
	t.Helper()
	stmt, err := resolveSQL(t, r, sql, nil)
	require.NoError(t, err)
	return stmt
}

func mustResolveSelect(t *testing.T, r *Resolver, sql string) *core.Select {
	t.Helper()
	sel, ok := mustResolve(t, r, sql).(*core.Select)
	require.True(t, ok)
	return sel
}

func requireReason(t *testing.T, err error, reason Reason) *ResolutionError {
	t.Helper()
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, reason, re.Reason, re.Message)
	return re
}

func TestResolve_QualifiedAndBareElements(t *testing.T) {
	r := newTestResolver(t)
	const sql = "SELECT pm1.g1.e1, e2, pm1.g1.e3 AS a FROM pm1.g1"
	sel := mustResolveSelect(t, r, sql)

	ref := sel.Items[1].Expr.(*core.ColumnRef)
	require.NotNil(t, ref.Element)
	assert.Equal(t, "pm1.g1.e2", ref.Element.QualifiedName())
	assert.Equal(t, types.Integer, ref.Type())
	assert.False(t, ref.Correlated)

	require.Len(t, sel.Columns, 3)
	assert.Equal(t, []string{"e1", "e2", "a"}, []string{sel.Columns[0].Name, sel.Columns[1].Name, sel.Columns[2].Name})
	assert.Equal(t, types.Boolean, sel.Columns[2].Type)

	tn := sel.From[0].(*core.TableName)
	require.NotNil(t, tn.Group)
	assert.Equal(t, core.GroupTable, tn.Group.Kind)
	assert.Same(t, tn.Group, ref.Element.Group)

	assert.Equal(t, sql, format.String(sel))
}

func TestResolve_Idempotent(t *testing.T) {
	r := newTestResolver(t)
	queries := []string{
		"SELECT pm1.g1.e1, e2, pm1.g1.e3 AS a FROM pm1.g1",
		"SELECT coalesce('', 1, NULL, '') FROM pm1.g1",
		"SELECT e1 FROM pm1.g1 WHERE e2 = '5' AND e4 > 1 ORDER BY 1",
		"SELECT * FROM pm1.g1 AS a WHERE EXISTS (SELECT 1 FROM pm1.g2 AS b WHERE b.e2 = a.e2)",
		"SELECT e2 FROM pm1.g1 UNION SELECT NULL FROM pm1.g2",
		"SELECT x.e1 FROM (SELECT e1 FROM vm1.g1) AS x",
		"SELECT CASE WHEN e2 = 1 THEN 'a' ELSE NULL END FROM pm1.g1",
	}
	for _, sql := range queries {
		t.Run(sql, func(t *testing.T) {
			stmt := mustResolve(t, r, sql)
			before := Bindings(stmt)
			text := format.String(stmt)

			require.NoError(t, r.Resolve(stmt, nil))
			assert.Equal(t, before, Bindings(stmt))
			assert.Equal(t, text, format.String(stmt))
			assert.Equal(t, sql, text)
		})
	}
}

func TestResolve_ElementErrors(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		reason Reason
		msg    string
	}{
		{name: "ambiguous bare name", sql: "SELECT e1 FROM pm1.g1, pm1.g2", reason: ReasonElementAmbiguous, msg: "pm1.g1, pm1.g2"},
		{name: "ambiguous partial qualifier", sql: "SELECT g1.e1 FROM pm1.g1, pm2.g1", reason: ReasonElementAmbiguous},
		{name: "unknown element", sql: "SELECT e9 FROM pm1.g1", reason: ReasonElementNotFound, msg: `"e9"`},
		{name: "alias hides name", sql: "SELECT pm1.g1.e1 FROM pm1.g1 AS x", reason: ReasonElementNotFound},
		{name: "qualifier decides", sql: "SELECT x.e9 FROM pm1.g1 AS x", reason: ReasonElementNotFound},
		{name: "not selectable", sql: "SELECT secret FROM pm1.g3", reason: ReasonElementNotFound, msg: "not selectable"},
		{name: "duplicate group", sql: "SELECT pm1.g1.e1 FROM pm1.g1, pm1.g1", reason: ReasonDuplicateGroup},
		{name: "duplicate alias", sql: "SELECT x.e1 FROM pm1.g1 AS x, pm1.g2 AS x", reason: ReasonDuplicateGroup},
		{name: "unknown group", sql: "SELECT e1 FROM pm9.nope", reason: ReasonGroupNotFound},
		{name: "ambiguous group", sql: "SELECT e1 FROM g1", reason: ReasonGroupAmbiguous, msg: "pm1.g1"},
		{name: "unknown star group", sql: "SELECT y.* FROM pm1.g1 AS x", reason: ReasonUnknownGroupContext},
		{name: "scalar subquery shape", sql: "SELECT (SELECT e1, e2 FROM pm1.g2) FROM pm1.g1", reason: ReasonScalarSubquery},
		{name: "non boolean criteria", sql: "SELECT e1 FROM pm1.g1 WHERE e2", reason: ReasonCriteria},
	}
	r := newTestResolver(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveSQL(t, r, tt.sql, nil)
			re := requireReason(t, err, tt.reason)
			if tt.msg != "" {
				assert.Contains(t, re.Error(), tt.msg)
			}
		})
	}
}

func TestResolve_AmbiguousElementMessage(t *testing.T) {
	_, err := resolveSQL(t, newTestResolver(t), "SELECT e1 FROM pm1.g1, pm1.g2", nil)
	re := requireReason(t, err, ReasonElementAmbiguous)
	assert.Equal(t, CategoryLookup, re.Category())
	assert.Equal(t, `resolution error: Element "e1" is ambiguous, it exists in more than one group: pm1.g1, pm1.g2`, re.Error())
	assert.Equal(t, 1, re.Pos.Line)
	assert.Equal(t, 8, re.Pos.Column)
}

func TestResolve_StarExpansion(t *testing.T) {
	r := newTestResolver(t)

	sel := mustResolveSelect(t, r, "SELECT * FROM pm1.g3")
	require.Len(t, sel.Columns, 2)
	assert.Equal(t, "e1", sel.Columns[0].Name)
	assert.Equal(t, "e2", sel.Columns[1].Name)

	sel = mustResolveSelect(t, r, "SELECT x.*, y.e1 FROM pm1.g1 AS x, pm1.g2 AS y")
	require.Len(t, sel.Columns, 5)
	require.Len(t, sel.Items[0].Expanded, 4)
	assert.Equal(t, []string{"x", "e4"}, sel.Items[0].Expanded[3].Parts)
	assert.Equal(t, "SELECT x.*, y.e1 FROM pm1.g1 AS x, pm1.g2 AS y", format.String(sel))
}

func TestResolve_Correlation(t *testing.T) {
	r := newTestResolver(t)
	sel := mustResolveSelect(t, r,
		"SELECT e1 FROM pm1.g1 AS a WHERE EXISTS (SELECT 1 FROM pm1.g2 AS b WHERE EXISTS (SELECT 1 FROM pm2.g1 AS c WHERE c.e2 = a.e2 AND b.e1 = c.e1))")

	middle := sel.Where.(*core.ExistsExpr).Query.(*core.Select)
	inner := middle.Where.(*core.ExistsExpr).Query.(*core.Select)

	assert.Empty(t, sel.Correlated)
	require.Len(t, middle.Correlated, 1)
	assert.Equal(t, "a.e2", middle.Correlated[0].QualifiedName())
	require.Len(t, inner.Correlated, 2)
	assert.Equal(t, "a.e2", inner.Correlated[0].QualifiedName())
	assert.Equal(t, "b.e1", inner.Correlated[1].QualifiedName())

	var correlated []string
	for _, b := range Bindings(sel) {
		if b.Correlated {
			correlated = append(correlated, b.Reference)
		}
	}
	assert.Equal(t, []string{"a.e2", "b.e1"}, correlated)
}

func TestResolve_InnerScopeShadowsOuter(t *testing.T) {
	r := newTestResolver(t)
	sel := mustResolveSelect(t, r, "SELECT e1 FROM pm1.g1 WHERE e2 IN (SELECT e2 FROM pm1.g2 WHERE e1 = 'a')")

	in := sel.Where.(*core.InExpr)
	sub := in.Query.(*core.Select)
	assert.Empty(t, sub.Correlated)
	cond := sub.Where.(*core.BinaryExpr)
	assert.Equal(t, "pm1.g2.e1", cond.Left.(*core.ColumnRef).Element.QualifiedName())
}

func TestResolve_DerivedTablesAreNotLateral(t *testing.T) {
	r := newTestResolver(t)
	_, err := resolveSQL(t, r, "SELECT x.e1 FROM pm1.g1 AS a, (SELECT e1 FROM pm1.g2 WHERE e2 = a.e2) AS x", nil)
	requireReason(t, err, ReasonElementNotFound)

	sel := mustResolveSelect(t, r, "SELECT x.a FROM (SELECT e1 AS a FROM pm1.g1) AS x")
	ref := sel.Items[0].Expr.(*core.ColumnRef)
	assert.Equal(t, core.GroupDerived, ref.Element.Group.Kind)
	assert.Equal(t, types.String, ref.Type())

	_, err = resolveSQL(t, r, "SELECT x.e1 FROM (SELECT e1, e1 FROM pm1.g1) AS x", nil)
	requireReason(t, err, ReasonDuplicateColumn)
}

func TestResolve_ProcedureTables(t *testing.T) {
	r := newTestResolver(t)
	sel := mustResolveSelect(t, r, "SELECT p.in1, p.e2, q.e1 FROM pm1.sq3(in1 = 'a', in2 = 1) AS p, (EXEC pm1.sq1()) AS q")

	p := sel.From[0].(*core.ProcTable)
	require.NotNil(t, p.Group)
	assert.Equal(t, []string{"in1", "in2", "e1", "e2"}, columnNames(p.Group.Columns))
	q := sel.From[1].(*core.ProcTable)
	assert.Equal(t, []string{"e1", "e2"}, columnNames(q.Group.Columns))

	_, err := resolveSQL(t, r, "SELECT * FROM pm1.dup(in1 = 'a')", nil)
	requireReason(t, err, ReasonProcedureShape)

	sel = mustResolveSelect(t, r, "SELECT * FROM (EXEC pm1.dup('a')) AS d")
	assert.Equal(t, []string{"in1"}, columnNames(sel.From[0].(*core.ProcTable).Group.Columns))
}

func TestResolve_OrderBy(t *testing.T) {
	r := newTestResolver(t)

	sel := mustResolveSelect(t, r, "SELECT e1 AS x, e2 FROM pm1.g1 ORDER BY x, 2, pm1.g1.e4")
	require.Len(t, sel.OrderBy, 3)
	assert.Equal(t, 0, sel.OrderBy[0].Position)
	assert.Equal(t, 1, sel.OrderBy[1].Position)
	assert.Equal(t, -1, sel.OrderBy[2].Position)
	assert.Equal(t, types.Double, sel.OrderBy[2].Expr.Type())

	sel = mustResolveSelect(t, r, "SELECT e1, e2 FROM pm1.g1 ORDER BY pm1.g1.e2")
	assert.Equal(t, 1, sel.OrderBy[0].Position)

	tests := []struct {
		name string
		sql  string
	}{
		{name: "position out of range", sql: "SELECT e1 FROM pm1.g1 ORDER BY 2"},
		{name: "unrelated under distinct", sql: "SELECT DISTINCT e1 FROM pm1.g1 ORDER BY e2"},
		{name: "ambiguous projected name", sql: "SELECT e1 AS x, e2 AS x FROM pm1.g1 ORDER BY x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveSQL(t, r, tt.sql, nil)
			requireReason(t, err, ReasonOrderByNotFound)
		})
	}
}

func TestResolve_ProjectionNames(t *testing.T) {
	sel := mustResolveSelect(t, newTestResolver(t), "SELECT e2 + 1, NULL, e1 FROM pm1.g1")
	assert.Equal(t, []string{"expr1", "expr2", "e1"}, columnNames(sel.Columns))
	assert.Equal(t, types.Integer, sel.Columns[0].Type)
	assert.Equal(t, types.String, sel.Columns[1].Type)
}

func TestResolve_PseudoGroups(t *testing.T) {
	r := newTestResolver(t)
	env := &Environment{UpdateTarget: []string{"pm1", "g1"}}

	stmt, err := resolveSQL(t, r, "BEGIN DECLARE string x = INPUT.e1; IF (CHANGING.e2) BEGIN x = 'a'; END END", env)
	require.NoError(t, err)
	decl := stmt.(*core.Block).Stmts[0].(*core.Declare)
	ref := core.StripImplicit(decl.Init).(*core.ColumnRef)
	assert.Equal(t, core.GroupInput, ref.Element.Group.Kind)
	assert.Equal(t, types.String, ref.Type())
	cond := stmt.(*core.Block).Stmts[1].(*core.If).Cond
	assert.Equal(t, types.Boolean, cond.Type())

	_, err = resolveSQL(t, r, "BEGIN DECLARE string x = e1; END", env)
	requireReason(t, err, ReasonElementNotFound)

	_, err = resolveSQL(t, r, "BEGIN INPUT.e1 = 'a'; END", env)
	re := requireReason(t, err, ReasonNotAssignable)
	assert.Contains(t, re.Message, "read-only")

	env = &Environment{PseudoGroups: map[string][]*catalog.Column{
		"DVARS": {catalog.NewColumn("limit_rows", types.Integer)},
	}}
	sel, err := resolveSQL(t, r, "SELECT e1 FROM pm1.g1 WHERE e2 < limit_rows", env)
	require.NoError(t, err)
	cmp := sel.(*core.Select).Where.(*core.BinaryExpr)
	assert.Equal(t, "DVARS.limit_rows", cmp.Right.(*core.ColumnRef).Element.QualifiedName())
}

func TestResolve_UnknownUpdateTarget(t *testing.T) {
	_, err := resolveSQL(t, newTestResolver(t), "SELECT 1", &Environment{UpdateTarget: []string{"nope"}})
	requireReason(t, err, ReasonGroupNotFound)
}

func columnNames(cols []*core.ElementSymbol) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
