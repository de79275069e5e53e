package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

func mustSelect(t *testing.T, sql string) *core.Select {
	t.Helper()
	stmt, err := Parse(sql)
	require.NoError(t, err)
	sel, ok := stmt.(*core.Select)
	require.True(t, ok, "expected *core.Select, got %T", stmt)
	return sel
}

func TestParse_Select(t *testing.T) {
	sel := mustSelect(t, "SELECT pm1.g1.e1, e2, pm1.g1.e3 AS a FROM pm1.g1")

	require.Len(t, sel.Items, 3)
	ref := sel.Items[0].Expr.(*core.ColumnRef)
	assert.Equal(t, []string{"pm1", "g1", "e1"}, ref.Parts)
	assert.Equal(t, []string{"pm1", "g1"}, ref.Qualifier())
	assert.Equal(t, "a", sel.Items[2].Alias)

	require.Len(t, sel.From, 1)
	tn := sel.From[0].(*core.TableName)
	assert.Equal(t, "pm1.g1", tn.Name())
	assert.Equal(t, 1, sel.Pos().Line)
	assert.Equal(t, 1, sel.Pos().Column)
}

func TestParse_SelectClauses(t *testing.T) {
	sel := mustSelect(t, `SELECT DISTINCT e1, count(*) FROM pm1.g1 AS x
		LEFT OUTER JOIN pm1.g2 y ON x.e1 = y.e1
		WHERE e2 BETWEEN 1 AND 5 AND e1 NOT LIKE 'a%'
		GROUP BY e1 HAVING count(*) > 1 ORDER BY 1 DESC, e1 LIMIT 10 OFFSET 2`)

	assert.True(t, sel.Distinct)
	fn := sel.Items[1].Expr.(*core.FuncCall)
	assert.True(t, fn.Star)

	join := sel.From[0].(*core.JoinExpr)
	assert.Equal(t, core.JoinLeft, join.Type)
	assert.Equal(t, "x", join.Left.(*core.TableName).Alias)
	assert.Equal(t, "y", join.Right.(*core.TableName).Alias)

	and := sel.Where.(*core.BinaryExpr)
	assert.Equal(t, token.AND, and.Op)
	assert.IsType(t, &core.BetweenExpr{}, and.Left)
	like := and.Right.(*core.LikeExpr)
	assert.True(t, like.Not)

	require.Len(t, sel.OrderBy, 2)
	assert.True(t, sel.OrderBy[0].Desc)
	assert.Equal(t, -1, sel.OrderBy[1].Position)
	require.NotNil(t, sel.Limit)
	assert.NotNil(t, sel.Limit.Offset)
}

func TestParse_Stars(t *testing.T) {
	sel := mustSelect(t, "SELECT *, pm1.g1.*, g2.* FROM pm1.g1, pm1.g2 AS g2")
	require.Len(t, sel.Items, 3)
	assert.True(t, sel.Items[0].Star)
	assert.Nil(t, sel.Items[0].Qualifier)
	assert.Equal(t, []string{"pm1", "g1"}, sel.Items[1].Qualifier)
	assert.Equal(t, []string{"g2"}, sel.Items[2].Qualifier)
}

func TestParse_Literals(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		kind core.LiteralKind
		want string
	}{
		{name: "integer", sql: "1", kind: core.LiteralNumber, want: "1"},
		{name: "negative", sql: "-5", kind: core.LiteralNumber, want: "-5"},
		{name: "decimal", sql: "1.5e3", kind: core.LiteralNumber, want: "1.5e3"},
		{name: "string with quote", sql: "'it''s'", kind: core.LiteralString, want: "it's"},
		{name: "empty string", sql: "''", kind: core.LiteralString, want: ""},
		{name: "bool", sql: "TRUE", kind: core.LiteralBool, want: "true"},
		{name: "null", sql: "null", kind: core.LiteralNull, want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ParseExpr(tt.sql)
			require.NoError(t, err)
			lit, ok := e.(*core.Literal)
			require.True(t, ok, "got %T", e)
			assert.Equal(t, tt.kind, lit.Kind)
			assert.Equal(t, tt.want, lit.Value)
		})
	}
}

func TestParse_Expressions(t *testing.T) {
	e, err := ParseExpr("1 + 2 * 3 || 'x'")
	require.NoError(t, err)
	concat := e.(*core.BinaryExpr)
	assert.Equal(t, token.DPIPE, concat.Op)
	plus := concat.Left.(*core.BinaryExpr)
	assert.Equal(t, token.PLUS, plus.Op)
	assert.Equal(t, token.STAR, plus.Right.(*core.BinaryExpr).Op)

	e, err = ParseExpr("CASE WHEN e2 IS NOT NULL THEN CAST(e2 AS string) ELSE CONVERT(e1, varchar(10)) END")
	require.NoError(t, err)
	c := e.(*core.CaseExpr)
	require.Len(t, c.Whens, 1)
	assert.True(t, c.Whens[0].Cond.(*core.IsNullExpr).Not)
	cast := c.Whens[0].Result.(*core.CastExpr)
	assert.Equal(t, types.String, cast.Target)
	conv := c.Else.(*core.CastExpr)
	assert.Equal(t, core.ConvertSyntax, conv.Style)
	assert.Equal(t, "varchar", conv.TypeName)

	e, err = ParseExpr("e1 IN (SELECT e1 FROM pm1.g2) OR EXISTS (SELECT 1) OR left(e1, 2) = 'ab'")
	require.NoError(t, err)
	or := e.(*core.BinaryExpr)
	assert.Equal(t, token.OR, or.Op)
	eq := or.Right.(*core.BinaryExpr)
	assert.Equal(t, "left", eq.Left.(*core.FuncCall).Name)
}

func TestParse_SetQueries(t *testing.T) {
	stmt, err := Parse("SELECT e1 FROM pm1.g1 UNION ALL SELECT e1 FROM pm1.g2 INTERSECT SELECT e1 FROM pm1.g3 ORDER BY e1")
	require.NoError(t, err)

	union := stmt.(*core.SetQuery)
	assert.Equal(t, core.SetOpUnion, union.Op)
	assert.True(t, union.All)
	require.Len(t, union.OrderBy, 1)
	intersect := union.Right.(*core.SetQuery)
	assert.Equal(t, core.SetOpIntersect, intersect.Op)

	stmt, err = Parse("(SELECT e1 FROM pm1.g1 ORDER BY e1 LIMIT 1) EXCEPT SELECT e1 FROM pm1.g2")
	require.NoError(t, err)
	except := stmt.(*core.SetQuery)
	left := except.Left.(*core.Select)
	assert.True(t, left.Paren)
	assert.NotNil(t, left.Limit)
}

func TestParse_FromSources(t *testing.T) {
	sel := mustSelect(t, "SELECT x.a FROM (SELECT e1 AS a FROM pm1.g1) AS x, pm1.sq3(in1 = 'a') p, (EXEC pm1.sq1('b')) AS y CROSS JOIN #temp")
	require.Len(t, sel.From, 3)

	dt := sel.From[0].(*core.DerivedTable)
	assert.Equal(t, "x", dt.Alias)

	pt := sel.From[1].(*core.ProcTable)
	assert.False(t, pt.Wrapped)
	assert.Equal(t, "p", pt.Alias)
	require.True(t, pt.Exec.HasNamedArgs())

	join := sel.From[2].(*core.JoinExpr)
	wrapped := join.Left.(*core.ProcTable)
	assert.True(t, wrapped.Wrapped)
	assert.True(t, join.Right.(*core.TableName).IsTemp())
}

func TestParse_Commands(t *testing.T) {
	stmt, err := Parse("INSERT INTO pm1.g1 (e1, e2) VALUES ('a', 1)")
	require.NoError(t, err)
	ins := stmt.(*core.Insert)
	assert.Len(t, ins.Columns, 2)
	assert.Len(t, ins.Values, 2)

	stmt, err = Parse("INSERT INTO #t SELECT e1 FROM pm1.g1")
	require.NoError(t, err)
	assert.NotNil(t, stmt.(*core.Insert).Query)

	stmt, err = Parse("UPDATE pm1.g1 SET e1 = 'x', e2 = e2 + 1 WHERE e3 = true")
	require.NoError(t, err)
	assert.Len(t, stmt.(*core.Update).Set, 2)

	stmt, err = Parse("DELETE FROM pm1.g1 WHERE e1 IS NULL")
	require.NoError(t, err)
	assert.NotNil(t, stmt.(*core.Delete).Where)

	stmt, err = Parse("EXEC proc(in2 = 5)")
	require.NoError(t, err)
	exec := stmt.(*core.Exec)
	require.Len(t, exec.Args, 1)
	assert.Equal(t, "in2", exec.Args[0].Name)

	stmt, err = Parse("CREATE LOCAL TEMPORARY TABLE #t (a string, b integer)")
	require.NoError(t, err)
	ct := stmt.(*core.CreateTemp)
	assert.True(t, ct.Local)
	require.Len(t, ct.Columns, 2)
	assert.Equal(t, types.Integer, ct.Columns[1].Type)

	stmt, err = Parse("DROP TABLE #t")
	require.NoError(t, err)
	assert.Equal(t, "#t", stmt.(*core.DropTemp).Table.Name())
}

func TestParse_Procedure(t *testing.T) {
	stmt, err := Parse(`CREATE VIRTUAL PROCEDURE BEGIN
		DECLARE integer var1 = 1;
		IF (var1 > 0)
		BEGIN
			DECLARE boolean var1;
			var1 = true;
		END ELSE IF (var1 < 0) BEGIN
			BREAK;
		END
		LOOP ON (SELECT e1 FROM pm1.g1) AS c
		BEGIN
			VARIABLES.var1 = var1 + 1;
			CONTINUE;
		END
		WHILE (var1 < 10) BEGIN var1 = var1 + 1; END
		EXECUTE STRING 'SELECT e1 FROM pm1.g1' AS e1 string INTO #t USING x = 1;
		ERROR 'failed';
	END`)
	require.NoError(t, err)

	cp := stmt.(*core.CreateProcedure)
	require.Len(t, cp.Body.Stmts, 6)

	decl := cp.Body.Stmts[0].(*core.Declare)
	assert.Equal(t, types.Integer, decl.Type)
	assert.Equal(t, "var1", decl.Name.Name())
	assert.NotNil(t, decl.Init)

	ifs := cp.Body.Stmts[1].(*core.If)
	require.Len(t, ifs.Then.Stmts, 2)
	assert.IsType(t, &core.If{}, ifs.Else)

	loop := cp.Body.Stmts[2].(*core.Loop)
	assert.Equal(t, "c", loop.Cursor)
	assign := loop.Body.Stmts[0].(*core.Assign)
	assert.Equal(t, []string{"VARIABLES", "var1"}, assign.Target.Parts)

	assert.IsType(t, &core.While{}, cp.Body.Stmts[3])

	es := cp.Body.Stmts[4].(*core.ExecString)
	require.Len(t, es.As, 1)
	assert.Equal(t, "#t", es.Into.Name())
	require.Len(t, es.Using, 1)

	assert.IsType(t, &core.Raise{}, cp.Body.Stmts[5])
}

func TestParseScript(t *testing.T) {
	stmts, err := ParseScript("SELECT 1; ; CREATE LOCAL TEMPORARY TABLE #t (a integer); BEGIN SELECT a FROM #t; END SELECT 2")
	require.NoError(t, err)
	require.Len(t, stmts, 4)
	assert.IsType(t, &core.Block{}, stmts[2])

	_, err = ParseScript("SELECT 1 SELECT 2")
	assert.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		msg  string
	}{
		{name: "derived table without alias", sql: "SELECT * FROM (SELECT 1)", msg: ErrMissingAlias},
		{name: "unknown type", sql: "DECLARE foo x", msg: "unknown data type"},
		{name: "trailing input", sql: "SELECT 1 2", msg: "after end of statement"},
		{name: "mixed arguments", sql: "EXEC p(1, a = 2)", msg: ErrMixedArguments},
		{name: "unterminated string", sql: "SELECT 'abc", msg: ErrUnterminatedString},
		{name: "missing end", sql: "BEGIN SELECT 1;", msg: "END"},
		{name: "empty", sql: "", msg: "expected a statement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestTokenize(t *testing.T) {
	toks := Tokenize("SELECT a<>b -- comment\n/* block */ FROM #t;")
	var got []token.TokenType
	for _, tok := range toks {
		got = append(got, tok.Type)
	}
	assert.Equal(t, []token.TokenType{
		token.SELECT, token.IDENT, token.NE, token.IDENT, token.FROM, token.IDENT, token.SEMICOLON, token.EOF,
	}, got)
	assert.Equal(t, "#t", toks[5].Literal)
	assert.Equal(t, 2, toks[4].Pos.Line)
}
