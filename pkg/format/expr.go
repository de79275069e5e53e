package format

import (
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
)

func (p *Printer) formatExpr(e core.Expr) {
	if e == nil {
		return
	}

	switch expr := e.(type) {
	case *core.Literal:
		p.formatLiteral(expr)
	case *core.ColumnRef:
		p.dotted(expr.Parts)
	case *core.BinaryExpr:
		p.formatExpr(expr.Left)
		p.space()
		p.write(expr.Op.String())
		p.space()
		p.formatExpr(expr.Right)
	case *core.UnaryExpr:
		if expr.Op == token.NOT {
			p.kw(token.NOT)
			p.space()
		} else {
			p.write(expr.Op.String())
		}
		p.formatExpr(expr.Expr)
	case *core.FuncCall:
		p.formatFuncCall(expr)
	case *core.CaseExpr:
		p.formatCaseExpr(expr)
	case *core.CastExpr:
		p.formatCastExpr(expr)
	case *core.InExpr:
		p.formatExpr(expr.Expr)
		p.space()
		p.not(expr.Not)
		p.kw(token.IN)
		p.write(" (")
		if expr.Query != nil {
			p.formatQuery(expr.Query)
		} else {
			p.formatList(len(expr.Values), func(i int) { p.formatExpr(expr.Values[i]) }, ",", false)
		}
		p.write(")")
	case *core.BetweenExpr:
		p.formatExpr(expr.Expr)
		p.space()
		p.not(expr.Not)
		p.kw(token.BETWEEN)
		p.space()
		p.formatExpr(expr.Low)
		p.space()
		p.kw(token.AND)
		p.space()
		p.formatExpr(expr.High)
	case *core.IsNullExpr:
		p.formatExpr(expr.Expr)
		p.space()
		p.kw(token.IS)
		p.space()
		p.not(expr.Not)
		p.kw(token.NULL)
	case *core.LikeExpr:
		p.formatExpr(expr.Expr)
		p.space()
		p.not(expr.Not)
		p.kw(token.LIKE)
		p.space()
		p.formatExpr(expr.Pattern)
	case *core.ParenExpr:
		p.write("(")
		p.formatExpr(expr.Expr)
		p.write(")")
	case *core.SubqueryExpr:
		p.subquery(expr.Query)
	case *core.ExistsExpr:
		p.not(expr.Not)
		p.kw(token.EXISTS)
		p.space()
		p.subquery(expr.Query)
	}
}

func (p *Printer) not(not bool) {
	if not {
		p.kw(token.NOT)
		p.space()
	}
}

func (p *Printer) formatLiteral(lit *core.Literal) {
	switch lit.Kind {
	case core.LiteralString:
		p.write("'" + strings.ReplaceAll(lit.Value, "'", "''") + "'")
	case core.LiteralBool:
		p.write(strings.ToUpper(lit.Value))
	case core.LiteralNull:
		p.kw(token.NULL)
	default:
		p.write(lit.Value)
	}
}

func (p *Printer) formatFuncCall(fn *core.FuncCall) {
	p.write(fn.Name)
	p.write("(")
	switch {
	case fn.Star:
		p.write("*")
	default:
		if fn.Distinct {
			p.kw(token.DISTINCT)
			p.space()
		}
		p.formatList(len(fn.Args), func(i int) { p.formatExpr(fn.Args[i]) }, ",", false)
	}
	p.write(")")
}

func (p *Printer) formatCaseExpr(c *core.CaseExpr) {
	p.kw(token.CASE)
	if c.Operand != nil {
		p.space()
		p.formatExpr(c.Operand)
	}
	for _, w := range c.Whens {
		p.space()
		p.kw(token.WHEN)
		p.space()
		p.formatExpr(w.Cond)
		p.space()
		p.kw(token.THEN)
		p.space()
		p.formatExpr(w.Result)
	}
	if c.Else != nil {
		p.space()
		p.kw(token.ELSE)
		p.space()
		p.formatExpr(c.Else)
	}
	p.space()
	p.kw(token.END)
}

// formatCastExpr renders explicit conversions. Implicit ones render as
// their operand.
func (p *Printer) formatCastExpr(c *core.CastExpr) {
	if c.Implicit {
		p.formatExpr(c.Expr)
		return
	}
	if c.Style == core.ConvertSyntax {
		p.kw(token.CONVERT)
		p.write("(")
		p.formatExpr(c.Expr)
		p.write(", ")
		p.write(c.TypeName)
		p.write(")")
		return
	}
	p.kw(token.CAST)
	p.write("(")
	p.formatExpr(c.Expr)
	p.space()
	p.kw(token.AS)
	p.space()
	p.write(c.TypeName)
	p.write(")")
}

// subquery renders a parenthesized query. Queries already marked as
// parenthesized print their own parentheses.
func (p *Printer) subquery(q core.QueryCommand) {
	if isParen(q) {
		p.formatQuery(q)
		return
	}
	p.write("(")
	p.indent()
	p.newline()
	p.formatQuery(q)
	p.dedent()
	p.newline()
	p.write(")")
}

func isParen(q core.QueryCommand) bool {
	switch n := q.(type) {
	case *core.Select:
		return n.Paren
	case *core.SetQuery:
		return n.Paren
	}
	return false
}
