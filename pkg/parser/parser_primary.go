package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// Primary expressions:
//
//	primary → literal | column_ref | function_call | case_expr
//	        | CAST '(' expr AS type ')' | CONVERT '(' expr ',' type ')'
//	        | EXISTS '(' query ')' | '(' query ')' | '(' expr ')'

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() core.Expr {
	start := p.token.Pos

	switch p.token.Type {
	case token.NUMBER:
		return p.literal(core.LiteralNumber)
	case token.STRING:
		return p.literal(core.LiteralString)
	case token.TRUE, token.FALSE:
		return p.literal(core.LiteralBool)
	case token.NULL:
		return p.literal(core.LiteralNull)

	case token.CASE:
		return p.parseCaseExpr()

	case token.CAST:
		return p.parseCastExpr()

	case token.CONVERT:
		return p.parseConvertExpr()

	case token.EXISTS:
		p.nextToken()
		p.expect(token.LPAREN)
		q := p.parseQuery()
		p.expect(token.RPAREN)
		e := &core.ExistsExpr{Query: q}
		p.finish(&e.NodeInfo, start)
		return e

	case token.LPAREN:
		p.nextToken()
		if p.startsQuery() {
			q := p.parseQuery()
			p.expect(token.RPAREN)
			s := &core.SubqueryExpr{Query: q}
			p.finish(&s.NodeInfo, start)
			return s
		}
		inner := p.parseExpression()
		p.expect(token.RPAREN)
		e := &core.ParenExpr{Expr: inner}
		p.finish(&e.NodeInfo, start)
		return e

	case token.LEFT, token.RIGHT:
		// left(str, n) and right(str, n) are functions
		if p.checkPeek(token.LPAREN) {
			name := strings.ToLower(p.token.Literal)
			p.nextToken()
			return p.parseFuncCall(name, start)
		}

	case token.IDENT:
		return p.parseNameOrCall()
	}

	p.addError(fmt.Sprintf(ErrExpectedExpression, p.describe()))
	return nil
}

func (p *Parser) literal(kind core.LiteralKind) core.Expr {
	lit := &core.Literal{Kind: kind, Value: p.token.Literal}
	if kind == core.LiteralBool {
		lit.Value = strings.ToLower(p.token.Literal)
	}
	lit.Start, lit.Stop = p.token.Pos, p.token.End
	p.nextToken()
	return lit
}

// parseNameOrCall parses a dotted column reference or a function call.
func (p *Parser) parseNameOrCall() core.Expr {
	start := p.token.Pos
	parts := p.parseDottedName()
	if p.check(token.LPAREN) {
		return p.parseFuncCall(strings.Join(parts, "."), start)
	}
	ref := &core.ColumnRef{Parts: parts}
	p.finish(&ref.NodeInfo, start)
	return ref
}

// parseDottedName parses ident ('.' ident)*.
func (p *Parser) parseDottedName() []string {
	parts := []string{p.expectIdent()}
	for p.check(token.DOT) && p.peekAt(1).Type == token.IDENT {
		p.nextToken()
		parts = append(parts, p.expectIdent())
	}
	return parts
}

// parseFuncCall parses '(' [DISTINCT] args | '*' ')' after a function name.
func (p *Parser) parseFuncCall(name string, start token.Position) core.Expr {
	p.expect(token.LPAREN)
	fn := &core.FuncCall{Name: name}

	switch {
	case p.check(token.STAR):
		p.nextToken()
		fn.Star = true
	case p.check(token.RPAREN):
	default:
		fn.Distinct = p.match(token.DISTINCT)
		fn.Args = p.parseExpressionList()
	}

	p.expect(token.RPAREN)
	p.finish(&fn.NodeInfo, start)
	return fn
}

// parseCaseExpr parses simple and searched CASE expressions.
func (p *Parser) parseCaseExpr() core.Expr {
	start := p.token.Pos
	p.nextToken() // consume CASE
	c := &core.CaseExpr{}
	if !p.check(token.WHEN) {
		c.Operand = p.parseExpression()
	}
	for p.match(token.WHEN) {
		w := &core.WhenClause{Cond: p.parseExpression()}
		p.expect(token.THEN)
		w.Result = p.parseExpression()
		c.Whens = append(c.Whens, w)
		if p.failed() {
			return nil
		}
	}
	if len(c.Whens) == 0 {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(), token.WHEN))
		return nil
	}
	if p.match(token.ELSE) {
		c.Else = p.parseExpression()
	}
	p.expect(token.END)
	p.finish(&c.NodeInfo, start)
	return c
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() core.Expr {
	start := p.token.Pos
	p.nextToken() // consume CAST
	p.expect(token.LPAREN)
	c := &core.CastExpr{Style: core.CastSyntax, Expr: p.parseExpression()}
	p.expect(token.AS)
	c.TypeName, c.Target = p.parseTypeName()
	p.expect(token.RPAREN)
	p.finish(&c.NodeInfo, start)
	return c
}

// parseConvertExpr parses CONVERT(expr, type).
func (p *Parser) parseConvertExpr() core.Expr {
	start := p.token.Pos
	p.nextToken() // consume CONVERT
	p.expect(token.LPAREN)
	c := &core.CastExpr{Style: core.ConvertSyntax, Expr: p.parseExpression()}
	p.expect(token.COMMA)
	c.TypeName, c.Target = p.parseTypeName()
	p.expect(token.RPAREN)
	p.finish(&c.NodeInfo, start)
	return c
}

// parseTypeName parses a data type name with an optional length or
// precision suffix, which is accepted and ignored.
func (p *Parser) parseTypeName() (string, types.DataType) {
	if !p.check(token.IDENT) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(), "data type"))
		return "", types.Null
	}
	name := p.token.Literal
	t, err := types.Parse(name)
	if err != nil {
		p.addError(fmt.Sprintf(ErrUnknownType, name))
		return name, types.Null
	}
	p.nextToken()
	if p.match(token.LPAREN) {
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			p.nextToken()
		}
		p.expect(token.RPAREN)
	}
	return name, t
}

// startsQuery reports whether the current token begins a query.
func (p *Parser) startsQuery() bool {
	if p.check(token.SELECT) {
		return true
	}
	// ((SELECT ...) UNION ...)
	for i := 0; p.peekAt(i).Type == token.LPAREN; i++ {
		if p.peekAt(i+1).Type == token.SELECT {
			return true
		}
	}
	return false
}
