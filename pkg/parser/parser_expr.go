package parser

import (
	"fmt"

	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	precedenceOr         = 1
//	precedenceAnd        = 2
//	precedenceNot        = 3
//	precedenceComparison = 4  (=, <>, <, >, <=, >=, IS, IN, BETWEEN, LIKE)
//	precedenceAddition   = 5  (+, -, ||)
//	precedenceMultiply   = 6  (*, /)
//	precedenceUnary      = 7  (-, +)
const (
	precedenceNone = iota
	precedenceOr
	precedenceAnd
	precedenceNot
	precedenceComparison
	precedenceAddition
	precedenceMultiply
	precedenceUnary
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() core.Expr {
	return p.parseExpressionWithPrecedence(precedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) core.Expr {
	start := p.token.Pos
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for {
		prec := infixPrecedence(p.token.Type)
		if prec == precedenceNone || prec < minPrecedence {
			break
		}
		left = p.parseInfixExpr(left, prec, start)
		if left == nil || p.failed() {
			break
		}
	}

	return left
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() core.Expr {
	start := p.token.Pos
	switch p.token.Type {
	case token.NOT:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precedenceNot)
		u := &core.UnaryExpr{Op: token.NOT, Expr: expr}
		p.finish(&u.NodeInfo, start)
		return u

	case token.MINUS:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precedenceUnary)
		// -5 is a literal, not an operation
		if lit, ok := expr.(*core.Literal); ok && lit.Kind == core.LiteralNumber && lit.Value[0] != '-' {
			lit.Value = "-" + lit.Value
			p.finish(&lit.NodeInfo, start)
			return lit
		}
		u := &core.UnaryExpr{Op: token.MINUS, Expr: expr}
		p.finish(&u.NodeInfo, start)
		return u

	case token.PLUS:
		p.nextToken()
		return p.parseExpressionWithPrecedence(precedenceUnary)

	default:
		return p.parsePrimary()
	}
}

// infixPrecedence returns the precedence of a token as an infix operator.
func infixPrecedence(t token.TokenType) int {
	switch t {
	case token.OR:
		return precedenceOr
	case token.AND:
		return precedenceAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.IS, token.IN, token.BETWEEN, token.LIKE, token.NOT:
		return precedenceComparison
	case token.PLUS, token.MINUS, token.DPIPE:
		return precedenceAddition
	case token.STAR, token.SLASH:
		return precedenceMultiply
	}
	return precedenceNone
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left core.Expr, prec int, start token.Position) core.Expr {
	var expr core.Expr
	switch p.token.Type {
	case token.NOT:
		expr = p.parseNotInfixExpr(left)
	case token.IS:
		expr = p.parseIsExpr(left)
	case token.IN:
		p.nextToken()
		expr = p.parseInExpr(left, false)
	case token.BETWEEN:
		p.nextToken()
		expr = p.parseBetweenExpr(left, false)
	case token.LIKE:
		p.nextToken()
		expr = p.parseLikeExpr(left, false)
	default:
		op := p.token.Type
		p.nextToken()
		// Parse right operand with higher precedence (left-associative)
		right := p.parseExpressionWithPrecedence(prec + 1)
		if right == nil {
			return nil
		}
		b := &core.BinaryExpr{Left: left, Op: op, Right: right}
		p.finish(&b.NodeInfo, start)
		return b
	}
	if expr != nil {
		setSpan(expr, start, p.lastEnd)
	}
	return expr
}

// parseNotInfixExpr handles NOT as an infix modifier (NOT IN, NOT BETWEEN, NOT LIKE).
func (p *Parser) parseNotInfixExpr(left core.Expr) core.Expr {
	p.nextToken() // consume NOT

	switch p.token.Type {
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, true)
	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, true)
	case token.LIKE:
		p.nextToken()
		return p.parseLikeExpr(left, true)
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(), "IN, BETWEEN or LIKE"))
	return nil
}

// parseIsExpr parses IS [NOT] NULL.
func (p *Parser) parseIsExpr(left core.Expr) core.Expr {
	p.nextToken() // consume IS
	not := p.match(token.NOT)
	if !p.expect(token.NULL) {
		return nil
	}
	return &core.IsNullExpr{Expr: left, Not: not}
}

// parseInExpr parses the list or subquery of an IN predicate.
func (p *Parser) parseInExpr(left core.Expr, not bool) core.Expr {
	if !p.expect(token.LPAREN) {
		return nil
	}
	in := &core.InExpr{Expr: left, Not: not}
	if p.startsQuery() {
		in.Query = p.parseQuery()
	} else {
		in.Values = p.parseExpressionList()
	}
	p.expect(token.RPAREN)
	return in
}

// parseBetweenExpr parses a BETWEEN predicate. The bounds are parsed at
// addition precedence so the AND is not captured.
func (p *Parser) parseBetweenExpr(left core.Expr, not bool) core.Expr {
	between := &core.BetweenExpr{Expr: left, Not: not}
	between.Low = p.parseExpressionWithPrecedence(precedenceAddition)
	p.expect(token.AND)
	between.High = p.parseExpressionWithPrecedence(precedenceAddition)
	return between
}

// parseLikeExpr parses a LIKE predicate.
func (p *Parser) parseLikeExpr(left core.Expr, not bool) core.Expr {
	like := &core.LikeExpr{Expr: left, Not: not}
	like.Pattern = p.parseExpressionWithPrecedence(precedenceAddition)
	return like
}

// parseExpressionList parses a comma-separated list of expressions.
func (p *Parser) parseExpressionList() []core.Expr {
	var exprs []core.Expr
	for {
		e := p.parseExpression()
		if e == nil {
			return exprs
		}
		exprs = append(exprs, e)
		if !p.match(token.COMMA) {
			return exprs
		}
	}
}

// setSpan records the source span of an expression built by a helper.
func setSpan(e core.Expr, start, end token.Position) {
	switch n := e.(type) {
	case *core.InExpr:
		n.Start, n.Stop = start, end
	case *core.BetweenExpr:
		n.Start, n.Stop = start, end
	case *core.LikeExpr:
		n.Start, n.Stop = start, end
	case *core.IsNullExpr:
		n.Start, n.Stop = start, end
	}
}
