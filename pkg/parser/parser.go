// Package parser parses federated SQL and procedure-language text into the
// unresolved statement tree defined by pkg/core.
//
// # Usage
//
//	stmt, err := parser.Parse("SELECT e1 FROM pm1.g1")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser with Pratt expression
// parsing:
//
//	statement  → query | insert | update | delete | exec | create | drop
//	           | block | declare | assign | if | loop | while | error
//	           | break | continue | execute_string
//	query      → term ((UNION|EXCEPT) [ALL] term)* [ORDER BY list] [LIMIT n [OFFSET m]]
//	term       → primary (INTERSECT [ALL] primary)*
//	primary    → select_core | '(' query ')'
//	select_core→ SELECT [DISTINCT] items [INTO name] [FROM from_list]
//	             [WHERE expr] [GROUP BY exprs] [HAVING expr]
//	block      → BEGIN statement* END
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	tokens  []token.Token
	pos     int
	token   token.Token // current token
	lastEnd token.Position
	errors  []error
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	l := NewLexer(sql)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	p := &Parser{tokens: toks}
	p.errors = append(p.errors, l.Errors()...)
	p.token = toks[0]
	return p
}

// Parse parses a single statement. A trailing semicolon is allowed.
func Parse(sql string) (core.Stmt, error) {
	p := NewParser(sql)
	stmt := p.parseStatement()
	p.match(token.SEMICOLON)
	if !p.check(token.EOF) && len(p.errors) == 0 {
		p.addError(fmt.Sprintf(ErrTrailingInput, p.describe()))
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// ParseScript parses a sequence of statements separated by semicolons.
func ParseScript(sql string) ([]core.Stmt, error) {
	p := NewParser(sql)
	var stmts []core.Stmt
	for {
		for p.match(token.SEMICOLON) {
		}
		if p.check(token.EOF) {
			break
		}
		stmt := p.parseStatement()
		if len(p.errors) > 0 {
			return nil, p.errors[0]
		}
		stmts = append(stmts, stmt)
		if !p.check(token.EOF) && !p.check(token.SEMICOLON) && !endsWithBlock(stmt) {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(), token.SEMICOLON))
			return nil, p.errors[0]
		}
	}
	return stmts, nil
}

// ParseQuery parses a query, such as a view definition.
func ParseQuery(sql string) (core.QueryCommand, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	q, ok := stmt.(core.QueryCommand)
	if !ok {
		return nil, &ParseError{Pos: stmt.Pos(), Message: fmt.Sprintf(ErrExpectedQuery, "statement")}
	}
	return q, nil
}

// ParseExpr parses a standalone expression.
func ParseExpr(sql string) (core.Expr, error) {
	p := NewParser(sql)
	expr := p.parseExpression()
	if !p.check(token.EOF) && len(p.errors) == 0 {
		p.addError(fmt.Sprintf(ErrTrailingInput, p.describe()))
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return expr, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.lastEnd = p.token.End
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.token = p.tokens[p.pos]
}

// peekAt returns the token n positions ahead of the current one.
func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	return p.tokens[len(p.tokens)-1]
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the next token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peekAt(1).Type == t
}

// checkWord returns true if the current token is the contextual keyword w.
func (p *Parser) checkWord(w string) bool {
	return p.token.Type == token.IDENT && strings.EqualFold(p.token.Literal, w)
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// matchWord consumes the contextual keyword w if present.
func (p *Parser) matchWord(w string) bool {
	if p.checkWord(w) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(), t))
	return false
}

// expectWord consumes the contextual keyword w, otherwise adds an error.
func (p *Parser) expectWord(w string) bool {
	if p.matchWord(w) {
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(), w))
	return false
}

// expectIdent consumes an identifier and returns its text.
func (p *Parser) expectIdent() string {
	if p.check(token.IDENT) {
		name := p.token.Literal
		p.nextToken()
		return name
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(), token.IDENT))
	return ""
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

func (p *Parser) failed() bool { return len(p.errors) > 0 }

// describe names the current token for error messages.
func (p *Parser) describe() string {
	switch p.token.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.NUMBER:
		return fmt.Sprintf("%q", p.token.Literal)
	case token.STRING:
		return fmt.Sprintf("'%s'", p.token.Literal)
	case token.ILLEGAL:
		return fmt.Sprintf("illegal character %q", p.token.Literal)
	}
	return p.token.Type.String()
}

// finish sets the span of a node from start to the end of the last
// consumed token.
func (p *Parser) finish(n *core.NodeInfo, start token.Position) {
	n.Start = start
	n.Stop = p.lastEnd
}

// ---------- Keyword Helpers ----------

// isReserved returns true if the token cannot be used as an implicit alias.
func isReserved(tok token.Token) bool {
	return token.IsKeyword(tok.Type)
}

// endsWithBlock reports statements whose text ends with END, which need no
// separating semicolon.
func endsWithBlock(stmt core.Stmt) bool {
	switch stmt.(type) {
	case *core.Block, *core.If, *core.Loop, *core.While, *core.CreateProcedure:
		return true
	}
	return false
}
