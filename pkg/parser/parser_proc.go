package parser

import (
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
)

// Procedure language:
//
//	block          → BEGIN (statement [';'])* END
//	declare        → DECLARE type name ['=' expr]
//	assign         → name '=' expr
//	if             → IF '(' expr ')' block [ELSE (block | if)]
//	loop           → LOOP ON '(' query ')' AS ident block
//	while          → WHILE '(' expr ')' block
//	error          → ERROR expr
//	execute_string → (EXEC|EXECUTE) (STRING|IMMEDIATE) expr
//	                 [AS ident type (',' ident type)*] [INTO name]
//	                 [USING ident '=' expr (',' ident '=' expr)*]

func (p *Parser) parseBlock() *core.Block {
	start := p.token.Pos
	if !p.expect(token.BEGIN) {
		return nil
	}
	b := &core.Block{}
	for !p.check(token.END) {
		if p.check(token.EOF) {
			p.expect(token.END)
			return nil
		}
		if p.match(token.SEMICOLON) {
			continue
		}
		stmt := p.parseStatement()
		if !p.requireStmt(stmt) || p.failed() {
			return nil
		}
		b.Stmts = append(b.Stmts, stmt)
		if !p.match(token.SEMICOLON) && !endsWithBlock(stmt) && !p.check(token.END) {
			p.expect(token.SEMICOLON)
			return nil
		}
	}
	p.expect(token.END)
	p.finish(&b.NodeInfo, start)
	return b
}

func (p *Parser) parseDeclare() core.Stmt {
	start := p.token.Pos
	p.expect(token.DECLARE)
	d := &core.Declare{}
	d.TypeName, d.Type = p.parseTypeName()
	nameStart := p.token.Pos
	d.Name = &core.ColumnRef{Parts: p.parseDottedName()}
	p.finish(&d.Name.NodeInfo, nameStart)
	if p.match(token.EQ) {
		d.Init = p.parseExpression()
	}
	if p.failed() {
		return nil
	}
	p.finish(&d.NodeInfo, start)
	return d
}

func (p *Parser) parseAssign() core.Stmt {
	start := p.token.Pos
	target := &core.ColumnRef{Parts: p.parseDottedName()}
	p.finish(&target.NodeInfo, start)
	if !p.expect(token.EQ) {
		return nil
	}
	a := &core.Assign{Target: target, Value: p.parseExpression()}
	if p.failed() {
		return nil
	}
	p.finish(&a.NodeInfo, start)
	return a
}

func (p *Parser) parseIf() core.Stmt {
	start := p.token.Pos
	p.expect(token.IF)
	p.expect(token.LPAREN)
	s := &core.If{Cond: p.parseExpression()}
	p.expect(token.RPAREN)
	s.Then = p.parseBlock()
	if p.failed() {
		return nil
	}
	if p.match(token.ELSE) {
		if p.check(token.IF) {
			s.Else = p.parseIf()
		} else if b := p.parseBlock(); b != nil {
			s.Else = b
		}
	}
	if p.failed() {
		return nil
	}
	p.finish(&s.NodeInfo, start)
	return s
}

func (p *Parser) parseLoop() core.Stmt {
	start := p.token.Pos
	p.expect(token.LOOP)
	p.expect(token.ON)
	p.expect(token.LPAREN)
	l := &core.Loop{}
	if p.check(token.EXEC) || p.check(token.EXECUTE) {
		if exec, ok := p.parseExec().(*core.Exec); ok {
			l.Query = exec
		}
	} else {
		l.Query = p.parseQuery()
	}
	p.expect(token.RPAREN)
	p.expect(token.AS)
	l.Cursor = p.expectIdent()
	l.Body = p.parseBlock()
	if p.failed() {
		return nil
	}
	p.finish(&l.NodeInfo, start)
	return l
}

func (p *Parser) parseWhile() core.Stmt {
	start := p.token.Pos
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	w := &core.While{Cond: p.parseExpression()}
	p.expect(token.RPAREN)
	w.Body = p.parseBlock()
	if p.failed() {
		return nil
	}
	p.finish(&w.NodeInfo, start)
	return w
}

func (p *Parser) parseRaise() core.Stmt {
	start := p.token.Pos
	p.expect(token.ERROR)
	r := &core.Raise{Expr: p.parseExpression()}
	if p.failed() {
		return nil
	}
	p.finish(&r.NodeInfo, start)
	return r
}

func (p *Parser) parseExecString() core.Stmt {
	start := p.token.Pos
	p.nextToken() // consume EXEC or EXECUTE
	es := &core.ExecString{Immediate: isWord(p.token, "immediate")}
	p.nextToken() // consume STRING or IMMEDIATE
	es.Expr = p.parseExpression()

	if p.match(token.AS) {
		es.As = p.parseColumnDefs()
	}
	if p.match(token.INTO) {
		es.Into = p.parseTableName()
	}
	if p.match(token.USING) {
		for {
			arg := &core.ExecArg{Name: p.expectIdent()}
			p.expect(token.EQ)
			arg.Value = p.parseExpression()
			if p.failed() {
				return nil
			}
			es.Using = append(es.Using, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if p.failed() {
		return nil
	}
	p.finish(&es.NodeInfo, start)
	return es
}
