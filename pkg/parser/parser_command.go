package parser

import (
	"fmt"

	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
)

// Commands:
//
//	insert      → INSERT INTO name ['(' columns ')'] (VALUES '(' exprs ')' | query)
//	update      → UPDATE name SET col '=' expr (',' col '=' expr)* [WHERE expr]
//	delete      → DELETE FROM name [WHERE expr]
//	exec        → (EXEC|EXECUTE) name '(' [args] ')'
//	args        → expr (',' expr)* | ident '=' expr (',' ident '=' expr)*
//	create_temp → CREATE [LOCAL] TEMPORARY TABLE name '(' ident type (',' ident type)* ')'
//	create_proc → CREATE [VIRTUAL] PROCEDURE block
//	drop        → DROP TABLE name

func (p *Parser) parseInsert() core.Stmt {
	start := p.token.Pos
	p.expect(token.INSERT)
	p.expect(token.INTO)
	ins := &core.Insert{Table: p.parseTableName()}

	if p.check(token.LPAREN) && !p.startsQueryAt(1) {
		p.nextToken()
		for {
			colStart := p.token.Pos
			ref := &core.ColumnRef{Parts: p.parseDottedName()}
			p.finish(&ref.NodeInfo, colStart)
			ins.Columns = append(ins.Columns, ref)
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}

	if p.match(token.VALUES) {
		p.expect(token.LPAREN)
		ins.Values = p.parseExpressionList()
		p.expect(token.RPAREN)
	} else {
		ins.Query = p.parseQuery()
	}
	if p.failed() {
		return nil
	}
	p.finish(&ins.NodeInfo, start)
	return ins
}

// startsQueryAt reports whether the query begins n tokens ahead.
func (p *Parser) startsQueryAt(n int) bool {
	for p.peekAt(n).Type == token.LPAREN {
		n++
	}
	return p.peekAt(n).Type == token.SELECT
}

func (p *Parser) parseUpdate() core.Stmt {
	start := p.token.Pos
	p.expect(token.UPDATE)
	upd := &core.Update{Table: p.parseTableName()}
	p.expect(token.SET)
	for {
		colStart := p.token.Pos
		ref := &core.ColumnRef{Parts: p.parseDottedName()}
		p.finish(&ref.NodeInfo, colStart)
		p.expect(token.EQ)
		upd.Set = append(upd.Set, &core.SetClause{Column: ref, Value: p.parseExpression()})
		if p.failed() || !p.match(token.COMMA) {
			break
		}
	}
	if p.match(token.WHERE) {
		upd.Where = p.parseExpression()
	}
	if p.failed() {
		return nil
	}
	p.finish(&upd.NodeInfo, start)
	return upd
}

func (p *Parser) parseDelete() core.Stmt {
	start := p.token.Pos
	p.expect(token.DELETE)
	p.expect(token.FROM)
	del := &core.Delete{Table: p.parseTableName()}
	if p.match(token.WHERE) {
		del.Where = p.parseExpression()
	}
	if p.failed() {
		return nil
	}
	p.finish(&del.NodeInfo, start)
	return del
}

func (p *Parser) parseExec() core.Stmt {
	start := p.token.Pos
	exec := &core.Exec{Execute: p.check(token.EXECUTE)}
	p.nextToken() // consume EXEC or EXECUTE
	exec.Name = p.parseDottedName()
	exec.Args = p.parseExecArgs()
	if p.failed() {
		return nil
	}
	p.finish(&exec.NodeInfo, start)
	return exec
}

// parseExecArgs parses a parenthesized positional or named argument list.
func (p *Parser) parseExecArgs() []*core.ExecArg {
	p.expect(token.LPAREN)
	var args []*core.ExecArg
	if p.match(token.RPAREN) {
		return nil
	}
	named := p.check(token.IDENT) && p.checkPeek(token.EQ)
	for {
		arg := &core.ExecArg{}
		if p.check(token.IDENT) && p.checkPeek(token.EQ) {
			if !named {
				p.addError(ErrMixedArguments)
				return nil
			}
			arg.Name = p.token.Literal
			p.nextToken()
			p.nextToken()
		} else if named {
			p.addError(ErrMixedArguments)
			return nil
		}
		arg.Value = p.parseExpression()
		if arg.Value == nil {
			return nil
		}
		args = append(args, arg)
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return args
}

func (p *Parser) parseCreate() core.Stmt {
	start := p.token.Pos
	p.expect(token.CREATE)

	if p.matchWord("virtual") || p.check(token.PROCEDURE) {
		p.expect(token.PROCEDURE)
		cp := &core.CreateProcedure{Body: p.parseBlock()}
		if p.failed() {
			return nil
		}
		p.finish(&cp.NodeInfo, start)
		return cp
	}

	ct := &core.CreateTemp{Local: p.matchWord("local")}
	p.expectWord("temporary")
	p.expect(token.TABLE)
	ct.Table = p.parseTableName()
	p.expect(token.LPAREN)
	ct.Columns = p.parseColumnDefs()
	p.expect(token.RPAREN)
	if p.failed() {
		return nil
	}
	p.finish(&ct.NodeInfo, start)
	return ct
}

// parseColumnDefs parses ident type (',' ident type)*.
func (p *Parser) parseColumnDefs() []*core.ColumnDef {
	var cols []*core.ColumnDef
	for {
		def := &core.ColumnDef{Name: p.expectIdent()}
		def.TypeName, def.Type = p.parseTypeName()
		if p.failed() {
			return nil
		}
		cols = append(cols, def)
		if !p.match(token.COMMA) {
			return cols
		}
	}
}

func (p *Parser) parseDrop() core.Stmt {
	start := p.token.Pos
	p.expect(token.DROP)
	p.expect(token.TABLE)
	dt := &core.DropTemp{Table: p.parseTableName()}
	if p.failed() {
		return nil
	}
	p.finish(&dt.NodeInfo, start)
	return dt
}

// requireStmt reports an error for a nil statement produced without one.
func (p *Parser) requireStmt(s core.Stmt) bool {
	if s == nil && !p.failed() {
		p.addError(fmt.Sprintf(ErrExpectedStatement, p.describe()))
	}
	return s != nil
}
