package format

import (
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
)

func (p *Printer) formatProcStmt(s core.Stmt) {
	switch stmt := s.(type) {
	case *core.Block:
		p.formatBlock(stmt)
	case *core.CreateProcedure:
		p.kw(token.CREATE)
		p.space()
		p.keyword("virtual")
		p.space()
		p.kw(token.PROCEDURE)
		p.sep()
		p.formatBlock(stmt.Body)
	case *core.Declare:
		p.kw(token.DECLARE)
		p.space()
		p.write(stmt.TypeName)
		p.space()
		p.dotted(stmt.Name.Parts)
		if stmt.Init != nil {
			p.write(" = ")
			p.formatExpr(stmt.Init)
		}
	case *core.Assign:
		p.dotted(stmt.Target.Parts)
		p.write(" = ")
		p.formatExpr(stmt.Value)
	case *core.If:
		p.kw(token.IF)
		p.write(" (")
		p.formatExpr(stmt.Cond)
		p.write(")")
		p.sep()
		p.formatBlock(stmt.Then)
		if stmt.Else != nil {
			p.sep()
			p.kw(token.ELSE)
			if _, chained := stmt.Else.(*core.If); chained {
				p.space()
			} else {
				p.sep()
			}
			p.formatStmt(stmt.Else)
		}
	case *core.Loop:
		p.kw(token.LOOP, token.ON)
		p.write(" (")
		p.formatQuery(stmt.Query)
		p.write(") ")
		p.kw(token.AS)
		p.space()
		p.ident(stmt.Cursor)
		p.sep()
		p.formatBlock(stmt.Body)
	case *core.While:
		p.kw(token.WHILE)
		p.write(" (")
		p.formatExpr(stmt.Cond)
		p.write(")")
		p.sep()
		p.formatBlock(stmt.Body)
	case *core.Break:
		p.kw(token.BREAK)
	case *core.Continue:
		p.kw(token.CONTINUE)
	case *core.Raise:
		p.kw(token.ERROR)
		p.space()
		p.formatExpr(stmt.Expr)
	case *core.ExecString:
		p.formatExecString(stmt)
	}
}

func (p *Printer) formatBlock(b *core.Block) {
	p.kw(token.BEGIN)
	p.indent()
	for _, s := range b.Stmts {
		p.sep()
		p.formatStmt(s)
		if !isCompound(s) {
			p.write(";")
		}
	}
	p.dedent()
	p.sep()
	p.kw(token.END)
}

func isCompound(s core.Stmt) bool {
	switch s.(type) {
	case *core.Block, *core.If, *core.Loop, *core.While, *core.CreateProcedure:
		return true
	}
	return false
}

func (p *Printer) formatExecString(s *core.ExecString) {
	p.kw(token.EXECUTE)
	p.space()
	if s.Immediate {
		p.keyword("immediate")
	} else {
		p.keyword("string")
	}
	p.space()
	p.formatExpr(s.Expr)
	if len(s.As) > 0 {
		p.space()
		p.kw(token.AS)
		p.space()
		p.formatColumnDefs(s.As)
	}
	if s.Into != nil {
		p.space()
		p.kw(token.INTO)
		p.space()
		p.formatTableName(s.Into)
	}
	if len(s.Using) > 0 {
		p.space()
		p.kw(token.USING)
		p.space()
		p.formatList(len(s.Using), func(i int) {
			p.ident(s.Using[i].Name)
			p.write(" = ")
			p.formatExpr(s.Using[i].Value)
		}, ",", false)
	}
}
