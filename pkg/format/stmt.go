package format

import (
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
)

func (p *Printer) formatStmt(s core.Stmt) {
	switch stmt := s.(type) {
	case core.QueryCommand:
		p.formatQuery(stmt)
	case *core.Insert:
		p.formatInsert(stmt)
	case *core.Update:
		p.formatUpdate(stmt)
	case *core.Delete:
		p.kw(token.DELETE, token.FROM)
		p.space()
		p.formatTableName(stmt.Table)
		p.formatWhere(stmt.Where)
	case *core.CreateTemp:
		p.formatCreateTemp(stmt)
	case *core.DropTemp:
		p.kw(token.DROP, token.TABLE)
		p.space()
		p.formatTableName(stmt.Table)
	default:
		p.formatProcStmt(s)
	}
}

// ---------- Queries ----------

func (p *Printer) formatQuery(q core.QueryCommand) {
	switch query := q.(type) {
	case *core.Select:
		p.formatSelect(query)
	case *core.SetQuery:
		p.formatSetQuery(query)
	case *core.Exec:
		p.formatExec(query)
	}
}

func (p *Printer) openParen(paren bool) {
	if paren {
		p.write("(")
		p.indent()
		p.newline()
	}
}

func (p *Printer) closeParen(paren bool) {
	if paren {
		p.dedent()
		p.newline()
		p.write(")")
	}
}

func (p *Printer) formatSelect(s *core.Select) {
	p.openParen(s.Paren)

	p.kw(token.SELECT)
	if s.Distinct {
		p.space()
		p.kw(token.DISTINCT)
	}
	p.indent()
	p.sep()
	p.formatList(len(s.Items), func(i int) { p.formatSelectItem(s.Items[i]) }, ",", true)
	p.dedent()

	if s.Into != nil {
		p.sep()
		p.kw(token.INTO)
		p.space()
		p.formatTableName(s.Into)
	}
	if len(s.From) > 0 {
		p.sep()
		p.kw(token.FROM)
		p.space()
		p.formatList(len(s.From), func(i int) { p.formatTableRef(s.From[i]) }, ",", false)
	}
	p.formatWhere(s.Where)
	if len(s.GroupBy) > 0 {
		p.sep()
		p.kw(token.GROUP, token.BY)
		p.indent()
		p.sep()
		p.formatList(len(s.GroupBy), func(i int) { p.formatExpr(s.GroupBy[i]) }, ",", false)
		p.dedent()
	}
	if s.Having != nil {
		p.sep()
		p.kw(token.HAVING)
		p.indent()
		p.sep()
		p.formatExpr(s.Having)
		p.dedent()
	}
	p.formatOrdering(s.OrderBy, s.Limit)

	p.closeParen(s.Paren)
}

func (p *Printer) formatSelectItem(item *core.SelectItem) {
	if item.Star {
		if len(item.Qualifier) > 0 {
			p.dotted(item.Qualifier)
			p.write(".")
		}
		p.write("*")
		return
	}
	p.formatExpr(item.Expr)
	if item.Alias != "" {
		p.space()
		p.kw(token.AS)
		p.space()
		p.ident(item.Alias)
	}
}

func (p *Printer) formatWhere(where core.Expr) {
	if where == nil {
		return
	}
	p.sep()
	p.kw(token.WHERE)
	p.indent()
	p.sep()
	p.formatExpr(where)
	p.dedent()
}

func (p *Printer) formatOrdering(items []*core.OrderByItem, limit *core.Limit) {
	if len(items) > 0 {
		p.sep()
		p.kw(token.ORDER, token.BY)
		p.indent()
		p.sep()
		p.formatList(len(items), func(i int) {
			p.formatExpr(items[i].Expr)
			switch {
			case items[i].Desc:
				p.space()
				p.kw(token.DESC)
			case items[i].Asc:
				p.space()
				p.kw(token.ASC)
			}
		}, ",", false)
		p.dedent()
	}
	if limit != nil {
		p.sep()
		p.kw(token.LIMIT)
		p.space()
		p.formatExpr(limit.Count)
		if limit.Offset != nil {
			p.space()
			p.kw(token.OFFSET)
			p.space()
			p.formatExpr(limit.Offset)
		}
	}
}

func (p *Printer) formatSetQuery(s *core.SetQuery) {
	p.openParen(s.Paren)
	p.formatQuery(s.Left)
	p.sep()
	p.write(string(s.Op))
	if s.All {
		p.space()
		p.kw(token.ALL)
	}
	p.sep()
	p.formatQuery(s.Right)
	p.formatOrdering(s.OrderBy, s.Limit)
	p.closeParen(s.Paren)
}

// ---------- FROM Clause ----------

func (p *Printer) formatTableRef(ref core.TableRef) {
	switch t := ref.(type) {
	case *core.TableName:
		p.formatTableName(t)
		p.alias(t.Alias)
	case *core.DerivedTable:
		p.subquery(t.Query)
		p.alias(t.Alias)
	case *core.ProcTable:
		if t.Wrapped {
			p.write("(")
			p.formatExec(t.Exec)
			p.write(")")
		} else {
			p.dotted(t.Exec.Name)
			p.formatExecArgs(t.Exec.Args)
		}
		p.alias(t.Alias)
	case *core.JoinExpr:
		p.formatTableRef(t.Left)
		p.space()
		p.write(string(t.Type))
		p.space()
		p.kw(token.JOIN)
		p.space()
		p.formatTableRef(t.Right)
		if t.On != nil {
			p.space()
			p.kw(token.ON)
			p.space()
			p.formatExpr(t.On)
		}
	}
}

func (p *Printer) formatTableName(t *core.TableName) {
	p.dotted(t.Parts)
}

func (p *Printer) alias(alias string) {
	if alias != "" {
		p.space()
		p.kw(token.AS)
		p.space()
		p.ident(alias)
	}
}

// ---------- Commands ----------

func (p *Printer) formatInsert(s *core.Insert) {
	p.kw(token.INSERT, token.INTO)
	p.space()
	p.formatTableName(s.Table)
	if len(s.Columns) > 0 {
		p.write(" (")
		p.formatList(len(s.Columns), func(i int) { p.dotted(s.Columns[i].Parts) }, ",", false)
		p.write(")")
	}
	if s.Query != nil {
		p.sep()
		p.formatQuery(s.Query)
		return
	}
	p.sep()
	p.kw(token.VALUES)
	p.write(" (")
	p.formatList(len(s.Values), func(i int) { p.formatExpr(s.Values[i]) }, ",", false)
	p.write(")")
}

func (p *Printer) formatUpdate(s *core.Update) {
	p.kw(token.UPDATE)
	p.space()
	p.formatTableName(s.Table)
	p.sep()
	p.kw(token.SET)
	p.space()
	p.formatList(len(s.Set), func(i int) {
		p.dotted(s.Set[i].Column.Parts)
		p.write(" = ")
		p.formatExpr(s.Set[i].Value)
	}, ",", false)
	p.formatWhere(s.Where)
}

func (p *Printer) formatExec(e *core.Exec) {
	if e.Execute {
		p.kw(token.EXECUTE)
	} else {
		p.kw(token.EXEC)
	}
	p.space()
	p.dotted(e.Name)
	p.formatExecArgs(e.Args)
}

func (p *Printer) formatExecArgs(args []*core.ExecArg) {
	p.write("(")
	p.formatList(len(args), func(i int) {
		if args[i].Name != "" {
			p.ident(args[i].Name)
			p.write(" = ")
		}
		p.formatExpr(args[i].Value)
	}, ",", false)
	p.write(")")
}

func (p *Printer) formatCreateTemp(s *core.CreateTemp) {
	p.kw(token.CREATE)
	p.space()
	if s.Local {
		p.keyword("local")
		p.space()
	}
	p.keyword("temporary")
	p.space()
	p.kw(token.TABLE)
	p.space()
	p.formatTableName(s.Table)
	p.write(" (")
	p.formatColumnDefs(s.Columns)
	p.write(")")
}

func (p *Printer) formatColumnDefs(cols []*core.ColumnDef) {
	p.formatList(len(cols), func(i int) {
		p.ident(cols[i].Name)
		p.space()
		p.write(cols[i].TypeName)
	}, ",", false)
}
