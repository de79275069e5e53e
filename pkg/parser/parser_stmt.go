package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/token"
)

// parseStatement dispatches on the first token of a statement.
func (p *Parser) parseStatement() core.Stmt {
	switch {
	case p.startsQuery():
		return p.parseQuery()
	case p.check(token.INSERT):
		return p.parseInsert()
	case p.check(token.UPDATE):
		return p.parseUpdate()
	case p.check(token.DELETE):
		return p.parseDelete()
	case p.check(token.EXEC), p.check(token.EXECUTE):
		if next := p.peekAt(1); next.Type == token.IDENT && (isWord(next, "string") || isWord(next, "immediate")) {
			return p.parseExecString()
		}
		return p.parseExec()
	case p.check(token.CREATE):
		return p.parseCreate()
	case p.check(token.DROP):
		return p.parseDrop()
	case p.check(token.BEGIN):
		return p.parseBlock()
	case p.check(token.DECLARE):
		return p.parseDeclare()
	case p.check(token.IF):
		return p.parseIf()
	case p.check(token.LOOP):
		return p.parseLoop()
	case p.check(token.WHILE):
		return p.parseWhile()
	case p.check(token.BREAK):
		s := &core.Break{}
		s.Start, s.Stop = p.token.Pos, p.token.End
		p.nextToken()
		return s
	case p.check(token.CONTINUE):
		s := &core.Continue{}
		s.Start, s.Stop = p.token.Pos, p.token.End
		p.nextToken()
		return s
	case p.check(token.ERROR):
		return p.parseRaise()
	case p.check(token.IDENT):
		return p.parseAssign()
	}
	p.addError(fmt.Sprintf(ErrExpectedStatement, p.describe()))
	return nil
}

func isWord(tok token.Token, w string) bool {
	return tok.Type == token.IDENT && strings.EqualFold(tok.Literal, w)
}

// ---------- Queries ----------

// parseQuery parses a query with set operations, ORDER BY and LIMIT.
//
//	query → term ((UNION|EXCEPT) [ALL|DISTINCT] term)* [ORDER BY list] [LIMIT n [OFFSET m]]
func (p *Parser) parseQuery() core.QueryCommand {
	start := p.token.Pos
	left := p.parseQueryTerm()
	if left == nil || p.failed() {
		return nil
	}

	for p.check(token.UNION) || p.check(token.EXCEPT) {
		op := core.SetOpUnion
		if p.check(token.EXCEPT) {
			op = core.SetOpExcept
		}
		p.nextToken()
		all := p.match(token.ALL)
		if !all {
			p.match(token.DISTINCT)
		}
		right := p.parseQueryTerm()
		if right == nil || p.failed() {
			return nil
		}
		sq := &core.SetQuery{Op: op, All: all, Left: left, Right: right}
		p.finish(&sq.NodeInfo, start)
		left = sq
	}

	orderBy, limit := p.parseOrdering()
	if orderBy == nil && limit == nil {
		return left
	}
	switch q := left.(type) {
	case *core.Select:
		if q.OrderBy != nil || q.Limit != nil {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, "ORDER BY", "end of query"))
			return nil
		}
		q.Paren = false
		q.OrderBy, q.Limit = orderBy, limit
		p.finish(&q.NodeInfo, start)
	case *core.SetQuery:
		if q.OrderBy != nil || q.Limit != nil {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, "ORDER BY", "end of query"))
			return nil
		}
		q.Paren = false
		q.OrderBy, q.Limit = orderBy, limit
		p.finish(&q.NodeInfo, start)
	}
	return left
}

// parseQueryTerm parses INTERSECT chains, which bind tighter than UNION.
func (p *Parser) parseQueryTerm() core.QueryCommand {
	start := p.token.Pos
	left := p.parseQueryPrimary()
	for left != nil && p.check(token.INTERSECT) {
		p.nextToken()
		all := p.match(token.ALL)
		if !all {
			p.match(token.DISTINCT)
		}
		right := p.parseQueryPrimary()
		if right == nil {
			return nil
		}
		sq := &core.SetQuery{Op: core.SetOpIntersect, All: all, Left: left, Right: right}
		p.finish(&sq.NodeInfo, start)
		left = sq
	}
	return left
}

// parseQueryPrimary parses a SELECT or a parenthesized query.
func (p *Parser) parseQueryPrimary() core.QueryCommand {
	if p.check(token.LPAREN) {
		start := p.token.Pos
		p.nextToken()
		q := p.parseQuery()
		p.expect(token.RPAREN)
		switch n := q.(type) {
		case *core.Select:
			n.Paren = true
			p.finish(&n.NodeInfo, start)
		case *core.SetQuery:
			n.Paren = true
			p.finish(&n.NodeInfo, start)
		}
		return q
	}
	if !p.check(token.SELECT) {
		p.addError(fmt.Sprintf(ErrExpectedQuery, p.describe()))
		return nil
	}
	if sel := p.parseSelectCore(); sel != nil {
		return sel
	}
	return nil
}

// parseSelectCore parses a single query block without ORDER BY and LIMIT.
//
//	select_core → SELECT [ALL|DISTINCT] items [INTO name] [FROM from_list]
//	              [WHERE expr] [GROUP BY exprs] [HAVING expr]
func (p *Parser) parseSelectCore() *core.Select {
	start := p.token.Pos
	p.expect(token.SELECT)
	sel := &core.Select{}
	if !p.match(token.ALL) {
		sel.Distinct = p.match(token.DISTINCT)
	}

	sel.Items = p.parseSelectItems()
	if p.failed() {
		return nil
	}

	if p.match(token.INTO) {
		sel.Into = p.parseTableName()
	}
	if p.match(token.FROM) {
		sel.From = p.parseFromList()
	}
	if p.match(token.WHERE) {
		sel.Where = p.parseExpression()
	}
	if p.check(token.GROUP) {
		p.nextToken()
		p.expect(token.BY)
		sel.GroupBy = p.parseExpressionList()
	}
	if p.match(token.HAVING) {
		sel.Having = p.parseExpression()
	}
	if p.failed() {
		return nil
	}
	p.finish(&sel.NodeInfo, start)
	return sel
}

// parseSelectItems parses the projection list.
func (p *Parser) parseSelectItems() []*core.SelectItem {
	var items []*core.SelectItem
	for {
		item := p.parseSelectItem()
		if item == nil {
			return nil
		}
		items = append(items, item)
		if !p.match(token.COMMA) {
			return items
		}
	}
}

// parseSelectItem parses *, group.* or expr [[AS] alias].
func (p *Parser) parseSelectItem() *core.SelectItem {
	start := p.token.Pos
	item := &core.SelectItem{}

	if p.match(token.STAR) {
		item.Star = true
		p.finish(&item.NodeInfo, start)
		return item
	}

	if qualifier, ok := p.qualifiedStar(); ok {
		item.Star = true
		item.Qualifier = qualifier
		p.finish(&item.NodeInfo, start)
		return item
	}

	item.Expr = p.parseExpression()
	if item.Expr == nil {
		return nil
	}
	item.Alias = p.parseAlias()
	p.finish(&item.NodeInfo, start)
	return item
}

// qualifiedStar consumes ident ('.' ident)* '.' '*' if present.
func (p *Parser) qualifiedStar() ([]string, bool) {
	i := 0
	for p.peekAt(i).Type == token.IDENT && p.peekAt(i+1).Type == token.DOT {
		if p.peekAt(i+2).Type == token.STAR {
			var parts []string
			for j := 0; j <= i; j += 2 {
				parts = append(parts, p.peekAt(j).Literal)
			}
			for k := 0; k < i+3; k++ {
				p.nextToken()
			}
			return parts, true
		}
		i += 2
	}
	return nil, false
}

// parseAlias parses [AS] alias.
func (p *Parser) parseAlias() string {
	if p.match(token.AS) {
		if p.check(token.STRING) {
			alias := p.token.Literal
			p.nextToken()
			return alias
		}
		return p.expectIdent()
	}
	if p.check(token.IDENT) && !isReserved(p.token) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}

// parseOrdering parses optional ORDER BY and LIMIT clauses.
func (p *Parser) parseOrdering() ([]*core.OrderByItem, *core.Limit) {
	var items []*core.OrderByItem
	if p.check(token.ORDER) {
		p.nextToken()
		p.expect(token.BY)
		for {
			start := p.token.Pos
			item := &core.OrderByItem{Expr: p.parseExpression(), Position: -1}
			if item.Expr == nil {
				return nil, nil
			}
			if p.match(token.DESC) {
				item.Desc = true
			} else {
				item.Asc = p.match(token.ASC)
			}
			p.finish(&item.NodeInfo, start)
			items = append(items, item)
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	var limit *core.Limit
	if p.check(token.LIMIT) {
		start := p.token.Pos
		p.nextToken()
		limit = &core.Limit{Count: p.parseExpression()}
		if p.match(token.OFFSET) {
			limit.Offset = p.parseExpression()
		}
		p.finish(&limit.NodeInfo, start)
	}
	return items, limit
}

// ---------- FROM Clause ----------

// parseFromList parses table_ref (',' table_ref)*.
func (p *Parser) parseFromList() []core.TableRef {
	var refs []core.TableRef
	for {
		ref := p.parseTableRef()
		if ref == nil {
			return nil
		}
		refs = append(refs, ref)
		if !p.match(token.COMMA) {
			return refs
		}
	}
}

// parseTableRef parses a table primary followed by joins.
//
//	table_ref → table_primary (join_type JOIN table_primary [ON expr])*
func (p *Parser) parseTableRef() core.TableRef {
	start := p.token.Pos
	left := p.parseTablePrimary()
	for left != nil {
		jt, ok := p.parseJoinType()
		if !ok {
			return left
		}
		right := p.parseTablePrimary()
		if right == nil {
			return nil
		}
		j := &core.JoinExpr{Type: jt, Left: left, Right: right}
		if jt != core.JoinCross {
			p.expect(token.ON)
			j.On = p.parseExpression()
		}
		p.finish(&j.NodeInfo, start)
		left = j
	}
	return nil
}

// parseJoinType consumes a join keyword sequence.
func (p *Parser) parseJoinType() (core.JoinType, bool) {
	var jt core.JoinType
	switch {
	case p.check(token.JOIN):
		jt = core.JoinInner
	case p.check(token.INNER):
		p.nextToken()
		jt = core.JoinInner
	case p.check(token.LEFT):
		p.nextToken()
		p.match(token.OUTER)
		jt = core.JoinLeft
	case p.check(token.RIGHT):
		p.nextToken()
		p.match(token.OUTER)
		jt = core.JoinRight
	case p.check(token.FULL):
		p.nextToken()
		p.match(token.OUTER)
		jt = core.JoinFull
	case p.check(token.CROSS):
		p.nextToken()
		jt = core.JoinCross
	default:
		return "", false
	}
	p.expect(token.JOIN)
	return jt, true
}

// parseTablePrimary parses a named group, procedure, derived table or
// wrapped procedure call.
func (p *Parser) parseTablePrimary() core.TableRef {
	start := p.token.Pos

	if p.check(token.LPAREN) {
		if next := p.peekAt(1).Type; next == token.EXEC || next == token.EXECUTE {
			p.nextToken()
			exec, _ := p.parseExec().(*core.Exec)
			p.expect(token.RPAREN)
			pt := &core.ProcTable{Exec: exec, Wrapped: true, Alias: p.parseAlias()}
			if pt.Alias == "" {
				p.addError(ErrMissingAlias)
				return nil
			}
			p.finish(&pt.NodeInfo, start)
			return pt
		}
		if p.startsQuery() {
			p.nextToken()
			q := p.parseQuery()
			p.expect(token.RPAREN)
			dt := &core.DerivedTable{Query: q, Alias: p.parseAlias()}
			if dt.Alias == "" && !p.failed() {
				p.addError(ErrMissingAlias)
			}
			if p.failed() {
				return nil
			}
			p.finish(&dt.NodeInfo, start)
			return dt
		}
		p.nextToken()
		ref := p.parseTableRef()
		p.expect(token.RPAREN)
		return ref
	}

	if !p.check(token.IDENT) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(), "table name"))
		return nil
	}

	parts := p.parseDottedName()
	if p.check(token.LPAREN) {
		exec := &core.Exec{Name: parts}
		exec.Args = p.parseExecArgs()
		p.finish(&exec.NodeInfo, start)
		pt := &core.ProcTable{Exec: exec, Alias: p.parseAlias()}
		p.finish(&pt.NodeInfo, start)
		return pt
	}
	tn := &core.TableName{Parts: parts, Alias: p.parseAlias()}
	p.finish(&tn.NodeInfo, start)
	return tn
}

// parseTableName parses a dotted group name without alias.
func (p *Parser) parseTableName() *core.TableName {
	start := p.token.Pos
	tn := &core.TableName{Parts: p.parseDottedName()}
	p.finish(&tn.NodeInfo, start)
	return tn
}
