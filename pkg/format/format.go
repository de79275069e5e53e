package format

import "github.com/leapstack-labs/fedsql/pkg/core"

// String renders a node on a single line. Parsing the result yields an
// equivalent tree.
func String(node core.Node) string {
	p := newPrinter(false)
	p.formatNode(node)
	return p.String()
}

// Format renders a statement over multiple lines with indented clauses.
func Format(stmt core.Stmt) string {
	p := newPrinter(true)
	p.formatStmt(stmt)
	return p.String()
}

func (p *Printer) formatNode(node core.Node) {
	switch n := node.(type) {
	case core.Stmt:
		p.formatStmt(n)
	case core.Expr:
		p.formatExpr(n)
	case core.TableRef:
		p.formatTableRef(n)
	}
}
