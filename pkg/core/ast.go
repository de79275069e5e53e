package core

import (
	"github.com/leapstack-labs/fedsql/pkg/token"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the position of the first character of the node.
	Pos() token.Position
	// End returns the position of the character immediately after the node.
	End() token.Position
}

// Expr is implemented by expression nodes. Type is the static type assigned
// by resolution; it is types.Null before resolution and for untyped NULL.
type Expr interface {
	Node
	Type() types.DataType
	SetType(types.DataType)
	exprNode()
}

// Stmt is implemented by statement nodes, including procedure-language
// statements.
type Stmt interface {
	Node
	Metadata() *StmtInfo
	stmtNode()
}

// TableRef is implemented by FROM-clause entries.
type TableRef interface {
	Node
	tableRefNode()
}

// QueryCommand is a statement that produces rows: a Select or a SetQuery.
type QueryCommand interface {
	Stmt
	// Projected returns the resolved output columns.
	Projected() []*ElementSymbol
	// Ordering returns the ORDER BY items and LIMIT clause of the query.
	Ordering() ([]*OrderByItem, *Limit)
	queryNode()
}

// NodeInfo records the source span of a node.
type NodeInfo struct {
	Start token.Position
	Stop  token.Position
}

// Pos implements Node.
func (n *NodeInfo) Pos() token.Position { return n.Start }

// End implements Node.
func (n *NodeInfo) End() token.Position { return n.Stop }

// ExprInfo carries the span and resolved type of an expression.
type ExprInfo struct {
	NodeInfo
	Typ types.DataType
}

// Type implements Expr.
func (e *ExprInfo) Type() types.DataType { return e.Typ }

// SetType implements Expr.
func (e *ExprInfo) SetType(t types.DataType) { e.Typ = t }

// StmtInfo carries the span of a statement and the temporary metadata
// the statement introduced: temp tables, cursor groups and variable groups,
// keyed by folded group name.
type StmtInfo struct {
	NodeInfo
	Temp map[string]*GroupSymbol
}

// Metadata implements Stmt.
func (s *StmtInfo) Metadata() *StmtInfo { return s }

// AddTemp records temporary metadata introduced by the statement.
func (s *StmtInfo) AddTemp(key string, g *GroupSymbol) {
	if s.Temp == nil {
		s.Temp = make(map[string]*GroupSymbol)
	}
	s.Temp[key] = g
}
