package core

import (
	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// ---------- Query Types ----------

// Select is a single query block.
type Select struct {
	StmtInfo
	Distinct bool
	Items    []*SelectItem
	Into     *TableName
	From     []TableRef
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []*OrderByItem
	Limit    *Limit
	// Paren is set when the query was written in parentheses.
	Paren bool

	// Columns is the resolved projection.
	Columns []*ElementSymbol
	// Correlated lists the distinct outer elements the query references.
	Correlated []*ElementSymbol
}

func (*Select) stmtNode()  {}
func (*Select) queryNode() {}

// Projected implements QueryCommand.
func (s *Select) Projected() []*ElementSymbol { return s.Columns }

// Ordering implements QueryCommand.
func (s *Select) Ordering() ([]*OrderByItem, *Limit) { return s.OrderBy, s.Limit }

// AddCorrelated records an outer reference once.
func (s *Select) AddCorrelated(e *ElementSymbol) {
	for _, c := range s.Correlated {
		if c == e {
			return
		}
	}
	s.Correlated = append(s.Correlated, e)
}

// SelectItem is one projection entry: an expression with an optional
// alias, a bare * or a qualified group.*.
type SelectItem struct {
	NodeInfo
	Star      bool
	Qualifier []string
	Expr      Expr
	Alias     string

	// Expanded holds the references a star item expanded to.
	Expanded []*ColumnRef
}

// SetOp names a set operation.
type SetOp string

// SetOp constants.
const (
	SetOpUnion     SetOp = "UNION"
	SetOpIntersect SetOp = "INTERSECT"
	SetOpExcept    SetOp = "EXCEPT"
)

// SetQuery combines two queries. Chains are left-deep.
type SetQuery struct {
	StmtInfo
	Op      SetOp
	All     bool
	Left    QueryCommand
	Right   QueryCommand
	OrderBy []*OrderByItem
	Limit   *Limit
	Paren   bool

	Columns []*ElementSymbol
}

func (*SetQuery) stmtNode()  {}
func (*SetQuery) queryNode() {}

// Projected implements QueryCommand.
func (s *SetQuery) Projected() []*ElementSymbol { return s.Columns }

// Ordering implements QueryCommand.
func (s *SetQuery) Ordering() ([]*OrderByItem, *Limit) { return s.OrderBy, s.Limit }

// Branches returns the leaf queries of a set operation tree, left to right.
// Parenthesized set queries are kept whole.
func (s *SetQuery) Branches() []QueryCommand {
	var out []QueryCommand
	var walk func(q QueryCommand)
	walk = func(q QueryCommand) {
		if sq, ok := q.(*SetQuery); ok && !sq.Paren && sq.OrderBy == nil && sq.Limit == nil {
			walk(sq.Left)
			walk(sq.Right)
			return
		}
		out = append(out, q)
	}
	walk(s.Left)
	walk(s.Right)
	return out
}

// OrderByItem is one ORDER BY entry.
type OrderByItem struct {
	NodeInfo
	Expr Expr
	Desc bool
	// Asc records an explicit ASC keyword.
	Asc bool

	// Position is the resolved projection index, or -1 for an unrelated
	// sort key.
	Position int
}

// Limit is LIMIT count [OFFSET offset].
type Limit struct {
	NodeInfo
	Count  Expr
	Offset Expr
}

// ---------- Commands ----------

// Insert is INSERT INTO t [(cols)] VALUES (...) or INSERT INTO t [(cols)] query.
type Insert struct {
	StmtInfo
	Table   *TableName
	Columns []*ColumnRef
	Values  []Expr
	Query   QueryCommand
}

func (*Insert) stmtNode() {}

// SetClause is one col = expr entry of an UPDATE.
type SetClause struct {
	Column *ColumnRef
	Value  Expr
}

// Update is UPDATE t SET ... [WHERE ...].
type Update struct {
	StmtInfo
	Table *TableName
	Set   []*SetClause
	Where Expr
}

func (*Update) stmtNode() {}

// Delete is DELETE FROM t [WHERE ...].
type Delete struct {
	StmtInfo
	Table *TableName
	Where Expr
}

func (*Delete) stmtNode() {}

// ExecArg is a positional or named procedure argument.
type ExecArg struct {
	Name  string
	Value Expr

	Param *catalog.Parameter
}

// Exec invokes a stored procedure. It produces the procedure's result set.
type Exec struct {
	StmtInfo
	// Execute records the EXECUTE spelling of the keyword.
	Execute bool
	Name    []string
	Args    []*ExecArg

	Procedure *catalog.Procedure
	// Bound holds one input per procedure parameter in declaration order,
	// nil for omitted parameters with defaults and for output parameters.
	Bound   []Expr
	Columns []*ElementSymbol
}

func (*Exec) stmtNode()  {}
func (*Exec) queryNode() {}

// Projected implements QueryCommand.
func (e *Exec) Projected() []*ElementSymbol { return e.Columns }

// Ordering implements QueryCommand.
func (e *Exec) Ordering() ([]*OrderByItem, *Limit) { return nil, nil }

// HasNamedArgs reports whether the arguments use name = value binding.
func (e *Exec) HasNamedArgs() bool {
	return len(e.Args) > 0 && e.Args[0].Name != ""
}

// ColumnDef is a column of an explicit temp table or dynamic SQL shape.
type ColumnDef struct {
	Name     string
	TypeName string
	Type     types.DataType
}

// CreateTemp is CREATE [LOCAL] TEMPORARY TABLE #t (cols).
type CreateTemp struct {
	StmtInfo
	Local   bool
	Table   *TableName
	Columns []*ColumnDef
}

func (*CreateTemp) stmtNode() {}

// DropTemp is DROP TABLE #t.
type DropTemp struct {
	StmtInfo
	Table *TableName
}

func (*DropTemp) stmtNode() {}
