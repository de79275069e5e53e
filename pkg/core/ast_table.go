package core

import "strings"

// ---------- FROM Clause Types ----------

// TableName is a named group reference with an optional alias. It is also
// the target of commands and temp table statements.
type TableName struct {
	NodeInfo
	Parts []string
	Alias string

	// Group is the bound symbol.
	Group *GroupSymbol
}

func (*TableName) tableRefNode() {}

// Name returns the dotted name as written.
func (t *TableName) Name() string { return strings.Join(t.Parts, ".") }

// IsTemp reports whether the name uses the #temp prefix.
func (t *TableName) IsTemp() bool {
	return len(t.Parts) == 1 && strings.HasPrefix(t.Parts[0], "#")
}

// DerivedTable is a subquery in FROM. The alias is required.
type DerivedTable struct {
	NodeInfo
	Query QueryCommand
	Alias string

	Group *GroupSymbol
}

func (*DerivedTable) tableRefNode() {}

// ProcTable is a procedure used as a row source, either named directly
// (FROM proc(args)) or wrapped as (EXEC proc(args)) AS alias.
type ProcTable struct {
	NodeInfo
	Exec *Exec
	// Wrapped is set for the (EXEC ...) form, which exposes result
	// columns only.
	Wrapped bool
	Alias   string

	Group *GroupSymbol
}

func (*ProcTable) tableRefNode() {}

// JoinType names a join.
type JoinType string

// JoinType constants.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT OUTER"
	JoinRight JoinType = "RIGHT OUTER"
	JoinFull  JoinType = "FULL OUTER"
	JoinCross JoinType = "CROSS"
)

// JoinExpr is left JOIN right [ON cond].
type JoinExpr struct {
	NodeInfo
	Type  JoinType
	Left  TableRef
	Right TableRef
	On    Expr
}

func (*JoinExpr) tableRefNode() {}
