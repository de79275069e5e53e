package core

import "github.com/leapstack-labs/fedsql/pkg/types"

// ---------- Procedure Language ----------

// Block is BEGIN ... END.
type Block struct {
	StmtInfo
	Stmts []Stmt
}

func (*Block) stmtNode() {}

// CreateProcedure is CREATE VIRTUAL PROCEDURE BEGIN ... END.
type CreateProcedure struct {
	StmtInfo
	Body *Block
}

func (*CreateProcedure) stmtNode() {}

// Declare is DECLARE type name [= expr].
type Declare struct {
	StmtInfo
	TypeName string
	Type     types.DataType
	Name     *ColumnRef
	Init     Expr
}

func (*Declare) stmtNode() {}

// Assign is target = expr.
type Assign struct {
	StmtInfo
	Target *ColumnRef
	Value  Expr
}

func (*Assign) stmtNode() {}

// If is IF (cond) block [ELSE block|if].
type If struct {
	StmtInfo
	Cond Expr
	Then *Block
	Else Stmt
}

func (*If) stmtNode() {}

// Loop is LOOP ON (query) AS cursor block.
type Loop struct {
	StmtInfo
	Query  QueryCommand
	Cursor string
	Body   *Block

	Group *GroupSymbol
}

func (*Loop) stmtNode() {}

// While is WHILE (cond) block.
type While struct {
	StmtInfo
	Cond Expr
	Body *Block
}

func (*While) stmtNode() {}

// Break is BREAK.
type Break struct{ StmtInfo }

func (*Break) stmtNode() {}

// Continue is CONTINUE.
type Continue struct{ StmtInfo }

func (*Continue) stmtNode() {}

// Raise is ERROR expr.
type Raise struct {
	StmtInfo
	Expr Expr
}

func (*Raise) stmtNode() {}

// ExecString is EXECUTE STRING expr [AS cols] [INTO #t] [USING name = expr, ...].
type ExecString struct {
	StmtInfo
	Immediate bool
	Expr      Expr
	As        []*ColumnDef
	Into      *TableName
	Using     []*ExecArg

	Columns []*ElementSymbol
}

func (*ExecString) stmtNode() {}
