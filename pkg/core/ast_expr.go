package core

import (
	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/token"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// ---------- Expression Types ----------

// ColumnRef is a column or variable reference, qualified to any prefix
// length. Parts holds the qualifier segments followed by the name.
type ColumnRef struct {
	ExprInfo
	Parts []string

	// Element is the bound column or variable.
	Element *ElementSymbol
	// Correlated is set when the element belongs to an enclosing query.
	Correlated bool
}

func (*ColumnRef) exprNode() {}

// Name returns the unqualified element name.
func (c *ColumnRef) Name() string { return c.Parts[len(c.Parts)-1] }

// Qualifier returns the group qualifier segments, if any.
func (c *ColumnRef) Qualifier() []string { return c.Parts[:len(c.Parts)-1] }

// LiteralKind classifies literal tokens.
type LiteralKind int

// Literal kinds.
const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// Literal is a constant. Value holds the source text for numbers and the
// unescaped content for strings.
type Literal struct {
	ExprInfo
	Kind  LiteralKind
	Value string
}

func (*Literal) exprNode() {}

// IsNull reports whether the literal is NULL.
func (l *Literal) IsNull() bool { return l.Kind == LiteralNull }

// BinaryExpr is an infix operation. Arithmetic and concatenation bind a
// catalog signature; comparisons and logical operators do not.
type BinaryExpr struct {
	ExprInfo
	Left  Expr
	Op    token.TokenType
	Right Expr

	Signature *catalog.Signature
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is NOT or arithmetic negation.
type UnaryExpr struct {
	ExprInfo
	Op   token.TokenType
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

// FuncCall is a function or aggregate invocation. Star is set for COUNT(*).
type FuncCall struct {
	ExprInfo
	Name     string
	Distinct bool
	Star     bool
	Args     []Expr

	Signature *catalog.Signature
}

func (*FuncCall) exprNode() {}

// WhenClause is one WHEN ... THEN arm.
type WhenClause struct {
	Cond   Expr
	Result Expr
}

// CaseExpr is a simple (Operand set) or searched CASE.
type CaseExpr struct {
	ExprInfo
	Operand Expr
	Whens   []*WhenClause
	Else    Expr
}

func (*CaseExpr) exprNode() {}

// CastStyle records the source syntax of an explicit conversion.
type CastStyle int

// Cast styles.
const (
	CastSyntax    CastStyle = iota // CAST(x AS t)
	ConvertSyntax                  // CONVERT(x, t)
)

// CastExpr converts an expression to a target type. Implicit conversions
// are inserted by the resolver and are not rendered.
type CastExpr struct {
	ExprInfo
	Expr     Expr
	TypeName string
	Target   types.DataType
	Style    CastStyle
	Implicit bool
}

func (*CastExpr) exprNode() {}

// NewImplicitCast wraps e in an implicit conversion to target.
func NewImplicitCast(e Expr, target types.DataType) *CastExpr {
	c := &CastExpr{Expr: e, TypeName: target.String(), Target: target, Implicit: true}
	c.Start, c.Stop = e.Pos(), e.End()
	c.Typ = target
	return c
}

// StripImplicit returns the expression under any implicit conversions.
func StripImplicit(e Expr) Expr {
	for {
		c, ok := e.(*CastExpr)
		if !ok || !c.Implicit {
			return e
		}
		e = c.Expr
	}
}

// InExpr is x [NOT] IN (list) or x [NOT] IN (subquery).
type InExpr struct {
	ExprInfo
	Expr   Expr
	Not    bool
	Values []Expr
	Query  QueryCommand
}

func (*InExpr) exprNode() {}

// BetweenExpr is x [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	ExprInfo
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) exprNode() {}

// IsNullExpr is x IS [NOT] NULL.
type IsNullExpr struct {
	ExprInfo
	Expr Expr
	Not  bool
}

func (*IsNullExpr) exprNode() {}

// LikeExpr is x [NOT] LIKE pattern.
type LikeExpr struct {
	ExprInfo
	Expr    Expr
	Not     bool
	Pattern Expr
}

func (*LikeExpr) exprNode() {}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	ExprInfo
	Expr Expr
}

func (*ParenExpr) exprNode() {}

// SubqueryExpr is a scalar subquery.
type SubqueryExpr struct {
	ExprInfo
	Query QueryCommand
}

func (*SubqueryExpr) exprNode() {}

// ExistsExpr is [NOT] EXISTS (subquery).
type ExistsExpr struct {
	ExprInfo
	Not   bool
	Query QueryCommand
}

func (*ExistsExpr) exprNode() {}
