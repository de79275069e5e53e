package resolver

import (
	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/format"
	"github.com/leapstack-labs/fedsql/pkg/token"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// operatorFunctions maps arithmetic and concatenation operators to the
// catalog functions implementing them.
var operatorFunctions = map[token.TokenType]string{
	token.PLUS:  catalog.OpAdd,
	token.MINUS: catalog.OpSubtract,
	token.STAR:  catalog.OpMultiply,
	token.SLASH: catalog.OpDivide,
	token.DPIPE: catalog.OpConcat,
}

// resolveExpr resolves e in scope sc and returns the expression to store in
// its parent. Implicit conversions left by an earlier resolution are
// removed first, so resolving twice yields the same tree.
//
//nolint:gocyclo // one case per expression type
func (rs *resolution) resolveExpr(sc scopeID, e core.Expr) (core.Expr, error) {
	if e == nil {
		return nil, nil
	}
	e = core.StripImplicit(e)

	var err error
	switch x := e.(type) {
	case *core.Literal:
		x.SetType(literalType(x))
	case *core.ColumnRef:
		err = rs.resolveColumnRef(sc, x)
	case *core.ParenExpr:
		x.Expr, err = rs.resolveExpr(sc, x.Expr)
		if err == nil {
			x.SetType(x.Expr.Type())
		}
	case *core.BinaryExpr:
		err = rs.resolveBinary(sc, x)
	case *core.UnaryExpr:
		err = rs.resolveUnary(sc, x)
	case *core.FuncCall:
		err = rs.resolveFunction(sc, x)
	case *core.CaseExpr:
		err = rs.resolveCase(sc, x)
	case *core.CastExpr:
		err = rs.resolveCast(sc, x)
	case *core.InExpr:
		err = rs.resolveIn(sc, x)
	case *core.BetweenExpr:
		err = rs.resolveBetween(sc, x)
	case *core.IsNullExpr:
		x.Expr, err = rs.resolveExpr(sc, x.Expr)
		x.SetType(types.Boolean)
	case *core.LikeExpr:
		err = rs.resolveLike(sc, x)
	case *core.SubqueryExpr:
		err = rs.resolveSubquery(sc, x.Query)
		if err == nil {
			if cols := x.Query.Projected(); len(cols) != 1 {
				err = newError(x, ReasonScalarSubquery, ErrScalarSubquery, len(cols))
			} else {
				x.SetType(cols[0].Type)
			}
		}
	case *core.ExistsExpr:
		err = rs.resolveSubquery(sc, x.Query)
		x.SetType(types.Boolean)
	}
	return e, err
}

func literalType(lit *core.Literal) types.DataType {
	switch lit.Kind {
	case core.LiteralString:
		return types.String
	case core.LiteralBool:
		return types.Boolean
	case core.LiteralNull:
		return types.Null
	}
	return types.LiteralType(lit.Value)
}

// resolveSubquery resolves a nested query whose scope encloses sc, making
// the groups of sc available for correlated references.
func (rs *resolution) resolveSubquery(sc scopeID, q core.QueryCommand) error {
	return rs.resolveQuery(sc, q)
}

// resolveCriteria resolves a predicate and requires it to be boolean. An
// untyped NULL predicate becomes a boolean NULL.
func (rs *resolution) resolveCriteria(sc scopeID, e core.Expr) (core.Expr, error) {
	e, err := rs.resolveExpr(sc, e)
	if err != nil {
		return e, err
	}
	return rs.requireBoolean(e)
}

func (rs *resolution) requireBoolean(e core.Expr) (core.Expr, error) {
	switch e.Type() {
	case types.Boolean:
		return e, nil
	case types.Null:
		e.SetType(types.Boolean)
		return e, nil
	}
	return e, newError(e, ReasonCriteria, ErrCriteria, format.String(e), e.Type())
}

func (rs *resolution) resolveBinary(sc scopeID, x *core.BinaryExpr) error {
	var err error
	if x.Left, err = rs.resolveExpr(sc, x.Left); err != nil {
		return err
	}
	if x.Right, err = rs.resolveExpr(sc, x.Right); err != nil {
		return err
	}

	switch {
	case x.Op == token.AND || x.Op == token.OR:
		if x.Left, err = rs.requireBoolean(x.Left); err != nil {
			return err
		}
		if x.Right, err = rs.requireBoolean(x.Right); err != nil {
			return err
		}
		x.SetType(types.Boolean)
		return nil
	case token.IsComparison(x.Op):
		operands := []core.Expr{x.Left, x.Right}
		if err := rs.reconcile(x, operands); err != nil {
			return err
		}
		x.Left, x.Right = operands[0], operands[1]
		x.SetType(types.Boolean)
		return nil
	}

	name, ok := operatorFunctions[x.Op]
	if !ok {
		return newError(x, ReasonFunctionNotFound, ErrFunctionNotFound, x.Op.String(), "")
	}
	args := []core.Expr{x.Left, x.Right}
	sig, err := rs.bindSignature(x, name, args)
	if err != nil {
		return err
	}
	x.Left, x.Right = args[0], args[1]
	x.Signature = sig
	x.SetType(sig.Returns)
	return nil
}

func (rs *resolution) resolveUnary(sc scopeID, x *core.UnaryExpr) error {
	var err error
	if x.Expr, err = rs.resolveExpr(sc, x.Expr); err != nil {
		return err
	}
	if x.Op == token.NOT {
		if x.Expr, err = rs.requireBoolean(x.Expr); err != nil {
			return err
		}
		x.SetType(types.Boolean)
		return nil
	}
	t := x.Expr.Type()
	if t == types.Null {
		t = types.Integer
		x.Expr.SetType(t)
	}
	if !t.IsNumeric() {
		return newError(x, ReasonNoConversion, ErrNoConversion, format.String(x.Expr), t, "a numeric type")
	}
	x.SetType(t)
	return nil
}

// reconcile converts operands in place to a shared type. Untyped NULLs take
// the type of the others. A string constant compared with a non-string
// operand is converted to that operand's type when its text is
// representable in it; otherwise the closest common type is used.
func (rs *resolution) reconcile(node core.Expr, operands []core.Expr) error {
	target := types.Null
	widen := func(t types.DataType) error {
		switch {
		case t == types.Null || t == target:
			return nil
		case target == types.Null:
			target = t
			return nil
		}
		ct, ok := rs.lattice.CommonType(target, t)
		if !ok {
			return newError(node, ReasonNoConversion, ErrNoCommonType, target, t, format.String(node))
		}
		target = ct
		return nil
	}

	for _, op := range operands {
		if !isStringConstant(op) {
			if err := widen(op.Type()); err != nil {
				return err
			}
		}
	}
	for _, op := range operands {
		if !isStringConstant(op) {
			continue
		}
		lit, _ := constant(op)
		if target != types.Null && types.Representable(lit.Value, types.String, target) {
			continue
		}
		if err := widen(types.String); err != nil {
			return err
		}
	}
	if target == types.Null {
		target = types.String
	}

	for i, op := range operands {
		if op.Type() == target {
			continue
		}
		if isStringConstant(op) {
			operands[i] = core.NewImplicitCast(op, target)
			continue
		}
		converted, res := rs.coerce(op, target)
		if res != coerceOK {
			return rs.coerceError(op, target, res)
		}
		operands[i] = converted
	}
	return nil
}

func isStringConstant(e core.Expr) bool {
	_, ok := constant(e)
	return ok && e.Type() == types.String
}
