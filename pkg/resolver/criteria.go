package resolver

import (
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/format"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

func (rs *resolution) resolveCase(sc scopeID, x *core.CaseExpr) error {
	var err error
	if x.Operand, err = rs.resolveExpr(sc, x.Operand); err != nil {
		return err
	}

	for _, w := range x.Whens {
		if x.Operand != nil {
			w.Cond, err = rs.resolveExpr(sc, w.Cond)
		} else {
			w.Cond, err = rs.resolveCriteria(sc, w.Cond)
		}
		if err != nil {
			return err
		}
		if w.Result, err = rs.resolveExpr(sc, w.Result); err != nil {
			return err
		}
	}
	if x.Else, err = rs.resolveExpr(sc, x.Else); err != nil {
		return err
	}

	// A simple CASE compares its operand with every WHEN value.
	if x.Operand != nil {
		operands := []core.Expr{x.Operand}
		for _, w := range x.Whens {
			operands = append(operands, w.Cond)
		}
		if err := rs.reconcile(x, operands); err != nil {
			return err
		}
		x.Operand = operands[0]
		for i, w := range x.Whens {
			w.Cond = operands[i+1]
		}
	}

	results := make([]core.Expr, 0, len(x.Whens)+1)
	for _, w := range x.Whens {
		results = append(results, w.Result)
	}
	if x.Else != nil {
		results = append(results, x.Else)
	}
	t, err := rs.commonResultType(x, results)
	if err != nil {
		return err
	}
	for i, w := range x.Whens {
		w.Result = convertArg(results[i], t)
	}
	if x.Else != nil {
		x.Else = convertArg(results[len(results)-1], t)
	}
	x.SetType(t)
	return nil
}

// commonResultType folds the types of exprs left to right into their
// closest common type. All-NULL results are strings.
func (rs *resolution) commonResultType(node core.Expr, exprs []core.Expr) (types.DataType, error) {
	t := types.Null
	for _, e := range exprs {
		ct, ok := rs.lattice.CommonType(t, e.Type())
		if !ok {
			return t, newError(node, ReasonNoConversion, ErrNoCommonType, t, e.Type(), format.String(node))
		}
		t = ct
	}
	if t == types.Null {
		t = types.String
	}
	return t, nil
}

// resolveCast checks that an explicit conversion exists.
func (rs *resolution) resolveCast(sc scopeID, x *core.CastExpr) error {
	var err error
	if x.Expr, err = rs.resolveExpr(sc, x.Expr); err != nil {
		return err
	}
	from := x.Expr.Type()
	if from != types.Null && !rs.lattice.CanConvert(from, x.Target) {
		return newError(x, ReasonNoConversion, ErrExplicitConversion, format.String(x.Expr), from, x.Target)
	}
	x.SetType(x.Target)
	return nil
}

func (rs *resolution) resolveIn(sc scopeID, x *core.InExpr) error {
	var err error
	if x.Expr, err = rs.resolveExpr(sc, x.Expr); err != nil {
		return err
	}
	x.SetType(types.Boolean)

	if x.Query != nil {
		if err := rs.resolveSubquery(sc, x.Query); err != nil {
			return err
		}
		cols := x.Query.Projected()
		if len(cols) != 1 {
			return newError(x, ReasonScalarSubquery, ErrScalarSubquery, len(cols))
		}
		ct, ok := rs.lattice.CommonType(x.Expr.Type(), cols[0].Type)
		if !ok {
			return newError(x, ReasonNoConversion, ErrNoCommonType, x.Expr.Type(), cols[0].Type, format.String(x))
		}
		converted, res := rs.coerce(x.Expr, ct)
		if res != coerceOK {
			return rs.coerceError(x.Expr, ct, res)
		}
		x.Expr = converted
		return nil
	}

	operands := []core.Expr{x.Expr}
	for i, v := range x.Values {
		if x.Values[i], err = rs.resolveExpr(sc, v); err != nil {
			return err
		}
		operands = append(operands, x.Values[i])
	}
	if err := rs.reconcile(x, operands); err != nil {
		return err
	}
	x.Expr = operands[0]
	copy(x.Values, operands[1:])
	return nil
}

func (rs *resolution) resolveBetween(sc scopeID, x *core.BetweenExpr) error {
	var err error
	if x.Expr, err = rs.resolveExpr(sc, x.Expr); err != nil {
		return err
	}
	if x.Low, err = rs.resolveExpr(sc, x.Low); err != nil {
		return err
	}
	if x.High, err = rs.resolveExpr(sc, x.High); err != nil {
		return err
	}
	operands := []core.Expr{x.Expr, x.Low, x.High}
	if err := rs.reconcile(x, operands); err != nil {
		return err
	}
	x.Expr, x.Low, x.High = operands[0], operands[1], operands[2]
	x.SetType(types.Boolean)
	return nil
}

// resolveLike converts both sides to strings.
func (rs *resolution) resolveLike(sc scopeID, x *core.LikeExpr) error {
	var err error
	if x.Expr, err = rs.resolveExpr(sc, x.Expr); err != nil {
		return err
	}
	if x.Pattern, err = rs.resolveExpr(sc, x.Pattern); err != nil {
		return err
	}
	for _, side := range []*core.Expr{&x.Expr, &x.Pattern} {
		converted, res := rs.coerce(*side, types.String)
		if res != coerceOK {
			return rs.coerceError(*side, types.String, res)
		}
		*side = converted
	}
	x.SetType(types.Boolean)
	return nil
}
