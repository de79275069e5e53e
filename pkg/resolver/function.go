package resolver

import (
	"strings"

	"github.com/leapstack-labs/fedsql/pkg/catalog"
	"github.com/leapstack-labs/fedsql/pkg/core"
	"github.com/leapstack-labs/fedsql/pkg/format"
	"github.com/leapstack-labs/fedsql/pkg/types"
)

// constant returns the literal under implicit conversions and parentheses,
// if the expression is a non-null constant.
func constant(e core.Expr) (*core.Literal, bool) {
	for {
		switch x := core.StripImplicit(e).(type) {
		case *core.ParenExpr:
			e = x.Expr
		case *core.Literal:
			return x, !x.IsNull()
		default:
			return nil, false
		}
	}
}

// isNullLiteral reports whether e is an untyped NULL.
func isNullLiteral(e core.Expr) bool {
	lit, ok := core.StripImplicit(e).(*core.Literal)
	return ok && lit.IsNull()
}

// argCost returns the cost of passing arg where param is declared. A
// constant must also be representable in param, so an out-of-range literal
// eliminates the candidate instead of failing the call.
func (rs *resolution) argCost(arg core.Expr, param types.DataType, allNull bool) (int, bool) {
	from := arg.Type()
	if from == types.Null {
		if !allNull {
			return 0, true
		}
		from = types.String
	}
	if from == param {
		return 0, true
	}
	if lit, ok := constant(arg); ok {
		conv, ok := rs.lattice.Conversion(from, param)
		if !ok || !conv.Implicit || !types.Representable(lit.Value, from, param) {
			return 0, false
		}
		return conv.Cost, true
	}
	return rs.lattice.ImplicitCost(from, param)
}

// bindSignature picks the cheapest signature of name accepting args and
// converts args in place to its parameter types. Untyped NULL arguments are
// retyped rather than wrapped. A tie between cheapest candidates is an
// ambiguity; no candidate is an unknown function.
func (rs *resolution) bindSignature(call core.Expr, name string, args []core.Expr) (*catalog.Signature, error) {
	sigs, err := rs.catalog.Functions(name)
	if err != nil {
		return nil, err
	}

	allNull := len(args) > 0
	for _, a := range args {
		if a.Type() != types.Null {
			allNull = false
		}
	}

	var best []*catalog.Signature
	bestCost := -1
	for _, sig := range sigs {
		if !sig.Accepts(len(args)) {
			continue
		}
		total, ok := 0, true
		for i, a := range args {
			c, fits := rs.argCost(a, sig.ParamType(i), allNull)
			if !fits {
				ok = false
				break
			}
			total += c
		}
		switch {
		case !ok:
		case bestCost < 0 || total < bestCost:
			best, bestCost = []*catalog.Signature{sig}, total
		case total == bestCost:
			best = append(best, sig)
		}
	}

	switch len(best) {
	case 0:
		argTypes := make([]string, len(args))
		for i, a := range args {
			argTypes[i] = a.Type().String()
		}
		return nil, newError(call, ReasonFunctionNotFound, ErrFunctionNotFound, name, strings.Join(argTypes, ", "))
	case 1:
	default:
		candidates := make([]string, len(best))
		for i, s := range best {
			candidates[i] = s.String()
		}
		return nil, newError(call, ReasonFunctionAmbiguous, ErrFunctionAmbiguous, format.String(call), strings.Join(candidates, "; "))
	}

	sig := best[0]
	for i, a := range args {
		args[i] = convertArg(a, sig.ParamType(i))
	}
	rs.logger.Debug("bound function", "function", name, "signature", sig.String(), "cost", bestCost)
	return sig, nil
}

// convertArg converts an argument whose type differs from the declared
// parameter type. An untyped NULL takes the parameter type in place.
func convertArg(arg core.Expr, param types.DataType) core.Expr {
	switch {
	case arg.Type() == param:
		return arg
	case isNullLiteral(arg):
		arg.SetType(param)
		return arg
	}
	return core.NewImplicitCast(arg, param)
}

// resolveFunction resolves the arguments of a call and binds its
// signature.
func (rs *resolution) resolveFunction(sc scopeID, fn *core.FuncCall) error {
	for i, a := range fn.Args {
		arg, err := rs.resolveExpr(sc, a)
		if err != nil {
			return err
		}
		fn.Args[i] = arg
	}

	if catalog.EqualName(fn.Name, catalog.FuncLookup) {
		return rs.resolveLookup(fn)
	}

	sig, err := rs.bindSignature(fn, fn.Name, fn.Args)
	if err != nil {
		return err
	}
	if err := checkConstantArgs(fn, sig); err != nil {
		return err
	}
	fn.Signature = sig
	fn.SetType(sig.Returns)
	return nil
}

func checkConstantArgs(fn *core.FuncCall, sig *catalog.Signature) error {
	for i := 0; i < sig.ConstantArgs && i < len(fn.Args); i++ {
		if _, ok := constant(fn.Args[i]); !ok {
			return newError(fn, ReasonConstantRequired, ErrConstantRequired, i+1, fn.Name)
		}
	}
	return nil
}

// resolveLookup binds lookup(group, returnColumn, keyColumn, key). The first
// three arguments must be constants naming catalog objects; the call takes
// the type of the return column and the key is converted to the type of the
// key column.
func (rs *resolution) resolveLookup(fn *core.FuncCall) error {
	sigs, err := rs.catalog.Functions(fn.Name)
	if err != nil {
		return err
	}
	var sig *catalog.Signature
	for _, s := range sigs {
		if s.Accepts(len(fn.Args)) {
			sig = s
			break
		}
	}
	if sig == nil {
		return newError(fn, ReasonFunctionNotFound, ErrFunctionNotFound, fn.Name, "")
	}
	if err := checkConstantArgs(fn, sig); err != nil {
		return err
	}

	names := make([]string, 3)
	for i := range names {
		lit, _ := constant(fn.Args[i])
		names[i] = lit.Value
	}
	path := catalog.SplitPath(names[0])
	g, err := rs.catalog.FindGroup(path)
	if err != nil {
		return groupLookupError(fn.Args[0], path, err)
	}
	ret, key := g.Column(names[1]), g.Column(names[2])
	for i, c := range []*catalog.Column{ret, key} {
		if c == nil {
			return newError(fn.Args[i+1], ReasonElementNotFound, ErrElementNotFound, names[0]+"."+names[i+1])
		}
	}

	for i := range 3 {
		fn.Args[i] = convertArg(fn.Args[i], types.String)
	}
	arg, res := rs.coerce(fn.Args[3], key.Type)
	if res != coerceOK {
		return rs.coerceError(fn.Args[3], key.Type, res)
	}
	fn.Args[3] = arg
	fn.Signature = sig
	fn.SetType(ret.Type)
	return nil
}

type coerceResult int

const (
	coerceOK coerceResult = iota
	coerceNoConversion
	coerceNotRepresentable
)

// coerce converts e to target in an assignment context. Unlike overload
// ranking, a constant that is not representable in target is an error.
func (rs *resolution) coerce(e core.Expr, target types.DataType) (core.Expr, coerceResult) {
	from := e.Type()
	switch {
	case from == target:
		return e, coerceOK
	case from == types.Null:
		return convertArg(e, target), coerceOK
	}
	if lit, ok := constant(e); ok {
		conv, ok := rs.lattice.Conversion(from, target)
		if !ok || !conv.Implicit {
			return e, coerceNoConversion
		}
		if !types.Representable(lit.Value, from, target) {
			return e, coerceNotRepresentable
		}
		return core.NewImplicitCast(e, target), coerceOK
	}
	if !rs.lattice.IsImplicit(from, target) {
		return e, coerceNoConversion
	}
	return core.NewImplicitCast(e, target), coerceOK
}

func (rs *resolution) coerceError(e core.Expr, target types.DataType, res coerceResult) error {
	if res == coerceNotRepresentable {
		return newError(e, ReasonNotRepresentable, ErrNotRepresentable, format.String(e), target)
	}
	return newError(e, ReasonNoConversion, ErrNoConversion, format.String(e), e.Type(), target)
}

// assignError reports a value that cannot be stored in a typed target.
func (rs *resolution) assignError(target string, e core.Expr, t types.DataType, res coerceResult) error {
	if res == coerceNotRepresentable {
		return newError(e, ReasonNotRepresentable, ErrNotRepresentable, format.String(e), t)
	}
	return newError(e, ReasonNoConversion, ErrAssignType, target, t, format.String(e))
}
