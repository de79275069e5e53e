package catalog

import "github.com/leapstack-labs/fedsql/pkg/types"

// Operator function names. Arithmetic and concatenation operators resolve
// through the function catalog like any other call.
const (
	OpAdd      = "+"
	OpSubtract = "-"
	OpMultiply = "*"
	OpDivide   = "/"
	OpConcat   = "||"

	// FuncLookup is the keyed code-table lookup whose first three arguments
	// name a group, its return column and its key column.
	FuncLookup = "lookup"
)

var (
	numericTypes = []types.DataType{types.Integer, types.Long, types.BigInteger,
		types.Float, types.Double, types.BigDecimal}
	comparableTypes = []types.DataType{types.String, types.Char, types.Boolean, types.Byte,
		types.Short, types.Integer, types.Long, types.BigInteger, types.Float, types.Double,
		types.BigDecimal, types.Date, types.Time, types.Timestamp}
)

func sig(name string, returns types.DataType, params ...types.DataType) *Signature {
	return &Signature{Name: name, Params: params, Returns: returns}
}

func variadic(name string, returns types.DataType, params ...types.DataType) *Signature {
	s := sig(name, returns, params...)
	s.Variadic = true
	return s
}

func aggregate(name string, returns types.DataType, params ...types.DataType) *Signature {
	s := sig(name, returns, params...)
	s.Aggregate = true
	return s
}

// SystemFunctions returns a fresh copy of the built-in function library.
func SystemFunctions() []*Signature {
	var out []*Signature
	add := func(s ...*Signature) { out = append(out, s...) }

	for _, t := range numericTypes {
		for _, op := range []string{OpAdd, OpSubtract, OpMultiply, OpDivide} {
			add(sig(op, t, t, t))
		}
		add(sig("abs", t, t))
		add(sig("round", t, t, types.Integer))
	}
	add(sig("mod", types.Integer, types.Integer, types.Integer),
		sig("mod", types.Long, types.Long, types.Long),
		sig("ceiling", types.Double, types.Double),
		sig("floor", types.Double, types.Double),
		sig("sqrt", types.Double, types.Double),
		sig("power", types.Double, types.Double, types.Double))

	add(sig(OpConcat, types.String, types.String, types.String),
		sig(OpConcat, types.Clob, types.Clob, types.Clob),
		sig("concat", types.String, types.String, types.String),
		sig("concat", types.Clob, types.Clob, types.Clob),
		sig("upper", types.String, types.String),
		sig("lower", types.String, types.String),
		sig("ucase", types.String, types.String),
		sig("lcase", types.String, types.String),
		sig("trim", types.String, types.String),
		sig("ltrim", types.String, types.String),
		sig("rtrim", types.String, types.String),
		sig("length", types.Integer, types.String),
		sig("length", types.Long, types.Clob),
		sig("substring", types.String, types.String, types.Integer),
		sig("substring", types.String, types.String, types.Integer, types.Integer),
		sig("left", types.String, types.String, types.Integer),
		sig("right", types.String, types.String, types.Integer),
		sig("replace", types.String, types.String, types.String, types.String),
		sig("locate", types.Integer, types.String, types.String),
		sig("repeat", types.String, types.String, types.Integer))

	add(sig("now", types.Timestamp),
		sig("curdate", types.Date),
		sig("curtime", types.Time),
		sig("year", types.Integer, types.Date),
		sig("year", types.Integer, types.Timestamp),
		sig("month", types.Integer, types.Date),
		sig("month", types.Integer, types.Timestamp),
		sig("dayofmonth", types.Integer, types.Date),
		sig("dayofmonth", types.Integer, types.Timestamp),
		sig("hour", types.Integer, types.Time),
		sig("hour", types.Integer, types.Timestamp))

	for _, t := range types.All() {
		add(variadic("coalesce", t, t, t))
		add(sig("ifnull", t, t, t), sig("nvl", t, t, t))
	}

	lookup := sig(FuncLookup, types.Object, types.String, types.String, types.String, types.Object)
	lookup.ConstantArgs = 3
	add(lookup)

	add(aggregate("count", types.Integer),
		aggregate("count", types.Integer, types.Object))
	for _, t := range []types.DataType{types.Byte, types.Short, types.Integer, types.Long} {
		add(aggregate("sum", types.Long, t))
		add(aggregate("avg", types.BigDecimal, t))
	}
	add(aggregate("sum", types.BigInteger, types.BigInteger),
		aggregate("sum", types.Double, types.Float),
		aggregate("sum", types.Double, types.Double),
		aggregate("sum", types.BigDecimal, types.BigDecimal),
		aggregate("avg", types.BigDecimal, types.BigInteger),
		aggregate("avg", types.Double, types.Float),
		aggregate("avg", types.Double, types.Double),
		aggregate("avg", types.BigDecimal, types.BigDecimal))
	for _, t := range comparableTypes {
		add(aggregate("min", t, t), aggregate("max", t, t))
	}
	return out
}
