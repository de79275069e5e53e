package types

// Conversion describes the legal conversion from one type to another.
type Conversion struct {
	From DataType
	To   DataType

	// Implicit conversions may be inserted by the resolver without a cast in
	// the source text.
	Implicit bool

	// Narrowing conversions are implicit only for constants whose value is
	// representable in the target type.
	Narrowing bool

	// Cost ranks implicit conversions for overload resolution. An exact
	// match costs zero.
	Cost int
}

// Lattice is the static conversion table. The zero value is not usable; use
// Default.
type Lattice struct {
	conv [numTypes][numTypes]*Conversion
}

// Costs for the conversion families.
const (
	costToString = 10
	costToObject = 20
)

var defaultLattice = buildLattice()

// Default returns the shared, read-only lattice.
func Default() *Lattice {
	return defaultLattice
}

func buildLattice() *Lattice {
	l := &Lattice{}

	implicit := func(from, to DataType, cost int) {
		l.conv[from][to] = &Conversion{From: from, To: to, Implicit: true, Cost: cost}
	}
	narrowing := func(from, to DataType, cost int) {
		l.conv[from][to] = &Conversion{From: from, To: to, Implicit: true, Narrowing: true, Cost: cost}
	}
	explicit := func(from, to DataType) {
		if l.conv[from][to] == nil {
			l.conv[from][to] = &Conversion{From: from, To: to}
		}
	}

	// Integral widening follows the chain; each step costs one.
	chain := []DataType{Byte, Short, Integer, Long, BigInteger, BigDecimal}
	for i, from := range chain {
		for j := i + 1; j < len(chain); j++ {
			implicit(from, chain[j], j-i)
		}
		for j := 0; j < i; j++ {
			if from != BigDecimal {
				narrowing(from, chain[j], i-j+1)
			}
		}
	}
	// Integral types up to long widen into the floating types after
	// preferring a wider integral type.
	for _, from := range []DataType{Byte, Short, Integer, Long} {
		d := int(Long - from)
		implicit(from, Float, d+2)
		implicit(from, Double, d+3)
	}
	implicit(Float, Double, 1)
	implicit(Float, BigDecimal, 3)
	implicit(Double, BigDecimal, 2)
	narrowing(Double, Float, 2)
	narrowing(BigDecimal, Double, 2)
	narrowing(BigDecimal, Float, 3)

	implicit(Char, String, 1)
	implicit(String, Clob, 3)
	implicit(Char, Clob, 4)
	narrowing(String, Char, 2)

	implicit(Date, Timestamp, 1)
	implicit(Time, Timestamp, 1)
	implicit(Varbinary, Blob, 1)

	for _, t := range All() {
		if t == Object {
			continue
		}
		implicit(t, Object, costToObject)
		explicit(Object, t)
		if !t.IsLOB() && t != String && t != Varbinary && t != Char {
			implicit(t, String, costToString)
		}
	}

	// Explicit-only conversions.
	for _, to := range []DataType{Char, Boolean, Byte, Short, Integer, Long, BigInteger,
		Float, Double, BigDecimal, Date, Time, Timestamp, XML, Varbinary} {
		explicit(String, to)
	}
	numeric := []DataType{Byte, Short, Integer, Long, BigInteger, Float, Double, BigDecimal}
	for _, from := range numeric {
		for _, to := range numeric {
			if from != to {
				explicit(from, to)
			}
		}
		explicit(from, Boolean)
		explicit(Boolean, from)
	}
	explicit(Timestamp, Date)
	explicit(Timestamp, Time)
	explicit(Clob, String)
	explicit(XML, String)
	explicit(XML, Clob)
	explicit(Clob, XML)
	explicit(Blob, Varbinary)
	explicit(Varbinary, String)
	explicit(Char, Integer)

	return l
}

// Conversion returns the conversion between two distinct types, if any.
// Same-type and Null-source conversions are always legal and are reported
// as implicit with zero cost.
func (l *Lattice) Conversion(from, to DataType) (Conversion, bool) {
	if !from.Valid() || !to.Valid() {
		return Conversion{}, false
	}
	if from == to || from == Null {
		return Conversion{From: from, To: to, Implicit: true}, true
	}
	c := l.conv[from][to]
	if c == nil {
		return Conversion{}, false
	}
	return *c, true
}

// ImplicitCost returns the cost of implicitly converting a non-constant
// value. Narrowing conversions are not implicit for non-constants.
func (l *Lattice) ImplicitCost(from, to DataType) (int, bool) {
	c, ok := l.Conversion(from, to)
	if !ok || !c.Implicit || c.Narrowing {
		return 0, false
	}
	return c.Cost, true
}

// IsImplicit reports whether a non-constant value of type from may be
// silently converted to to.
func (l *Lattice) IsImplicit(from, to DataType) bool {
	_, ok := l.ImplicitCost(from, to)
	return ok
}

// CanConvert reports whether any conversion, implicit or explicit, exists.
func (l *Lattice) CanConvert(from, to DataType) bool {
	_, ok := l.Conversion(from, to)
	return ok
}

// CommonType returns the closest type both a and b implicitly convert to.
// A Null operand defers to the other. Object is only chosen when one of the
// operands already is Object.
func (l *Lattice) CommonType(a, b DataType) (DataType, bool) {
	switch {
	case a == b:
		return a, true
	case a == Null:
		return b, true
	case b == Null:
		return a, true
	}
	best, bestCost := Null, -1
	for _, t := range All() {
		if t == Object && a != Object && b != Object {
			continue
		}
		ca, ok := l.ImplicitCost(a, t)
		if !ok {
			continue
		}
		cb, ok := l.ImplicitCost(b, t)
		if !ok {
			continue
		}
		if bestCost < 0 || ca+cb < bestCost {
			best, bestCost = t, ca+cb
		}
	}
	return best, bestCost >= 0
}

// Conversions lists every conversion in the table, for reporting.
func (l *Lattice) Conversions() []Conversion {
	var out []Conversion
	for from := range l.conv {
		for to := range l.conv[from] {
			if c := l.conv[from][to]; c != nil {
				out = append(out, *c)
			}
		}
	}
	return out
}
