// Package types implements the static type lattice shared by every resolver
// component: the runtime data types, the legal implicit and explicit
// conversions between them, conversion costs for overload ranking, closest
// common types, and constant representability checks.
package types

import (
	"fmt"
	"strings"
)

// DataType is a runtime data type.
type DataType int

// Runtime data types. Null is the type of an untyped NULL literal and is
// never the resolved type of a column.
const (
	Null DataType = iota
	String
	Char
	Boolean
	Byte
	Short
	Integer
	Long
	BigInteger
	Float
	Double
	BigDecimal
	Date
	Time
	Timestamp
	Object
	Blob
	Clob
	XML
	Varbinary

	numTypes
)

var typeNames = [numTypes]string{
	Null:       "null",
	String:     "string",
	Char:       "char",
	Boolean:    "boolean",
	Byte:       "byte",
	Short:      "short",
	Integer:    "integer",
	Long:       "long",
	BigInteger: "biginteger",
	Float:      "float",
	Double:     "double",
	BigDecimal: "bigdecimal",
	Date:       "date",
	Time:       "time",
	Timestamp:  "timestamp",
	Object:     "object",
	Blob:       "blob",
	Clob:       "clob",
	XML:        "xml",
	Varbinary:  "varbinary",
}

// aliases maps alternate type names to canonical types.
var aliases = map[string]DataType{
	"varchar":  String,
	"text":     String,
	"tinyint":  Byte,
	"smallint": Short,
	"int":      Integer,
	"bigint":   Long,
	"real":     Float,
	"decimal":  BigDecimal,
	"numeric":  BigDecimal,
	"bool":     Boolean,
}

// String returns the canonical type name.
func (t DataType) String() string {
	if t >= 0 && t < numTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// IsNumeric reports whether t is one of the numeric types.
func (t DataType) IsNumeric() bool {
	return t >= Byte && t <= BigDecimal
}

// IsIntegral reports whether t is an integral numeric type.
func (t DataType) IsIntegral() bool {
	return t >= Byte && t <= BigInteger
}

// IsLOB reports whether t is a large-object type.
func (t DataType) IsLOB() bool {
	return t == Blob || t == Clob || t == XML
}

// Valid reports whether t is a known type.
func (t DataType) Valid() bool {
	return t >= 0 && t < numTypes
}

// All returns every concrete type in declaration order, excluding Null.
func All() []DataType {
	out := make([]DataType, 0, numTypes-1)
	for t := String; t < numTypes; t++ {
		out = append(out, t)
	}
	return out
}

// Parse returns the type named by s. Names are case-insensitive and a small
// set of common SQL aliases is accepted.
func Parse(s string) (DataType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == name {
			return DataType(t), nil
		}
	}
	if t, ok := aliases[name]; ok {
		return t, nil
	}
	return Null, &UnknownTypeError{Name: s}
}

// MustParse is like Parse but panics on unknown names. Intended for
// package-level tables.
func MustParse(s string) DataType {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// UnknownTypeError is returned when a type name is not recognized.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown data type %q", e.Name)
}
