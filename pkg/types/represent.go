package types

import (
	"math"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	minLong = big.NewInt(math.MinInt64)
	maxLong = big.NewInt(math.MaxInt64)
)

var integralBounds = map[DataType][2]int64{
	Byte:    {math.MinInt8, math.MaxInt8},
	Short:   {math.MinInt16, math.MaxInt16},
	Integer: {math.MinInt32, math.MaxInt32},
}

// LiteralType returns the narrowest type of a numeric literal: integer,
// long or biginteger for whole numbers and double for everything else.
func LiteralType(text string) DataType {
	if strings.ContainsAny(text, ".eE") {
		return Double
	}
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return Double
	}
	switch {
	case n.IsInt64() && n.Int64() >= math.MinInt32 && n.Int64() <= math.MaxInt32:
		return Integer
	case n.IsInt64():
		return Long
	default:
		return BigInteger
	}
}

// Representable reports whether the constant text, of static type from, can
// be carried by the target type without loss or overflow.
func Representable(text string, from, to DataType) bool {
	if from == to || from == Null {
		return true
	}
	switch {
	case from.IsNumeric() && to.IsNumeric():
		return numericFits(text, to)
	case from == String:
		return stringFits(text, to)
	default:
		return Default().IsImplicit(from, to)
	}
}

func numericFits(text string, to DataType) bool {
	switch to {
	case Byte, Short, Integer, Long, BigInteger:
		n, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return false
		}
		if to == BigInteger {
			return true
		}
		if n.Cmp(minLong) < 0 || n.Cmp(maxLong) > 0 {
			return false
		}
		if to == Long {
			return true
		}
		b := integralBounds[to]
		v := n.Int64()
		return v >= b[0] && v <= b[1]
	case Float:
		f, _, err := big.ParseFloat(text, 10, 64, big.ToNearestEven)
		if err != nil {
			return false
		}
		v, _ := f.Float64()
		return math.Abs(v) <= math.MaxFloat32
	case Double:
		f, _, err := big.ParseFloat(text, 10, 64, big.ToNearestEven)
		if err != nil {
			return false
		}
		v, _ := f.Float64()
		return !math.IsInf(v, 0)
	case BigDecimal:
		_, _, err := big.ParseFloat(text, 10, 64, big.ToNearestEven)
		return err == nil
	}
	return false
}

var temporalLayouts = map[DataType][]string{
	Date:      {"2006-01-02"},
	Time:      {"15:04:05"},
	Timestamp: {"2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999", "2006-01-02T15:04:05"},
}

func stringFits(text string, to DataType) bool {
	switch {
	case to == Char:
		return utf8.RuneCountInString(text) == 1
	case to == String || to == Clob || to == Object || to == XML || to == Varbinary:
		return true
	case to == Boolean:
		v := strings.ToLower(strings.TrimSpace(text))
		return v == "true" || v == "false"
	case to.IsNumeric():
		return numericFits(strings.TrimSpace(text), to)
	}
	for _, layout := range temporalLayouts[to] {
		if _, err := time.Parse(layout, text); err == nil {
			return true
		}
	}
	return false
}
