package types

import (
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// nativeTypes maps database type names, as reported by information_schema
// or sqlite pragmas, onto runtime types.
var nativeTypes = map[string]DataType{
	"character varying":           String,
	"varchar":                     String,
	"text":                        String,
	"character":                   Char,
	"char":                        Char,
	"bpchar":                      Char,
	"boolean":                     Boolean,
	"bool":                        Boolean,
	"tinyint":                     Byte,
	"smallint":                    Short,
	"int2":                        Short,
	"integer":                     Integer,
	"int":                         Integer,
	"int4":                        Integer,
	"bigint":                      Long,
	"int8":                        Long,
	"hugeint":                     BigInteger,
	"real":                        Float,
	"float4":                      Float,
	"float":                       Double,
	"double":                      Double,
	"double precision":            Double,
	"float8":                      Double,
	"numeric":                     BigDecimal,
	"decimal":                     BigDecimal,
	"date":                        Date,
	"time":                        Time,
	"time without time zone":      Time,
	"timestamp":                   Timestamp,
	"timestamp without time zone": Timestamp,
	"timestamp with time zone":    Timestamp,
	"timestamptz":                 Timestamp,
	"datetime":                    Timestamp,
	"blob":                        Blob,
	"bytea":                       Varbinary,
	"clob":                        Clob,
	"xml":                         XML,
	"json":                        Clob,
	"jsonb":                       Clob,
}

// FromNative maps a database-reported type name onto a runtime type.
// Length and precision suffixes are ignored; unknown names map to Object.
func FromNative(name string) DataType {
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}
	if t, ok := nativeTypes[n]; ok {
		return t
	}
	if t, err := Parse(n); err == nil {
		return t
	}
	return Object
}

// MarshalText implements encoding.TextMarshaler.
func (t DataType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DataType) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// DecodeHook returns a mapstructure hook that decodes type names into
// DataType values.
func DecodeHook() mapstructure.DecodeHookFuncType {
	dataType := reflect.TypeOf(DataType(0))
	return func(from, to reflect.Type, data any) (any, error) {
		if to != dataType || from.Kind() != reflect.String {
			return data, nil
		}
		return Parse(data.(string))
	}
}
