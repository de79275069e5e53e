package types

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    DataType
		wantErr bool
	}{
		{name: "canonical", input: "integer", want: Integer},
		{name: "case insensitive", input: "STRING", want: String},
		{name: "alias", input: "varchar", want: String},
		{name: "alias bigint", input: "bigint", want: Long},
		{name: "unknown", input: "uuid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				var unknown *UnknownTypeError
				require.ErrorAs(t, err, &unknown)
				assert.Equal(t, tt.input, unknown.Name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImplicitCost(t *testing.T) {
	l := Default()
	tests := []struct {
		name     string
		from, to DataType
		cost     int
		ok       bool
	}{
		{name: "identity", from: Integer, to: Integer, cost: 0, ok: true},
		{name: "null to anything", from: Null, to: Date, cost: 0, ok: true},
		{name: "integer widens to long", from: Integer, to: Long, cost: 1, ok: true},
		{name: "integer widens to bigdecimal", from: Integer, to: BigDecimal, cost: 3, ok: true},
		{name: "integer to string", from: Integer, to: String, cost: costToString, ok: true},
		{name: "char to string", from: Char, to: String, cost: 1, ok: true},
		{name: "string to clob", from: String, to: Clob, cost: 3, ok: true},
		{name: "date to timestamp", from: Date, to: Timestamp, cost: 1, ok: true},
		{name: "anything to object", from: Boolean, to: Object, cost: costToObject, ok: true},
		{name: "string to integer is explicit", from: String, to: Integer, ok: false},
		{name: "narrowing is not implicit for values", from: Integer, to: Short, ok: false},
		{name: "clob to string is explicit", from: Clob, to: String, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, ok := l.ImplicitCost(tt.from, tt.to)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.cost, cost)
			}
		})
	}
}

func TestConversionKinds(t *testing.T) {
	l := Default()

	c, ok := l.Conversion(Integer, Short)
	require.True(t, ok)
	assert.True(t, c.Implicit)
	assert.True(t, c.Narrowing)

	c, ok = l.Conversion(String, Integer)
	require.True(t, ok)
	assert.False(t, c.Implicit)

	assert.True(t, l.CanConvert(Timestamp, Date))
	assert.False(t, l.CanConvert(Blob, Integer))
	assert.NotEmpty(t, l.Conversions())
}

func TestCommonType(t *testing.T) {
	l := Default()
	tests := []struct {
		name string
		a, b DataType
		want DataType
		ok   bool
	}{
		{name: "same", a: Integer, b: Integer, want: Integer, ok: true},
		{name: "null defers", a: Null, b: Date, want: Date, ok: true},
		{name: "numeric widening", a: Integer, b: Long, want: Long, ok: true},
		{name: "integer and string", a: Integer, b: String, want: String, ok: true},
		{name: "integer and double", a: Integer, b: Double, want: Double, ok: true},
		{name: "date and timestamp", a: Date, b: Timestamp, want: Timestamp, ok: true},
		{name: "char and string", a: Char, b: String, want: String, ok: true},
		{name: "blob and integer", a: Blob, b: Integer, ok: false},
		{name: "object only with object", a: Object, b: Integer, want: Object, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.CommonType(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRepresentable(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		from, to DataType
		want     bool
	}{
		{name: "small integer to short", text: "5", from: Integer, to: Short, want: true},
		{name: "large integer to short", text: "100000", from: Integer, to: Short, want: false},
		{name: "negative to byte", text: "-128", from: Integer, to: Byte, want: true},
		{name: "overflow byte", text: "128", from: Integer, to: Byte, want: false},
		{name: "long to integer", text: "9999999999", from: Long, to: Integer, want: false},
		{name: "fraction to integer", text: "1.5", from: Double, to: Integer, want: false},
		{name: "double to float", text: "1e300", from: Double, to: Float, want: false},
		{name: "string to char", text: "a", from: String, to: Char, want: true},
		{name: "long string to char", text: "ab", from: String, to: Char, want: false},
		{name: "string to integer", text: "42", from: String, to: Integer, want: true},
		{name: "bad string to integer", text: "x", from: String, to: Integer, want: false},
		{name: "string to date", text: "2024-01-31", from: String, to: Date, want: true},
		{name: "string to timestamp", text: "2024-01-31 10:11:12", from: String, to: Timestamp, want: true},
		{name: "string to boolean", text: "TRUE", from: String, to: Boolean, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Representable(tt.text, tt.from, tt.to))
		})
	}
}

func TestLiteralType(t *testing.T) {
	assert.Equal(t, Integer, LiteralType("1"))
	assert.Equal(t, Long, LiteralType("3000000000"))
	assert.Equal(t, BigInteger, LiteralType("99999999999999999999"))
	assert.Equal(t, Double, LiteralType("1.25"))
	assert.Equal(t, Double, LiteralType("1e5"))
}

func TestFromNative(t *testing.T) {
	assert.Equal(t, String, FromNative("character varying"))
	assert.Equal(t, String, FromNative("VARCHAR(255)"))
	assert.Equal(t, BigDecimal, FromNative("numeric(10,2)"))
	assert.Equal(t, Timestamp, FromNative("timestamp with time zone"))
	assert.Equal(t, Object, FromNative("geometry"))
}

func TestDecodeHook(t *testing.T) {
	hook := DecodeHook()

	got, err := hook(reflect.TypeOf(""), reflect.TypeOf(DataType(0)), "long")
	require.NoError(t, err)
	assert.Equal(t, Long, got)

	got, err = hook(reflect.TypeOf(""), reflect.TypeOf(""), "long")
	require.NoError(t, err)
	assert.Equal(t, "long", got)

	_, err = hook(reflect.TypeOf(""), reflect.TypeOf(DataType(0)), "nope")
	assert.Error(t, err)
}

func TestTextMarshaling(t *testing.T) {
	b, err := Timestamp.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "timestamp", string(b))

	var dt DataType
	require.NoError(t, dt.UnmarshalText([]byte("int")))
	assert.Equal(t, Integer, dt)
}
