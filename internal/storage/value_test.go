package storage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ  ValueType
		raw  string
		want Value
	}{
		{BoolType, "true", BoolValue(true)},
		{BoolType, " FALSE ", BoolValue(false)},
		{BoolType, "TrUe", BoolValue(true)},
		{IntType, "42", IntValue(42)},
		{IntType, " -7 ", IntValue(-7)},
		{FloatType, "10.5", FloatValue(10.5)},
		{FloatType, "3", FloatValue(3)},
		{FloatType, "-1.5e3", FloatValue(-1500)},
		{StringType, "  Alice ", StringValue("Alice")},
		{StringType, "", StringValue("")},
	}
	for _, tt := range tests {
		got, err := tt.typ.Parse(tt.raw)
		require.NoError(t, err, "%s %q", tt.typ, tt.raw)
		assert.Equal(t, tt.want, got, "%s %q", tt.typ, tt.raw)
	}
}

func TestParseValueRejects(t *testing.T) {
	tests := []struct {
		typ ValueType
		raw string
	}{
		{BoolType, "yes"},
		{BoolType, "1"},
		{IntType, "1.5"},
		{IntType, "12abc"},
		{IntType, ""},
		{FloatType, "ten"},
		{FloatType, "1_000.5"},
		{FloatType, "0x1p-2"},
		{FloatType, "-0X10"},
		{IntType, "1_000"},
		{IntType, "0x10"},
		{BoolType, "fal\u017fe"},
		{BoolType, "\u0442rue"},
	}
	for _, tt := range tests {
		_, err := tt.typ.Parse(tt.raw)
		assert.ErrorIs(t, err, dberr.ErrInvalidFieldValue, "%s %q", tt.typ, tt.raw)
	}
}

func TestValueRoundTrip(t *testing.T) {
	values := []Value{
		BoolValue(true),
		BoolValue(false),
		IntValue(0),
		IntValue(math.MaxInt64),
		IntValue(math.MinInt64),
		FloatValue(10.5),
		FloatValue(-0.125),
		FloatValue(1e21),
		FloatValue(0.1),
		StringValue("hello world"),
		StringValue("tab\tinside"),
	}
	for _, v := range values {
		back, err := v.Type().Parse(v.String())
		require.NoError(t, err, v.String())
		assert.True(t, v.Equal(back), "%v != %v", v, back)
		assert.Equal(t, v.Type(), back.Type())
	}
}

func TestParseValueType(t *testing.T) {
	for _, name := range []string{"Bool", "Int", "Float", "String"} {
		typ, err := ParseValueType(name)
		require.NoError(t, err)
		assert.Equal(t, name, typ.String())
	}
	_, err := ParseValueType("int")
	assert.ErrorIs(t, err, dberr.ErrInvalidFieldType)
}

func TestValueEqual(t *testing.T) {
	assert.True(t, IntValue(2).Equal(FloatValue(2)))
	assert.True(t, FloatValue(2).Equal(IntValue(2)))
	assert.False(t, IntValue(2).Equal(FloatValue(2.5)))
	assert.True(t, StringValue("a").Equal(StringValue("a")))
	assert.True(t, BoolValue(true).Equal(BoolValue(true)))
	assert.False(t, BoolValue(true).Equal(IntValue(1)))
	assert.False(t, StringValue("1").Equal(IntValue(1)))
}

func TestValueGreater(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{IntValue(3), IntValue(2), true},
		{IntValue(2), IntValue(3), false},
		{FloatValue(2.5), IntValue(2), true},
		{IntValue(2), FloatValue(2.5), false},
		{StringValue("b"), StringValue("a"), true},
		{StringValue("B"), StringValue("a"), false},
	}
	for _, tt := range tests {
		got, err := tt.a.Greater(tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v > %v", tt.a, tt.b)
	}

	for _, pair := range [][2]Value{
		{BoolValue(true), BoolValue(false)},
		{StringValue("1"), IntValue(1)},
		{IntValue(1), BoolValue(true)},
	} {
		_, err := pair[0].Greater(pair[1])
		assert.ErrorIs(t, err, dberr.ErrCannotCompareValue)
	}
}

func TestKeys(t *testing.T) {
	var ik IntKey
	assert.True(t, ik.AcceptsType(IntType))
	assert.False(t, ik.AcceptsType(FloatType))
	k, ok := ik.FromValue(IntValue(9))
	assert.True(t, ok)
	assert.Equal(t, IntKey(9), k)
	_, ok = ik.FromValue(StringValue("9"))
	assert.False(t, ok)
	_, err := ik.ParseKey("nine")
	assert.ErrorIs(t, err, dberr.ErrInvalidFieldValue)

	var sk StringKey
	assert.True(t, sk.AcceptsType(StringType))
	assert.False(t, sk.AcceptsType(IntType))
	s, err := sk.ParseKey("bob")
	require.NoError(t, err)
	assert.Equal(t, StringKey("bob"), s)

	kind, err := ParseKeyKind("String")
	require.NoError(t, err)
	assert.Equal(t, StringKeyed, kind)
	_, err = ParseKeyKind("float")
	assert.ErrorIs(t, err, dberr.ErrInvalidKeyType)
}
