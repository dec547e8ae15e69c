package value_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/audiograph/value"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		value    value.Value
		expected value.Kind
	}{
		{value.Undefined, value.KindUndefined},
		{value.Null, value.KindNull},
		{value.BoolVal(true), value.KindBool},
		{value.NumberVal(440), value.KindNumber},
		{value.StringVal("/ir.wav"), value.KindString},
		{value.ArrayVal(value.NumberVal(1)), value.KindArray},
		{value.ObjectVal(map[string]value.Value{"kind": value.StringVal("createNode")}), value.KindObject},
		{value.FloatBufferVal([]float32{1, 0, 0, 0}), value.KindFloatBuffer},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.value.Kind())
	}
}

func TestBadVariant(t *testing.T) {
	v := value.NumberVal(1)

	_, err := v.AsString()
	assert.Error(t, err)
	var bad *value.BadVariantError
	assert.True(t, errors.As(err, &bad))
	assert.Equal(t, value.KindString, bad.Want)
	assert.Equal(t, value.KindNumber, bad.Got)

	_, err = v.AsBool()
	assert.Error(t, err)
	_, err = v.AsArray()
	assert.Error(t, err)
	_, err = v.AsObject()
	assert.Error(t, err)
	_, err = v.AsFloatBuffer()
	assert.Error(t, err)

	n, err := v.AsNumber()
	assert.NoError(t, err)
	assert.Equal(t, 1.0, n)
}

func TestIndexField(t *testing.T) {
	arr := value.ArrayVal(value.NumberVal(1), value.StringVal("two"))
	obj := value.ObjectVal(map[string]value.Value{"freq": value.NumberVal(440)})

	v, ok := arr.Index(1)
	assert.True(t, ok)
	assert.True(t, v.Equal(value.StringVal("two")))

	_, ok = arr.Index(2)
	assert.False(t, ok)
	_, ok = arr.Index(-1)
	assert.False(t, ok)

	v, ok = obj.Field("freq")
	assert.True(t, ok)
	assert.True(t, v.Equal(value.NumberVal(440)))

	_, ok = obj.Field("gain")
	assert.False(t, ok)

	_, ok = obj.Index(0)
	assert.False(t, ok)
	assert.Equal(t, 2, arr.Len())
	assert.Equal(t, 1, obj.Len())
}

func TestEqual(t *testing.T) {
	tests := []struct {
		description string
		left        value.Value
		right       value.Value
		expected    bool
	}{
		{
			description: "nested structural equality",
			left: value.ObjectVal(map[string]value.Value{
				"a": value.ArrayVal(value.NumberVal(1), value.Null),
				"b": value.FloatBufferVal([]float32{1, 2}),
			}),
			right: value.ObjectVal(map[string]value.Value{
				"a": value.ArrayVal(value.NumberVal(1), value.Null),
				"b": value.FloatBufferVal([]float32{1, 2}),
			}),
			expected: true,
		},
		{
			description: "different variant",
			left:        value.NumberVal(1),
			right:       value.BoolVal(true),
			expected:    false,
		},
		{
			description: "different buffer contents",
			left:        value.FloatBufferVal([]float32{1, 2}),
			right:       value.FloatBufferVal([]float32{1, 3}),
			expected:    false,
		},
		{
			description: "different object keys",
			left:        value.ObjectVal(map[string]value.Value{"a": value.Null}),
			right:       value.ObjectVal(map[string]value.Value{"b": value.Null}),
			expected:    false,
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.left.Equal(test.right), test.description)
	}
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		description string
		input       interface{}
		expected    value.Value
	}{
		{"nil", nil, value.Null},
		{"bool", true, value.BoolVal(true)},
		{"float64", 1.5, value.NumberVal(1.5)},
		{"int", 2, value.NumberVal(2)},
		{"string", "hello", value.StringVal("hello")},
		{"float32 slice", []float32{1, 0}, value.FloatBufferVal([]float32{1, 0})},
		{
			"nested",
			map[string]interface{}{"a": []interface{}{1.0, "b"}},
			value.ObjectVal(map[string]value.Value{
				"a": value.ArrayVal(value.NumberVal(1), value.StringVal("b")),
			}),
		},
		// callback-shaped input is not representable
		{"func", func() {}, value.Undefined},
		{"unsupported", struct{}{}, value.Undefined},
	}
	for _, test := range tests {
		assert.True(t, test.expected.Equal(value.FromAny(test.input)), test.description)
	}
}
