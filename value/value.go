// Package value implements the dynamic value type used to carry graph
// instructions, node properties and emitted events across the control
// boundary. It is a closed sum over eight variants; every conversion to a
// concrete type is fallible and fails with BadVariantError instead of
// coercing.
package value

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	// KindUndefined is the zero variant.
	KindUndefined Kind = iota
	// KindNull is an explicit null.
	KindNull
	// KindBool is a boolean.
	KindBool
	// KindNumber is a double-precision float.
	KindNumber
	// KindString is a string.
	KindString
	// KindArray is an ordered sequence of values.
	KindArray
	// KindObject is a string-keyed map of values.
	KindObject
	// KindFloatBuffer is a contiguous sequence of 32-bit floats.
	KindFloatBuffer
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFloatBuffer:
		return "float buffer"
	}
	return "unknown"
}

// BadVariantError is returned when a Value is accessed as the wrong variant.
type BadVariantError struct {
	Want Kind
	Got  Kind
}

func (e *BadVariantError) Error() string {
	return fmt.Sprintf("bad variant access: want %v, got %v", e.Want, e.Got)
}

// Value is a tagged dynamic value. The zero Value is Undefined.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	a    []Value
	o    map[string]Value
	f    []float32
}

var (
	// Undefined is the undefined value.
	Undefined = Value{kind: KindUndefined}
	// Null is the null value.
	Null = Value{kind: KindNull}
)

// BoolVal returns a bool value.
func BoolVal(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// NumberVal returns a number value.
func NumberVal(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

// StringVal returns a string value.
func StringVal(s string) Value {
	return Value{kind: KindString, s: s}
}

// ArrayVal returns an array value holding the provided elements.
func ArrayVal(elems ...Value) Value {
	return Value{kind: KindArray, a: elems}
}

// ObjectVal returns an object value holding the provided fields.
func ObjectVal(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, o: fields}
}

// FloatBufferVal returns a float buffer value. The slice is retained, not
// copied; callers hand over ownership.
func FloatBufferVal(data []float32) Value {
	return Value{kind: KindFloatBuffer, f: data}
}

// Kind returns the active variant.
func (v Value) Kind() Kind {
	return v.kind
}

// IsUndefined reports whether the value is undefined.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool converts the value to a bool.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, &BadVariantError{Want: KindBool, Got: v.kind}
	}
	return v.b, nil
}

// AsNumber converts the value to a float64.
func (v Value) AsNumber() (float64, error) {
	if v.kind != KindNumber {
		return 0, &BadVariantError{Want: KindNumber, Got: v.kind}
	}
	return v.n, nil
}

// AsString converts the value to a string.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", &BadVariantError{Want: KindString, Got: v.kind}
	}
	return v.s, nil
}

// AsArray converts the value to its element slice.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, &BadVariantError{Want: KindArray, Got: v.kind}
	}
	return v.a, nil
}

// AsObject converts the value to its field map.
func (v Value) AsObject() (map[string]Value, error) {
	if v.kind != KindObject {
		return nil, &BadVariantError{Want: KindObject, Got: v.kind}
	}
	return v.o, nil
}

// AsFloatBuffer converts the value to its float32 slice. Callers must not
// mutate the returned slice.
func (v Value) AsFloatBuffer() ([]float32, error) {
	if v.kind != KindFloatBuffer {
		return nil, &BadVariantError{Want: KindFloatBuffer, Got: v.kind}
	}
	return v.f, nil
}

// Len returns the number of elements for arrays, fields for objects and
// samples for float buffers. It is zero for every other variant.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.a)
	case KindObject:
		return len(v.o)
	case KindFloatBuffer:
		return len(v.f)
	}
	return 0
}

// Index returns the i-th element of an array value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.a) {
		return Undefined, false
	}
	return v.a[i], true
}

// Field returns the named field of an object value.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Undefined, false
	}
	f, ok := v.o[key]
	return f, ok
}

// Equal reports structural equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.a) != len(o.a) {
			return false
		}
		for i := range v.a {
			if !v.a[i].Equal(o.a[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.o) != len(o.o) {
			return false
		}
		for k, f := range v.o {
			of, ok := o.o[k]
			if !ok || !f.Equal(of) {
				return false
			}
		}
		return true
	case KindFloatBuffer:
		if len(v.f) != len(o.f) {
			return false
		}
		for i := range v.f {
			if v.f[i] != o.f[i] {
				return false
			}
		}
		return true
	}
	return false
}

// String returns a debug representation.
func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindNumber:
		return fmt.Sprintf("%v", v.n)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindArray:
		elems := make([]string, len(v.a))
		for i := range v.a {
			elems[i] = v.a[i].String()
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case KindObject:
		fields := make([]string, 0, len(v.o))
		for k, f := range v.o {
			fields = append(fields, fmt.Sprintf("%q: %v", k, f))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case KindFloatBuffer:
		return fmt.Sprintf("float buffer of %d", len(v.f))
	}
	return "unknown"
}

// FromAny maps an arbitrary Go value into a Value at the host boundary.
// Unsupported shapes, including anything callable, map to Undefined.
func FromAny(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return BoolVal(t)
	case float64:
		return NumberVal(t)
	case float32:
		return NumberVal(float64(t))
	case int:
		return NumberVal(float64(t))
	case int32:
		return NumberVal(float64(t))
	case int64:
		return NumberVal(float64(t))
	case string:
		return StringVal(t)
	case []float32:
		return FloatBufferVal(t)
	case []interface{}:
		elems := make([]Value, len(t))
		for i := range t {
			elems[i] = FromAny(t[i])
		}
		return ArrayVal(elems...)
	case map[string]interface{}:
		fields := make(map[string]Value, len(t))
		for k, f := range t {
			fields[k] = FromAny(f)
		}
		return ObjectVal(fields)
	}
	if reflect.ValueOf(x).Kind() == reflect.Func {
		return Undefined
	}
	return Undefined
}
