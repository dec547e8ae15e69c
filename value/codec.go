package value

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Variants without a native JSON shape travel inside single-field envelopes.
// A single-field object whose own key would read as an envelope gets one
// more leading dollar sign on encode, so every object round-trips intact.
const (
	undefinedTag   = "$undefined"
	floatBufferTag = "$float32"
)

// reservedKey reports whether a key is an envelope tag or an escaped form
// of one, i.e. one or more dollar signs followed by a tag name.
func reservedKey(k string) bool {
	trimmed := strings.TrimLeft(k, "$")
	if len(trimmed) == len(k) {
		return false
	}
	return "$"+trimmed == undefinedTag || "$"+trimmed == floatBufferTag
}

// MarshalJSON encodes the value so that Decode yields a structurally equal
// value for all eight variants.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toJSON())
}

func (v Value) toJSON() interface{} {
	switch v.kind {
	case KindUndefined:
		return map[string]interface{}{undefinedTag: true}
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		elems := make([]interface{}, len(v.a))
		for i := range v.a {
			elems[i] = v.a[i].toJSON()
		}
		return elems
	case KindObject:
		fields := make(map[string]interface{}, len(v.o))
		for k, f := range v.o {
			if len(v.o) == 1 && reservedKey(k) {
				k = "$" + k
			}
			fields[k] = f.toJSON()
		}
		return fields
	case KindFloatBuffer:
		return map[string]interface{}{floatBufferTag: v.f}
	}
	return nil
}

// UnmarshalJSON decodes a value previously encoded with MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := fromJSON(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func fromJSON(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null, nil
	case bool:
		return BoolVal(t), nil
	case float64:
		return NumberVal(t), nil
	case string:
		return StringVal(t), nil
	case []interface{}:
		elems := make([]Value, len(t))
		for i := range t {
			e, err := fromJSON(t[i])
			if err != nil {
				return Undefined, err
			}
			elems[i] = e
		}
		return ArrayVal(elems...), nil
	case map[string]interface{}:
		if len(t) == 1 {
			if raw, ok := t[undefinedTag]; ok {
				if b, ok := raw.(bool); !ok || !b {
					return Undefined, fmt.Errorf("value: malformed %v envelope", undefinedTag)
				}
				return Undefined, nil
			}
			if raw, ok := t[floatBufferTag]; ok {
				elems, ok := raw.([]interface{})
				if !ok {
					return Undefined, fmt.Errorf("value: malformed %v envelope", floatBufferTag)
				}
				data := make([]float32, len(elems))
				for i := range elems {
					n, ok := elems[i].(float64)
					if !ok {
						return Undefined, fmt.Errorf("value: malformed %v envelope", floatBufferTag)
					}
					data[i] = float32(n)
				}
				return FloatBufferVal(data), nil
			}
			// an escaped key loses one dollar sign and stays a plain field
			for k, raw := range t {
				if !reservedKey(k) {
					break
				}
				f, err := fromJSON(raw)
				if err != nil {
					return Undefined, err
				}
				return ObjectVal(map[string]Value{k[1:]: f}), nil
			}
		}
		fields := make(map[string]Value, len(t))
		for k, f := range t {
			d, err := fromJSON(f)
			if err != nil {
				return Undefined, err
			}
			fields[k] = d
		}
		return ObjectVal(fields), nil
	}
	return Undefined, fmt.Errorf("value: cannot decode %T", raw)
}

// Encode serializes the value to its boundary form.
func Encode(v Value) ([]byte, error) {
	return json.Marshal(v)
}

// Decode parses a value from its boundary form.
func Decode(data []byte) (Value, error) {
	var v Value
	err := json.Unmarshal(data, &v)
	return v, err
}
