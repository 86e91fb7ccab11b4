package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Value is a single attribute value read from or written to a record.
// It holds one of: nil, bool, string, int64 or float64.
type Value struct {
	v any
}

// Null is the absent value.
var Null = Value{}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{v: b} }

// String wraps a string.
func String(s string) Value { return Value{v: s} }

// Int wraps an integer.
func Int(i int64) Value { return Value{v: i} }

// Float wraps a floating point number.
func Float(f float64) Value { return Value{v: f} }

// NewValue normalizes a driver value into a Value.
func NewValue(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case time.Time:
		return String(x.Format(time.RFC3339))
	case fmt.Stringer:
		return String(x.String())
	default:
		return String(fmt.Sprint(x))
	}
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.v == nil }

// Raw returns the underlying Go value.
func (v Value) Raw() any { return v.v }

// Truthy coerces the value to a boolean. Null, false, zero, "" and "0" are false.
func (v Value) Truthy() bool {
	switch x := v.v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != "" && x != "0"
	default:
		return true
	}
}

// IsBool reports whether the value holds a boolean.
func (v Value) IsBool() bool {
	_, ok := v.v.(bool)
	return ok
}

// String renders the value for display. Null renders as "".
func (v Value) String() string {
	switch x := v.v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Equal reports whether two values hold the same underlying value.
func (v Value) Equal(o Value) bool {
	return v.v == o.v
}

// MarshalJSON encodes the underlying value.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes any JSON scalar into the value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*v = NewValue(raw)

	return nil
}
