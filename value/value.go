package value

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Value is a tagged union over every supported USD scalar/array payload,
// plus the ValueBlock sentinel. TypeName is always the bare (non-array)
// canonical name; IsArray distinguishes "float3" from "float3[]".
type Value struct {
	TypeName string
	IsArray  bool
	Blocked  bool
	v        interface{}
}

// Block returns the ValueBlock sentinel for typeName (the authored erase,
// written as "None" in USDA).
func Block(typeName string) Value {
	base, isArray := SplitArrayType(typeName)
	return Value{TypeName: base, IsArray: isArray, Blocked: true}
}

// NewScalar constructs a Value of the given scalar type name, validating v's
// Go type against the registry.
func NewScalar(typeName string, v interface{}) (Value, error) {
	base, isArray := SplitArrayType(typeName)
	if isArray {
		return Value{}, errors.Errorf("NewScalar: %q is an array type", typeName)
	}
	want, ok := registry[base]
	if !ok {
		return Value{}, errors.Errorf("unknown USD type %q", typeName)
	}
	if got := reflect.TypeOf(v); got != want {
		return Value{}, errors.Errorf("type %q expects Go type %s, got %s", base, want, got)
	}
	return Value{TypeName: base, v: v}, nil
}

// NewArray constructs an array-valued Value. v must be a slice whose
// element type matches the registry entry for base.
func NewArray(typeName string, v interface{}) (Value, error) {
	base, _ := SplitArrayType(typeName)
	want, ok := registry[base]
	if !ok {
		return Value{}, errors.Errorf("unknown USD type %q", typeName)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return Value{}, errors.Errorf("array type %q expects a slice, got %T", typeName, v)
	}
	if rv.Type().Elem() != want {
		return Value{}, errors.Errorf("array type %q expects []%s, got %s", base, want, rv.Type())
	}
	return Value{TypeName: base, IsArray: true, v: v}, nil
}

// FullTypeName renders TypeName with its "[]" suffix if this is an array
// value.
func (val Value) FullTypeName() string {
	if val.IsArray {
		return val.TypeName + "[]"
	}
	return val.TypeName
}

// Raw returns the underlying Go payload (nil for a blocked value).
func (val Value) Raw() interface{} {
	return val.v
}

// Get attempts a typed extraction of val's payload.
func Get[T any](val Value) (T, bool) {
	var zero T
	if val.Blocked {
		return zero, false
	}
	t, ok := val.v.(T)
	return t, ok
}

// Equal reports whether two Values have identical type and payload.
// Two Values compare equal iff their type names (including array-ness)
// match and their payloads compare equal componentwise, per section 4.2.
func (val Value) Equal(o Value) bool {
	if val.TypeName != o.TypeName || val.IsArray != o.IsArray || val.Blocked != o.Blocked {
		return false
	}
	if val.Blocked {
		return true
	}
	return reflect.DeepEqual(val.v, o.v)
}

// String pretty-prints the value for diagnostics.
func (val Value) String() string {
	if val.Blocked {
		return "None"
	}
	return fmt.Sprintf("%s %v", val.FullTypeName(), val.v)
}
