package value

import (
	"reflect"
	"strings"

	"github.com/usdgo/usd/pathutil"
)

func goType[T any]() reflect.Type {
	var zero T
	return reflect.TypeOf(zero)
}

// registry is the closed set of canonical USD scalar type names mapped to
// the Go representation type backing that value, per section 4.2's "type
// registry keyed by canonical type name". Array forms are not stored
// separately: a type name's array form is always []T for its scalar Go
// type T, and is recognized by a trailing "[]" on the authored type name.
var registry = map[string]reflect.Type{
	"bool":       goType[bool](),
	"int":        goType[int32](),
	"uint":       goType[uint32](),
	"int64":      goType[int64](),
	"uint64":     goType[uint64](),
	"half":       goType[Half](),
	"float":      goType[float32](),
	"double":     goType[float64](),
	"string":     goType[string](),
	"token":      goType[pathutil.Token](),
	"asset":      goType[AssetPath](),
	"path":       goType[pathutil.Path](),
	"reference":  goType[Reference](),
	"dictionary": goType[Dictionary](),
	"timecode":   goType[float64](),

	"int2": goType[Int2](), "int3": goType[Int3](), "int4": goType[Int4](),
	"half2": goType[Vec2H](), "half3": goType[Vec3H](), "half4": goType[Vec4H](),
	"float2": goType[Vec2F](), "float3": goType[Vec3F](), "float4": goType[Vec4F](),
	"double2": goType[Vec2D](), "double3": goType[Vec3D](), "double4": goType[Vec4D](),

	"color3h": goType[Vec3H](), "color3f": goType[Vec3F](), "color3d": goType[Vec3D](),
	"color4h": goType[Vec4H](), "color4f": goType[Vec4F](), "color4d": goType[Vec4D](),

	"point3h": goType[Vec3H](), "point3f": goType[Vec3F](), "point3d": goType[Vec3D](),
	"normal3h": goType[Vec3H](), "normal3f": goType[Vec3F](), "normal3d": goType[Vec3D](),
	"vector3h": goType[Vec3H](), "vector3f": goType[Vec3F](), "vector3d": goType[Vec3D](),

	"texCoord2h": goType[Vec2H](), "texCoord2f": goType[Vec2F](), "texCoord2d": goType[Vec2D](),
	"texCoord3h": goType[Vec3H](), "texCoord3f": goType[Vec3F](), "texCoord3d": goType[Vec3D](),

	"quath": goType[QuatH](), "quatf": goType[QuatF](), "quatd": goType[QuatD](),

	"matrix2d": goType[Matrix2D](), "matrix3d": goType[Matrix3D](), "matrix4d": goType[Matrix4D](),
}

// Dictionary maps a string key to a MetaVariable, per section 3.
type Dictionary map[string]MetaVariable

// MetaVariable is (name, type, value) where type is the canonical USD type
// name, possibly suffixed "[]" for arrays.
type MetaVariable struct {
	Name  string
	Type  string
	Value Value
}

// SplitArrayType strips a trailing "[]" from a type name, reporting
// whether it was present.
func SplitArrayType(typeName string) (base string, isArray bool) {
	if strings.HasSuffix(typeName, "[]") {
		return typeName[:len(typeName)-2], true
	}
	return typeName, false
}

// IsKnownType reports whether base (without any "[]" suffix) is in the
// closed type registry.
func IsKnownType(base string) bool {
	_, ok := registry[base]
	return ok
}

// TypeNames returns every canonical scalar type name the registry knows,
// for diagnostics and exhaustive tests.
func TypeNames() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
