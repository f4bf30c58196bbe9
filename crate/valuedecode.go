package crate

import (
	"encoding/binary"
	"math"

	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/value"
)

// fieldDecoder reads fixed-width little-endian scalars off a byte cursor,
// the out-of-line counterpart to the ascii parser's token-based
// parseScalarValue — same closed set of USD type names, different wire
// shape (raw bytes instead of text literals).
type fieldDecoder struct {
	data []byte
	off  int
}

func newFieldDecoder(data []byte) *fieldDecoder { return &fieldDecoder{data: data} }

func (d *fieldDecoder) u32() uint32 {
	v := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return v
}
func (d *fieldDecoder) u64() uint64 {
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return v
}
func (d *fieldDecoder) f32() float32 {
	return math.Float32frombits(d.u32())
}
func (d *fieldDecoder) f64() float64 {
	return math.Float64frombits(d.u64())
}
func (d *fieldDecoder) str() string {
	n := d.u32()
	s := string(d.data[d.off : d.off+int(n)])
	d.off += int(n)
	return s
}

func (d *fieldDecoder) decodeScalar(base string) (value.Value, error) {
	switch base {
	case "bool":
		return value.NewScalar("bool", d.u32() != 0)
	case "int":
		return value.NewScalar("int", int32(d.u32()))
	case "uint":
		return value.NewScalar("uint", d.u32())
	case "int64":
		return value.NewScalar("int64", int64(d.u64()))
	case "uint64":
		return value.NewScalar("uint64", d.u64())
	case "half":
		return value.NewScalar("half", value.HalfFromFloat32(d.f32()))
	case "float":
		return value.NewScalar("float", d.f32())
	case "double", "timecode":
		return value.NewScalar(base, d.f64())
	case "string":
		return value.NewScalar("string", d.str())
	case "token":
		return value.NewScalar("token", pathutil.Intern(d.str()))
	case "asset":
		return value.NewScalar("asset", value.AssetPath{Raw: d.str()})
	case "path":
		p, err := pathutil.Parse(d.str())
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("path", p)
	case "int2":
		return value.NewScalar(base, value.Int2{X: int32(d.u32()), Y: int32(d.u32())})
	case "int3":
		return value.NewScalar(base, value.Int3{X: int32(d.u32()), Y: int32(d.u32()), Z: int32(d.u32())})
	case "int4":
		return value.NewScalar(base, value.Int4{X: int32(d.u32()), Y: int32(d.u32()), Z: int32(d.u32()), W: int32(d.u32())})
	case "float2", "texCoord2f":
		return value.NewScalar(base, value.Vec2F{X: d.f32(), Y: d.f32()})
	case "float3", "color3f", "point3f", "normal3f", "vector3f", "texCoord3f":
		return value.NewScalar(base, value.Vec3F{X: d.f32(), Y: d.f32(), Z: d.f32()})
	case "float4", "color4f":
		return value.NewScalar(base, value.Vec4F{X: d.f32(), Y: d.f32(), Z: d.f32(), W: d.f32()})
	case "double2", "texCoord2d":
		return value.NewScalar(base, value.Vec2D{X: d.f64(), Y: d.f64()})
	case "double3", "color3d", "point3d", "normal3d", "vector3d", "texCoord3d":
		return value.NewScalar(base, value.Vec3D{X: d.f64(), Y: d.f64(), Z: d.f64()})
	case "double4", "color4d":
		return value.NewScalar(base, value.Vec4D{X: d.f64(), Y: d.f64(), Z: d.f64(), W: d.f64()})
	case "half2", "texCoord2h":
		return value.NewScalar(base, value.Vec2H{X: value.HalfFromFloat32(d.f32()), Y: value.HalfFromFloat32(d.f32())})
	case "half3", "color3h", "point3h", "normal3h", "vector3h", "texCoord3h":
		return value.NewScalar(base, value.Vec3H{X: value.HalfFromFloat32(d.f32()), Y: value.HalfFromFloat32(d.f32()), Z: value.HalfFromFloat32(d.f32())})
	case "half4", "color4h":
		return value.NewScalar(base, value.Vec4H{
			X: value.HalfFromFloat32(d.f32()), Y: value.HalfFromFloat32(d.f32()),
			Z: value.HalfFromFloat32(d.f32()), W: value.HalfFromFloat32(d.f32()),
		})
	case "quath":
		return value.NewScalar(base, value.QuatH{
			X: value.HalfFromFloat32(d.f32()), Y: value.HalfFromFloat32(d.f32()),
			Z: value.HalfFromFloat32(d.f32()), W: value.HalfFromFloat32(d.f32()),
		})
	case "quatf":
		return value.NewScalar(base, value.QuatF{X: d.f32(), Y: d.f32(), Z: d.f32(), W: d.f32()})
	case "quatd":
		return value.NewScalar(base, value.QuatD{X: d.f64(), Y: d.f64(), Z: d.f64(), W: d.f64()})
	case "matrix2d":
		var m value.Matrix2D
		for i := range m {
			m[i] = d.f64()
		}
		return value.NewScalar(base, m)
	case "matrix3d":
		var m value.Matrix3D
		for i := range m {
			m[i] = d.f64()
		}
		return value.NewScalar(base, m)
	case "matrix4d":
		var m value.Matrix4D
		for i := range m {
			m[i] = d.f64()
		}
		return value.NewScalar(base, m)
	default:
		return value.Value{}, errIntegrity(SectionValueReps, int64(d.off), "unsupported out-of-line scalar type %q", base)
	}
}

func (d *fieldDecoder) decodeArray(base string) (value.Value, error) {
	n := int(d.u32())
	elems := make([]value.Value, n)
	for i := 0; i < n; i++ {
		v, err := d.decodeScalar(base)
		if err != nil {
			return value.Value{}, err
		}
		elems[i] = v
	}
	return buildArrayValue(base, elems)
}

// buildArrayValue mirrors ascii.buildArray's scalar-slice -> typed-slice
// dispatch, duplicated here rather than exported from ascii since the two
// packages build Values from distinct sources (text tokens vs. decoded
// binary scalars) and sharing would couple crate to ascii's token types.
func buildArrayValue(base string, elems []value.Value) (value.Value, error) {
	switch base {
	case "bool":
		return newTypedArray(base, elems, func(v value.Value) bool { x, _ := value.Get[bool](v); return x })
	case "int":
		return newTypedArray(base, elems, func(v value.Value) int32 { x, _ := value.Get[int32](v); return x })
	case "uint":
		return newTypedArray(base, elems, func(v value.Value) uint32 { x, _ := value.Get[uint32](v); return x })
	case "int64":
		return newTypedArray(base, elems, func(v value.Value) int64 { x, _ := value.Get[int64](v); return x })
	case "uint64":
		return newTypedArray(base, elems, func(v value.Value) uint64 { x, _ := value.Get[uint64](v); return x })
	case "half":
		return newTypedArray(base, elems, func(v value.Value) value.Half { x, _ := value.Get[value.Half](v); return x })
	case "float":
		return newTypedArray(base, elems, func(v value.Value) float32 { x, _ := value.Get[float32](v); return x })
	case "double", "timecode":
		return newTypedArray(base, elems, func(v value.Value) float64 { x, _ := value.Get[float64](v); return x })
	case "string":
		return newTypedArray(base, elems, func(v value.Value) string { x, _ := value.Get[string](v); return x })
	case "token":
		return newTypedArray(base, elems, func(v value.Value) pathutil.Token { x, _ := value.Get[pathutil.Token](v); return x })
	case "asset":
		return newTypedArray(base, elems, func(v value.Value) value.AssetPath { x, _ := value.Get[value.AssetPath](v); return x })
	case "path":
		return newTypedArray(base, elems, func(v value.Value) pathutil.Path { x, _ := value.Get[pathutil.Path](v); return x })
	case "int2":
		return newTypedArray(base, elems, func(v value.Value) value.Int2 { x, _ := value.Get[value.Int2](v); return x })
	case "int3":
		return newTypedArray(base, elems, func(v value.Value) value.Int3 { x, _ := value.Get[value.Int3](v); return x })
	case "int4":
		return newTypedArray(base, elems, func(v value.Value) value.Int4 { x, _ := value.Get[value.Int4](v); return x })
	case "float2", "texCoord2f":
		return newTypedArray(base, elems, func(v value.Value) value.Vec2F { x, _ := value.Get[value.Vec2F](v); return x })
	case "float3", "color3f", "point3f", "normal3f", "vector3f", "texCoord3f":
		return newTypedArray(base, elems, func(v value.Value) value.Vec3F { x, _ := value.Get[value.Vec3F](v); return x })
	case "float4", "color4f":
		return newTypedArray(base, elems, func(v value.Value) value.Vec4F { x, _ := value.Get[value.Vec4F](v); return x })
	case "double2", "texCoord2d":
		return newTypedArray(base, elems, func(v value.Value) value.Vec2D { x, _ := value.Get[value.Vec2D](v); return x })
	case "double3", "color3d", "point3d", "normal3d", "vector3d", "texCoord3d":
		return newTypedArray(base, elems, func(v value.Value) value.Vec3D { x, _ := value.Get[value.Vec3D](v); return x })
	case "double4", "color4d":
		return newTypedArray(base, elems, func(v value.Value) value.Vec4D { x, _ := value.Get[value.Vec4D](v); return x })
	case "half2", "texCoord2h":
		return newTypedArray(base, elems, func(v value.Value) value.Vec2H { x, _ := value.Get[value.Vec2H](v); return x })
	case "half3", "color3h", "point3h", "normal3h", "vector3h", "texCoord3h":
		return newTypedArray(base, elems, func(v value.Value) value.Vec3H { x, _ := value.Get[value.Vec3H](v); return x })
	case "half4", "color4h":
		return newTypedArray(base, elems, func(v value.Value) value.Vec4H { x, _ := value.Get[value.Vec4H](v); return x })
	case "quath":
		return newTypedArray(base, elems, func(v value.Value) value.QuatH { x, _ := value.Get[value.QuatH](v); return x })
	case "quatf":
		return newTypedArray(base, elems, func(v value.Value) value.QuatF { x, _ := value.Get[value.QuatF](v); return x })
	case "quatd":
		return newTypedArray(base, elems, func(v value.Value) value.QuatD { x, _ := value.Get[value.QuatD](v); return x })
	case "matrix2d":
		return newTypedArray(base, elems, func(v value.Value) value.Matrix2D { x, _ := value.Get[value.Matrix2D](v); return x })
	case "matrix3d":
		return newTypedArray(base, elems, func(v value.Value) value.Matrix3D { x, _ := value.Get[value.Matrix3D](v); return x })
	case "matrix4d":
		return newTypedArray(base, elems, func(v value.Value) value.Matrix4D { x, _ := value.Get[value.Matrix4D](v); return x })
	default:
		return value.Value{}, errIntegrity(SectionValueReps, 0, "unsupported array element type %q", base)
	}
}

func newTypedArray[T any](base string, elems []value.Value, f func(value.Value) T) (value.Value, error) {
	out := make([]T, len(elems))
	for i, e := range elems {
		out[i] = f(e)
	}
	return value.NewArray(base+"[]", out)
}
